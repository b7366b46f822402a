package parse

import (
	"github.com/yuusoft-org/jempl/ast"
	"github.com/yuusoft-org/jempl/value"
)

// Option configures a Parse call.
type Option func(*config)

type config struct {
	functions FuncSet
}

// WithFunctions supplies a function table consulted while parsing: a Call
// node whose name isn't in fns is a ParseError instead of being deferred
// to render time. Omit this option to accept any call name at parse time.
func WithFunctions(fns FuncSet) Option {
	return func(c *config) { c.functions = fns }
}

// Parse compiles a JSON-shaped template (already decoded into Go values —
// loading it from YAML or JSON is the caller's job, per §1's scope) into
// an AST ready for render.Render.
func Parse(template interface{}, opts ...Option) (ast.Node, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return compileValue(value.From(template), cfg.functions)
}
