// Package render walks an *ast.Node produced by package parse against
// dynamic data, producing a value.Value tree; static subtrees are returned
// as the values cached on the AST at parse time, shared across calls. Render is a pure
// function of (ast, data, functions, partials): the AST and the input data
// are never mutated, so a parsed template can be rendered repeatedly and
// concurrently from independent Render calls (§5).
package render

import (
	"github.com/yuusoft-org/jempl/ast"
	"github.com/yuusoft-org/jempl/value"
)

// Option configures a Render call.
type Option func(*config)

type config struct {
	functions Functions
	partials  Partials
}

// WithFunctions supplies the function table Call nodes resolve against.
func WithFunctions(fns Functions) Option {
	return func(c *config) { c.functions = fns }
}

// WithPartials supplies the named templates $partial can expand.
func WithPartials(p Partials) Option {
	return func(c *config) { c.partials = p }
}

// Render walks ast against data and returns the rendered value tree. data
// is converted with value.From; an absent/nil root normalizes to an empty
// mapping so property lookups against it resolve safely instead of
// panicking (§4.3). A result that prunes all the way to the root (e.g. a
// root $when that gates off, or a root made of a single unmatched
// $if/$elif chain with no $else) normalizes to an empty mapping rather
// than surfacing Absent to the caller (§8).
func Render(tree ast.Node, data interface{}, opts ...Option) (value.Value, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	root := value.From(data)
	if value.IsNullOrAbsent(root) {
		root = value.NewMapping(0)
	}

	s := &state{
		scope:    NewScope(),
		root:     root,
		fns:      cfg.functions,
		partials: cfg.partials,
	}
	out, err := s.renderNode(tree)
	if err != nil {
		return nil, err
	}
	if value.IsAbsent(out) {
		return value.NewMapping(0), nil
	}
	return out, nil
}

// RenderLegacy accepts the older three-positional call shape,
// render(ast, data, functions), routing it through the same renderer as
// Render so both call shapes behave identically (§6).
func RenderLegacy(tree ast.Node, data interface{}, functions Functions) (value.Value, error) {
	return Render(tree, data, WithFunctions(functions))
}
