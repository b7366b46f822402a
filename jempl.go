// Package jempl compiles a JSON-shaped template into an AST and renders
// that AST against dynamic data. It is a two-phase library: Parse once,
// Render many times against different data, functions, and partials — the
// parsed tree is immutable and safe to reuse across concurrent renders.
//
// Loading a template from YAML/JSON, a one-call parse+render convenience
// wrapper, a default function library, and a playground UI are explicitly
// out of scope; this package is the compiler and the renderer, nothing
// more.
package jempl

import (
	"github.com/yuusoft-org/jempl/ast"
	"github.com/yuusoft-org/jempl/parse"
	"github.com/yuusoft-org/jempl/render"
	"github.com/yuusoft-org/jempl/value"
)

// AST is a compiled template, produced by Parse and consumed by Render.
type AST = ast.Node

// Functions is the table of callables a template's Call expressions and
// $if/$for guards may invoke.
type Functions = render.Functions

// Func is a single callable bound in a Functions table.
type Func = render.Func

// Partials is the table of named templates $partial can expand.
type Partials = render.Partials

// ParseOption configures a Parse call.
type ParseOption = parse.Option

// WithFunctions supplies the function table consulted at parse time, so a
// Call node naming an unknown function is rejected as a ParseError
// instead of surfacing only at render time.
func WithFunctions(fns Functions) ParseOption {
	return parse.WithFunctions(fns)
}

// Parse compiles template (already decoded into Go values — maps,
// slices, strings, numbers, bools, or nil) into an AST.
func Parse(template interface{}, opts ...ParseOption) (AST, error) {
	return parse.Parse(template, opts...)
}

// RenderOption configures a Render call.
type RenderOption = render.Option

// WithRenderFunctions supplies the function table Call nodes resolve
// against during rendering.
func WithRenderFunctions(fns Functions) RenderOption {
	return render.WithFunctions(fns)
}

// WithPartials supplies the named templates $partial can expand.
func WithPartials(p Partials) RenderOption {
	return render.WithPartials(p)
}

// Render walks tree against data and returns the rendered value tree.
// This is the primary, Go-idiomatic entry point.
func Render(tree AST, data interface{}, opts ...RenderOption) (value.Value, error) {
	return render.Render(tree, data, opts...)
}

// RenderLegacy accepts the older three-positional render(ast, data,
// functions) call shape some callers were written against, routing it
// through the same renderer as Render so both produce identical results
// (§6's backward-compatibility policy).
func RenderLegacy(tree AST, data interface{}, functions Functions) (value.Value, error) {
	return render.RenderLegacy(tree, data, functions)
}
