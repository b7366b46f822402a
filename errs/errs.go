// Package errs defines the two error kinds the core can raise: ParseError
// (malformed directive or expression) and RenderError (a failure condition
// encountered while walking the AST against data).
package errs

import "fmt"

// PositionedError is implemented by both ParseError and RenderError. Since
// the core's input is an in-memory tree rather than source text, "position"
// here is the offending substring (the directive key, expression text, or
// path) rather than a file/line/column, unlike the teacher's
// file-position-bearing errors.
type PositionedError interface {
	error
	// Source returns the offending substring from the template or
	// expression, for inclusion in diagnostics.
	Source() string
	// Suggestion returns a suggested fix, or "" if there is none.
	Suggestion() string
}

// ParseError reports a malformed directive or expression encountered while
// compiling a template into an AST.
type ParseError struct {
	Msg   string
	Src   string
	Fix   string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Src == "" {
		return "parse error: " + e.Msg
	}
	msg := fmt.Sprintf("parse error: %s: %q", e.Msg, e.Src)
	if e.Fix != "" {
		msg += " (" + e.Fix + ")"
	}
	return msg
}

func (e *ParseError) Source() string     { return e.Src }
func (e *ParseError) Suggestion() string { return e.Fix }
func (e *ParseError) Unwrap() error      { return e.Cause }

// NewParseError builds a ParseError with the offending source substring.
func NewParseError(msg, src string) *ParseError {
	return &ParseError{Msg: msg, Src: src}
}

// NewParseErrorf builds a ParseError with a formatted message.
func NewParseErrorf(src, format string, args ...interface{}) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Src: src}
}

// WithSuggestion returns a copy of e with a suggested fix attached.
func (e *ParseError) WithSuggestion(fix string) *ParseError {
	out := *e
	out.Fix = fix
	return &out
}

// RenderError reports a failure encountered while rendering an AST: an
// unknown function or partial, a partial cycle, or a non-sequence loop
// iterable.
type RenderError struct {
	Msg   string
	Src   string
	Cause error
}

func (e *RenderError) Error() string {
	if e.Src == "" {
		return "render error: " + e.Msg
	}
	return fmt.Sprintf("render error: %s: %q", e.Msg, e.Src)
}

func (e *RenderError) Source() string     { return e.Src }
func (e *RenderError) Suggestion() string { return "" }
func (e *RenderError) Unwrap() error      { return e.Cause }

// NewRenderError builds a RenderError with the offending source substring.
func NewRenderError(msg, src string) *RenderError {
	return &RenderError{Msg: msg, Src: src}
}

// NewRenderErrorf builds a RenderError with a formatted message.
func NewRenderErrorf(src, format string, args ...interface{}) *RenderError {
	return &RenderError{Msg: fmt.Sprintf(format, args...), Src: src}
}

// rootCause unwraps err via its Unwrap() error chain until it no longer
// implements it, mirroring errortypes.rootCause in the teacher.
func rootCause(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		next := u.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
}

// IsPositioned reports whether err's root cause is a PositionedError.
func IsPositioned(err error) bool {
	return ToPositioned(err) != nil
}

// ToPositioned returns err's root cause as a PositionedError, or nil.
func ToPositioned(err error) PositionedError {
	if err == nil {
		return nil
	}
	if pe, ok := rootCause(err).(PositionedError); ok {
		return pe
	}
	return nil
}
