package render

import (
	"strings"

	"github.com/yuusoft-org/jempl/ast"
	"github.com/yuusoft-org/jempl/errs"
	"github.com/yuusoft-org/jempl/value"
)

// Func is a render-time callable invoked from a Call expression.
type Func func(args []value.Value) (value.Value, error)

// Functions is the read-only function table consulted during a render.
// Different calls may pass different tables; nothing here is mutated.
type Functions map[string]Func

// Has reports whether name is bound, satisfying parse.FuncSet structurally
// so the same table can gate Call nodes at parse time and resolve them at
// render time.
func (f Functions) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Partials is the table of named templates $partial can expand.
type Partials map[string]ast.Node

// state carries the mutable context threaded through one render call: the
// scope chain, the root data, the read-only function/partial tables, and
// the partial-expansion stack used for cycle detection. A state is never
// shared across concurrent Render calls (§5).
type state struct {
	scope        *Scope
	root         value.Value
	fns          Functions
	partials     Partials
	partialStack []string
}

// renderNode walks a template-level node (or an atomic expression node
// used directly in a template position) against the current scope.
func (s *state) renderNode(n ast.Node) (value.Value, error) {
	switch v := n.(type) {
	case *ast.ObjectNode:
		return s.renderObject(v)
	case *ast.ArrayNode:
		return s.renderArray(v)
	case *ast.ConditionalNode:
		return s.renderConditional(v)
	case *ast.LoopNode:
		return s.renderLoop(v)
	case *ast.PartialNode:
		return s.renderPartial(v)
	default:
		return s.eval(n)
	}
}

func (s *state) renderObject(obj *ast.ObjectNode) (value.Value, error) {
	if obj.Fast {
		return obj.FastValue, nil
	}
	if obj.WhenCondition != nil {
		ok, err := s.evalGuard(obj.WhenCondition)
		if err != nil {
			return nil, err
		}
		if !ok {
			return value.Absent{}, nil
		}
	}

	// An object made of a single $if/$for control key replaces itself
	// wholesale with that control's render result, rather than merging
	// into a wrapper mapping (§4.3).
	if len(obj.Properties) == 1 && obj.Properties[0].IsControl {
		return s.renderNode(obj.Properties[0].Value)
	}

	result := value.NewMapping(len(obj.Properties))
	for _, p := range obj.Properties {
		if p.IsControl {
			sub, err := s.renderNode(p.Value)
			if err != nil {
				return nil, err
			}
			mergeInto(result, sub)
			continue
		}

		key := p.Key
		if p.ParsedKey != nil {
			kv, err := s.eval(p.ParsedKey)
			if err != nil {
				return nil, err
			}
			key = kv.String()
		}
		v, err := s.renderNode(p.Value)
		if err != nil {
			return nil, err
		}
		if value.IsAbsent(v) {
			continue
		}
		result.Set(key, v)
	}
	return result, nil
}

// mergeInto folds a control property's render result into the enclosing
// object: a Mapping merges its keys directly, a Sequence (a $for body
// rendered across iterations) merges each element in turn, and Absent
// (a conditional with no matching branch, or a guarded-off $when) merges
// nothing.
func mergeInto(result *value.Mapping, sub value.Value) {
	switch v := sub.(type) {
	case *value.Mapping:
		v.Each(func(k string, val value.Value) { result.Set(k, val) })
	case value.Sequence:
		for _, item := range v {
			mergeInto(result, item)
		}
	}
}

func (s *state) renderArray(arr *ast.ArrayNode) (value.Value, error) {
	if arr.Fast {
		return arr.FastValue, nil
	}
	var out value.Sequence
	for _, item := range arr.Items {
		if loop, ok := item.(*ast.LoopNode); ok {
			v, err := s.renderLoop(loop)
			if err != nil {
				return nil, err
			}
			if value.IsAbsent(v) {
				continue
			}
			if loop.Flatten {
				if seq, ok := v.(value.Sequence); ok {
					out = append(out, seq...)
					continue
				}
			}
			out = append(out, v)
			continue
		}
		v, err := s.renderNode(item)
		if err != nil {
			return nil, err
		}
		if value.IsAbsent(v) {
			continue
		}
		out = append(out, v)
	}
	if out == nil {
		out = value.Sequence{}
	}
	return out, nil
}

func (s *state) renderConditional(c *ast.ConditionalNode) (value.Value, error) {
	for _, b := range c.Branches {
		if ast.IsElse(b.Guard) {
			return s.renderNode(b.Body)
		}
		ok, err := s.evalGuard(b.Guard)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.renderNode(b.Body)
		}
	}
	return value.Absent{}, nil
}

func (s *state) renderLoop(loop *ast.LoopNode) (value.Value, error) {
	iterVal, err := s.eval(loop.Iterable)
	if err != nil {
		return nil, err
	}
	seq, ok := iterVal.(value.Sequence)
	if !ok {
		return nil, errs.NewRenderError("loop iterable is not a sequence", loop.ItemVar)
	}
	if len(seq) == 0 {
		return value.Sequence{}, nil
	}

	var items value.Sequence
	for i, item := range seq {
		s.scope.Push()
		s.scope.Set(loop.ItemVar, item)
		if loop.IndexVar != "" {
			s.scope.Set(loop.IndexVar, value.Number(i))
		}

		var bodyVal value.Value
		var bodyErr error
		if loop.Fast != nil {
			bodyVal, bodyErr = s.renderFastLoopBody(loop.Fast)
		} else {
			bodyVal, bodyErr = s.renderNode(loop.Body)
		}
		s.scope.Pop()
		if bodyErr != nil {
			return nil, bodyErr
		}
		if value.IsAbsent(bodyVal) {
			continue
		}
		items = append(items, bodyVal)
	}
	if items == nil {
		items = value.Sequence{}
	}
	if loop.Flatten && len(items) == 1 {
		return items[0], nil
	}
	return items, nil
}

func (s *state) renderFastLoopBody(fb *ast.FastLoopBody) (value.Value, error) {
	result := value.NewMapping(len(fb.Accessors))
	for _, a := range fb.Accessors {
		switch a.Kind {
		case "literal":
			result.Set(a.Key, a.Value)
		case "var":
			v := resolvePath(s.scope, s.root, a.Path)
			if value.IsAbsent(v) {
				continue
			}
			result.Set(a.Key, v)
		case "interp1":
			v := resolvePath(s.scope, s.root, a.Path)
			if value.IsAbsent(v) {
				result.Set(a.Key, value.Text(""))
			} else {
				result.Set(a.Key, value.Text(v.String()))
			}
		}
	}
	return result, nil
}

func (s *state) renderPartial(p *ast.PartialNode) (value.Value, error) {
	if p.WhenCondition != nil {
		ok, err := s.evalGuard(p.WhenCondition)
		if err != nil {
			return nil, err
		}
		if !ok {
			return value.Absent{}, nil
		}
	}
	tmpl, ok := s.partials[p.Name]
	if !ok {
		return nil, errs.NewRenderError("unknown partial", p.Name)
	}
	for _, name := range s.partialStack {
		if name == p.Name {
			return nil, errs.NewRenderError("partial cycle detected", p.Name)
		}
	}

	var inline value.Value
	if p.Data != nil {
		v, err := s.renderNode(p.Data)
		if err != nil {
			return nil, err
		}
		inline = v
	}

	s.partialStack = append(s.partialStack, p.Name)
	s.scope.Push()
	if m, ok := inline.(*value.Mapping); ok {
		m.Each(func(k string, v value.Value) { s.scope.Set(k, v) })
	}
	result, err := s.renderNode(tmpl)
	s.scope.Pop()
	s.partialStack = s.partialStack[:len(s.partialStack)-1]
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ---- expression evaluation ----

func (s *state) eval(n ast.Node) (value.Value, error) {
	switch v := n.(type) {
	case *ast.LiteralNode:
		return v.Value, nil
	case *ast.VarNode:
		return resolvePath(s.scope, s.root, v.Path), nil
	case *ast.InterpNode:
		return s.evalInterp(v)
	case *ast.CallNode:
		return s.evalCall(v)
	case *ast.UnaryNode:
		return s.evalUnary(v)
	case *ast.BinaryNode:
		return s.evalBinary(v)
	default:
		return nil, errs.NewRenderErrorf("", "unexpected expression node %T", n)
	}
}

// evalGuard evaluates a condition (an $if/$elif/$when expression) to a
// plain bool. VarNode lookups stay Absent here — unlike evalInterp, this
// path never coerces Absent to empty text, so "${x} == ''"-style
// comparisons can still tell a missing variable from an actually-empty one.
func (s *state) evalGuard(n ast.Node) (bool, error) {
	v, err := s.eval(n)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func truthy(v value.Value) bool {
	if v == nil {
		return false
	}
	return v.Truthy()
}

func (s *state) evalInterp(n *ast.InterpNode) (value.Value, error) {
	var b strings.Builder
	for _, part := range n.Parts {
		if lit, ok := part.(*ast.LiteralNode); ok {
			b.WriteString(lit.Value.String())
			continue
		}
		v, err := s.eval(part)
		if err != nil {
			return nil, err
		}
		if !value.IsAbsent(v) {
			b.WriteString(v.String())
		}
	}
	return value.Text(b.String()), nil
}

func (s *state) evalCall(n *ast.CallNode) (value.Value, error) {
	fn, ok := s.fns[n.Name]
	if !ok {
		return nil, errs.NewRenderError("unknown function", n.Name)
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := s.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	out, err := fn(args)
	if err != nil {
		return nil, errs.NewRenderErrorf(n.Name, "function %q failed: %s", n.Name, err.Error())
	}
	return out, nil
}

func (s *state) evalUnary(n *ast.UnaryNode) (value.Value, error) {
	v, err := s.eval(n.Operand)
	if err != nil {
		return nil, err
	}
	return value.Bool(!truthy(v)), nil
}

func (s *state) evalBinary(n *ast.BinaryNode) (value.Value, error) {
	switch n.Op {
	case ast.OpAnd:
		left, err := s.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			return left, nil
		}
		return s.eval(n.Right)
	case ast.OpOr:
		left, err := s.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return left, nil
		}
		return s.eval(n.Right)
	}

	left, err := s.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := s.eval(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.OpEq:
		return value.Bool(looseEquals(left, right)), nil
	case ast.OpNeq:
		return value.Bool(!looseEquals(left, right)), nil
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return compareValues(n.Op, left, right), nil
	case ast.OpIn:
		return value.Bool(inSequence(left, right)), nil
	case ast.OpAdd:
		return addValues(left, right), nil
	case ast.OpSub:
		return subValues(left, right), nil
	default:
		return nil, errs.NewRenderErrorf("", "unsupported operator %s", n.Op)
	}
}

func looseEquals(a, b value.Value) bool {
	if value.IsAbsent(a) || value.IsAbsent(b) {
		return value.IsAbsent(a) && value.IsAbsent(b)
	}
	return a.Equals(b)
}

// compareValues orders numerically when both sides coerce to a number,
// falling back to lexical string comparison otherwise (§4.3).
func compareValues(op ast.BinaryOp, a, b value.Value) value.Value {
	if af, ok := value.ToFloat(a); ok {
		if bf, ok := value.ToFloat(b); ok {
			return value.Bool(numCompare(op, af, bf))
		}
	}
	return value.Bool(strCompare(op, a.String(), b.String()))
}

func numCompare(op ast.BinaryOp, a, b float64) bool {
	switch op {
	case ast.OpLt:
		return a < b
	case ast.OpLte:
		return a <= b
	case ast.OpGt:
		return a > b
	case ast.OpGte:
		return a >= b
	}
	return false
}

func strCompare(op ast.BinaryOp, a, b string) bool {
	switch op {
	case ast.OpLt:
		return a < b
	case ast.OpLte:
		return a <= b
	case ast.OpGt:
		return a > b
	case ast.OpGte:
		return a >= b
	}
	return false
}

func inSequence(left, right value.Value) bool {
	seq, ok := right.(value.Sequence)
	if !ok {
		return false
	}
	for _, item := range seq {
		if looseEquals(left, item) {
			return true
		}
	}
	return false
}

func addValues(a, b value.Value) value.Value {
	_, aText := a.(value.Text)
	_, bText := b.(value.Text)
	if aText || bText {
		return value.Text(a.String() + b.String())
	}
	af, _ := value.ToFloat(a)
	bf, _ := value.ToFloat(b)
	return value.Number(af + bf)
}

func subValues(a, b value.Value) value.Value {
	af, _ := value.ToFloat(a)
	bf, _ := value.ToFloat(b)
	return value.Number(af - bf)
}
