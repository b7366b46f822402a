// Package ast defines the Abstract Syntax Tree produced by parse.Parse:
// the expression node kinds (Literal, VarRef, Interpolation, Call, Unary,
// Binary) and the template node kinds that wrap them (Object, Array,
// Conditional, Loop, Partial). Both families live in one package, matching
// the teacher's ast package, which keeps values, operators, and control
// flow in a single Node hierarchy rather than splitting "expression AST"
// from "template AST" into separate types.
package ast

import (
	"fmt"
	"strings"

	"github.com/yuusoft-org/jempl/value"
)

// Node is any node in the compiled tree.
type Node interface {
	// String renders a debug form of the node (not the original source).
	String() string
}

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	OpEq BinaryOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	OpIn
	OpAdd
	OpSub
)

func (op BinaryOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpIn:
		return "in"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	}
	return "?"
}

// UnaryOp identifies a unary operator. NOT is the only one in this grammar.
type UnaryOp int

const (
	OpNot UnaryOp = iota
)

func (UnaryOp) String() string { return "!" }

// ---- Expression node kinds ----

// LiteralNode is a precomputed constant value.
type LiteralNode struct {
	Value value.Value
}

func (n *LiteralNode) String() string { return n.Value.String() }

// VarNode is a variable reference by dot/bracket path, e.g. "user.name" or
// "users[0].name".
type VarNode struct {
	Path string
}

func (n *VarNode) String() string { return "$" + n.Path }

// InterpNode is an ordered sequence of literal-text and expression parts
// that concatenate into Text. Each element of Parts is either a
// *LiteralNode (a literal text chunk) or any other expression Node (a live
// substitution).
type InterpNode struct {
	Parts []Node
}

func (n *InterpNode) String() string {
	var b strings.Builder
	for _, p := range n.Parts {
		if lit, ok := p.(*LiteralNode); ok {
			b.WriteString(lit.Value.String())
			continue
		}
		b.WriteString("${")
		b.WriteString(p.String())
		b.WriteString("}")
	}
	return b.String()
}

// CallNode is a function invocation; Name is resolved in the function
// table at render time.
type CallNode struct {
	Name string
	Args []Node
}

func (n *CallNode) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

// UnaryNode applies a unary operator to an operand.
type UnaryNode struct {
	Op      UnaryOp
	Operand Node
}

func (n *UnaryNode) String() string { return n.Op.String() + n.Operand.String() }

// BinaryNode applies a binary operator to two operands.
type BinaryNode struct {
	Op          BinaryOp
	Left, Right Node
}

func (n *BinaryNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}

// ---- Template node kinds ----

// Property is one key/value entry of an ObjectNode.
type Property struct {
	Key       string
	ParsedKey *InterpNode // non-nil only when the key text contains "${"
	Value     Node

	// IsControl marks a property spliced from a $if/$elif/$else or $for
	// directive key: at render time its rendered result is merged into
	// the parent object rather than assigned under Key (Key is empty
	// and unused for these).
	IsControl bool
}

// ObjectNode is a compiled JSON-shaped mapping.
type ObjectNode struct {
	Properties    []Property
	Fast          bool
	WhenCondition Node // nil if no $when guard

	// FastValue caches the fully-resolved value when Fast is true,
	// computed once at parse time (§9 tier-1 fast path).
	FastValue value.Value
}

func (n *ObjectNode) String() string {
	parts := make([]string, len(n.Properties))
	for i, p := range n.Properties {
		parts[i] = p.Key + ": " + nodeString(p.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func nodeString(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}

// ArrayNode is a compiled JSON-shaped sequence.
type ArrayNode struct {
	Items []Node
	Fast  bool

	FastValue value.Value
}

func (n *ArrayNode) String() string {
	parts := make([]string, len(n.Items))
	for i, it := range n.Items {
		parts[i] = nodeString(it)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Else is the sentinel guard value denoting the terminal, unconditional
// branch of a ConditionalNode.
var Else Node = &elseGuard{}

type elseGuard struct{}

func (*elseGuard) String() string { return "$else" }

// IsElse reports whether guard is the Else sentinel.
func IsElse(guard Node) bool {
	_, ok := guard.(*elseGuard)
	return ok
}

// Branch is one arm of a ConditionalNode.
type Branch struct {
	Guard Node // Else sentinel, or a boolean expression
	Body  Node
}

// ConditionalNode is a spliced $if/$elif/$else chain.
type ConditionalNode struct {
	Branches []Branch
	ID       string // optional; non-empty only for $if#<id> chains
}

func (n *ConditionalNode) String() string {
	parts := make([]string, len(n.Branches))
	for i, b := range n.Branches {
		if IsElse(b.Guard) {
			parts[i] = "$else: " + nodeString(b.Body)
		} else {
			parts[i] = "$if " + nodeString(b.Guard) + ": " + nodeString(b.Body)
		}
	}
	return strings.Join(parts, " ")
}

// LoopNode is a compiled $for directive.
type LoopNode struct {
	ItemVar  string
	IndexVar string // "" if no index variable was named
	Iterable Node
	Body     Node
	Flatten  bool

	// Fast is non-nil when Body is an ObjectNode eligible for the §9
	// tier-2 loop-body specialization (every property is a Literal,
	// VarNode, or single-substitution InterpNode).
	Fast *FastLoopBody
}

func (n *LoopNode) String() string {
	name := "$for"
	if !n.Flatten {
		name = "$for:nested"
	}
	idx := ""
	if n.IndexVar != "" {
		idx = ", " + n.IndexVar
	}
	return fmt.Sprintf("%s %s%s in %s: %s", name, n.ItemVar, idx, nodeString(n.Iterable), nodeString(n.Body))
}

// FastLoopAccessor describes how to compute one property of a
// tier-2-specialized loop body without a generic node dispatch.
type FastLoopAccessor struct {
	Key string
	// Kind is one of: "literal", "var", "interp1" (single-substitution
	// interpolation with no literal text).
	Kind  string
	Value value.Value // for Kind == "literal"
	Path  string       // for Kind == "var" and Kind == "interp1"
}

// FastLoopBody is the precomputed accessor list for a tier-2 loop body.
type FastLoopBody struct {
	Accessors []FastLoopAccessor
}

// PartialNode is a compiled $partial directive.
type PartialNode struct {
	Name          string
	Data          Node // *ObjectNode (inline sibling data), or nil
	WhenCondition Node
}

func (n *PartialNode) String() string {
	return fmt.Sprintf("$partial %q", n.Name)
}
