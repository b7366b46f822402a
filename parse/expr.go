// Package parse compiles a JSON-shaped template tree (built from
// value.Value) into an *ast tree: directive keys ($if/$elif/$else/$for/
// $when/$partial) and ${…} interpolations are recognized and spliced into
// the node kinds defined in package ast. Expression text — everything
// following $if/$elif/$when, a $for iterable, or inside ${…} — is tokenized
// by internal/lexer and parsed here by precedence climbing, the same
// technique the teacher's parse/parse.go uses for its expression grammar,
// narrowed to this grammar's six precedence levels.
package parse

import (
	"strconv"
	"strings"

	"github.com/yuusoft-org/jempl/ast"
	"github.com/yuusoft-org/jempl/errs"
	"github.com/yuusoft-org/jempl/internal/lexer"
	"github.com/yuusoft-org/jempl/value"
)

// FuncSet is consulted only to validate that a call's name is known, when
// non-nil. A nil FuncSet accepts any call name (resolved, or not, at
// render time).
type FuncSet interface {
	Has(name string) bool
}

// exprParser parses one isolated expression string (already isolated from
// its surrounding directive or interpolation) into an ast.Node.
type exprParser struct {
	src    string
	toks   []lexer.Token
	pos    int
	inCond bool // true while parsing an $if/$elif/$when guard
	fns    FuncSet
}

// ParseExpr tokenizes and parses a boolean/value expression. inCondition
// controls whether a disallowed arithmetic operator is reported as
// "arithmetic not allowed here" (true) or a generic unsupported-operator
// message (false), per §4.1's conditional-position policy.
func ParseExpr(src string, inCondition bool, fns FuncSet) (ast.Node, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, errs.NewParseErrorf(src, "invalid expression: %s", err.Error())
	}
	p := &exprParser{src: src, toks: toks, inCond: inCondition, fns: fns}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.EOF) {
		return nil, errs.NewParseErrorf(src, "unexpected trailing input near %q", p.cur().Val)
	}
	return node, nil
}

func (p *exprParser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *exprParser) at(t lexer.Type) bool {
	return p.cur().Type == t
}
func (p *exprParser) advance() lexer.Token {
	t := p.toks[p.pos]
	if t.Type != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *exprParser) arithmeticError(opVal string) error {
	if p.inCond {
		return errs.NewParseErrorf(p.src, "arithmetic not allowed here: %q", opVal)
	}
	return errs.NewParseErrorf(p.src, "operator not supported: %q", opVal)
}

// parseOr: lowest precedence, left-associative ||.
func (p *exprParser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Or) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryNode{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (ast.Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.And) {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryNode{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

var cmpOps = map[lexer.Type]ast.BinaryOp{
	lexer.Eq:  ast.OpEq,
	lexer.Neq: ast.OpNeq,
	lexer.Lt:  ast.OpLt,
	lexer.Lte: ast.OpLte,
	lexer.Gt:  ast.OpGt,
	lexer.Gte: ast.OpGte,
	lexer.In:  ast.OpIn,
}

// parseComparison: ==, !=, <, <=, >, >=, in. Left-associative; spec names
// only the first depth-zero occurrence in worked examples, but chained
// comparisons (a == b == c) fold left just like +/-.
func (p *exprParser) parseComparison() (ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		if op, ok := cmpOps[p.cur().Type]; ok {
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryNode{Op: op, Left: left, Right: right}
			continue
		}
		if p.cur().Type.IsArithmeticOnly() {
			return nil, p.arithmeticError(p.cur().Val)
		}
		return left, nil
	}
}

// parseAdditive: + and -, left-associative, whitespace-bounded tokens.
func (p *exprParser) parseAdditive() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Type {
		case lexer.Add:
			p.advance()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryNode{Op: ast.OpAdd, Left: left, Right: right}
		case lexer.Sub:
			p.advance()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryNode{Op: ast.OpSub, Left: left, Right: right}
		case lexer.Mul, lexer.Div, lexer.Mod:
			return nil, p.arithmeticError(p.cur().Val)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (ast.Node, error) {
	if p.at(lexer.Not) {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryNode{Op: ast.OpNot, Operand: operand}, nil
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (ast.Node, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.Bool:
		p.advance()
		return &ast.LiteralNode{Value: value.Bool(tok.Val == "true")}, nil
	case lexer.Null:
		p.advance()
		return &ast.LiteralNode{Value: value.Null{}}, nil
	case lexer.Number:
		p.advance()
		f, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return nil, errs.NewParseErrorf(p.src, "invalid number literal: %q", tok.Val)
		}
		return &ast.LiteralNode{Value: value.Number(f)}, nil
	case lexer.String:
		p.advance()
		return &ast.LiteralNode{Value: value.Text(unquote(tok.Val))}, nil
	case lexer.LBrace:
		p.advance()
		if !p.at(lexer.RBrace) {
			return nil, errs.NewParseErrorf(p.src, "expected '}' for empty mapping literal")
		}
		p.advance()
		return &ast.LiteralNode{Value: value.NewMapping(0)}, nil
	case lexer.LBrack:
		p.advance()
		if !p.at(lexer.RBrack) {
			return nil, errs.NewParseErrorf(p.src, "expected ']' for empty sequence literal")
		}
		p.advance()
		return &ast.LiteralNode{Value: value.Sequence{}}, nil
	case lexer.LParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.at(lexer.RParen) {
			return nil, errs.NewParseErrorf(p.src, "expected ')'")
		}
		p.advance()
		return inner, nil
	case lexer.Ident:
		p.advance()
		if p.at(lexer.LParen) {
			return p.parseCall(tok.Val)
		}
		return &ast.VarNode{Path: tok.Val}, nil
	case lexer.Eq, lexer.Neq:
		return nil, errs.NewParseErrorf(p.src, "incomplete comparison before %q", tok.Val).WithSuggestion("an expression must precede a comparison operator")
	default:
		return nil, errs.NewParseErrorf(p.src, "unexpected token %q", tok.Val)
	}
}

func (p *exprParser) parseCall(name string) (ast.Node, error) {
	if p.fns != nil && !p.fns.Has(name) {
		return nil, errs.NewParseErrorf(p.src, "unknown function %q", name)
	}
	p.advance() // consume '('
	var args []ast.Node
	if !p.at(lexer.RParen) {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
	}
	if !p.at(lexer.RParen) {
		return nil, errs.NewParseErrorf(p.src, "expected ')' to close call to %q", name)
	}
	p.advance()
	return &ast.CallNode{Name: name, Args: args}, nil
}

// unquote strips the surrounding matched quote characters. No escape
// processing is performed beyond the literal characters between the
// quotes, per §4.1.
func unquote(raw string) string {
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return strings.Trim(raw, `"'`)
}
