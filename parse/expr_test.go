package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuusoft-org/jempl/ast"
	"github.com/yuusoft-org/jempl/parse"
)

func TestParseExprPrecedenceAndAssoc(t *testing.T) {
	node, err := parse.ParseExpr("a + b - c", false, nil)
	require.NoError(t, err)
	bin, ok := node.(*ast.BinaryNode)
	require.True(t, ok)
	assert.Equal(t, ast.OpSub, bin.Op)
	left, ok := bin.Left.(*ast.BinaryNode)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, left.Op)
}

func TestParseExprLogicalPrecedence(t *testing.T) {
	// a || b && c  =>  a || (b && c)
	node, err := parse.ParseExpr("a || b && c", false, nil)
	require.NoError(t, err)
	bin := node.(*ast.BinaryNode)
	assert.Equal(t, ast.OpOr, bin.Op)
	right := bin.Right.(*ast.BinaryNode)
	assert.Equal(t, ast.OpAnd, right.Op)
}

func TestParseExprUnaryNot(t *testing.T) {
	node, err := parse.ParseExpr("!active", false, nil)
	require.NoError(t, err)
	un, ok := node.(*ast.UnaryNode)
	require.True(t, ok)
	assert.Equal(t, ast.OpNot, un.Op)
}

func TestParseExprParens(t *testing.T) {
	node, err := parse.ParseExpr("(a + b) - c", false, nil)
	require.NoError(t, err)
	bin := node.(*ast.BinaryNode)
	assert.Equal(t, ast.OpSub, bin.Op)
}

func TestParseExprEmptyLiterals(t *testing.T) {
	node, err := parse.ParseExpr("x == {}", false, nil)
	require.NoError(t, err)
	bin := node.(*ast.BinaryNode)
	lit, ok := bin.Right.(*ast.LiteralNode)
	require.True(t, ok)
	assert.Equal(t, 0, lit.Value.(interface{ Len() int }).Len())
}

func TestParseExprRejectsTripleEquals(t *testing.T) {
	_, err := parse.ParseExpr("a === b", false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "==")
}

func TestParseExprRejectsArithmeticInCondition(t *testing.T) {
	_, err := parse.ParseExpr("a * b", true, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arithmetic not allowed here")
}

func TestParseExprArithmeticOutsideConditionStillRejected(t *testing.T) {
	_, err := parse.ParseExpr("a * b", false, nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "arithmetic not allowed here")
}

func TestParseExprIncompleteComparison(t *testing.T) {
	_, err := parse.ParseExpr("== 5", false, nil)
	require.Error(t, err)
}

func TestParseExprCallWithArgs(t *testing.T) {
	node, err := parse.ParseExpr(`upper(name, "x")`, false, nil)
	require.NoError(t, err)
	call, ok := node.(*ast.CallNode)
	require.True(t, ok)
	assert.Equal(t, "upper", call.Name)
	assert.Len(t, call.Args, 2)
}

type funcSet map[string]bool

func (f funcSet) Has(name string) bool { return f[name] }

func TestParseExprUnknownFunctionRejected(t *testing.T) {
	_, err := parse.ParseExpr("doThing()", false, funcSet{"known": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doThing")
}

func TestParseExprInOperator(t *testing.T) {
	node, err := parse.ParseExpr("x in list", false, nil)
	require.NoError(t, err)
	bin := node.(*ast.BinaryNode)
	assert.Equal(t, ast.OpIn, bin.Op)
}

func TestParseExprVarPath(t *testing.T) {
	node, err := parse.ParseExpr("user.items[0].name", false, nil)
	require.NoError(t, err)
	v, ok := node.(*ast.VarNode)
	require.True(t, ok)
	assert.Equal(t, "user.items[0].name", v.Path)
}
