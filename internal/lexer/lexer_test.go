package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuusoft-org/jempl/internal/lexer"
)

func typesOf(toks []lexer.Token) []lexer.Type {
	out := make([]lexer.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestTokenizeSimpleComparison(t *testing.T) {
	toks, err := lexer.Tokenize("user.age >= 18")
	require.NoError(t, err)
	assert.Equal(t, []lexer.Type{lexer.Ident, lexer.Gte, lexer.Number, lexer.EOF}, typesOf(toks))
	assert.Equal(t, "user.age", toks[0].Val)
}

func TestTokenizeLogical(t *testing.T) {
	toks, err := lexer.Tokenize(`a == "x" && !b || c`)
	require.NoError(t, err)
	assert.Equal(t, []lexer.Type{
		lexer.Ident, lexer.Eq, lexer.String, lexer.And, lexer.Not, lexer.Ident, lexer.Or, lexer.Ident, lexer.EOF,
	}, typesOf(toks))
}

func TestTokenizeCallAndArgs(t *testing.T) {
	toks, err := lexer.Tokenize(`upper(user.name, 2)`)
	require.NoError(t, err)
	assert.Equal(t, []lexer.Type{
		lexer.Ident, lexer.LParen, lexer.Ident, lexer.Comma, lexer.Number, lexer.RParen, lexer.EOF,
	}, typesOf(toks))
}

func TestTokenizeEmptyLiterals(t *testing.T) {
	toks, err := lexer.Tokenize(`x == {} || y == []`)
	require.NoError(t, err)
	assert.Equal(t, []lexer.Type{
		lexer.Ident, lexer.Eq, lexer.LBrace, lexer.RBrace, lexer.Or,
		lexer.Ident, lexer.Eq, lexer.LBrack, lexer.RBrack, lexer.EOF,
	}, typesOf(toks))
}

func TestTokenizeNegativeNumber(t *testing.T) {
	toks, err := lexer.Tokenize(`x > -5`)
	require.NoError(t, err)
	assert.Equal(t, []lexer.Type{lexer.Ident, lexer.Gt, lexer.Number, lexer.EOF}, typesOf(toks))
	assert.Equal(t, "-5", toks[2].Val)
}

func TestTokenizeBracketPath(t *testing.T) {
	toks, err := lexer.Tokenize(`items[0].name`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "items[0].name", toks[0].Val)
}

func TestTokenizeArithmeticStillTokenizes(t *testing.T) {
	toks, err := lexer.Tokenize(`a * b`)
	require.NoError(t, err)
	assert.Equal(t, []lexer.Type{lexer.Ident, lexer.Mul, lexer.Ident, lexer.EOF}, typesOf(toks))
	assert.True(t, lexer.Mul.IsArithmeticOnly())
}

func TestTokenizeRejectsBareEquals(t *testing.T) {
	_, err := lexer.Tokenize(`a = b`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "==")
}

func TestTokenizeRejectsBareAmpersand(t *testing.T) {
	_, err := lexer.Tokenize(`a & b`)
	require.Error(t, err)
}

func TestTokenizeUnclosedString(t *testing.T) {
	_, err := lexer.Tokenize(`"unterminated`)
	require.Error(t, err)
}

func TestTokenizeBoolAndNull(t *testing.T) {
	toks, err := lexer.Tokenize(`true == false && x == null`)
	require.NoError(t, err)
	assert.Equal(t, []lexer.Type{
		lexer.Bool, lexer.Eq, lexer.Bool, lexer.And, lexer.Ident, lexer.Eq, lexer.Null, lexer.EOF,
	}, typesOf(toks))
}

func TestTokenizeInKeyword(t *testing.T) {
	toks, err := lexer.Tokenize(`x in list`)
	require.NoError(t, err)
	assert.Equal(t, []lexer.Type{lexer.Ident, lexer.In, lexer.Ident, lexer.EOF}, typesOf(toks))
}
