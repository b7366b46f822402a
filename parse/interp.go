package parse

import (
	"strings"

	"github.com/yuusoft-org/jempl/ast"
	"github.com/yuusoft-org/jempl/errs"
	"github.com/yuusoft-org/jempl/value"
)

// ParseInterpolation compiles a Text scalar (an ordinary object value, a
// mapping key, or a $for/$if expression is NOT routed through here — only
// plain text positions are) for ${…} substitutions, \${…} escaped
// literals, and \\${…} literal-backslash-then-live-interpolation, per the
// directive lexical surface table in §6.
//
// When s is exactly one ${…} substitution with no surrounding text, the
// inner expression node is returned directly so its native value type
// (number, bool, mapping, …) survives rendering instead of being
// stringified.
func ParseInterpolation(s string, fns FuncSet) (ast.Node, error) {
	if !strings.Contains(s, "$") {
		return &ast.LiteralNode{Value: value.Text(s)}, nil
	}
	if strings.HasPrefix(s, "${") {
		end, err := matchBrace(s, 1)
		if err == nil && end == len(s)-1 {
			return ParseExpr(s[2:end], false, fns)
		}
	}

	var parts []ast.Node
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			parts = append(parts, &ast.LiteralNode{Value: value.Text(buf.String())})
			buf.Reset()
		}
	}

	i := 0
	for i < len(s) {
		switch {
		case s[i] == '\\' && strings.HasPrefix(s[i+1:], "\\${"):
			buf.WriteByte('\\')
			i += 2 // consume both backslashes; the ${…} that follows stays live
		case s[i] == '\\' && strings.HasPrefix(s[i+1:], "${"):
			end, err := matchBrace(s, i+2)
			if err != nil {
				return nil, errs.NewParseErrorf(s, "unclosed interpolation: %s", err.Error())
			}
			buf.WriteString(s[i+1 : end+1])
			i = end + 1
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			end, err := matchBrace(s, i+1)
			if err != nil {
				return nil, errs.NewParseErrorf(s, "unclosed interpolation: %s", err.Error())
			}
			node, err := ParseExpr(s[i+2:end], false, fns)
			if err != nil {
				return nil, err
			}
			flush()
			parts = append(parts, node)
			i = end + 1
		default:
			buf.WriteByte(s[i])
			i++
		}
	}
	flush()

	if len(parts) == 1 {
		if lit, ok := parts[0].(*ast.LiteralNode); ok {
			return lit, nil
		}
	}
	return &ast.InterpNode{Parts: parts}, nil
}

// matchBrace returns the index of the '}' matching the '{' at s[open],
// skipping over quoted string contents so a '}' inside a string literal
// inside the expression doesn't terminate the match early.
func matchBrace(s string, open int) (int, error) {
	depth := 0
	i := open
	for i < len(s) {
		switch s[i] {
		case '"', '\'':
			quote := s[i]
			i++
			for i < len(s) && s[i] != quote {
				i++
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
		i++
	}
	return 0, errs.NewParseError("unclosed '{'", s)
}
