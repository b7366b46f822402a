package jempl_test

import (
	"testing"

	"github.com/andreyvit/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuusoft-org/jempl"
	"github.com/yuusoft-org/jempl/ast"
	"github.com/yuusoft-org/jempl/value"
)

func m(pairs ...interface{}) *value.Mapping {
	out := value.NewMapping(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		out.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return out
}

// Scenario 1: simple interpolation.
func TestSimpleInterpolation(t *testing.T) {
	tmpl := m("greeting", value.Text("Hello, ${user.name}!"))
	tree, err := jempl.Parse(tmpl)
	require.NoError(t, err)

	out, err := jempl.Render(tree, map[string]interface{}{
		"user": map[string]interface{}{"name": "Ada"},
	})
	require.NoError(t, err)

	mp := out.(*value.Mapping)
	assert.Equal(t, value.Text("Hello, Ada!"), mp.Key("greeting"))
}

// Scenario 2: conditional merge, flag true then false.
func TestConditionalMergeFlagTrueFalse(t *testing.T) {
	tmpl := m(
		"title", value.Text("Doc"),
		"$if user.admin", m("role", value.Text("admin")),
		"$else", m("role", value.Text("guest")),
	)
	tree, err := jempl.Parse(tmpl)
	require.NoError(t, err)

	outTrue, err := jempl.Render(tree, map[string]interface{}{
		"user": map[string]interface{}{"admin": true},
	})
	require.NoError(t, err)
	assert.Equal(t, value.Text("admin"), outTrue.(*value.Mapping).Key("role"))
	assert.Equal(t, value.Text("Doc"), outTrue.(*value.Mapping).Key("title"))

	outFalse, err := jempl.Render(tree, map[string]interface{}{
		"user": map[string]interface{}{"admin": false},
	})
	require.NoError(t, err)
	assert.Equal(t, value.Text("guest"), outFalse.(*value.Mapping).Key("role"))
}

// Scenario 3: loop with flatten.
func TestLoopFlatten(t *testing.T) {
	tmpl := m("$for n in nums", value.Text("${n}"))
	tree, err := jempl.Parse(tmpl)
	require.NoError(t, err)

	out, err := jempl.Render(tree, map[string]interface{}{
		"nums": []interface{}{1, 2, 3},
	})
	require.NoError(t, err)
	seq := out.(value.Sequence)
	assert.Equal(t, value.Sequence{value.Text("1"), value.Text("2"), value.Text("3")}, seq)
}

// Scenario 4: nested loops with an index variable.
func TestNestedLoopsWithIndex(t *testing.T) {
	row := m("idx", value.Text("${i}"), "val", value.Text("${cell}"))
	inner := m("$for cell in row", row)
	outer := m("$for:nested row, i in rows", inner)

	tree, err := jempl.Parse(outer)
	require.NoError(t, err)

	out, err := jempl.Render(tree, map[string]interface{}{
		"rows": []interface{}{
			[]interface{}{"a", "b"},
			[]interface{}{"c"},
		},
	})
	require.NoError(t, err)
	seq := out.(value.Sequence)
	require.Len(t, seq, 2) // one element per outer row; the outer loop does not flatten

	firstRow := seq[0].(value.Sequence)
	require.Len(t, firstRow, 2)
}

// Scenario 5: $when gating.
func TestWhenGating(t *testing.T) {
	tmpl := m(
		"$when", value.Text("user.active"),
		"name", value.Text("${user.name}"),
	)
	tree, err := jempl.Parse(tmpl)
	require.NoError(t, err)

	activeOut, err := jempl.Render(tree, map[string]interface{}{
		"user": map[string]interface{}{"active": true, "name": "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, value.Text("Ada"), activeOut.(*value.Mapping).Key("name"))

	inactiveOut, err := jempl.Render(tree, map[string]interface{}{
		"user": map[string]interface{}{"active": false, "name": "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, inactiveOut.(*value.Mapping).Len())
}

// Scenario 6: partial cycle detection.
func TestPartialCycleIsRenderError(t *testing.T) {
	partials := jempl.Partials{
		"a": &ast.PartialNode{Name: "b"},
		"b": &ast.PartialNode{Name: "a"},
	}
	tree := &ast.PartialNode{Name: "a"}
	_, err := jempl.Render(tree, map[string]interface{}{}, jempl.WithPartials(partials))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

// A root that prunes entirely (a root-level $when gating off) must
// normalize to an empty mapping, not surface Absent to the caller.
func TestRenderRootPruneNormalizesToEmptyMapping(t *testing.T) {
	tmpl := m(
		"$when", value.Text("user.active"),
		"name", value.Text("${user.name}"),
	)
	tree, err := jempl.Parse(tmpl)
	require.NoError(t, err)

	out, err := jempl.Render(tree, map[string]interface{}{
		"user": map[string]interface{}{"active": false, "name": "Ada"},
	})
	require.NoError(t, err)
	mp, ok := out.(*value.Mapping)
	require.True(t, ok)
	assert.Equal(t, 0, mp.Len())
}

// A root made of a single unmatched $if/$elif chain with no $else also
// normalizes to an empty mapping.
func TestRenderRootUnmatchedConditionalNormalizesToEmptyMapping(t *testing.T) {
	tmpl := m("$if user.admin", value.Text("admin-only"))
	tree, err := jempl.Parse(tmpl)
	require.NoError(t, err)

	out, err := jempl.Render(tree, map[string]interface{}{
		"user": map[string]interface{}{"admin": false},
	})
	require.NoError(t, err)
	mp, ok := out.(*value.Mapping)
	require.True(t, ok)
	assert.Equal(t, 0, mp.Len())
}

func TestRenderedMappingStringMatchesExpected(t *testing.T) {
	tmpl := m("greeting", value.Text("Hello, ${user.name}!"))
	tree, err := jempl.Parse(tmpl)
	require.NoError(t, err)

	out, err := jempl.Render(tree, map[string]interface{}{
		"user": map[string]interface{}{"name": "Ada"},
	})
	require.NoError(t, err)

	want := `{greeting: Hello, Ada!}`
	got := out.String()
	if got != want {
		t.Fatalf("rendered mapping mismatch:\n%s", diff.LineDiff(want, got))
	}
}

func TestRenderLegacySignatureMatchesRender(t *testing.T) {
	tmpl := m("x", value.Text("${n}"))
	tree, err := jempl.Parse(tmpl)
	require.NoError(t, err)

	data := map[string]interface{}{"n": 5}
	viaOptions, err := jempl.Render(tree, data)
	require.NoError(t, err)
	viaLegacy, err := jempl.RenderLegacy(tree, data, nil)
	require.NoError(t, err)
	assert.Equal(t, viaOptions, viaLegacy)
}

func TestRenderIsPureAcrossCalls(t *testing.T) {
	tmpl := m("v", value.Text("${x}"))
	tree, err := jempl.Parse(tmpl)
	require.NoError(t, err)

	out1, err := jempl.Render(tree, map[string]interface{}{"x": 1})
	require.NoError(t, err)
	out2, err := jempl.Render(tree, map[string]interface{}{"x": 2})
	require.NoError(t, err)

	assert.Equal(t, value.Text("1"), out1.(*value.Mapping).Key("v"))
	assert.Equal(t, value.Text("2"), out2.(*value.Mapping).Key("v"))
}

func TestFunctionCall(t *testing.T) {
	tmpl := m("shout", value.Text("${shout(name)}"))
	tree, err := jempl.Parse(tmpl, jempl.WithFunctions(jempl.Functions{
		"shout": func(args []value.Value) (value.Value, error) {
			return value.Text(args[0].String() + "!"), nil
		},
	}))
	require.NoError(t, err)

	out, err := jempl.Render(tree, map[string]interface{}{"name": "hi"}, jempl.WithRenderFunctions(jempl.Functions{
		"shout": func(args []value.Value) (value.Value, error) {
			return value.Text(args[0].String() + "!"), nil
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, value.Text("hi!"), out.(*value.Mapping).Key("shout"))
}
