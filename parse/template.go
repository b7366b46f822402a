package parse

import (
	"strings"

	"github.com/yuusoft-org/jempl/ast"
	"github.com/yuusoft-org/jempl/errs"
	"github.com/yuusoft-org/jempl/value"
)

// compileValue walks one node of the JSON-shaped input tree and compiles
// it into an ast.Node, recognizing directive keys and ${…} interpolations
// along the way.
func compileValue(v value.Value, fns FuncSet) (ast.Node, error) {
	switch val := v.(type) {
	case nil:
		return &ast.LiteralNode{Value: value.Null{}}, nil
	case value.Null:
		return &ast.LiteralNode{Value: val}, nil
	case value.Bool:
		return &ast.LiteralNode{Value: val}, nil
	case value.Number:
		return &ast.LiteralNode{Value: val}, nil
	case value.Text:
		return ParseInterpolation(string(val), fns)
	case value.Sequence:
		return compileSequence(val, fns)
	case *value.Mapping:
		return compileMapping(val, fns)
	default:
		return &ast.LiteralNode{Value: v}, nil
	}
}

func compileSequence(seq value.Sequence, fns FuncSet) (ast.Node, error) {
	items := make([]ast.Node, len(seq))
	fast := true
	for i, item := range seq {
		// An array item that is a single-key {"$for ...": body} mapping
		// lifts directly to a LoopNode child rather than an ObjectNode
		// wrapping a LoopNode property (§4.2 array-embedded loops).
		if m, ok := item.(*value.Mapping); ok && m.Len() == 1 {
			key := m.Keys()[0]
			if fk, ok := matchFor(key); ok {
				loop, err := compileLoop(fk, m.Key(key), fns)
				if err != nil {
					return nil, err
				}
				items[i] = loop
				fast = false
				continue
			}
		}
		n, err := compileValue(item, fns)
		if err != nil {
			return nil, err
		}
		items[i] = n
		if !isStaticNode(n) {
			fast = false
		}
	}
	node := &ast.ArrayNode{Items: items, Fast: fast}
	if fast {
		vals := make(value.Sequence, len(items))
		for i, it := range items {
			vals[i] = staticValueOf(it)
		}
		node.FastValue = vals
	}
	return node, nil
}

// elifBranch is one $elif sibling accumulated for a chain, in key order.
type elifBranch struct {
	expr string
	val  value.Value
}

type ifChain struct {
	ifExpr  string
	ifVal   value.Value
	elifs   []elifBranch
	elseVal value.Value
	hasElse bool
}

func compileMapping(m *value.Mapping, fns FuncSet) (ast.Node, error) {
	keys := m.Keys()

	for _, k := range keys {
		if k == keyPartial {
			return compilePartial(m, fns)
		}
	}

	var whenCond ast.Node
	for _, k := range keys {
		if k == keyWhen {
			node, err := compileWhen(m.Key(k), fns)
			if err != nil {
				return nil, err
			}
			whenCond = node
		} else if strings.HasPrefix(k, "$when") {
			return nil, errs.NewParseErrorf(k, "malformed $when directive")
		}
	}

	chains := map[string]*ifChain{}
	for _, k := range keys {
		if ik, ok := matchIf(k); ok {
			chains[ik.id] = &ifChain{ifExpr: ik.expr, ifVal: m.Key(k)}
		}
	}
	for _, k := range keys {
		if ik, ok := matchElif(k); ok {
			c, ok := chains[ik.id]
			if !ok {
				return nil, errs.NewParseError("orphan $elif with no matching $if", k)
			}
			c.elifs = append(c.elifs, elifBranch{expr: ik.expr, val: m.Key(k)})
		}
		if id, ok := matchElse(k); ok {
			c, ok := chains[id]
			if !ok {
				return nil, errs.NewParseError("orphan $else with no matching $if", k)
			}
			c.elseVal = m.Key(k)
			c.hasElse = true
		}
	}

	var props []ast.Property
	emitted := map[string]bool{}
	for _, k := range keys {
		switch {
		case k == keyWhen:
			continue
		case func() bool { _, ok := matchIf(k); return ok }():
			ik, _ := matchIf(k)
			if emitted[ik.id] {
				continue
			}
			emitted[ik.id] = true
			cond, err := buildConditional(ik.id, chains[ik.id], fns)
			if err != nil {
				return nil, err
			}
			props = append(props, ast.Property{Value: cond, IsControl: true})
		case func() bool { _, ok := matchElif(k); return ok }():
			continue // folded into the chain at its $if position
		case func() bool { _, ok := matchElse(k); return ok }():
			continue
		case func() bool { _, ok := matchFor(k); return ok }():
			fk, _ := matchFor(k)
			loop, err := compileLoop(fk, m.Key(k), fns)
			if err != nil {
				return nil, err
			}
			props = append(props, ast.Property{Value: loop, IsControl: true})
		default:
			valNode, err := compileValue(m.Key(k), fns)
			if err != nil {
				return nil, err
			}
			parsedKey, err := compileKey(k, fns)
			if err != nil {
				return nil, err
			}
			props = append(props, ast.Property{Key: k, ParsedKey: parsedKey, Value: valNode})
		}
	}

	obj := &ast.ObjectNode{Properties: props, WhenCondition: whenCond}
	obj.Fast = objectIsFast(obj)
	if obj.Fast {
		mv := value.NewMapping(len(obj.Properties))
		for _, p := range obj.Properties {
			mv.Set(p.Key, staticValueOf(p.Value))
		}
		obj.FastValue = mv
	}
	return obj, nil
}

func compileWhen(v value.Value, fns FuncSet) (ast.Node, error) {
	text, ok := v.(value.Text)
	if !ok {
		return nil, errs.NewParseError("$when value must be a string expression", keyWhen)
	}
	return ParseExpr(string(text), true, fns)
}

// compileKey returns a non-nil ParsedKey whenever the key text contains
// "${", an escaped \${…} included (its escape is then resolved at render
// time); other keys keep ParsedKey nil.
func compileKey(k string, fns FuncSet) (*ast.InterpNode, error) {
	if !strings.Contains(k, "${") {
		return nil, nil
	}
	node, err := ParseInterpolation(k, fns)
	if err != nil {
		return nil, err
	}
	if interp, ok := node.(*ast.InterpNode); ok {
		return interp, nil
	}
	return &ast.InterpNode{Parts: []ast.Node{node}}, nil
}

func buildConditional(id string, c *ifChain, fns FuncSet) (*ast.ConditionalNode, error) {
	guard, err := ParseExpr(c.ifExpr, true, fns)
	if err != nil {
		return nil, err
	}
	body, err := compileValue(c.ifVal, fns)
	if err != nil {
		return nil, err
	}
	branches := []ast.Branch{{Guard: guard, Body: body}}

	for _, eb := range c.elifs {
		g, err := ParseExpr(eb.expr, true, fns)
		if err != nil {
			return nil, err
		}
		b, err := compileValue(eb.val, fns)
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.Branch{Guard: g, Body: b})
	}
	if c.hasElse {
		b, err := compileValue(c.elseVal, fns)
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.Branch{Guard: ast.Else, Body: b})
	}
	return &ast.ConditionalNode{Branches: branches, ID: id}, nil
}

func compileLoop(fk forKey, bodyVal value.Value, fns FuncSet) (*ast.LoopNode, error) {
	iter, err := ParseExpr(fk.iterable, false, fns)
	if err != nil {
		return nil, err
	}
	body, err := compileValue(bodyVal, fns)
	if err != nil {
		return nil, err
	}
	loop := &ast.LoopNode{
		ItemVar:  fk.itemVar,
		IndexVar: fk.indexVar,
		Iterable: iter,
		Body:     body,
		Flatten:  !fk.nested,
	}
	computeFastLoop(loop)
	return loop, nil
}

// computeFastLoop precomputes the tier-2 loop-body accessor list (§9) when
// Body is an ObjectNode whose every property is a Literal, VarNode, or
// single-substitution InterpNode — deliberately not extended any deeper,
// per the design note against hand-writing per-shape renderers.
func computeFastLoop(loop *ast.LoopNode) {
	obj, ok := loop.Body.(*ast.ObjectNode)
	if !ok || obj.WhenCondition != nil {
		return
	}
	var accessors []ast.FastLoopAccessor
	for _, p := range obj.Properties {
		if p.IsControl || p.ParsedKey != nil {
			return
		}
		switch val := p.Value.(type) {
		case *ast.LiteralNode:
			accessors = append(accessors, ast.FastLoopAccessor{Key: p.Key, Kind: "literal", Value: val.Value})
		case *ast.VarNode:
			accessors = append(accessors, ast.FastLoopAccessor{Key: p.Key, Kind: "var", Path: val.Path})
		case *ast.InterpNode:
			if len(val.Parts) != 1 {
				return
			}
			vn, ok := val.Parts[0].(*ast.VarNode)
			if !ok {
				return
			}
			accessors = append(accessors, ast.FastLoopAccessor{Key: p.Key, Kind: "interp1", Path: vn.Path})
		default:
			return
		}
	}
	loop.Fast = &ast.FastLoopBody{Accessors: accessors}
}

func compilePartial(m *value.Mapping, fns FuncSet) (*ast.PartialNode, error) {
	nameVal := m.Key(keyPartial)
	nameText, ok := nameVal.(value.Text)
	if !ok {
		return nil, errs.NewParseError("$partial value must be a string", keyPartial)
	}
	name := string(nameText)
	if name == "" {
		return nil, errs.NewParseError("$partial name must not be empty", keyPartial)
	}

	var whenCond ast.Node
	data := value.NewMapping(0)
	for _, k := range m.Keys() {
		switch {
		case k == keyPartial:
			continue
		case k == keyWhen:
			node, err := compileWhen(m.Key(k), fns)
			if err != nil {
				return nil, err
			}
			whenCond = node
		case isDirectiveKey(k):
			return nil, errs.NewParseError("$partial cannot have $if/$elif/$else/$for siblings", k)
		default:
			realKey := k
			if strings.HasPrefix(k, `\$`) {
				realKey = k[1:]
			}
			data.Set(realKey, m.Key(k))
		}
	}

	var dataNode ast.Node
	if data.Len() > 0 {
		node, err := compileMapping(data, fns)
		if err != nil {
			return nil, err
		}
		dataNode = node
	}

	return &ast.PartialNode{Name: name, Data: dataNode, WhenCondition: whenCond}, nil
}

func isStaticNode(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.LiteralNode:
		return true
	case *ast.ObjectNode:
		return v.Fast
	case *ast.ArrayNode:
		return v.Fast
	default:
		return false
	}
}

func staticValueOf(n ast.Node) value.Value {
	switch v := n.(type) {
	case *ast.LiteralNode:
		return v.Value
	case *ast.ObjectNode:
		return v.FastValue
	case *ast.ArrayNode:
		return v.FastValue
	default:
		return value.Null{}
	}
}

func objectIsFast(obj *ast.ObjectNode) bool {
	if obj.WhenCondition != nil {
		return false
	}
	for _, p := range obj.Properties {
		if p.IsControl || p.ParsedKey != nil {
			return false
		}
		if !isStaticNode(p.Value) {
			return false
		}
	}
	return true
}
