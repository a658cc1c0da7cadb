package xpathexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

type evaluator struct {
	ctx Context
}

func (ev *evaluator) evalPath(path *locationPath, ctxNodes []*etree.Element) ([]*etree.Element, error) {
	cur := ctxNodes
	steps := path.steps
	if path.absolute {
		if ev.ctx.Root == nil {
			return nil, fmt.Errorf("xpathexpr: absolute path with no document root")
		}
		cur = []*etree.Element{ev.ctx.Root}
		// A Root that is an element (not an etree.Document) stands for the
		// document node's only element child, so "/name" tests Root itself.
		if ev.ctx.Root.Tag != "" && len(steps) > 0 && steps[0].axis == axisChild && !steps[0].descendantStep {
			first := steps[0]
			first.axis = axisSelf
			var err error
			if cur, err = ev.evalStep(first, cur); err != nil {
				return nil, err
			}
			steps = steps[1:]
		}
	}
	for _, s := range steps {
		var err error
		cur, err = ev.evalStep(s, cur)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (ev *evaluator) evalStep(s step, ctxNodes []*etree.Element) ([]*etree.Element, error) {
	if s.descendantStep {
		var expanded []*etree.Element
		for _, n := range ctxNodes {
			expanded = append(expanded, descendantOrSelf(n)...)
		}
		ctxNodes = dedupe(expanded)
	}

	var candidates []*etree.Element
	switch s.axis {
	case axisChild:
		for _, n := range ctxNodes {
			candidates = append(candidates, n.ChildElements()...)
		}
	case axisSelf:
		candidates = append(candidates, ctxNodes...)
	case axisParent:
		for _, n := range ctxNodes {
			if p := n.Parent(); p != nil {
				candidates = append(candidates, p)
			}
		}
	case axisAncestor:
		for _, n := range ctxNodes {
			candidates = append(candidates, ancestors(n)...)
		}
	case axisAncestorOrSelf:
		for _, n := range ctxNodes {
			candidates = append(candidates, append(ancestors(n), n)...)
		}
	case axisDescendant:
		for _, n := range ctxNodes {
			candidates = append(candidates, descendants(n)...)
		}
	case axisDescendantOrSelf:
		for _, n := range ctxNodes {
			candidates = append(candidates, descendantOrSelf(n)...)
		}
	case axisAttribute:
		// The attribute axis yields no element nodes; a standalone
		// attribute step (outside a predicate) has nothing to return.
		candidates = nil
	default:
		return nil, fmt.Errorf("xpathexpr: unsupported axis")
	}

	var afterTest []*etree.Element
	for _, c := range candidates {
		if matchesNodeTest(c, s.nodeTest, ev.ctx.Namespaces) {
			afterTest = append(afterTest, c)
		}
	}

	result := dedupe(afterTest)
	for _, pred := range s.predicates {
		var filtered []*etree.Element
		for i, c := range result {
			v, err := ev.evalExpr(pred, c, i+1, len(result))
			if err != nil {
				return nil, err
			}
			if boolOf(v) {
				filtered = append(filtered, c)
			}
		}
		result = filtered
	}
	return result, nil
}

func matchesNodeTest(el *etree.Element, nodeTest string, namespaces map[string]string) bool {
	switch nodeTest {
	case "*", "node()":
		return true
	case "text()", "comment()":
		// Text/comment nodes are not represented in this package's
		// element-only node-set model.
		return false
	}
	if idx := strings.IndexByte(nodeTest, ':'); idx >= 0 {
		prefix, local := nodeTest[:idx], nodeTest[idx+1:]
		return el.Space == prefix && el.Tag == local
	}
	return el.Tag == nodeTest
}

// ---- axis helpers ----

func ancestors(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	for p := el.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

func descendants(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		out = append(out, c)
		out = append(out, descendants(c)...)
	}
	return out
}

func descendantOrSelf(el *etree.Element) []*etree.Element {
	return append([]*etree.Element{el}, descendants(el)...)
}

func dedupe(els []*etree.Element) []*etree.Element {
	seen := map[*etree.Element]bool{}
	var out []*etree.Element
	for _, e := range els {
		if e == nil || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// ---- predicate expression evaluation ----

type valueKind int

const (
	kindBool valueKind = iota
	kindString
	kindNum
	kindNodeSet
)

type value struct {
	kind valueKind
	b    bool
	s    string
	n    float64
	ns   []*etree.Element
}

func boolOf(v value) bool {
	switch v.kind {
	case kindBool:
		return v.b
	case kindString:
		return v.s != ""
	case kindNum:
		return v.n != 0
	case kindNodeSet:
		return len(v.ns) > 0
	}
	return false
}

func stringOf(v value) string {
	switch v.kind {
	case kindString:
		return v.s
	case kindNum:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case kindBool:
		if v.b {
			return "true"
		}
		return "false"
	case kindNodeSet:
		if len(v.ns) == 0 {
			return ""
		}
		return v.ns[0].Text()
	}
	return ""
}

func (ev *evaluator) evalExpr(e expr, node *etree.Element, pos, size int) (value, error) {
	switch t := e.(type) {
	case orExpr:
		lv, err := ev.evalExpr(t.lhs, node, pos, size)
		if err != nil {
			return value{}, err
		}
		if boolOf(lv) {
			return value{kind: kindBool, b: true}, nil
		}
		rv, err := ev.evalExpr(t.rhs, node, pos, size)
		if err != nil {
			return value{}, err
		}
		return value{kind: kindBool, b: boolOf(rv)}, nil
	case andExpr:
		lv, err := ev.evalExpr(t.lhs, node, pos, size)
		if err != nil {
			return value{}, err
		}
		if !boolOf(lv) {
			return value{kind: kindBool, b: false}, nil
		}
		rv, err := ev.evalExpr(t.rhs, node, pos, size)
		if err != nil {
			return value{}, err
		}
		return value{kind: kindBool, b: boolOf(rv)}, nil
	case eqExpr:
		lv, err := ev.evalExpr(t.lhs, node, pos, size)
		if err != nil {
			return value{}, err
		}
		rv, err := ev.evalExpr(t.rhs, node, pos, size)
		if err != nil {
			return value{}, err
		}
		var eq bool
		if lv.kind == kindNum && rv.kind == kindNum {
			eq = lv.n == rv.n
		} else {
			eq = stringOf(lv) == stringOf(rv)
		}
		if t.negate {
			eq = !eq
		}
		return value{kind: kindBool, b: eq}, nil
	case notExpr:
		v, err := ev.evalExpr(t.operand, node, pos, size)
		if err != nil {
			return value{}, err
		}
		return value{kind: kindBool, b: !boolOf(v)}, nil
	case litExpr:
		return value{kind: kindString, s: t.val}, nil
	case numExpr:
		return value{kind: kindNum, n: t.val}, nil
	case attrExpr:
		attr := selectAttr(node, t.name)
		if attr == nil {
			return value{kind: kindString, s: ""}, nil
		}
		return value{kind: kindString, s: attr.Value}, nil
	case funcExpr:
		return ev.evalFunc(t, node, pos, size)
	case pathExpr:
		nodes, err := ev.evalPath(t.path, []*etree.Element{node})
		if err != nil {
			return value{}, err
		}
		return value{kind: kindNodeSet, ns: nodes}, nil
	default:
		return value{}, fmt.Errorf("xpathexpr: unhandled expression type %T", e)
	}
}

func selectAttr(el *etree.Element, name string) *etree.Attr {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		prefix, local := name[:idx], name[idx+1:]
		for i := range el.Attr {
			if el.Attr[i].Space == prefix && el.Attr[i].Key == local {
				return &el.Attr[i]
			}
		}
		return nil
	}
	for i := range el.Attr {
		if el.Attr[i].Space == "" && el.Attr[i].Key == name {
			return &el.Attr[i]
		}
	}
	return nil
}

func (ev *evaluator) evalFunc(f funcExpr, node *etree.Element, pos, size int) (value, error) {
	switch f.name {
	case "position":
		return value{kind: kindNum, n: float64(pos)}, nil
	case "last":
		return value{kind: kindNum, n: float64(size)}, nil
	case "local-name":
		el := node
		if len(f.args) == 1 {
			v, err := ev.evalExpr(f.args[0], node, pos, size)
			if err != nil {
				return value{}, err
			}
			if v.kind == kindNodeSet && len(v.ns) > 0 {
				el = v.ns[0]
			}
		}
		return value{kind: kindString, s: el.Tag}, nil
	case "name":
		el := node
		if len(f.args) == 1 {
			v, err := ev.evalExpr(f.args[0], node, pos, size)
			if err != nil {
				return value{}, err
			}
			if v.kind == kindNodeSet && len(v.ns) > 0 {
				el = v.ns[0]
			}
		}
		if el.Space != "" {
			return value{kind: kindString, s: el.Space + ":" + el.Tag}, nil
		}
		return value{kind: kindString, s: el.Tag}, nil
	case "count":
		if len(f.args) != 1 {
			return value{}, fmt.Errorf("xpathexpr: count() takes exactly one argument")
		}
		v, err := ev.evalExpr(f.args[0], node, pos, size)
		if err != nil {
			return value{}, err
		}
		return value{kind: kindNum, n: float64(len(v.ns))}, nil
	case "not":
		if len(f.args) != 1 {
			return value{}, fmt.Errorf("xpathexpr: not() takes exactly one argument")
		}
		v, err := ev.evalExpr(f.args[0], node, pos, size)
		if err != nil {
			return value{}, err
		}
		return value{kind: kindBool, b: !boolOf(v)}, nil
	case "here":
		if ev.ctx.HereElement == nil {
			return value{kind: kindNodeSet}, nil
		}
		return value{kind: kindNodeSet, ns: []*etree.Element{ev.ctx.HereElement}}, nil
	case "starts-with":
		if len(f.args) != 2 {
			return value{}, fmt.Errorf("xpathexpr: starts-with() takes exactly two arguments")
		}
		a, err := ev.evalExpr(f.args[0], node, pos, size)
		if err != nil {
			return value{}, err
		}
		b, err := ev.evalExpr(f.args[1], node, pos, size)
		if err != nil {
			return value{}, err
		}
		return value{kind: kindBool, b: strings.HasPrefix(stringOf(a), stringOf(b))}, nil
	default:
		return value{}, fmt.Errorf("xpathexpr: unsupported function %s()", f.name)
	}
}
