package xmlsecgo

// SPDX-License-Identifier: MIT
//
// XPath2Filter combines ordered Union/Intersect/Subtract XPath expressions
// into a single subtree-membership NodeFilter. Expression evaluation is
// delegated to internal/xpathexpr.

import (
	"github.com/beevik/etree"

	"github.com/go-xmlsec/xmlsecgo/internal/xpathexpr"
)

// XPath2FilterKind tags a single XPath2Filter expression with its set
// operation.
type XPath2FilterKind string

const (
	XPath2FilterUnion     XPath2FilterKind = "union"
	XPath2FilterIntersect XPath2FilterKind = "intersect"
	XPath2FilterSubtract  XPath2FilterKind = "subtract"
)

// XPath2FilterExpr is one (kind, expression) pair from an XPath2Filter
// Transform's child elements.
type XPath2FilterExpr struct {
	Kind XPath2FilterKind
	Expr string
}

// XPath2Filter is a NodeFilter computing keep = ((default ∪ U) ∩ I) \ S,
// with -1/0/1 decisions derived per node by walking up to the nearest
// enclosing root-set membership.
type XPath2Filter struct {
	root  *etree.Element
	exprs []XPath2FilterExpr
	bound bool

	union     map[*etree.Element]bool
	intersect map[*etree.Element]bool
	subtract  map[*etree.Element]bool

	hasIntersect bool
}

// NewXPath2Filter validates every expression in exprs eagerly (so a
// malformed filter fails at construction time) and returns a filter whose
// root-sets are populated lazily, on the first BindDocument call against a
// concrete document; IsNodeIncluded does not bind.
func NewXPath2Filter(exprs []XPath2FilterExpr) (*XPath2Filter, error) {
	f := &XPath2Filter{
		exprs:     append([]XPath2FilterExpr{}, exprs...),
		union:     map[*etree.Element]bool{},
		intersect: map[*etree.Element]bool{},
		subtract:  map[*etree.Element]bool{},
	}
	return f, (&deferredExprs{exprs: exprs}).validate()
}

// deferredExprs exists only to validate expression syntax eagerly (so a
// malformed filter fails at construction time, not first use) without
// requiring a document to evaluate against.
type deferredExprs struct {
	exprs []XPath2FilterExpr
}

func (d *deferredExprs) validate() error {
	for _, e := range d.exprs {
		if _, err := xpathexpr.Parse(e.Expr); err != nil {
			return newTransformError(string(XPath2FilterAlgorithmID), err)
		}
	}
	return nil
}

// BindDocument evaluates every filter expression against root's owning
// document, populating the union/intersect/subtract root-sets. A filter
// binds at most once; later calls against a different root are a no-op,
// since a single Transform instance is only ever applied within one
// TransformChain run over one document.
func (f *XPath2Filter) BindDocument(root *etree.Element) error {
	if f.bound {
		return nil
	}
	f.root = root
	for _, e := range f.exprs {
		nodes, err := xpathexpr.Eval(e.Expr, xpathexpr.Context{Root: root}, root)
		if err != nil {
			return newTransformError(string(XPath2FilterAlgorithmID), err)
		}
		var dst map[*etree.Element]bool
		switch e.Kind {
		case XPath2FilterUnion:
			dst = f.union
		case XPath2FilterIntersect:
			dst = f.intersect
			f.hasIntersect = true
		case XPath2FilterSubtract:
			dst = f.subtract
		default:
			return newInvalidInputError("unknown XPath2Filter kind " + string(e.Kind))
		}
		for _, n := range nodes {
			dst[n] = true
		}
	}
	f.bound = true
	return nil
}

// IsNodeIncluded implements the XPath Filter 2.0 membership table.
func (f *XPath2Filter) IsNodeIncluded(n *etree.Element, level int) int {
	if descendantOfAny(n, f.subtract) {
		return -1
	}
	if f.hasIntersect && !descendantOfAny(n, f.intersect) {
		if descendantOfAny(n, f.union) {
			return 1
		}
		return 0
	}
	return 1
}

// descendantOfAny reports whether n is n itself or a descendant of any
// element in set — descendant-or-self of a node in set. Walks up from n
// rather than down from set, which is O(depth) per node rather than
// O(|set| * subtree size).
func descendantOfAny(n *etree.Element, set map[*etree.Element]bool) bool {
	if len(set) == 0 {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent() {
		if set[cur] {
			return true
		}
	}
	return false
}

// legacyXPathFilter adapts a single legacy "XPath" transform expression
// into the NodeFilter contract: a node is kept if it is
// itself selected by the expression, or is an ancestor of a selected node,
// or is a descendant of a selected node (the historical xmldsig XPath
// filter semantics — "a node-set that includes every node such that the
// expression evaluates to true applied to each node").
type legacyXPathFilter struct {
	selected map[*etree.Element]bool
}

func newLegacyXPathFilter(expr string, root *etree.Element) (*legacyXPathFilter, error) {
	nodes, err := xpathexpr.Eval(expr, xpathexpr.Context{Root: root}, root)
	if err != nil {
		return nil, newTransformError(string(XPathTransformAlgorithmID), err)
	}
	f := &legacyXPathFilter{selected: map[*etree.Element]bool{}}
	for _, n := range nodes {
		f.selected[n] = true
	}
	return f, nil
}

func (f *legacyXPathFilter) IsNodeIncluded(n *etree.Element, level int) int {
	if f.selected[n] {
		return 1
	}
	if descendantOfAny(n, f.selected) {
		return 1
	}
	for cur := range f.selected {
		for p := cur.Parent(); p != nil; p = p.Parent() {
			if p == n {
				return 0
			}
		}
	}
	return -1
}
