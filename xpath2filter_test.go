package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Exercises the XPath Filter 2.0 node-selection semantics:
// keep = ((default ∪ U) ∩ I) \ S.

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func TestXPath2FilterSubtract(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<doc><a/><b><x/></b></doc>`))

	f, err := NewXPath2Filter([]XPath2FilterExpr{
		{Kind: XPath2FilterSubtract, Expr: "//b"},
	})
	require.NoError(t, err)
	require.NoError(t, f.BindDocument(doc.Root()))

	canon := MakeC14N10ExclusiveCanonicalizerWithPrefixList("").WithNodeFilter(f)
	out, err := canon.Canonicalize(doc.Root())
	require.NoError(t, err)

	s := string(out)
	require.Contains(t, s, "<doc>")
	require.Contains(t, s, "<a")
	require.NotContains(t, s, "<b>")
	require.NotContains(t, s, "<x")
}

func TestXPath2FilterSubtractWinsOverUnion(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<doc><a/><b><x/></b></doc>`))

	f, err := NewXPath2Filter([]XPath2FilterExpr{
		{Kind: XPath2FilterSubtract, Expr: "//b"},
		{Kind: XPath2FilterUnion, Expr: "//x"},
	})
	require.NoError(t, err)
	require.NoError(t, f.BindDocument(doc.Root()))

	// Subtract wins over union: keep is computed as ((default ∪ U) ∩ I) \ S,
	// so S always removes last.
	require.Equal(t, -1, f.IsNodeIncluded(findByTag(doc.Root(), "x"), 2))
}

func TestXPath2FilterIntersectNarrows(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<doc><a/><b><x/></b></doc>`))

	f, err := NewXPath2Filter([]XPath2FilterExpr{
		{Kind: XPath2FilterIntersect, Expr: "//b"},
	})
	require.NoError(t, err)
	require.NoError(t, f.BindDocument(doc.Root()))

	require.Equal(t, 1, f.IsNodeIncluded(findByTag(doc.Root(), "b"), 1))
	require.NotEqual(t, 1, f.IsNodeIncluded(findByTag(doc.Root(), "a"), 1))
}

func TestNewXPath2FilterRejectsMalformedExpr(t *testing.T) {
	_, err := NewXPath2Filter([]XPath2FilterExpr{
		{Kind: XPath2FilterUnion, Expr: "[["},
	})
	require.Error(t, err)
}

func findByTag(root *etree.Element, tag string) *etree.Element {
	if root.Tag == tag {
		return root
	}
	for _, c := range root.ChildElements() {
		if found := findByTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}
