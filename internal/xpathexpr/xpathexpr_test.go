package xpathexpr

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, xmlstr string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xmlstr))
	return doc
}

func TestEvalAbsoluteChildPath(t *testing.T) {
	doc := mustDoc(t, `<root><a/><b><c/></b></root>`)

	nodes, err := Eval("/root/b/c", Context{Root: doc.Root()}, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "c", nodes[0].Tag)
}

func TestEvalDescendantAxis(t *testing.T) {
	doc := mustDoc(t, `<root><a><target/></a><b><target/></b></root>`)

	nodes, err := Eval("//target", Context{Root: doc.Root()}, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 2)
}

func TestEvalWildcardStep(t *testing.T) {
	doc := mustDoc(t, `<root><a/><b/></root>`)

	nodes, err := Eval("/root/*", Context{Root: doc.Root()}, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 2)
}

func TestEvalPredicateByAttributeEquality(t *testing.T) {
	doc := mustDoc(t, `<root><item id="1"/><item id="2"/></root>`)

	nodes, err := Eval(`//item[@id="2"]`, Context{Root: doc.Root()}, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "2", nodes[0].SelectAttrValue("id", ""))
}

func TestEvalPredicatePosition(t *testing.T) {
	doc := mustDoc(t, `<root><item/><item/><item/></root>`)

	nodes, err := Eval(`//item[position()=2]`, Context{Root: doc.Root()}, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}

func TestEvalNotFunction(t *testing.T) {
	doc := mustDoc(t, `<root><item id="1"/><item id="2"/></root>`)

	nodes, err := Eval(`//item[not(@id="2")]`, Context{Root: doc.Root()}, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "1", nodes[0].SelectAttrValue("id", ""))
}

func TestEvalAncestorAxis(t *testing.T) {
	doc := mustDoc(t, `<root><a><b><target/></b></a></root>`)
	target := doc.FindElement("//target")

	nodes, err := Eval("ancestor::a", Context{Root: doc.Root()}, target)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "a", nodes[0].Tag)
}

func TestEvalSelfAxis(t *testing.T) {
	doc := mustDoc(t, `<root><target/></root>`)
	target := doc.FindElement("//target")

	nodes, err := Eval("self::target", Context{Root: doc.Root()}, target)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}

func TestEvalHereFunctionWithinPredicate(t *testing.T) {
	doc := mustDoc(t, `<root><ref uri="#x"/><other/></root>`)
	refEl := doc.FindElement("//ref")

	nodes, err := Eval(`//*[count(here())=1]`, Context{Root: doc.Root(), HereElement: refEl}, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 2) // here() resolves regardless of which node is being tested
}

func TestEvalHereFunctionUnboundYieldsEmptyNodeSet(t *testing.T) {
	doc := mustDoc(t, `<root><ref/></root>`)

	nodes, err := Eval(`//*[count(here())=0]`, Context{Root: doc.Root()}, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 1) // ref: HereElement unset, count(here()) == 0
}

func TestEvalRejectsMalformedExpression(t *testing.T) {
	doc := mustDoc(t, `<root/>`)
	_, err := Eval("[[", Context{Root: doc.Root()}, doc.Root())
	require.Error(t, err)
}

func TestEvalLocalNameFunction(t *testing.T) {
	doc := mustDoc(t, `<root xmlns:f="urn:foo"><f:item/><item/></root>`)

	nodes, err := Eval(`//*[local-name()="item"]`, Context{Root: doc.Root()}, doc.Root())
	require.NoError(t, err)
	require.Len(t, nodes, 2)
}

func TestEvalAttributeAxisReturnsNoElementCandidates(t *testing.T) {
	doc := mustDoc(t, `<root id="1"/>`)

	nodes, err := Eval("attribute::id", Context{Root: doc.Root()}, doc.Root())
	require.NoError(t, err)
	require.Empty(t, nodes)
}
