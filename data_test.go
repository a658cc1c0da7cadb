package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Covers the Data tagged-variant helpers: node extraction
// and octet materialization across NodeSetData/OctetStreamData/SubTreeData.

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func TestDataNodesForNodeSetData(t *testing.T) {
	a := etree.NewElement("a")
	b := etree.NewElement("b")
	d := NewNodeSetData([]*etree.Element{a, b})

	nodes := dataNodes(d)
	require.Equal(t, []*etree.Element{a, b}, nodes)
}

func TestDataNodesForSubTreeDataFlattens(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<root><a/><b><c/></b></root>`))
	d := NewSubTreeData(doc.Root(), false)

	nodes := dataNodes(d)
	require.Len(t, nodes, 4) // root, a, b, c
}

func TestDataNodesForOctetStreamDataIsNil(t *testing.T) {
	d := NewOctetStreamData([]byte("payload"), "#x", "text/plain")
	require.Nil(t, dataNodes(d))
}

func TestDataToBytesForOctetStreamData(t *testing.T) {
	d := NewOctetStreamData([]byte("payload"), "", "")
	b, ok := dataToBytes(d)
	require.True(t, ok)
	require.Equal(t, []byte("payload"), b)
}

func TestDataToBytesForNodeSetDataIsFalse(t *testing.T) {
	d := NewNodeSetData([]*etree.Element{etree.NewElement("a")})
	_, ok := dataToBytes(d)
	require.False(t, ok)
}

func TestOctetStreamDataAccessors(t *testing.T) {
	d := NewOctetStreamData([]byte("x"), "http://example.org/doc", "application/xml")
	os, ok := d.(*octetStreamData)
	require.True(t, ok)
	require.Equal(t, "http://example.org/doc", os.SourceURI())
	require.Equal(t, "application/xml", os.MimeType())
}

func TestSubTreeDataAccessors(t *testing.T) {
	el := etree.NewElement("root")
	d := NewSubTreeData(el, true)
	st, ok := d.(*subTreeData)
	require.True(t, ok)
	require.Same(t, el, st.Root())
	require.True(t, st.ExcludeComments())
}
