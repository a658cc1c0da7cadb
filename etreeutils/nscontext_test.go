// SPDX-License-Identifier: Apache-2.0
// This file is adapted from the github.com/russellhaering/goxmldsig project.
package etreeutils

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func TestNSBuildParentContextNearestAncestorWins(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<root xmlns:f="urn:outer"><mid xmlns:f="urn:inner"><target/></mid></root>`))

	target := doc.FindElement("//target")
	require.NotNil(t, target)

	ctx, err := NSBuildParentContext(target)
	require.NoError(t, err)
	require.Equal(t, "urn:inner", ctx.Prefixes["f"])
}

func TestNSDetatchAddsInheritedBindingsAsExplicitAttrs(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<root xmlns:f="urn:foo"><target><f:child/></target></root>`))
	target := doc.FindElement("//target")

	ctx, err := NSBuildParentContext(target)
	require.NoError(t, err)

	detached, err := NSDetatch(ctx, target)
	require.NoError(t, err)
	require.Equal(t, "urn:foo", detached.SelectAttrValue("xmlns:f", ""))

	// the original element must be untouched
	require.Empty(t, target.SelectAttrValue("xmlns:f", ""))
}

func TestNSDetatchDoesNotOverrideOwnDeclaration(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<root xmlns:f="urn:outer"><target xmlns:f="urn:own"/></root>`))
	target := doc.FindElement("//target")

	ctx, err := NSBuildParentContext(target)
	require.NoError(t, err)

	detached, err := NSDetatch(ctx, target)
	require.NoError(t, err)
	require.Equal(t, "urn:own", detached.SelectAttrValue("xmlns:f", ""))
}

func TestSubcontextMergesChildDeclarationsOverParent(t *testing.T) {
	parent := NSContext{Prefixes: map[string]string{"f": "urn:outer"}}
	child := etree.NewElement("child")
	child.CreateAttr("xmlns:f", "urn:inner")

	next, err := parent.Subcontext(child)
	require.NoError(t, err)
	require.Equal(t, "urn:inner", next.Prefixes["f"])
}
