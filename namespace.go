package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Namespace-aware deserialization of a decrypted XML fragment. Built on
// etreeutils.NSBuildParentContext/NSDetatch, used here in
// reverse of their NSUnmarshalElement role: instead of detaching an
// in-document element for standalone parsing, a standalone fragment is
// reparsed inside a synthetic wrapper that carries the source element's
// ancestor bindings, so prefixes used in ciphertext resolve the same way
// they did before encryption.

import (
	"encoding/xml"
	"strings"

	"github.com/beevik/etree"

	"github.com/go-xmlsec/xmlsecgo/etreeutils"
)

const fragmentWrapperTag = "xmlsecgoFragmentWrapper"

// deserializeFragmentInContext parses fragmentXML as a sequence of sibling
// elements inside a synthetic wrapper declaring every xmlns/xmlns:* binding
// visible on source's ancestor chain, nearest-binding-wins.
// The returned elements are detached (no parent) and ready to be grafted
// into the target document in place of source or its children.
func deserializeFragmentInContext(fragmentXML string, source *etree.Element) ([]*etree.Element, error) {
	nsCtx, err := etreeutils.NSBuildParentContext(source)
	if err != nil {
		return nil, newMarshalError("failed to build namespace context for decrypted fragment", err)
	}

	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(fragmentWrapperTag)
	for prefix, uri := range nsCtx.Prefixes {
		sb.WriteByte(' ')
		if prefix == "" {
			sb.WriteString("xmlns")
		} else {
			sb.WriteString("xmlns:")
			sb.WriteString(prefix)
		}
		sb.WriteString(`="`)
		sb.WriteString(escapeXMLAttr(uri))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	sb.WriteString(fragmentXML)
	sb.WriteString("</")
	sb.WriteString(fragmentWrapperTag)
	sb.WriteByte('>')

	doc := etree.NewDocument()
	if err := doc.ReadFromString(sb.String()); err != nil {
		return nil, newMarshalError("failed to parse decrypted fragment", err)
	}
	wrapper := doc.Root()
	if wrapper == nil {
		return nil, newMarshalError("decrypted fragment produced no content", nil)
	}

	// Detaching a child from the wrapper would sever the prefix bindings it
	// inherits, so each child is detached with those bindings materialized
	// as its own xmlns attributes (nearest declaration still wins).
	wrapperCtx, err := etreeutils.EmptyNSContext.Subcontext(wrapper)
	if err != nil {
		return nil, newMarshalError("failed to build wrapper namespace context", err)
	}
	var children []*etree.Element
	for _, c := range wrapper.ChildElements() {
		detached, err := etreeutils.NSDetatch(wrapperCtx, c)
		if err != nil {
			return nil, newMarshalError("failed to detach decrypted fragment child", err)
		}
		children = append(children, detached)
	}
	return children, nil
}

func escapeXMLAttr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// replaceElementWithFragment implements the decrypt-element graft rule:
// if target's parent is the document itself, the first
// fragment child becomes the new document root; otherwise target is
// replaced in place by all of the fragment's children.
func replaceElementWithFragment(doc *etree.Document, target *etree.Element, fragment []*etree.Element) error {
	if len(fragment) == 0 {
		return newMarshalError("decrypted fragment produced no elements to graft", nil)
	}
	parent := target.Parent()
	if parent == nil {
		doc.SetRoot(fragment[0])
		for _, extra := range fragment[1:] {
			doc.AddChild(extra)
		}
		return nil
	}
	idx := childIndex(parent, target)
	if idx < 0 {
		return newMarshalError("target element is not a child of its reported parent", nil)
	}
	parent.RemoveChildAt(idx)
	for i, f := range fragment {
		parent.InsertChildAt(idx+i, f)
	}
	return nil
}

// replaceChildrenWithFragment implements the content=true decrypt graft
// rule: target's existing children are replaced by fragment's elements,
// target itself is unchanged.
func replaceChildrenWithFragment(target *etree.Element, fragment []*etree.Element) {
	for i := len(target.Child) - 1; i >= 0; i-- {
		if _, ok := target.Child[i].(*etree.Element); ok {
			target.RemoveChildAt(i)
		}
	}
	for _, f := range fragment {
		target.AddChild(f)
	}
}

func childIndex(parent *etree.Element, target *etree.Element) int {
	for i, tok := range parent.Child {
		if el, ok := tok.(*etree.Element); ok && el == target {
			return i
		}
	}
	return -1
}
