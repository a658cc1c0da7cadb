// SPDX-License-Identifier: Apache-2.0
// This file is adapted from the github.com/russellhaering/goxmldsig project,
// extended with NodeFilter support, C14N 1.1, and the with-comments
// variants.
package xmlsecgo

import (
	"sort"

	"github.com/beevik/etree"
	"github.com/go-xmlsec/xmlsecgo/etreeutils"
)

// NodeFilter is consulted during canonicalization to decide whether a node
// is included in the output. Values: -1 drop the
// node and its subtree, 0 drop the node but descend into its children, 1
// keep the node.
type NodeFilter interface {
	IsNodeIncluded(n *etree.Element, level int) int
}

// Canonicalizer serializes a node-set/subtree to a stable UTF-8 octet
// stream, honoring an optional NodeFilter. It must not
// pretty-print, and is re-entrant only after Reset.
type Canonicalizer interface {
	// Canonicalize serializes el (and its subtree) to canonical octets.
	Canonicalize(el *etree.Element) ([]byte, error)
	Algorithm() AlgorithmID
	// WithNodeFilter returns a copy of this canonicalizer that honors
	// filter during the next Canonicalize call.
	WithNodeFilter(filter NodeFilter) Canonicalizer
}

func registerBuiltinCanonicalizers(r *registryImpl) {
	factories := map[AlgorithmID]func() Canonicalizer{
		CanonicalXML10ExclusiveAlgorithmID: func() Canonicalizer {
			return MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
		},
		CanonicalXML10ExclusiveWithCommentsAlgorithmID: func() Canonicalizer {
			return MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList("")
		},
		CanonicalXML11AlgorithmID:             func() Canonicalizer { return MakeC14N11Canonicalizer() },
		CanonicalXML11WithCommentsAlgorithmID: func() Canonicalizer { return MakeC14N11WithCommentsCanonicalizer() },
		CanonicalXML10RecAlgorithmID:          func() Canonicalizer { return MakeC14N10RecCanonicalizer() },
		CanonicalXML10WithCommentsAlgorithmID: func() Canonicalizer { return MakeC14N10WithCommentsCanonicalizer() },
	}
	for uri, f := range factories {
		_ = r.RegisterCanonicalizer(uri, f)
	}
}

// NullCanonicalizer applies only canonicalPrep (dropping namespace
// re-declarations already in scope, sorting attributes) and keeps comments;
// used internally for the Apache-style carrier that has already been
// canonicalized elsewhere.
type NullCanonicalizer struct {
	filter NodeFilter
}

func MakeNullCanonicalizer() Canonicalizer {
	return &NullCanonicalizer{}
}

func (c *NullCanonicalizer) Algorithm() AlgorithmID {
	return AlgorithmID("NULL")
}

func (c *NullCanonicalizer) WithNodeFilter(filter NodeFilter) Canonicalizer {
	return &NullCanonicalizer{filter: filter}
}

func (c *NullCanonicalizer) Canonicalize(el *etree.Element) ([]byte, error) {
	return canonicalSerialize(canonicalPrep(applyNodeFilter(el, c.filter), false, true))
}

type c14N10ExclusiveCanonicalizer struct {
	prefixList string
	comments   bool
	filter     NodeFilter
}

// MakeC14N10ExclusiveCanonicalizerWithPrefixList constructs an exclusive Canonicalizer
// from a PrefixList in NMTOKENS format (a white space separated list).
func MakeC14N10ExclusiveCanonicalizerWithPrefixList(prefixList string) Canonicalizer {
	return &c14N10ExclusiveCanonicalizer{
		prefixList: prefixList,
		comments:   false,
	}
}

// MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList constructs an exclusive Canonicalizer
// from a PrefixList in NMTOKENS format (a white space separated list).
func MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList(prefixList string) Canonicalizer {
	return &c14N10ExclusiveCanonicalizer{
		prefixList: prefixList,
		comments:   true,
	}
}

func (c *c14N10ExclusiveCanonicalizer) WithNodeFilter(filter NodeFilter) Canonicalizer {
	cp := *c
	cp.filter = filter
	return &cp
}

// Canonicalize transforms the input Element into a serialized XML document in canonical form.
func (c *c14N10ExclusiveCanonicalizer) Canonicalize(el *etree.Element) ([]byte, error) {
	ctx, err := etreeutils.NSBuildParentContext(el)
	if err != nil {
		return nil, newCanonicalizationError(err)
	}
	el = applyNodeFilter(el, c.filter)
	err = etreeutils.TransformExcC14nWithContext(ctx, el, c.prefixList, c.comments)
	if err != nil {
		return nil, newCanonicalizationError(err)
	}

	return canonicalSerialize(el)
}

func (c *c14N10ExclusiveCanonicalizer) Algorithm() AlgorithmID {
	if c.comments {
		return CanonicalXML10ExclusiveWithCommentsAlgorithmID
	}
	return CanonicalXML10ExclusiveAlgorithmID
}

type c14N11Canonicalizer struct {
	comments bool
	filter   NodeFilter
}

// MakeC14N11Canonicalizer constructs an inclusive canonicalizer.
func MakeC14N11Canonicalizer() Canonicalizer {
	return &c14N11Canonicalizer{
		comments: false,
	}
}

// MakeC14N11WithCommentsCanonicalizer constructs an inclusive canonicalizer.
func MakeC14N11WithCommentsCanonicalizer() Canonicalizer {
	return &c14N11Canonicalizer{
		comments: true,
	}
}

func (c *c14N11Canonicalizer) WithNodeFilter(filter NodeFilter) Canonicalizer {
	cp := *c
	cp.filter = filter
	return &cp
}

// Canonicalize transforms the input Element into a serialized XML document in canonical form.
func (c *c14N11Canonicalizer) Canonicalize(el *etree.Element) ([]byte, error) {
	return canonicalSerialize(canonicalPrep(applyNodeFilter(el, c.filter), true, c.comments))
}

func (c *c14N11Canonicalizer) Algorithm() AlgorithmID {
	if c.comments {
		return CanonicalXML11WithCommentsAlgorithmID
	}
	return CanonicalXML11AlgorithmID
}

type c14N10RecCanonicalizer struct {
	comments bool
	filter   NodeFilter
}

// MakeC14N10RecCanonicalizer constructs an inclusive canonicalizer.
func MakeC14N10RecCanonicalizer() Canonicalizer {
	return &c14N10RecCanonicalizer{
		comments: false,
	}
}

// MakeC14N10WithCommentsCanonicalizer constructs an inclusive canonicalizer.
func MakeC14N10WithCommentsCanonicalizer() Canonicalizer {
	return &c14N10RecCanonicalizer{
		comments: true,
	}
}

func (c *c14N10RecCanonicalizer) WithNodeFilter(filter NodeFilter) Canonicalizer {
	cp := *c
	cp.filter = filter
	return &cp
}

// Canonicalize transforms the input Element into a serialized XML document in canonical form.
func (c *c14N10RecCanonicalizer) Canonicalize(inputXML *etree.Element) ([]byte, error) {
	parentNamespaceAttributes, parentXmlAttributes := getParentNamespaceAndXmlAttributes(inputXML)
	inputXMLCopy := applyNodeFilter(inputXML, c.filter)
	enhanceNamespaceAttributes(inputXMLCopy, parentNamespaceAttributes, parentXmlAttributes)
	return canonicalSerialize(canonicalPrep(inputXMLCopy, true, c.comments))
}

func (c *c14N10RecCanonicalizer) Algorithm() AlgorithmID {
	if c.comments {
		return CanonicalXML10WithCommentsAlgorithmID
	}
	return CanonicalXML10RecAlgorithmID
}

const nsSpace = "xmlns"

// applyNodeFilter returns a detached copy of el with filter's membership
// decisions applied. The copy is walked in lockstep with the original so
// the filter is consulted on the original nodes — XPath2Filter and the
// legacy XPath filter key their root-sets by node identity, and those sets
// were built from the document el still lives in.
func applyNodeFilter(el *etree.Element, filter NodeFilter) *etree.Element {
	cp := el.Copy()
	if filter != nil {
		pruneFiltered(el, cp, 0, filter)
	}
	return cp
}

// pruneFiltered removes from cp every descendant whose original counterpart
// filter rejects: -1 drops the node with its whole subtree, 0 drops the
// node but splices its children into its place.
func pruneFiltered(orig, cp *etree.Element, level int, filter NodeFilter) {
	origEls := orig.ChildElements()
	idx := 0
	var out []etree.Token
	for _, tok := range cp.Child {
		child, ok := tok.(*etree.Element)
		if !ok {
			out = append(out, tok)
			continue
		}
		origChild := origEls[idx]
		idx++
		switch filter.IsNodeIncluded(origChild, level+1) {
		case -1:
			// drop node and subtree
		case 0:
			pruneFiltered(origChild, child, level+1, filter)
			out = append(out, child.Child...)
		default:
			pruneFiltered(origChild, child, level+1, filter)
			out = append(out, child)
		}
	}
	cp.Child = out
}

// canonicalPrep accepts an *etree.Element and transforms it into one which is ready
// for serialization into inclusive canonical form. Specifically this
// entails:
//
// 1. Stripping re-declarations of namespaces
// 2. Sorting attributes into canonical order
//
// Inclusive canonicalization does not strip unused namespaces.
func canonicalPrep(el *etree.Element, strip bool, comments bool) *etree.Element {
	return canonicalPrepInner(el, make(map[string]string), strip, comments)
}

func canonicalPrepInner(el *etree.Element, seenSoFar map[string]string, strip bool, comments bool) *etree.Element {
	_seenSoFar := make(map[string]string)
	for k, v := range seenSoFar {
		_seenSoFar[k] = v
	}

	ne := el.Copy()
	sort.Sort(etreeutils.SortedAttrs(ne.Attr))
	n := 0
	for _, attr := range ne.Attr {
		if attr.Space != nsSpace && !(attr.Space == "" && attr.Key == nsSpace) {
			ne.Attr[n] = attr
			n++
			continue
		}

		if attr.Space == nsSpace {
			key := attr.Space + ":" + attr.Key
			if uri, seen := _seenSoFar[key]; !seen || attr.Value != uri {
				ne.Attr[n] = attr
				n++
				_seenSoFar[key] = attr.Value
			}
		} else {
			if uri, seen := _seenSoFar[nsSpace]; (!seen && attr.Value != "") || attr.Value != uri {
				ne.Attr[n] = attr
				n++
				_seenSoFar[nsSpace] = attr.Value
			}
		}
	}
	ne.Attr = ne.Attr[:n]

	if !comments {
		c := 0
		for c < len(ne.Child) {
			if _, ok := ne.Child[c].(*etree.Comment); ok {
				ne.RemoveChildAt(c)
			} else {
				c++
			}
		}
	}

	c := 0
	for c < len(ne.Child) {
		childElement, ok := ne.Child[c].(*etree.Element)
		if !ok {
			c++
			continue
		}
		ne.Child[c] = canonicalPrepInner(childElement, _seenSoFar, strip, comments)
		c++
	}

	return ne
}

func canonicalSerialize(el *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())

	doc.WriteSettings = etree.WriteSettings{
		CanonicalAttrVal: true,
		CanonicalEndTags: true,
		CanonicalText:    true,
	}

	b, err := doc.WriteToBytes()
	if err != nil {
		return nil, newCanonicalizationError(err)
	}
	return b, nil
}

func getParentNamespaceAndXmlAttributes(el *etree.Element) (map[string]string, map[string]string) {
	namespaceMap := make(map[string]string, 23)
	xmlMap := make(map[string]string, 5)
	parents := make([]*etree.Element, 0, 23)
	n1 := el.Parent()
	if n1 == nil {
		return namespaceMap, xmlMap
	}
	parent := n1
	for parent != nil {
		parents = append(parents, parent)
		parent = parent.Parent()
	}
	for i := len(parents) - 1; i > -1; i-- {
		elementPos := parents[i]
		for _, attr := range elementPos.Attr {
			if attr.Space == "xmlns" && (attr.Key != "xml" || attr.Value != "http://www.w3.org/XML/1998/namespace") {
				namespaceMap[attr.Key] = attr.Value
			} else if attr.Space == "" && attr.Key == "xmlns" {
				namespaceMap[attr.Key] = attr.Value
			} else if attr.Space == "xml" {
				xmlMap[attr.Key] = attr.Value
			}
		}
	}
	return namespaceMap, xmlMap
}

func enhanceNamespaceAttributes(el *etree.Element, parentNamespaces map[string]string, parentXmlAttributes map[string]string) {
	for prefix, uri := range parentNamespaces {
		if prefix == "xmlns" {
			el.CreateAttr("xmlns", uri)
		} else {
			el.CreateAttr("xmlns:"+prefix, uri)
		}
	}
	for attr, value := range parentXmlAttributes {
		el.CreateAttr("xml:"+attr, value)
	}
}
