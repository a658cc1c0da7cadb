// SPDX-License-Identifier: Apache-2.0
// This file is adapted from the github.com/russellhaering/goxmldsig project.
package etreeutils

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// TransformExcC14n mutates el in place into Exclusive XML Canonicalization
// form (http://www.w3.org/2001/10/xml-exc-c14n#): namespace prefixes
// visibly utilized by el or its descendants, plus any prefix named in
// prefixList, are rendered as xmlns declarations at el itself (the root of
// the canonicalized subtree) using bindings inherited from el's original
// document position; redundant re-declarations deeper in the subtree are
// stripped, attributes are sorted into canonical order, and comment nodes
// are removed unless withComments is set.
func TransformExcC14n(el *etree.Element, prefixList string, withComments bool) error {
	parentCtx, err := NSBuildParentContext(el)
	if err != nil {
		return err
	}
	return TransformExcC14nWithContext(parentCtx, el, prefixList, withComments)
}

// TransformExcC14nWithContext is TransformExcC14n with the parent namespace
// context supplied by the caller, for elements already detached from the
// document position whose bindings they should inherit.
func TransformExcC14nWithContext(parentCtx NSContext, el *etree.Element, prefixList string, withComments bool) error {
	needed := map[string]bool{}
	collectUtilizedPrefixes(el, needed)
	for _, p := range strings.Fields(prefixList) {
		needed[p] = true
	}

	declaredHere := map[string]bool{}
	for _, attr := range el.Attr {
		if attr.Space == "" && attr.Key == "xmlns" {
			declaredHere[""] = true
		} else if attr.Space == "xmlns" {
			declaredHere[attr.Key] = true
		}
	}

	for prefix := range needed {
		if declaredHere[prefix] {
			continue
		}
		uri, ok := parentCtx.Prefixes[prefix]
		if !ok {
			if prefix == "" {
				continue
			}
			continue
		}
		if prefix == "" {
			el.CreateAttr("xmlns", uri)
		} else {
			el.CreateAttr("xmlns:"+prefix, uri)
		}
	}

	stripRedundantNSAndSort(el, map[string]string{}, withComments)

	return nil
}

// collectUtilizedPrefixes walks el's subtree collecting every namespace
// prefix referenced by an element or attribute name (the "visibly
// utilized" set exclusive c14n renders, as opposed to inclusive c14n's
// "every namespace in scope").
func collectUtilizedPrefixes(el *etree.Element, out map[string]bool) {
	out[el.Space] = true
	for _, attr := range el.Attr {
		if attr.Space != "" && attr.Space != "xmlns" {
			out[attr.Space] = true
		}
	}
	for _, child := range el.ChildElements() {
		collectUtilizedPrefixes(child, out)
	}
}

// stripRedundantNSAndSort removes xmlns declarations deeper in the subtree
// that merely repeat a binding already in scope (inherited is the set of
// bindings already rendered by an ancestor within this canonicalized
// subtree), strips comments when !withComments, and sorts every element's
// attributes into canonical order.
func stripRedundantNSAndSort(el *etree.Element, inherited map[string]string, withComments bool) {
	n := 0
	local := map[string]string{}
	for k, v := range inherited {
		local[k] = v
	}
	for _, attr := range el.Attr {
		if attr.Space == "" && attr.Key == "xmlns" {
			if v, ok := inherited[""]; ok && v == attr.Value {
				continue
			}
			local[""] = attr.Value
		} else if attr.Space == "xmlns" {
			if v, ok := inherited[attr.Key]; ok && v == attr.Value {
				continue
			}
			local[attr.Key] = attr.Value
		}
		el.Attr[n] = attr
		n++
	}
	el.Attr = el.Attr[:n]
	sort.Sort(SortedAttrs(el.Attr))

	if !withComments {
		var kept []etree.Token
		for _, tok := range el.Child {
			if _, ok := tok.(*etree.Comment); ok {
				continue
			}
			kept = append(kept, tok)
		}
		el.Child = kept
	}

	for _, child := range el.ChildElements() {
		stripRedundantNSAndSort(child, local, withComments)
	}
}
