// SPDX-License-Identifier: Apache-2.0
// This file is adapted from the github.com/russellhaering/goxmldsig project.
package etreeutils

import "github.com/beevik/etree"

// SortedAttrs sorts a slice of etree.Attr into canonical XML attribute
// order: the default xmlns declaration first, then prefixed xmlns
// declarations in prefix order, then attributes with no namespace in
// local-name order, then namespaced attributes ordered by namespace URI
// and then local name (C14N 2.1's attribute-axis ordering).
type SortedAttrs []etree.Attr

func (a SortedAttrs) Len() int      { return len(a) }
func (a SortedAttrs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }

func (a SortedAttrs) Less(i, j int) bool {
	ci, cj := a.category(i), a.category(j)
	if ci != cj {
		return ci < cj
	}
	switch ci {
	case categoryDefaultNS:
		return false
	case categoryPrefixedNS:
		return a[i].Key < a[j].Key
	case categoryPlainAttr:
		return a[i].Key < a[j].Key
	default: // categoryNamespacedAttr
		ui, uj := a.nsURI(a[i].Space), a.nsURI(a[j].Space)
		if ui != uj {
			return ui < uj
		}
		return a[i].Key < a[j].Key
	}
}

const (
	categoryDefaultNS = iota
	categoryPrefixedNS
	categoryPlainAttr
	categoryNamespacedAttr
)

func (a SortedAttrs) category(i int) int {
	attr := a[i]
	switch {
	case attr.Space == "" && attr.Key == "xmlns":
		return categoryDefaultNS
	case attr.Space == "xmlns":
		return categoryPrefixedNS
	case attr.Space == "":
		return categoryPlainAttr
	default:
		return categoryNamespacedAttr
	}
}

// nsURI resolves prefix to a namespace URI using the xmlns declarations
// present in this same attribute list; callers needing ancestor-inherited
// bindings must pre-merge them in.
func (a SortedAttrs) nsURI(prefix string) string {
	for _, attr := range a {
		if attr.Space == "xmlns" && attr.Key == prefix {
			return attr.Value
		}
	}
	return prefix
}
