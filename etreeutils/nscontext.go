// SPDX-License-Identifier: Apache-2.0
// This file is adapted from the github.com/russellhaering/goxmldsig project.
package etreeutils

import "github.com/beevik/etree"

// ElementKeeper is implemented by unmarshal targets that want a reference
// back to the etree.Element they were populated from (NSUnmarshalElement
// calls SetUnderlyingElement after a successful encoding/xml.Unmarshal).
type ElementKeeper interface {
	SetUnderlyingElement(el *etree.Element)
}

// NSContext carries the namespace prefix bindings visible at some point in
// a document, with nearest-declaration-wins semantics.
type NSContext struct {
	Prefixes map[string]string // prefix ("" for default) -> namespace URI
}

// EmptyNSContext is a context with no bindings.
var EmptyNSContext = NSContext{Prefixes: map[string]string{}}

// NSBuildParentContext walks el's ancestor chain (not including el itself)
// and returns the namespace bindings visible to el, nearest ancestor
// winning over farther ones.
func NSBuildParentContext(el *etree.Element) (NSContext, error) {
	ctx := NSContext{Prefixes: map[string]string{}}
	var chain []*etree.Element
	for p := el.Parent(); p != nil; p = p.Parent() {
		chain = append(chain, p)
	}
	// Farthest ancestor first, so nearer ancestors overwrite.
	for i := len(chain) - 1; i >= 0; i-- {
		mergeDeclaredNS(&ctx, chain[i])
	}
	return ctx, nil
}

// Subcontext returns a copy of ctx with el's own namespace declarations
// merged in, el's declarations taking precedence.
func (ctx NSContext) Subcontext(el *etree.Element) (NSContext, error) {
	next := NSContext{Prefixes: map[string]string{}}
	for k, v := range ctx.Prefixes {
		next.Prefixes[k] = v
	}
	mergeDeclaredNS(&next, el)
	return next, nil
}

func mergeDeclaredNS(ctx *NSContext, el *etree.Element) {
	for _, attr := range el.Attr {
		switch {
		case attr.Space == "" && attr.Key == "xmlns":
			ctx.Prefixes[""] = attr.Value
		case attr.Space == "xmlns":
			ctx.Prefixes[attr.Key] = attr.Value
		}
	}
}

// NSDetatch returns a standalone copy of el carrying, as explicit xmlns
// attributes, every binding from ctx that el itself does not already
// declare (declarations on el's descendants are not consulted). The result can be serialized and reparsed (or
// unmarshaled via encoding/xml) without losing prefix bindings it inherited
// from its original document position.
func NSDetatch(ctx NSContext, el *etree.Element) (*etree.Element, error) {
	detached := el.Copy()
	declared := map[string]bool{}
	for _, attr := range detached.Attr {
		if attr.Space == "" && attr.Key == "xmlns" {
			declared[""] = true
		} else if attr.Space == "xmlns" {
			declared[attr.Key] = true
		}
	}
	for prefix, uri := range ctx.Prefixes {
		if declared[prefix] {
			continue
		}
		if prefix == "" {
			detached.CreateAttr("xmlns", uri)
		} else {
			detached.CreateAttr("xmlns:"+prefix, uri)
		}
	}
	return detached, nil
}
