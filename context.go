package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Context carries per-operation configuration: reference caching,
// canonicalization selection, secure validation, dereferencer/key-selector
// overrides, and the logging seam.

import "net/http"

// Context is passed to every Reference/TransformChain/XMLSignature
// operation. Zero value is a usable default (no caching, C14N 1.0, no
// secure validation, default dereferencer, no key selector).
type Context struct {
	// CacheReference retains dereferenced data and the digest input stream
	// on references.
	CacheReference bool

	// UseC14N11 materializes an implicit C14N 1.1 transform during sign
	// instead of C14N 1.0.
	UseC14N11 bool

	// SecureValidation enforces the transform-count cap and the digest
	// deny-list. Id attributes are not pre-registered; no Id-attribute
	// check depends on this flag.
	SecureValidation bool

	// URIDereferencer overrides the default dereferencer when set.
	URIDereferencer URIDereferencer

	// KeySelector selects a verification/decryption key from KeyInfo.
	KeySelector KeySelector

	// IdAttribute is the attribute name treated as a DOM ID for
	// same-document URI resolution. Defaults to "Id" when empty.
	IdAttribute string

	// HTTPClient is used to dereference absolute URIs. Defaults to
	// http.DefaultClient when nil.
	HTTPClient *http.Client

	// Registry is the AlgorithmRegistry consulted for primitives. Defaults
	// to GlobalRegistry() when nil.
	Registry Registry

	// Logf receives non-fatal diagnostics (e.g. a KeyInfo resolver that
	// failed and fell through to the next one). Defaults to a no-op; the
	// engine never imports a logging library itself.
	Logf func(format string, args ...interface{})

	// payload is the detached-signature payload used when a Reference's
	// URI is nil.
	payload Data
}

func (c *Context) logf(format string, args ...interface{}) {
	if c == nil || c.Logf == nil {
		return
	}
	c.Logf(format, args...)
}

func (c *Context) idAttribute() string {
	if c == nil || c.IdAttribute == "" {
		return DefaultIdAttr
	}
	return c.IdAttribute
}

func (c *Context) registry() Registry {
	if c == nil || c.Registry == nil {
		return GlobalRegistry()
	}
	return c.Registry
}

func (c *Context) httpClient() *http.Client {
	if c == nil || c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

// WithPayload returns a shallow copy of ctx carrying payload as the
// detached-signature Data returned when a Reference's URI is nil.
func (c *Context) WithPayload(payload Data) *Context {
	cp := *c
	cp.payload = payload
	return &cp
}
