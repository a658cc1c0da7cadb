package xmlsecgo

// SPDX-License-Identifier: MIT
//
// TransformChain applies an ordered list of Transforms to a Data value,
// ending in a terminal sink that streams canonical octets into the
// digest.

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/beevik/etree"
)

// Transform is a single step in a TransformChain.
type Transform interface {
	Algorithm() AlgorithmID
	Process(d Data, ctx *Context) (Data, error)
}

// sinkTransform is implemented by a Transform capable of writing its
// canonicalized output directly into a digest stream, avoiding an extra
// byte-slice round trip for the terminal step of a chain.
type sinkTransform interface {
	ProcessToSink(d Data, ctx *Context, w io.Writer) error
}

// transformParams carries the algorithm-specific children of a <Transform>
// element (XPath expression text, InclusiveNamespaces PrefixList, an
// XPath2Filter's ordered (expression, kind) pairs) into a TransformFactory.
type transformParams struct {
	// XPath is the single legacy "XPath" transform's expression text.
	XPath string

	// PrefixList is the InclusiveNamespaces PrefixList for exclusive C14N.
	PrefixList string

	// Filters is the ordered (expression, kind) list for XPath2Filter.
	Filters []XPath2FilterExpr
}

// TransformChain runs an ordered sequence of Transforms over a Data value,
// terminating with an implicit canonicalization step if the final result is
// still a node-set.
type TransformChain struct {
	transforms []Transform
}

// NewTransformChain builds a TransformChain from already-constructed
// Transform values, in application order.
func NewTransformChain(transforms []Transform) *TransformChain {
	return &TransformChain{transforms: append([]Transform{}, transforms...)}
}

// Len reports how many transforms are in the chain, which
// Context.SecureValidation's chain-length cap (default 5)
// checks against during unmarshal.
func (c *TransformChain) Len() int { return len(c.transforms) }

// Apply runs every transform over d, returning the final Data. When ctx
// selects secure validation the caller is expected to have already
// rejected an over-long chain at unmarshal time; Apply
// itself does not re-check the cap so it can also be used internally by
// signing, which builds chains programmatically.
func (c *TransformChain) Apply(d Data, ctx *Context) (Data, error) {
	cur := d
	for _, t := range c.transforms {
		next, err := t.Process(cur, ctx)
		if err != nil {
			return nil, newTransformError(string(t.Algorithm()), err)
		}
		cur = next
	}
	return cur, nil
}

// ApplyToDigestStream runs the chain and writes the final canonicalized
// octets into w, materializing an implicit canonicalization transform
// (C14N 1.0, or C14N 1.1 when ctx.UseC14N11 is set) when the chain's output
// is still a node-set. The returned AlgorithmID names the
// implicit canonicalization that fired, or "" when the chain's own
// transforms already produced octets; Reference.Digest records it so the
// marshaled Transforms sequence shows verifiers the same chain that was
// digested.
func (c *TransformChain) ApplyToDigestStream(d Data, ctx *Context, w io.Writer) (AlgorithmID, error) {
	cur := d
	for i, t := range c.transforms {
		if i == len(c.transforms)-1 {
			if sink, ok := t.(sinkTransform); ok {
				return "", sink.ProcessToSink(cur, ctx, w)
			}
		}
		next, err := t.Process(cur, ctx)
		if err != nil {
			return "", newTransformError(string(t.Algorithm()), err)
		}
		cur = next
	}

	if bs, ok := dataToBytes(cur); ok {
		_, err := w.Write(bs)
		return "", err
	}

	canon, err := implicitCanonicalizer(ctx)
	if err != nil {
		return "", err
	}
	out, err := canonicalizeData(canon, cur)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(out); err != nil {
		return "", err
	}
	return canon.Algorithm(), nil
}

// implicitCanonicalizerAlgorithm reports which algorithm the chain's
// implicit trailing canonicalization step uses.
func implicitCanonicalizerAlgorithm(ctx *Context) AlgorithmID {
	if ctx != nil && ctx.UseC14N11 {
		return CanonicalXML11AlgorithmID
	}
	return CanonicalXML10RecAlgorithmID
}

func implicitCanonicalizer(ctx *Context) (Canonicalizer, error) {
	uri := implicitCanonicalizerAlgorithm(ctx)
	return ctx.registry().LookupCanonicalizer(uri)
}

func canonicalizeData(c Canonicalizer, d Data) ([]byte, error) {
	switch v := d.(type) {
	case *subTreeData:
		return c.Canonicalize(v.root)
	case *nodeSetData:
		if len(v.nodes) == 0 {
			return nil, newTransformError(string(c.Algorithm()), newInvalidInputError("empty node-set"))
		}
		return c.Canonicalize(v.nodes[0])
	case *apacheData:
		if v.isNodeSet && v.element != nil {
			return c.Canonicalize(v.element)
		}
	}
	if bs, ok := dataToBytes(d); ok {
		return bs, nil
	}
	return nil, newInvalidInputError("transform chain produced no canonicalizable data")
}

// ---- builtin transforms ----

// envelopedSignatureTransform removes the nearest descendant <Signature>
// element from a node-set/subtree input, per the xmldsig enveloped-
// signature transform.
type envelopedSignatureTransform struct{}

func (envelopedSignatureTransform) Algorithm() AlgorithmID { return EnvelopedSignatureAlgorithmID }

func (envelopedSignatureTransform) Process(d Data, ctx *Context) (Data, error) {
	root := rootElementOf(d)
	if root == nil {
		return d, nil
	}
	cp := copyElement(root)
	removeFirstSignature(cp)
	return NewSubTreeData(cp, false), nil
}

// documentRootOf walks up from el to the outermost ancestor, since
// XPath2Filter and the legacy XPath transform evaluate their expressions
// against the owner document, not just the subtree a
// transform happens to be invoked on.
func documentRootOf(el *etree.Element) *etree.Element {
	cur := el
	for cur.Parent() != nil {
		cur = cur.Parent()
	}
	return cur
}

func rootElementOf(d Data) *etree.Element {
	switch v := d.(type) {
	case *subTreeData:
		return v.root
	case *nodeSetData:
		if len(v.nodes) > 0 {
			return v.nodes[0]
		}
	case *apacheData:
		if v.isNodeSet {
			return v.element
		}
	}
	return nil
}

func copyElement(el *etree.Element) *etree.Element {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	return doc.Root()
}

func removeFirstSignature(el *etree.Element) bool {
	for _, c := range el.ChildElements() {
		if c.Tag == SignatureTag && c.NamespaceURI() == SignatureNamespace {
			el.RemoveChild(c)
			return true
		}
	}
	for _, c := range el.ChildElements() {
		if removeFirstSignature(c) {
			return true
		}
	}
	return false
}

// base64Transform decodes an octet-stream input as base64 text (the
// xmldsig "base64" transform); used on Reference chains whose dereferenced
// content is itself base64-encoded (e.g. a CipherValue used as digest
// input).
type base64Transform struct{}

func (base64Transform) Algorithm() AlgorithmID { return Base64TransformAlgorithmID }

func (base64Transform) Process(d Data, ctx *Context) (Data, error) {
	bs, ok := dataToBytes(d)
	if !ok {
		return nil, newInvalidInputError("base64 transform requires octet-stream input")
	}
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(bytes.TrimSpace(bs))))
	n, err := base64.StdEncoding.Decode(decoded, bytes.TrimSpace(bs))
	if err != nil {
		return nil, newInvalidInputError("invalid base64 input: " + err.Error())
	}
	return NewOctetStreamData(decoded[:n], "", ""), nil
}

// xpathTransform evaluates a single legacy XPath expression against the
// input node-set, keeping matched nodes (and their ancestor chain, per the
// legacy XPath filter semantics: a node is kept if the expression is true
// relative to it).
type xpathTransform struct {
	expr string
}

func (t *xpathTransform) Algorithm() AlgorithmID { return XPathTransformAlgorithmID }

func (t *xpathTransform) Process(d Data, ctx *Context) (Data, error) {
	root := rootElementOf(d)
	if root == nil {
		return d, nil
	}
	filter, err := newLegacyXPathFilter(t.expr, documentRootOf(root))
	if err != nil {
		return nil, err
	}
	filtered := applyNodeFilter(root, filter)
	doc := etree.NewDocument()
	doc.SetRoot(filtered)
	return NewSubTreeData(filtered, false), nil
}

// xpath2FilterTransform wraps the XPath2Filter engine as a
// Transform: rather than pruning eagerly, it hands the filter to the
// trailing canonicalization step so level-parameterised pruning happens
// once, during serialization.
type xpath2FilterTransform struct {
	filter *XPath2Filter
}

func (t *xpath2FilterTransform) Algorithm() AlgorithmID { return XPath2FilterAlgorithmID }

func (t *xpath2FilterTransform) Process(d Data, ctx *Context) (Data, error) {
	root := rootElementOf(d)
	if root == nil {
		return d, nil
	}
	return newApacheDataFromElement(root), nil
}

func (t *xpath2FilterTransform) ProcessToSink(d Data, ctx *Context, w io.Writer) error {
	root := rootElementOf(d)
	if root == nil {
		return newInvalidInputError("xpath2filter transform requires node-set input")
	}
	if err := t.filter.BindDocument(documentRootOf(root)); err != nil {
		return err
	}
	canon, err := implicitCanonicalizer(ctx)
	if err != nil {
		return err
	}
	out, err := canon.WithNodeFilter(t.filter).Canonicalize(root)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// canonicalizationTransform wraps a registered Canonicalizer as a terminal
// Transform, used when a Reference/SignedInfo explicitly lists a
// canonicalization algorithm in its Transforms sequence instead of relying
// on the chain's implicit trailing step.
type canonicalizationTransform struct {
	c Canonicalizer
}

func (t *canonicalizationTransform) Algorithm() AlgorithmID { return t.c.Algorithm() }

func (t *canonicalizationTransform) Process(d Data, ctx *Context) (Data, error) {
	root := rootElementOf(d)
	if root == nil {
		if bs, ok := dataToBytes(d); ok {
			return NewOctetStreamData(bs, "", ""), nil
		}
		return nil, newInvalidInputError("canonicalization transform requires node-set or octet-stream input")
	}
	out, err := t.c.Canonicalize(root)
	if err != nil {
		return nil, err
	}
	return NewOctetStreamData(out, "", ""), nil
}

func (t *canonicalizationTransform) ProcessToSink(d Data, ctx *Context, w io.Writer) error {
	out, err := canonicalizeData(t.c, d)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func registerBuiltinTransforms(r *registryImpl) {
	_ = r.RegisterTransform(EnvelopedSignatureAlgorithmID, func(p *transformParams) (Transform, error) {
		return envelopedSignatureTransform{}, nil
	})
	_ = r.RegisterTransform(Base64TransformAlgorithmID, func(p *transformParams) (Transform, error) {
		return base64Transform{}, nil
	})
	_ = r.RegisterTransform(XPathTransformAlgorithmID, func(p *transformParams) (Transform, error) {
		return &xpathTransform{expr: p.XPath}, nil
	})
	_ = r.RegisterTransform(XPath2FilterAlgorithmID, func(p *transformParams) (Transform, error) {
		filter, err := NewXPath2Filter(p.Filters)
		if err != nil {
			return nil, err
		}
		return &xpath2FilterTransform{filter: filter}, nil
	})

	_ = r.RegisterTransform(CanonicalXML10ExclusiveAlgorithmID, func(p *transformParams) (Transform, error) {
		return &canonicalizationTransform{c: MakeC14N10ExclusiveCanonicalizerWithPrefixList(prefixListOf(p))}, nil
	})
	_ = r.RegisterTransform(CanonicalXML10ExclusiveWithCommentsAlgorithmID, func(p *transformParams) (Transform, error) {
		return &canonicalizationTransform{c: MakeC14N10ExclusiveWithCommentsCanonicalizerWithPrefixList(prefixListOf(p))}, nil
	})
	_ = r.RegisterTransform(CanonicalXML11AlgorithmID, func(p *transformParams) (Transform, error) {
		return &canonicalizationTransform{c: MakeC14N11Canonicalizer()}, nil
	})
	_ = r.RegisterTransform(CanonicalXML11WithCommentsAlgorithmID, func(p *transformParams) (Transform, error) {
		return &canonicalizationTransform{c: MakeC14N11WithCommentsCanonicalizer()}, nil
	})
	_ = r.RegisterTransform(CanonicalXML10RecAlgorithmID, func(p *transformParams) (Transform, error) {
		return &canonicalizationTransform{c: MakeC14N10RecCanonicalizer()}, nil
	})
	_ = r.RegisterTransform(CanonicalXML10WithCommentsAlgorithmID, func(p *transformParams) (Transform, error) {
		return &canonicalizationTransform{c: MakeC14N10WithCommentsCanonicalizer()}, nil
	})
}

func prefixListOf(p *transformParams) string {
	if p == nil {
		return ""
	}
	return p.PrefixList
}
