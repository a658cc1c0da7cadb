package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Reference: one signed item — a URI, an ordered transform chain, a
// digest method, and the digest/validate lifecycle with its cache
// policy.

import (
	"bytes"
	"encoding/base64"
	"errors"

	"github.com/beevik/etree"
)

// Reference is one `<Reference>` entry in a SignedInfo: a URI to
// dereference, an ordered transform chain, a digest method, and (once
// digested or validated) a digest value.
type Reference struct {
	Id   string
	URI  string
	Type string
	Here string // attribute name carrying the URI, for here() (unused by this engine's own marshaler, which always uses "URI")

	DigestMethod AlgorithmID
	Transforms   *TransformChain

	// SourceDocument is the document a same-document ("" or "#id") URI
	// resolves against. Bound by XMLSignature.Sign/Verify from the
	// document the Signature element lives in.
	SourceDocument *etree.Document

	// implicitCanon records that TransformChain materialized an implicit
	// canonicalization step during sign, which must also appear when the
	// Reference is marshaled.
	implicitCanon AlgorithmID

	digestValue           []byte
	calculatedDigestValue []byte

	validated   bool
	validResult bool

	derefData        Data
	digestInputBytes []byte
}

// NewReference builds a Reference over uri with the given digest method and
// transform chain. transforms may be nil (no explicit transforms; the
// implicit trailing canonicalization still applies).
func NewReference(uri string, digestMethod AlgorithmID, transforms *TransformChain) *Reference {
	if transforms == nil {
		transforms = NewTransformChain(nil)
	}
	return &Reference{URI: uri, DigestMethod: digestMethod, Transforms: transforms}
}

// Digested reports whether DigestValue has been computed.
func (r *Reference) Digested() bool { return len(r.digestValue) > 0 }

// DigestValue returns the raw digest bytes computed by Digest, or nil.
func (r *Reference) DigestValue() []byte { return r.digestValue }

// CalculatedDigestValue returns the digest computed during Validate, or nil
// before Validate has run.
func (r *Reference) CalculatedDigestValue() []byte { return r.calculatedDigestValue }

// Digest dereferences the URI, runs the transform chain into the digest
// primitive named by DigestMethod, and stores the result in
// DigestValue.
func (r *Reference) Digest(ctx *Context) error {
	digestBytes, err := r.computeDigest(ctx)
	if err != nil {
		return newSignatureError("reference digest failed", err)
	}
	r.digestValue = digestBytes
	return nil
}

// Validate compares a freshly computed digest to the stored DigestValue. It
// is idempotent: once called, the cached boolean result is returned on
// every subsequent call without re-dereferencing.
func (r *Reference) Validate(ctx *Context) (bool, error) {
	if r.validated {
		return r.validResult, nil
	}
	calc, err := r.computeDigest(ctx)
	if err != nil {
		return false, newSignatureError("reference validation failed", err)
	}
	r.calculatedDigestValue = calc
	r.validResult = bytes.Equal(calc, r.digestValue)
	r.validated = true
	return r.validResult, nil
}

func (r *Reference) computeDigest(ctx *Context) ([]byte, error) {
	suite, err := ctx.registry().LookupDigest(r.DigestMethod)
	if err != nil {
		return nil, err
	}

	data, err := r.dereference(ctx)
	if err != nil {
		return nil, err
	}

	var sink bytes.Buffer
	implicit, err := r.Transforms.ApplyToDigestStream(data, ctx, &sink)
	if err != nil {
		return nil, err
	}
	if implicit != "" && ctx != nil && ctx.UseC14N11 {
		r.implicitCanon = implicit
	}

	if ctx.CacheReference {
		r.derefData = data
		r.digestInputBytes = append([]byte{}, sink.Bytes()...)
	}

	if !suite.Hash.Available() {
		return nil, newDigestError(errors.New("hash primitive not linked into the binary"))
	}
	h := suite.Hash.New()
	h.Write(sink.Bytes())
	return h.Sum(nil), nil
}

func (r *Reference) dereference(ctx *Context) (Data, error) {
	return DefaultDereferencer.Dereference(RefInfo{URI: r.URI, Doc: r.SourceDocument}, ctx)
}

// DereferencedData returns the Data retained from the last Digest/Validate
// call when Context.CacheReference was true; nil otherwise.
func (r *Reference) DereferencedData() Data { return r.derefData }

// DigestInputStream replays the exact octets fed to the digest primitive
// during the last Digest/Validate call, when Context.CacheReference was
// true; nil otherwise.
func (r *Reference) DigestInputStream() *bytes.Reader {
	if r.digestInputBytes == nil {
		return nil
	}
	return bytes.NewReader(r.digestInputBytes)
}

// DigestValueBase64 renders DigestValue as the base64 text stored in a
// marshaled `<DigestValue>` element.
func (r *Reference) DigestValueBase64() string {
	return base64.StdEncoding.EncodeToString(r.digestValue)
}

// setDigestValueFromBase64 is used by UnmarshalReference to populate
// digestValue from parsed element text.
func (r *Reference) setDigestValueFromBase64(s string) error {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return newMarshalError("invalid DigestValue base64", err)
	}
	r.digestValue = decoded
	return nil
}

// Equal implements structural equality over {digestMethod, id, uri, type,
// allTransforms, digestValue}.
func (r *Reference) Equal(other *Reference) bool {
	if other == nil {
		return false
	}
	if r.DigestMethod != other.DigestMethod || r.Id != other.Id || r.URI != other.URI || r.Type != other.Type {
		return false
	}
	if !bytes.Equal(r.digestValue, other.digestValue) {
		return false
	}
	if r.Transforms.Len() != other.Transforms.Len() {
		return false
	}
	for i, t := range r.Transforms.transforms {
		if t.Algorithm() != other.Transforms.transforms[i].Algorithm() {
			return false
		}
	}
	return true
}
