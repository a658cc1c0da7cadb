package xmlsecgo

// SPDX-License-Identifier: MIT
//
// SignedInfo: the canonicalization method, signature method, and ordered
// Reference list that XMLSignature signs and verifies as one unit.

import "github.com/beevik/etree"

// SignedInfo aggregates one SignedInfo's worth of state.
type SignedInfo struct {
	CanonicalizationMethod AlgorithmID
	SignatureMethod        AlgorithmID
	References             []*Reference
}

// NewSignedInfo builds an empty SignedInfo with the given canonicalization
// and signature methods.
func NewSignedInfo(canonMethod, sigMethod AlgorithmID) *SignedInfo {
	return &SignedInfo{CanonicalizationMethod: canonMethod, SignatureMethod: sigMethod}
}

// AddReference appends r to the SignedInfo's reference list, in document
// order.
func (si *SignedInfo) AddReference(r *Reference) { si.References = append(si.References, r) }

// DigestReferences digests every Reference.
func (si *SignedInfo) DigestReferences(ctx *Context) error {
	for _, r := range si.References {
		if err := r.Digest(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ValidateReferences validates every Reference, evaluating all of them
// regardless of individual failures so each failing reference can be
// reported.
// The returned bool is true only if every reference validated true; the
// first error encountered, if any, is also returned.
func (si *SignedInfo) ValidateReferences(ctx *Context) (bool, error) {
	allValid := true
	var firstErr error
	for _, r := range si.References {
		ok, err := r.Validate(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			allValid = false
			continue
		}
		if !ok {
			allValid = false
		}
	}
	return allValid, firstErr
}

// MarshalSignedInfo renders si as an unattached `<SignedInfo>` element.
func MarshalSignedInfo(si *SignedInfo) *etree.Element {
	el := newDSElement(SignedInfoTag)

	cm := newDSElement(CanonicalizationMethodTag)
	cm.CreateAttr(AlgorithmAttr, string(si.CanonicalizationMethod))
	el.AddChild(cm)

	sm := newDSElement(SignatureMethodTag)
	sm.CreateAttr(AlgorithmAttr, string(si.SignatureMethod))
	el.AddChild(sm)

	for _, r := range si.References {
		el.AddChild(MarshalReference(r))
	}
	return el
}

// UnmarshalSignedInfo parses a `<SignedInfo>` element, including every
// nested Reference's Transforms.
func UnmarshalSignedInfo(el *etree.Element, ctx *Context) (*SignedInfo, error) {
	if el == nil {
		return nil, newMarshalError("missing SignedInfo element", nil)
	}
	si := &SignedInfo{}

	cm := el.FindElement(DefaultPrefix + ":" + CanonicalizationMethodTag)
	if cm == nil {
		return nil, newMarshalError("SignedInfo missing CanonicalizationMethod", nil)
	}
	si.CanonicalizationMethod = AlgorithmID(cm.SelectAttrValue(AlgorithmAttr, ""))

	sm := el.FindElement(DefaultPrefix + ":" + SignatureMethodTag)
	if sm == nil {
		return nil, newMarshalError("SignedInfo missing SignatureMethod", nil)
	}
	si.SignatureMethod = AlgorithmID(sm.SelectAttrValue(AlgorithmAttr, ""))

	for _, refEl := range el.FindElements(DefaultPrefix + ":" + ReferenceTag) {
		ref, err := UnmarshalReference(refEl, ctx)
		if err != nil {
			return nil, err
		}
		si.References = append(si.References, ref)
	}
	if len(si.References) == 0 {
		return nil, newMarshalError("SignedInfo has no References", nil)
	}
	return si, nil
}

// MarshalReference renders r as an unattached `<Reference>` element, in
// schema child order: Transforms?, DigestMethod, DigestValue.
func MarshalReference(r *Reference) *etree.Element {
	el := newDSElement(ReferenceTag)
	if r.Id != "" {
		el.CreateAttr(DefaultIdAttr, r.Id)
	}
	if r.URI != "" || r.Type == "" {
		el.CreateAttr(URIAttr, r.URI)
	}
	if r.Type != "" {
		el.CreateAttr(TypeAttr, r.Type)
	}

	if (r.Transforms != nil && r.Transforms.Len() > 0) || r.implicitCanon != "" {
		tsEl := MarshalTransforms(r.Transforms)
		if r.implicitCanon != "" {
			tEl := newDSElement(TransformTag)
			tEl.CreateAttr(AlgorithmAttr, string(r.implicitCanon))
			tsEl.AddChild(tEl)
		}
		el.AddChild(tsEl)
	}

	dm := newDSElement(DigestMethodTag)
	dm.CreateAttr(AlgorithmAttr, string(r.DigestMethod))
	el.AddChild(dm)

	dv := newDSElement(DigestValueTag)
	dv.SetText(r.DigestValueBase64())
	el.AddChild(dv)

	return el
}

// UnmarshalReference parses a `<Reference>` element, rejecting an
// over-long transform chain or an MD5 DigestMethod under secure
// validation.
func UnmarshalReference(el *etree.Element, ctx *Context) (*Reference, error) {
	if el == nil {
		return nil, newMarshalError("nil Reference element", nil)
	}
	uri := el.SelectAttrValue(URIAttr, "")
	if err := validateURISyntax(uri); err != nil {
		return nil, newMarshalError("invalid Reference URI", err)
	}

	digestMethodEl := el.FindElement(DefaultPrefix + ":" + DigestMethodTag)
	if digestMethodEl == nil {
		return nil, newMarshalError("Reference missing DigestMethod", nil)
	}
	digestMethod := AlgorithmID(digestMethodEl.SelectAttrValue(AlgorithmAttr, ""))
	if ctx != nil {
		if ctx.SecureValidation && ctx.registry().DigestDenied(digestMethod) {
			return nil, newMarshalError("DigestMethod forbidden under secure validation", nil)
		}
		if _, err := ctx.registry().LookupDigest(digestMethod); err != nil {
			return nil, newMarshalError("Reference DigestMethod rejected", err)
		}
	}

	transforms, err := UnmarshalTransforms(el.FindElement(DefaultPrefix+":"+TransformsTag), ctx)
	if err != nil {
		return nil, err
	}

	r := NewReference(uri, digestMethod, transforms)
	r.Id = el.SelectAttrValue(DefaultIdAttr, "")
	r.Type = el.SelectAttrValue(TypeAttr, "")

	digestValueEl := el.FindElement(DefaultPrefix + ":" + DigestValueTag)
	if digestValueEl == nil {
		return nil, newMarshalError("Reference missing DigestValue", nil)
	}
	if err := r.setDigestValueFromBase64(digestValueEl.Text()); err != nil {
		return nil, err
	}

	return r, nil
}
