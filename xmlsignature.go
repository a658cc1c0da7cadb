package xmlsecgo

// SPDX-License-Identifier: MIT
//
// XMLSignature: the sign/verify flow aggregating a SignedInfo and a
// SignatureValue. SignedInfo is canonicalized in the namespace context of
// its final position in the document (NSBuildParentContext, Subcontext,
// NSDetatch); Verify evaluates every Reference regardless of individual
// failures so diagnostics can report each one.

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"

	"github.com/beevik/etree"

	"github.com/go-xmlsec/xmlsecgo/etreeutils"
)

// XMLSignature is one `<Signature>` element's worth of state: a SignedInfo,
// the resulting SignatureValue, and an optional KeyInfo.
type XMLSignature struct {
	SignedInfo     *SignedInfo
	SignatureValue []byte
	KeyInfo        *KeyInfo
	Id             string
}

// NewXMLSignature builds an XMLSignature over si, with no SignatureValue
// yet.
func NewXMLSignature(si *SignedInfo) *XMLSignature {
	return &XMLSignature{SignedInfo: si}
}

type signatureMethodInfo struct {
	Hash    crypto.Hash
	KeyKind string // "RSA", "ECDSA", "HMAC"
}

// signatureMethodIdentifiers maps SignatureMethod URIs to their hash and
// key kind.
var signatureMethodIdentifiers = map[AlgorithmID]signatureMethodInfo{
	RSASHA1SignatureMethod:   {crypto.SHA1, "RSA"},
	RSASHA256SignatureMethod: {crypto.SHA256, "RSA"},
	RSASHA384SignatureMethod: {crypto.SHA384, "RSA"},
	RSASHA512SignatureMethod: {crypto.SHA512, "RSA"},

	ECDSASHA1SignatureMethod:   {crypto.SHA1, "ECDSA"},
	ECDSASHA256SignatureMethod: {crypto.SHA256, "ECDSA"},
	ECDSASHA384SignatureMethod: {crypto.SHA384, "ECDSA"},
	ECDSASHA512SignatureMethod: {crypto.SHA512, "ECDSA"},

	HMACSHA1SignatureMethod:   {crypto.SHA1, "HMAC"},
	HMACSHA256SignatureMethod: {crypto.SHA256, "HMAC"},
}

// Sign implements the sign flow: digest every Reference, attach
// the Signature scaffold under parent, canonicalize SignedInfo in the
// namespace context of its final position, and sign the result.
// References whose SourceDocument is unset default to doc (the common
// enveloped-signature case: the element being signed lives in doc).
func (sig *XMLSignature) Sign(ctx *Context, privateKey crypto.PrivateKey, doc *etree.Document, parent *etree.Element) (*etree.Element, error) {
	if sig.SignedInfo == nil || len(sig.SignedInfo.References) == 0 {
		return nil, newInvalidStateError("XMLSignature has no SignedInfo/References to sign")
	}
	for _, r := range sig.SignedInfo.References {
		if r.SourceDocument == nil {
			r.SourceDocument = doc
		}
	}
	if err := sig.SignedInfo.DigestReferences(ctx); err != nil {
		return nil, err
	}

	sigEl := newDSElement(SignatureTag)
	declareNamespace(sigEl, DefaultPrefix, SignatureNamespace)
	if sig.Id == "" {
		sig.Id = generateID()
	}
	sigEl.CreateAttr(DefaultIdAttr, sig.Id)

	siEl := MarshalSignedInfo(sig.SignedInfo)
	sigEl.AddChild(siEl)
	parent.AddChild(sigEl)

	canon, err := ctx.registry().LookupCanonicalizer(sig.SignedInfo.CanonicalizationMethod)
	if err != nil {
		return nil, err
	}
	canonicalBytes, err := canonicalizeSignedInfoElement(canon, siEl)
	if err != nil {
		return nil, err
	}

	sigValue, err := signBytes(sig.SignedInfo.SignatureMethod, privateKey, canonicalBytes)
	if err != nil {
		return nil, newSignatureError("failed to sign SignedInfo", err)
	}
	sig.SignatureValue = sigValue

	sv := newDSElement(SignatureValueTag)
	sv.SetText(base64.StdEncoding.EncodeToString(sigValue))
	sigEl.AddChild(sv)

	if sig.KeyInfo != nil {
		sigEl.AddChild(MarshalKeyInfo(sig.KeyInfo))
	}

	return sigEl, nil
}

// Verify implements the verify flow: parse SignedInfo and every
// Reference from sigEl, canonicalize SignedInfo in its actual namespace
// context, verify the signature bytes, then validate every Reference
// without short-circuiting on the first failure. publicKey may be nil if
// ctx.KeySelector can resolve one from the parsed KeyInfo.
func (sig *XMLSignature) Verify(ctx *Context, publicKey crypto.PublicKey, doc *etree.Document, sigEl *etree.Element) (bool, error) {
	siEl := sigEl.FindElement(DefaultPrefix + ":" + SignedInfoTag)
	si, err := UnmarshalSignedInfo(siEl, ctx)
	if err != nil {
		return false, err
	}
	sig.SignedInfo = si
	sig.Id = sigEl.SelectAttrValue(DefaultIdAttr, "")
	for _, r := range si.References {
		r.SourceDocument = doc
	}

	svEl := sigEl.FindElement(DefaultPrefix + ":" + SignatureValueTag)
	if svEl == nil {
		return false, newMarshalError("Signature missing SignatureValue", nil)
	}
	sigValue, err := base64.StdEncoding.DecodeString(svEl.Text())
	if err != nil {
		return false, newMarshalError("invalid SignatureValue base64", err)
	}
	sig.SignatureValue = sigValue

	if kiEl := sigEl.FindElement(DefaultPrefix + ":" + KeyInfoTag); kiEl != nil {
		ki, err := UnmarshalKeyInfo(kiEl, ctx)
		if err != nil {
			return false, err
		}
		sig.KeyInfo = ki
	}

	if publicKey == nil {
		if ctx.KeySelector == nil {
			return false, newKeyResolutionError("no public key given and no KeySelector configured", nil)
		}
		resolved, err := ctx.KeySelector.SelectVerificationKey(sig.KeyInfo)
		if err != nil {
			return false, newKeyResolutionError("KeySelector failed to resolve a verification key", err)
		}
		publicKey = resolved
	}

	canon, err := ctx.registry().LookupCanonicalizer(si.CanonicalizationMethod)
	if err != nil {
		return false, err
	}
	canonicalBytes, err := canonicalizeSignedInfoElement(canon, siEl)
	if err != nil {
		return false, err
	}

	sigOK, err := verifyBytes(si.SignatureMethod, publicKey, canonicalBytes, sigValue)
	if err != nil {
		return false, newSignatureError("signature verification failed", err)
	}

	refsOK, err := si.ValidateReferences(ctx)
	if err != nil {
		return false, err
	}

	return sigOK && refsOK, nil
}

// canonicalizeSignedInfoElement canonicalizes siEl within the namespace
// context of its actual position in the document: every xmlns binding
// visible on its ancestor chain is made explicit on a detached copy before
// canonicalizing, so prefixes used inside SignedInfo (e.g. on a
// CanonicalizationMethod's InclusiveNamespaces) resolve identically
// in-place and standalone.
func canonicalizeSignedInfoElement(canon Canonicalizer, siEl *etree.Element) ([]byte, error) {
	parentCtx, err := etreeutils.NSBuildParentContext(siEl)
	if err != nil {
		return nil, newSignatureError("failed to build namespace context", err)
	}
	subCtx, err := parentCtx.Subcontext(siEl)
	if err != nil {
		return nil, newSignatureError("failed to build namespace subcontext", err)
	}
	detached, err := etreeutils.NSDetatch(subCtx, siEl)
	if err != nil {
		return nil, newSignatureError("failed to detach SignedInfo", err)
	}
	return canon.Canonicalize(detached)
}

func signBytes(method AlgorithmID, privateKey crypto.PrivateKey, data []byte) ([]byte, error) {
	info, ok := signatureMethodIdentifiers[method]
	if !ok {
		return nil, newAlgorithmUnsupportedError(string(method), nil)
	}
	switch info.KeyKind {
	case "RSA":
		key, ok := privateKey.(*rsa.PrivateKey)
		if !ok {
			return nil, newSignatureError("signature method requires an RSA private key", nil)
		}
		h := info.Hash.New()
		h.Write(data)
		return rsa.SignPKCS1v15(rand.Reader, key, info.Hash, h.Sum(nil))
	case "ECDSA":
		key, ok := privateKey.(*ecdsa.PrivateKey)
		if !ok {
			return nil, newSignatureError("signature method requires an ECDSA private key", nil)
		}
		h := info.Hash.New()
		h.Write(data)
		return ecdsa.SignASN1(rand.Reader, key, h.Sum(nil))
	case "HMAC":
		key, ok := privateKey.([]byte)
		if !ok {
			return nil, newSignatureError("signature method requires an HMAC secret key", nil)
		}
		mac := hmac.New(info.Hash.New, key)
		mac.Write(data)
		return mac.Sum(nil), nil
	default:
		return nil, newAlgorithmUnsupportedError(string(method), nil)
	}
}

func verifyBytes(method AlgorithmID, publicKey crypto.PublicKey, data, signature []byte) (bool, error) {
	info, ok := signatureMethodIdentifiers[method]
	if !ok {
		return false, newAlgorithmUnsupportedError(string(method), nil)
	}
	switch info.KeyKind {
	case "RSA":
		key, ok := publicKey.(*rsa.PublicKey)
		if !ok {
			return false, newSignatureError("signature method requires an RSA public key", nil)
		}
		h := info.Hash.New()
		h.Write(data)
		return rsa.VerifyPKCS1v15(key, info.Hash, h.Sum(nil), signature) == nil, nil
	case "ECDSA":
		key, ok := publicKey.(*ecdsa.PublicKey)
		if !ok {
			return false, newSignatureError("signature method requires an ECDSA public key", nil)
		}
		h := info.Hash.New()
		h.Write(data)
		return ecdsa.VerifyASN1(key, h.Sum(nil), signature), nil
	case "HMAC":
		key, ok := publicKey.([]byte)
		if !ok {
			return false, newSignatureError("signature method requires an HMAC secret key", nil)
		}
		mac := hmac.New(info.Hash.New, key)
		mac.Write(data)
		return hmac.Equal(mac.Sum(nil), signature), nil
	default:
		return false, newAlgorithmUnsupportedError(string(method), nil)
	}
}
