package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Marshal/Unmarshal pairs for the encryption-side element tree:
// EncryptionMethod, KeyInfo, CipherData, ReferenceList, EncryptedData,
// EncryptedKey, and the shared Transforms codec used by both
// CipherReference and Reference. Children carry the namespace prefix; only
// the root element declares xmlns.

import (
	"encoding/base64"
	"encoding/xml"
	"strconv"

	"github.com/beevik/etree"

	"github.com/go-xmlsec/xmlsecgo/etreeutils"
)

func newEncElement(tag string) *etree.Element {
	el := etree.NewElement(tag)
	el.Space = EncryptionPrefix
	return el
}

func newDSElement(tag string) *etree.Element {
	el := etree.NewElement(tag)
	el.Space = DefaultPrefix
	return el
}

func declareNamespace(el *etree.Element, prefix, uri string) {
	el.CreateAttr("xmlns:"+prefix, uri)
}

// ---- EncryptionMethod ----

func MarshalEncryptionMethod(em *EncryptionMethod) *etree.Element {
	el := newEncElement(EncryptionMethodTag)
	el.CreateAttr(AlgorithmAttr, string(em.Algorithm))
	if em.KeySize > 0 {
		ks := newEncElement("KeySize")
		ks.SetText(itoa(em.KeySize))
		el.AddChild(ks)
	}
	if len(em.OAEPParams) > 0 {
		op := newEncElement(OAEPParamsTag)
		op.SetText(base64.StdEncoding.EncodeToString(em.OAEPParams))
		el.AddChild(op)
	}
	if em.DigestAlgorithm != "" {
		dm := newDSElement(DigestMethodTag)
		dm.CreateAttr(AlgorithmAttr, string(em.DigestAlgorithm))
		el.AddChild(dm)
	}
	if em.MGF != "" {
		el.CreateAttr(MGFAttr, string(em.MGF))
	}
	return el
}

func UnmarshalEncryptionMethod(el *etree.Element) (*EncryptionMethod, error) {
	if el == nil {
		return nil, nil
	}
	alg := el.SelectAttrValue(AlgorithmAttr, "")
	if alg == "" {
		return nil, newMarshalError("EncryptionMethod missing Algorithm", nil)
	}
	em := NewEncryptionMethod(AlgorithmID(alg))
	if ks := el.FindElement(EncryptionPrefix + ":KeySize"); ks != nil {
		em.KeySize = atoi(ks.Text())
	}
	if op := el.FindElement(EncryptionPrefix + ":" + OAEPParamsTag); op != nil {
		decoded, err := base64.StdEncoding.DecodeString(op.Text())
		if err != nil {
			return nil, newMarshalError("invalid OAEPparams base64", err)
		}
		em.OAEPParams = decoded
	}
	if dm := el.FindElement(DefaultPrefix + ":" + DigestMethodTag); dm != nil {
		em.DigestAlgorithm = AlgorithmID(dm.SelectAttrValue(AlgorithmAttr, ""))
	}
	if mgf := el.SelectAttrValue(MGFAttr, ""); mgf != "" {
		em.MGF = AlgorithmID(mgf)
	}
	return em, nil
}

// ---- KeyInfo ----

// x509IssuerSerialXML is the encoding/xml shape of <X509IssuerSerial>,
// decoded via etreeutils.NSUnmarshalElement so prefix bindings inherited
// from the element's document position survive the standalone reparse.
type x509IssuerSerialXML struct {
	XMLName      xml.Name `xml:"X509IssuerSerial"`
	IssuerName   string   `xml:"X509IssuerName"`
	SerialNumber string   `xml:"X509SerialNumber"`
}

func MarshalKeyInfo(ki *KeyInfo) *etree.Element {
	el := newDSElement(KeyInfoTag)
	if ki.Id != "" {
		el.CreateAttr(DefaultIdAttr, ki.Id)
	}
	if ki.KeyName != "" {
		kn := newDSElement("KeyName")
		kn.SetText(ki.KeyName)
		el.AddChild(kn)
	}
	if len(ki.X509Certificates) > 0 || ki.X509IssuerSerial != nil {
		x509Data := newDSElement(X509DataTag)
		for _, der := range ki.X509Certificates {
			cert := newDSElement(X509CertificateTag)
			cert.SetText(base64.StdEncoding.EncodeToString(der))
			x509Data.AddChild(cert)
		}
		if ki.X509IssuerSerial != nil {
			is := newDSElement(X509IssuerSerialTag)
			name := newDSElement(X509IssuerNameTag)
			name.SetText(ki.X509IssuerSerial.IssuerName)
			serial := newDSElement(X509SerialNumberTag)
			serial.SetText(ki.X509IssuerSerial.SerialNumber)
			is.AddChild(name)
			is.AddChild(serial)
			x509Data.AddChild(is)
		}
		el.AddChild(x509Data)
	}
	for _, ek := range ki.EncryptedKeys() {
		el.AddChild(MarshalEncryptedKey(ek))
	}
	return el
}

func UnmarshalKeyInfo(el *etree.Element, ctx *Context) (*KeyInfo, error) {
	if el == nil {
		return nil, nil
	}
	ki := NewKeyInfo()
	ki.Id = el.SelectAttrValue(DefaultIdAttr, "")
	if kn := el.FindElement(DefaultPrefix + ":KeyName"); kn != nil {
		ki.KeyName = kn.Text()
	}
	if x509Data := el.FindElement(DefaultPrefix + ":" + X509DataTag); x509Data != nil {
		for _, cert := range x509Data.FindElements(DefaultPrefix + ":" + X509CertificateTag) {
			der, err := base64.StdEncoding.DecodeString(cert.Text())
			if err != nil {
				return nil, newMarshalError("invalid X509Certificate base64", err)
			}
			ki.X509Certificates = append(ki.X509Certificates, der)
		}
		if is := x509Data.FindElement(DefaultPrefix + ":" + X509IssuerSerialTag); is != nil {
			parentCtx, err := etreeutils.NSBuildParentContext(is)
			if err != nil {
				return nil, newMarshalError("failed to build X509IssuerSerial namespace context", err)
			}
			var iss x509IssuerSerialXML
			if err := etreeutils.NSUnmarshalElement(parentCtx, is, &iss); err != nil {
				return nil, newMarshalError("invalid X509IssuerSerial", err)
			}
			ki.X509IssuerSerial = &X509IssuerSerial{
				IssuerName:   iss.IssuerName,
				SerialNumber: iss.SerialNumber,
			}
		}
	}
	for _, ekEl := range el.FindElements(EncryptionPrefix + ":" + EncryptedKeyTag) {
		ek, err := UnmarshalEncryptedKey(ekEl, ctx)
		if err != nil {
			return nil, err
		}
		ki.AddEncryptedKey(ek)
	}
	return ki, nil
}

// ---- CipherData ----

func MarshalCipherData(cd *CipherData) *etree.Element {
	el := newEncElement(CipherDataTag)
	switch cd.Kind() {
	case CipherDataValueKind:
		v, _ := cd.Value()
		cv := newEncElement(CipherValueTag)
		cv.SetText(base64.StdEncoding.EncodeToString(v))
		el.AddChild(cv)
	case CipherDataReferenceKind:
		uri, transforms, _ := cd.Reference()
		cr := newEncElement(CipherReferenceTag)
		cr.CreateAttr(URIAttr, uri)
		if transforms != nil && transforms.Len() > 0 {
			cr.AddChild(MarshalTransforms(transforms))
		}
		el.AddChild(cr)
	}
	return el
}

func UnmarshalCipherData(el *etree.Element, ctx *Context) (*CipherData, error) {
	if el == nil {
		return nil, newMarshalError("EncryptedType missing required CipherData", nil)
	}
	if cv := el.FindElement(EncryptionPrefix + ":" + CipherValueTag); cv != nil {
		decoded, err := base64.StdEncoding.DecodeString(cv.Text())
		if err != nil {
			return nil, newMarshalError("invalid CipherValue base64", err)
		}
		return NewCipherDataValue(decoded), nil
	}
	if cr := el.FindElement(EncryptionPrefix + ":" + CipherReferenceTag); cr != nil {
		uri := cr.SelectAttrValue(URIAttr, "")
		if err := validateURISyntax(uri); err != nil {
			return nil, newMarshalError("invalid CipherReference URI", err)
		}
		var transforms *TransformChain
		if tEl := cr.FindElement(DefaultPrefix + ":" + TransformsTag); tEl != nil {
			tc, err := UnmarshalTransforms(tEl, ctx)
			if err != nil {
				return nil, err
			}
			transforms = tc
		} else {
			transforms = NewTransformChain(nil)
		}
		return NewCipherDataReference(uri, transforms), nil
	}
	return nil, newMarshalError("CipherData has neither CipherValue nor CipherReference", nil)
}

// ---- ReferenceList ----

func MarshalReferenceList(rl *ReferenceList) *etree.Element {
	el := newEncElement(ReferenceListTag)
	tag := DataReferenceTag
	if rl.Kind() == ReferenceListKey {
		tag = KeyReferenceTag
	}
	for _, uri := range rl.URIs() {
		ref := newEncElement(tag)
		ref.CreateAttr(URIAttr, uri)
		el.AddChild(ref)
	}
	return el
}

func UnmarshalReferenceList(el *etree.Element) (*ReferenceList, error) {
	if el == nil {
		return nil, nil
	}
	rl := NewReferenceList()
	for _, dr := range el.FindElements(EncryptionPrefix + ":" + DataReferenceTag) {
		if err := rl.AddDataReference(dr.SelectAttrValue(URIAttr, "")); err != nil {
			return nil, newMarshalError("invalid ReferenceList", err)
		}
	}
	for _, kr := range el.FindElements(EncryptionPrefix + ":" + KeyReferenceTag) {
		if err := rl.AddKeyReference(kr.SelectAttrValue(URIAttr, "")); err != nil {
			return nil, newMarshalError("invalid ReferenceList", err)
		}
	}
	return rl, nil
}

// ---- EncryptedType (shared) ----

func marshalEncryptedTypeInto(el *etree.Element, et *EncryptedType) {
	if et.Id != "" {
		el.CreateAttr(DefaultIdAttr, et.Id)
	}
	if et.Type != "" {
		el.CreateAttr(TypeAttr, et.Type)
	}
	if et.MimeType != "" {
		el.CreateAttr(MimeTypeAttr, et.MimeType)
	}
	if et.Encoding != "" {
		el.CreateAttr(EncodingAttr, et.Encoding)
	}
	if et.EncryptionMethod != nil {
		el.AddChild(MarshalEncryptionMethod(et.EncryptionMethod))
	}
	if et.KeyInfo != nil {
		el.AddChild(MarshalKeyInfo(et.KeyInfo))
	}
	if et.CipherData != nil {
		el.AddChild(MarshalCipherData(et.CipherData))
	}
	for _, prop := range et.EncryptionProperties {
		el.AddChild(prop.Copy())
	}
}

func unmarshalEncryptedTypeFrom(el *etree.Element, ctx *Context) (EncryptedType, error) {
	et := EncryptedType{
		Id:       el.SelectAttrValue(DefaultIdAttr, ""),
		Type:     el.SelectAttrValue(TypeAttr, ""),
		MimeType: el.SelectAttrValue(MimeTypeAttr, ""),
		Encoding: el.SelectAttrValue(EncodingAttr, ""),
	}
	if err := validateURISyntax(et.Type); err != nil {
		return et, newMarshalError("invalid Type attribute", err)
	}
	if err := validateURISyntax(et.Encoding); err != nil {
		return et, newMarshalError("invalid Encoding attribute", err)
	}

	em, err := UnmarshalEncryptionMethod(el.FindElement(EncryptionPrefix + ":" + EncryptionMethodTag))
	if err != nil {
		return et, err
	}
	et.EncryptionMethod = em

	ki, err := UnmarshalKeyInfo(el.FindElement(DefaultPrefix+":"+KeyInfoTag), ctx)
	if err != nil {
		return et, err
	}
	et.KeyInfo = ki

	// The last CipherData wins: earlier ones belong to a nested
	// KeyInfo/EncryptedKey when an element search descends.
	var cdEl *etree.Element
	if found := el.FindElements(EncryptionPrefix + ":" + CipherDataTag); len(found) > 0 {
		cdEl = found[len(found)-1]
	}
	cd, err := UnmarshalCipherData(cdEl, ctx)
	if err != nil {
		return et, err
	}
	et.CipherData = cd

	if props := el.FindElement(EncryptionPrefix + ":" + EncryptionPropsTag); props != nil {
		et.EncryptionProperties = append(et.EncryptionProperties, props.ChildElements()...)
	}
	return et, nil
}

// ---- EncryptedData ----

func MarshalEncryptedData(ed *EncryptedData) *etree.Element {
	el := newEncElement(EncryptedDataTag)
	declareNamespace(el, EncryptionPrefix, EncryptionNamespace)
	declareNamespace(el, DefaultPrefix, SignatureNamespace)
	marshalEncryptedTypeInto(el, &ed.EncryptedType)
	return el
}

func UnmarshalEncryptedData(el *etree.Element, ctx *Context) (*EncryptedData, error) {
	if el == nil {
		return nil, newMarshalError("nil EncryptedData element", nil)
	}
	et, err := unmarshalEncryptedTypeFrom(el, ctx)
	if err != nil {
		return nil, err
	}
	return &EncryptedData{EncryptedType: et}, nil
}

// ---- EncryptedKey ----

func MarshalEncryptedKey(ek *EncryptedKey) *etree.Element {
	el := newEncElement(EncryptedKeyTag)
	marshalEncryptedTypeInto(el, &ek.EncryptedType)
	if ek.Recipient != "" {
		el.CreateAttr(RecipientAttr, ek.Recipient)
	}
	if ek.ReferenceList != nil && len(ek.ReferenceList.URIs()) > 0 {
		el.AddChild(MarshalReferenceList(ek.ReferenceList))
	}
	if ek.CarriedKeyName != "" {
		ckn := newEncElement(CarriedKeyNameTag)
		ckn.SetText(ek.CarriedKeyName)
		el.AddChild(ckn)
	}
	return el
}

func UnmarshalEncryptedKey(el *etree.Element, ctx *Context) (*EncryptedKey, error) {
	if el == nil {
		return nil, newMarshalError("nil EncryptedKey element", nil)
	}
	et, err := unmarshalEncryptedTypeFrom(el, ctx)
	if err != nil {
		return nil, err
	}
	ek := &EncryptedKey{EncryptedType: et}
	ek.Recipient = el.SelectAttrValue(RecipientAttr, "")
	if rl := el.FindElement(EncryptionPrefix + ":" + ReferenceListTag); rl != nil {
		list, err := UnmarshalReferenceList(rl)
		if err != nil {
			return nil, err
		}
		ek.ReferenceList = list
	}
	if ckn := el.FindElement(EncryptionPrefix + ":" + CarriedKeyNameTag); ckn != nil {
		ek.CarriedKeyName = ckn.Text()
	}
	return ek, nil
}

// ---- Transforms (shared by CipherReference and Reference) ----

const defaultMaxTransforms = 5

// MarshalTransforms renders tc as a `<Transforms>` element, reconstructing
// each child `<Transform>`'s algorithm-specific children from the
// parameters the corresponding builtin Transform carries.
func MarshalTransforms(tc *TransformChain) *etree.Element {
	el := newDSElement(TransformsTag)
	if tc == nil {
		return el
	}
	for _, t := range tc.transforms {
		tEl := newDSElement(TransformTag)
		tEl.CreateAttr(AlgorithmAttr, string(t.Algorithm()))
		switch v := t.(type) {
		case *xpathTransform:
			xp := newDSElement(XPathTag)
			xp.SetText(v.expr)
			tEl.AddChild(xp)
		case *canonicalizationTransform:
			// exclusive C14N transforms may carry an InclusiveNamespaces
			// PrefixList; this engine does not currently round-trip it
			// back out of the constructed Canonicalizer value.
		}
		el.AddChild(tEl)
	}
	return el
}

// UnmarshalTransforms builds a TransformChain from a `<Transforms>`
// element, looking up each `<Transform>`'s factory in ctx's registry and
// enforcing the secure-validation transform-count cap (default 5).
func UnmarshalTransforms(el *etree.Element, ctx *Context) (*TransformChain, error) {
	if el == nil {
		return NewTransformChain(nil), nil
	}
	children := el.FindElements(DefaultPrefix + ":" + TransformTag)
	if ctx != nil && ctx.SecureValidation && len(children) > defaultMaxTransforms {
		return nil, newMarshalError("transform chain exceeds the secure-validation cap of "+itoa(defaultMaxTransforms), nil)
	}

	var transforms []Transform
	for _, tEl := range children {
		alg := AlgorithmID(tEl.SelectAttrValue(AlgorithmAttr, ""))
		if alg == "" {
			return nil, newMarshalError("Transform missing Algorithm", nil)
		}
		factory, err := ctx.registry().LookupTransform(alg)
		if err != nil {
			return nil, err
		}
		params := &transformParams{}
		if xp := tEl.FindElement(DefaultPrefix + ":" + XPathTag); xp != nil {
			params.XPath = xp.Text()
		}
		if incl := tEl.FindElement(DefaultPrefix + ":" + InclusiveNamespacesTag); incl != nil {
			params.PrefixList = incl.SelectAttrValue(PrefixListAttr, "")
		}
		if alg == XPath2FilterAlgorithmID {
			filters, err := parseXPath2FilterChildren(tEl)
			if err != nil {
				return nil, err
			}
			params.Filters = filters
		}
		t, err := factory(params)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}
	return NewTransformChain(transforms), nil
}

func parseXPath2FilterChildren(tEl *etree.Element) ([]XPath2FilterExpr, error) {
	var out []XPath2FilterExpr
	for _, child := range tEl.ChildElements() {
		if child.Tag != "XPath" {
			continue
		}
		kind := XPath2FilterKind(child.SelectAttrValue("Filter", ""))
		switch kind {
		case XPath2FilterUnion, XPath2FilterIntersect, XPath2FilterSubtract:
		default:
			return nil, newMarshalError("XPath2Filter child has invalid Filter attribute", nil)
		}
		out = append(out, XPath2FilterExpr{Kind: kind, Expr: child.Text()})
	}
	return out, nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
