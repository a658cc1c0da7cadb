package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Namespace, tag, and algorithm URI constants for XML Signature
// (xmldsig-core) and XML Encryption (xmlenc-core).

const (
	DefaultPrefix = "ds"
	// EncryptionPrefix is the conventional element prefix this engine
	// marshals EncryptedData/EncryptedKey trees under; any prefix is
	// legal on the wire, only the namespace URI is bit-exact.
	EncryptionPrefix = "xenc"

	// SignatureNamespace is the XML Signature namespace (bit-exact).
	SignatureNamespace = "http://www.w3.org/2000/09/xmldsig#"
	// EncryptionNamespace is the XML Encryption namespace (bit-exact).
	EncryptionNamespace = "http://www.w3.org/2001/04/xmlenc#"
)

// Signature element/attribute tags.
const (
	SignatureTag              = "Signature"
	SignedInfoTag             = "SignedInfo"
	CanonicalizationMethodTag = "CanonicalizationMethod"
	SignatureMethodTag        = "SignatureMethod"
	ReferenceTag              = "Reference"
	TransformsTag             = "Transforms"
	TransformTag              = "Transform"
	DigestMethodTag           = "DigestMethod"
	DigestValueTag            = "DigestValue"
	SignatureValueTag         = "SignatureValue"
	KeyInfoTag                = "KeyInfo"
	X509DataTag               = "X509Data"
	X509CertificateTag        = "X509Certificate"
	X509IssuerSerialTag       = "X509IssuerSerial"
	X509IssuerNameTag         = "X509IssuerName"
	X509SerialNumberTag       = "X509SerialNumber"
	InclusiveNamespacesTag    = "InclusiveNamespaces"
	XPathTag                  = "XPath"
)

// Encryption element/attribute tags.
const (
	EncryptedDataTag      = "EncryptedData"
	EncryptedKeyTag       = "EncryptedKey"
	EncryptionMethodTag   = "EncryptionMethod"
	CipherDataTag         = "CipherData"
	CipherValueTag        = "CipherValue"
	CipherReferenceTag    = "CipherReference"
	EncryptionPropsTag    = "EncryptionProperties"
	EncryptionPropertyTag = "EncryptionProperty"
	ReferenceListTag      = "ReferenceList"
	DataReferenceTag      = "DataReference"
	KeyReferenceTag       = "KeyReference"
	CarriedKeyNameTag     = "CarriedKeyName"
	OAEPParamsTag         = "OAEPparams"
	RecipientAttr         = "Recipient"
	MGFAttr               = "MGF"
	DigestAlgorithmAttr   = "DigestAlgorithm"
)

// Common attribute names.
const (
	AlgorithmAttr  = "Algorithm"
	URIAttr        = "URI"
	DefaultIdAttr  = "Id"
	PrefixListAttr = "PrefixList"
	TypeAttr       = "Type"
	MimeTypeAttr   = "MimeType"
	EncodingAttr   = "Encoding"
)

// Canonicalization and transform algorithm URIs.
const (
	CanonicalXML10ExclusiveAlgorithmID             AlgorithmID = "http://www.w3.org/2001/10/xml-exc-c14n#"
	CanonicalXML10ExclusiveWithCommentsAlgorithmID AlgorithmID = "http://www.w3.org/2001/10/xml-exc-c14n#WithComments"

	CanonicalXML11AlgorithmID             AlgorithmID = "http://www.w3.org/2006/12/xml-c14n11"
	CanonicalXML11WithCommentsAlgorithmID AlgorithmID = "http://www.w3.org/2006/12/xml-c14n11#WithComments"

	CanonicalXML10RecAlgorithmID          AlgorithmID = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	CanonicalXML10WithCommentsAlgorithmID AlgorithmID = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315#WithComments"

	EnvelopedSignatureAlgorithmID AlgorithmID = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
	Base64TransformAlgorithmID    AlgorithmID = "http://www.w3.org/2000/09/xmldsig#base64"
	XPathTransformAlgorithmID     AlgorithmID = "http://www.w3.org/TR/1999/REC-xpath-19991116"
	XPath2FilterAlgorithmID       AlgorithmID = "http://www.w3.org/2002/06/xmldsig-filter2"
)

// Digest algorithm URIs.
const (
	DigestSHA1AlgorithmID      AlgorithmID = "http://www.w3.org/2000/09/xmldsig#sha1"
	DigestSHA256AlgorithmID    AlgorithmID = "http://www.w3.org/2001/04/xmlenc#sha256"
	DigestSHA512AlgorithmID    AlgorithmID = "http://www.w3.org/2001/04/xmlenc#sha512"
	DigestRIPEMD160AlgorithmID AlgorithmID = "http://www.w3.org/2001/04/xmlenc#ripemd160"
	DigestMD5AlgorithmID       AlgorithmID = "http://www.w3.org/2001/04/xmldsig-more#md5"
)

// Signature method URIs (asymmetric + symmetric/HMAC).
const (
	RSASHA1SignatureMethod   AlgorithmID = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	RSASHA256SignatureMethod AlgorithmID = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	RSASHA384SignatureMethod AlgorithmID = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha384"
	RSASHA512SignatureMethod AlgorithmID = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha512"

	ECDSASHA1SignatureMethod   AlgorithmID = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha1"
	ECDSASHA256SignatureMethod AlgorithmID = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256"
	ECDSASHA384SignatureMethod AlgorithmID = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha384"
	ECDSASHA512SignatureMethod AlgorithmID = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha512"

	HMACSHA1SignatureMethod   AlgorithmID = "http://www.w3.org/2000/09/xmldsig#hmac-sha1"
	HMACSHA256SignatureMethod AlgorithmID = "http://www.w3.org/2001/04/xmldsig-more#hmac-sha256"
)

// Encryption (block cipher) algorithm URIs.
const (
	TripleDESCBCAlgorithmID AlgorithmID = "http://www.w3.org/2001/04/xmlenc#tripledes-cbc"
	AES128CBCAlgorithmID    AlgorithmID = "http://www.w3.org/2001/04/xmlenc#aes128-cbc"
	AES192CBCAlgorithmID    AlgorithmID = "http://www.w3.org/2001/04/xmlenc#aes192-cbc"
	AES256CBCAlgorithmID    AlgorithmID = "http://www.w3.org/2001/04/xmlenc#aes256-cbc"
)

// EncryptedType Type URIs. EncryptedType.Type is a plain
// string (it is compared/stored verbatim, never looked up in the
// registry), so these are untyped URI constants rather than AlgorithmID.
const (
	EncryptedElementType = "http://www.w3.org/2001/04/xmlenc#Element"
	EncryptedContentType = "http://www.w3.org/2001/04/xmlenc#Content"
)

// Key-transport / key-wrap algorithm URIs.
const (
	RSAv15KeyTransportAlgorithmID  AlgorithmID = "http://www.w3.org/2001/04/xmlenc#rsa-1_5"
	RSAOAEPKeyTransportAlgorithmID AlgorithmID = "http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p"

	TripleDESKeyWrapAlgorithmID AlgorithmID = "http://www.w3.org/2001/04/xmlenc#kw-tripledes"
	AES128KeyWrapAlgorithmID    AlgorithmID = "http://www.w3.org/2001/04/xmlenc#kw-aes128"
	AES192KeyWrapAlgorithmID    AlgorithmID = "http://www.w3.org/2001/04/xmlenc#kw-aes192"
	AES256KeyWrapAlgorithmID    AlgorithmID = "http://www.w3.org/2001/04/xmlenc#kw-aes256"
)

// registerBuiltinAlgorithms wires every builtin primitive into r, one
// function per registry family: digests (digestalgorithms.go), ciphers and
// key algorithms (cipheralgorithms.go), key wraps (keywrap.go),
// canonicalizers (canonicalization.go) and transforms (transform.go).
func registerBuiltinAlgorithms(r *registryImpl) {
	registerBuiltinDigests(r)
	registerBuiltinCiphers(r)
	registerBuiltinKeyWraps(r)
	registerBuiltinCanonicalizers(r)
	registerBuiltinKeyAlgorithms(r)
	registerBuiltinTransforms(r)
}
