package xmlsecgo

// SPDX-License-Identifier: MIT
//
// EncryptedType/EncryptedData/EncryptedKey/CipherData/ReferenceList: the
// in-memory tree for XML Encryption. EncryptedData and EncryptedKey embed
// EncryptedType by composition rather than sharing a class hierarchy.

import "github.com/beevik/etree"

// CipherDataKind tags which arm of a CipherData is set.
type CipherDataKind int

const (
	CipherDataUnset CipherDataKind = iota
	CipherDataValueKind
	CipherDataReferenceKind
)

// CipherData is the mandatory child of an EncryptedType: either an inline
// base64 CipherValue, or a CipherReference naming where the ciphertext can
// be found. Exactly one arm may be set.
type CipherData struct {
	kind CipherDataKind

	value []byte

	referenceURI        string
	referenceTransforms *TransformChain
}

// NewCipherDataValue builds a CipherData carrying raw ciphertext inline.
func NewCipherDataValue(value []byte) *CipherData {
	return &CipherData{kind: CipherDataValueKind, value: append([]byte{}, value...)}
}

// NewCipherDataReference builds a CipherData that points at ciphertext
// elsewhere via uri, with an optional transform chain applied before use.
func NewCipherDataReference(uri string, transforms *TransformChain) *CipherData {
	return &CipherData{kind: CipherDataReferenceKind, referenceURI: uri, referenceTransforms: transforms}
}

// Kind reports which arm is set.
func (c *CipherData) Kind() CipherDataKind { return c.kind }

// Value returns the inline ciphertext and true, or nil/false if this
// CipherData is a reference.
func (c *CipherData) Value() ([]byte, bool) {
	if c.kind != CipherDataValueKind {
		return nil, false
	}
	return c.value, true
}

// Reference returns the reference URI/transforms and true, or ""/nil/false
// if this CipherData carries an inline value.
func (c *CipherData) Reference() (string, *TransformChain, bool) {
	if c.kind != CipherDataReferenceKind {
		return "", nil, false
	}
	return c.referenceURI, c.referenceTransforms, true
}

// SetValue sets the Value arm, rejecting the call if the Reference arm is
// already set.
func (c *CipherData) SetValue(value []byte) error {
	if c.kind == CipherDataReferenceKind {
		return newInvalidStateError("CipherData already holds a CipherReference")
	}
	c.kind = CipherDataValueKind
	c.value = append([]byte{}, value...)
	return nil
}

// SetReference sets the Reference arm, rejecting the call if the Value arm
// is already set.
func (c *CipherData) SetReference(uri string, transforms *TransformChain) error {
	if c.kind == CipherDataValueKind {
		return newInvalidStateError("CipherData already holds a CipherValue")
	}
	c.kind = CipherDataReferenceKind
	c.referenceURI = uri
	c.referenceTransforms = transforms
	return nil
}

// ReferenceListKind tags whether a ReferenceList holds DataReference or
// KeyReference entries; mixing kinds is rejected.
type ReferenceListKind int

const (
	ReferenceListUnset ReferenceListKind = iota
	ReferenceListData
	ReferenceListKey
)

// ReferenceList is a homogeneous list of DataReference or KeyReference URIs.
type ReferenceList struct {
	kind ReferenceListKind
	uris []string
}

// NewReferenceList builds an empty ReferenceList; its kind is fixed by the
// first Add call.
func NewReferenceList() *ReferenceList { return &ReferenceList{} }

// Kind reports which entry kind this list holds.
func (rl *ReferenceList) Kind() ReferenceListKind { return rl.kind }

// URIs returns the list's URIs in document order.
func (rl *ReferenceList) URIs() []string { return append([]string{}, rl.uris...) }

// AddDataReference appends a DataReference URI, rejecting the call if the
// list already holds KeyReference entries.
func (rl *ReferenceList) AddDataReference(uri string) error {
	return rl.add(ReferenceListData, uri)
}

// AddKeyReference appends a KeyReference URI, rejecting the call if the
// list already holds DataReference entries.
func (rl *ReferenceList) AddKeyReference(uri string) error {
	return rl.add(ReferenceListKey, uri)
}

func (rl *ReferenceList) add(kind ReferenceListKind, uri string) error {
	if rl.kind != ReferenceListUnset && rl.kind != kind {
		return newInvalidInputError("ReferenceList cannot mix DataReference and KeyReference entries")
	}
	rl.kind = kind
	rl.uris = append(rl.uris, uri)
	return nil
}

// EncryptedType holds the fields common to EncryptedData and
// EncryptedKey.
type EncryptedType struct {
	Id       string
	Type     string
	MimeType string
	Encoding string

	EncryptionMethod *EncryptionMethod
	KeyInfo          *KeyInfo
	CipherData       *CipherData

	// EncryptionProperties holds any <EncryptionProperty> children
	// verbatim; this engine does not interpret their content.
	EncryptionProperties []*etree.Element
}

// EncryptedData is the `<EncryptedData>` element.
type EncryptedData struct {
	EncryptedType
}

// NewEncryptedData builds an EncryptedData with an empty (unset) CipherData.
func NewEncryptedData() *EncryptedData {
	return &EncryptedData{EncryptedType{CipherData: &CipherData{}}}
}

// EncryptedKey is the `<EncryptedKey>` element: an
// EncryptedType plus recipient/reference-list/carried-name fields used when
// wrapping a data-encryption key.
type EncryptedKey struct {
	EncryptedType

	Recipient      string
	ReferenceList  *ReferenceList
	CarriedKeyName string
}

// NewEncryptedKey builds an EncryptedKey with an empty (unset) CipherData.
func NewEncryptedKey() *EncryptedKey {
	return &EncryptedKey{EncryptedType: EncryptedType{CipherData: &CipherData{}}}
}
