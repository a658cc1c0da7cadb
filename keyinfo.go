package xmlsecgo

// SPDX-License-Identifier: MIT
//
// KeyInfo models the possibly-nested "EncryptedData -> KeyInfo ->
// EncryptedKey -> KeyInfo -> ..." graph as an arena of EncryptedKey values
// addressed by handle, rather than embedding Go pointers that could alias
// or cycle.

// EncryptedTypeHandle addresses an EncryptedKey nested inside a KeyInfo's
// arena.
type EncryptedTypeHandle int

// X509IssuerSerial is the issuer-name/serial-number pair from an X509Data
// child of KeyInfo.
type X509IssuerSerial struct {
	IssuerName   string
	SerialNumber string
}

// KeyInfo carries the information needed to locate a verification or
// decryption key, plus zero or more nested EncryptedKey values (used when a
// data-encryption key is itself wrapped and carried alongside the
// EncryptedData that uses it).
type KeyInfo struct {
	Id               string
	KeyName          string
	X509Certificates [][]byte // DER-encoded certificates, in document order
	X509IssuerSerial *X509IssuerSerial

	arena []*EncryptedKey
}

// NewKeyInfo returns an empty KeyInfo.
func NewKeyInfo() *KeyInfo { return &KeyInfo{} }

// AddEncryptedKey stores ek in this KeyInfo's arena and returns its handle.
func (ki *KeyInfo) AddEncryptedKey(ek *EncryptedKey) EncryptedTypeHandle {
	ki.arena = append(ki.arena, ek)
	return EncryptedTypeHandle(len(ki.arena) - 1)
}

// EncryptedKeyAt dereferences a handle returned by AddEncryptedKey.
func (ki *KeyInfo) EncryptedKeyAt(h EncryptedTypeHandle) (*EncryptedKey, bool) {
	if h < 0 || int(h) >= len(ki.arena) {
		return nil, false
	}
	return ki.arena[h], true
}

// EncryptedKeys returns every nested EncryptedKey in this KeyInfo's arena.
func (ki *KeyInfo) EncryptedKeys() []*EncryptedKey {
	return append([]*EncryptedKey{}, ki.arena...)
}

// FirstEncryptedKey returns the first nested EncryptedKey, if any — the
// common case of a single wrapped data-encryption key.
func (ki *KeyInfo) FirstEncryptedKey() (*EncryptedKey, bool) {
	if len(ki.arena) == 0 {
		return nil, false
	}
	return ki.arena[0], true
}
