package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Marshal/unmarshal round-trips and the secure-validation boundary cases:
// an over-long transform chain and an MD5 DigestMethod
// must both be rejected once Context.SecureValidation is set.

import (
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func TestEncryptedDataMarshalUnmarshalRoundTrip(t *testing.T) {
	ed := NewEncryptedData()
	ed.Id = "ed1"
	ed.Type = EncryptedElementType
	ed.EncryptionMethod = NewEncryptionMethod(AES128CBCAlgorithmID)
	require.NoError(t, ed.CipherData.SetValue([]byte("ivandciphertext!")))

	el := MarshalEncryptedData(ed)

	doc := etree.NewDocument()
	doc.SetRoot(el)
	roundTripped, err := UnmarshalEncryptedData(doc.Root(), &Context{})
	require.NoError(t, err)

	require.Equal(t, ed.Id, roundTripped.Id)
	require.Equal(t, ed.Type, roundTripped.Type)
	require.Equal(t, ed.EncryptionMethod.Algorithm, roundTripped.EncryptionMethod.Algorithm)
	got, ok := roundTripped.CipherData.Value()
	require.True(t, ok)
	require.Equal(t, []byte("ivandciphertext!"), got)
}

func TestEncryptedKeyMarshalUnmarshalRoundTrip(t *testing.T) {
	ek := NewEncryptedKey()
	ek.Id = "ek1"
	ek.Recipient = "alice@example.org"
	ek.CarriedKeyName = "session-key"
	ek.EncryptionMethod = NewEncryptionMethod(RSAOAEPKeyTransportAlgorithmID)
	require.NoError(t, ek.CipherData.SetValue([]byte("wrapped-key-bytes")))
	ek.ReferenceList = NewReferenceList()
	require.NoError(t, ek.ReferenceList.AddDataReference("#ed1"))

	el := MarshalEncryptedKey(ek)
	doc := etree.NewDocument()
	doc.SetRoot(el)

	roundTripped, err := UnmarshalEncryptedKey(doc.Root(), &Context{})
	require.NoError(t, err)
	require.Equal(t, ek.Recipient, roundTripped.Recipient)
	require.Equal(t, ek.CarriedKeyName, roundTripped.CarriedKeyName)
	require.Equal(t, []string{"#ed1"}, roundTripped.ReferenceList.URIs())
	got, ok := roundTripped.CipherData.Value()
	require.True(t, ok)
	require.Equal(t, []byte("wrapped-key-bytes"), got)
}

func TestEncryptedDataWithNestedEncryptedKeyRoundTrip(t *testing.T) {
	ek := NewEncryptedKey()
	ek.EncryptionMethod = NewEncryptionMethod(AES192KeyWrapAlgorithmID)
	require.NoError(t, ek.CipherData.SetValue([]byte("wrapped-session-key-bits")))

	ed := NewEncryptedData()
	ed.EncryptionMethod = NewEncryptionMethod(AES128CBCAlgorithmID)
	require.NoError(t, ed.CipherData.SetValue([]byte("iv-and-ciphertext-bytes!")))
	ed.KeyInfo = NewKeyInfo()
	ed.KeyInfo.AddEncryptedKey(ek)

	el := MarshalEncryptedData(ed)
	doc := etree.NewDocument()
	doc.SetRoot(el)

	roundTripped, err := UnmarshalEncryptedData(doc.Root(), &Context{})
	require.NoError(t, err)

	// The outer CipherData must be the EncryptedData's own, not the nested
	// EncryptedKey's (the last direct CipherData child wins).
	outer, ok := roundTripped.CipherData.Value()
	require.True(t, ok)
	require.Equal(t, []byte("iv-and-ciphertext-bytes!"), outer)

	nested, ok := roundTripped.KeyInfo.FirstEncryptedKey()
	require.True(t, ok)
	wrapped, ok := nested.CipherData.Value()
	require.True(t, ok)
	require.Equal(t, []byte("wrapped-session-key-bits"), wrapped)
	require.Equal(t, AES192KeyWrapAlgorithmID, nested.EncryptionMethod.Algorithm)
}

func buildReferenceElement(t *testing.T, digestMethod AlgorithmID, numTransforms int) *etree.Element {
	t.Helper()
	el := newDSElement(ReferenceTag)
	el.CreateAttr(URIAttr, "#target")

	if numTransforms > 0 {
		transformsEl := newDSElement(TransformsTag)
		for i := 0; i < numTransforms; i++ {
			tEl := newDSElement(TransformTag)
			tEl.CreateAttr(AlgorithmAttr, string(EnvelopedSignatureAlgorithmID))
			transformsEl.AddChild(tEl)
		}
		el.AddChild(transformsEl)
	}

	dm := newDSElement(DigestMethodTag)
	dm.CreateAttr(AlgorithmAttr, string(digestMethod))
	el.AddChild(dm)

	dv := newDSElement(DigestValueTag)
	dv.SetText("AAAA")
	el.AddChild(dv)

	return el
}

func TestUnmarshalReferenceRejectsOverLongTransformChainUnderSecureValidation(t *testing.T) {
	el := buildReferenceElement(t, DigestSHA256AlgorithmID, 6)
	ctx := &Context{SecureValidation: true}

	_, err := UnmarshalReference(el, ctx)
	require.Error(t, err)

	var marshalErr *MarshalError
	require.True(t, errors.As(err, &marshalErr))
	require.Contains(t, marshalErr.Error(), "cap of 5")
}

func TestUnmarshalReferenceAllowsTransformCapWithoutSecureValidation(t *testing.T) {
	el := buildReferenceElement(t, DigestSHA256AlgorithmID, 6)
	ctx := &Context{}

	_, err := UnmarshalReference(el, ctx)
	require.NoError(t, err)
}

func TestUnmarshalReferenceRejectsMD5DigestUnderSecureValidation(t *testing.T) {
	el := buildReferenceElement(t, DigestMD5AlgorithmID, 0)
	ctx := &Context{SecureValidation: true, Registry: ScopedRegistry()}

	_, err := UnmarshalReference(el, ctx)
	require.Error(t, err)
}

func TestUnmarshalReferenceAllowsMD5DigestWithoutSecureValidation(t *testing.T) {
	el := buildReferenceElement(t, DigestMD5AlgorithmID, 0)
	ctx := &Context{Registry: ScopedRegistry()}

	_, err := UnmarshalReference(el, ctx)
	require.NoError(t, err)
}
