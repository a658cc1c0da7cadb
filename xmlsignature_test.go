package xmlsecgo

// SPDX-License-Identifier: MIT
//
// XMLSignature sign/verify round-trip using an HMAC
// signature method, since it needs no certificate fixtures, plus KeyInfo
// marshal/unmarshal.

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func buildEnvelope(t *testing.T) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<Envelope Id="env1"><Payload>hello world</Payload></Envelope>`))
	return doc
}

func TestXMLSignatureSignAndVerifyHMAC(t *testing.T) {
	doc := buildEnvelope(t)
	secret := []byte("shared-hmac-secret")

	si := NewSignedInfo(CanonicalXML10ExclusiveAlgorithmID, HMACSHA256SignatureMethod)
	ref := NewReference("#env1", DigestSHA256AlgorithmID, NewTransformChain([]Transform{envelopedSignatureTransform{}}))
	si.AddReference(ref)
	sig := NewXMLSignature(si)

	ctx := &Context{}
	sigEl, err := sig.Sign(ctx, secret, doc, doc.Root())
	require.NoError(t, err)
	require.NotNil(t, sigEl)

	verifySig := &XMLSignature{}
	ok, err := verifySig.Verify(ctx, secret, doc, sigEl)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestXMLSignatureVerifyDetectsTamperedPayload(t *testing.T) {
	doc := buildEnvelope(t)
	secret := []byte("shared-hmac-secret")

	si := NewSignedInfo(CanonicalXML10ExclusiveAlgorithmID, HMACSHA256SignatureMethod)
	ref := NewReference("#env1", DigestSHA256AlgorithmID, NewTransformChain([]Transform{envelopedSignatureTransform{}}))
	si.AddReference(ref)
	sig := NewXMLSignature(si)

	ctx := &Context{}
	sigEl, err := sig.Sign(ctx, secret, doc, doc.Root())
	require.NoError(t, err)

	doc.Root().FindElement("Payload").SetText("tampered")

	verifySig := &XMLSignature{}
	ok, err := verifySig.Verify(ctx, secret, doc, sigEl)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestXMLSignatureVerifyDetectsWrongKey(t *testing.T) {
	doc := buildEnvelope(t)

	si := NewSignedInfo(CanonicalXML10ExclusiveAlgorithmID, HMACSHA256SignatureMethod)
	ref := NewReference("#env1", DigestSHA256AlgorithmID, NewTransformChain([]Transform{envelopedSignatureTransform{}}))
	si.AddReference(ref)
	sig := NewXMLSignature(si)

	ctx := &Context{}
	sigEl, err := sig.Sign(ctx, []byte("correct-secret"), doc, doc.Root())
	require.NoError(t, err)

	verifySig := &XMLSignature{}
	ok, err := verifySig.Verify(ctx, []byte("wrong-secret"), doc, sigEl)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKeyInfoMarshalUnmarshalRoundTrip(t *testing.T) {
	ki := NewKeyInfo()
	ki.Id = "ki1"
	ki.KeyName = "signing-key"
	ki.X509Certificates = [][]byte{[]byte("fake-der-bytes")}
	ki.X509IssuerSerial = &X509IssuerSerial{IssuerName: "CN=Test CA", SerialNumber: "12345"}

	el := MarshalKeyInfo(ki)
	doc := etree.NewDocument()
	doc.SetRoot(el)

	roundTripped, err := UnmarshalKeyInfo(doc.Root(), &Context{})
	require.NoError(t, err)
	require.Equal(t, ki.KeyName, roundTripped.KeyName)
	require.Equal(t, ki.X509Certificates, roundTripped.X509Certificates)
	require.Equal(t, ki.X509IssuerSerial.IssuerName, roundTripped.X509IssuerSerial.IssuerName)
	require.Equal(t, ki.X509IssuerSerial.SerialNumber, roundTripped.X509IssuerSerial.SerialNumber)
}
