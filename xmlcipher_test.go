package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Covers XMLCipher's four-mode state machine: element
// encrypt/decrypt round-trip, an EncryptedKey wrapped inline in
// EncryptedData's KeyInfo, and a same-document CipherReference.

import (
	"crypto"
	"encoding/base64"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func TestXMLCipherElementRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(0x10 + i)
	}

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<a><b>hi</b></a>`))
	target := doc.Root().FindElement("b")
	require.NotNil(t, target)

	ctx := &Context{}
	encCipher, err := NewXMLCipher(ctx)
	require.NoError(t, err)
	require.NoError(t, encCipher.Init(ModeEncrypt, AES128CBCAlgorithmID, key))
	require.NoError(t, encCipher.EncryptElement(doc, target, false))

	ed := encCipher.GetEncryptedData()
	require.NotNil(t, ed)
	ivct, ok := ed.CipherData.Value()
	require.True(t, ok)
	require.Len(t, ivct, 16+16) // one IV block plus one padded plaintext block
	require.Equal(t, 0, len(ivct)%16)

	edElement := findDescendantTag(doc.Root(), EncryptedDataTag, EncryptionNamespace)
	require.NotNil(t, edElement)

	decCipher, err := NewXMLCipher(ctx)
	require.NoError(t, err)
	require.NoError(t, decCipher.Init(ModeDecrypt, "", key))
	require.NoError(t, decCipher.DecryptElement(doc, doc.Root(), false))

	restored := doc.Root().FindElement("b")
	require.NotNil(t, restored)
	require.Equal(t, "hi", restored.Text())
}

type fixedKEKSelector struct{ kek []byte }

func (f fixedKEKSelector) SelectVerificationKey(ki *KeyInfo) (crypto.PublicKey, error) {
	return nil, newKeyResolutionError("verification not supported by fixedKEKSelector", nil)
}

func (f fixedKEKSelector) SelectDecryptionKey(ki *KeyInfo) (interface{}, error) {
	return f.kek, nil
}

func TestXMLCipherDataKeyWrappedByKeyEncryptionKey(t *testing.T) {
	kek := []byte("abcdefghijklmnopqrstuvwx") // 24 bytes, AES-192
	dataKey := make([]byte, 16)
	for i := range dataKey {
		dataKey[i] = byte(i)
	}

	wrapCipher, err := NewXMLCipher(&Context{})
	require.NoError(t, err)
	require.NoError(t, wrapCipher.Init(ModeWrap, AES192KeyWrapAlgorithmID, kek))
	ek, err := wrapCipher.EncryptKey(dataKey)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<root><secret>classified payload</secret></root>`))
	target := doc.Root().FindElement("secret")

	encCipher, err := NewXMLCipher(&Context{})
	require.NoError(t, err)
	require.NoError(t, encCipher.Init(ModeEncrypt, AES128CBCAlgorithmID, dataKey))
	require.NoError(t, encCipher.EncryptElement(doc, target, false))

	// Attaching the EncryptedKey after EncryptElement means the grafted
	// element predates it; re-marshal so the document carries the KeyInfo.
	ed := encCipher.GetEncryptedData()
	ed.KeyInfo = NewKeyInfo()
	ed.KeyInfo.AddEncryptedKey(ek)
	edEl := findDescendantTag(doc.Root(), EncryptedDataTag, EncryptionNamespace)
	require.NotNil(t, edEl)
	require.NoError(t, replaceElementWithFragment(doc, edEl, []*etree.Element{MarshalEncryptedData(ed)}))

	ctx := &Context{KeySelector: fixedKEKSelector{kek: kek}}
	decCipher, err := NewXMLCipher(ctx)
	require.NoError(t, err)
	require.NoError(t, decCipher.Init(ModeDecrypt, "", nil))
	require.NoError(t, decCipher.DecryptElement(doc, doc.Root(), false))

	restored := doc.Root().FindElement("secret")
	require.NotNil(t, restored)
	require.Equal(t, "classified payload", restored.Text())
}

func TestXMLCipherDecryptToByteArray(t *testing.T) {
	key := []byte("abcdefghijklmnop")

	encCipher, err := NewXMLCipher(&Context{})
	require.NoError(t, err)
	require.NoError(t, encCipher.Init(ModeEncrypt, AES128CBCAlgorithmID, key))
	ivct, err := encCipher.EncryptData([]byte("raw octets, not an element"))
	require.NoError(t, err)

	ed := NewEncryptedData()
	ed.EncryptionMethod = NewEncryptionMethod(AES128CBCAlgorithmID)
	require.NoError(t, ed.CipherData.SetValue(ivct))
	edEl := MarshalEncryptedData(ed)

	decCipher, err := NewXMLCipher(&Context{})
	require.NoError(t, err)
	require.NoError(t, decCipher.Init(ModeDecrypt, "", key))
	_, err = decCipher.LoadEncryptedData(edEl)
	require.NoError(t, err)

	pt, err := decCipher.DecryptToByteArray()
	require.NoError(t, err)
	require.Equal(t, []byte("raw octets, not an element"), pt)
}

func TestXMLCipherSameDocumentCipherReference(t *testing.T) {
	key := []byte("abcdefghijklmnop") // 16 bytes

	encCipher, err := NewXMLCipher(&Context{})
	require.NoError(t, err)
	require.NoError(t, encCipher.Init(ModeEncrypt, AES128CBCAlgorithmID, key))
	ivct, err := encCipher.EncryptData([]byte("A test encrypted secret"))
	require.NoError(t, err)

	doc := etree.NewDocument()
	root := doc.CreateElement("Root")
	ct := root.CreateElement("CipherText")
	ct.CreateAttr("Id", "CipherTextId")
	ct.SetText(base64.StdEncoding.EncodeToString(ivct))

	ed := NewEncryptedData()
	ed.EncryptionMethod = NewEncryptionMethod(AES128CBCAlgorithmID)
	transforms := NewTransformChain([]Transform{
		&xpathTransform{expr: `self::text()[parent::CipherText[@Id="CipherTextId"]]`},
		base64Transform{},
	})
	require.NoError(t, ed.CipherData.SetReference("#CipherTextId", transforms))

	cipher, err := NewXMLCipher(&Context{})
	require.NoError(t, err)
	require.NoError(t, cipher.Init(ModeDecrypt, "", key))

	pt, err := cipher.decryptData(ed, doc)
	require.NoError(t, err)
	require.Equal(t, "A test encrypted secret", string(pt))
}

func TestXMLCipherCloseZeroizesKey(t *testing.T) {
	key := []byte("0123456789abcdef")
	cipher, err := NewXMLCipher(&Context{})
	require.NoError(t, err)
	require.NoError(t, cipher.Init(ModeEncrypt, AES128CBCAlgorithmID, key))
	held := cipher.key
	require.NoError(t, cipher.Close())
	for _, b := range held {
		require.Equal(t, byte(0), b)
	}
	require.Nil(t, cipher.key)

	// The caller's own buffer is not the cipher's to clobber.
	require.Equal(t, []byte("0123456789abcdef"), key)
}

func TestXMLCipherInitRejectsMissingKeyForEncrypt(t *testing.T) {
	cipher, err := NewXMLCipher(&Context{})
	require.NoError(t, err)
	err = cipher.Init(ModeEncrypt, AES128CBCAlgorithmID, nil)
	require.Error(t, err)
}

func TestXMLCipherEncryptKeyToleratedInEncryptMode(t *testing.T) {
	var logged []string
	ctx := &Context{Logf: func(format string, args ...interface{}) {
		logged = append(logged, format)
	}}
	cipher, err := NewXMLCipher(ctx)
	require.NoError(t, err)
	require.NoError(t, cipher.Init(ModeEncrypt, AES128KeyWrapAlgorithmID, []byte("0123456789abcdef")))

	ek, err := cipher.EncryptKey(make([]byte, 16))
	require.NoError(t, err)
	require.NotNil(t, ek)
	require.NotEmpty(t, logged)
}

func TestXMLCipherEncryptKeyRejectedInDecryptMode(t *testing.T) {
	cipher, err := NewXMLCipher(&Context{})
	require.NoError(t, err)
	require.NoError(t, cipher.Init(ModeDecrypt, "", nil))

	_, err = cipher.EncryptKey(make([]byte, 16))
	require.Error(t, err)
	var state *InvalidStateError
	require.ErrorAs(t, err, &state)
}

func TestCipherDataRejectsBothArms(t *testing.T) {
	cd := NewCipherDataValue([]byte("ciphertext"))
	err := cd.SetReference("#id", nil)
	require.Error(t, err)
}

func TestReferenceListRejectsMixedKinds(t *testing.T) {
	rl := NewReferenceList()
	require.NoError(t, rl.AddDataReference("#d1"))
	err := rl.AddKeyReference("#k1")
	require.Error(t, err)
}
