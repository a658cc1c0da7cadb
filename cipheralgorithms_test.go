package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Covers PKCS#7 padding edge cases and the CBC encrypt/decrypt wrapper
// pair.

import (
	"crypto/aes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPKCS7PadAddsFullBlockWhenAlreadyAligned(t *testing.T) {
	data := make([]byte, 16)
	padded := pkcs7Pad(data, 16)
	require.Len(t, padded, 32)
	require.Equal(t, byte(16), padded[31])
}

func TestPKCS7PadUnpadRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 31} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}
		padded := pkcs7Pad(data, 16)
		require.Equal(t, 0, len(padded)%16)

		unpadded, err := pkcs7Unpad(padded, 16)
		require.NoError(t, err)
		require.Equal(t, data, unpadded)
	}
}

func TestPKCS7UnpadRejectsZeroPadLen(t *testing.T) {
	data := make([]byte, 16)
	_, err := pkcs7Unpad(data, 16)
	require.Error(t, err)
}

func TestPKCS7UnpadRejectsInconsistentPadding(t *testing.T) {
	data := make([]byte, 16)
	data[15] = 5
	data[14] = 9 // inconsistent with padLen 5
	_, err := pkcs7Unpad(data, 16)
	require.Error(t, err)
}

func TestPKCS7UnpadRejectsMisalignedLength(t *testing.T) {
	_, err := pkcs7Unpad(make([]byte, 10), 16)
	require.Error(t, err)
}

func TestCBCEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	iv := make([]byte, 16)
	pt := []byte("a short secret message")

	ct := cbcEncrypt(block, iv, pt)
	require.Equal(t, 0, len(ct)%16)

	decrypted, err := cbcDecrypt(block, iv, ct)
	require.NoError(t, err)
	require.Equal(t, pt, decrypted)
}

func TestCBCDecryptRejectsMisalignedCiphertext(t *testing.T) {
	key := make([]byte, 16)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	_, err = cbcDecrypt(block, make([]byte, 16), make([]byte, 10))
	require.Error(t, err)
}
