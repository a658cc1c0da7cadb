package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Key-wrap round-trips for the RFC 3394 AES-KeyWrap and RFC 3217
// TripleDES-KeyWrap primitives registered by registerBuiltinKeyWraps.

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAESKeyWrapRoundTrip128(t *testing.T) {
	kek := make([]byte, 16)
	for i := range kek {
		kek[i] = byte(i)
	}
	cek := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}

	wrapped, err := aesKeyWrap(kek, cek)
	require.NoError(t, err)
	require.Len(t, wrapped, len(cek)+8)

	unwrapped, err := aesKeyUnwrap(kek, wrapped)
	require.NoError(t, err)
	require.Equal(t, cek, unwrapped)
}

func TestAESKeyWrapRoundTrip192And256(t *testing.T) {
	for _, kekLen := range []int{24, 32} {
		kek := make([]byte, kekLen)
		for i := range kek {
			kek[i] = byte(kekLen + i)
		}
		cek := make([]byte, 32)
		for i := range cek {
			cek[i] = byte(0xf0 + i)
		}

		wrapped, err := aesKeyWrap(kek, cek)
		require.NoError(t, err)

		unwrapped, err := aesKeyUnwrap(kek, wrapped)
		require.NoError(t, err)
		require.Equal(t, cek, unwrapped)
	}
}

func TestAESKeyUnwrapRejectsCorruptedIntegrityCheck(t *testing.T) {
	kek := make([]byte, 16)
	cek := make([]byte, 16)
	for i := range cek {
		cek[i] = byte(i)
	}

	wrapped, err := aesKeyWrap(kek, cek)
	require.NoError(t, err)
	wrapped[0] ^= 0xff

	_, err = aesKeyUnwrap(kek, wrapped)
	require.Error(t, err)
}

func TestAESKeyWrapRejectsShortInput(t *testing.T) {
	kek := make([]byte, 16)
	_, err := aesKeyWrap(kek, []byte{1, 2, 3, 4})
	require.Error(t, err)
}

func TestTripleDESKeyWrapRoundTrip(t *testing.T) {
	kek := []byte("abcdefghijklmnopqrstuvwx") // 24 bytes for 3DES
	cek := []byte("01234567890123456789abcd") // 24 bytes, a 3DES-sized CEK

	wrapped, err := tripleDESKeyWrap(kek, cek)
	require.NoError(t, err)

	unwrapped, err := tripleDESKeyUnwrap(kek, wrapped)
	require.NoError(t, err)
	require.Equal(t, cek, unwrapped)
}

func TestTripleDESKeyUnwrapRejectsCorruptedIntegrityCheck(t *testing.T) {
	kek := []byte("abcdefghijklmnopqrstuvwx")
	cek := []byte("0123456789012345")

	wrapped, err := tripleDESKeyWrap(kek, cek)
	require.NoError(t, err)
	wrapped[len(wrapped)-1] ^= 0xff

	_, err = tripleDESKeyUnwrap(kek, wrapped)
	require.Error(t, err)
}

func TestRegisterBuiltinKeyWrapsRegistersAllFourSuites(t *testing.T) {
	r := ScopedRegistry()
	for _, uri := range []AlgorithmID{
		AES128KeyWrapAlgorithmID,
		AES192KeyWrapAlgorithmID,
		AES256KeyWrapAlgorithmID,
		TripleDESKeyWrapAlgorithmID,
	} {
		suite, err := r.LookupKeyWrap(uri)
		require.NoError(t, err)
		require.Equal(t, uri, suite.URI)
	}
}
