package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Key-wrap primitives: RFC 3394 AES Key Wrap and an RFC 3217-style
// TripleDES construction, over the stdlib block ciphers.

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"encoding/binary"
)

// aesKeyWrapIV is the default integrity check value from RFC 3394 §2.2.3.1.
var aesKeyWrapIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

func registerBuiltinKeyWraps(r *registryImpl) {
	suites := []KeyWrapSuite{
		{URI: AES128KeyWrapAlgorithmID, KeySize: 16, Wrap: aesKeyWrap, Unwrap: aesKeyUnwrap},
		{URI: AES192KeyWrapAlgorithmID, KeySize: 24, Wrap: aesKeyWrap, Unwrap: aesKeyUnwrap},
		{URI: AES256KeyWrapAlgorithmID, KeySize: 32, Wrap: aesKeyWrap, Unwrap: aesKeyUnwrap},
		{URI: TripleDESKeyWrapAlgorithmID, KeySize: 24, Wrap: tripleDESKeyWrap, Unwrap: tripleDESKeyUnwrap},
	}
	for _, s := range suites {
		_ = r.RegisterKeyWrap(s)
	}
}

// aesKeyWrap implements RFC 3394 AES Key Wrap. keyBytes must be a multiple
// of 8 bytes and at least 16 bytes (two 64-bit semiblocks).
func aesKeyWrap(kek, keyBytes []byte) ([]byte, error) {
	if len(keyBytes)%8 != 0 || len(keyBytes) < 16 {
		return nil, newEncryptionError("key-wrap input must be a multiple of 8 bytes, >= 16", nil)
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, newEncryptionError("failed to init AES KEK", err)
	}

	n := len(keyBytes) / 8
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], keyBytes[i*8:(i+1)*8])
	}

	a := aesKeyWrapIV
	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Encrypt(buf, buf)

			t := uint64(n*j + i)
			var aInt uint64
			aInt = binary.BigEndian.Uint64(buf[:8])
			aInt ^= t
			binary.BigEndian.PutUint64(a[:], aInt)
			copy(r[i-1][:], buf[8:])
		}
	}

	out := make([]byte, 8+len(keyBytes))
	copy(out[:8], a[:])
	for i := 0; i < n; i++ {
		copy(out[8+i*8:8+(i+1)*8], r[i][:])
	}
	return out, nil
}

// aesKeyUnwrap is the inverse of aesKeyWrap. wrapped must be 8 bytes longer
// than the original key (the prepended integrity-check register).
func aesKeyUnwrap(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped)%8 != 0 || len(wrapped) < 24 {
		return nil, newEncryptionError("wrapped key must be a multiple of 8 bytes, >= 24", nil)
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, newEncryptionError("failed to init AES KEK", err)
	}

	n := len(wrapped)/8 - 1
	var a [8]byte
	copy(a[:], wrapped[:8])
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], wrapped[8+i*8:8+(i+1)*8])
	}

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			var aInt uint64
			aInt = binary.BigEndian.Uint64(a[:])
			aInt ^= t
			binary.BigEndian.PutUint64(buf[:8], aInt)
			copy(buf[8:], r[i-1][:])
			block.Decrypt(buf, buf)

			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}

	if a != aesKeyWrapIV {
		return nil, newEncryptionError("key-wrap integrity check failed", nil)
	}

	out := make([]byte, n*8)
	for i := 0; i < n; i++ {
		copy(out[i*8:(i+1)*8], r[i][:])
	}
	return out, nil
}

// tripleDESKeyWrap implements a CMS-style TripleDES key-wrap construction
// (RFC 3217): two CBC passes with a byte reversal in between, where ICV is
// the 8-byte SHA-1-derived check value over the CEK. IV1 is the fixed
// RFC 3217 constant and IV2 is the low-order 8 bytes of the first
// ciphertext pass, reversed.
var tripleDESKeyWrapIV1 = [8]byte{0x4a, 0xdd, 0xa2, 0x2c, 0x79, 0xe8, 0x21, 0x05}

func tripleDESKeyWrap(kek, keyBytes []byte) ([]byte, error) {
	block, err := des.NewTripleDESCipher(kek)
	if err != nil {
		return nil, newEncryptionError("failed to init 3DES KEK", err)
	}

	icv := tripleDESCheckValue(keyBytes)
	cekICV := append(append([]byte{}, keyBytes...), icv...)

	// cbcEncrypt applies the single PKCS#7 layer that unwrap strips.
	pass1 := cbcEncrypt(block, tripleDESKeyWrapIV1[:], cekICV)

	iv2 := make([]byte, des.BlockSize)
	for i := 0; i < des.BlockSize; i++ {
		iv2[i] = pass1[len(pass1)-des.BlockSize+i]
	}
	reverseBytes(iv2)

	reversedPass1 := append([]byte{}, pass1...)
	reverseBytes(reversedPass1)

	pass2 := make([]byte, len(reversedPass1))
	mode := cipher.NewCBCEncrypter(block, iv2)
	mode.CryptBlocks(pass2, reversedPass1)

	return append(iv2, pass2...), nil
}

func tripleDESKeyUnwrap(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped) <= des.BlockSize {
		return nil, newEncryptionError("wrapped key too short", nil)
	}
	block, err := des.NewTripleDESCipher(kek)
	if err != nil {
		return nil, newEncryptionError("failed to init 3DES KEK", err)
	}

	iv2 := wrapped[:des.BlockSize]
	pass2 := wrapped[des.BlockSize:]

	reversedPass1 := make([]byte, len(pass2))
	mode := cipher.NewCBCDecrypter(block, iv2)
	mode.CryptBlocks(reversedPass1, pass2)

	pass1 := append([]byte{}, reversedPass1...)
	reverseBytes(pass1)

	padded, err := cbcDecryptRaw(block, tripleDESKeyWrapIV1[:], pass1)
	if err != nil {
		return nil, err
	}
	cekICV, err := pkcs7Unpad(padded, des.BlockSize)
	if err != nil {
		return nil, err
	}
	if len(cekICV) < 8 {
		return nil, newEncryptionError("unwrapped key-wrap payload too short", nil)
	}
	cek := cekICV[:len(cekICV)-8]
	icv := cekICV[len(cekICV)-8:]
	if !bytesEqual(icv, tripleDESCheckValue(cek)) {
		return nil, newEncryptionError("key-wrap integrity check failed", nil)
	}
	return cek, nil
}

func cbcDecryptRaw(block cipher.Block, iv, ct []byte) ([]byte, error) {
	if len(ct)%block.BlockSize() != 0 {
		return nil, newEncryptionError("ciphertext is not a multiple of the block size", nil)
	}
	pt := make([]byte, len(ct))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(pt, ct)
	return pt, nil
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// tripleDESCheckValue derives the 8-byte integrity check value RFC 3217
// defines as the first 8 octets of the SHA-1 hash of the CEK.
func tripleDESCheckValue(cek []byte) []byte {
	h := sha1Sum(cek)
	return h[:8]
}
