package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Block-cipher primitives wired into the registry: TripleDES-CBC and
// AES-{128,192,256}-CBC over stdlib crypto/aes and crypto/des.

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
)

func registerBuiltinCiphers(r *registryImpl) {
	suites := []CipherSuite{
		{
			URI:       TripleDESCBCAlgorithmID,
			KeySize:   24,
			BlockSize: des.BlockSize,
			NewBlock: func(key []byte) (cipher.Block, error) {
				return des.NewTripleDESCipher(key)
			},
		},
		{
			URI:       AES128CBCAlgorithmID,
			KeySize:   16,
			BlockSize: aes.BlockSize,
			NewBlock:  aes.NewCipher,
		},
		{
			URI:       AES192CBCAlgorithmID,
			KeySize:   24,
			BlockSize: aes.BlockSize,
			NewBlock:  aes.NewCipher,
		},
		{
			URI:       AES256CBCAlgorithmID,
			KeySize:   32,
			BlockSize: aes.BlockSize,
			NewBlock:  aes.NewCipher,
		},
	}
	for _, s := range suites {
		_ = r.RegisterCipher(s)
	}
}

func registerBuiltinKeyAlgorithms(r *registryImpl) {
	kinds := map[AlgorithmID]string{
		RSAv15KeyTransportAlgorithmID:  "RSA",
		RSAOAEPKeyTransportAlgorithmID: "RSA",
		TripleDESKeyWrapAlgorithmID:    "AES", // symmetric KEK family
		AES128KeyWrapAlgorithmID:       "AES",
		AES192KeyWrapAlgorithmID:       "AES",
		AES256KeyWrapAlgorithmID:       "AES",
		TripleDESCBCAlgorithmID:        "AES",
		AES128CBCAlgorithmID:           "AES",
		AES192CBCAlgorithmID:           "AES",
		AES256CBCAlgorithmID:           "AES",
	}
	for uri, kind := range kinds {
		_ = r.RegisterKeyAlgorithm(uri, kind)
	}
}

// cbcEncrypt pads pt with PKCS#7 to a multiple of the block size, generates
// no IV itself (callers supply and prepend the IV), and returns the
// ciphertext.
func cbcEncrypt(block cipher.Block, iv, pt []byte) []byte {
	padded := pkcs7Pad(pt, block.BlockSize())
	ct := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ct, padded)
	return ct
}

func cbcDecrypt(block cipher.Block, iv, ct []byte) ([]byte, error) {
	if len(ct) == 0 || len(ct)%block.BlockSize() != 0 {
		return nil, newEncryptionError("ciphertext is not a multiple of the block size", nil)
	}
	pt := make([]byte, len(ct))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(pt, ct)
	return pkcs7Unpad(pt, block.BlockSize())
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - (len(data) % blockSize)
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, newEncryptionError("invalid padded length", nil)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, newEncryptionError("invalid PKCS#7 padding", nil)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, newEncryptionError("invalid PKCS#7 padding", nil)
		}
	}
	return data[:len(data)-padLen], nil
}
