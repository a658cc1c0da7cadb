package xmlsecgo

// SPDX-License-Identifier: MIT
//
// KeySelector owns the PKI-path and trust decision: anything that can
// hand back a key given a KeyInfo.

import "crypto"

// KeySelector resolves a verification or decryption key from a KeyInfo.
type KeySelector interface {
	// SelectVerificationKey returns the public key to verify a signature
	// whose KeyInfo is ki.
	SelectVerificationKey(ki *KeyInfo) (crypto.PublicKey, error)

	// SelectDecryptionKey returns the key (either a symmetric []byte or an
	// asymmetric crypto.PrivateKey) to decrypt data whose KeyInfo is ki.
	SelectDecryptionKey(ki *KeyInfo) (interface{}, error)
}

// EncryptedKeyResolver resolves the data-encryption key by unwrapping the
// EncryptedKey found in a KeyInfo, using a caller-held KEK. Registered
// transiently by XMLCipher's decrypt flow when no key has been set
// directly.
type EncryptedKeyResolver struct {
	// KEK is the key-encryption-key used to unwrap the EncryptedKey.
	KEK []byte
	// KEKPrivateKey is used instead of KEK when the EncryptedKey's
	// EncryptionMethod maps to the "RSA" key kind.
	KEKPrivateKey crypto.PrivateKey
}

// Resolve unwraps ek using the resolver's KEK, returning the raw data
// key bytes.
func (r *EncryptedKeyResolver) Resolve(ctx *Context, ek *EncryptedKey) ([]byte, error) {
	cipher, err := NewXMLCipher(ctx)
	if err != nil {
		return nil, err
	}
	defer cipher.Close()

	if ek.EncryptionMethod == nil {
		return nil, newKeyResolutionError("EncryptedKey missing EncryptionMethod", nil)
	}

	kind, kindErr := ctx.registry().LookupKeyAlgorithm(ek.EncryptionMethod.Algorithm)
	if kindErr == nil && kind == "RSA" && r.KEKPrivateKey != nil {
		if err := cipher.initMode(ModeUnwrap, nil); err != nil {
			return nil, err
		}
		cipher.kekPrivateKey = r.KEKPrivateKey
	} else {
		if err := cipher.initMode(ModeUnwrap, r.KEK); err != nil {
			return nil, err
		}
	}

	return cipher.decryptKeyBytes(ek)
}
