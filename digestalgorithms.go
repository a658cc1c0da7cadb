package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Digest primitives wired into the registry. RIPEMD-160 comes from
// golang.org/x/crypto/ripemd160; the standard library has no
// implementation.

import (
	"crypto"
	_ "crypto/md5"    // side-effect: crypto.RegisterHash(crypto.MD5, ...)
	_ "crypto/sha1"   // side-effect: crypto.RegisterHash(crypto.SHA1, ...)
	_ "crypto/sha256" // side-effect: crypto.RegisterHash(crypto.SHA256, ...)
	_ "crypto/sha512" // side-effect: crypto.RegisterHash(crypto.SHA512, ...)

	_ "golang.org/x/crypto/ripemd160" // side-effect: crypto.RegisterHash(crypto.RIPEMD160, ...)
)

func registerBuiltinDigests(r *registryImpl) {
	suites := []DigestSuite{
		{URI: DigestSHA1AlgorithmID, Hash: crypto.SHA1},
		{URI: DigestSHA256AlgorithmID, Hash: crypto.SHA256},
		{URI: DigestSHA512AlgorithmID, Hash: crypto.SHA512},
		{URI: DigestRIPEMD160AlgorithmID, Hash: crypto.RIPEMD160},
		// MD5 is registered so SetSecureValidation(true)'s deny-list has a
		// concrete algorithm to forbid; it is never the
		// recommended choice and secure-validation callers never see it.
		{URI: DigestMD5AlgorithmID, Hash: crypto.MD5},
	}
	for _, s := range suites {
		_ = r.RegisterDigest(s)
	}
}
