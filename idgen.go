package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Default Id generation for generated Signature, EncryptedData, and
// EncryptedKey elements. UUIDs rather than timestamps: two elements built
// in the same nanosecond must not collide.

import "github.com/google/uuid"

func generateID() string {
	return "xmlsec-" + uuid.NewString()
}
