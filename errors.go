package xmlsecgo

// SPDX-License-Identifier: MIT
// Typed error kinds carrying an unwrappable cause, so callers can
// errors.As on the kind the reference/cipher boundary reports.

import "fmt"

// MarshalError reports a structural problem reading an element: a missing
// required child, a malformed attribute, or an exceeded transform cap.
type MarshalError struct {
	Msg   string
	Cause error
}

func (e *MarshalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("xmlsecgo: marshal error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("xmlsecgo: marshal error: %s", e.Msg)
}

func (e *MarshalError) Unwrap() error { return e.Cause }

func newMarshalError(msg string, cause error) error {
	return &MarshalError{Msg: msg, Cause: cause}
}

// AlgorithmUnsupportedError reports a URI that has no registered primitive,
// or one forbidden by the registry's secure-validation deny-list.
type AlgorithmUnsupportedError struct {
	URI   string
	Cause error
}

func (e *AlgorithmUnsupportedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("xmlsecgo: algorithm unsupported %q: %v", e.URI, e.Cause)
	}
	return fmt.Sprintf("xmlsecgo: algorithm unsupported %q", e.URI)
}

func (e *AlgorithmUnsupportedError) Unwrap() error { return e.Cause }

func newAlgorithmUnsupportedError(uri string, cause error) error {
	return &AlgorithmUnsupportedError{URI: uri, Cause: cause}
}

// TransformError reports a transform that failed to produce its output,
// e.g. an XPath expression that yielded no required content.
type TransformError struct {
	Algorithm string
	Cause     error
}

func (e *TransformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("xmlsecgo: transform %q failed: %v", e.Algorithm, e.Cause)
	}
	return fmt.Sprintf("xmlsecgo: transform %q failed", e.Algorithm)
}

func (e *TransformError) Unwrap() error { return e.Cause }

func newTransformError(algorithm string, cause error) error {
	return &TransformError{Algorithm: algorithm, Cause: cause}
}

// CanonicalizationError reports a canonicalizer failure.
type CanonicalizationError struct {
	Cause error
}

func (e *CanonicalizationError) Error() string {
	return fmt.Sprintf("xmlsecgo: canonicalization failed: %v", e.Cause)
}

func (e *CanonicalizationError) Unwrap() error { return e.Cause }

func newCanonicalizationError(cause error) error {
	return &CanonicalizationError{Cause: cause}
}

// DigestError reports a digest primitive failure.
type DigestError struct {
	Cause error
}

func (e *DigestError) Error() string { return fmt.Sprintf("xmlsecgo: digest failed: %v", e.Cause) }
func (e *DigestError) Unwrap() error { return e.Cause }

func newDigestError(cause error) error { return &DigestError{Cause: cause} }

// SignatureError reports a signature primitive failure, or wraps any
// transform/primitive/parser error crossing the Reference boundary.
type SignatureError struct {
	Msg   string
	Cause error
}

func (e *SignatureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("xmlsecgo: signature error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("xmlsecgo: signature error: %s", e.Msg)
}

func (e *SignatureError) Unwrap() error { return e.Cause }

func newSignatureError(msg string, cause error) error {
	return &SignatureError{Msg: msg, Cause: cause}
}

// EncryptionError reports an encryption/decryption primitive failure, or
// wraps any error crossing the XMLCipher boundary.
type EncryptionError struct {
	Msg   string
	Cause error
}

func (e *EncryptionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("xmlsecgo: encryption error: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("xmlsecgo: encryption error: %s", e.Msg)
}

func (e *EncryptionError) Unwrap() error { return e.Cause }

func newEncryptionError(msg string, cause error) error {
	return &EncryptionError{Msg: msg, Cause: cause}
}

// KeyResolutionError reports a failure to resolve a key from KeyInfo.
type KeyResolutionError struct {
	Msg   string
	Cause error
}

func (e *KeyResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("xmlsecgo: key resolution failed: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("xmlsecgo: key resolution failed: %s", e.Msg)
}

func (e *KeyResolutionError) Unwrap() error { return e.Cause }

func newKeyResolutionError(msg string, cause error) error {
	return &KeyResolutionError{Msg: msg, Cause: cause}
}

// InvalidStateError reports an XMLCipher (or other stateful object) method
// invoked in the wrong mode or lifecycle state.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return fmt.Sprintf("xmlsecgo: invalid state: %s", e.Msg) }

func newInvalidStateError(msg string) error { return &InvalidStateError{Msg: msg} }

// InvalidInputError reports a null/empty required input, or a mismatched
// ReferenceList arm.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string { return fmt.Sprintf("xmlsecgo: invalid input: %s", e.Msg) }

func newInvalidInputError(msg string) error { return &InvalidInputError{Msg: msg} }
