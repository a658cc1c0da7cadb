package xmlsecgo

// SPDX-License-Identifier: MIT
// P12KeySelector: a KeySelector backed by a PKCS#12 identity, able to
// verify against an X.509 certificate carried in a signature's KeyInfo or
// decrypt using the bundled private key.

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"
)

// P12KeySelector is a KeySelector backed by a single PKCS#12 identity: a
// private key, its certificate, and any CA certificates bundled alongside
// it. Grounded on certManager.decodeP12Cert.
type P12KeySelector struct {
	privateKey *rsa.PrivateKey
	publicCert *x509.Certificate
	caCerts    []*x509.Certificate

	expired    bool
	expireSoon bool
	expireDays uint16
}

// LoadP12KeySelector reads and decodes a PKCS#12 bundle from path, protected
// by password, into a P12KeySelector.
func LoadP12KeySelector(path, password string) (*P12KeySelector, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newKeyResolutionError("failed to read PKCS#12 bundle", err)
	}
	return NewP12KeySelectorFromBytes(raw, password)
}

// NewP12KeySelectorFromBytes decodes a PKCS#12 bundle already in memory.
func NewP12KeySelectorFromBytes(raw []byte, password string) (*P12KeySelector, error) {
	pemBlocks, err := pkcs12.ToPEM(raw, password)
	if err != nil {
		return nil, newKeyResolutionError("failed to convert PKCS#12 to PEM", err)
	}

	sel := &P12KeySelector{}
	for _, block := range pemBlocks {
		switch block.Type {
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
				if err != nil {
					return nil, newKeyResolutionError("failed to parse private key", err)
				}
			}
			rsaKey, ok := key.(*rsa.PrivateKey)
			if !ok {
				return nil, newKeyResolutionError("PKCS#12 private key is not RSA", nil)
			}
			sel.privateKey = rsaKey
		case "CERTIFICATE":
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, newKeyResolutionError("failed to parse certificate", err)
			}
			if cert.IsCA {
				sel.caCerts = append(sel.caCerts, cert)
			} else {
				sel.publicCert = cert
			}
		}
	}

	if sel.privateKey == nil {
		return nil, newKeyResolutionError("PKCS#12 bundle has no private key", nil)
	}
	if sel.publicCert == nil {
		return nil, newKeyResolutionError("PKCS#12 bundle has no leaf certificate", nil)
	}

	now := time.Now()
	if now.Before(sel.publicCert.NotBefore) {
		return nil, newKeyResolutionError("certificate not yet valid", nil)
	}
	sel.expired = now.After(sel.publicCert.NotAfter)
	daysLeft := sel.publicCert.NotAfter.Sub(now).Hours() / 24
	sel.expireDays = uint16(daysLeft)
	sel.expireSoon = daysLeft <= 30

	return sel, nil
}

// Certificate returns the leaf certificate this selector holds.
func (s *P12KeySelector) Certificate() *x509.Certificate { return s.publicCert }

// PrivateKey returns the RSA private key this selector holds.
func (s *P12KeySelector) PrivateKey() *rsa.PrivateKey { return s.privateKey }

// Expired reports whether the leaf certificate's validity period has
// already ended.
func (s *P12KeySelector) Expired() bool { return s.expired }

// ExpiresSoon reports whether the leaf certificate expires within 30 days.
func (s *P12KeySelector) ExpiresSoon() bool { return s.expireSoon }

// SelectVerificationKey implements KeySelector: parses the first
// X509Certificate ki carries and trusts it directly, without comparing it
// to this selector's own certificate (PKI path building is delegated to the
// caller — this is the trivial "trust what KeyInfo says" selector). When ki
// is nil or carries no certificate, the selector's own certificate's public
// key is returned, or an error when no certificate is loaded.
func (s *P12KeySelector) SelectVerificationKey(ki *KeyInfo) (crypto.PublicKey, error) {
	if ki == nil || len(ki.X509Certificates) == 0 {
		if s.publicCert != nil {
			return s.publicCert.PublicKey, nil
		}
		return nil, newKeyResolutionError("KeyInfo carries no X509Certificate and no default is configured", nil)
	}
	cert, err := x509.ParseCertificate(ki.X509Certificates[0])
	if err != nil {
		return nil, newKeyResolutionError("failed to parse X509Certificate from KeyInfo", err)
	}
	return cert.PublicKey, nil
}

// SelectDecryptionKey implements KeySelector, returning this selector's own
// RSA private key regardless of ki's contents (a single-identity selector
// has nothing else to offer).
func (s *P12KeySelector) SelectDecryptionKey(ki *KeyInfo) (interface{}, error) {
	if s.privateKey == nil {
		return nil, newKeyResolutionError("no private key loaded", nil)
	}
	return s.privateKey, nil
}
