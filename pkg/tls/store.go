package tls

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SaveCertToFiles saves a certificate and private key to PEM files.
func SaveCertToFiles(cert *GeneratedCertificate, certPath, keyPath string) error {
	if cert == nil {
		return errors.New("certificate cannot be nil")
	}

	if err := os.MkdirAll(filepath.Dir(certPath), 0755); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	if err := os.WriteFile(certPath, cert.CertPEM, 0644); err != nil {
		return fmt.Errorf("failed to write certificate file: %w", err)
	}

	// Key gets restricted permissions; drop the cert if the key fails.
	if err := os.WriteFile(keyPath, cert.KeyPEM, 0600); err != nil {
		_ = os.Remove(certPath)
		return fmt.Errorf("failed to write key file: %w", err)
	}

	return nil
}

// LoadCertFromFiles loads a certificate and private key from PEM files.
func LoadCertFromFiles(certPath, keyPath string) (*GeneratedCertificate, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	cert, err := DecodeCertFromPEM(certPEM)
	if err != nil {
		return nil, err
	}

	key, err := DecodeKeyFromPEM(keyPEM)
	if err != nil {
		return nil, err
	}

	return &GeneratedCertificate{
		Certificate: cert,
		PrivateKey:  key,
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
	}, nil
}

// LoadTLSCertificate loads certificate and key files and returns a tls.Certificate.
func LoadTLSCertificate(certPath, keyPath string) (tls.Certificate, error) {
	return tls.LoadX509KeyPair(certPath, keyPath)
}

// GenerateAndSave generates a new self-signed certificate and saves it to files.
func GenerateAndSave(cfg *CertificateConfig, certPath, keyPath string) (*GeneratedCertificate, error) {
	cert, err := GenerateSelfSignedCert(cfg)
	if err != nil {
		return nil, err
	}

	if err := SaveCertToFiles(cert, certPath, keyPath); err != nil {
		return nil, err
	}

	return cert, nil
}

// EnsureCertificate loads the pair at the given paths when both files
// exist and generates a fresh one otherwise.
func EnsureCertificate(cfg *CertificateConfig, certPath, keyPath string) (*GeneratedCertificate, error) {
	_, certErr := os.Stat(certPath)
	_, keyErr := os.Stat(keyPath)

	if certErr == nil && keyErr == nil {
		return LoadCertFromFiles(certPath, keyPath)
	}

	return GenerateAndSave(cfg, certPath, keyPath)
}

// CertificateInfo contains human-readable information about a certificate.
type CertificateInfo struct {
	Subject      string
	Issuer       string
	SerialNumber string
	NotBefore    string
	NotAfter     string
	DNSNames     []string
	IPAddresses  []string
	URIs         []string
	IsCA         bool
}

// GetCertificateInfo extracts information from a certificate.
func GetCertificateInfo(cert *x509.Certificate) *CertificateInfo {
	ipAddresses := make([]string, len(cert.IPAddresses))
	for i, ip := range cert.IPAddresses {
		ipAddresses[i] = ip.String()
	}

	uris := make([]string, len(cert.URIs))
	for i, u := range cert.URIs {
		uris[i] = u.String()
	}

	return &CertificateInfo{
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		SerialNumber: cert.SerialNumber.String(),
		NotBefore:    cert.NotBefore.Format("2006-01-02 15:04:05"),
		NotAfter:     cert.NotAfter.Format("2006-01-02 15:04:05"),
		DNSNames:     cert.DNSNames,
		IPAddresses:  ipAddresses,
		URIs:         uris,
		IsCA:         cert.IsCA,
	}
}

// VerifyKeyPair verifies that a certificate and private key form a valid pair.
func VerifyKeyPair(cert *x509.Certificate, key *rsa.PrivateKey) error {
	certPubKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("certificate public key is not RSA")
	}

	if !certPubKey.Equal(&key.PublicKey) {
		return errors.New("private key does not match certificate public key")
	}

	return nil
}
