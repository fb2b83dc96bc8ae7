package cli

import (
	"path/filepath"
	"testing"
	"time"

	testkittls "github.com/getmockd/testkit/pkg/tls"
)

func TestRunCert(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")

	certFlagVals = certFlags{
		certPath: certPath,
		keyPath:  keyPath,
		cn:       "api.test",
		hosts:    []string{"extra.test", "10.0.0.5", " ", "api.test"},
		validFor: time.Hour,
	}

	if err := runCert(nil, nil); err != nil {
		t.Fatalf("runCert: %v", err)
	}

	pair, err := testkittls.LoadCertFromFiles(certPath, keyPath)
	if err != nil {
		t.Fatalf("loading generated pair: %v", err)
	}

	cert := pair.Certificate
	if cert.Subject.CommonName != "api.test" {
		t.Errorf("CommonName = %q, want %q", cert.Subject.CommonName, "api.test")
	}
	for _, name := range []string{"localhost", "api.test", "extra.test"} {
		if !containsFold(cert.DNSNames, name) {
			t.Errorf("DNSNames %v missing %q", cert.DNSNames, name)
		}
	}
	foundIP := false
	for _, ip := range cert.IPAddresses {
		if ip.String() == "10.0.0.5" {
			foundIP = true
		}
	}
	if !foundIP {
		t.Errorf("IPAddresses %v missing 10.0.0.5", cert.IPAddresses)
	}

	if err := testkittls.VerifyKeyPair(cert, pair.PrivateKey); err != nil {
		t.Errorf("generated pair does not match: %v", err)
	}
}

func TestContainsFold(t *testing.T) {
	values := []string{"localhost", "API.test"}
	if !containsFold(values, "LOCALHOST") {
		t.Error("expected case-insensitive match")
	}
	if !containsFold(values, "api.test") {
		t.Error("expected case-insensitive match")
	}
	if containsFold(values, "other") {
		t.Error("unexpected match")
	}
}
