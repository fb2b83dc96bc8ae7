package tls

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePrivateKey(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	require.NotNil(t, key)

	assert.Equal(t, keyBits, key.N.BitLen())
	require.NoError(t, key.Validate())
}

func TestCreateCertificateTemplate(t *testing.T) {
	cfg := &CertificateConfig{
		Organization: "Test Org",
		CommonName:   "test.local",
		DNSNames:     []string{"test.local", "localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		ValidFor:     24 * time.Hour,
		IsCA:         true,
	}

	template, err := CreateCertificateTemplate(cfg)
	require.NoError(t, err)
	require.NotNil(t, template)

	assert.Equal(t, "Test Org", template.Subject.Organization[0])
	assert.Equal(t, "test.local", template.Subject.CommonName)
	assert.Contains(t, template.DNSNames, "test.local")
	assert.Contains(t, template.DNSNames, "localhost")
	assert.True(t, template.IsCA)
	assert.NotNil(t, template.SerialNumber)
}

func TestCreateCertificateTemplate_NilConfig(t *testing.T) {
	template, err := CreateCertificateTemplate(nil)
	require.NoError(t, err)
	require.NotNil(t, template)

	// Should use defaults
	assert.Equal(t, "testkit", template.Subject.Organization[0])
	assert.Equal(t, "localhost", template.Subject.CommonName)
	assert.Contains(t, template.DNSNames, "localhost")
	require.NotEmpty(t, template.URIs)
	assert.Equal(t, "https://localhost", template.URIs[0].String())
	assert.False(t, template.IsCA)
}

func TestGenerateSelfSignedCert(t *testing.T) {
	gen, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)
	require.NotNil(t, gen)

	cert := gen.Certificate
	assert.Equal(t, "localhost", cert.Subject.CommonName)
	assert.True(t, cert.NotAfter.After(time.Now()))
	require.Len(t, cert.URIs, 1)
	assert.Equal(t, "https://localhost", cert.URIs[0].String())

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	require.True(t, ok, "expected an RSA public key")
	assert.Equal(t, keyBits, pub.N.BitLen())

	require.NoError(t, VerifyKeyPair(cert, gen.PrivateKey))

	_, err = gen.TLSCertificate()
	require.NoError(t, err)
}

func TestGenerateSelfSignedCert_PEMRoundTrip(t *testing.T) {
	gen, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	block, _ := pem.Decode(gen.CertPEM)
	require.NotNil(t, block)
	assert.Equal(t, "CERTIFICATE", block.Type)

	parsed, err := DecodeCertFromPEM(gen.CertPEM)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(gen.Certificate))

	key, err := DecodeKeyFromPEM(gen.KeyPEM)
	require.NoError(t, err)
	assert.True(t, key.Equal(gen.PrivateKey))
}

func TestGenerateSelfSignedCert_TrustedByPool(t *testing.T) {
	gen, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM(gen.CertPEM))

	_, err = gen.Certificate.Verify(x509.VerifyOptions{
		Roots:   pool,
		DNSName: "localhost",
	})
	require.NoError(t, err)
}

func TestDecodeCertFromPEM_Invalid(t *testing.T) {
	_, err := DecodeCertFromPEM([]byte("not pem at all"))
	assert.Error(t, err)

	keyOnly, err := GeneratePrivateKey()
	require.NoError(t, err)
	keyPEM, err := EncodeKeyToPEM(keyOnly)
	require.NoError(t, err)

	_, err = DecodeCertFromPEM(keyPEM)
	assert.Error(t, err)
}

func TestDecodeKeyFromPEM_Invalid(t *testing.T) {
	_, err := DecodeKeyFromPEM([]byte("garbage"))
	assert.Error(t, err)

	gen, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	_, err = DecodeKeyFromPEM(gen.CertPEM)
	assert.Error(t, err)
}
