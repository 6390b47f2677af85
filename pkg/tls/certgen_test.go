package tls

import (
	"crypto/elliptic"
	"crypto/x509"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCertificateConfig(t *testing.T) {
	cfg := DefaultCertificateConfig("")
	assert.Equal(t, []string{"localhost", "127.0.0.1", "::1"}, cfg.Hosts)

	cfg = DefaultCertificateConfig("localhost")
	assert.Equal(t, []string{"localhost", "127.0.0.1", "::1"}, cfg.Hosts)

	cfg = DefaultCertificateConfig("provider.test")
	assert.Equal(t, "provider.test", cfg.Hosts[0])
	assert.Len(t, cfg.Hosts, 4)
}

func TestGenerateSelfSignedCert(t *testing.T) {
	cert, err := GenerateSelfSignedCert(DefaultCertificateConfig("provider.test"))
	require.NoError(t, err)

	assert.Equal(t, elliptic.P256(), cert.PrivateKey.Curve)
	assert.Equal(t, "provider.test", cert.Certificate.Subject.CommonName)
	assert.Contains(t, cert.Certificate.DNSNames, "provider.test")
	assert.Contains(t, cert.Certificate.DNSNames, "localhost")
	assert.True(t, cert.Certificate.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
	assert.Contains(t, cert.Certificate.ExtKeyUsage, x509.ExtKeyUsageServerAuth)
	assert.True(t, cert.Certificate.NotAfter.After(time.Now().Add(23*time.Hour)))
	assert.NotEmpty(t, cert.CertPEM)
	assert.NotEmpty(t, cert.KeyPEM)

	// A client trusting the certificate can verify it for each host.
	pool := x509.NewCertPool()
	pool.AddCert(cert.Certificate)
	for _, host := range []string{"provider.test", "localhost", "127.0.0.1"} {
		_, err := cert.Certificate.Verify(x509.VerifyOptions{DNSName: host, Roots: pool})
		assert.NoError(t, err, host)
	}
}

func TestGenerateSelfSignedCert_NilConfig(t *testing.T) {
	cert, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cert.Certificate.Subject.CommonName)
	assert.Equal(t, "contractmock", cert.Certificate.Subject.Organization[0])
}

func TestGeneratedCertificate_TLSCertificate(t *testing.T) {
	cert, err := GenerateSelfSignedCert(nil)
	require.NoError(t, err)

	tlsCert, err := cert.TLSCertificate()
	require.NoError(t, err)
	assert.Len(t, tlsCert.Certificate, 1)
	assert.Same(t, cert.Certificate, tlsCert.Leaf)
}
