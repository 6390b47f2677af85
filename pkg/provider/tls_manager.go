package provider

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/getmockd/contractmock/pkg/config"
	mocktls "github.com/getmockd/contractmock/pkg/tls"
)

// TLSManager builds the TLS configuration for HTTPS mode.
type TLSManager struct {
	cfg      *config.TLSConfig
	hostname string
	cert     *tls.Certificate
}

// NewTLSManager creates a TLSManager. A nil cfg, or one without certificate
// files, generates a self-signed certificate covering hostname.
func NewTLSManager(cfg *config.TLSConfig, hostname string) *TLSManager {
	return &TLSManager{
		cfg:      cfg,
		hostname: hostname,
	}
}

// BuildConfig loads or generates the server certificate.
func (tm *TLSManager) BuildConfig() (*tls.Config, error) {
	var cert tls.Certificate
	if tm.cfg.AutoGenerate() {
		gen, err := mocktls.GenerateSelfSignedCert(mocktls.DefaultCertificateConfig(tm.hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to generate certificate: %w", err)
		}
		cert, err = gen.TLSCertificate()
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		cert, err = mocktls.LoadKeyPair(tm.cfg.CertFile, tm.cfg.KeyFile, tm.cfg.KeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load certificate: %w", err)
		}
	}
	tm.cert = &cert

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Certificate returns the leaf certificate served, or nil before
// BuildConfig succeeded.
func (tm *TLSManager) Certificate() *x509.Certificate {
	if tm.cert == nil {
		return nil
	}
	if tm.cert.Leaf != nil {
		return tm.cert.Leaf
	}
	if len(tm.cert.Certificate) == 0 {
		return nil
	}
	leaf, err := x509.ParseCertificate(tm.cert.Certificate[0])
	if err != nil {
		return nil
	}
	return leaf
}
