package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrPassphraseRequired is returned when the private key is encrypted and no
// passphrase was configured.
var ErrPassphraseRequired = errors.New("private key is encrypted but no passphrase was given")

// ErrUnsupportedKeyEncryption is returned for PKCS#8 "ENCRYPTED PRIVATE KEY"
// blocks. Only RFC 1423 encrypted PEM keys can be decrypted.
var ErrUnsupportedKeyEncryption = errors.New(
	"PKCS#8 encrypted private keys are not supported; decrypt the key first " +
		"(openssl pkcs8 -in key.pem -out plain.pem) or use a traditional encrypted PEM key")

// LoadKeyPair reads a PEM certificate chain and private key from disk. An
// RFC 1423 encrypted private key is decrypted with passphrase.
func LoadKeyPair(certFile, keyFile, passphrase string) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to read certificate file: %w", err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to read key file: %w", err)
	}

	keyPEM, err = decryptKeyPEM(keyPEM, passphrase)
	if err != nil {
		return tls.Certificate{}, err
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to load key pair: %w", err)
	}
	return cert, nil
}

func decryptKeyPEM(keyPEM []byte, passphrase string) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.New("failed to decode PEM block from key file")
	}
	if block.Type == "ENCRYPTED PRIVATE KEY" {
		return nil, ErrUnsupportedKeyEncryption
	}
	//nolint:staticcheck // legacy PEM encryption is what keystore exports still produce
	if !x509.IsEncryptedPEMBlock(block) {
		return keyPEM, nil
	}
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	//nolint:staticcheck // see above
	der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}
