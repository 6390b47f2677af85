package config

import (
	"fmt"
	"os"
)

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	for contentType, value := range c.ContentTypeOverrides {
		if contentType == "" {
			return &ValidationError{Field: "contentTypeOverrides", Message: "content type must not be empty"}
		}
		if value == "" {
			return &ValidationError{
				Field:   "contentTypeOverrides." + contentType,
				Message: "override value must not be empty",
			}
		}
	}
	return nil
}

// Validate checks a provider configuration.
func (c *MockServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: "port must be between 0 and 65535"}
	}
	if c.ShutdownTimeout < 0 {
		return &ValidationError{Field: "server.shutdownTimeout", Message: "must not be negative"}
	}
	if c.MaxBodySize < 0 {
		return &ValidationError{Field: "server.maxBodySize", Message: "must not be negative"}
	}

	switch c.Scheme {
	case SchemeHTTP:
		if c.TLS != nil {
			return &ValidationError{Field: "server.tls", Message: "tls material requires scheme https"}
		}
	case SchemeHTTPS:
		return c.TLS.Validate()
	default:
		return &ValidationError{Field: "server.scheme", Message: fmt.Sprintf("unsupported scheme %q", c.Scheme)}
	}
	return nil
}

// Validate checks that certificate and key are either both set and readable
// or both empty.
func (t *TLSConfig) Validate() error {
	if t.AutoGenerate() {
		if t != nil && t.KeyPassphrase != "" {
			return &ValidationError{Field: "server.tls.keyPassphrase", Message: "requires keyFile"}
		}
		return nil
	}
	if t.CertFile == "" {
		return &ValidationError{Field: "server.tls.certFile", Message: "certFile is required when keyFile is set"}
	}
	if t.KeyFile == "" {
		return &ValidationError{Field: "server.tls.keyFile", Message: "keyFile is required when certFile is set"}
	}
	files := []struct{ field, path string }{
		{"server.tls.certFile", t.CertFile},
		{"server.tls.keyFile", t.KeyFile},
	}
	for _, f := range files {
		field, path := f.field, f.path
		info, err := os.Stat(path)
		if err != nil {
			return &ValidationError{Field: field, Message: fmt.Sprintf("cannot access %s: %v", path, err)}
		}
		if info.IsDir() {
			return &ValidationError{Field: field, Message: fmt.Sprintf("%s is a directory", path)}
		}
	}
	return nil
}
