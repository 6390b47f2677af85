package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
)

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		case errors.Is(err, os.ErrPermission):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		default:
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result. Unknown
// fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	cfg.Server.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields. A TLS section without an explicit scheme
// implies https.
func (c *MockServerConfig) ApplyDefaults() {
	if c.Hostname == "" {
		c.Hostname = DefaultHostname
	}
	if c.Scheme == "" {
		if c.TLS != nil {
			c.Scheme = SchemeHTTPS
		} else {
			c.Scheme = SchemeHTTP
		}
	}
}
