package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Scheme selects plain HTTP or TLS for the mock provider.
type Scheme string

// Supported schemes.
const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// Default values.
const (
	DefaultHostname        = "127.0.0.1"
	DefaultShutdownTimeout = 20 * time.Second
)

// Duration is a time.Duration that reads Go duration strings ("250ms",
// "20s") from YAML. Bare integers are taken as milliseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var ms int64
	if err := node.Decode(&ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// TLSConfig holds the certificate material for HTTPS mode. When CertFile and
// KeyFile are empty a self-signed certificate is generated at start.
type TLSConfig struct {
	CertFile      string `yaml:"certFile,omitempty"`
	KeyFile       string `yaml:"keyFile,omitempty"`
	KeyPassphrase string `yaml:"keyPassphrase,omitempty"`
}

// AutoGenerate reports whether no certificate files were configured.
func (t *TLSConfig) AutoGenerate() bool {
	return t == nil || (t.CertFile == "" && t.KeyFile == "")
}

// MockServerConfig configures one mock provider listener.
type MockServerConfig struct {
	Hostname string `yaml:"hostname"`

	// Port to bind. 0 asks the OS for an ephemeral port.
	Port int `yaml:"port"`

	Scheme Scheme     `yaml:"scheme"`
	TLS    *TLSConfig `yaml:"tls,omitempty"`

	// ShutdownTimeout bounds how long Stop waits for in-flight requests
	// before connections are force-closed.
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`

	// SubstituteHosts lists addresses or host names that are replaced by
	// Hostname when building the provider URL. Names are resolved when the
	// provider starts and match when any of their addresses is the bound
	// one. Some sandboxed CI agents resolve the loopback address to a name
	// that clients cannot reach.
	SubstituteHosts []string `yaml:"substituteHosts,omitempty"`

	// MaxBodySize limits request bodies in bytes. 0 means unlimited.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`
}

// IsTLS reports whether the provider serves HTTPS.
func (c *MockServerConfig) IsTLS() bool {
	return c.Scheme == SchemeHTTPS
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// File additionally writes JSON logs to the given path.
	File string `yaml:"file,omitempty"`
}

// Config is the root of a configuration file.
type Config struct {
	Server  MockServerConfig `yaml:"server"`
	Logging LoggingConfig    `yaml:"logging"`

	// ContentTypeOverrides forces a body matcher for a content type. Values
	// are a matcher kind ("json", "text", ...) or another content type to
	// resolve instead.
	ContentTypeOverrides map[string]string `yaml:"contentTypeOverrides,omitempty"`
}

// DefaultServerConfig returns a plain HTTP provider on an ephemeral
// loopback port.
func DefaultServerConfig() MockServerConfig {
	return MockServerConfig{
		Hostname:        DefaultHostname,
		Port:            0,
		Scheme:          SchemeHTTP,
		ShutdownTimeout: Duration(DefaultShutdownTimeout),
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: DefaultServerConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
