package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/getmockd/contractmock/pkg/config"
	"github.com/getmockd/contractmock/pkg/logging"
	"github.com/getmockd/contractmock/pkg/matchers"
)

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newLogger builds the process logger. When cfg.File is set, records are
// also appended to that file as JSON. The returned func closes the file.
func newLogger(cfg config.LoggingConfig, stderr io.Writer) (*slog.Logger, func() error, error) {
	console := logging.NewHandler(logging.Config{
		Level:  logging.ParseLevel(cfg.Level),
		Format: logging.ParseFormat(cfg.Format),
		Output: stderr,
	})
	if cfg.File == "" {
		return slog.New(console), func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	file := logging.NewHandler(logging.Config{
		Level:  logging.ParseLevel(cfg.Level),
		Format: logging.FormatJSON,
		Output: f,
	})
	return slog.New(logging.NewMultiHandler(console, file)), f.Close, nil
}

// newRegistry wires the content matcher registry used by the engine and
// the resolve command.
func newRegistry(overrides matchers.Overrides, opts ...matchers.RegistryOption) *matchers.Registry {
	catalogue := matchers.NewStaticCatalogue(matchers.CoreCatalogueEntries()...)
	catalogue.Register(matchers.ContentHandlerCatalogueEntries()...)
	return matchers.NewRegistry(append([]matchers.RegistryOption{
		matchers.WithCatalogue(catalogue),
		matchers.WithOverrides(overrides),
	}, opts...)...)
}
