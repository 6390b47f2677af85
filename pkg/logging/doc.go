// Package logging provides structured logging configuration for contractmock.
//
// This package wraps log/slog so the mock provider, the matcher registry and
// the CLI share one logging setup.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("mock provider started", "url", srv.URL())
//
// # Integration
//
// Components accept a *slog.Logger through a functional option. When none
// is given they fall back to logging.Nop().
package logging
