package provider

import (
	"log/slog"

	"github.com/getmockd/contractmock/pkg/metrics"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records request outcomes and faults.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMaxBodySize limits request bodies to n bytes, taking precedence over
// the configured value. Zero disables the limit.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		s.maxBodySize = n
	}
}
