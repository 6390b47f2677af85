package provider

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/contractmock/pkg/config"
	"github.com/getmockd/contractmock/pkg/logging"
	"github.com/getmockd/contractmock/pkg/metrics"
	"github.com/getmockd/contractmock/pkg/model"
)

// Config is the listener configuration.
type Config = config.MockServerConfig

// Lifecycle errors.
var (
	ErrAlreadyStarted = errors.New("mock provider already started")
	ErrNotStarted     = errors.New("mock provider was not started")
	ErrStopped        = errors.New("mock provider was stopped")
)

// State is the listener lifecycle state. A Server moves from StateUnbound
// to StateStarted to StateStopped and never back.
type State int

// Lifecycle states.
const (
	StateUnbound State = iota
	StateStarted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

const (
	readHeaderTimeout       = 30 * time.Second
	substituteLookupTimeout = 2 * time.Second
)

// Server is a mock provider listener. It is single-use: once stopped it
// cannot be started again.
type Server struct {
	cfg         Config
	log         *slog.Logger
	metrics     *metrics.Metrics
	maxBodySize int64
	handler     *Handler
	tlsManager  *TLSManager

	mu         sync.RWMutex
	state      State
	listener   net.Listener
	httpServer *http.Server
	done       chan struct{}

	// substituteAddrs holds SubstituteHosts resolved to addresses at Start.
	substituteAddrs []string
}

// New creates a listener that answers requests with gen. The configuration
// is copied; later changes to cfg have no effect.
func New(cfg Config, gen model.Generator, opts ...Option) (*Server, error) {
	if gen == nil {
		return nil, errors.New("mock provider requires a response generator")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mock provider configuration: %w", err)
	}
	cfg.SubstituteHosts = slices.Clone(cfg.SubstituteHosts)
	if cfg.TLS != nil {
		tlsCfg := *cfg.TLS
		cfg.TLS = &tlsCfg
	}

	s := &Server{
		cfg:         cfg,
		log:         logging.Nop(),
		maxBodySize: cfg.MaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler = &Handler{
		gen:         gen,
		log:         s.log,
		metrics:     s.metrics,
		maxBodySize: s.maxBodySize,
	}
	if cfg.IsTLS() {
		s.tlsManager = NewTLSManager(cfg.TLS, cfg.Hostname)
	}
	return s, nil
}

// Handler returns the request pipeline, e.g. for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the configured address and begins serving in the background.
// With port 0 the OS picks a free port; Port and URL report it.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStarted:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrStopped
	}

	var tlsConfig *tls.Config
	if s.tlsManager != nil {
		var err error
		tlsConfig, err = s.tlsManager.BuildConfig()
		if err != nil {
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
	}

	addr := net.JoinHostPort(s.cfg.Hostname, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
	}
	done := make(chan struct{})

	s.listener = ln
	s.httpServer = srv
	s.done = done
	s.state = StateStarted
	s.substituteAddrs = s.resolveSubstituteHosts()

	s.log.Info("mock provider started", "url", s.urlLocked(), "transport", s.Transport())
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("mock provider stopped serving", "error", err)
		}
	}()
	return nil
}

// Stop stops accepting connections, waits up to the shutdown timeout for
// in-flight requests and then closes whatever is left. Shutdown problems
// are logged, not returned. Stopping twice is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	switch s.state {
	case StateUnbound:
		s.mu.Unlock()
		return ErrNotStarted
	case StateStopped:
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopped
	srv, done := s.httpServer, s.done
	s.mu.Unlock()

	timeout := s.cfg.ShutdownTimeout.Std()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.log.Warn("mock provider did not drain in time, closing connections", "timeout", timeout, "error", err)
	}
	if err := srv.Close(); err != nil {
		s.log.Warn("failed to close mock provider", "error", err)
	}
	<-done

	s.log.Info("mock provider stopped")
	return nil
}

// State returns the lifecycle state.
func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portLocked()
}

// URL returns the base URL clients should use, or "" before Start.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.urlLocked()
}

// Transport reports "https" in TLS mode and "http" otherwise.
func (s *Server) Transport() string {
	if s.cfg.IsTLS() {
		return string(config.SchemeHTTPS)
	}
	return string(config.SchemeHTTP)
}

// TLSCertificate returns the certificate served in HTTPS mode, or nil.
func (s *Server) TLSCertificate() *x509.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tlsManager == nil {
		return nil
	}
	return s.tlsManager.Certificate()
}

func (s *Server) portLocked() int {
	if s.listener == nil {
		return 0
	}
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

func (s *Server) urlLocked() string {
	u := url.URL{
		Scheme: s.Transport(),
		Host:   net.JoinHostPort(s.reportedHost(), strconv.Itoa(s.portLocked())),
	}
	return u.String()
}

// resolveSubstituteHosts turns SubstituteHosts into the addresses they stand
// for. Names that cannot be resolved only match themselves.
func (s *Server) resolveSubstituteHosts() []string {
	var addrs []string
	for _, host := range s.cfg.SubstituteHosts {
		if ip := net.ParseIP(host); ip != nil {
			addrs = append(addrs, ip.String())
			continue
		}
		addrs = append(addrs, host)
		ctx, cancel := context.WithTimeout(context.Background(), substituteLookupTimeout)
		resolved, err := net.DefaultResolver.LookupHost(ctx, host)
		cancel()
		if err != nil {
			s.log.Debug("could not resolve substitute host", "host", host, "error", err)
			continue
		}
		for _, a := range resolved {
			if ip := net.ParseIP(a); ip != nil {
				addrs = append(addrs, ip.String())
			}
		}
	}
	return addrs
}

// reportedHost is the bound IP, or the configured hostname when bound to
// all interfaces. A bound IP matching one of the substitute hosts, by
// address or by resolved name, is replaced by the configured hostname.
func (s *Server) reportedHost() string {
	host := s.cfg.Hostname
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok && !tcp.IP.IsUnspecified() {
		host = tcp.IP.String()
	}
	if slices.Contains(s.substituteAddrs, host) {
		host = s.cfg.Hostname
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return host
}
