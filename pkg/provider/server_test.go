package provider

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/contractmock/pkg/config"
	"github.com/getmockd/contractmock/pkg/model"
)

var okGenerator = model.GeneratorFunc(func(_ context.Context, req *model.Request) (*model.Response, error) {
	return &model.Response{
		Status: http.StatusOK,
		Body:   model.NewBody([]byte("path="+req.Path), "text/plain"),
	}, nil
})

func startServer(t *testing.T, cfg Config, gen model.Generator) *Server {
	t.Helper()
	srv, err := New(cfg, gen)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })
	return srv
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires a generator", func(t *testing.T) {
		t.Parallel()
		_, err := New(config.DefaultServerConfig(), nil)
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()
		srv, err := New(Config{}, okGenerator)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultHostname, srv.cfg.Hostname)
		assert.Equal(t, "http", srv.Transport())
		assert.Equal(t, StateUnbound, srv.State())
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultServerConfig()
		cfg.Port = 70000
		_, err := New(cfg, okGenerator)
		var verr *config.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("copies substitute hosts", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultServerConfig()
		cfg.SubstituteHosts = []string{"a"}
		srv, err := New(cfg, okGenerator)
		require.NoError(t, err)
		cfg.SubstituteHosts[0] = "b"
		assert.Equal(t, []string{"a"}, srv.cfg.SubstituteHosts)
	})
}

func TestServer_EphemeralPort(t *testing.T) {
	t.Parallel()

	srv, err := New(config.DefaultServerConfig(), okGenerator)
	require.NoError(t, err)
	assert.Zero(t, srv.Port())
	assert.Empty(t, srv.URL())
	assert.Nil(t, srv.Addr())

	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })

	assert.NotZero(t, srv.Port())
	assert.Equal(t, StateStarted, srv.State())
	u, err := url.Parse(srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "127.0.0.1", u.Hostname())
	tcp, ok := srv.Addr().(*net.TCPAddr)
	require.True(t, ok)
	assert.Equal(t, srv.Port(), tcp.Port)

	resp, err := http.Get(srv.URL() + "/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "path=/orders", string(body))
}

func TestServer_Bootcheck(t *testing.T) {
	t.Parallel()

	srv := startServer(t, config.DefaultServerConfig(), failingGenerator(errors.New("not ready")))

	req, err := http.NewRequest(http.MethodOptions, srv.URL(), nil)
	require.NoError(t, err)
	req.Header.Set(BootcheckHeader, "true")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(BootcheckHeader))
}

func TestServer_Lifecycle(t *testing.T) {
	t.Parallel()

	srv, err := New(config.DefaultServerConfig(), okGenerator)
	require.NoError(t, err)

	assert.ErrorIs(t, srv.Stop(), ErrNotStarted)
	require.NoError(t, srv.Start())
	assert.ErrorIs(t, srv.Start(), ErrAlreadyStarted)

	addr := srv.Addr().String()
	require.NoError(t, srv.Stop())
	assert.Equal(t, StateStopped, srv.State())
	assert.NoError(t, srv.Stop())
	assert.ErrorIs(t, srv.Start(), ErrStopped)

	_, err = net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)
}

func TestServer_BindError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	cfg := config.DefaultServerConfig()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	srv, err := New(cfg, okGenerator)
	require.NoError(t, err)

	err = srv.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind")
	assert.Equal(t, StateUnbound, srv.State())
}

func TestServer_StopWaitsForInFlightRequests(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	gen := model.GeneratorFunc(func(context.Context, *model.Request) (*model.Response, error) {
		close(entered)
		<-release
		return &model.Response{Status: http.StatusAccepted}, nil
	})
	cfg := config.DefaultServerConfig()
	cfg.ShutdownTimeout = config.Duration(5 * time.Second)
	srv := startServer(t, cfg, gen)

	type result struct {
		status int
		err    error
	}
	results := make(chan result, 1)
	go func() {
		resp, err := http.Get(srv.URL())
		if err != nil {
			results <- result{err: err}
			return
		}
		resp.Body.Close()
		results <- result{status: resp.StatusCode}
	}()

	<-entered
	stopped := make(chan error, 1)
	go func() { stopped <- srv.Stop() }()

	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-stopped)
	r := <-results
	require.NoError(t, r.err)
	assert.Equal(t, http.StatusAccepted, r.status)
}

func TestServer_StopForceClosesAfterTimeout(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	gen := model.GeneratorFunc(func(ctx context.Context, _ *model.Request) (*model.Response, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	cfg := config.DefaultServerConfig()
	cfg.ShutdownTimeout = config.Duration(100 * time.Millisecond)
	srv := startServer(t, cfg, gen)

	go func() {
		resp, err := http.Get(srv.URL())
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-entered

	start := time.Now()
	require.NoError(t, srv.Stop())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestServer_TLS(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultServerConfig()
	cfg.Scheme = config.SchemeHTTPS
	cfg.TLS = &config.TLSConfig{}
	srv := startServer(t, cfg, okGenerator)

	assert.Equal(t, "https", srv.Transport())
	assert.True(t, strings.HasPrefix(srv.URL(), "https://127.0.0.1:"))

	cert := srv.TLSCertificate()
	require.NotNil(t, cert)
	pool := x509.NewCertPool()
	pool.AddCert(cert)
	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
	}}

	resp, err := client.Get(srv.URL() + "/secure")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "path=/secure", string(body))
}

func TestServer_HostSubstitution(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultServerConfig()
	cfg.Hostname = "localhost"
	cfg.SubstituteHosts = []string{"127.0.0.1", "::1"}
	srv := startServer(t, cfg, okGenerator)

	u, err := url.Parse(srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "localhost", u.Hostname())
}

func TestServer_HostSubstitutionByName(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultServerConfig()
	cfg.Hostname = "localhost"
	srv := startServer(t, cfg, okGenerator)
	u, err := url.Parse(srv.URL())
	require.NoError(t, err)
	bound := u.Hostname()
	require.NotNil(t, net.ParseIP(bound), "without substitution the bound address is reported")

	cfg.SubstituteHosts = []string{"localhost"}
	srv = startServer(t, cfg, okGenerator)
	u, err = url.Parse(srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "localhost", u.Hostname())

	cfg.SubstituteHosts = []string{"no-such-host.invalid"}
	srv = startServer(t, cfg, okGenerator)
	u, err = url.Parse(srv.URL())
	require.NoError(t, err)
	assert.Equal(t, bound, u.Hostname())
}

func TestServer_UnspecifiedBindAddress(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultServerConfig()
	cfg.Hostname = "0.0.0.0"
	srv := startServer(t, cfg, okGenerator)

	u, err := url.Parse(srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "localhost", u.Hostname())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unbound", StateUnbound.String())
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "State(7)", State(7).String())
}
