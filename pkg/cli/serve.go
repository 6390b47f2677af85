package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/contractmock/pkg/config"
	"github.com/getmockd/contractmock/pkg/interaction"
	"github.com/getmockd/contractmock/pkg/matchers"
	"github.com/getmockd/contractmock/pkg/metrics"
	"github.com/getmockd/contractmock/pkg/provider"
)

// metricsShutdownTimeout bounds how long the metrics endpoint may take to
// drain on exit.
const metricsShutdownTimeout = 5 * time.Second

type serveFlags struct {
	interactions string
	hostname     string
	port         int
	https        bool
	metricsAddr  string
	logLevel     string
	logFile      string
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

// serveOptions is everything runServe needs, resolved from the config file
// and flags.
type serveOptions struct {
	cfg              *config.Config
	configPath       string
	interactionsPath string
	metricsAddr      string

	// ready is called once the provider is listening.
	ready func(*provider.Server)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock provider until interrupted",
	Long: `Start the mock provider and answer requests from an interactions file.

On SIGINT or SIGTERM the provider stops accepting connections, waits for
in-flight requests up to the configured shutdown timeout and reports
interactions that were never requested. Changes to the configuration file
re-apply contentTypeOverrides; changes to the interactions file replace the
interactions.`,
	Example: `  contractmock serve -i interactions.yaml
  contractmock serve -c contractmock.yaml --port 8080 --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if err := applyServeFlags(cmd, cfg, &serveFlagVals); err != nil {
			return err
		}

		log, closeLog, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { _ = closeLog() }()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return stopSignalHandler(ctx, cancel, log)
		})

		err = runServe(ctx, serveOptions{
			cfg:              cfg,
			configPath:       configPath,
			interactionsPath: serveFlagVals.interactions,
			metricsAddr:      serveFlagVals.metricsAddr,
		}, log, cmd.OutOrStdout())
		cancel()
		return errors.Join(err, g.Wait())
	},
}

func init() {
	bindServeFlags(serveCmd, &serveFlagVals)
	rootCmd.AddCommand(serveCmd)
}

func bindServeFlags(cmd *cobra.Command, v *serveFlags) {
	f := cmd.Flags()
	f.StringVarP(&v.interactions, "interactions", "i", "", "YAML file with the expected interactions")
	f.StringVar(&v.hostname, "hostname", config.DefaultHostname, "Host name or address to bind")
	f.IntVarP(&v.port, "port", "p", 0, "Port to bind (0 picks a free port)")
	f.BoolVar(&v.https, "https", false, "Serve HTTPS with a self-signed certificate unless the config names one")
	f.StringVar(&v.metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address")
	f.StringVar(&v.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&v.logFile, "log-file", "", "Also write JSON logs to this file")
}

// applyServeFlags lets explicitly set flags win over the config file.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, f *serveFlags) error {
	flags := cmd.Flags()
	if flags.Changed("hostname") {
		cfg.Server.Hostname = f.hostname
	}
	if flags.Changed("port") {
		cfg.Server.Port = f.port
	}
	if flags.Changed("https") && f.https {
		cfg.Server.Scheme = config.SchemeHTTPS
		if cfg.Server.TLS == nil {
			cfg.Server.TLS = &config.TLSConfig{}
		}
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = f.logFile
	}
	return cfg.Server.Validate()
}

// runServe runs the provider until ctx is done. Background tasks run in an
// errgroup; the first one to fail stops the provider.
func runServe(ctx context.Context, opts serveOptions, log *slog.Logger, out io.Writer) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	overrides := matchers.NewOverrideTable(opts.cfg.ContentTypeOverrides)
	registry := newRegistry(overrides, matchers.WithLogger(log), matchers.WithMetrics(m))

	var interactions []interaction.Interaction
	if opts.interactionsPath != "" {
		var err error
		interactions, err = interaction.Load(opts.interactionsPath)
		if err != nil {
			return err
		}
	}
	engine := interaction.NewEngine(interactions, interaction.WithRegistry(registry), interaction.WithLogger(log))

	srv, err := provider.New(opts.cfg.Server, engine, provider.WithLogger(log), provider.WithMetrics(m))
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Mock provider listening on %s (%d interactions)\n", srv.URL(), len(interactions))
	if opts.ready != nil {
		opts.ready(srv)
	}

	g, ctx := errgroup.WithContext(ctx)
	if opts.metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, opts.metricsAddr, reg, log)
		})
	}
	if opts.configPath != "" {
		g.Go(func() error {
			return watchFile(ctx, opts.configPath, func() error {
				cfg, err := config.Load(opts.configPath)
				if err != nil {
					return err
				}
				overrides.Replace(cfg.ContentTypeOverrides)
				return nil
			}, log)
		})
	}
	if opts.interactionsPath != "" {
		g.Go(func() error {
			return watchFile(ctx, opts.interactionsPath, func() error {
				loaded, err := interaction.Load(opts.interactionsPath)
				if err != nil {
					return err
				}
				engine.Replace(loaded)
				return nil
			}, log)
		})
	}

	<-ctx.Done()
	stopErr := srv.Stop()
	if err := engine.Verify(); err != nil {
		log.Warn("interaction verification failed", "error", err)
	}
	return errors.Join(stopErr, g.Wait())
}

// serveMetrics exposes reg on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics endpoint failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// stopSignalHandler cancels ctx on SIGINT or SIGTERM.
func stopSignalHandler(ctx context.Context, cancel context.CancelFunc, log *slog.Logger) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	select {
	case sig := <-c:
		log.Info("received shutdown signal", "signal", sig.String())
		cancel()
		return nil
	case <-ctx.Done():
		return nil
	}
}
