package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/aada-edu/aada/internal/auth"
	"github.com/aada-edu/aada/internal/config"
	"github.com/aada-edu/aada/internal/logging"
	"github.com/aada-edu/aada/internal/session"
	"github.com/aada-edu/aada/pkg/client"
)

type globalFlags struct {
	configPath  string
	apiURL      string
	logLevel    string
	metricsAddr string
}

// loadConfig layers flags over the file and environment.
func loadConfig(f *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f.apiURL != "" {
		cfg.APIURL = strings.TrimRight(f.apiURL, "/")
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.metricsAddr != "" {
		cfg.MetricsAddr = f.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// env is everything a command needs to talk to the API.
type env struct {
	cfg     *config.Config
	log     logging.Logger
	svc     *auth.Service
	closers []func() error
}

func newEnv(ctx context.Context, f *globalFlags) (*env, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}

	logger, logFile, err := logging.NewFile(cfg.Log.File, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: logger.With("version", version)}
	e.closers = append(e.closers, logFile.Close)

	backend, closeBackend, err := session.Open(ctx, cfg.Session.Backend, cfg.SessionPath())
	if err != nil {
		e.Close() //nolint:errcheck
		return nil, fmt.Errorf("open session: %w", err)
	}
	e.closers = append(e.closers, closeBackend)

	opts := auth.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.RequestTimeout,
		OnSessionExpired: func() {
			e.log.Info(context.Background(), "session cleared after failed refresh")
		},
	}
	if cfg.RateLimit.RPS > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts.Metrics = client.NewMetrics(reg)
		stop, err := serveMetrics(ctx, cfg.MetricsAddr, reg, e.log)
		if err != nil {
			e.Close() //nolint:errcheck
			return nil, err
		}
		e.closers = append(e.closers, stop)
	}

	e.svc = auth.New(session.NewStore(backend, e.log), e.log, opts)
	e.log.Debug(ctx, "environment ready", "api_url", cfg.APIURL, "session_backend", cfg.Session.Backend)
	return e, nil
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// serveMetrics exposes reg on addr under /metrics until the returned stop
// func is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log logging.Logger) (func() error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server stopped", "error", err)
		}
	}()
	log.Info(ctx, "serving metrics", "addr", ln.Addr().String())

	return func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}, nil
}
