// Package gate wires the credential gate: token verification, the grant
// service over S3-compatible storage, the HTTP API and a gRPC health
// endpoint, with graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/gate/config"
	"github.com/dmitrijs2005/thesisvault/internal/gate/devidp"
	"github.com/dmitrijs2005/thesisvault/internal/gate/grants"
	"github.com/dmitrijs2005/thesisvault/internal/gate/health"
	"github.com/dmitrijs2005/thesisvault/internal/gate/httpapi"
	"github.com/dmitrijs2005/thesisvault/internal/gate/storage"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler http.Handler
	health  *health.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.SlogLevel())
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	verifier, err := newVerifier(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("verifier init error: %w", err)
	}

	backend, err := storage.NewS3Backend(ctx, storage.S3Config{
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []grants.Option{grants.WithMetrics(grants.NewMetrics(reg))}
	if c.EnforceOwnership {
		opts = append(opts, grants.WithPolicy(grants.ProfileOwnerPolicy{}))
	}
	svc := grants.NewService(backend, c.ReadGrantTTL, c.WriteGrantTTL, logger, opts...)

	deps := httpapi.Deps{
		Verifier: verifier,
		Grants:   svc,
		Logger:   logger,
		Metrics:  httpapi.NewMetrics(reg),
		Gatherer: reg,
	}
	if c.DevIdP {
		if c.AuthMode != config.AuthModeHMAC {
			return nil, errors.New("the local identity provider requires hmac auth mode")
		}
		idp := devidp.New(c.DevIdPAPIKey, []byte(c.SecretKey), logger)
		deps.Mounts = map[string]http.Handler{"/v1": idp.Routes()}
		logger.Warn(ctx, "local identity provider enabled; do not use in production")
	}

	return &App{
		config:  c,
		logger:  logger,
		handler: httpapi.NewRouter(deps),
		health:  health.NewServer(c.EndpointAddrGRPC, logger),
	}, nil
}

func newVerifier(ctx context.Context, c *config.Config, logger logging.Logger) (auth.Verifier, error) {
	switch c.AuthMode {
	case config.AuthModeHMAC:
		if c.SecretKey == "" {
			return nil, errors.New("hmac mode requires a secret key")
		}
		return auth.NewHMACVerifier([]byte(c.SecretKey)), nil
	case config.AuthModeJWKS:
		return auth.NewJWKSVerifier(ctx, auth.JWKSConfig{
			JWKSURL:  c.JWKSURL,
			Issuer:   c.TokenIssuer,
			Audience: c.TokenAudience,
			Leeway:   30 * time.Second,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown auth mode %q", c.AuthMode)
	}
}

// Handler returns the HTTP handler of the gate.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	case <-ctx.Done():
		app.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
		<-errCh
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting gate...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "Gate stopped")
}
