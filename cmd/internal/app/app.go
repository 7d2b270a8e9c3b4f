// Package app wires the contactbook server runtime: config, logging, metrics, storage and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"contactbook/cmd/identity"
	authapi "contactbook/cmd/internal/auth/api"
	"contactbook/cmd/internal/auth/session"
	"contactbook/cmd/internal/notify"
	"contactbook/cmd/security/password"
	"contactbook/cmd/security/token"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the contactbook server runtime. It owns the DB pool, the notification dispatcher
// and the HTTP handler tree.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	notifier *notify.Async
	registry *prometheus.Registry
	handler  http.Handler
}

// New constructs a fully wired App from cfg. Auth, password and notification settings are
// read from their own env loaders.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if err := ValidateSecurityConfig(cfg, sessCfg); err != nil {
		return nil, err
	}
	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	codec, err := token.NewCodec(sessCfg.TokenConfig())
	if err != nil {
		return nil, err
	}

	store, pool, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	reg := newRegistry()

	notifyCfg := notify.LoadConfigFromEnv()
	notifier := notify.NewAsync(
		notify.NewLogSender(log),
		append(notifyCfg.Options(), notify.WithLogger(log))...,
	)

	svc := session.NewService(store, password.NewHasher(pwCfg), codec, notifier,
		session.WithLogger(log),
		session.WithMetrics(session.NewMetrics(reg)),
	)
	auth := authapi.NewHandler(log, svc, authapi.LoadConfigFromEnv())

	a := &App{
		cfg:       cfg,
		log:       log,
		dbPool:    pool,
		dbEnabled: pool != nil,
		notifier:  notifier,
		registry:  reg,
	}

	mux := http.NewServeMux()
	registerHTTP(mux, a, auth)
	a.handler = WithRequestLogging(WithSecurityHeaders(mux), log, newHTTPMetrics(reg))

	return a, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled, "env", a.cfg.Env)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case runErr = <-errCh:
		a.log.Error("server.fail", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		runErr = errors.Join(runErr, err)
	}

	a.close(shutdownCtx)

	a.log.Info("server.stopped")
	return runErr
}

// close releases background resources: pending confirmation sends drain before the pool goes away.
func (a *App) close(ctx context.Context) {
	if err := a.notifier.Close(ctx); err != nil {
		a.log.Warn("notify.close.fail", "err", err)
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between the Postgres identity store and the in-memory dev store.
// The app owns the pool lifecycle.
func newStore(ctx context.Context, cfg Config, log Logger) (identity.Store, *pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return identity.NewMemoryStore(), nil, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.DBAutoMigrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("db.migrate.ok")
	}

	st, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	log.Info("db.enabled.postgres_store")
	return st, pool, nil
}
