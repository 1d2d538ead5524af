// sessiond serves the session engine over HTTP.
//
// Engine settings come from GOSESSION_* environment variables (see
// goSession.ConfigFromEnv); process settings come from flags. Without
// --database-url users are kept in memory and lost on restart.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/credstore/memory"
	"github.com/MrEthical07/goSession/credstore/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

type options struct {
	addr        string
	logLevel    string
	databaseURL string
	dbMaxConns  int32
	migrate     bool
	metrics     bool
	shutdown    time.Duration
}

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	log := newLogger(opts.logLevel)

	cfg, err := goSession.ConfigFromEnv(os.LookupEnv)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := newRedisClient(ctx, cfg.Mirror)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	var (
		store goSession.CredentialStore
		pool  *pgxpool.Pool
	)
	if opts.databaseURL != "" {
		pool, err = newDBPool(ctx, opts.databaseURL, opts.dbMaxConns)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		if opts.migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("db.migrated")
		}
		if store, err = postgres.New(pool); err != nil {
			return err
		}
	} else {
		log.Warn("store.memory", "reason", "no --database-url; users will not persist")
		store = memory.New()
	}

	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		WithLogger(log).
		WithMetricsEnabled(opts.metrics).
		WithLatencyHistograms(opts.metrics).
		Build()
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	mux, err := newMux(log, engine, pool, opts.metrics)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server.start", "addr", opts.addr, "postgres", pool != nil, "key_prefix", cfg.Mirror.KeyPrefix)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("server.stop", "reason", "signal")
	case err := <-errCh:
		log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server.shutdown.fail", "err", err)
		return err
	}
	log.Info("server.stopped")
	return nil
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("sessiond", pflag.ContinueOnError)
	fs.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres URL; empty keeps users in memory")
	fs.Int32Var(&opts.dbMaxConns, "db-max-conns", 10, "maximum Postgres pool connections")
	fs.BoolVar(&opts.migrate, "migrate", true, "apply embedded schema migrations at startup")
	fs.BoolVar(&opts.metrics, "metrics", true, "collect metrics and serve /metrics")
	fs.DurationVar(&opts.shutdown, "shutdown-timeout", 10*time.Second, "graceful shutdown deadline")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.shutdown <= 0 {
		return options{}, errors.New("--shutdown-timeout must be > 0")
	}
	return opts, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: true,
	}))
	slog.SetDefault(log)
	return log
}
