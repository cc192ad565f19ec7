package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"github.com/fxsml/mediator"
	"github.com/fxsml/mediator/behavior"
	"github.com/fxsml/mediator/config"
	"github.com/fxsml/mediator/internal/sample"
	"github.com/fxsml/mediator/store/redisstore"
	"github.com/fxsml/mediator/store/sqlitestore"
)

// app holds the process-wide state shared by all commands.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	mediator *mediator.Mediator
	audit    *sqlitestore.Store
	counters behavior.Counters

	closers []func(context.Context) error
}

// newLogger creates a structured logger writing to w with the given level.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := log.ParseLevel(string(mediator.ParseLogLevel(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix:          "mediator",
		Level:           lvl,
		ReportTimestamp: true,
	})
	return slog.New(handler)
}

// setup loads the configuration and builds the mediator with every
// configured backend.
func (a *app) setup(ctx context.Context, stderr io.Writer, logLevel string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	a.cfg = cfg
	a.logger = newLogger(stderr, cfg.LogLevel)

	shutdown, err := setupTracing(ctx, cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	deps := sample.Deps{
		Logger:         a.logger,
		Metrics:        a.counters.Collect,
		Timeout:        cfg.Timeout,
		IdempotencyTTL: cfg.Idempotency.TTL,
		Retry: behavior.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff:     behavior.ExponentialBackoff(cfg.Retry.Backoff, 2, cfg.Retry.Timeout, 0.2),
			Timeout:     cfg.Retry.Timeout,
		},
	}

	if cfg.Audit.Path != "" {
		store, err := sqlitestore.Open(cfg.Audit.Path)
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		a.audit = store
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		deps.AuditSink = store
	}

	if cfg.Idempotency.RedisAddr != "" {
		store, err := redisstore.Dial(ctx, cfg.Idempotency.RedisAddr, redisstore.Config{})
		if err != nil {
			return fmt.Errorf("connect idempotency store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		deps.Idempotency = store
	}

	m, err := sample.Build(deps, mediator.Config{Logger: a.logger})
	if err != nil {
		return fmt.Errorf("build mediator: %w", err)
	}
	a.mediator = m
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
