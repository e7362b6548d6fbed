// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/holomush/accounts/internal/auth"
	"github.com/holomush/accounts/internal/auth/postgres"
	"github.com/holomush/accounts/internal/config"
	"github.com/holomush/accounts/internal/notify"
	"github.com/holomush/accounts/internal/observability"
	"github.com/holomush/accounts/internal/store"
)

// Deps contains injectable dependencies for the accounts commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// OpenStore connects to account storage.
	// Default: store.Connect wrapped in a postgres.Repository
	OpenStore func(ctx context.Context, cfg *config.Config) (Store, error)

	// NewMigrator creates a schema migrator for a database URL.
	// Default: store.NewMigrator
	NewMigrator func(databaseURL string) (Migrator, error)

	// OpenNotifier creates the notifier selected by cfg.Notify.Driver.
	// The returned function releases it.
	// Default: openNotifier
	OpenNotifier func(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (auth.Notifier, func() error, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Hasher hashes and verifies passwords.
	// Default: auth.NewArgon2idHasher
	Hasher auth.PasswordHasher

	// Now is the clock passed to the services.
	// Default: time.Now
	Now auth.Clock
}

// Store is account storage plus connection management.
type Store interface {
	auth.Repository
	auth.Pruner
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.OpenStore == nil {
		out.OpenStore = openPostgresStore
	}
	if out.NewMigrator == nil {
		out.NewMigrator = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.OpenNotifier == nil {
		out.OpenNotifier = openNotifier
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	if out.Hasher == nil {
		out.Hasher = auth.NewArgon2idHasher()
	}
	return &out
}

type pgStore struct {
	*postgres.Repository
	pool *pgxpool.Pool
}

func (s *pgStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
func (s *pgStore) Close()                         { s.pool.Close() }

func openPostgresStore(ctx context.Context, cfg *config.Config) (Store, error) {
	url, err := cfg.RequireDatabase()
	if err != nil {
		return nil, err
	}
	pool, err := store.Connect(ctx, url, cfg.Database.ConnectAttempts)
	if err != nil {
		return nil, err
	}
	return &pgStore{Repository: postgres.NewRepository(pool), pool: pool}, nil
}

func openNotifier(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (auth.Notifier, func() error, error) {
	switch cfg.Notify.Driver {
	case config.DriverAMQP:
		session, err := notify.DialAMQP(ctx, cfg.Notify.AMQPURL, cfg.Notify.Queue, store.DefaultConnectAttempts, logger)
		if err != nil {
			return nil, nil, err
		}
		n, err := notify.NewAMQPNotifier(session.Channel, cfg.Notify.Queue, cfg.Notify.From)
		if err != nil {
			_ = session.Close()
			return nil, nil, err
		}
		return n, session.Close, nil
	case config.DriverStdout:
		return notify.NewWriterNotifier(out, cfg.Notify.From), func() error { return nil }, nil
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").
			With("field", "notify.driver").
			Errorf("unknown notify driver %q", cfg.Notify.Driver)
	}
}
