// Package backend assembles a document store, identity provider and optional
// events client from configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"moni/internal/auth"
	gipauth "moni/internal/auth/gip"
	memauth "moni/internal/auth/memory"
	"moni/internal/config"
	"moni/internal/docstore"
	fsstore "moni/internal/docstore/firestore"
	memstore "moni/internal/docstore/memory"
	sqlitestore "moni/internal/docstore/sqlite"
	"moni/internal/events"
)

// Backend bundles the external collaborators one session runs against.
type Backend struct {
	Docs    docstore.Store
	Auth    auth.Provider
	Events  *events.Client
	Cleanup func() error
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the backend named by cfg.DataBackend. The AMQP events client
// is optional everywhere: a failed connection logs a warning and the session
// continues without change events.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	switch cfg.DataBackend {
	case "memory":
		b.Docs = memstore.New()
		b.Auth = memauth.New()
		f.logger.Info("Initialized memory backend")

	case "sqlite":
		store, err := sqlitestore.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		b.Docs = store
		b.Auth = memauth.New()
		b.Cleanup = store.Close
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)

	case "firestore":
		store, err := fsstore.New(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("initialize firestore store: %w", err)
		}
		provider, err := gipauth.New(ctx, cfg.APIKey)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("initialize identity provider: %w", err)
		}
		b.Docs = store
		b.Auth = provider
		b.Cleanup = store.Close
		f.logger.Info("Initialized Firestore backend", "project_id", cfg.ProjectID)

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}

	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			b.Events = client
			f.logger.Info("Initialized AMQP change events",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	return b, nil
}

// Close releases backend resources.
func (b *Backend) Close() error {
	var firstErr error
	if b.Events != nil {
		if err := b.Events.Close(); err != nil {
			firstErr = fmt.Errorf("events: %w", err)
		}
	}
	if b.Cleanup != nil {
		if err := b.Cleanup(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("store: %w", err)
		}
	}
	return firstErr
}
