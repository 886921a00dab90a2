// Package app builds the adapters behind the admin binaries from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eliasmukasa/homelift-landing/internal/config"
	"github.com/eliasmukasa/homelift-landing/internal/gcp"
	"github.com/eliasmukasa/homelift-landing/internal/httpapi"
	"github.com/eliasmukasa/homelift-landing/internal/memory"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// Backend is the remote service handle every workflow is built on. With the
// Firebase settings incomplete, ConfigErr is set and the adapters are nil so
// the workflows refuse data operations instead of the process crashing.
type Backend struct {
	ConfigErr error

	Docs      services.DocumentStore
	Objects   services.ObjectStore
	Auth      services.Authenticator
	Verifier  httpapi.TokenVerifier
	Generator services.TextGenerator

	closeFn func() error
}

// Close releases the remote clients, if any.
func (b *Backend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// Default credentials of the in-memory backend's single account.
const (
	DefaultMemoryEmail    = "admin@homelift.local"
	DefaultMemoryPassword = "homelift-admin"
)

// connect is swapped in tests.
var connect = gcp.Connect

// Build connects the backend cfg selects. It never fails: incomplete Firebase
// settings, or clients that cannot be created from complete ones, come back as
// ConfigErr so the session gate starts disabled.
func Build(ctx context.Context, cfg config.Config, clock services.Clock, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Backend == config.BackendMemory {
		return buildMemory(cfg, clock, logger)
	}

	if err := cfg.Firebase.Validate(); err != nil {
		logger.Warn("Firebase configuration incomplete; starting disabled.", "error", err)
		return &Backend{ConfigErr: err}
	}

	remote, err := connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Could not create the Firebase clients; starting disabled.", "error", err)
		return &Backend{ConfigErr: fmt.Errorf("connect to Firebase: %w", err)}
	}
	return &Backend{
		Docs:      remote.Docs,
		Objects:   remote.Objects,
		Auth:      remote.Auth,
		Verifier:  gcp.NewTokenVerifier(cfg.Firebase.ProjectID),
		Generator: remote.Vertex,
		closeFn:   remote.Close,
	}
}

func buildMemory(cfg config.Config, clock services.Clock, logger *slog.Logger) *Backend {
	accounts := memory.NewAccounts(clock)
	email := config.GetEnv("MEMORY_ADMIN_EMAIL", DefaultMemoryEmail)
	accounts.AddUser(email, config.GetEnv("MEMORY_ADMIN_PASSWORD", DefaultMemoryPassword))
	logger.Info("Using the in-memory backend.", "adminEmail", email, "collection", cfg.Collection)

	return &Backend{
		Docs:     memory.NewDocumentStore(),
		Objects:  memory.NewObjectStore(),
		Auth:     accounts,
		Verifier: accounts,
	}
}
