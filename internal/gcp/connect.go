package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"

	"github.com/eliasmukasa/homelift-landing/internal/config"
)

// Remote bundles the Firebase-backed adapters the admin binaries need.
type Remote struct {
	Firestore *firestore.Client
	Storage   *storage.Client

	Docs    *FirestoreStore
	Objects *StorageBucket
	Auth    *IdentityToolkit
	Vertex  *VertexClient
}

// Connect creates every client for cfg concurrently. The Firebase settings
// must already have passed Validate.
func Connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Remote, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fb := cfg.Firebase
	r := &Remote{}

	err := startClients(ctx,
		func(ctx context.Context) error {
			client, err := NewFirestoreClient(ctx, fb.ProjectID)
			if err != nil {
				return err
			}
			r.Firestore = client
			return nil
		},
		func(ctx context.Context) error {
			client, err := storage.NewClient(ctx)
			if err != nil {
				return fmt.Errorf("failed to create Storage client: %w", err)
			}
			r.Storage = client
			return nil
		},
		func(ctx context.Context) error {
			auth, err := NewIdentityToolkit(ctx, fb.APIKey)
			if err != nil {
				return err
			}
			r.Auth = auth
			return nil
		},
		func(ctx context.Context) error {
			vc, err := NewVertexClient(ctx, fb.ProjectID, cfg.VertexRegion, cfg.BioModel)
			if err != nil {
				return err
			}
			r.Vertex = vc
			return nil
		},
	)
	if err != nil {
		_ = r.Close()
		return nil, err
	}

	r.Docs = NewFirestoreStore(r.Firestore)
	r.Objects = NewStorageBucket(r.Storage, fb.StorageBucket, logger)
	logger.Info("Connected to Firebase.", "projectId", fb.ProjectID, "bucket", fb.StorageBucket)
	return r, nil
}

// startClients runs the constructors concurrently. Clients keep the context
// they were built with for token refresh, so it must outlive this call.
func startClients(ctx context.Context, constructors ...func(context.Context) error) error {
	clientCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	for _, construct := range constructors {
		g.Go(func() error { return construct(clientCtx) })
	}
	return g.Wait()
}

// Close releases whichever clients were created.
func (r *Remote) Close() error {
	var errs []error
	if r.Firestore != nil {
		errs = append(errs, r.Firestore.Close())
	}
	if r.Storage != nil {
		errs = append(errs, r.Storage.Close())
	}
	if r.Vertex != nil {
		errs = append(errs, r.Vertex.Close())
	}
	return errors.Join(errs...)
}
