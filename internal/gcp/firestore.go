package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// With FIRESTORE_EMULATOR_HOST set the client talks to the emulator.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreStore is the DocumentStore backed by Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

var _ services.DocumentStore = (*FirestoreStore)(nil)

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) List(ctx context.Context, collection string) ([]services.Document, error) {
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, remoteError("list", err)
	}
	docs := make([]services.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, services.Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

// Create stores fields under a generated document id.
func (s *FirestoreStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ref := s.client.Collection(collection).NewDoc()
	if _, err := ref.Set(ctx, fields); err != nil {
		return "", remoteError("create", err)
	}
	return ref.ID, nil
}

// Merge writes only the given fields into an existing document. The read and
// the write share a transaction so a concurrent delete cannot resurrect it.
func (s *FirestoreStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	ref := s.client.Collection(collection).Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, fields, firestore.MergeAll)
	})
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", collection, id, services.ErrDocumentNotFound)
	}
	return remoteError("merge", err)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return remoteError("delete", err)
}
