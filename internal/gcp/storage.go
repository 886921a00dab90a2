package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// DownloadTokenKey is the object metadata key Firebase Storage reads download tokens from.
const DownloadTokenKey = "firebaseStorageDownloadTokens"

const uploadChunkSize = 256 * 1024

// ErrObjectExists is returned by Put when the key is already taken.
var ErrObjectExists = errors.New("object already exists")

// StorageBucket is the ObjectStore backed by a Cloud Storage bucket that
// Firebase Storage serves.
type StorageBucket struct {
	bucket *storage.BucketHandle
	name   string
	logger *slog.Logger
}

var _ services.ObjectStore = (*StorageBucket)(nil)

func NewStorageBucket(client *storage.Client, name string, logger *slog.Logger) *StorageBucket {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageBucket{bucket: client.Bucket(name), name: name, logger: logger.With("bucket", name)}
}

// Put writes r to key only if key doesn't already exist. Every object gets a
// fresh download token so URL can hand out a Firebase download link.
func (b *StorageBucket) Put(ctx context.Context, key string, r io.Reader, opts services.PutOptions) error {
	writer := b.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = opts.ContentType
	writer.ChunkSize = uploadChunkSize
	writer.ProgressFunc = opts.Progress
	writer.Metadata = map[string]string{DownloadTokenKey: uuid.NewString()}
	for k, v := range opts.Metadata {
		writer.Metadata[k] = v
	}

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return b.writeError(key, err)
	}
	if err := writer.Close(); err != nil {
		return b.writeError(key, err)
	}
	return nil
}

func (b *StorageBucket) writeError(key string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		b.logger.Warn("Object already exists.", "object", key)
		return fmt.Errorf("%s: %w", key, ErrObjectExists)
	}
	b.logger.Error("Failed to write object", "object", key, "error", err)
	return remoteError("put", err)
}

// URL returns the token download URL of key, minting a token for objects
// that were written without one.
func (b *StorageBucket) URL(ctx context.Context, key string) (string, error) {
	obj := b.bucket.Object(key)
	attrs, err := obj.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", fmt.Errorf("%s: %w", key, services.ErrObjectNotFound)
	}
	if err != nil {
		return "", remoteError("attrs", err)
	}

	token := attrs.Metadata[DownloadTokenKey]
	if token == "" {
		token = uuid.NewString()
		metadata := map[string]string{DownloadTokenKey: token}
		for k, v := range attrs.Metadata {
			if k != DownloadTokenKey {
				metadata[k] = v
			}
		}
		if _, err := obj.Update(ctx, storage.ObjectAttrsToUpdate{Metadata: metadata}); err != nil {
			return "", remoteError("update", err)
		}
	}
	return DownloadURL(b.name, key, token), nil
}

func (b *StorageBucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := b.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", key, services.ErrObjectNotFound)
	}
	if err != nil {
		return nil, remoteError("read", err)
	}
	return rc, nil
}

func (b *StorageBucket) Delete(ctx context.Context, key string) error {
	err := b.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s: %w", key, services.ErrObjectNotFound)
	}
	return remoteError("delete", err)
}

// DownloadURL builds the Firebase Storage download link for an object.
func DownloadURL(bucket, key, token string) string {
	u := "https://firebasestorage.googleapis.com/v0/b/" + bucket + "/o/" + url.PathEscape(key) + "?alt=media"
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}
	return u
}
