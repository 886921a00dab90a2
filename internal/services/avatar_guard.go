package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"strconv"
	"strings"

	_ "golang.org/x/image/webp"
)

// StorageObjectEvent is the payload of a google.cloud.storage.object.v1.finalized event.
type StorageObjectEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        string `json:"size"`
}

// GuardAction is what the guard did with an object.
type GuardAction string

const (
	GuardIgnored GuardAction = "ignored"
	GuardKept    GuardAction = "kept"
	GuardDeleted GuardAction = "deleted"
)

// GuardOutcome explains a guard decision.
type GuardOutcome struct {
	Action GuardAction
	Reason string
}

// AvatarGuard enforces the upload policy on objects that land under the avatar prefix.
type AvatarGuard struct {
	objects ObjectStore
	prefix  string
	policy  UploadPolicy
	logger  *slog.Logger
}

func NewAvatarGuard(objects ObjectStore, prefix string, policy UploadPolicy, logger *slog.Logger) *AvatarGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarGuard{
		objects: objects,
		prefix:  strings.Trim(prefix, "/"),
		policy:  policy,
		logger:  logger,
	}
}

// Process checks one finalized object and deletes it when it breaks the policy.
func (g *AvatarGuard) Process(ctx context.Context, e StorageObjectEvent) (GuardOutcome, error) {
	logCtx := g.logger.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if g.prefix != "" && !strings.HasPrefix(e.Name, g.prefix+"/") {
		logCtx.Debug("Object is outside the avatar prefix.")
		return GuardOutcome{Action: GuardIgnored, Reason: "outside prefix"}, nil
	}

	reason, err := g.violation(ctx, e)
	if errors.Is(err, ErrObjectNotFound) {
		logCtx.Info("Object already removed.")
		return GuardOutcome{Action: GuardIgnored, Reason: "already removed"}, nil
	}
	if err != nil {
		logCtx.Error("Failed to inspect object.", "error", err)
		return GuardOutcome{}, err
	}
	if reason == "" {
		logCtx.Info("Avatar accepted.")
		return GuardOutcome{Action: GuardKept}, nil
	}

	logCtx.Warn("Deleting avatar that violates the upload policy.", "reason", reason)
	if err := g.objects.Delete(ctx, e.Name); err != nil && !errors.Is(err, ErrObjectNotFound) {
		logCtx.Error("Failed to delete object.", "error", err)
		return GuardOutcome{}, fmt.Errorf("delete %s: %w", e.Name, err)
	}
	return GuardOutcome{Action: GuardDeleted, Reason: reason}, nil
}

// violation returns a non-empty reason when the object must go.
func (g *AvatarGuard) violation(ctx context.Context, e StorageObjectEvent) (string, error) {
	contentType := strings.ToLower(strings.TrimSpace(e.ContentType))
	if !g.policy.Allows(contentType) {
		return fmt.Sprintf("content type %q is not allowed", e.ContentType), nil
	}
	if size, err := strconv.ParseInt(strings.TrimSpace(e.Size), 10, 64); err == nil && g.policy.MaxBytes > 0 && size > g.policy.MaxBytes {
		return fmt.Sprintf("size %d exceeds %d bytes", size, g.policy.MaxBytes), nil
	}

	r, err := g.objects.Open(ctx, e.Name)
	if err != nil {
		return "", err
	}
	defer r.Close()

	limit := g.policy.MaxBytes
	if limit <= 0 {
		limit = DefaultUploadPolicy().MaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", e.Name, err)
	}
	if int64(len(data)) > limit {
		return fmt.Sprintf("object is larger than %d bytes", limit), nil
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "not a decodable image", nil
	}
	if "image/"+format != contentType {
		return fmt.Sprintf("declared %s but the data is %s", contentType, format), nil
	}
	return "", nil
}
