package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/eliasmukasa/homelift-landing/internal/config"
	"github.com/eliasmukasa/homelift-landing/internal/gcp"
	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

var (
	storageClient *storage.Client
	cfg           config.Config
	once          sync.Once
	initErr       error
)

func init() {
	// --- Set up structured logging ---
	slog.SetDefault(logging.NewJSON(os.Stdout, logging.ParseLevel(os.Getenv("LOG_LEVEL"))))

	// Triggered by google.cloud.storage.object.v1.finalized on the Firebase bucket.
	functions.CloudEvent("GuardAvatar", guardAvatar)
}

func main() {
	port := config.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("funcframework.Start failed", "error", err)
		os.Exit(1)
	}
}

func guardAvatar(ctx context.Context, e cloudevents.Event) error {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		cfg, initErr = config.Load()
		if initErr != nil {
			return
		}
		storageClient, initErr = storage.NewClient(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	policy := services.DefaultUploadPolicy()
	policy.MaxBytes = cfg.AvatarMaxBytes
	_, err := handleEvent(ctx, e, func(bucket string) *services.AvatarGuard {
		logger := slog.Default().With("service", "avatar-guard")
		return services.NewAvatarGuard(gcp.NewStorageBucket(storageClient, bucket, logger), cfg.AvatarPrefix, policy, logger)
	})
	return err
}

// handleEvent decodes the storage payload and runs the guard for its bucket.
func handleEvent(ctx context.Context, e cloudevents.Event, guardFor func(bucket string) *services.AvatarGuard) (services.GuardOutcome, error) {
	var obj services.StorageObjectEvent
	if err := json.Unmarshal(e.Data(), &obj); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return services.GuardOutcome{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if obj.Name == "" {
		slog.Warn("Event carries no object name; nothing to check.", "eventId", e.ID())
		return services.GuardOutcome{Action: services.GuardIgnored, Reason: "no object"}, nil
	}
	return guardFor(obj.Bucket).Process(ctx, obj)
}
