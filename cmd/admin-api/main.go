package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/eliasmukasa/homelift-landing/internal/app"
	"github.com/eliasmukasa/homelift-landing/internal/config"
	"github.com/eliasmukasa/homelift-landing/internal/httpapi"
	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

var (
	handler http.Handler
	once    sync.Once
	initErr error
)

func init() {
	// --- Set up structured logging ---
	slog.SetDefault(logging.NewJSON(os.Stdout, logging.ParseLevel(os.Getenv("LOG_LEVEL"))))

	// "HandleAdmin" is the entry point name configured in GCP.
	functions.HTTP("HandleAdmin", handleAdmin)
}

// main serves the function locally. In Cloud Functions the framework calls
// the registered entry point directly.
func main() {
	if err := config.LoadDotEnv("."); err != nil {
		slog.Error("Failed to load .env files", "error", err)
		os.Exit(1)
	}
	port := config.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("funcframework.Start failed", "error", err)
		os.Exit(1)
	}
}

func handleAdmin(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		handler, initErr = newHandler(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	handler.ServeHTTP(w, r)
}

func newHandler(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", "admin-api")
	backend := app.Build(ctx, cfg, services.SystemClock{}, logger)

	policy := services.DefaultUploadPolicy()
	policy.MaxBytes = cfg.AvatarMaxBytes
	return httpapi.NewRouter(httpapi.Deps{
		ConfigErr:      backend.ConfigErr,
		Verifier:       backend.Verifier,
		Auth:           backend.Auth,
		Docs:           backend.Docs,
		Objects:        backend.Objects,
		Generator:      backend.Generator,
		Clock:          services.SystemClock{},
		Collection:     cfg.Collection,
		AvatarPrefix:   cfg.AvatarPrefix,
		Policy:         policy,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	}), nil
}
