package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// LoadDotEnv loads .env.local then .env from dir. Variables already present in
// the environment win, and missing files are ignored.
func LoadDotEnv(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Firebase holds the web-app settings of the Firebase project.
type Firebase struct {
	APIKey            string
	AuthDomain        string
	ProjectID         string
	StorageBucket     string
	MessagingSenderID string
	AppID             string
	MeasurementID     string
}

// ErrConfigurationMissing is returned by Validate when a required setting is empty.
var ErrConfigurationMissing = errors.New("firebase configuration missing")

// MissingError lists every required Firebase setting that was not provided.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfigurationMissing, strings.Join(e.Names, ", "))
}

func (e *MissingError) Unwrap() error { return ErrConfigurationMissing }

// Missing returns the env names of the required settings that are empty.
func (f Firebase) Missing() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, "FIREBASE_"+name)
		}
	}
	check("API_KEY", f.APIKey)
	check("AUTH_DOMAIN", f.AuthDomain)
	check("PROJECT_ID", f.ProjectID)
	check("STORAGE_BUCKET", f.StorageBucket)
	check("MESSAGING_SENDER_ID", f.MessagingSenderID)
	check("APP_ID", f.AppID)
	return missing
}

// Validate returns a *MissingError when any required setting is empty.
func (f Firebase) Validate() error {
	if missing := f.Missing(); len(missing) > 0 {
		return &MissingError{Names: missing}
	}
	return nil
}

// Backend selects the adapters behind the workflows.
type Backend string

const (
	BackendFirebase Backend = "firebase"
	BackendMemory   Backend = "memory"
)

// Config is everything the admin binaries read from the environment.
type Config struct {
	Firebase Firebase

	Collection     string
	AvatarPrefix   string
	AvatarMaxBytes int64
	VertexRegion   string
	BioModel       string
	AllowedOrigins []string
	SessionFile    string
	Backend        Backend
	Port           string
}

const defaultAvatarMaxBytes = 5 << 20

// Load reads the configuration from the environment. It only fails on values
// that are present but malformed; missing Firebase settings are reported by
// Firebase.Validate so callers can start disabled instead of crashing.
func Load() (Config, error) {
	cfg := Config{
		Firebase: Firebase{
			APIKey:            firebaseEnv("API_KEY"),
			AuthDomain:        firebaseEnv("AUTH_DOMAIN"),
			ProjectID:         firebaseEnv("PROJECT_ID"),
			StorageBucket:     firebaseEnv("STORAGE_BUCKET"),
			MessagingSenderID: firebaseEnv("MESSAGING_SENDER_ID"),
			AppID:             firebaseEnv("APP_ID"),
			MeasurementID:     firebaseEnv("MEASUREMENT_ID"),
		},
		Collection:     GetEnv("HCP_COLLECTION", "hcpProfiles"),
		AvatarPrefix:   strings.Trim(GetEnv("AVATAR_PREFIX", "hcp_profile_pictures"), "/"),
		AvatarMaxBytes: defaultAvatarMaxBytes,
		VertexRegion:   GetEnv("VERTEX_AI_REGION", "us-central1"),
		BioModel:       GetEnv("BIO_MODEL", "gemini-1.5-pro"),
		AllowedOrigins: splitList(GetEnv("ADMIN_ALLOWED_ORIGINS", "http://localhost:3000")),
		SessionFile:    GetEnv("HCP_ADMIN_SESSION_FILE", ""),
		Backend:        Backend(strings.ToLower(GetEnv("BACKEND", string(BackendFirebase)))),
		Port:           GetEnv("PORT", "8080"),
	}

	var invalid []string
	if raw := strings.TrimSpace(GetEnv("AVATAR_MAX_BYTES", "")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			invalid = append(invalid, "AVATAR_MAX_BYTES")
		} else {
			cfg.AvatarMaxBytes = n
		}
	}
	switch cfg.Backend {
	case BackendFirebase, BackendMemory:
	default:
		invalid = append(invalid, "BACKEND")
	}
	if cfg.Collection == "" {
		invalid = append(invalid, "HCP_COLLECTION")
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// firebaseEnv reads FIREBASE_<name>, falling back to the NEXT_PUBLIC_ name the
// web admin's .env.local uses.
func firebaseEnv(name string) string {
	if v := strings.TrimSpace(GetEnv("FIREBASE_"+name, "")); v != "" {
		return v
	}
	return strings.TrimSpace(GetEnv("NEXT_PUBLIC_FIREBASE_"+name, ""))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
