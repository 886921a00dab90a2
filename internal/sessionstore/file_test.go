package sessionstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

func TestFile_SaveLoadClear(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok, err := store.Load(); ok || err != nil {
		t.Fatalf("empty Load ok=%v err=%v", ok, err)
	}

	want := services.Credentials{
		Identity:     services.Identity{ID: "uid-1", Email: "admin@homelift.test"},
		IDToken:      "id-token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load ok=%v err=%v", ok, err)
	}
	if got.Identity != want.Identity || got.IDToken != want.IDToken || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Fatalf("session file mode=%o, want 600", perm)
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatalf("session still present after Clear")
	}
}

func TestFile_CorruptSession(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	store, _ := New(path)
	if _, ok, err := store.Load(); ok || err == nil {
		t.Fatalf("corrupt session ok=%v err=%v", ok, err)
	}
}
