package contracttest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

type CleanupFunc = func()

type DocumentStoreFactory func(t *testing.T) (services.DocumentStore, CleanupFunc)
type ObjectStoreFactory func(t *testing.T) (services.ObjectStore, CleanupFunc)

// RunDocumentStore checks the behaviour the profile workflow relies on.
func RunDocumentStore(t *testing.T, newStore DocumentStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	// A fresh collection per run keeps emulator state from leaking between runs.
	coll := "contract_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	docs, err := store.List(ctx, coll)
	if err != nil {
		t.Fatalf("List empty: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty collection, got %d docs", len(docs))
	}

	id, err := store.Create(ctx, coll, map[string]any{
		"fullName":        "Jane Doe",
		"experienceYears": int64(3),
		"profilePhotoUrl": nil,
		"availability": map[string]any{
			"fullTime": true,
			"hours":    "Day",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatalf("Create returned empty id")
	}

	// Merge only touches the given fields and merges nested maps.
	if err := store.Merge(ctx, coll, id, map[string]any{
		"bioSummary":   "Patient and kind.",
		"availability": map[string]any{"partTime": true},
	}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	docs, err = store.List(ctx, coll)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != id {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	fields := docs[0].Fields
	if fields["fullName"] != "Jane Doe" || fields["bioSummary"] != "Patient and kind." {
		t.Fatalf("merge lost or missed fields: %#v", fields)
	}
	if v, ok := fields["profilePhotoUrl"]; !ok || v != nil {
		t.Fatalf("null field should be stored as null: %#v", fields)
	}
	avail, ok := fields["availability"].(map[string]any)
	if !ok || avail["fullTime"] != true || avail["partTime"] != true || avail["hours"] != "Day" {
		t.Fatalf("nested merge failed: %#v", fields["availability"])
	}

	// Merge never creates a document.
	if err := store.Merge(ctx, coll, "missing-id", map[string]any{"fullName": "New"}); !errors.Is(err, services.ErrDocumentNotFound) {
		t.Fatalf("Merge unknown id err=%v, want ErrDocumentNotFound", err)
	}
	docs, err = store.List(ctx, coll)
	if err != nil || len(docs) != 1 {
		t.Fatalf("Merge of an unknown id created a document: %+v (err=%v)", docs, err)
	}

	if err := store.Delete(ctx, coll, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, coll, id); err != nil {
		t.Fatalf("Delete of a missing document should succeed: %v", err)
	}
	docs, err = store.List(ctx, coll)
	if err != nil || len(docs) != 0 {
		t.Fatalf("unexpected docs after delete: %+v (err=%v)", docs, err)
	}
	if err := store.Merge(ctx, coll, id, map[string]any{"bioSummary": "late"}); !errors.Is(err, services.ErrDocumentNotFound) {
		t.Fatalf("Merge after delete err=%v, want ErrDocumentNotFound", err)
	}
}

// RunObjectStore checks the behaviour the upload workflow and avatar guard rely on.
func RunObjectStore(t *testing.T, newStore ObjectStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	key := "contract/" + uuid.NewString() + "_photo.png"
	payload := bytes.Repeat([]byte("homelift"), 1<<16) // 512 KiB

	var reports []int64
	err := store.Put(ctx, key, bytes.NewReader(payload), services.PutOptions{
		ContentType: "image/png",
		Size:        int64(len(payload)),
		Progress:    func(n int64) { reports = append(reports, n) },
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress went backwards: %v", reports)
		}
	}
	if len(reports) > 0 && reports[len(reports)-1] > int64(len(payload)) {
		t.Fatalf("progress overshot size: %v", reports)
	}

	u, err := store.URL(ctx, key)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if !strings.HasPrefix(u, "http") {
		t.Fatalf("URL=%q", u)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("read back %d bytes, want %d", len(got), len(payload))
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); !errors.Is(err, services.ErrObjectNotFound) {
		t.Fatalf("second Delete err=%v, want ErrObjectNotFound", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, services.ErrObjectNotFound) {
		t.Fatalf("Open after delete err=%v, want ErrObjectNotFound", err)
	}
}
