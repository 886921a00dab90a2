package gcp

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type ctxKey struct{}

func TestStartClients_ContextOutlivesConstruction(t *testing.T) {
	t.Parallel()
	parent := context.WithValue(context.Background(), ctxKey{}, "homelift")

	var mu sync.Mutex
	var seen []context.Context
	capture := func(ctx context.Context) error {
		mu.Lock()
		seen = append(seen, ctx)
		mu.Unlock()
		return nil
	}
	boom := errors.New("could not find default credentials")

	err := startClients(parent, capture, capture, func(ctx context.Context) error {
		_ = capture(ctx)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want %v", err, boom)
	}
	if len(seen) != 3 {
		t.Fatalf("constructors run=%d", len(seen))
	}
	for i, ctx := range seen {
		if ctx.Err() != nil {
			t.Fatalf("constructor %d context cancelled after construction: %v", i, ctx.Err())
		}
		if ctx.Value(ctxKey{}) != "homelift" {
			t.Fatalf("constructor %d lost context values", i)
		}
	}
}

func TestStartClients_IgnoresParentCancel(t *testing.T) {
	t.Parallel()
	parent, cancel := context.WithCancel(context.Background())

	var built context.Context
	if err := startClients(parent, func(ctx context.Context) error {
		built = ctx
		return nil
	}); err != nil {
		t.Fatalf("startClients: %v", err)
	}
	cancel()
	if built.Err() != nil {
		t.Fatalf("client context cancelled with the caller's: %v", built.Err())
	}
}
