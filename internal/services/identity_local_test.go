package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/memory"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

type fakeAuthenticator struct {
	creds services.Credentials
	err   error
}

func (a fakeAuthenticator) SignInWithPassword(ctx context.Context, email, password string) (services.Credentials, error) {
	if a.err != nil {
		return services.Credentials{}, a.err
	}
	c := a.creds
	c.Identity.Email = email
	return c, nil
}

// memCache is an in-memory CredentialCache.
type memCache struct {
	mu      sync.Mutex
	creds   *services.Credentials
	cleared bool
}

func (c *memCache) Load() (services.Credentials, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds == nil {
		return services.Credentials{}, false, nil
	}
	return *c.creds, true, nil
}

func (c *memCache) Save(creds services.Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = &creds
	c.cleared = false
	return nil
}

func (c *memCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = nil
	c.cleared = true
	return nil
}

func (c *memCache) wasCleared() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared
}

func waitReady(t *testing.T, gate *services.SessionGate) services.GateState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := gate.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return state
}

func TestLocalIdentity_RestoresUnexpiredSession(t *testing.T) {
	t.Parallel()
	clock := memory.NewManualClock(testNow)
	cache := &memCache{creds: &services.Credentials{
		Identity:  services.Identity{ID: "uid-1", Email: adminEmail},
		IDToken:   "token",
		ExpiresAt: testNow.Add(30 * time.Minute),
	}}
	provider := services.NewLocalIdentityProvider(fakeAuthenticator{}, cache, clock, logging.Discard())
	gate := services.NewSessionGate(provider, nil, logging.Discard())
	defer gate.Close()

	state := waitReady(t, gate)
	if state.Identity == nil || state.Identity.ID != "uid-1" {
		t.Fatalf("state=%+v", state)
	}
	if creds, ok := provider.Credentials(); !ok || creds.IDToken != "token" {
		t.Fatalf("credentials not restored: %+v", creds)
	}
}

func TestLocalIdentity_ExpiredSessionRestoresSignedOut(t *testing.T) {
	t.Parallel()
	clock := memory.NewManualClock(testNow)
	cache := &memCache{creds: &services.Credentials{
		Identity:  services.Identity{ID: "uid-1"},
		IDToken:   "token",
		ExpiresAt: testNow.Add(-time.Second),
	}}
	provider := services.NewLocalIdentityProvider(fakeAuthenticator{}, cache, clock, logging.Discard())
	gate := services.NewSessionGate(provider, nil, logging.Discard())
	defer gate.Close()

	state := waitReady(t, gate)
	if state.Mode != services.ModeReady || state.Identity != nil {
		t.Fatalf("state=%+v", state)
	}
	if !cache.wasCleared() {
		t.Fatalf("expired session should be cleared from the cache")
	}
}

// refreshingAuthenticator renews credentials whose refresh token it knows.
type refreshingAuthenticator struct {
	fakeAuthenticator
	valid string
	next  services.Credentials
}

func (a refreshingAuthenticator) Refresh(ctx context.Context, creds services.Credentials) (services.Credentials, error) {
	if creds.RefreshToken != a.valid {
		return services.Credentials{}, errors.New("TOKEN_EXPIRED")
	}
	return a.next, nil
}

func TestLocalIdentity_ExpiredSessionIsRefreshed(t *testing.T) {
	t.Parallel()
	clock := memory.NewManualClock(testNow)
	cache := &memCache{creds: &services.Credentials{
		Identity:     services.Identity{ID: "uid-1", Email: adminEmail},
		IDToken:      "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    testNow.Add(-time.Minute),
	}}
	auth := refreshingAuthenticator{valid: "refresh-1", next: services.Credentials{
		Identity:     services.Identity{ID: "uid-1", Email: adminEmail},
		IDToken:      "renewed",
		RefreshToken: "refresh-2",
		ExpiresAt:    testNow.Add(time.Hour),
	}}
	provider := services.NewLocalIdentityProvider(auth, cache, clock, logging.Discard())
	gate := services.NewSessionGate(provider, nil, logging.Discard())
	defer gate.Close()

	state := waitReady(t, gate)
	if state.Identity == nil || state.Identity.ID != "uid-1" {
		t.Fatalf("state=%+v", state)
	}
	if creds, ok := provider.Credentials(); !ok || creds.IDToken != "renewed" {
		t.Fatalf("credentials=%+v", creds)
	}
	cached, ok, _ := cache.Load()
	if !ok || cached.RefreshToken != "refresh-2" {
		t.Fatalf("renewed session not cached: %+v", cached)
	}
}

func TestLocalIdentity_RejectedRefreshRestoresSignedOut(t *testing.T) {
	t.Parallel()
	clock := memory.NewManualClock(testNow)
	cache := &memCache{creds: &services.Credentials{
		Identity:     services.Identity{ID: "uid-1"},
		IDToken:      "stale",
		RefreshToken: "revoked",
		ExpiresAt:    testNow.Add(-time.Minute),
	}}
	provider := services.NewLocalIdentityProvider(refreshingAuthenticator{valid: "refresh-1"}, cache, clock, logging.Discard())
	gate := services.NewSessionGate(provider, nil, logging.Discard())
	defer gate.Close()

	state := waitReady(t, gate)
	if state.Mode != services.ModeReady || state.Identity != nil {
		t.Fatalf("state=%+v", state)
	}
	if !cache.wasCleared() {
		t.Fatalf("unrefreshable session should be cleared from the cache")
	}
}

// heldCache blocks Load until release is closed and then reports no session.
type heldCache struct {
	release chan struct{}
	loaded  chan struct{}
}

func (c *heldCache) Load() (services.Credentials, bool, error) {
	<-c.release
	defer close(c.loaded)
	return services.Credentials{}, false, nil
}

func (c *heldCache) Save(services.Credentials) error { return nil }
func (c *heldCache) Clear() error                    { return nil }

func TestLocalIdentity_SignInBeatsLateRestore(t *testing.T) {
	t.Parallel()
	cache := &heldCache{release: make(chan struct{}), loaded: make(chan struct{})}
	auth := fakeAuthenticator{creds: services.Credentials{
		Identity:  services.Identity{ID: "uid-7"},
		IDToken:   "fresh",
		ExpiresAt: testNow.Add(time.Hour),
	}}
	provider := services.NewLocalIdentityProvider(auth, cache, memory.NewManualClock(testNow), logging.Discard())
	gate := services.NewSessionGate(provider, nil, logging.Discard())
	defer gate.Close()

	if _, err := gate.SignIn(context.Background(), adminEmail, adminPassword); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if gate.Identity() == nil {
		t.Fatalf("sign-in should apply before the restore finishes")
	}

	// The restore started first, so its "signed out" notification is stale.
	close(cache.release)
	<-cache.loaded
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if gate.Identity() == nil {
			t.Fatalf("late restore overrode the sign-in")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if creds, ok := provider.Credentials(); !ok || creds.IDToken != "fresh" {
		t.Fatalf("credentials=%+v", creds)
	}
}

func TestLocalIdentity_SignInFailureAndSignOut(t *testing.T) {
	t.Parallel()
	cache := &memCache{}
	rejected := errors.New("INVALID_LOGIN_CREDENTIALS")
	provider := services.NewLocalIdentityProvider(fakeAuthenticator{err: rejected}, cache, nil, logging.Discard())
	gate := services.NewSessionGate(provider, nil, logging.Discard())
	defer gate.Close()
	waitReady(t, gate)

	_, err := gate.SignIn(context.Background(), adminEmail, "bad")
	if !errors.Is(err, services.ErrAuthFailure) || err.Error() != "INVALID_LOGIN_CREDENTIALS" {
		t.Fatalf("err=%v", err)
	}

	if err := gate.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if !cache.wasCleared() {
		t.Fatalf("sign-out should clear the cache")
	}
}
