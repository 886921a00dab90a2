package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// ErrUnknownToken is returned by Accounts.Verify for a token it never issued
// or one that has expired.
var ErrUnknownToken = errors.New("unknown or expired id token")

// ErrUnknownRefreshToken is returned by Accounts.Refresh for a refresh token
// it never issued or one already exchanged.
var ErrUnknownRefreshToken = errors.New("unknown refresh token")

const tokenLifetime = time.Hour

// Accounts is an in-memory password authenticator that also verifies the
// tokens it issues. It backs the memory mode of the admin binaries.
type Accounts struct {
	clock services.Clock

	mu      sync.Mutex
	users   map[string]user
	tokens  map[string]issuedToken
	refresh map[string]services.Identity
}

type issuedToken struct {
	identity services.Identity
	expires  time.Time
}

var (
	_ services.Authenticator = (*Accounts)(nil)
	_ services.Refresher     = (*Accounts)(nil)
)

func NewAccounts(clock services.Clock) *Accounts {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &Accounts{
		clock:   clock,
		users:   make(map[string]user),
		tokens:  make(map[string]issuedToken),
		refresh: make(map[string]services.Identity),
	}
}

// AddUser registers an account and returns its identity.
func (a *Accounts) AddUser(email, password string) services.Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := services.Identity{ID: fmt.Sprintf("uid-%d", len(a.users)+1), Email: email}
	a.users[email] = user{identity: id, password: password}
	return id
}

func (a *Accounts) SignInWithPassword(ctx context.Context, email, password string) (services.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return services.Credentials{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[email]
	if !ok || u.password != password {
		return services.Credentials{}, ErrInvalidCredential
	}
	return a.issue(u.identity), nil
}

// Refresh exchanges a refresh token for new credentials. Each refresh token
// is accepted once.
func (a *Accounts) Refresh(ctx context.Context, creds services.Credentials) (services.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return services.Credentials{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	identity, ok := a.refresh[creds.RefreshToken]
	if !ok {
		return services.Credentials{}, ErrUnknownRefreshToken
	}
	delete(a.refresh, creds.RefreshToken)
	return a.issue(identity), nil
}

// issue must be called with a.mu held.
func (a *Accounts) issue(identity services.Identity) services.Credentials {
	token := uuid.NewString()
	refresh := uuid.NewString()
	expires := a.clock.Now().Add(tokenLifetime)
	a.tokens[token] = issuedToken{identity: identity, expires: expires}
	a.refresh[refresh] = identity
	return services.Credentials{
		Identity:     identity,
		IDToken:      token,
		RefreshToken: refresh,
		ExpiresAt:    expires,
	}
}

// Verify returns the identity a live token was issued to.
func (a *Accounts) Verify(_ context.Context, raw string) (services.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tokens[raw]
	if !ok || !a.clock.Now().Before(t.expires) {
		return services.Identity{}, ErrUnknownToken
	}
	return t.identity, nil
}
