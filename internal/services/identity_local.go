package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// LocalIdentityProvider signs in through an Authenticator and remembers the
// credentials in a CredentialCache, so a later process starts signed in.
type LocalIdentityProvider struct {
	auth   Authenticator
	cache  CredentialCache
	clock  Clock
	logger *slog.Logger

	mu        sync.Mutex
	seq       uint64
	current   *Credentials
	started   bool
	restored  bool
	listeners map[int]func(IdentityChange)
	nextID    int
}

var _ IdentityProvider = (*LocalIdentityProvider)(nil)

func NewLocalIdentityProvider(auth Authenticator, cache CredentialCache, clock Clock, logger *slog.Logger) *LocalIdentityProvider {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalIdentityProvider{
		auth:      auth,
		cache:     cache,
		clock:     clock,
		logger:    logger.With("component", "local_identity"),
		listeners: make(map[int]func(IdentityChange)),
	}
}

// Subscribe registers fn. The first subscriber triggers the cache restore,
// whose result is delivered asynchronously as the first notification.
func (p *LocalIdentityProvider) Subscribe(fn func(IdentityChange)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	switch {
	case !p.started:
		p.started = true
		p.seq++
		go p.restore(p.seq)
	case p.restored:
		change := IdentityChange{Identity: credentialIdentity(p.current), Seq: p.seq}
		go fn(change)
	}
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *LocalIdentityProvider) restore(seq uint64) {
	var restored *Credentials
	if p.cache != nil {
		creds, ok, err := p.cache.Load()
		switch {
		case err != nil:
			p.logger.Warn("Could not read the cached session.", "error", err)
		case ok && creds.Expired(p.clock.Now()):
			renewed, err := p.renew(seq, creds)
			if err == nil {
				restored = &renewed
				break
			}
			p.logger.Info("Cached session expired; sign in again.", "userId", creds.Identity.ID, "reason", err)
			if err := p.cache.Clear(); err != nil {
				p.logger.Warn("Could not clear the expired session.", "error", err)
			}
		case ok:
			restored = &creds
		}
	}

	p.mu.Lock()
	p.restored = true
	if p.seq == seq {
		p.current = restored
	}
	p.mu.Unlock()
	p.broadcast(IdentityChange{Identity: credentialIdentity(restored), Seq: seq})
}

var errNotRefreshable = errors.New("session cannot be refreshed")

// renew trades the refresh token of expired credentials for new ones and
// caches them unless a sign-in or sign-out has happened since the restore began.
func (p *LocalIdentityProvider) renew(seq uint64, creds Credentials) (Credentials, error) {
	r, ok := p.auth.(Refresher)
	if !ok || creds.RefreshToken == "" {
		return Credentials{}, errNotRefreshable
	}
	renewed, err := r.Refresh(context.Background(), creds)
	if err != nil {
		return Credentials{}, err
	}
	if renewed.Expired(p.clock.Now()) {
		return Credentials{}, errNotRefreshable
	}
	p.mu.Lock()
	current := p.seq == seq
	p.mu.Unlock()
	if !current {
		return renewed, nil
	}
	if err := p.cache.Save(renewed); err != nil {
		p.logger.Warn("Session refreshed, but it could not be cached.", "error", err)
	}
	p.logger.Info("Refreshed the cached session.", "userId", renewed.Identity.ID)
	return renewed, nil
}

func (p *LocalIdentityProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	if p.auth == nil {
		return Identity{}, errors.New("no authenticator configured")
	}
	creds, err := p.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	if p.cache != nil {
		if err := p.cache.Save(creds); err != nil {
			p.logger.Warn("Signed in, but the session could not be cached.", "error", err)
		}
	}

	p.mu.Lock()
	p.seq++
	p.current = &creds
	change := IdentityChange{Identity: credentialIdentity(&creds), Seq: p.seq}
	p.mu.Unlock()
	p.broadcast(change)
	return creds.Identity, nil
}

func (p *LocalIdentityProvider) SignOut(ctx context.Context) error {
	var clearErr error
	if p.cache != nil {
		clearErr = p.cache.Clear()
	}
	p.mu.Lock()
	p.seq++
	p.current = nil
	change := IdentityChange{Seq: p.seq}
	p.mu.Unlock()
	p.broadcast(change)
	return clearErr
}

// Credentials returns the current credentials, if any.
func (p *LocalIdentityProvider) Credentials() (Credentials, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Credentials{}, false
	}
	return *p.current, true
}

func (p *LocalIdentityProvider) broadcast(change IdentityChange) {
	p.mu.Lock()
	listeners := make([]func(IdentityChange), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(IdentityChange{Identity: cloneIdentity(change.Identity), Seq: change.Seq})
	}
}

func credentialIdentity(c *Credentials) *Identity {
	if c == nil {
		return nil
	}
	id := c.Identity
	return &id
}

// ErrStaticSignIn is returned by StaticIdentityProvider.SignIn.
var ErrStaticSignIn = errors.New("sign-in is not available for a token session")

// StaticIdentityProvider reports a fixed identity, such as the subject of a
// verified ID token. It is used for one HTTP request.
type StaticIdentityProvider struct {
	mu       sync.Mutex
	identity *Identity
	seq      uint64
	fns      map[int]func(IdentityChange)
	nextID   int
}

var _ IdentityProvider = (*StaticIdentityProvider)(nil)

func NewStaticIdentityProvider(identity *Identity) *StaticIdentityProvider {
	return &StaticIdentityProvider{identity: cloneIdentity(identity), seq: 1, fns: make(map[int]func(IdentityChange))}
}

// Subscribe delivers the fixed identity synchronously.
func (p *StaticIdentityProvider) Subscribe(fn func(IdentityChange)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.fns[id] = fn
	change := IdentityChange{Identity: cloneIdentity(p.identity), Seq: p.seq}
	p.mu.Unlock()
	fn(change)
	return func() {
		p.mu.Lock()
		delete(p.fns, id)
		p.mu.Unlock()
	}
}

func (p *StaticIdentityProvider) SignIn(context.Context, string, string) (Identity, error) {
	return Identity{}, ErrStaticSignIn
}

func (p *StaticIdentityProvider) SignOut(context.Context) error {
	p.mu.Lock()
	p.identity = nil
	p.seq++
	change := IdentityChange{Seq: p.seq}
	fns := make([]func(IdentityChange), 0, len(p.fns))
	for _, fn := range p.fns {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(change)
	}
	return nil
}
