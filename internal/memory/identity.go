package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// ErrInvalidCredential matches the message Firebase Auth returns for a wrong
// email or password.
var ErrInvalidCredential = errors.New("Firebase: Error (auth/invalid-credential).")

// IdentityProvider is an in-memory services.IdentityProvider with a fixed user
// list. Hold delays the initial notification of new subscribers so tests can
// observe a gate that has not become ready.
type IdentityProvider struct {
	mu        sync.Mutex
	users     map[string]user
	seq       uint64
	current   *services.Identity
	listeners map[int]func(services.IdentityChange)
	nextID    int
	held      bool
	pending   []pendingNotification
	signInErr error
}

type user struct {
	identity services.Identity
	password string
}

type pendingNotification struct {
	id     int
	change services.IdentityChange
}

var _ services.IdentityProvider = (*IdentityProvider)(nil)

func NewIdentityProvider() *IdentityProvider {
	return &IdentityProvider{
		users:     make(map[string]user),
		listeners: make(map[int]func(services.IdentityChange)),
	}
}

// AddUser registers an account and returns its identity.
func (p *IdentityProvider) AddUser(email, password string) services.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := services.Identity{ID: fmt.Sprintf("uid-%d", len(p.users)+1), Email: email}
	p.users[email] = user{identity: id, password: password}
	return id
}

// FailSignIn makes every SignIn return err until called with nil.
func (p *IdentityProvider) FailSignIn(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signInErr = err
}

// Hold queues the initial notification of subscribers until Release.
func (p *IdentityProvider) Hold() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held = true
}

// Release delivers every queued initial notification.
func (p *IdentityProvider) Release() {
	p.mu.Lock()
	p.held = false
	pending := p.pending
	p.pending = nil
	var deliver []func()
	for _, n := range pending {
		if fn, ok := p.listeners[n.id]; ok {
			change := n.change
			deliver = append(deliver, func() { fn(change) })
		}
	}
	p.mu.Unlock()
	for _, d := range deliver {
		d()
	}
}

// Emit delivers change to every subscriber as-is. Tests use it to replay
// notifications out of order.
func (p *IdentityProvider) Emit(change services.IdentityChange) {
	p.broadcast(change)
}

func (p *IdentityProvider) Subscribe(fn func(services.IdentityChange)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	initial := services.IdentityChange{Identity: cloneIdentity(p.current), Seq: p.seq}
	held := p.held
	if held {
		p.pending = append(p.pending, pendingNotification{id: id, change: initial})
	}
	p.mu.Unlock()

	if !held {
		fn(initial)
	}
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *IdentityProvider) SignIn(ctx context.Context, email, password string) (services.Identity, error) {
	if err := ctx.Err(); err != nil {
		return services.Identity{}, err
	}
	p.mu.Lock()
	if p.signInErr != nil {
		err := p.signInErr
		p.mu.Unlock()
		return services.Identity{}, err
	}
	u, ok := p.users[email]
	if !ok || u.password != password {
		p.mu.Unlock()
		return services.Identity{}, ErrInvalidCredential
	}
	p.seq++
	p.current = cloneIdentity(&u.identity)
	change := services.IdentityChange{Identity: cloneIdentity(p.current), Seq: p.seq}
	p.mu.Unlock()

	p.broadcast(change)
	return u.identity, nil
}

func (p *IdentityProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.seq++
	p.current = nil
	change := services.IdentityChange{Seq: p.seq}
	p.mu.Unlock()

	p.broadcast(change)
	return nil
}

func (p *IdentityProvider) broadcast(change services.IdentityChange) {
	p.mu.Lock()
	listeners := make([]func(services.IdentityChange), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(services.IdentityChange{Identity: cloneIdentity(change.Identity), Seq: change.Seq})
	}
}

func cloneIdentity(id *services.Identity) *services.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
