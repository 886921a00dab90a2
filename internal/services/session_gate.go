package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// GateMode is the initialization outcome of a SessionGate.
type GateMode int

const (
	// ModePending means the identity provider has not reported yet.
	ModePending GateMode = iota
	// ModeReady means the first identity notification arrived.
	ModeReady
	// ModeDisabled means the backend is not configured. The gate is ready but
	// every data operation is refused.
	ModeDisabled
)

func (m GateMode) String() string {
	switch m {
	case ModePending:
		return "pending"
	case ModeReady:
		return "ready"
	case ModeDisabled:
		return "disabled"
	}
	return fmt.Sprintf("GateMode(%d)", int(m))
}

// GateState is a snapshot of the gate.
type GateState struct {
	Mode     GateMode
	Identity *Identity
	// Reason is set when Mode is ModeDisabled.
	Reason error
}

// SessionGate tracks whether the identity provider has reported and who is
// signed in. Data operations ask it for permission through Authorize.
type SessionGate struct {
	provider IdentityProvider
	logger   *slog.Logger

	mu        sync.RWMutex
	mode      GateMode
	identity  *Identity
	reason    error
	applied   bool
	lastSeq   uint64
	listeners map[int]func(*Identity)
	nextID    int

	ready  chan struct{}
	cancel func()
}

// NewSessionGate subscribes to provider. When configErr is non-nil or provider
// is nil the gate starts disabled: ready at once, never signed in.
func NewSessionGate(provider IdentityProvider, configErr error, logger *slog.Logger) *SessionGate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &SessionGate{
		provider:  provider,
		logger:    logger.With("component", "session_gate"),
		listeners: make(map[int]func(*Identity)),
		ready:     make(chan struct{}),
	}

	if configErr != nil || provider == nil {
		if configErr == nil {
			configErr = ErrConfigurationMissing
		}
		g.mode = ModeDisabled
		g.reason = configErr
		close(g.ready)
		g.logger.Warn("Session gate disabled; data operations are unavailable.", "reason", configErr.Error())
		return g
	}

	cancel := provider.Subscribe(g.handle)
	g.mu.Lock()
	g.cancel = cancel
	g.mu.Unlock()
	return g
}

func (g *SessionGate) handle(change IdentityChange) {
	g.mu.Lock()
	if g.mode == ModeDisabled {
		g.mu.Unlock()
		return
	}
	if g.applied && change.Seq <= g.lastSeq {
		g.mu.Unlock()
		g.logger.Debug("Ignoring stale identity notification.", "seq", change.Seq, "lastSeq", g.lastSeq)
		return
	}
	g.applied = true
	g.lastSeq = change.Seq
	g.identity = cloneIdentity(change.Identity)
	if g.mode == ModePending {
		g.mode = ModeReady
		close(g.ready)
	}
	current := cloneIdentity(g.identity)
	listeners := make([]func(*Identity), 0, len(g.listeners))
	for _, fn := range g.listeners {
		listeners = append(listeners, fn)
	}
	g.mu.Unlock()

	if current != nil {
		g.logger.Info("Identity changed.", "userId", current.ID)
	} else {
		g.logger.Info("Identity changed.", "userId", nil)
	}
	for _, fn := range listeners {
		fn(cloneIdentity(current))
	}
}

// Ready reports whether the gate has finished initializing.
func (g *SessionGate) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mode != ModePending
}

// Identity returns the signed-in admin, or nil.
func (g *SessionGate) Identity() *Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneIdentity(g.identity)
}

// State returns a snapshot of mode, identity and disable reason.
func (g *SessionGate) State() GateState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return GateState{Mode: g.mode, Identity: cloneIdentity(g.identity), Reason: g.reason}
}

// Wait blocks until the gate is ready or ctx is done.
func (g *SessionGate) Wait(ctx context.Context) (GateState, error) {
	select {
	case <-g.ready:
		return g.State(), nil
	case <-ctx.Done():
		return g.State(), ctx.Err()
	}
}

// Authorize returns nil when a data operation may proceed.
func (g *SessionGate) Authorize() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	switch {
	case g.mode == ModeDisabled:
		return &Failure{Kind: ErrConfigurationMissing, Message: g.reason.Error(), Err: g.reason}
	case g.mode == ModePending:
		return fail(ErrNotReady)
	case g.identity == nil:
		return fail(ErrUnauthenticated)
	}
	return nil
}

// OnChange registers fn to be called with every applied identity change.
func (g *SessionGate) OnChange(fn func(*Identity)) (cancel func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// SignIn makes a single attempt with the provider. Provider errors keep their
// message so the admin sees exactly what the provider said.
func (g *SessionGate) SignIn(ctx context.Context, email, password string) (Identity, error) {
	if g.State().Mode == ModeDisabled {
		return Identity{}, g.Authorize()
	}

	verr := &ValidationError{}
	if strings.TrimSpace(email) == "" {
		verr.add("email", "required")
	}
	if password == "" {
		verr.add("password", "required")
	}
	if verr.HasErrors() {
		return Identity{}, verr
	}

	identity, err := g.provider.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		g.logger.Warn("Sign-in rejected.", "email", email, "error", err)
		return Identity{}, passThrough(ErrAuthFailure, err)
	}
	g.logger.Info("Signed in.", "userId", identity.ID)
	return identity, nil
}

// SignOut ends the session. Listeners registered with OnChange see nil.
func (g *SessionGate) SignOut(ctx context.Context) error {
	if g.State().Mode == ModeDisabled {
		return g.Authorize()
	}
	if err := g.provider.SignOut(ctx); err != nil {
		g.logger.Error("Sign-out failed.", "error", err)
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Close cancels the provider subscription.
func (g *SessionGate) Close() {
	g.mu.Lock()
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func cloneIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
