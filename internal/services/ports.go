package services

import (
	"context"
	"errors"
	"io"
	"time"
)

// Document is one stored record and the store-assigned ID it lives under.
type Document struct {
	ID     string
	Fields map[string]any
}

// DocumentStore is the document database behind the profile workflow.
//
// Merge follows Firestore's merge-all semantics: only the given fields are
// written and nested maps are merged key by key. Merge never creates a
// document; an unknown ID fails with ErrDocumentNotFound.
type DocumentStore interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}

// PutOptions describes an object being written.
type PutOptions struct {
	ContentType string
	Size        int64
	Metadata    map[string]string
	// Progress, if set, is called with the total bytes written after each chunk.
	Progress func(written int64)
}

// ErrDocumentNotFound is returned by DocumentStore.Merge for an unknown ID.
var ErrDocumentNotFound = errors.New("document not found")

// ErrObjectNotFound is returned by ObjectStore.Open and Delete for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the blob storage that holds profile photos.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error
	// URL returns a publicly fetchable download URL for an existing object.
	URL(ctx context.Context, key string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Identity is the signed-in admin.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IdentityChange is one notification from an identity provider. Seq grows with
// every change the provider makes, so a consumer can drop notifications that
// arrive after a newer one.
type IdentityChange struct {
	Identity *Identity
	Seq      uint64
}

// IdentityProvider signs admins in and out and reports who is signed in.
//
// Subscribe delivers the provider's current state as the first notification,
// possibly asynchronously. SignIn and SignOut notify subscribers before they
// return.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(IdentityChange)) (cancel func())
}

// Credentials are what a password sign-in yields.
type Credentials struct {
	Identity     Identity  `json:"identity"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the ID token is no longer valid at now.
func (c Credentials) Expired(now time.Time) bool {
	return c.IDToken == "" || !now.Before(c.ExpiresAt)
}

// Authenticator exchanges an email and password for credentials.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (Credentials, error)
}

// Refresher is implemented by authenticators that can exchange the refresh
// token of expired credentials for a new ID token.
type Refresher interface {
	Refresh(ctx context.Context, creds Credentials) (Credentials, error)
}

// CredentialCache persists the last successful sign-in between CLI runs.
type CredentialCache interface {
	Load() (Credentials, bool, error)
	Save(Credentials) error
	Clear() error
}

// TextGenerator produces model output for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Authorizer gates data operations on the session.
type Authorizer interface {
	Authorize() error
}

// IdentityWatcher is implemented by authorizers that can report sign-outs.
type IdentityWatcher interface {
	OnChange(fn func(*Identity)) (cancel func())
}

// Clock provides time to the workflows.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
