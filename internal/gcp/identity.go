package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// authMessages maps Identity Toolkit error codes to the messages the web
// admin shows for them.
var authMessages = map[string]string{
	"INVALID_LOGIN_CREDENTIALS":   "Firebase: Error (auth/invalid-credential).",
	"INVALID_PASSWORD":            "Firebase: Error (auth/invalid-credential).",
	"EMAIL_NOT_FOUND":             "Firebase: Error (auth/invalid-credential).",
	"INVALID_EMAIL":               "Firebase: Error (auth/invalid-email).",
	"USER_DISABLED":               "Firebase: Error (auth/user-disabled).",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Firebase: Error (auth/too-many-requests).",
	"TOKEN_EXPIRED":               "Firebase: Error (auth/user-token-expired).",
	"INVALID_REFRESH_TOKEN":       "Firebase: Error (auth/invalid-user-token).",
	"USER_NOT_FOUND":              "Firebase: Error (auth/user-not-found).",
}

const secureTokenURL = "https://securetoken.googleapis.com/v1/token"

// IdentityToolkit signs admins in with email and password against Firebase Auth.
// Expired ID tokens are renewed through the Secure Token API.
type IdentityToolkit struct {
	svc *identitytoolkit.Service
	now func() time.Time

	apiKey   string
	http     *http.Client
	tokenURL string
}

var (
	_ services.Authenticator = (*IdentityToolkit)(nil)
	_ services.Refresher     = (*IdentityToolkit)(nil)
)

// NewIdentityToolkit creates a client for the project's web API key.
func NewIdentityToolkit(ctx context.Context, apiKey string, opts ...option.ClientOption) (*IdentityToolkit, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey must be provided to create an identity toolkit client")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}
	return &IdentityToolkit{
		svc:      svc,
		now:      time.Now,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		tokenURL: secureTokenURL,
	}, nil
}

func (t *IdentityToolkit) SignInWithPassword(ctx context.Context, email, password string) (services.Credentials, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}
	resp, err := t.svc.Relyingparty.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		return services.Credentials{}, authError("signIn", err)
	}
	return services.Credentials{
		Identity:     services.Identity{ID: resp.LocalId, Email: resp.Email},
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    t.now().UTC().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}

type secureTokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in,string"`
	UserID       string `json:"user_id"`
}

// Refresh exchanges the refresh token in creds for a new ID token. The email
// is carried over since the token endpoint does not return it.
func (t *IdentityToolkit) Refresh(ctx context.Context, creds services.Credentials) (services.Credentials, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {creds.RefreshToken},
	}
	endpoint := t.tokenURL + "?" + url.Values{"key": {t.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return services.Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return services.Credentials{}, fmt.Errorf("refresh session: %w", err)
	}
	defer resp.Body.Close()
	if err := googleapi.CheckResponse(resp); err != nil {
		return services.Credentials{}, authError("refresh", err)
	}
	var body secureTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return services.Credentials{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if body.IDToken == "" {
		return services.Credentials{}, errors.New("refresh response carried no id token")
	}

	identity := creds.Identity
	if body.UserID != "" {
		identity.ID = body.UserID
	}
	refresh := body.RefreshToken
	if refresh == "" {
		refresh = creds.RefreshToken
	}
	return services.Credentials{
		Identity:     identity,
		IDToken:      body.IDToken,
		RefreshToken: refresh,
		ExpiresAt:    t.now().UTC().Add(time.Duration(body.ExpiresIn) * time.Second),
	}, nil
}

func authError(op string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	// Codes may carry a detail suffix, as in "WEAK_PASSWORD : Password should be at least 6 characters".
	code, _, _ := strings.Cut(gerr.Message, " ")
	if msg, ok := authMessages[code]; ok {
		return &RemoteError{Op: op, Code: gerr.Code, Message: msg, Err: err}
	}
	return remoteError(op, err)
}
