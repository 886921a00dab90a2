package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/models"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// signIn exchanges email and password for a Firebase ID token. The SPA sends
// the token back as a bearer token on every other call.
func (s *server) signIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.SignInRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProfileBody)).Decode(&req); err != nil {
		s.resp.handleServiceError(ctx, w, fmt.Errorf("%w: %v", errBadRequestBody, err))
		return
	}

	cfgErr := s.deps.ConfigErr
	if cfgErr == nil && s.deps.Auth == nil {
		cfgErr = services.ErrConfigurationMissing
	}
	provider := services.NewLocalIdentityProvider(s.deps.Auth, nil, s.deps.Clock, logging.FromContext(ctx))
	gate := services.NewSessionGate(provider, cfgErr, logging.FromContext(ctx))
	defer gate.Close()

	if _, err := gate.SignIn(ctx, req.Email, req.Password); err != nil {
		s.resp.handleServiceError(ctx, w, err)
		return
	}
	creds, _ := provider.Credentials()
	expiresIn := int64(creds.ExpiresAt.Sub(s.deps.Clock.Now()).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	s.resp.writeJSON(ctx, w, http.StatusOK, models.SignInResponse{
		UserID:       creds.Identity.ID,
		Email:        creds.Identity.Email,
		IDToken:      creds.IDToken,
		RefreshToken: creds.RefreshToken,
		ExpiresIn:    expiresIn,
	})
}
