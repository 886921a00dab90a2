package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// TokenVerifier turns a Firebase ID token into the identity it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (services.Identity, error)
}

type gateKey struct{}

func withGate(ctx context.Context, gate *services.SessionGate) context.Context {
	return context.WithValue(ctx, gateKey{}, gate)
}

// gateFromContext returns the request's session gate. Without one the result
// is a disabled gate, so data operations fail closed.
func gateFromContext(ctx context.Context) *services.SessionGate {
	if gate, ok := ctx.Value(gateKey{}).(*services.SessionGate); ok && gate != nil {
		return gate
	}
	return services.NewSessionGate(nil, services.ErrConfigurationMissing, logging.FromContext(ctx))
}

var (
	errMissingAuthorization   = errors.New("missing Authorization header")
	errMalformedAuthorization = errors.New("malformed Authorization header")
	errInvalidToken           = errors.New("invalid token")
)

// requireSession enforces Authorization: Bearer <ID token> and gives the
// request a session gate for the token's subject. With the Firebase settings
// missing the gate is disabled and every data operation answers 503.
func (s *server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		raw, err := bearerToken(r)
		if err != nil {
			s.resp.writeStatus(ctx, w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		if s.deps.ConfigErr != nil || s.deps.Verifier == nil {
			gate := services.NewSessionGate(nil, configErr(s.deps.ConfigErr), logger)
			next.ServeHTTP(w, r.WithContext(withGate(ctx, gate)))
			return
		}

		identity, err := s.deps.Verifier.Verify(ctx, raw)
		if err != nil {
			logger.Warn("Rejected bearer token.", "error", err)
			s.resp.writeStatus(ctx, w, http.StatusUnauthorized, "unauthenticated", errInvalidToken.Error())
			return
		}

		logger = logger.With("userId", identity.ID)
		gate := services.NewSessionGate(services.NewStaticIdentityProvider(&identity), nil, logger)
		defer gate.Close()
		ctx = logging.ContextWithLogger(withGate(ctx, gate), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", errMissingAuthorization
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", errMalformedAuthorization
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if raw == "" {
		return "", errMissingAuthorization
	}
	return raw, nil
}

func configErr(err error) error {
	if err == nil {
		return services.ErrConfigurationMissing
	}
	return err
}
