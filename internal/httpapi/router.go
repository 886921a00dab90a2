package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

// Deps is everything the admin API needs. Docs, Objects, Auth and Verifier
// may be nil when ConfigErr is set.
type Deps struct {
	ConfigErr error

	Verifier  TokenVerifier
	Auth      services.Authenticator
	Docs      services.DocumentStore
	Objects   services.ObjectStore
	Generator services.TextGenerator
	Clock     services.Clock

	Collection     string
	AvatarPrefix   string
	Policy         services.UploadPolicy
	AllowedOrigins []string

	Logger *slog.Logger
}

type server struct {
	deps Deps
	resp responder
}

// NewRouter constructs the admin API HTTP router.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = services.SystemClock{}
	}
	if deps.Policy.MaxBytes == 0 {
		deps.Policy = services.DefaultUploadPolicy()
	}
	s := &server{deps: deps, resp: newResponder(deps.Logger)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", s.signIn)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/profiles", s.listProfiles)
			r.Post("/profiles", s.createProfile)
			r.Patch("/profiles/{id}", s.updateProfile)
			r.Delete("/profiles/{id}", s.deleteProfile)
			r.Get("/profiles/{id}/sheet", s.profileSheet)
			r.Post("/profiles/{id}/bio-draft", s.bioDraft)
			r.Post("/uploads", s.uploadAvatar)
		})
	})
	return r
}

// requestLogger puts a logger scoped to the request ID into the context.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.deps.Logger.With("requestId", middleware.GetReqID(r.Context()), "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithLogger(r.Context(), logger)))
	})
}
