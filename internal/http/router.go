package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/redmonkez12/todos-api/internal/auth"
	"github.com/redmonkez12/todos-api/internal/config"
	"github.com/redmonkez12/todos-api/internal/httputil"
	"github.com/redmonkez12/todos-api/internal/logging"
	"github.com/redmonkez12/todos-api/internal/ratelimit"
	"github.com/redmonkez12/todos-api/internal/todo"
)

// Handlers groups the endpoint handlers mounted by NewRouter
type Handlers struct {
	Auth  *auth.Handler
	Todos *todo.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, limiter *ratelimit.Limiter, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5, "application/json"))

	r.Get("/health", handleHealth)

	r.Route("/accounts", func(r chi.Router) {
		r.With(limiter.Middleware("register")).Post("/", h.Auth.Register)
		r.With(limiter.Middleware("login")).Post("/token/", h.Auth.Token)

		r.Get("/profile/", h.Auth.GetProfile)
		r.Put("/profile/", h.Auth.UpdateProfile)
		r.Post("/phone-number/confirm/ask/", h.Auth.AskPhoneConfirmation)
		r.Post("/phone-number/confirm/", h.Auth.ConfirmPhoneNumber)
		r.Post("/password/change/", h.Auth.ChangePassword)
		r.Post("/deactivate/", h.Auth.Deactivate)
	})

	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.Todos.List)
		r.Post("/", h.Todos.Create)
		r.Get("/{id}/", h.Todos.Get)
		r.Put("/{id}/", h.Todos.Update)
		r.Delete("/{id}/", h.Todos.Delete)
	})

	r.Get("/main/media/images/{filename}/", h.Todos.GetImage)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondError(w, "Not found.", httputil.CodeNotFound, http.StatusNotFound)
	})

	return r
}

// handleHealth is a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
