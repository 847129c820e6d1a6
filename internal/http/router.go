package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/todo-api/internal/auth"
	"github.com/redmonkez12/todo-api/internal/config"
	"github.com/redmonkez12/todo-api/internal/httputil"
	"github.com/redmonkez12/todo-api/internal/logging"
	"github.com/redmonkez12/todo-api/internal/profile"
	"github.com/redmonkez12/todo-api/internal/task"
)

// Handlers groups the endpoint handlers mounted by the router
type Handlers struct {
	Auth    *auth.Handler
	Profile *profile.Handler
	Task    *task.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders(!cfg.Server.IsDevelopment()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))
	r.Use(LimitRequestBody(cfg.Upload.MaxSize))

	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Get("/logout", h.Auth.Logout)
		r.Post("/forgetpassword", h.Auth.ForgetPassword)
		r.Put("/resetpassword", h.Auth.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Post("/verify", h.Auth.Verify)
			r.Put("/updatepassword", h.Auth.UpdatePassword)

			r.Get("/me", h.Profile.Me)
			r.Put("/updateprofile", h.Profile.UpdateProfile)

			r.Post("/newtask", h.Task.Add)
			r.Put("/task/{taskId}", h.Task.Toggle)
			r.Delete("/task/{taskId}", h.Task.Remove)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} httputil.Response
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondSuccess(w, "api is running", http.StatusOK)
}
