package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/storeadmin/internal/auth"
	"github.com/frahmantamala/storeadmin/internal/core/metrics"
	"github.com/frahmantamala/storeadmin/internal/rbac"
	"github.com/frahmantamala/storeadmin/internal/transport/middleware"
	"github.com/frahmantamala/storeadmin/internal/transport/swagger"
	"github.com/frahmantamala/storeadmin/internal/user"
	"github.com/frahmantamala/storeadmin/pkg/logger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Dependencies are the handlers and infrastructure the router mounts.
// Optional parts are skipped when nil or empty.
type Dependencies struct {
	DB             *sql.DB
	AuthHandler    *auth.Handler
	UserHandler    *user.Handler
	Guard          *auth.RBACAuthorization
	Metrics        *metrics.Recorder
	MetricsPath    string
	LoginLimiter   *middleware.RateLimiter
	OpenAPIPath    string
	AllowedOrigins string
	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	Logger            *slog.Logger
}

func RegisterAllRoutes(router chi.Router, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = logger.LoggerWrapper()
	}
	healthHandler := NewHealthHandler(deps.DB)

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	if deps.TrustProxyHeaders {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))

	if deps.Metrics != nil && deps.MetricsPath != "" {
		router.Method(http.MethodGet, deps.MetricsPath, deps.Metrics.Handler())
	}

	if deps.OpenAPIPath != "" {
		// Serve OpenAPI spec at root (outside API prefix)
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, deps.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if deps.AuthHandler == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Group(func(lr chi.Router) {
				if deps.LoginLimiter != nil {
					lr.Use(middleware.RateLimit(deps.LoginLimiter))
				}
				lr.Post("/login", deps.AuthHandler.Login)
				lr.Post("/refresh", deps.AuthHandler.RefreshToken)
			})
			ar.Post("/logout", deps.AuthHandler.Logout)
		})

		if deps.UserHandler == nil || deps.Guard == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.AuthMiddleware)

			pr.With(deps.Guard.Require()).Get("/users/me", deps.UserHandler.GetCurrentUser)

			pr.With(deps.Guard.Require(rbac.PermUsersView)).Get("/users", deps.UserHandler.ListUsers)
			pr.With(deps.Guard.Require(rbac.PermUsersCreate)).Post("/users", deps.UserHandler.CreateUser)
			pr.With(deps.Guard.Require(rbac.PermUsersEdit)).Put("/users/{id}/permissions", deps.UserHandler.UpdatePermissions)
			pr.With(deps.Guard.Require(rbac.PermUsersEdit)).Patch("/users/{id}/status", deps.UserHandler.UpdateStatus)
			pr.With(deps.Guard.Require(rbac.PermRolesView)).Get("/roles", deps.UserHandler.ListRoles)
		})
	})
}
