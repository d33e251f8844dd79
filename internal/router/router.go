// Package router sets up all HTTP routes and middleware chains for the
// FeatherPress API. Routes are grouped by auth requirement: public feed
// reads, authenticated authoring, and admin-only management.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"featherpress/internal/handlers"
	"featherpress/internal/middleware"
	"featherpress/internal/session"
)

// loginRateLimit bounds login attempts per IP: 10 per minute.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. The returned rate limiter must be stopped
// on shutdown.
func New(sessionStore *session.Store, posts *handlers.Posts, comments *handlers.Comments, uploads *handlers.Uploads, auth *handlers.Auth, site *handlers.Site, users *handlers.Users) (chi.Router, *middleware.RateLimiter) {
	r := chi.NewRouter()
	loginLimiter := middleware.NewRateLimiter(loginRateLimit, loginRateWindow)

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))
	r.Use(middleware.CSRF)

	// Health check.
	r.Get("/health", healthHandler)

	// Auth.
	r.Route("/auth", func(r chi.Router) {
		r.With(loginLimiter.Middleware).Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)
		r.Post("/register", auth.Register)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
		})
	})

	// Posts: reads are public (visibility filtered per viewer), writes
	// need a session.
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", posts.List)
		r.Get("/{slug}", posts.Get)
		r.Post("/{id}/like", posts.Like)

		// Comments: reads and guest comments are public while the
		// extension is on.
		r.Get("/{id}/comments", comments.List)
		r.Post("/{id}/comments", comments.Create)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/", posts.Create)
			r.Put("/{id}", posts.Update)
			r.Delete("/{id}", posts.Delete)
		})
	})

	// Managing an existing comment needs a session; authors manage their
	// own, admins manage all.
	r.Route("/comments", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Put("/{commentID}", comments.Update)
		r.Delete("/{commentID}", comments.Delete)
	})

	// Uploads: downloads resolve for anyone holding the path (posts
	// embed it); mutations need a session.
	r.Route("/upload", func(r chi.Router) {
		r.Get("/{id}/download", uploads.Download)
		r.Get("/{id}/thumbnail", uploads.Thumbnail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/", uploads.Create)
			r.Delete("/{id}", uploads.Delete)
		})
	})

	// Site info and settings.
	r.Route("/site", func(r chi.Router) {
		r.Get("/info", site.Info)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireAdmin)
			r.Put("/extension/{name}", site.SetExtension)
			r.Patch("/settings", site.UpdateSettings)
		})
	})

	// User management — admin only.
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireAdmin)
		r.Get("/", users.List)
		r.Post("/", users.Create)
		r.Put("/{id}/role", users.UpdateRole)
		r.Post("/{id}/2fa/reset", users.ResetTwoFA)
		r.Delete("/{id}", users.Delete)
	})

	return r, loginLimiter
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
