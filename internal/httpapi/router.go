package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/khdigital94/hdforms/internal/admin"
	"github.com/khdigital94/hdforms/internal/auth"
	"github.com/khdigital94/hdforms/internal/forms"
	"github.com/khdigital94/hdforms/internal/intake"
	"github.com/khdigital94/hdforms/internal/ratelimit"
	"github.com/khdigital94/hdforms/internal/upload"
)

// Deps are the services the HTTP surface is built on
type Deps struct {
	Intake     *intake.Service
	Uploads    *upload.Store
	Forms      *forms.Registry
	Admin      *admin.Service
	CSRF       *auth.CSRF
	Burst      *ratelimit.BurstStore // nil disables the burst guard
	JWTSecret  string
	TrustProxy bool
	Logger     *slog.Logger
}

type handler struct {
	Deps
	logger *slog.Logger
}

// New builds the router
func New(deps Deps) *chi.Mux {
	h := &handler{Deps: deps, logger: deps.Logger.With("component", "http")}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(accessLog(h.logger))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(burstGuard(deps.Burst, deps.TrustProxy))

		r.Post("/api/forms/submit", h.submit)
		r.Post("/api/forms/upload", h.upload)
		r.Get("/embed/{id}", h.embed)
	})
	r.Handle(upload.URLPath+"*", http.StripPrefix(upload.URLPath, noListing(http.FileServer(http.Dir(deps.Uploads.Dir())))))

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Middleware(deps.JWTSecret, auth.RoleAdmin))

		r.Get("/token", h.adminToken)

		r.Get("/submissions", h.submissions)
		r.Get("/submissions/{id}", h.submission)

		r.Get("/forms", h.formList)
		r.Post("/forms", h.formSave)
		r.Get("/forms/{id}", h.formGet)

		r.Get("/settings", h.settingsGet)
		r.Post("/settings", h.settingsSave)
	})

	return r
}
