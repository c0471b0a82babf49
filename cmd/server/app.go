package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/auth"
	"github.com/Hall-IA/crm-template-sub001/internal/gate"
	"github.com/Hall-IA/crm-template-sub001/internal/middleware"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
	"github.com/Hall-IA/crm-template-sub001/internal/policy"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *RouterConfig
	log       *zap.Logger
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *RouterConfig, log *zap.Logger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
		log:       log,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler. Global middleware wraps the mux:
// panic recovery, metrics, request logging, then auth context.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := middleware.Recovery(a.log)(
		middleware.Metrics()(
			middleware.Logging(a.log)(
				auth.Middleware(a.mux))))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler

	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	a.mux.HandleFunc("POST /api/auth/login", ah.Login)
	a.mux.HandleFunc("POST /api/auth/logout", ah.Logout)
	a.mux.Handle("GET /api/auth/me", a.requireAuth(http.HandlerFunc(ah.Me)))

	// Lead ingestion from external sources. Protected by a shared token
	// checked inside the handler, not by a session.
	wh := a.routerCfg.WebhookHandler
	a.mux.HandleFunc("POST /webhooks/leads/{provider}", wh.IngestLead)

	// ─────────────────────────────────────────────────────────────────────────
	// Protected resource routes (require auth + specific permissions)
	// ─────────────────────────────────────────────────────────────────────────
	ch := a.routerCfg.ContactHandler
	ih := a.routerCfg.InteractionHandler
	sh := a.routerCfg.StatusHandler

	// Contacts - require contact:list, contact:create, etc.
	a.mux.Handle("GET /api/contacts",
		a.requireAuth(a.requirePermission("contact", gate.ActionList)(http.HandlerFunc(ch.List))))
	a.mux.Handle("POST /api/contacts",
		a.requireAuth(a.requirePermission("contact", gate.ActionCreate)(http.HandlerFunc(ch.Create))))
	a.mux.Handle("GET /api/contacts/{id}",
		a.requireAuth(a.requirePermission("contact", gate.ActionView)(http.HandlerFunc(ch.Get))))
	a.mux.Handle("PUT /api/contacts/{id}",
		a.requireAuth(a.requirePermission("contact", gate.ActionUpdate)(http.HandlerFunc(ch.Update))))
	a.mux.Handle("DELETE /api/contacts/{id}",
		a.requireAuth(a.requirePermission("contact", gate.ActionDelete)(http.HandlerFunc(ch.Delete))))
	a.mux.Handle("POST /api/contacts/{id}/assign",
		a.requireAuth(a.requirePermission("contact", gate.ActionAssign)(http.HandlerFunc(ch.Assign))))

	// Interactions - read the history, append notes.
	a.mux.Handle("GET /api/contacts/{id}/interactions",
		a.requireAuth(a.requirePermission("interaction", gate.ActionList)(http.HandlerFunc(ih.List))))
	a.mux.Handle("POST /api/contacts/{id}/notes",
		a.requireAuth(a.requirePermission("interaction", gate.ActionCreate)(http.HandlerFunc(ih.CreateNote))))

	// Statuses - creating pipeline stages is additionally gated on the legacy
	// role hierarchy (manager or above), on top of the profile permission.
	a.mux.Handle("GET /api/statuses",
		a.requireAuth(a.requirePermission("status", gate.ActionList)(http.HandlerFunc(sh.List))))
	a.mux.Handle("POST /api/statuses",
		a.requireAuth(a.requirePermission("status", gate.ActionCreate)(
			policy.RequireRole(models.RoleManager)(http.HandlerFunc(sh.Create)))))

	// ─────────────────────────────────────────────────────────────────────────
	// Admin routes (require the superadmin wildcard)
	// ─────────────────────────────────────────────────────────────────────────
	aph := a.routerCfg.AdminProfileHandler
	auh := a.routerCfg.AdminUserHandler

	// Profile management
	a.mux.Handle("GET /api/admin/profiles",
		a.requireAuth(a.requireAdmin(http.HandlerFunc(aph.List))))
	a.mux.Handle("POST /api/admin/profiles",
		a.requireAuth(a.requireAdmin(http.HandlerFunc(aph.Create))))
	a.mux.Handle("PUT /api/admin/profiles/{id}",
		a.requireAuth(a.requireAdmin(http.HandlerFunc(aph.Update))))
	a.mux.Handle("DELETE /api/admin/profiles/{id}",
		a.requireAuth(a.requireAdmin(http.HandlerFunc(aph.Delete))))
	a.mux.Handle("PUT /api/admin/profiles/{id}/permissions",
		a.requireAuth(a.requireAdmin(http.HandlerFunc(aph.SavePermissions))))
	a.mux.Handle("GET /api/admin/permissions",
		a.requireAuth(a.requireAdmin(http.HandlerFunc(aph.ListPermissions))))

	// User management
	a.mux.Handle("GET /api/admin/users",
		a.requireAuth(a.requireAdmin(http.HandlerFunc(auh.List))))
	a.mux.Handle("PUT /api/admin/users/{id}/profile",
		a.requireAuth(a.requireAdmin(http.HandlerFunc(auh.AssignProfile))))
	a.mux.Handle("PUT /api/admin/users/{id}/active",
		a.requireAuth(a.requireAdmin(http.HandlerFunc(auh.SetActive))))
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// requireAuth wraps a handler to require an authenticated, active user.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

// requireAdmin wraps a handler to require the superadmin wildcard permission.
func (a *App) requireAdmin(next http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequireAdmin()(next)
}

// requirePermission wraps a handler to require specific resource permission.
func (a *App) requirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)
}

// healthz reports liveness and database reachability.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
