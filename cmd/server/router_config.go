package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/audit"
	"github.com/Hall-IA/crm-template-sub001/internal/config"
	"github.com/Hall-IA/crm-template-sub001/internal/crm"
	"github.com/Hall-IA/crm-template-sub001/internal/gate"
	"github.com/Hall-IA/crm-template-sub001/internal/handlers"
	"github.com/Hall-IA/crm-template-sub001/internal/policy"
)

// RouterConfig holds the configured handlers and middleware for the app.
type RouterConfig struct {
	// AuthGate provides authorization checks and middleware
	AuthGate *policy.AuthGate

	// Admin handlers
	AdminProfileHandler *handlers.AdminProfileHandler
	AdminUserHandler    *handlers.AdminUserHandler

	// Auth handler
	AuthHandler *handlers.AuthHandler

	// Business handlers
	ContactHandler     *handlers.ContactHandler
	InteractionHandler *handlers.InteractionHandler
	StatusHandler      *handlers.StatusHandler
	WebhookHandler     *handlers.WebhookHandler

	// Services
	ContactService *crm.ContactService
	Trail          *audit.Trail
}

// NewRouterConfig wires the authorization gate, the audit trail, the contact
// lifecycle service and all handlers.
func NewRouterConfig(db *gorm.DB, cfg *config.Config, log *zap.Logger) *RouterConfig {
	cacheTTL := time.Duration(cfg.App.ProfileCacheTTL) * time.Second
	authGate := policy.NewAuthGate(db, cacheTTL)

	// Contacts are scoped to their assignees; admins and users holding the
	// assign permission see every contact.
	canSeeAll := func(ctx context.Context, userID uint) bool {
		profile, err := authGate.CacheResolver.Resolve(ctx, userID)
		if err != nil || profile == nil {
			return false
		}
		return profile.HasPermission(gate.PermissionSuperAdmin) ||
			profile.HasPermission(gate.NewPermission("contact", gate.ActionAssign))
	}
	authGate.RegisterPolicy("contact", policy.NewAdminBypassPolicy(policy.NewAssignmentPolicy(), canSeeAll))

	trail := audit.NewTrail(db, log)
	resolver := crm.NewResolver(db, trail, log)
	contactService := crm.NewContactService(db, resolver, trail, log)

	return &RouterConfig{
		AuthGate:            authGate,
		AdminProfileHandler: handlers.NewAdminProfileHandler(db, authGate.CacheResolver),
		AdminUserHandler:    handlers.NewAdminUserHandler(db, authGate.CacheResolver),
		AuthHandler:         handlers.NewAuthHandler(db, time.Duration(cfg.App.APITokenTTL)*time.Second),
		ContactHandler:      handlers.NewContactHandler(db, contactService, authGate),
		InteractionHandler:  handlers.NewInteractionHandler(db, trail),
		StatusHandler:       handlers.NewStatusHandler(db),
		WebhookHandler:      handlers.NewWebhookHandler(contactService, cfg.App.WebhookToken, log),
		ContactService:      contactService,
		Trail:               trail,
	}
}
