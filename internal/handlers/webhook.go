package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hall-IA/crm-template-sub001/internal/crm"
	"github.com/Hall-IA/crm-template-sub001/internal/httpx"
)

// WebhookHandler ingests leads pushed by external sources (Google Ads, Meta
// Lead Ads, sheet imports). Submissions go through the same lifecycle service
// as manual creation, so duplicate folding applies to webhook leads too.
type WebhookHandler struct {
	svc   *crm.ContactService
	token string
	log   *zap.Logger
}

func NewWebhookHandler(svc *crm.ContactService, token string, log *zap.Logger) *WebhookHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, token: token, log: log}
}

type leadPayload struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Source     string `json:"source"`
}

// IngestLead accepts a pushed lead. The shared token comes from the
// X-Webhook-Token header; a missing server-side token disables the endpoint.
func (h *WebhookHandler) IngestLead(w http.ResponseWriter, r *http.Request) {
	if h.token == "" {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	provided := r.Header.Get("X-Webhook-Token")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.token)) != 1 {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
		return
	}

	var lead leadPayload
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	origin := strings.TrimSpace(lead.Source)
	if origin == "" {
		origin = r.PathValue("provider")
	}

	eventID := uuid.NewString()
	// Webhook leads have no acting user; interactions attribute to actor 0.
	contact, folded, err := h.svc.Create(r.Context(), crm.CreateInput{
		FirstName:  lead.FirstName,
		LastName:   lead.LastName,
		Email:      lead.Email,
		Phone:      lead.Phone,
		City:       lead.City,
		PostalCode: lead.PostalCode,
		Origin:     origin,
	}, 0)
	if err != nil {
		if errors.Is(err, crm.ErrPhoneRequired) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"phone": "required"})
			return
		}
		h.log.Error("lead ingestion failed", zap.String("event_id", eventID), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	h.log.Info("lead ingested",
		zap.String("event_id", eventID),
		zap.String("provider", r.PathValue("provider")),
		zap.Uint("contact_id", contact.ID),
		zap.Bool("folded", folded),
	)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"event_id":  eventID,
		"reference": contact.Reference,
		"folded":    folded,
	})
}
