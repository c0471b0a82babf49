package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/audit"
	"github.com/Hall-IA/crm-template-sub001/internal/auth"
	"github.com/Hall-IA/crm-template-sub001/internal/httpx"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
	"github.com/Hall-IA/crm-template-sub001/internal/validation"
)

// InteractionHandler exposes a contact's history. The trail is append-only:
// there is no update or delete endpoint here.
type InteractionHandler struct {
	db    *gorm.DB
	trail *audit.Trail
}

func NewInteractionHandler(db *gorm.DB, trail *audit.Trail) *InteractionHandler {
	return &InteractionHandler{db: db, trail: trail}
}

// List returns a contact's interactions in chronological order. Interactions
// with a business date (appointments) sort on it; others on creation time.
func (h *InteractionHandler) List(w http.ResponseWriter, r *http.Request) {
	contactID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || contactID <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}

	var count int64
	h.db.Model(&models.Contact{}).Where("id = ?", contactID).Count(&count)
	if count == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	var interactions []models.Interaction
	if err := h.db.Where("contact_id = ?", contactID).
		Order("COALESCE(date, created_at), id").
		Preload("User").
		Find(&interactions).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"interactions": interactions})
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateNote appends a manual note to a contact's history.
func (h *InteractionHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	contactID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || contactID <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("content", req.Content, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var count int64
	h.db.Model(&models.Contact{}).Where("id = ?", contactID).Count(&count)
	if count == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	// Manual notes are user content, not side effects: a failure here is the
	// request's failure, unlike the fire-and-forget audit appends.
	note, err := h.trail.Note(r.Context(), uint(contactID), req.Title, req.Content, actorID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, note)
}
