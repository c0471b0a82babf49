package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/audit"
	"github.com/Hall-IA/crm-template-sub001/internal/auth"
	"github.com/Hall-IA/crm-template-sub001/internal/crm"
	"github.com/Hall-IA/crm-template-sub001/internal/gate"
	"github.com/Hall-IA/crm-template-sub001/internal/httpx"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
	"github.com/Hall-IA/crm-template-sub001/internal/policy"
	"github.com/Hall-IA/crm-template-sub001/internal/validation"
)

// ContactHandler exposes the contact CRUD API. Mutations go through the
// lifecycle service so duplicate folding and audit logging always apply.
type ContactHandler struct {
	db       *gorm.DB
	svc      *crm.ContactService
	authGate *policy.AuthGate
}

func NewContactHandler(db *gorm.DB, svc *crm.ContactService, authGate *policy.AuthGate) *ContactHandler {
	return &ContactHandler{db: db, svc: svc, authGate: authGate}
}

// List returns contacts sorted by recency (folded duplicates resurface on
// top because the resolver re-stamps UpdatedAt).
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := 20
	offset := (page - 1) * limit

	db := h.db.Model(&models.Contact{})
	if query != "" {
		like := "%" + query + "%"
		db = db.Where(
			"first_name LIKE ? OR last_name LIKE ? OR company_name LIKE ? OR email LIKE ? OR phone LIKE ?",
			like, like, like, like, like)
	}
	if statusID, err := strconv.Atoi(r.URL.Query().Get("status_id")); err == nil && statusID > 0 {
		db = db.Where("status_id = ?", statusID)
	}

	var total int64
	db.Count(&total)

	var contacts []models.Contact
	if err := db.Preload("Status").Order("updated_at DESC").
		Limit(limit).Offset(offset).Find(&contacts).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"contacts": contacts,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// Get returns one contact. Non-admin callers must be among its assignees.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	contact, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.authGate.Authorize(r.Context(), gate.ActionView, "contact", contact); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, contact)
}

type contactRequest struct {
	Civility    *string `json:"civility"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	CompanyName *string `json:"company_name"`
	IsCompany   bool    `json:"is_company"`
	Phone       *string `json:"phone"`
	Phone2      *string `json:"phone2"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	PostalCode  *string `json:"postal_code"`
	Origin      *string `json:"origin"`
	StatusID    *uint   `json:"status_id"`
	ParentID    *uint   `json:"parent_company_id"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create registers a contact. When the submission duplicates an existing
// record it is folded: the existing contact comes back with 200 instead of
// 201 and a "folded" marker.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	v := make(validation.Violations)
	validation.Required("phone", deref(req.Phone), v)
	validation.Email("email", deref(req.Email), v)
	// Limits mirror the column sizes so the DB never truncates silently.
	validation.MaxLen("first_name", deref(req.FirstName), 100, v)
	validation.MaxLen("last_name", deref(req.LastName), 100, v)
	validation.MaxLen("phone", deref(req.Phone), 30, v)
	validation.MaxLen("email", deref(req.Email), 255, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	contact, folded, err := h.svc.Create(r.Context(), crm.CreateInput{
		Civility:    deref(req.Civility),
		FirstName:   deref(req.FirstName),
		LastName:    deref(req.LastName),
		CompanyName: deref(req.CompanyName),
		IsCompany:   req.IsCompany,
		Phone:       deref(req.Phone),
		Phone2:      deref(req.Phone2),
		Email:       deref(req.Email),
		Address:     deref(req.Address),
		City:        deref(req.City),
		PostalCode:  deref(req.PostalCode),
		Origin:      deref(req.Origin),
		StatusID:    req.StatusID,
		ParentID:    req.ParentID,
	}, actorID)
	if err != nil {
		if errors.Is(err, crm.ErrPhoneRequired) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"phone": "required"})
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	status := http.StatusCreated
	if folded {
		status = http.StatusOK
	}
	httpx.JSON(w, status, map[string]any{
		"contact": contact,
		"folded":  folded,
	})
}

// Update applies a partial edit through the lifecycle service.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	contact, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.authGate.Authorize(r.Context(), gate.ActionUpdate, "contact", contact); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	updated, err := h.svc.Update(r.Context(), contact.ID, crm.UpdateInput{
		Civility:    req.Civility,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
		Phone2:      req.Phone2,
		Email:       req.Email,
		Address:     req.Address,
		City:        req.City,
		PostalCode:  req.PostalCode,
		Origin:      req.Origin,
		StatusID:    req.StatusID,
	}, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type assignRequest struct {
	Role   string `json:"role"`
	UserID *uint  `json:"user_id"`
}

// Assign sets the commercial or telepro of a contact.
func (h *ContactHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	contact, ok := h.load(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("role", req.Role, v)
	validation.OneOf("role", req.Role, []string{audit.AssignCommercial, audit.AssignTelepro}, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	updated, err := h.svc.Assign(r.Context(), contact.ID, req.Role, req.UserID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// Delete removes a contact and its history.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contact, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), contact.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": contact.ID})
}

func (h *ContactHandler) load(w http.ResponseWriter, r *http.Request) (*models.Contact, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, false
	}
	var contact models.Contact
	if err := h.db.Preload("Status").Preload("Commercial").Preload("Telepro").
		First(&contact, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}
	return &contact, true
}
