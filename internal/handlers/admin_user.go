package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/gate"
	"github.com/Hall-IA/crm-template-sub001/internal/httpx"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

// AdminUserHandler manages user accounts: profile assignment and activation.
type AdminUserHandler struct {
	DB            *gorm.DB
	CacheResolver *gate.CachedResolver[uint]
}

func NewAdminUserHandler(db *gorm.DB, cacheResolver *gate.CachedResolver[uint]) *AdminUserHandler {
	return &AdminUserHandler{DB: db, CacheResolver: cacheResolver}
}

// List returns all users with their profiles.
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.DB.Preload("Profile").Order("email").Find(&users).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

type assignProfileRequest struct {
	ProfileID *uint `json:"profile_id"`
}

// AssignProfile sets or clears a user's permission profile. The user's cached
// profile is invalidated so the change applies on the next request.
func (h *AdminUserHandler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	var req assignProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	if req.ProfileID != nil {
		var count int64
		h.DB.Model(&models.Profile{}).Where("id = ?", *req.ProfileID).Count(&count)
		if count == 0 {
			httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
			return
		}
	}

	if err := h.DB.Model(user).Update("profile_id", req.ProfileID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	if h.CacheResolver != nil {
		h.CacheResolver.Invalidate(user.ID)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":    user.ID,
		"profile_id": req.ProfileID,
	})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive enables or disables a user account. Disabled accounts fail the
// session verifier on their next request.
func (h *AdminUserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.DB.Model(user).Update("active", req.Active).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	if h.CacheResolver != nil {
		h.CacheResolver.Invalidate(user.ID)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": user.ID, "active": req.Active})
}

func (h *AdminUserHandler) loadUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, false
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}
	return &user, true
}
