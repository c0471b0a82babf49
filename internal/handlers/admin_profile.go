package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/auth"
	"github.com/Hall-IA/crm-template-sub001/internal/gate"
	"github.com/Hall-IA/crm-template-sub001/internal/httpx"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

// AdminProfileHandler handles CRUD operations for permission profiles.
type AdminProfileHandler struct {
	DB            *gorm.DB
	CacheResolver *gate.CachedResolver[uint] // To invalidate cache on changes
}

// NewAdminProfileHandler creates a new admin profile handler.
func NewAdminProfileHandler(db *gorm.DB, cacheResolver *gate.CachedResolver[uint]) *AdminProfileHandler {
	return &AdminProfileHandler{DB: db, CacheResolver: cacheResolver}
}

// List returns all profiles with their permissions and user counts.
func (h *AdminProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var profiles []models.Profile
	if err := h.DB.Preload("Permissions").Preload("Users").Find(&profiles).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	type profileRow struct {
		models.Profile
		UsersCount int `json:"users_count"`
	}
	rows := make([]profileRow, len(profiles))
	for i, p := range profiles {
		rows[i] = profileRow{Profile: p, UsersCount: len(p.Users)}
		rows[i].Users = nil
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": rows})
}

type profileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create adds a new profile.
func (h *AdminProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	profile := models.Profile{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if profile.Name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}

	if err := h.DB.Create(&profile).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "unique") {
			httpx.JSONError(w, http.StatusConflict, "name_already_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, profile)
}

// Update edits a profile's name and description.
func (h *AdminProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.loadProfile(w, r, nil)
	if !ok {
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		profile.Name = name
	}
	profile.Description = strings.TrimSpace(req.Description)

	if err := h.DB.Save(profile).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	// Invalidate all cache since profile may affect multiple users
	if h.CacheResolver != nil {
		h.CacheResolver.InvalidateAll()
	}
	httpx.JSON(w, http.StatusOK, profile)
}

// Delete removes a profile. System profiles and profiles with assigned users
// are protected.
func (h *AdminProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.loadProfile(w, r, []string{"Users"})
	if !ok {
		return
	}

	if profile.IsSystem {
		httpx.JSONError(w, http.StatusForbidden, "cannot_delete_system_profile", nil)
		return
	}
	if len(profile.Users) > 0 {
		httpx.JSONError(w, http.StatusConflict, "profile_has_users", map[string]any{
			"users_count": len(profile.Users),
		})
		return
	}

	if err := h.DB.Delete(profile).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	if h.CacheResolver != nil {
		h.CacheResolver.InvalidateAll()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": profile.ID})
}

type savePermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids"`
}

// SavePermissions replaces a profile's permission set.
func (h *AdminProfileHandler) SavePermissions(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.loadProfile(w, r, nil)
	if !ok {
		return
	}

	var req savePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	var permissions []models.Permission
	if len(req.PermissionIDs) > 0 {
		h.DB.Where("id IN ?", req.PermissionIDs).Find(&permissions)
	}

	// GORM handles the many2many join table
	if err := h.DB.Model(profile).Association("Permissions").Replace(permissions); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	if h.CacheResolver != nil {
		h.CacheResolver.InvalidateAll()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"profile_id":  profile.ID,
		"permissions": permissions,
	})
}

// ListPermissions returns all known permissions grouped by UI category.
// The grouping is presentation only; it carries no authorization semantics.
func (h *AdminProfileHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	var permissions []models.Permission
	if err := h.DB.Order("category, resource_type, action").Find(&permissions).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	byCategory := make(map[string][]models.Permission)
	for _, p := range permissions {
		cat := p.Category
		if cat == "" {
			cat = "Autres"
		}
		byCategory[cat] = append(byCategory[cat], p)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": byCategory})
}

func (h *AdminProfileHandler) loadProfile(w http.ResponseWriter, r *http.Request, preloads []string) (*models.Profile, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, false
	}
	db := h.DB
	for _, p := range preloads {
		db = db.Preload(p)
	}
	var profile models.Profile
	if err := db.First(&profile, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}
	return &profile, true
}
