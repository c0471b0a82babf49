package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/httpx"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

type StatusHandler struct {
	db *gorm.DB
}

func NewStatusHandler(db *gorm.DB) *StatusHandler {
	return &StatusHandler{db: db}
}

// List returns all statuses in display order.
func (h *StatusHandler) List(w http.ResponseWriter, r *http.Request) {
	var statuses []models.Status
	if err := h.db.Order("sort_order").Find(&statuses).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"statuses": statuses})
}

type statusRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Create adds a status at the end of the display order. Names are unique.
func (h *StatusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}

	var maxOrder int
	h.db.Model(&models.Status{}).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder)

	status := models.Status{Name: name, Color: strings.TrimSpace(req.Color), Order: maxOrder + 1}
	if err := h.db.Create(&status).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "unique") {
			httpx.JSONError(w, http.StatusConflict, "name_already_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, status)
}
