package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

func TestStatusHandler_Create_AppendsAtEnd(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Status{Name: "Nouveau", Order: 1})
	db.Create(&models.Status{Name: "Client", Order: 2})
	handler := NewStatusHandler(db)

	body, _ := json.Marshal(map[string]string{"name": "Perdu", "color": "#6B7280"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/statuses", bytes.NewReader(body)), 1, models.RoleManager)
	rr := httptest.NewRecorder()
	handler.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var status models.Status
	if err := db.Where("name = ?", "Perdu").First(&status).Error; err != nil {
		t.Fatalf("status not persisted: %v", err)
	}
	if status.Order != 3 {
		t.Errorf("expected order 3, got %d", status.Order)
	}
}

func TestStatusHandler_Create_DuplicateName(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Status{Name: "Client", Order: 1})
	handler := NewStatusHandler(db)

	body, _ := json.Marshal(map[string]string{"name": "Client"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/statuses", bytes.NewReader(body)), 1, models.RoleManager)
	rr := httptest.NewRecorder()
	handler.Create(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate name, got %d", rr.Code)
	}
}

func TestStatusHandler_List_SortedByOrder(t *testing.T) {
	db := setupTestDB(t)
	db.Create(&models.Status{Name: "Client", Order: 2})
	db.Create(&models.Status{Name: "Nouveau", Order: 1})
	handler := NewStatusHandler(db)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/statuses", nil), 1, models.RoleCommercial)
	rr := httptest.NewRecorder()
	handler.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Statuses []models.Status `json:"statuses"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Statuses) != 2 || resp.Statuses[0].Name != "Nouveau" {
		t.Errorf("expected Nouveau first, got %+v", resp.Statuses)
	}
}
