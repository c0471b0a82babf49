package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

func seedLoginUser(t *testing.T, db *gorm.DB, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{Email: email, Password: string(hash), Role: models.RoleCommercial, Active: active}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func postLogin(handler *AuthHandler, email, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	return rr
}

func TestAuthHandler_Login(t *testing.T) {
	db := setupTestDB(t)
	seedLoginUser(t, db, "u@example.com", "secret123", true)
	handler := NewAuthHandler(db, time.Hour)

	rr := postLogin(handler, "u@example.com", "secret123")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a bearer token")
	}
	if resp.User.Email != "u@example.com" {
		t.Errorf("unexpected user: %+v", resp.User)
	}

	// Session cookie must be set; the password hash never leaves the server.
	if len(rr.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
	if bytes.Contains(rr.Body.Bytes(), []byte(`"password"`)) {
		t.Error("password must not appear in the response")
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	db := setupTestDB(t)
	seedLoginUser(t, db, "u@example.com", "secret123", true)
	handler := NewAuthHandler(db, time.Hour)

	if rr := postLogin(handler, "u@example.com", "nope"); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", rr.Code)
	}
	if rr := postLogin(handler, "ghost@example.com", "secret123"); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown email, got %d", rr.Code)
	}
}

func TestAuthHandler_Login_LocalizedErrorMessage(t *testing.T) {
	db := setupTestDB(t)
	seedLoginUser(t, db, "u@example.com", "secret123", true)
	handler := NewAuthHandler(db, time.Hour)

	attempt := func(acceptLanguage string) string {
		body, _ := json.Marshal(map[string]string{"email": "u@example.com", "password": "nope"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		if acceptLanguage != "" {
			req.Header.Set("Accept-Language", acceptLanguage)
		}
		rr := httptest.NewRecorder()
		handler.Login(rr, req)

		var resp struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Error != "invalid_credentials" {
			t.Errorf("error code must stay stable across languages, got %q", resp.Error)
		}
		return resp.Details
	}

	if msg := attempt("en-US,en;q=0.9"); msg != "Invalid credentials" {
		t.Errorf("expected the English message, got %q", msg)
	}
	// French is the default without an Accept-Language header.
	if msg := attempt(""); msg != "Identifiants invalides" {
		t.Errorf("expected the French message, got %q", msg)
	}
}

func TestAuthHandler_Login_DisabledAccount(t *testing.T) {
	db := setupTestDB(t)
	seedLoginUser(t, db, "u@example.com", "secret123", false)
	handler := NewAuthHandler(db, time.Hour)

	if rr := postLogin(handler, "u@example.com", "secret123"); rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for disabled account, got %d", rr.Code)
	}
}
