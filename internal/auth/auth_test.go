package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	CreateSession(rr, Identity{UserID: 42, Role: "COMMERCIAL"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}

	id, ok := ParseSession(req)
	if !ok {
		t.Fatal("expected a valid session")
	}
	if id.UserID != 42 || id.Role != "COMMERCIAL" {
		t.Errorf("unexpected identity: %+v", id)
	}
}

func TestParseSession_TamperedSignature(t *testing.T) {
	rr := httptest.NewRecorder()
	CreateSession(rr, Identity{UserID: 42, Role: "COMMERCIAL"})

	cookie := rr.Result().Cookies()[0]
	cookie.Value += "x"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	if _, ok := ParseSession(req); ok {
		t.Error("tampered session must be rejected")
	}
}

func TestAPITokenRoundTrip(t *testing.T) {
	token, err := IssueAPIToken(Identity{UserID: 7, Role: "ADMIN"}, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	id, ok := ParseAPIToken(token)
	if !ok {
		t.Fatal("expected a valid token")
	}
	if id.UserID != 7 || id.Role != "ADMIN" {
		t.Errorf("unexpected identity: %+v", id)
	}
}

func TestParseAPIToken_Expired(t *testing.T) {
	token, err := IssueAPIToken(Identity{UserID: 7}, -time.Minute)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if _, ok := ParseAPIToken(token); ok {
		t.Error("expired token must be rejected")
	}
}

func TestMiddleware_BearerTakesPrecedence(t *testing.T) {
	token, err := IssueAPIToken(Identity{UserID: 9, Role: "MANAGER"}, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	var got Identity
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	CreateSession(rr, Identity{UserID: 1, Role: "USER"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got.UserID != 9 {
		t.Errorf("expected bearer identity 9, got %d", got.UserID)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// No identity: 401.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity, got %d", rr.Code)
	}

	// With identity: passes.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: 1}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204 with identity, got %d", rr.Code)
	}
}

func TestRequireAuth_VerifierRejectsStaleSession(t *testing.T) {
	SetUserVerifier(func(_ context.Context, uid uint) bool { return uid == 1 })
	defer SetUserVerifier(nil)

	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// User 2 no longer passes verification (deleted or deactivated).
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: 2}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for rejected user, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: 1}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204 for verified user, got %d", rr.Code)
	}
}
