package policy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Hall-IA/crm-template-sub001/internal/auth"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

func TestRoleRank(t *testing.T) {
	if RoleRank(models.RoleAdmin) != 1 {
		t.Errorf("ADMIN should rank 1, got %d", RoleRank(models.RoleAdmin))
	}
	if RoleRank(models.RoleUser) != 6 {
		t.Errorf("USER should rank 6, got %d", RoleRank(models.RoleUser))
	}
	// Unknown roles rank below USER.
	if RoleRank("INTERN") <= RoleRank(models.RoleUser) {
		t.Error("unknown role should rank below USER")
	}
}

func TestHasRole(t *testing.T) {
	cases := []struct {
		caller, required string
		want             bool
	}{
		{models.RoleAdmin, models.RoleManager, true},
		{models.RoleAdmin, models.RoleAdmin, true},
		{models.RoleManager, models.RoleManager, true},
		{models.RoleManager, models.RoleAdmin, false},
		{models.RoleCommercial, models.RoleTelepro, true},
		{models.RoleTelepro, models.RoleCommercial, false},
		{models.RoleUser, models.RoleComptable, false},
		{"", models.RoleUser, false},
	}
	for _, c := range cases {
		if got := HasRole(c.caller, c.required); got != c.want {
			t.Errorf("HasRole(%q, %q): expected %v, got %v", c.caller, c.required, c.want, got)
		}
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// No session: 401.
	req := httptest.NewRequest(http.MethodPost, "/api/statuses", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without session, got %d", rr.Code)
	}

	// Insufficient role: 403.
	req = httptest.NewRequest(http.MethodPost, "/api/statuses", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: 1, Role: models.RoleCommercial}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for commercial, got %d", rr.Code)
	}

	// Sufficient role: passes through.
	req = httptest.NewRequest(http.MethodPost, "/api/statuses", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: 1, Role: models.RoleAdmin}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204 for admin, got %d", rr.Code)
	}
}
