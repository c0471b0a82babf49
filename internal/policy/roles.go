package policy

import (
	"net/http"

	"github.com/Hall-IA/crm-template-sub001/internal/auth"
	"github.com/Hall-IA/crm-template-sub001/internal/httpx"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

// roleRanks orders the legacy roles; a lower rank is more privileged.
// This hierarchy gate predates the profile permission model and is kept for
// the handful of endpoints that still rely on it. It is evaluated separately
// from the permission gate and the two are not unified.
var roleRanks = map[string]int{
	models.RoleAdmin:      1,
	models.RoleManager:    2,
	models.RoleCommercial: 3,
	models.RoleTelepro:    4,
	models.RoleComptable:  5,
	models.RoleUser:       6,
}

// RoleRank returns the numeric rank of a legacy role. Unknown roles rank
// below USER so they never gain access.
func RoleRank(role string) int {
	if rank, ok := roleRanks[role]; ok {
		return rank
	}
	return len(roleRanks) + 1
}

// HasRole reports whether callerRole is at least as privileged as required.
func HasRole(callerRole, required string) bool {
	return RoleRank(callerRole) <= RoleRank(required)
}

// RequireRole returns middleware granting access when the session's legacy
// role ranks at or above the required role. 401 without a session, 403 with
// an insufficient role.
func RequireRole(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok || id.UserID == 0 {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if !HasRole(id.Role, required) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
