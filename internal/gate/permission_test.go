package gate_test

import (
	"testing"

	"github.com/Hall-IA/crm-template-sub001/internal/gate"
)

func TestPermission_NewPermission(t *testing.T) {
	perm := gate.NewPermission("contact", gate.ActionCreate)
	if perm != "contact:create" {
		t.Errorf("expected 'contact:create', got '%s'", perm)
	}
}

func TestPermission_Parse(t *testing.T) {
	perm := gate.Permission("interaction:view")
	res, act := perm.Parse()
	if res != "interaction" {
		t.Errorf("expected resource 'interaction', got '%s'", res)
	}
	if act != gate.ActionView {
		t.Errorf("expected action 'view', got '%s'", act)
	}
}

func TestPermission_Parse_Invalid(t *testing.T) {
	perm := gate.Permission("invalid")
	res, act := perm.Parse()
	if res != "" || act != "" {
		t.Errorf("expected empty strings, got '%s' and '%s'", res, act)
	}
}

func TestPermission_Matches_Exact(t *testing.T) {
	perm := gate.Permission("contact:create")
	if !perm.Matches("contact:create") {
		t.Error("expected exact match to succeed")
	}
	if perm.Matches("contact:delete") {
		t.Error("expected different action to fail")
	}
	if perm.Matches("status:create") {
		t.Error("expected different resource to fail")
	}
}

func TestPermission_Matches_SuperAdmin(t *testing.T) {
	perm := gate.PermissionSuperAdmin
	if !perm.Matches("contact:create") {
		t.Error("superadmin should match any permission")
	}
	if !perm.Matches("profile:delete") {
		t.Error("superadmin should match any permission")
	}
}

func TestPermission_Matches_ResourceWildcard(t *testing.T) {
	perm := gate.Permission("contact:*")
	if !perm.Matches("contact:create") {
		t.Error("contact:* should match contact:create")
	}
	if !perm.Matches("contact:assign") {
		t.Error("contact:* should match contact:assign")
	}
	if perm.Matches("status:create") {
		t.Error("contact:* should not match status:create")
	}
}

func TestPermission_Matches_NoReverseWildcard(t *testing.T) {
	// Holding a concrete permission never satisfies a wildcard request.
	perm := gate.Permission("contact:view")
	if perm.Matches("contact:*") {
		t.Error("contact:view should not match contact:*")
	}
	if perm.Matches(gate.PermissionSuperAdmin) {
		t.Error("contact:view should not match *:*")
	}
}
