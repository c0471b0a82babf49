package policy

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/gate"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Profile{}, &models.Permission{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedUserWithProfile(t *testing.T, db *gorm.DB, perms ...models.Permission) *models.User {
	t.Helper()
	profile := models.Profile{Name: "commercial", Permissions: perms}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	user := models.User{Email: "u@example.com", Password: "x", Role: models.RoleCommercial, Active: true, ProfileID: &profile.ID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func TestDBProfileResolver_ResolvesPermissions(t *testing.T) {
	db := setupTestDB(t)
	user := seedUserWithProfile(t, db,
		models.Permission{ResourceType: "contact", Action: "view"},
		models.Permission{ResourceType: "contact", Action: "list"},
	)

	resolver := NewDBProfileResolver(db)
	profile, err := resolver.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile == nil {
		t.Fatal("expected a profile")
	}
	if profile.Name() != "commercial" {
		t.Errorf("expected profile 'commercial', got '%s'", profile.Name())
	}
	if !profile.HasPermission("contact:view") {
		t.Error("expected contact:view to be granted")
	}
	if profile.HasPermission("contact:delete") {
		t.Error("contact:delete should not be granted")
	}
}

func TestDBProfileResolver_NoProfileFailsClosed(t *testing.T) {
	db := setupTestDB(t)
	// Legacy ADMIN role, but no profile assigned.
	user := models.User{Email: "admin@example.com", Password: "x", Role: models.RoleAdmin, Active: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	resolver := NewDBProfileResolver(db)
	profile, err := resolver.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile != nil {
		t.Error("a user without a profile must resolve to nil: the legacy role is never a fallback")
	}

	// The gate denies everything for that user.
	g := gate.New[uint](resolver)
	if g.CanProfile(context.Background(), user.ID, gate.ActionView, "contact") {
		t.Error("profile-less user must have zero permissions")
	}
}

func TestDBProfileResolver_UnknownUser(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewDBProfileResolver(db)

	profile, err := resolver.Resolve(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile != nil {
		t.Error("unknown user must resolve to nil")
	}
}

func TestDBProfileResolver_WildcardPermissions(t *testing.T) {
	db := setupTestDB(t)
	user := seedUserWithProfile(t, db,
		models.Permission{ResourceType: "*", Action: "*"},
	)

	resolver := NewDBProfileResolver(db)
	profile, err := resolver.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !profile.HasPermission("contact:delete") {
		t.Error("*:* should grant contact:delete")
	}
	if !profile.HasPermission(gate.PermissionSuperAdmin) {
		t.Error("*:* should match the superadmin code")
	}
}
