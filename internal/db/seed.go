package db

import (
	"strings"

	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

// Seed creates the default permissions, profiles and statuses.
// All steps are idempotent; Seed runs on every startup.
func Seed(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}
	if err := SeedProfiles(db); err != nil {
		return err
	}
	return SeedStatuses(db)
}

// SeedPermissions creates the core permissions for the application.
// Category only drives UI grouping; authorization matches on resource:action.
func SeedPermissions(db *gorm.DB) error {
	permissions := []struct {
		ResourceType string
		Action       string
		Description  string
		Category     string
	}{
		// Superadmin wildcard
		{"*", "*", "Accès complet au système", "Administration"},
		// Contact permissions
		{"contact", "*", "Toutes les actions sur les contacts", "Contacts"},
		{"contact", "list", "Lister les contacts", "Contacts"},
		{"contact", "view", "Voir la fiche d'un contact", "Contacts"},
		{"contact", "create", "Créer des contacts", "Contacts"},
		{"contact", "update", "Modifier les contacts", "Contacts"},
		{"contact", "delete", "Supprimer des contacts", "Contacts"},
		{"contact", "assign", "Attribuer un commercial ou un télépro", "Contacts"},
		{"contact", "export", "Exporter les contacts", "Contacts"},
		// Interaction permissions
		{"interaction", "*", "Toutes les actions sur l'historique", "Historique"},
		{"interaction", "list", "Consulter l'historique d'un contact", "Historique"},
		{"interaction", "create", "Ajouter une note manuelle", "Historique"},
		// Status permissions
		{"status", "*", "Toutes les actions sur les statuts", "Statuts"},
		{"status", "list", "Lister les statuts", "Statuts"},
		{"status", "create", "Créer des statuts", "Statuts"},
		{"status", "update", "Modifier les statuts", "Statuts"},
		{"status", "delete", "Supprimer des statuts", "Statuts"},
		// User management
		{"user", "*", "Toute la gestion des utilisateurs", "Administration"},
		{"user", "list", "Lister les utilisateurs", "Administration"},
		{"user", "view", "Voir un utilisateur", "Administration"},
		{"user", "update", "Modifier les utilisateurs", "Administration"},
		// Profile management (admin only)
		{"profile", "*", "Toute la gestion des profils", "Administration"},
		{"profile", "list", "Lister les profils", "Administration"},
		{"profile", "view", "Voir un profil", "Administration"},
		{"profile", "create", "Créer des profils", "Administration"},
		{"profile", "update", "Modifier les profils", "Administration"},
		{"profile", "delete", "Supprimer des profils", "Administration"},
	}

	for _, p := range permissions {
		perm := models.Permission{
			ResourceType: p.ResourceType,
			Action:       p.Action,
			Description:  p.Description,
			Category:     p.Category,
		}
		// FirstOrCreate keeps the seed idempotent across restarts
		result := db.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&perm)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// SeedProfiles creates the default system profiles with their permissions.
// The admin profile holds the "*:*" wildcard, so every permission added later
// is covered without touching the admin bundle.
func SeedProfiles(db *gorm.DB) error {
	profiles := []struct {
		Name        string
		Description string
		Permissions []string // "resource:action" format
	}{
		{
			Name:        "admin",
			Description: "Administrateur avec toutes les permissions",
			Permissions: []string{"*:*"},
		},
		{
			Name:        "manager",
			Description: "Gestion complète des contacts et des utilisateurs",
			Permissions: []string{
				"contact:*",
				"interaction:*",
				"status:*",
				"user:list",
				"user:view",
				"profile:list",
				"profile:view",
			},
		},
		{
			Name:        "commercial",
			Description: "Travail sur les contacts attribués",
			Permissions: []string{
				"contact:list",
				"contact:view",
				"contact:update",
				"interaction:list",
				"interaction:create",
				"status:list",
			},
		},
		{
			Name:        "telepro",
			Description: "Qualification téléphonique des leads",
			Permissions: []string{
				"contact:list",
				"contact:view",
				"contact:create",
				"contact:update",
				"interaction:list",
				"interaction:create",
				"status:list",
			},
		},
		{
			Name:        "comptable",
			Description: "Consultation seule",
			Permissions: []string{
				"contact:list",
				"contact:view",
				"contact:export",
				"interaction:list",
				"status:list",
			},
		},
	}

	for _, p := range profiles {
		var profile models.Profile
		result := db.Where("name = ?", p.Name).First(&profile)
		if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}

		if result.Error == gorm.ErrRecordNotFound {
			profile = models.Profile{
				Name:        p.Name,
				Description: p.Description,
				IsSystem:    true,
			}
			if err := db.Create(&profile).Error; err != nil {
				return err
			}
		}

		var perms []models.Permission
		for _, code := range p.Permissions {
			resource, action, ok := strings.Cut(code, ":")
			if !ok {
				continue
			}
			var perm models.Permission
			if err := db.Where("resource_type = ? AND action = ?", resource, action).First(&perm).Error; err == nil {
				perms = append(perms, perm)
			}
		}
		if err := db.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}

// SeedStatuses creates the default contact statuses. The "Doublon" status is
// not seeded here; the duplicate resolver creates it lazily on first use.
func SeedStatuses(db *gorm.DB) error {
	statuses := []struct {
		Name  string
		Color string
		Order int
	}{
		{"Nouveau", "#3B82F6", 1},
		{"À rappeler", "#F59E0B", 2},
		{"Rendez-vous pris", "#8B5CF6", 3},
		{"Client", "#22C55E", 4},
		{"Sans suite", "#6B7280", 5},
	}

	for _, s := range statuses {
		status := models.Status{Name: s.Name, Color: s.Color, Order: s.Order}
		result := db.Where("name = ?", s.Name).FirstOrCreate(&status)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}
