// Package i18n holds the localized strings and French date/number formatting
// used across the application. Audit-trail content is always produced in
// French; it is domain data, not presentation.
package i18n

import (
	"fmt"
	"strings"
	"time"
)

var translations = map[string]map[string]string{
	"fr": {
		"required":            "Requis",
		"not_found":           "Introuvable",
		"unauthorized":        "Non authentifié",
		"forbidden":           "Accès refusé",
		"phone_required":      "Le téléphone est obligatoire",
		"name_exists":         "Ce nom existe déjà",
		"invalid_credentials": "Identifiants invalides",
		"account_disabled":    "Compte désactivé",
		"unassigned":          "Non attribué",
		"none":                "Aucun",
		"unknown_source":      "une source inconnue",
	},
	"en": {
		"required":            "Required",
		"not_found":           "Not found",
		"unauthorized":        "Not authenticated",
		"forbidden":           "Forbidden",
		"phone_required":      "Phone number is required",
		"name_exists":         "This name already exists",
		"invalid_credentials": "Invalid credentials",
		"account_disabled":    "Account disabled",
		"unassigned":          "Unassigned",
		"none":                "None",
		"unknown_source":      "an unknown source",
	},
}

// DetectLanguage picks a supported language from an Accept-Language header.
// French is the default.
func DetectLanguage(acceptLanguage string) string {
	lower := strings.ToLower(acceptLanguage)
	if strings.HasPrefix(lower, "en") {
		return "en"
	}
	return "fr"
}

// T translates a message code. Unknown languages fall back to French;
// unknown codes fall back to the code itself.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := translations["fr"][code]; ok {
		return s
	}
	return code
}

// FormatDateTimeFR renders a timestamp the way the audit trail expects:
// "02/01/2006 à 15:04".
func FormatDateTimeFR(t time.Time) string {
	return t.Format("02/01/2006") + " à " + t.Format("15:04")
}

// OrdinalFR returns the French ordinal suffix form of n: "1ère", "2ème", ...
func OrdinalFR(n int) string {
	if n == 1 {
		return "1ère"
	}
	return fmt.Sprintf("%dème", n)
}
