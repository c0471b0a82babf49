package audit

// fieldLabels translates internal contact field names to the display labels
// used in audit content. Fields missing from the table fall back to the raw
// field name.
var fieldLabels = map[string]string{
	"civility":     "Civilité",
	"first_name":   "Prénom",
	"last_name":    "Nom",
	"company_name": "Société",
	"phone":        "Téléphone",
	"phone2":       "Téléphone secondaire",
	"email":        "Email",
	"address":      "Adresse",
	"city":         "Ville",
	"postal_code":  "Code postal",
	"origin":       "Origine",
}

// FieldLabel returns the display label for an internal field name.
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}
