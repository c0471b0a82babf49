package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.User{}, &models.Status{}, &models.Contact{}, &models.Interaction{})
	require.NoError(t, err, "failed to migrate test database")
	return db
}

func uintPtr(v uint) *uint { return &v }

func TestTrail_StatusChange(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	rec, err := trail.StatusChange(context.Background(), 1, uintPtr(2), uintPtr(3), "Nouveau", "Client", 9)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, models.InteractionStatusChange, rec.Type)
	assert.Equal(t, `Statut modifié de "Nouveau" à "Client"`, rec.Content)
	assert.Equal(t, uint(9), rec.UserID)

	var count int64
	db.Model(&models.Interaction{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestTrail_StatusChange_MissingStatusRendersAucun(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	rec, err := trail.StatusChange(context.Background(), 1, nil, uintPtr(3), "", "Client", 9)
	require.NoError(t, err)
	assert.Equal(t, `Statut modifié de "Aucun" à "Client"`, rec.Content)
}

func TestTrail_ContactUpdate(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	changes := map[string]models.FieldChange{
		"phone":      {Old: "0600000001", New: "0600000002"},
		"first_name": {Old: "jean", New: "Jean"},
	}
	rec, err := trail.ContactUpdate(context.Background(), 1, changes, 9)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, models.InteractionContactUpdate, rec.Type)
	// Fields render sorted by name, one line each, with French labels.
	want := "Prénom modifié de \"jean\" à \"Jean\"\n" +
		"Téléphone modifié de \"0600000001\" à \"0600000002\""
	assert.Equal(t, want, rec.Content)
}

func TestTrail_ContactUpdate_NoRealDeltaWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	changes := map[string]models.FieldChange{
		"city": {Old: "Paris", New: "Paris"},
	}
	rec, err := trail.ContactUpdate(context.Background(), 1, changes, 9)
	assert.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = trail.ContactUpdate(context.Background(), 1, nil, 9)
	assert.NoError(t, err)
	assert.Nil(t, rec)

	var count int64
	db.Model(&models.Interaction{}).Count(&count)
	assert.Zero(t, count, "no interaction row expected")
}

func TestTrail_AssignmentChange(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	rec, err := trail.AssignmentChange(context.Background(), 1, AssignCommercial, nil, uintPtr(4), "", "Alice Martin", 9)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, models.InteractionAssignmentChange, rec.Type)
	assert.Equal(t, `Commercial modifié de "Non attribué" à "Alice Martin"`, rec.Content)
}

func TestTrail_AssignmentChange_SameAssigneeIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	// nil and 0 both mean unassigned.
	rec, err := trail.AssignmentChange(context.Background(), 1, AssignTelepro, nil, uintPtr(0), "", "", 9)
	assert.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = trail.AssignmentChange(context.Background(), 1, AssignTelepro, uintPtr(4), uintPtr(4), "Bob", "Bob", 9)
	assert.NoError(t, err)
	assert.Nil(t, rec)

	var count int64
	db.Model(&models.Interaction{}).Count(&count)
	assert.Zero(t, count)
}

func TestTrail_AssignmentChange_UnknownRole(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	_, err := trail.AssignmentChange(context.Background(), 1, "MANAGER", nil, uintPtr(4), "", "Alice", 9)
	assert.Error(t, err)
}

func TestTrail_ReRegistration(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	rec, err := trail.ReRegistration(context.Background(), 1, 2, "Import CSV", 9)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, models.InteractionNote, rec.Type)
	assert.Equal(t, models.TitleReRegistered, rec.Title)
	assert.Equal(t, "Contact enregistré une 2ème fois depuis Import CSV", rec.Content)
	require.NotNil(t, rec.Date)

	var meta models.ReRegistrationMeta
	require.NoError(t, json.Unmarshal(rec.Metadata, &meta))
	assert.Equal(t, 2, meta.Occurrence)
	assert.Equal(t, "Import CSV", meta.Origin)
}

func TestTrail_ReRegistration_BlankOriginFallsBack(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	rec, err := trail.ReRegistration(context.Background(), 1, 3, "   ", 9)
	require.NoError(t, err)
	assert.Equal(t, "Contact enregistré une 3ème fois depuis une source inconnue", rec.Content)

	var meta models.ReRegistrationMeta
	require.NoError(t, json.Unmarshal(rec.Metadata, &meta))
	assert.Empty(t, meta.Origin)
}

func TestTrail_AppointmentCreated(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)
	slot := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)

	rec, err := trail.AppointmentCreated(context.Background(), 1, 42, "Visite technique", slot, 9)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, models.InteractionAppointmentCreated, rec.Type)
	assert.Equal(t, "Visite technique", rec.Title)
	assert.Equal(t, "Rendez-vous planifié le 07/03/2025 à 14:30", rec.Content)
	require.NotNil(t, rec.Date)
	assert.True(t, rec.Date.Equal(slot), "interaction date must be the appointment slot")

	var meta models.AppointmentMeta
	require.NoError(t, json.Unmarshal(rec.Metadata, &meta))
	assert.Equal(t, uint(42), meta.TaskID)
	assert.Equal(t, slot.Format(time.RFC3339), meta.ScheduledAt)
	assert.Nil(t, meta.IsGoogleMeet, "google meet flag only applies to cancel/change")
}

func TestTrail_AppointmentCancelled(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)
	slot := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)

	rec, err := trail.AppointmentCancelled(context.Background(), 1, 42, "Visite technique", slot, true, 9)
	require.NoError(t, err)

	assert.Equal(t, models.InteractionAppointmentDeleted, rec.Type)
	assert.Equal(t, "Visite technique", rec.Title)
	assert.Equal(t, "Rendez-vous du 07/03/2025 à 14:30 annulé", rec.Content)
	require.NotNil(t, rec.Date)
	assert.True(t, rec.Date.Equal(slot))

	var meta models.AppointmentMeta
	require.NoError(t, json.Unmarshal(rec.Metadata, &meta))
	require.NotNil(t, meta.IsGoogleMeet)
	assert.True(t, *meta.IsGoogleMeet)
}

func TestTrail_AppointmentChanged(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)
	slot := time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC)

	rec, err := trail.AppointmentChanged(context.Background(), 1, 42, "Visite technique", slot, false, 9)
	require.NoError(t, err)

	assert.Equal(t, models.InteractionAppointmentChanged, rec.Type)
	assert.Equal(t, "Rendez-vous déplacé au 08/03/2025 à 09:00", rec.Content)
	require.NotNil(t, rec.Date)
	assert.True(t, rec.Date.Equal(slot))

	var meta models.AppointmentMeta
	require.NoError(t, json.Unmarshal(rec.Metadata, &meta))
	require.NotNil(t, meta.IsGoogleMeet)
	assert.False(t, *meta.IsGoogleMeet)
}

func TestTrail_FileEvents(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	rec, err := trail.FileUploaded(context.Background(), 1, "devis.pdf", 2048, 9)
	require.NoError(t, err)
	assert.Equal(t, `Fichier "devis.pdf" ajouté (2 KB)`, rec.Content)

	rec, err = trail.FileReplaced(context.Background(), 1, "devis.pdf", 1536, 9)
	require.NoError(t, err)
	assert.Equal(t, `Fichier "devis.pdf" remplacé (1.5 KB)`, rec.Content)

	rec, err = trail.FileDeleted(context.Background(), 1, "devis.pdf", 500, 9)
	require.NoError(t, err)
	assert.Equal(t, `Fichier "devis.pdf" supprimé (500 Bytes)`, rec.Content)
}

func TestTrail_Must_SwallowsError(t *testing.T) {
	db := setupTestDB(t)
	trail := NewTrail(db, nil)

	assert.Nil(t, trail.Must(nil, assert.AnError))

	rec := &models.Interaction{ContactID: 1}
	assert.Equal(t, rec, trail.Must(rec, nil))
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1073741824, "1 GB"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatSize(c.size), "size %d", c.size)
	}
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "Téléphone", FieldLabel("phone"))
	assert.Equal(t, "Code postal", FieldLabel("postal_code"))
	// Unknown fields fall back to the raw name.
	assert.Equal(t, "custom_field", FieldLabel("custom_field"))
}
