// Package audit appends immutable interaction records describing tracked
// changes to a contact. Every method either writes exactly one interaction or
// returns (nil, nil) when there is nothing worth recording — the no-op guards
// keep the trail free of churn from updates that changed nothing.
//
// Callers treat the trail as fire-and-forget: errors are logged and swallowed
// so an audit failure never blocks the primary business mutation.
package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/i18n"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

// Assignment roles tracked by AssignmentChange.
const (
	AssignCommercial = "COMMERCIAL"
	AssignTelepro    = "TELEPRO"
)

var assignLabels = map[string]string{
	AssignCommercial: "Commercial",
	AssignTelepro:    "Télépro",
}

// Trail writes audit interactions for contact mutations.
type Trail struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewTrail creates an audit trail bound to the given database.
func NewTrail(db *gorm.DB, log *zap.Logger) *Trail {
	if log == nil {
		log = zap.NewNop()
	}
	return &Trail{db: db, log: log}
}

// WithDB returns a trail writing through the given handle. Used to join a
// caller's transaction.
func (t *Trail) WithDB(db *gorm.DB) *Trail {
	return &Trail{db: db, log: t.log}
}

func (t *Trail) append(ctx context.Context, rec *models.Interaction) (*models.Interaction, error) {
	if err := t.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// StatusChange records a status transition. Missing statuses render as
// "Aucun" in the content.
func (t *Trail) StatusChange(ctx context.Context, contactID uint, oldID, newID *uint, oldName, newName string, actorID uint) (*models.Interaction, error) {
	content := fmt.Sprintf("Statut modifié de %q à %q", orNone(oldName), orNone(newName))
	return t.append(ctx, &models.Interaction{
		ContactID: contactID,
		Type:      models.InteractionStatusChange,
		Content:   content,
		UserID:    actorID,
		Metadata: models.MarshalMeta(models.StatusChangeMeta{
			OldStatusID: oldID,
			NewStatusID: newID,
			OldName:     oldName,
			NewName:     newName,
		}),
	})
}

// ContactUpdate records field-level edits. Fields whose old and new values are
// equal are skipped; when no real delta remains, nothing is written and
// (nil, nil) is returned.
func (t *Trail) ContactUpdate(ctx context.Context, contactID uint, changes map[string]models.FieldChange, actorID uint) (*models.Interaction, error) {
	kept := make(map[string]models.FieldChange, len(changes))
	fields := make([]string, 0, len(changes))
	for field, ch := range changes {
		if ch.Old == ch.New {
			continue
		}
		kept[field] = ch
		fields = append(fields, field)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		ch := kept[field]
		lines = append(lines, fmt.Sprintf("%s modifié de %q à %q", FieldLabel(field), ch.Old, ch.New))
	}

	return t.append(ctx, &models.Interaction{
		ContactID: contactID,
		Type:      models.InteractionContactUpdate,
		Content:   strings.Join(lines, "\n"),
		UserID:    actorID,
		Metadata:  models.MarshalMeta(models.ContactUpdateMeta{Changes: kept}),
	})
}

// AssignmentChange records a commercial/telepro reassignment. Nil and zero
// user ids normalize to "unassigned"; when the normalized old and new assignee
// are the same, nothing is written.
func (t *Trail) AssignmentChange(ctx context.Context, contactID uint, role string, oldID, newID *uint, oldName, newName string, actorID uint) (*models.Interaction, error) {
	if normalizeAssignee(oldID) == normalizeAssignee(newID) {
		return nil, nil
	}
	label, ok := assignLabels[role]
	if !ok {
		return nil, fmt.Errorf("audit: unknown assignment role %q", role)
	}
	content := fmt.Sprintf("%s modifié de %q à %q", label, orUnassigned(oldName), orUnassigned(newName))
	return t.append(ctx, &models.Interaction{
		ContactID: contactID,
		Type:      models.InteractionAssignmentChange,
		Content:   content,
		UserID:    actorID,
		Metadata: models.MarshalMeta(models.AssignmentChangeMeta{
			Role:      role,
			OldUserID: oldID,
			NewUserID: newID,
			OldName:   oldName,
			NewName:   newName,
		}),
	})
}

// ReRegistration records a duplicate submission folded into an existing
// contact. Occurrence counts the original creation plus every submission;
// a blank origin renders as the unknown-source fallback.
func (t *Trail) ReRegistration(ctx context.Context, contactID uint, occurrence int, origin string, actorID uint) (*models.Interaction, error) {
	shown := strings.TrimSpace(origin)
	if shown == "" {
		shown = i18n.T("fr", "unknown_source")
	}
	now := time.Now()
	return t.append(ctx, &models.Interaction{
		ContactID: contactID,
		Type:      models.InteractionNote,
		Title:     models.TitleReRegistered,
		Content: fmt.Sprintf("Contact enregistré une %s fois depuis %s",
			i18n.OrdinalFR(occurrence), shown),
		Date:   &now,
		UserID: actorID,
		Metadata: models.MarshalMeta(models.ReRegistrationMeta{
			Occurrence: occurrence,
			Origin:     strings.TrimSpace(origin),
		}),
	})
}

// AppointmentCreated records a scheduled appointment. The interaction's date
// is the appointment slot, not the creation time, so the contact history
// sorts chronologically.
func (t *Trail) AppointmentCreated(ctx context.Context, contactID, taskID uint, title string, scheduledAt time.Time, actorID uint) (*models.Interaction, error) {
	return t.append(ctx, &models.Interaction{
		ContactID: contactID,
		Type:      models.InteractionAppointmentCreated,
		Title:     title,
		Content:   "Rendez-vous planifié le " + i18n.FormatDateTimeFR(scheduledAt),
		Date:      &scheduledAt,
		UserID:    actorID,
		Metadata: models.MarshalMeta(models.AppointmentMeta{
			TaskID:      taskID,
			ScheduledAt: scheduledAt.Format(time.RFC3339),
		}),
	})
}

// AppointmentCancelled records a cancelled appointment.
func (t *Trail) AppointmentCancelled(ctx context.Context, contactID, taskID uint, title string, scheduledAt time.Time, isGoogleMeet bool, actorID uint) (*models.Interaction, error) {
	return t.append(ctx, &models.Interaction{
		ContactID: contactID,
		Type:      models.InteractionAppointmentDeleted,
		Title:     title,
		Content:   "Rendez-vous du " + i18n.FormatDateTimeFR(scheduledAt) + " annulé",
		Date:      &scheduledAt,
		UserID:    actorID,
		Metadata: models.MarshalMeta(models.AppointmentMeta{
			TaskID:       taskID,
			ScheduledAt:  scheduledAt.Format(time.RFC3339),
			IsGoogleMeet: &isGoogleMeet,
		}),
	})
}

// AppointmentChanged records a rescheduled appointment.
func (t *Trail) AppointmentChanged(ctx context.Context, contactID, taskID uint, title string, scheduledAt time.Time, isGoogleMeet bool, actorID uint) (*models.Interaction, error) {
	return t.append(ctx, &models.Interaction{
		ContactID: contactID,
		Type:      models.InteractionAppointmentChanged,
		Title:     title,
		Content:   "Rendez-vous déplacé au " + i18n.FormatDateTimeFR(scheduledAt),
		Date:      &scheduledAt,
		UserID:    actorID,
		Metadata: models.MarshalMeta(models.AppointmentMeta{
			TaskID:       taskID,
			ScheduledAt:  scheduledAt.Format(time.RFC3339),
			IsGoogleMeet: &isGoogleMeet,
		}),
	})
}

// FileUploaded records a file added to the contact.
func (t *Trail) FileUploaded(ctx context.Context, contactID uint, fileName string, size int64, actorID uint) (*models.Interaction, error) {
	return t.fileEvent(ctx, contactID, fileName, size, actorID, "ajouté")
}

// FileReplaced records a file replaced on the contact.
func (t *Trail) FileReplaced(ctx context.Context, contactID uint, fileName string, size int64, actorID uint) (*models.Interaction, error) {
	return t.fileEvent(ctx, contactID, fileName, size, actorID, "remplacé")
}

// FileDeleted records a file removed from the contact.
func (t *Trail) FileDeleted(ctx context.Context, contactID uint, fileName string, size int64, actorID uint) (*models.Interaction, error) {
	return t.fileEvent(ctx, contactID, fileName, size, actorID, "supprimé")
}

func (t *Trail) fileEvent(ctx context.Context, contactID uint, fileName string, size int64, actorID uint, verb string) (*models.Interaction, error) {
	content := fmt.Sprintf("Fichier %q %s (%s)", fileName, verb, FormatSize(size))
	return t.append(ctx, &models.Interaction{
		ContactID: contactID,
		Type:      models.InteractionNote,
		Content:   content,
		UserID:    actorID,
		Metadata:  models.MarshalMeta(models.FileMeta{FileName: fileName, Size: size}),
	})
}

// Note records a free-form note written by a user.
func (t *Trail) Note(ctx context.Context, contactID uint, title, content string, actorID uint) (*models.Interaction, error) {
	return t.append(ctx, &models.Interaction{
		ContactID: contactID,
		Type:      models.InteractionNote,
		Title:     title,
		Content:   content,
		UserID:    actorID,
	})
}

// Must logs and discards an audit error. It makes the fire-and-forget policy
// explicit at call sites: the business mutation already succeeded, so the
// failed append is only reported.
func (t *Trail) Must(rec *models.Interaction, err error) *models.Interaction {
	if err != nil {
		t.log.Warn("audit append failed", zap.Error(err))
		return nil
	}
	return rec
}

func normalizeAssignee(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

func orNone(name string) string {
	if name == "" {
		return "Aucun"
	}
	return name
}

func orUnassigned(name string) string {
	if name == "" {
		return "Non attribué"
	}
	return name
}
