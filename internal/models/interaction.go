package models

import (
	"encoding/json"
	"time"
)

// InteractionType enumerates the kinds of audit records attached to a contact.
type InteractionType string

const (
	InteractionCall               InteractionType = "CALL"
	InteractionSMS                InteractionType = "SMS"
	InteractionEmail              InteractionType = "EMAIL"
	InteractionMeeting            InteractionType = "MEETING"
	InteractionNote               InteractionType = "NOTE"
	InteractionStatusChange       InteractionType = "STATUS_CHANGE"
	InteractionContactUpdate      InteractionType = "CONTACT_UPDATE"
	InteractionAssignmentChange   InteractionType = "ASSIGNMENT_CHANGE"
	InteractionAppointmentCreated InteractionType = "APPOINTMENT_CREATED"
	InteractionAppointmentDeleted InteractionType = "APPOINTMENT_DELETED"
	InteractionAppointmentChanged InteractionType = "APPOINTMENT_CHANGED"
)

// TitleReRegistered is the title of the NOTE interaction appended each time a
// duplicate submission is folded into an existing contact. The duplicate
// resolver counts rows with this exact title to compute the occurrence number.
const TitleReRegistered = "Contact enregistré à nouveau"

// Interaction is an immutable, append-only audit record attached to a contact.
// The core never updates or deletes an interaction once written.
type Interaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ContactID uint            `gorm:"not null;index" json:"contact_id"`
	Type      InteractionType `gorm:"size:30;not null;index" json:"type"`
	Title     string          `gorm:"size:255" json:"title,omitempty"`
	Content   string          `gorm:"type:text;not null" json:"content"`
	// Date is the business-meaningful event time (e.g., an appointment's
	// scheduled slot), distinct from CreatedAt.
	Date *time.Time `gorm:"index" json:"date,omitempty"`
	// UserID is the actor that caused the record.
	UserID uint  `gorm:"index" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Metadata holds the serialized per-type payload (see the *Meta structs).
	Metadata json.RawMessage `gorm:"type:text" json:"metadata,omitempty"`
}

// Typed metadata payloads, one shape per interaction type. They are
// serialized into Interaction.Metadata.

// StatusChangeMeta captures a status transition.
type StatusChangeMeta struct {
	OldStatusID *uint  `json:"old_status_id"`
	NewStatusID *uint  `json:"new_status_id"`
	OldName     string `json:"old_name,omitempty"`
	NewName     string `json:"new_name,omitempty"`
}

// ContactUpdateMeta captures per-field before/after values.
type ContactUpdateMeta struct {
	Changes map[string]FieldChange `json:"changes"`
}

// FieldChange is one before/after pair inside a contact update.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// AssignmentChangeMeta captures a commercial/telepro reassignment.
type AssignmentChangeMeta struct {
	Role      string `json:"role"`
	OldUserID *uint  `json:"old_user_id"`
	NewUserID *uint  `json:"new_user_id"`
	OldName   string `json:"old_name,omitempty"`
	NewName   string `json:"new_name,omitempty"`
}

// AppointmentMeta links an appointment interaction to its task and slot.
// IsGoogleMeet is only meaningful on the cancel/change variants.
type AppointmentMeta struct {
	TaskID       uint   `json:"task_id"`
	ScheduledAt  string `json:"scheduled_at"` // RFC 3339
	IsGoogleMeet *bool  `json:"is_google_meet,omitempty"`
}

// ReRegistrationMeta records a duplicate fold.
type ReRegistrationMeta struct {
	Occurrence int    `json:"occurrence"`
	Origin     string `json:"origin,omitempty"`
}

// FileMeta records a file lifecycle event.
type FileMeta struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// MarshalMeta serializes a metadata payload, returning nil on a nil payload.
func MarshalMeta(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
