package models

import "time"

// StatusDuplicate is the name of the status applied to contacts that
// re-registered. It is created lazily the first time a duplicate is folded.
const StatusDuplicate = "Doublon"

// StatusDuplicateColor is the fixed color used when the duplicate status is
// created lazily.
const StatusDuplicateColor = "#EF4444"

// Status is a named, colored, ordered tag attached to a contact
// (e.g., "Nouveau", "Doublon").
type Status struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Color     string    `gorm:"size:20" json:"color,omitempty"`
	// Order controls display position; new statuses are appended after the
	// current maximum.
	Order int `gorm:"column:sort_order;not null;default:0" json:"order"`
}

// Contact is a person or company record managed by the CRM.
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is deliberately bumped when a duplicate submission is folded
	// into this record, so the contact resurfaces in recency-sorted lists.
	UpdatedAt time.Time `json:"updated_at"`

	// Reference is a stable public identifier exposed to webhook callers and
	// external integrations.
	Reference string `gorm:"uniqueIndex;size:36;not null" json:"reference"`

	Civility    string `gorm:"size:10" json:"civility,omitempty"`
	FirstName   string `gorm:"size:100;index" json:"first_name,omitempty"`
	LastName    string `gorm:"size:100;index" json:"last_name,omitempty"`
	CompanyName string `gorm:"size:255" json:"company_name,omitempty"`
	IsCompany   bool   `gorm:"not null;default:false" json:"is_company"`

	// Phone is mandatory and non-empty at creation.
	Phone      string `gorm:"size:30;not null;index" json:"phone"`
	Phone2     string `gorm:"size:30" json:"phone2,omitempty"`
	Email      string `gorm:"size:255;index" json:"email,omitempty"`
	Address    string `gorm:"size:255" json:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`

	// Origin records where the lead came from (free text: "Google Ads",
	// "Import CSV", ...).
	Origin string `gorm:"size:100" json:"origin,omitempty"`

	StatusID *uint   `gorm:"index" json:"status_id,omitempty"`
	Status   *Status `gorm:"foreignKey:StatusID" json:"status,omitempty"`

	CommercialID *uint `gorm:"index" json:"commercial_id,omitempty"`
	Commercial   *User `gorm:"foreignKey:CommercialID" json:"commercial,omitempty"`
	TeleproID    *uint `gorm:"index" json:"telepro_id,omitempty"`
	Telepro      *User `gorm:"foreignKey:TeleproID" json:"telepro,omitempty"`
	CreatedByID  *uint `gorm:"index" json:"created_by_id,omitempty"`
	CreatedBy    *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	ParentCompanyID *uint    `gorm:"index" json:"parent_company_id,omitempty"`
	ParentCompany   *Contact `gorm:"foreignKey:ParentCompanyID" json:"parent_company,omitempty"`

	Interactions []Interaction `gorm:"foreignKey:ContactID" json:"interactions,omitempty"`
}

// AssignedUserIDs returns the users this contact is scoped to: the assigned
// commercial, the assigned telepro and the creator.
func (c *Contact) AssignedUserIDs() []uint {
	var ids []uint
	for _, p := range []*uint{c.CommercialID, c.TeleproID, c.CreatedByID} {
		if p != nil && *p != 0 {
			ids = append(ids, *p)
		}
	}
	return ids
}

// DisplayName returns the human-readable name of the contact.
func (c *Contact) DisplayName() string {
	if c.IsCompany && c.CompanyName != "" {
		return c.CompanyName
	}
	name := c.FirstName
	if c.LastName != "" {
		if name != "" {
			name += " "
		}
		name += c.LastName
	}
	if name == "" {
		return c.Phone
	}
	return name
}
