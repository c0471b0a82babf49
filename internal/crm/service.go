package crm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/audit"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

// ErrPhoneRequired is returned when a contact is created without a phone number.
var ErrPhoneRequired = errors.New("phone is required")

// ContactService orchestrates contact mutations: duplicate folding on create,
// audit logging around updates, assignment changes.
type ContactService struct {
	db       *gorm.DB
	resolver *Resolver
	trail    *audit.Trail
	log      *zap.Logger
}

// NewContactService wires the lifecycle service.
func NewContactService(db *gorm.DB, resolver *Resolver, trail *audit.Trail, log *zap.Logger) *ContactService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactService{db: db, resolver: resolver, trail: trail, log: log}
}

// CreateInput carries an inbound contact submission.
type CreateInput struct {
	Civility    string
	FirstName   string
	LastName    string
	CompanyName string
	IsCompany   bool
	Phone       string
	Phone2      string
	Email       string
	Address     string
	City        string
	PostalCode  string
	Origin      string
	StatusID    *uint
	ParentID    *uint
}

// Create registers a new contact or folds the submission into an existing
// duplicate. The boolean result reports whether a fold happened; in that case
// the returned contact is the pre-existing record.
func (s *ContactService) Create(ctx context.Context, in CreateInput, actorID uint) (*models.Contact, bool, error) {
	if strings.TrimSpace(in.Phone) == "" {
		return nil, false, ErrPhoneRequired
	}

	existing, err := s.resolver.Resolve(ctx, Candidate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Origin:    in.Origin,
	}, actorID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	contact := models.Contact{
		Reference:       uuid.NewString(),
		Civility:        strings.TrimSpace(in.Civility),
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		CompanyName:     strings.TrimSpace(in.CompanyName),
		IsCompany:       in.IsCompany,
		Phone:           strings.TrimSpace(in.Phone),
		Phone2:          strings.TrimSpace(in.Phone2),
		Email:           strings.TrimSpace(in.Email),
		Address:         strings.TrimSpace(in.Address),
		City:            strings.TrimSpace(in.City),
		PostalCode:      strings.TrimSpace(in.PostalCode),
		Origin:          strings.TrimSpace(in.Origin),
		StatusID:        in.StatusID,
		ParentCompanyID: in.ParentID,
	}
	if actorID != 0 {
		contact.CreatedByID = &actorID
	}
	if contact.StatusID == nil {
		if st, err := s.defaultStatus(ctx); err == nil && st != nil {
			contact.StatusID = &st.ID
		}
	}

	if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return nil, false, err
	}
	s.log.Info("contact created",
		zap.Uint("contact_id", contact.ID),
		zap.String("origin", contact.Origin),
	)
	return &contact, false, nil
}

// UpdateInput carries a partial contact edit; nil fields are left untouched.
type UpdateInput struct {
	Civility    *string
	FirstName   *string
	LastName    *string
	CompanyName *string
	Phone       *string
	Phone2      *string
	Email       *string
	Address     *string
	City        *string
	PostalCode  *string
	Origin      *string
	StatusID    *uint
}

// Update applies a partial edit and records the audit interactions. The audit
// appends are best-effort: their failure never fails the update.
func (s *ContactService) Update(ctx context.Context, contactID uint, in UpdateInput, actorID uint) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db.WithContext(ctx).Preload("Status").First(&contact, contactID).Error; err != nil {
		return nil, err
	}

	changes := make(map[string]models.FieldChange)
	apply := func(field string, dst *string, val *string) {
		if val == nil {
			return
		}
		next := strings.TrimSpace(*val)
		if next == *dst {
			return
		}
		changes[field] = models.FieldChange{Old: *dst, New: next}
		*dst = next
	}
	apply("civility", &contact.Civility, in.Civility)
	apply("first_name", &contact.FirstName, in.FirstName)
	apply("last_name", &contact.LastName, in.LastName)
	apply("company_name", &contact.CompanyName, in.CompanyName)
	apply("phone2", &contact.Phone2, in.Phone2)
	apply("email", &contact.Email, in.Email)
	apply("address", &contact.Address, in.Address)
	apply("city", &contact.City, in.City)
	apply("postal_code", &contact.PostalCode, in.PostalCode)
	apply("origin", &contact.Origin, in.Origin)
	if in.Phone != nil && strings.TrimSpace(*in.Phone) != "" {
		apply("phone", &contact.Phone, in.Phone)
	}

	var oldStatusID *uint
	var oldStatusName, newStatusName string
	statusChanged := false
	if in.StatusID != nil && (contact.StatusID == nil || *contact.StatusID != *in.StatusID) {
		oldStatusID = contact.StatusID
		if contact.Status != nil {
			oldStatusName = contact.Status.Name
		}
		var st models.Status
		if err := s.db.WithContext(ctx).First(&st, *in.StatusID).Error; err != nil {
			return nil, err
		}
		newStatusName = st.Name
		contact.StatusID = in.StatusID
		contact.Status = &st
		statusChanged = true
	}

	if len(changes) == 0 && !statusChanged {
		return &contact, nil
	}

	if err := s.db.WithContext(ctx).Save(&contact).Error; err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.trail.Must(s.trail.ContactUpdate(ctx, contact.ID, changes, actorID))
	}
	if statusChanged {
		s.trail.Must(s.trail.StatusChange(ctx, contact.ID, oldStatusID, contact.StatusID, oldStatusName, newStatusName, actorID))
	}
	return &contact, nil
}

// Assign sets the commercial or telepro of a contact and records the change.
// A nil userID unassigns. Assigning the current assignee is a no-op.
func (s *ContactService) Assign(ctx context.Context, contactID uint, role string, userID *uint, actorID uint) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db.WithContext(ctx).Preload("Commercial").Preload("Telepro").First(&contact, contactID).Error; err != nil {
		return nil, err
	}

	var oldID *uint
	var oldName string
	column := ""
	switch role {
	case audit.AssignCommercial:
		oldID = contact.CommercialID
		if contact.Commercial != nil {
			oldName = contact.Commercial.Name
		}
		column = "commercial_id"
	case audit.AssignTelepro:
		oldID = contact.TeleproID
		if contact.Telepro != nil {
			oldName = contact.Telepro.Name
		}
		column = "telepro_id"
	default:
		return nil, errors.New("unknown assignment role")
	}

	var newName string
	if userID != nil && *userID != 0 {
		var u models.User
		if err := s.db.WithContext(ctx).First(&u, *userID).Error; err != nil {
			return nil, err
		}
		newName = u.Name
	}

	if err := s.db.WithContext(ctx).Model(&contact).Update(column, userID).Error; err != nil {
		return nil, err
	}
	switch role {
	case audit.AssignCommercial:
		contact.CommercialID = userID
	case audit.AssignTelepro:
		contact.TeleproID = userID
	}

	s.trail.Must(s.trail.AssignmentChange(ctx, contact.ID, role, oldID, userID, oldName, newName, actorID))
	return &contact, nil
}

// Delete removes a contact and its interactions.
func (s *ContactService) Delete(ctx context.Context, contactID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id = ?", contactID).Delete(&models.Interaction{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Contact{}, contactID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (s *ContactService) defaultStatus(ctx context.Context) (*models.Status, error) {
	var st models.Status
	err := s.db.WithContext(ctx).Order("sort_order").First(&st).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
