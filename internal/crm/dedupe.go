// Package crm implements the contact lifecycle: duplicate folding on intake,
// create/update/delete orchestration, and the audit side effects around them.
package crm

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Hall-IA/crm-template-sub001/internal/audit"
	"github.com/Hall-IA/crm-template-sub001/internal/models"
)

// Candidate carries the identity fields of an inbound contact submission.
type Candidate struct {
	FirstName string
	LastName  string
	Email     string
	Origin    string
}

// normalized returns the trimmed, lower-cased identity tuple and whether all
// three fields are present. Duplicate detection requires the conjunction of
// first name, last name and email; partial identity never matches.
func (c Candidate) normalized() (first, last, email string, ok bool) {
	first = strings.ToLower(strings.TrimSpace(c.FirstName))
	last = strings.ToLower(strings.TrimSpace(c.LastName))
	email = strings.ToLower(strings.TrimSpace(c.Email))
	return first, last, email, first != "" && last != "" && email != ""
}

// Resolver decides whether an inbound submission duplicates an existing
// contact and, if so, folds it into the existing record. The re-registration
// note goes through the audit trail inside the fold transaction.
type Resolver struct {
	db    *gorm.DB
	trail *audit.Trail
	log   *zap.Logger
}

// NewResolver creates a duplicate resolver writing its fold note through trail.
func NewResolver(db *gorm.DB, trail *audit.Trail, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{db: db, trail: trail, log: log}
}

// Resolve returns the existing contact the candidate folds into, or nil when
// no duplicate exists. On a match, all side effects run in one transaction:
// the "Doublon" status is resolved (created lazily if missing), the matched
// contact is flipped to it with its UpdatedAt re-stamped to now, and a
// re-registration note is appended with the occurrence ordinal and origin.
//
// No writes happen on a non-match. Persistence errors propagate: duplicate
// resolution is part of the caller's unit of work.
func (r *Resolver) Resolve(ctx context.Context, cand Candidate, actorID uint) (*models.Contact, error) {
	first, last, email, ok := cand.normalized()
	if !ok {
		return nil, nil
	}

	var match models.Contact
	err := r.db.WithContext(ctx).
		Where("LOWER(first_name) = ? AND LOWER(last_name) = ? AND LOWER(email) = ?", first, last, email).
		Order("id").
		First(&match).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status, err := ensureDuplicateStatus(tx)
		if err != nil {
			return err
		}

		// Occurrence = prior re-registration notes + the original creation
		// + this submission.
		var prior int64
		if err := tx.Model(&models.Interaction{}).
			Where("contact_id = ? AND type = ? AND title = ?",
				match.ID, models.InteractionNote, models.TitleReRegistered).
			Count(&prior).Error; err != nil {
			return err
		}
		occurrence := int(prior) + 2

		// Re-stamp UpdatedAt so the contact resurfaces in recency-sorted
		// views even though no business field changed.
		now := time.Now()
		if err := tx.Model(&match).Updates(map[string]any{
			"status_id":  status.ID,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		match.StatusID = &status.ID
		match.UpdatedAt = now

		// The note joins the fold transaction: unlike the fire-and-forget
		// call sites, a failed append here rolls the whole fold back.
		_, err = r.trail.WithDB(tx).ReRegistration(ctx, match.ID, occurrence, cand.Origin, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("duplicate folded",
		zap.Uint("contact_id", match.ID),
		zap.String("origin", cand.Origin),
	)
	return &match, nil
}

// ensureDuplicateStatus resolves the "Doublon" status, creating it with the
// fixed color and the next order slot when it does not exist yet.
func ensureDuplicateStatus(tx *gorm.DB) (*models.Status, error) {
	var status models.Status
	err := tx.Where("name = ?", models.StatusDuplicate).First(&status).Error
	if err == nil {
		return &status, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var maxOrder int
	if err := tx.Model(&models.Status{}).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return nil, err
	}

	status = models.Status{
		Name:  models.StatusDuplicate,
		Color: models.StatusDuplicateColor,
		Order: maxOrder + 1,
	}
	if err := tx.Create(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}
