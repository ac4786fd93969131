package services

import (
	"errors"
	"time"

	"protocol-review-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor is the caller of an engine operation as supplied by the identity provider.
type Actor struct {
	ID    int
	Roles []models.Role
	// Linked is set by ResolveActor when the actor owns, co-edits or was ever
	// assigned to review the protocol.
	Linked bool
}

// Has reports whether the actor holds role.
func (a Actor) Has(role models.Role) bool {
	return models.HasRole(a.Roles, role)
}

// IsOversight reports whether the actor sees every protocol.
func (a Actor) IsOversight() bool {
	return a.Has(models.RoleAdmin) || a.Has(models.RoleChair)
}

// CanView reports whether the actor may read a protocol it was resolved against.
// It matches the visibility rule of ListForUser.
func (a Actor) CanView() bool {
	return a.IsOversight() || a.Linked
}

func clock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

// loadProtocol reads a non-archived protocol. With forUpdate on MySQL the row
// stays locked until tx ends; SQLite already serializes writers.
func loadProtocol(tx *gorm.DB, protocolID int, forUpdate bool) (*models.Protocol, error) {
	query := tx
	if forUpdate && tx.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var protocol models.Protocol
	err := query.Where("protocol_id = ? AND archived_at IS NULL", protocolID).First(&protocol).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &protocol, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// AutoMigrate creates or updates every table the review engine owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Protocol{},
		&models.ProtocolVersion{},
		&models.StatusHistoryEntry{},
		&models.ReviewComment{},
		&models.ReviewAssignment{},
		&models.CoEditorAssignment{},
		&models.ProtocolAttachment{},
		&models.Notification{},
	)
}
