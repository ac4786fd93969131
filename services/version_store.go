package services

import (
	"context"
	"fmt"
	"time"

	"protocol-review-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VersionStore is the append-only archive of submitted protocol content.
// It has no update or delete path.
type VersionStore struct {
	db    *gorm.DB
	locks *ProtocolLocks
	now   func() time.Time
}

func NewVersionStore(db *gorm.DB, locks *ProtocolLocks) *VersionStore {
	if locks == nil {
		locks = NewProtocolLocks()
	}
	return &VersionStore{db: db, locks: locks, now: time.Now}
}

// CreateVersion snapshots content as the next version of protocolID.
func (s *VersionStore) CreateVersion(ctx context.Context, protocolID int, content models.ProtocolContent, submittedBy int) (*models.ProtocolVersion, error) {
	unlock := s.locks.Lock(protocolID)
	defer unlock()

	var version *models.ProtocolVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadProtocol(tx, protocolID, true); err != nil {
			return err
		}
		created, err := s.createVersion(tx, protocolID, content, submittedBy, clock(s.now)())
		if err != nil {
			return err
		}
		version = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// createVersion must run inside a transaction that holds the protocol row.
func (s *VersionStore) createVersion(tx *gorm.DB, protocolID int, content models.ProtocolContent, submittedBy int, at time.Time) (*models.ProtocolVersion, error) {
	snapshot, err := content.Clone()
	if err != nil {
		return nil, fmt.Errorf("copy protocol content: %w", err)
	}

	var maxVersion int
	if err := tx.Model(&models.ProtocolVersion{}).
		Where("protocol_id = ?", protocolID).
		Select("COALESCE(MAX(version_no), 0)").
		Scan(&maxVersion).Error; err != nil {
		return nil, fmt.Errorf("read latest version number: %w", err)
	}

	version := models.ProtocolVersion{
		ProtocolID:      protocolID,
		VersionNo:       maxVersion + 1,
		ContentSnapshot: datatypes.NewJSONType(snapshot),
		SubmittedBy:     submittedBy,
		SubmittedAt:     at,
	}
	if err := tx.Create(&version).Error; err != nil {
		return nil, fmt.Errorf("create protocol version: %w", err)
	}
	return &version, nil
}

// LatestVersion returns the highest numbered version, or nil when the protocol was never submitted.
func (s *VersionStore) LatestVersion(ctx context.Context, protocolID int) (*models.ProtocolVersion, error) {
	var versions []models.ProtocolVersion
	if err := s.db.WithContext(ctx).
		Where("protocol_id = ?", protocolID).
		Order("version_no DESC").
		Limit(1).
		Find(&versions).Error; err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return &versions[0], nil
}

func (s *VersionStore) GetVersion(ctx context.Context, versionID int) (*models.ProtocolVersion, error) {
	var version models.ProtocolVersion
	if err := s.db.WithContext(ctx).Where("version_id = ?", versionID).First(&version).Error; err != nil {
		return nil, notFound(err)
	}
	return &version, nil
}

// ListVersions returns every version of protocolID, oldest first.
func (s *VersionStore) ListVersions(ctx context.Context, protocolID int) ([]models.ProtocolVersion, error) {
	var versions []models.ProtocolVersion
	if err := s.db.WithContext(ctx).
		Where("protocol_id = ?", protocolID).
		Order("version_no ASC").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}
