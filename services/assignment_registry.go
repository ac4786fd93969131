package services

import (
	"context"
	"fmt"
	"time"

	"protocol-review-api/models"

	"gorm.io/gorm"
)

// AssignmentRegistry tracks reviewer assignments and co-editor grants.
type AssignmentRegistry struct {
	db    *gorm.DB
	locks *ProtocolLocks
	now   func() time.Time
}

func NewAssignmentRegistry(db *gorm.DB, locks *ProtocolLocks) *AssignmentRegistry {
	if locks == nil {
		locks = NewProtocolLocks()
	}
	return &AssignmentRegistry{db: db, locks: locks, now: time.Now}
}

// AssignReviewer adds a committee reviewer. Assigning the same reviewer again adds another row.
func (r *AssignmentRegistry) AssignReviewer(ctx context.Context, protocolID, reviewerID, assignerID int) (*models.ReviewAssignment, error) {
	db := r.db.WithContext(ctx)
	if _, err := loadProtocol(db, protocolID, false); err != nil {
		return nil, err
	}

	assignment := models.ReviewAssignment{
		ProtocolID: protocolID,
		ReviewerID: reviewerID,
		AssignedBy: assignerID,
		AssignedAt: clock(r.now)(),
	}
	if err := db.Create(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// CompleteAssignment stamps the completion time once.
func (r *AssignmentRegistry) CompleteAssignment(ctx context.Context, assignmentID int) (*models.ReviewAssignment, error) {
	db := r.db.WithContext(ctx)

	result := db.Model(&models.ReviewAssignment{}).
		Where("assignment_id = ? AND completed_at IS NULL", assignmentID).
		Update("completed_at", clock(r.now)())
	if result.Error != nil {
		return nil, result.Error
	}

	var assignment models.ReviewAssignment
	if err := db.Where("assignment_id = ?", assignmentID).First(&assignment).Error; err != nil {
		return nil, notFound(err)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyCompleted
	}
	return &assignment, nil
}

func (r *AssignmentRegistry) GetAssignment(ctx context.Context, assignmentID int) (*models.ReviewAssignment, error) {
	var assignment models.ReviewAssignment
	if err := r.db.WithContext(ctx).Where("assignment_id = ?", assignmentID).First(&assignment).Error; err != nil {
		return nil, notFound(err)
	}
	return &assignment, nil
}

// ListReviewers returns every assignment of protocolID, completed ones included.
func (r *AssignmentRegistry) ListReviewers(ctx context.Context, protocolID int) ([]models.ReviewAssignment, error) {
	var assignments []models.ReviewAssignment
	if err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("protocol_id = ?", protocolID).
		Order("assigned_at ASC, assignment_id ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// WasAssigned reports whether userID has any review assignment on protocolID,
// completed or not.
func (r *AssignmentRegistry) WasAssigned(ctx context.Context, protocolID, userID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReviewAssignment{}).
		Where("protocol_id = ? AND reviewer_id = ?", protocolID, userID).
		Count(&count).Error
	return count > 0, err
}

// HasOpenAssignment reports whether userID still has review work on protocolID.
func (r *AssignmentRegistry) HasOpenAssignment(ctx context.Context, protocolID, userID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReviewAssignment{}).
		Where("protocol_id = ? AND reviewer_id = ? AND completed_at IS NULL", protocolID, userID).
		Count(&count).Error
	return count > 0, err
}

// GrantCoEditor gives granteeID co-editor rights; one active grant per pair.
func (r *AssignmentRegistry) GrantCoEditor(ctx context.Context, protocolID, granteeID, granterID int) (*models.CoEditorAssignment, error) {
	unlock := r.locks.Lock(protocolID)
	defer unlock()
	return r.grantCoEditor(ctx, protocolID, granteeID, granterID)
}

// grantCoEditor expects the caller to hold the protocol lock.
func (r *AssignmentRegistry) grantCoEditor(ctx context.Context, protocolID, granteeID, granterID int) (*models.CoEditorAssignment, error) {
	var grant *models.CoEditorAssignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadProtocol(tx, protocolID, true); err != nil {
			return err
		}

		var users int64
		if err := tx.Model(&models.User{}).
			Where("user_id = ? AND delete_at IS NULL", granteeID).
			Count(&users).Error; err != nil {
			return err
		}
		if users == 0 {
			return fmt.Errorf("co-editor %d: %w", granteeID, ErrNotFound)
		}

		var active int64
		if err := tx.Model(&models.CoEditorAssignment{}).
			Where("protocol_id = ? AND grantee_id = ? AND revoked_at IS NULL", protocolID, granteeID).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrDuplicateGrant
		}

		created := models.CoEditorAssignment{
			ProtocolID: protocolID,
			GranteeID:  granteeID,
			GrantedBy:  granterID,
			GrantedAt:  clock(r.now)(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		grant = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// RevokeCoEditor ends the active grant of granteeID. The row is kept with the revoker stamped.
func (r *AssignmentRegistry) RevokeCoEditor(ctx context.Context, protocolID, granteeID, revokerID int) error {
	unlock := r.locks.Lock(protocolID)
	defer unlock()

	result := r.db.WithContext(ctx).Model(&models.CoEditorAssignment{}).
		Where("protocol_id = ? AND grantee_id = ? AND revoked_at IS NULL", protocolID, granteeID).
		Updates(map[string]interface{}{
			"revoked_by": revokerID,
			"revoked_at": clock(r.now)(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCoEditors returns the active grants of protocolID.
func (r *AssignmentRegistry) ListCoEditors(ctx context.Context, protocolID int) ([]models.CoEditorAssignment, error) {
	var grants []models.CoEditorAssignment
	if err := r.db.WithContext(ctx).
		Preload("Grantee").
		Where("protocol_id = ? AND revoked_at IS NULL", protocolID).
		Order("granted_at ASC, grant_id ASC").
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *AssignmentRegistry) IsActiveCoEditor(ctx context.Context, protocolID, userID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CoEditorAssignment{}).
		Where("protocol_id = ? AND grantee_id = ? AND revoked_at IS NULL", protocolID, userID).
		Count(&count).Error
	return count > 0, err
}
