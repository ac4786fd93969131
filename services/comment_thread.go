package services

import (
	"context"
	"strings"
	"time"

	"protocol-review-api/models"

	"gorm.io/gorm"
)

// CommentThread keeps the review comments of each protocol version.
type CommentThread struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCommentThread(db *gorm.DB) *CommentThread {
	return &CommentThread{db: db, now: time.Now}
}

// AddComment anchors a new comment to versionID, which must be the protocol's latest version.
func (t *CommentThread) AddComment(ctx context.Context, versionID, authorID int, body string) (*models.ReviewComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	db := t.db.WithContext(ctx)

	var version models.ProtocolVersion
	if err := db.Where("version_id = ?", versionID).First(&version).Error; err != nil {
		return nil, notFound(err)
	}

	protocol, err := loadProtocol(db, version.ProtocolID, false)
	if err != nil {
		return nil, err
	}
	if protocol.Status == models.StatusDraft {
		return nil, ErrProtocolNotReviewable
	}
	if protocol.CurrentVersionID == nil || *protocol.CurrentVersionID != version.VersionID {
		return nil, ErrVersionNotCurrent
	}

	comment := models.ReviewComment{
		ProtocolID: version.ProtocolID,
		VersionID:  version.VersionID,
		AuthorID:   authorID,
		Body:       body,
		CreatedAt:  clock(t.now)(),
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// AddCommentToLatest comments on whatever version the protocol currently points at.
func (t *CommentThread) AddCommentToLatest(ctx context.Context, protocolID, authorID int, body string) (*models.ReviewComment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	protocol, err := loadProtocol(t.db.WithContext(ctx), protocolID, false)
	if err != nil {
		return nil, err
	}
	if protocol.Status == models.StatusDraft || protocol.CurrentVersionID == nil {
		return nil, ErrProtocolNotReviewable
	}
	return t.AddComment(ctx, *protocol.CurrentVersionID, authorID, body)
}

// Resolve marks a comment resolved once. A second call fails with ErrAlreadyResolved.
func (t *CommentThread) Resolve(ctx context.Context, commentID, resolverID int) (*models.ReviewComment, error) {
	db := t.db.WithContext(ctx)
	now := clock(t.now)()

	result := db.Model(&models.ReviewComment{}).
		Where("comment_id = ? AND is_resolved = ?", commentID, false).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"resolved_by": resolverID,
			"resolved_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := t.Get(ctx, commentID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyResolved
	}
	return t.Get(ctx, commentID)
}

func (t *CommentThread) Get(ctx context.Context, commentID int) (*models.ReviewComment, error) {
	var comment models.ReviewComment
	if err := t.db.WithContext(ctx).Where("comment_id = ?", commentID).First(&comment).Error; err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

// ListByVersion returns the comments of versionID, oldest first.
func (t *CommentThread) ListByVersion(ctx context.Context, versionID int) ([]models.ReviewComment, error) {
	var comments []models.ReviewComment
	if err := t.db.WithContext(ctx).
		Where("version_id = ?", versionID).
		Order("created_at ASC, comment_id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// CountUnresolved reports the open comments left on versionID.
func (t *CommentThread) CountUnresolved(ctx context.Context, versionID int) (int64, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.ReviewComment{}).
		Where("version_id = ? AND is_resolved = ?", versionID, false).
		Count(&count).Error
	return count, err
}
