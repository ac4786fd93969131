package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"protocol-review-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttachmentService stores supporting files. Files may only change while the
// protocol status allows content edits.
type AttachmentService struct {
	db          *gorm.DB
	assignments *AssignmentRegistry
	locks       *ProtocolLocks
	uploadPath  string
	now         func() time.Time
}

func NewAttachmentService(db *gorm.DB, assignments *AssignmentRegistry, locks *ProtocolLocks, uploadPath string) *AttachmentService {
	if locks == nil {
		locks = NewProtocolLocks()
	}
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	return &AttachmentService{
		db:          db,
		assignments: assignments,
		locks:       locks,
		uploadPath:  uploadPath,
		now:         time.Now,
	}
}

// AttachmentsMutable reports whether protocol attachments may be added or removed.
func AttachmentsMutable(protocol *models.Protocol) bool {
	return protocol != nil && protocol.IsEditable()
}

// Add copies r into the upload folder of protocolID and records it.
func (s *AttachmentService) Add(ctx context.Context, protocolID int, actor Actor, originalName, mimeType string, r io.Reader) (*models.ProtocolAttachment, error) {
	unlock := s.locks.Lock(protocolID)
	defer unlock()

	db := s.db.WithContext(ctx)
	protocol, err := s.authorize(ctx, db, protocolID, actor)
	if err != nil {
		return nil, err
	}

	folder := filepath.Join(s.uploadPath, "protocols", strconv.Itoa(protocol.ProtocolID))
	if err := os.MkdirAll(folder, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create attachment folder: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	storedPath := filepath.Join(folder, uuid.NewString()+ext)
	size, err := writeFile(storedPath, r)
	if err != nil {
		return nil, err
	}

	attachment := models.ProtocolAttachment{
		ProtocolID:   protocol.ProtocolID,
		OriginalName: filepath.Base(originalName),
		StoredPath:   storedPath,
		FileSize:     size,
		MimeType:     mimeType,
		UploadedBy:   actor.ID,
		UploadedAt:   clock(s.now)(),
	}
	if err := db.Create(&attachment).Error; err != nil {
		_ = os.Remove(storedPath)
		return nil, err
	}
	return &attachment, nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create attachment file: %w", err)
	}
	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if copyErr != nil {
			return 0, fmt.Errorf("write attachment file: %w", copyErr)
		}
		return 0, fmt.Errorf("close attachment file: %w", closeErr)
	}
	return size, nil
}

// Remove soft-deletes an attachment; the stored file is kept for audit.
func (s *AttachmentService) Remove(ctx context.Context, attachmentID int, actor Actor) error {
	attachment, err := s.Get(ctx, attachmentID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(attachment.ProtocolID)
	defer unlock()

	db := s.db.WithContext(ctx)
	if _, err := s.authorize(ctx, db, attachment.ProtocolID, actor); err != nil {
		return err
	}

	result := db.Model(&models.ProtocolAttachment{}).
		Where("attachment_id = ? AND deleted_at IS NULL", attachmentID).
		Updates(map[string]interface{}{
			"deleted_by": actor.ID,
			"deleted_at": clock(s.now)(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AttachmentService) authorize(ctx context.Context, db *gorm.DB, protocolID int, actor Actor) (*models.Protocol, error) {
	protocol, err := loadProtocol(db, protocolID, false)
	if err != nil {
		return nil, err
	}
	if protocol.OwnerID != actor.ID {
		ok, err := s.assignments.IsActiveCoEditor(ctx, protocolID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrForbidden
		}
	}
	if !AttachmentsMutable(protocol) {
		return nil, ErrAttachmentsLocked
	}
	return protocol, nil
}

// Get returns a live attachment.
func (s *AttachmentService) Get(ctx context.Context, attachmentID int) (*models.ProtocolAttachment, error) {
	var attachment models.ProtocolAttachment
	if err := s.db.WithContext(ctx).
		Where("attachment_id = ? AND deleted_at IS NULL", attachmentID).
		First(&attachment).Error; err != nil {
		return nil, notFound(err)
	}
	return &attachment, nil
}

// List returns the live attachments of protocolID in upload order.
func (s *AttachmentService) List(ctx context.Context, protocolID int) ([]models.ProtocolAttachment, error) {
	var attachments []models.ProtocolAttachment
	if err := s.db.WithContext(ctx).
		Where("protocol_id = ? AND deleted_at IS NULL", protocolID).
		Order("uploaded_at ASC, attachment_id ASC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}
