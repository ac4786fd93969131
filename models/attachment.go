package models

import "time"

// ProtocolAttachment is a supporting file uploaded against a protocol.
type ProtocolAttachment struct {
	AttachmentID int        `gorm:"primaryKey;column:attachment_id" json:"attachment_id"`
	ProtocolID   int        `gorm:"column:protocol_id;index" json:"protocol_id"`
	OriginalName string     `gorm:"column:original_name" json:"original_name"`
	StoredPath   string     `gorm:"column:stored_path" json:"-"`
	FileSize     int64      `gorm:"column:file_size" json:"file_size"`
	MimeType     string     `gorm:"column:mime_type" json:"mime_type"`
	UploadedBy   int        `gorm:"column:uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time  `gorm:"column:uploaded_at" json:"uploaded_at"`
	DeletedBy    *int       `gorm:"column:deleted_by" json:"deleted_by,omitempty"`
	DeletedAt    *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
}

func (ProtocolAttachment) TableName() string {
	return "protocol_attachments"
}

// GetFileSizeInMB is used by listing responses.
func (a *ProtocolAttachment) GetFileSizeInMB() float64 {
	return float64(a.FileSize) / (1024 * 1024)
}
