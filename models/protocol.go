package models

import (
	"time"

	"gorm.io/datatypes"
)

// Protocol is the aggregate root of a reviewable research protocol.
type Protocol struct {
	ProtocolID       int                                 `gorm:"primaryKey;column:protocol_id" json:"protocol_id"`
	Title            string                              `gorm:"column:title;size:500" json:"title"`
	Status           ProtocolStatus                      `gorm:"column:status;size:40;index" json:"status"`
	WorkingContent   datatypes.JSONType[ProtocolContent] `gorm:"column:working_content" json:"working_content"`
	CurrentVersionID *int                                `gorm:"column:current_version_id" json:"current_version_id"`
	OwnerID          int                                 `gorm:"column:owner_id;index" json:"owner_id"`
	LockVersion      int                                 `gorm:"column:lock_version;not null;default:0" json:"lock_version"`
	CreatedAt        time.Time                           `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time                           `gorm:"column:updated_at" json:"updated_at"`
	ArchivedAt       *time.Time                          `gorm:"column:archived_at" json:"archived_at,omitempty"`

	Owner *User `gorm:"foreignKey:OwnerID;references:UserID" json:"owner,omitempty"`
}

func (Protocol) TableName() string {
	return "protocols"
}

// Content returns the current working content.
func (p *Protocol) Content() ProtocolContent {
	return p.WorkingContent.Data()
}

// IsEditable reports whether the owner may still change working content.
func (p *Protocol) IsEditable() bool {
	return p.ArchivedAt == nil && p.Status.IsEditable()
}

// ProtocolVersion is an immutable snapshot of working content taken at submission.
type ProtocolVersion struct {
	VersionID       int                                 `gorm:"primaryKey;column:version_id" json:"version_id"`
	ProtocolID      int                                 `gorm:"column:protocol_id;uniqueIndex:idx_protocol_version_no,priority:1" json:"protocol_id"`
	VersionNo       int                                 `gorm:"column:version_no;uniqueIndex:idx_protocol_version_no,priority:2" json:"version_no"`
	ContentSnapshot datatypes.JSONType[ProtocolContent] `gorm:"column:content_snapshot" json:"content_snapshot"`
	SubmittedBy     int                                 `gorm:"column:submitted_by" json:"submitted_by"`
	SubmittedAt     time.Time                           `gorm:"column:submitted_at" json:"submitted_at"`
}

func (ProtocolVersion) TableName() string {
	return "protocol_versions"
}

// Snapshot returns the content captured by this version.
func (v *ProtocolVersion) Snapshot() ProtocolContent {
	return v.ContentSnapshot.Data()
}

// StatusHistoryEntry is one row of the append-only status ledger.
type StatusHistoryEntry struct {
	EntryID    int             `gorm:"primaryKey;column:entry_id" json:"entry_id"`
	ProtocolID int             `gorm:"column:protocol_id;index" json:"protocol_id"`
	FromStatus *ProtocolStatus `gorm:"column:from_status;size:40" json:"from_status"`
	ToStatus   ProtocolStatus  `gorm:"column:to_status;size:40" json:"to_status"`
	ActorID    int             `gorm:"column:actor_id" json:"actor_id"`
	Remark     *string         `gorm:"column:remark" json:"remark,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (StatusHistoryEntry) TableName() string {
	return "protocol_status_history"
}
