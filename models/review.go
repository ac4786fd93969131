package models

import "time"

// ReviewComment is a reviewer remark anchored to one protocol version.
type ReviewComment struct {
	CommentID  int        `gorm:"primaryKey;column:comment_id" json:"comment_id"`
	ProtocolID int        `gorm:"column:protocol_id;index" json:"protocol_id"`
	VersionID  int        `gorm:"column:version_id;index" json:"version_id"`
	AuthorID   int        `gorm:"column:author_id" json:"author_id"`
	Body       string     `gorm:"column:body;type:text" json:"body"`
	IsResolved bool       `gorm:"column:is_resolved;not null;default:false" json:"is_resolved"`
	ResolvedBy *int       `gorm:"column:resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (ReviewComment) TableName() string {
	return "protocol_review_comments"
}

// ReviewAssignment records a committee member asked to review a protocol.
// The same reviewer may hold several rows for one protocol.
type ReviewAssignment struct {
	AssignmentID int        `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	ProtocolID   int        `gorm:"column:protocol_id;index" json:"protocol_id"`
	ReviewerID   int        `gorm:"column:reviewer_id;index" json:"reviewer_id"`
	AssignedBy   int        `gorm:"column:assigned_by" json:"assigned_by"`
	AssignedAt   time.Time  `gorm:"column:assigned_at" json:"assigned_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	Reviewer *User `gorm:"foreignKey:ReviewerID;references:UserID" json:"reviewer,omitempty"`
}

func (ReviewAssignment) TableName() string {
	return "protocol_review_assignments"
}

// IsCompleted reports whether the reviewer has finished.
func (a *ReviewAssignment) IsCompleted() bool {
	return a.CompletedAt != nil
}

// CoEditorAssignment grants a collaborator edit-adjacent rights on a protocol.
// A revoked grant keeps its row with RevokedAt set.
type CoEditorAssignment struct {
	GrantID    int        `gorm:"primaryKey;column:grant_id" json:"grant_id"`
	ProtocolID int        `gorm:"column:protocol_id;index:idx_coeditor_pair" json:"protocol_id"`
	GranteeID  int        `gorm:"column:grantee_id;index:idx_coeditor_pair" json:"grantee_id"`
	GrantedBy  int        `gorm:"column:granted_by" json:"granted_by"`
	GrantedAt  time.Time  `gorm:"column:granted_at" json:"granted_at"`
	RevokedBy  *int       `gorm:"column:revoked_by" json:"revoked_by,omitempty"`
	RevokedAt  *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`

	Grantee *User `gorm:"foreignKey:GranteeID;references:UserID" json:"grantee,omitempty"`
}

func (CoEditorAssignment) TableName() string {
	return "protocol_co_editors"
}

// IsActive reports whether the grant has not been revoked.
func (g *CoEditorAssignment) IsActive() bool {
	return g.RevokedAt == nil
}
