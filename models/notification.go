package models

import "time"

// Notification is one in-app inbox message.
type Notification struct {
	NotificationID    int       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID            int       `gorm:"column:user_id;index" json:"user_id"`
	Title             string    `gorm:"column:title;size:500" json:"title"`
	Message           string    `gorm:"column:message" json:"message"`
	Type              string    `gorm:"column:type;size:20" json:"type"` // info|success|warning|error
	RelatedProtocolID *int      `gorm:"column:related_protocol_id" json:"related_protocol_id,omitempty"`
	IsRead            bool      `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationType picks the inbox badge for a transition into status.
func NotificationType(status ProtocolStatus) string {
	switch status {
	case StatusApproved, StatusApprovedWithConditions:
		return "success"
	case StatusRevisionRequired, StatusDeferred, StatusSuspended:
		return "warning"
	case StatusRejected:
		return "error"
	default:
		return "info"
	}
}
