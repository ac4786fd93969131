package services

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"

	"protocol-review-api/config"
	"protocol-review-api/models"

	"gorm.io/gorm"
)

// MailSender is satisfied by config.Mailer.
type MailSender interface {
	SendMail(to []string, subject, html string) error
}

// NotificationService tells the protocol owner and active co-editors about status
// changes, through their in-app inbox and by email.
type NotificationService struct {
	db     *gorm.DB
	mailer MailSender
	async  bool
	logger *log.Logger
}

func NewNotificationService(db *gorm.DB, mailer MailSender) *NotificationService {
	return &NotificationService{db: db, mailer: mailer, async: true, logger: config.Logger("notify")}
}

// OnTransition implements TransitionListener. Delivery runs in the background.
func (s *NotificationService) OnTransition(ctx context.Context, event TransitionEvent) error {
	if !s.async {
		return s.Deliver(ctx, event)
	}
	go func() {
		if err := s.Deliver(context.Background(), event); err != nil {
			s.logger.Printf("protocol %d: %v", event.ProtocolID, err)
		}
	}()
	return nil
}

// Deliver writes the inbox rows and sends the transition email synchronously.
func (s *NotificationService) Deliver(ctx context.Context, event TransitionEvent) error {
	users, err := s.recipients(ctx, event.ProtocolID, event.OwnerID)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	subject, message := transitionMessage(event)
	if err := s.record(ctx, users, event, subject, message); err != nil {
		return err
	}

	if !s.mailEnabled() {
		return nil
	}
	emails := make([]string, 0, len(users))
	for _, user := range users {
		if email := strings.TrimSpace(user.Email); email != "" {
			emails = append(emails, email)
		}
	}
	if len(emails) == 0 {
		return nil
	}
	if err := s.mailer.SendMail(emails, subject, formalEmailHTML(subject, message)); err != nil {
		return fmt.Errorf("send transition email: %w", err)
	}
	return nil
}

func (s *NotificationService) mailEnabled() bool {
	if s.mailer == nil {
		return false
	}
	if c, ok := s.mailer.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

func (s *NotificationService) recipients(ctx context.Context, protocolID, ownerID int) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	coEditors := db.Model(&models.CoEditorAssignment{}).
		Select("grantee_id").
		Where("protocol_id = ? AND revoked_at IS NULL", protocolID)

	var users []models.User
	if err := db.Where("delete_at IS NULL").
		Where("user_id = ? OR user_id IN (?)", ownerID, coEditors).
		Order("user_id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *NotificationService) record(ctx context.Context, users []models.User, event TransitionEvent, subject, message string) error {
	protocolID := event.ProtocolID
	rows := make([]models.Notification, 0, len(users))
	for _, user := range users {
		rows = append(rows, models.Notification{
			UserID:            user.UserID,
			Title:             subject,
			Message:           message,
			Type:              models.NotificationType(event.To),
			RelatedProtocolID: &protocolID,
			CreatedAt:         event.At,
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("record notifications: %w", err)
	}
	return nil
}

// Inbox returns the newest notifications of userID first.
func (s *NotificationService) Inbox(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var items []models.Notification
	if err := q.Order("created_at DESC, notification_id DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkRead flags one notification of userID as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID int) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int) error {
	return s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// TransitionEmail renders the subject and HTML body for event.
func TransitionEmail(event TransitionEvent) (string, string) {
	subject, message := transitionMessage(event)
	return subject, formalEmailHTML(subject, message)
}

func transitionMessage(event TransitionEvent) (string, string) {
	title := event.Title
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Protocol #%d", event.ProtocolID)
	}
	subject := fmt.Sprintf("[Protocol Review] %s is now %s", title, statusLabel(event.To))

	lines := []string{fmt.Sprintf("The protocol %q moved from %s to %s.", title, statusLabel(event.From), statusLabel(event.To))}
	if event.VersionNo > 0 {
		lines = append(lines, fmt.Sprintf("Submitted as version %d.", event.VersionNo))
	}
	if event.Remark != "" {
		lines = append(lines, "Remark: "+event.Remark)
	}
	if !event.At.IsZero() {
		lines = append(lines, event.At.Format("2006-01-02 15:04"))
	}
	return subject, strings.Join(lines, "\n")
}

func formalEmailHTML(subject, message string) string {
	escapedSubject := template.HTMLEscapeString(subject)
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedMessage)
}

func statusLabel(status models.ProtocolStatus) string {
	return strings.ReplaceAll(strings.ToLower(string(status)), "_", " ")
}
