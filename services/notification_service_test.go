package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"protocol-review-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	to      [][]string
	subject []string
	body    []string
	err     error
}

func (m *fakeMailer) SendMail(to []string, subject, html string) error {
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, html)
	return m.err
}

func TestNotification_EmailsOwnerAndCoEditors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := createUser(t, env.db, "owner@example.edu", "")
	coEditor := createUser(t, env.db, "coeditor@example.edu", "")
	revoked := createUser(t, env.db, "revoked@example.edu", "")
	createUser(t, env.db, "bystander@example.edu", "")

	protocol := env.createProtocol(t, owner.UserID, completeContent())
	_, err := env.assignments.GrantCoEditor(ctx, protocol.ProtocolID, coEditor.UserID, owner.UserID)
	require.NoError(t, err)
	_, err = env.assignments.GrantCoEditor(ctx, protocol.ProtocolID, revoked.UserID, owner.UserID)
	require.NoError(t, err)
	require.NoError(t, env.assignments.RevokeCoEditor(ctx, protocol.ProtocolID, revoked.UserID, owner.UserID))

	mailer := &fakeMailer{}
	notifier := NewNotificationService(env.db, mailer)
	notifier.async = false
	env.engine.Subscribe(notifier)

	_, err = env.engine.Submit(ctx, protocol.ProtocolID, owner.UserID)
	require.NoError(t, err)

	require.Len(t, mailer.to, 1)
	assert.Equal(t, []string{"owner@example.edu", "coeditor@example.edu"}, mailer.to[0])
	assert.Contains(t, mailer.subject[0], "is now submitted")
	assert.Contains(t, mailer.body[0], "version 1")

	inbox, err := notifier.Inbox(ctx, coEditor.UserID, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "info", inbox[0].Type)
	require.NotNil(t, inbox[0].RelatedProtocolID)
	assert.Equal(t, protocol.ProtocolID, *inbox[0].RelatedProtocolID)

	revokedInbox, err := notifier.Inbox(ctx, revoked.UserID, false, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, revokedInbox)
}

func TestNotification_InboxReadState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner@example.edu", "")
	protocol := env.createProtocol(t, owner.UserID, completeContent())

	notifier := NewNotificationService(env.db, nil)
	notifier.async = false
	env.engine.Subscribe(notifier)

	env.moveTo(t, protocol, models.StatusApproved)

	unread, err := notifier.UnreadCount(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), unread)

	items, err := notifier.Inbox(ctx, owner.UserID, false, 2, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "success", items[0].Type)

	require.NoError(t, notifier.MarkRead(ctx, owner.UserID, items[0].NotificationID))
	assert.ErrorIs(t, notifier.MarkRead(ctx, owner.UserID+100, items[1].NotificationID), ErrNotFound)

	unread, err = notifier.UnreadCount(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	require.NoError(t, notifier.MarkAllRead(ctx, owner.UserID))
	unread, err = notifier.UnreadCount(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotification_ErrorsDoNotUndoTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner@example.edu", "")
	protocol := env.createProtocol(t, owner.UserID, completeContent())

	notifier := NewNotificationService(env.db, &fakeMailer{err: errors.New("connection refused")})
	notifier.async = false
	env.engine.Subscribe(notifier)

	result, err := env.engine.Submit(ctx, protocol.ProtocolID, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, result.Protocol.Status)
}

func TestTransitionEmail_EscapesContent(t *testing.T) {
	subject, body := TransitionEmail(TransitionEvent{
		ProtocolID: 4,
		Title:      "Rats & <mice>",
		From:       models.StatusUnderReview,
		To:         models.StatusRevisionRequired,
		Remark:     "<b>fix dosing</b>",
		At:         time.Date(2024, 5, 2, 14, 30, 0, 0, time.UTC),
	})

	assert.Equal(t, "[Protocol Review] Rats & <mice> is now revision required", subject)
	assert.Contains(t, body, "Rats &amp; &lt;mice&gt;")
	assert.Contains(t, body, "&lt;b&gt;fix dosing&lt;/b&gt;")
	assert.Contains(t, body, "2024-05-02 14:30")
	assert.NotContains(t, body, "Submitted as version")

	subject, _ = TransitionEmail(TransitionEvent{ProtocolID: 9, To: models.StatusClosed})
	assert.Equal(t, "[Protocol Review] Protocol #9 is now closed", subject)
}
