package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"protocol-review-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttachmentService(t *testing.T, env *testEnv) *AttachmentService {
	t.Helper()
	return NewAttachmentService(env.db, env.assignments, env.locks, t.TempDir())
}

func TestAttachments_AddListRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newAttachmentService(t, env)
	protocol := env.createProtocol(t, 1, completeContent())
	owner := Actor{ID: 1}

	attachment, err := svc.Add(ctx, protocol.ProtocolID, owner, "Consent Form.PDF", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "Consent Form.PDF", attachment.OriginalName)
	assert.Equal(t, int64(8), attachment.FileSize)
	assert.Equal(t, ".pdf", filepath.Ext(attachment.StoredPath))

	data, err := os.ReadFile(attachment.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	listed, err := svc.List(ctx, protocol.ProtocolID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.Remove(ctx, attachment.AttachmentID, owner))
	listed, err = svc.List(ctx, protocol.ProtocolID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = os.Stat(attachment.StoredPath)
	assert.NoError(t, err, "soft delete keeps the stored file")

	assert.ErrorIs(t, svc.Remove(ctx, attachment.AttachmentID, owner), ErrNotFound)
}

func TestAttachments_PermissionsAndLocking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newAttachmentService(t, env)
	protocol := env.createProtocol(t, 1, completeContent())

	_, err := svc.Add(ctx, protocol.ProtocolID, Actor{ID: 2}, "notes.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrForbidden)

	seedUsers(t, env.db, 2)
	_, err = env.assignments.GrantCoEditor(ctx, protocol.ProtocolID, 2, 1)
	require.NoError(t, err)
	attachment, err := svc.Add(ctx, protocol.ProtocolID, Actor{ID: 2}, "notes.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	env.moveTo(t, protocol, models.StatusSubmitted)

	_, err = svc.Add(ctx, protocol.ProtocolID, Actor{ID: 1}, "late.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrAttachmentsLocked)
	assert.ErrorIs(t, svc.Remove(ctx, attachment.AttachmentID, Actor{ID: 1}), ErrAttachmentsLocked)

	listed, err := svc.List(ctx, protocol.ProtocolID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
