package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignReviewer_AllowsRepeats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	protocol := env.createProtocol(t, 1, completeContent())

	first, err := env.assignments.AssignReviewer(ctx, protocol.ProtocolID, 5, adminActor.ID)
	require.NoError(t, err)
	second, err := env.assignments.AssignReviewer(ctx, protocol.ProtocolID, 5, adminActor.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.AssignmentID, second.AssignmentID)

	reviewers, err := env.assignments.ListReviewers(ctx, protocol.ProtocolID)
	require.NoError(t, err)
	assert.Len(t, reviewers, 2)

	_, err = env.assignments.AssignReviewer(ctx, 9999, 5, adminActor.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	protocol := env.createProtocol(t, 1, completeContent())

	assignment, err := env.assignments.AssignReviewer(ctx, protocol.ProtocolID, 5, adminActor.ID)
	require.NoError(t, err)

	open, err := env.assignments.HasOpenAssignment(ctx, protocol.ProtocolID, 5)
	require.NoError(t, err)
	assert.True(t, open)

	completed, err := env.assignments.CompleteAssignment(ctx, assignment.AssignmentID)
	require.NoError(t, err)
	assert.True(t, completed.IsCompleted())

	_, err = env.assignments.CompleteAssignment(ctx, assignment.AssignmentID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	_, err = env.assignments.CompleteAssignment(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	open, err = env.assignments.HasOpenAssignment(ctx, protocol.ProtocolID, 5)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestCoEditorGrantLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	protocol := env.createProtocol(t, 1, completeContent())
	seedUsers(t, env.db, 8)

	grant, err := env.assignments.GrantCoEditor(ctx, protocol.ProtocolID, 8, 1)
	require.NoError(t, err)
	assert.True(t, grant.IsActive())

	_, err = env.assignments.GrantCoEditor(ctx, protocol.ProtocolID, 8, 1)
	assert.ErrorIs(t, err, ErrDuplicateGrant)

	require.NoError(t, env.assignments.RevokeCoEditor(ctx, protocol.ProtocolID, 8, 1))
	assert.ErrorIs(t, env.assignments.RevokeCoEditor(ctx, protocol.ProtocolID, 8, 1), ErrNotFound)

	active, err := env.assignments.IsActiveCoEditor(ctx, protocol.ProtocolID, 8)
	require.NoError(t, err)
	assert.False(t, active)

	grants, err := env.assignments.ListCoEditors(ctx, protocol.ProtocolID)
	require.NoError(t, err)
	assert.Empty(t, grants)

	// A revoked grant leaves room for a new one.
	regrant, err := env.assignments.GrantCoEditor(ctx, protocol.ProtocolID, 8, 1)
	require.NoError(t, err)
	assert.NotEqual(t, grant.GrantID, regrant.GrantID)
	assert.Zero(t, env.locks.size())
}

func TestGrantCoEditor_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	protocol := env.createProtocol(t, 1, completeContent())

	_, err := env.assignments.GrantCoEditor(ctx, protocol.ProtocolID, 99, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted := createUser(t, env.db, "gone@example.edu", "")
	require.NoError(t, env.db.Model(&deleted).Update("delete_at", time.Now()).Error)
	_, err = env.assignments.GrantCoEditor(ctx, protocol.ProtocolID, deleted.UserID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	grants, err := env.assignments.ListCoEditors(ctx, protocol.ProtocolID)
	require.NoError(t, err)
	assert.Empty(t, grants)
}
