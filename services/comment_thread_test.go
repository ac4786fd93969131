package services

import (
	"context"
	"testing"

	"protocol-review-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComment_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draft := env.createProtocol(t, 1, completeContent())
	draftVersion, err := env.versions.CreateVersion(ctx, draft.ProtocolID, completeContent(), 1)
	require.NoError(t, err)

	submitted := env.createProtocol(t, 1, completeContent())
	env.moveTo(t, submitted, models.StatusUnderReview)
	reloaded, err := env.protocols.Get(ctx, submitted.ProtocolID)
	require.NoError(t, err)
	currentID := *reloaded.CurrentVersionID

	tests := []struct {
		name      string
		versionID int
		body      string
		wantErr   error
	}{
		{"empty body", currentID, "   ", ErrEmptyBody},
		{"missing version", 9999, "looks fine", ErrNotFound},
		{"draft protocol", draftVersion.VersionID, "too early", ErrProtocolNotReviewable},
		{"current version", currentID, "please justify n=24", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment, err := env.comments.AddComment(ctx, tt.versionID, reviewerActor.ID, tt.body)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, comment)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, submitted.ProtocolID, comment.ProtocolID)
			assert.False(t, comment.IsResolved)
		})
	}
}

func TestAddComment_OldVersionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	protocol := env.createProtocol(t, 1, completeContent())
	env.moveTo(t, protocol, models.StatusRevisionRequired)

	first, err := env.versions.LatestVersion(ctx, protocol.ProtocolID)
	require.NoError(t, err)

	_, err = env.engine.Resubmit(ctx, protocol.ProtocolID, 1, "")
	require.NoError(t, err)

	_, err = env.comments.AddComment(ctx, first.VersionID, reviewerActor.ID, "stale")
	assert.ErrorIs(t, err, ErrVersionNotCurrent)

	comment, err := env.comments.AddCommentToLatest(ctx, protocol.ProtocolID, reviewerActor.ID, "fresh")
	require.NoError(t, err)
	assert.NotEqual(t, first.VersionID, comment.VersionID)
}

func TestResolve_OnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	protocol := env.createProtocol(t, 1, completeContent())
	env.moveTo(t, protocol, models.StatusUnderReview)

	comment, err := env.comments.AddCommentToLatest(ctx, protocol.ProtocolID, reviewerActor.ID, "clarify housing")
	require.NoError(t, err)

	resolved, err := env.comments.Resolve(ctx, comment.CommentID, 1)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, 1, *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = env.comments.Resolve(ctx, comment.CommentID, 1)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	_, err = env.comments.Resolve(ctx, 9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByVersion_OrderAndUnresolvedCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	protocol := env.createProtocol(t, 1, completeContent())
	env.moveTo(t, protocol, models.StatusUnderReview)

	var ids []int
	for _, body := range []string{"first", "second", "third"} {
		comment, err := env.comments.AddCommentToLatest(ctx, protocol.ProtocolID, reviewerActor.ID, body)
		require.NoError(t, err)
		ids = append(ids, comment.CommentID)
	}
	_, err := env.comments.Resolve(ctx, ids[1], 1)
	require.NoError(t, err)

	comments, err := env.comments.ListByVersion(ctx, *mustGet(t, env, protocol.ProtocolID).CurrentVersionID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "third", comments[2].Body)

	open, err := env.comments.CountUnresolved(ctx, comments[0].VersionID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), open)
}

func mustGet(t *testing.T, env *testEnv, protocolID int) *models.Protocol {
	t.Helper()
	protocol, err := env.protocols.Get(context.Background(), protocolID)
	require.NoError(t, err)
	return protocol
}
