package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateAndValidateSession(t *testing.T) {
	svc := NewService(NewMemoryRepository(), time.Hour)
	ctx := context.Background()

	r, err := svc.CreateSession(ctx, "sub-1")
	require.NoError(t, err)
	require.Len(t, r, 64)

	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "sub-1", sess.Sub)

	require.NoError(t, svc.DeleteRefresh(ctx, r))
	sess2, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, sess2)
}

func TestValidateRefresh_ExpiredIsRemoved(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, time.Minute)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	ctx := context.Background()

	r, err := svc.CreateSession(ctx, "sub-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(2 * time.Minute) }
	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, sess)

	raw, err := repo.GetByRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, raw)
}

func TestRotate(t *testing.T) {
	svc := NewService(NewMemoryRepository(), time.Hour)
	ctx := context.Background()

	r, err := svc.CreateSession(ctx, "sub-9")
	require.NoError(t, err)

	next, sess, err := svc.Rotate(ctx, r)
	require.NoError(t, err)
	require.NotEmpty(t, next)
	require.NotEqual(t, r, next)
	require.Equal(t, "sub-9", sess.Sub)

	// the old token is consumed
	again, sess2, err := svc.Rotate(ctx, r)
	require.NoError(t, err)
	require.Empty(t, again)
	require.Nil(t, sess2)
}
