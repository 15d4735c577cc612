package settings

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultsOnEmptyStore(t *testing.T) {
	svc := NewService(NewMemoryRepository(), []string{"news", "guides"}, "")
	got, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.True(t, got.ModerationEnabled)
	assert.True(t, got.EmailNotification)
	assert.True(t, got.SpamProtection)
	assert.Equal(t, StyleLight, got.FormStyle)
	assert.Equal(t, uint(3), got.SubmissionLimit)
	assert.Equal(t, "news", got.DefaultCategory)
	assert.Equal(t, DefaultEmailTemplate, got.EmailTemplate)
}

func TestPatchSanitizes(t *testing.T) {
	cats := []string{"news", "guides"}
	s := Defaults("news")

	got := Patch{
		DefaultCategory: ptr("unknown"),
		FormStyle:       ptr("neon"),
		SubmissionLimit: ptr(int64(-4)),
		EmailTemplate:   ptr("  Subject: Hi\r\n\r\nBody \n"),
	}.Apply(s, cats)
	assert.Equal(t, "", got.DefaultCategory)
	assert.Equal(t, StyleLight, got.FormStyle)
	assert.Equal(t, uint(0), got.SubmissionLimit)
	assert.Equal(t, "Subject: Hi\n\nBody", got.EmailTemplate)

	got = Patch{DefaultCategory: ptr("guides"), FormStyle: ptr("Dark")}.Apply(s, cats)
	assert.Equal(t, "guides", got.DefaultCategory)
	assert.Equal(t, StyleDark, got.FormStyle)
	// untouched fields keep their values
	assert.True(t, got.ModerationEnabled)
	assert.Equal(t, uint(3), got.SubmissionLimit)
}

func TestTemplateFallback(t *testing.T) {
	assert.Equal(t, DefaultEmailTemplate, Settings{}.Template())
	assert.Equal(t, "Subject: x", Settings{EmailTemplate: "Subject: x"}.Template())
}

func TestUpdateMerges(t *testing.T) {
	svc := NewService(NewMemoryRepository(), []string{"news"}, "news")
	ctx := context.Background()

	_, err := svc.Update(ctx, Patch{ModerationEnabled: ptr(false)})
	require.NoError(t, err)
	got, err := svc.Update(ctx, Patch{SubmissionLimit: ptr(int64(10))})
	require.NoError(t, err)

	assert.False(t, got.ModerationEnabled)
	assert.Equal(t, uint(10), got.SubmissionLimit)

	reread, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, reread)
}

func TestGormRepositoryRoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	repo, err := NewGormRepository(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	svc := NewService(repo, []string{"news"}, "news")
	require.NoError(t, svc.EnsureDefaults(ctx))
	_, err = svc.Update(ctx, Patch{FormStyle: ptr("dark")})
	require.NoError(t, err)
	_, err = svc.Update(ctx, Patch{SpamProtection: ptr(false)})
	require.NoError(t, err)

	got, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StyleDark, got.FormStyle)
	assert.False(t, got.SpamProtection)
	assert.Equal(t, "news", got.DefaultCategory)
}
