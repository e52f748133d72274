package users

import (
	"context"
	"testing"

	"github.com/Yubo0826/portfolio-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUsers(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return &Service{DB: db}, db
}

func TestCreate_FirstSignIn(t *testing.T) {
	svc, _ := setupUsers(t)
	name := "Alice"
	user, created, err := svc.Create(context.Background(), "u1", "alice@example.com", &name)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "u1", user.UID)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestCreate_RepeatSignInReturnsExisting(t *testing.T) {
	svc, db := setupUsers(t)
	_, created, err := svc.Create(context.Background(), "u1", "alice@example.com", nil)
	require.NoError(t, err)
	require.True(t, created)

	user, created, err := svc.Create(context.Background(), "u1", "alice@example.com", nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "u1", user.UID)

	var count int64
	require.NoError(t, db.Model(&domain.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreate_RejectsBadEmail(t *testing.T) {
	svc, _ := setupUsers(t)
	_, _, err := svc.Create(context.Background(), "u1", "not-an-email", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSettings_RoundTrip(t *testing.T) {
	svc, _ := setupUsers(t)
	_, _, err := svc.Create(context.Background(), "u1", "alice@example.com", nil)
	require.NoError(t, err)

	threshold := 0.1
	_, err = svc.UpdateSettings(context.Background(), "u1", Settings{DriftThreshold: &threshold})
	require.NoError(t, err)

	settings, err := svc.GetSettings(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, settings.DriftThreshold)
	assert.InDelta(t, 0.1, *settings.DriftThreshold, 1e-9)
}

func TestSettings_UnknownUserIsNotFound(t *testing.T) {
	svc, _ := setupUsers(t)
	_, err := svc.GetSettings(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateSettings(context.Background(), "ghost", Settings{})
	assert.ErrorIs(t, err, ErrNotFound)
}
