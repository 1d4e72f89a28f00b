package services

import (
	"context"
	"testing"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/auth"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/localdb"
	"github.com/aaajiao/vocab-tracker-sub000/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettings(t *testing.T, defaultKey string, secret []byte) SettingsService {
	t.Helper()
	db, err := localdb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSettingsService(db, defaultKey, secret)
}

func TestSettings_APIKeyResolution(t *testing.T) {
	ctx := context.Background()
	s := newSettings(t, "sk-default", nil)

	key, err := s.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-default", key)

	require.NoError(t, s.SetAPIKey(ctx, "  sk-user  "))
	key, err = s.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-user", key)

	// clearing must not fall back to the configured default
	require.NoError(t, s.ClearAPIKey(ctx))
	_, err = s.APIKey(ctx)
	require.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, s.SetAPIKey(ctx, "sk-again"))
	key, err = s.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-again", key)

	require.NoError(t, s.SetAPIKey(ctx, ""))
	_, err = s.APIKey(ctx)
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestSettings_NoDefaultKey(t *testing.T) {
	s := newSettings(t, "", nil)
	_, err := s.APIKey(context.Background())
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestSettings_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	secret := []byte("secret")
	s := newSettings(t, "", secret)

	_, err := s.OwnerID(ctx)
	require.ErrorIs(t, err, ErrNotSignedIn)

	token, err := auth.GenerateToken("user-42", secret, time.Hour)
	require.NoError(t, err)

	owner, err := s.SignIn(ctx, token+"\n")
	require.NoError(t, err)
	assert.Equal(t, "user-42", owner)

	owner, err = s.OwnerID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-42", owner)

	require.NoError(t, s.SignOut(ctx))
	_, err = s.OwnerID(ctx)
	require.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSettings_SignInRejectsBadToken(t *testing.T) {
	ctx := context.Background()
	s := newSettings(t, "", []byte("secret"))

	other, err := auth.GenerateToken("user-1", []byte("other"), time.Hour)
	require.NoError(t, err)

	_, err = s.SignIn(ctx, other)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = s.OwnerID(ctx)
	require.ErrorIs(t, err, ErrNotSignedIn)
}
