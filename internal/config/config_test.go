package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"NEXTAUTH_SECRET", "SESSION_SECRET", "GOOGLE_API_KEY", "STORAGE_DRIVER", "SESSION_DAYS", "MOCKS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "data", cfg.Storage.Dir)
	assert.Equal(t, developmentSecret, cfg.Auth.Secret)
	assert.Equal(t, 30, cfg.Auth.SessionDays)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.False(t, cfg.Mocks.Enable)
	assert.False(t, cfg.Clerk.Enabled())
}

func TestSessionSecretFallsBackToAPIKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEXTAUTH_SECRET", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("GOOGLE_API_KEY", "abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "YWJj", cfg.Auth.Secret)

	t.Setenv("NEXTAUTH_SECRET", "explicit")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Auth.Secret)
}

func TestLoadRejectsBadSessionDays(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_DAYS", "forever")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_DAYS")
}
