package cache

import (
	"testing"

	"chefai/internal/config"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeCacheSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	c, err := MakeCache(&config.Config{Storage: config.StorageConfig{Driver: "file", Dir: dir}})
	require.NoError(t, err)
	assert.IsType(t, &FileCache{}, c)

	c, err = MakeCache(&config.Config{Storage: config.StorageConfig{Driver: "memory"}})
	require.NoError(t, err)
	assert.IsType(t, &InMemoryCache{}, c)

	c, err = MakeCache(&config.Config{Storage: config.StorageConfig{Driver: "sqlite", Dir: dir}})
	require.NoError(t, err)
	require.IsType(t, &SQLiteCache{}, c)
	require.NoError(t, c.(*SQLiteCache).Close())

	_, err = MakeCache(&config.Config{Storage: config.StorageConfig{Driver: "redis"}})
	require.Error(t, err)

	c, err = MakeCache(&config.Config{Storage: config.StorageConfig{Driver: "redis", RedisURL: "ftp://nope"}})
	require.Error(t, err)
	assert.Nil(t, c)

	_, err = MakeCache(&config.Config{Storage: config.StorageConfig{Driver: "floppy"}})
	require.Error(t, err)
}

func TestMakeCacheEncryptsSQLite(t *testing.T) {
	id, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	c, err := MakeCache(&config.Config{Storage: config.StorageConfig{
		Driver:      "sqlite",
		Dir:         t.TempDir(),
		AgeIdentity: id.String(),
	}})
	require.NoError(t, err)
	require.IsType(t, &EncryptedCache{}, c)

	enc := c.(*EncryptedCache)
	require.NoError(t, enc.Ping(t.Context()))
	require.NoError(t, enc.Close())
}
