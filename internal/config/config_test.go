package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	require.NoError(t, LoadConfig(""))

	assert.Equal(t, "http://localhost:8000", viper.GetString("api.server"))
	assert.Equal(t, "api", viper.GetString("api.prefix"))
	assert.Equal(t, 30*time.Second, viper.GetDuration("api.timeout"))
	assert.Equal(t, "Token", viper.GetString("api.auth_scheme"))
	assert.Equal(t, "batch", viper.GetString("tests.strategy"))
	assert.Equal(t, 4, viper.GetInt("tests.concurrency"))
	assert.Equal(t, "table", viper.GetString("output.format"))
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "stapi.yaml")
	content := []byte("api:\n  server: https://backend.example.com\n  timeout: 5s\ntests:\n  concurrency: 9\n")
	require.NoError(t, os.WriteFile(path, content, 0600))
	t.Setenv("STAPI_TESTS_STRATEGY", "parallel")

	require.NoError(t, LoadConfig(path))

	assert.Equal(t, "https://backend.example.com", viper.GetString("api.server"))
	assert.Equal(t, 5*time.Second, viper.GetDuration("api.timeout"))
	assert.Equal(t, 9, viper.GetInt("tests.concurrency"))
	assert.Equal(t, "parallel", viper.GetString("tests.strategy"))
}

func TestLoadConfigInvalidFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0600))

	assert.Error(t, LoadConfig(path))
}
