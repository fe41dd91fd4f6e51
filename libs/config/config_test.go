package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort(t *testing.T) {
	t.Setenv("PORT", "70000")
	_, err := Port("PORT", "8080")
	assert.Error(t, err)

	t.Setenv("PORT", "")
	p, err := Port("PORT", "8080")
	require.NoError(t, err)
	assert.Equal(t, "8080", p)
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_INT", "42")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_SECS", "30")
	t.Setenv("X_LIST", " a, ,b ")

	assert.True(t, Bool("X_BOOL", false))
	assert.False(t, Bool("X_MISSING", false))
	assert.Equal(t, 42, Int("X_INT", 1))
	assert.Equal(t, 90*time.Second, Duration("X_DUR", time.Minute))
	assert.Equal(t, 30*time.Second, Duration("X_SECS", time.Minute))
	assert.Equal(t, []string{"a", "b"}, List("X_LIST"))
}

func TestLoadDotenvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("NEXSCHED_TEST_A=file\nNEXSCHED_TEST_B=file\n"), 0o600))

	t.Setenv("NEXSCHED_TEST_A", "env")
	require.NoError(t, LoadDotenv(path, filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { _ = os.Unsetenv("NEXSCHED_TEST_B") })

	assert.Equal(t, "env", os.Getenv("NEXSCHED_TEST_A"))
	assert.Equal(t, "file", os.Getenv("NEXSCHED_TEST_B"))
}
