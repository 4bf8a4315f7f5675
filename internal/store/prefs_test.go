package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelPrefsDefault(t *testing.T) {
	prefs := NewModelPrefs(t.TempDir(), "gpt-5")
	assert.Equal(t, "gpt-5", prefs.Load())
}

func TestModelPrefsSaveLoad(t *testing.T) {
	dir := t.TempDir()

	prefs := NewModelPrefs(dir, "gpt-5")
	require.NoError(t, prefs.Save("claude-3-5-sonnet"))
	assert.Equal(t, "claude-3-5-sonnet", prefs.Load())

	// A fresh instance over the same directory sees the stored selection
	again := NewModelPrefs(dir, "gpt-5")
	assert.Equal(t, "claude-3-5-sonnet", again.Load())
}
