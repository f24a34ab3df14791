package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRepoConfig(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		dir := t.TempDir()
		content := `
custom_instructions:
  - "focus on concurrency bugs"
  - "ignore generated files"
allowed_tools:
  - Read
  - Grep
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".pr-warden.yml"), []byte(content), 0600))

		cfg, err := LoadRepoConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"focus on concurrency bugs", "ignore generated files"}, cfg.CustomInstructions)
		assert.Equal(t, []string{"Read", "Grep"}, cfg.AllowedTools)
	})

	t.Run("missing file returns defaults with sentinel", func(t *testing.T) {
		cfg, err := LoadRepoConfig(t.TempDir())
		assert.ErrorIs(t, err, ErrConfigNotFound)
		require.NotNil(t, cfg)
		assert.Empty(t, cfg.CustomInstructions)
		assert.Empty(t, cfg.AllowedTools)
	})

	t.Run("broken yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".pr-warden.yml"), []byte("{custom_instructions: ["), 0600))

		_, err := LoadRepoConfig(dir)
		assert.ErrorIs(t, err, ErrConfigParsing)
	})
}
