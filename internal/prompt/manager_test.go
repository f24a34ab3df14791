package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRendersReviewPrompt(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	data := ReviewData{
		Title:       "Add retry",
		Body:        "with backoff",
		Diff:        "@@ -1 +1 @@\n-a\n+b",
		Instruction: "focus on error handling",
		CustomInstructions: []string{
			"never approve vendored changes",
		},
	}

	for _, backend := range []Backend{DefaultBackend, APIBackend} {
		out, err := m.Render(ReviewPrompt, backend, data)
		require.NoError(t, err)

		assert.Contains(t, out, "Add retry")
		assert.Contains(t, out, "with backoff")
		assert.Contains(t, out, "-a\n+b")
		assert.Contains(t, out, "focus on error handling")
		assert.Contains(t, out, "never approve vendored changes")
		assert.Contains(t, out, `"summary"`)
	}
}

func TestManagerFallsBackToDefaultBackend(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	out, err := m.Render(ReviewPrompt, Backend("claude-cli"), ReviewData{Title: "x", Instruction: "y"})
	require.NoError(t, err)
	assert.Contains(t, out, "running inside a checkout")
}

func TestManagerUnknownKey(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	_, err = m.Render(Key("nope"), DefaultBackend, nil)
	assert.Error(t, err)
}
