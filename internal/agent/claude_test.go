package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *CLISession {
	return NewCLISession("claude", nil)
}

func TestConsumeTerminalSuccess(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"system","subtype":"init"}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"looking at the diff"}]}}`,
		`{"type":"result","subtype":"success","is_error":false,"result":"final review text"}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"should never be read"}]}}`,
	}, "\n")

	res, sawTerminal, err := newTestSession().consume(strings.NewReader(stream), Options{})
	require.NoError(t, err)
	assert.True(t, sawTerminal)
	assert.Equal(t, "final review text", res.Text)
}

func TestConsumeTerminalFailure(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantMsg string
	}{
		{
			name:    "max turns with no reported errors",
			line:    `{"type":"result","subtype":"error_max_turns","is_error":true}`,
			wantMsg: "agent run failed with subtype error_max_turns",
		},
		{
			name:    "reported errors are concatenated",
			line:    `{"type":"result","subtype":"error_during_execution","is_error":true,"errors":["boom","bang"]}`,
			wantMsg: "boom; bang",
		},
		{
			name:    "success subtype with error flag still fails",
			line:    `{"type":"result","subtype":"success","is_error":true,"errors":["half-baked"]}`,
			wantMsg: "half-baked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, sawTerminal, err := newTestSession().consume(strings.NewReader(tt.line), Options{})
			require.Error(t, err)
			assert.True(t, sawTerminal)
			assert.Nil(t, res)
			assert.Equal(t, tt.wantMsg, err.Error())

			var runErr *Error
			require.ErrorAs(t, err, &runErr)
		})
	}
}

func TestConsumeCarriesRequestID(t *testing.T) {
	line := `{"type":"result","subtype":"error_during_execution","is_error":true,"request_id":"req_0123","errors":["upstream exploded"]}`

	_, _, err := newTestSession().consume(strings.NewReader(line), Options{})
	require.Error(t, err)

	var runErr *Error
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "req_0123", runErr.RequestID)
}

func TestConsumeStreamWithoutTerminalMessage(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"assistant","message":{"content":[{"type":"text","text":"first thought"}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"last full utterance"}]}}`,
		`{"type":"assistant","message":{"content":[]}}`,
	}, "\n")

	res, sawTerminal, err := newTestSession().consume(strings.NewReader(stream), Options{})
	require.NoError(t, err)
	assert.False(t, sawTerminal)
	assert.Equal(t, "last full utterance", res.Text)
}

func TestConsumeSkipsMalformedLines(t *testing.T) {
	stream := strings.Join([]string{
		`this is not json`,
		`{"type":"assistant","message":{"content":"plain string content"}}`,
		`{"type":"result","subtype":"success","result":"done"}`,
	}, "\n")

	res, _, err := newTestSession().consume(strings.NewReader(stream), Options{})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Text)
}

func TestConsumeStructuredOutput(t *testing.T) {
	t.Run("from result message payload", func(t *testing.T) {
		line := `{"type":"result","subtype":"success","result":"ok","structured_output":{"summary":"s","comments":[]}}`

		res, _, err := newTestSession().consume(strings.NewReader(line), Options{Structured: true})
		require.NoError(t, err)
		assert.JSONEq(t, `{"summary":"s","comments":[]}`, string(res.Structured))
	})

	t.Run("extracted from fenced result text", func(t *testing.T) {
		line := `{"type":"result","subtype":"success","result":"Here you go:\n` + "```json\\n{\\\"summary\\\":\\\"s\\\"}\\n```" + `"}`

		res, _, err := newTestSession().consume(strings.NewReader(line), Options{Structured: true})
		require.NoError(t, err)
		assert.JSONEq(t, `{"summary":"s"}`, string(res.Structured))
	})
}

func TestRunNonzeroExitWithEmptyStreamIsAnError(t *testing.T) {
	// "false" ignores its arguments, writes nothing, and exits 1; the run
	// must fail instead of degrading to an empty fallback result.
	s := NewCLISession("false", nil)

	res, err := s.Run(context.Background(), "prompt", Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "exited without producing any output")
}

func TestBuildArgs(t *testing.T) {
	s := newTestSession()

	args := s.buildArgs(Options{
		Model:      "claude-sonnet-4-20250514",
		MaxTurns:   12,
		Permission: "acceptEdits",
		Policy:     AllowList("Read", "Grep"),
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--output-format stream-json")
	assert.Contains(t, joined, "--model claude-sonnet-4-20250514")
	assert.Contains(t, joined, "--max-turns 12")
	assert.Contains(t, joined, "--permission-mode acceptEdits")
	assert.Contains(t, joined, "--allowedTools Read,Grep")
}

func TestBuildArgsDefaultPolicyHasNoAllowList(t *testing.T) {
	args := newTestSession().buildArgs(Options{Model: "m"})
	assert.NotContains(t, strings.Join(args, " "), "--allowedTools")
}
