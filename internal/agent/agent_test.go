package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare object",
			text: `{"summary":"fine"}`,
			want: `{"summary":"fine"}`,
		},
		{
			name: "fenced object",
			text: "```json\n{\"summary\":\"fine\"}\n```",
			want: `{"summary":"fine"}`,
		},
		{
			name: "object surrounded by prose",
			text: "Sure, here is the review:\n{\"summary\":\"fine\"}\nLet me know!",
			want: `{"summary":"fine"}`,
		},
		{
			name: "no object",
			text: "just some prose about the change",
			want: "",
		},
		{
			name: "invalid json is rejected",
			text: `{"summary": not quoted}`,
			want: "",
		},
		{
			name: "empty input",
			text: "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSONObject(tt.text)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestAllowAllPolicy(t *testing.T) {
	p := AllowAll()

	d := p.Decide("Bash", json.RawMessage(`{"command":"rm -rf /"}`))
	assert.True(t, d.Allow)
	assert.Nil(t, p.Tools())
}

func TestAllowListPolicy(t *testing.T) {
	p := AllowList("Read", "Grep", "Read")

	assert.True(t, p.Decide("Read", nil).Allow)
	assert.False(t, p.Decide("Bash", nil).Allow)
	assert.Equal(t, []string{"Read", "Grep"}, p.Tools())
}

func TestDecodeEventExhaustsKnownKinds(t *testing.T) {
	assert.Equal(t, eventAssistant, decodeEvent([]byte(`{"type":"assistant","message":{"content":"hi"}}`)).Kind)
	assert.Equal(t, eventResultSuccess, decodeEvent([]byte(`{"type":"result","subtype":"success"}`)).Kind)
	assert.Equal(t, eventResultFailure, decodeEvent([]byte(`{"type":"result","subtype":"error_max_turns","is_error":true}`)).Kind)
	assert.Equal(t, eventIgnored, decodeEvent([]byte(`{"type":"tool_use"}`)).Kind)
	assert.Equal(t, eventIgnored, decodeEvent([]byte(`garbage`)).Kind)
}
