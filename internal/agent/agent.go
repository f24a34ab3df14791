// Package agent drives a single bounded session with a reasoning agent and
// reduces its heterogeneous message stream to one final result.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Options configures one agent session. All external inputs are collected
// here and passed in explicitly; backends never reach into process state.
type Options struct {
	Model      string
	MaxTurns   int
	Permission string
	Policy     ToolPolicy
	// Structured asks the agent to conform its final answer to the review
	// JSON shape. Backends still return whatever free text was produced,
	// so callers can degrade gracefully when the agent ignores the schema.
	Structured bool
	// WorkDir is the checkout the session runs in. Tool-using backends
	// resolve file inspection against it.
	WorkDir string
}

// Result is the outcome of a completed session: an optional structured
// payload and the final (or last observed) free-text utterance.
type Result struct {
	Structured json.RawMessage
	Text       string
}

// Session is one bounded, multi-turn interaction with a reasoning agent.
//
//go:generate mockgen -destination=../mocks/mock_session.go -package=mocks . Session
type Session interface {
	Run(ctx context.Context, prompt string, opts Options) (*Result, error)
}

// Error is a terminal session failure as reported by the agent. RequestID
// carries the provider correlation identifier when one was given.
type Error struct {
	Subtype   string
	RequestID string
	Message   string
}

func (e *Error) Error() string {
	return e.Message
}

func newRunError(subtype, requestID string, reported []string) *Error {
	msg := strings.Join(reported, "; ")
	if msg == "" {
		msg = fmt.Sprintf("agent run failed with subtype %s", subtype)
	}
	return &Error{Subtype: subtype, RequestID: requestID, Message: msg}
}

// extractJSONObject pulls a JSON object out of agent prose. Agents asked for
// structured output tend to wrap it in a ```json fence or surround it with
// commentary; both are tolerated. Returns nil when no object parses.
func extractJSONObject(text string) json.RawMessage {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if fenced := insideFence(trimmed); fenced != "" {
		trimmed = fenced
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil
	}

	candidate := trimmed[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil
	}
	return json.RawMessage(candidate)
}

// insideFence returns the content of a leading ```json / ``` fence, or "".
func insideFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return ""
	}
	idx := strings.Index(s, "\n")
	if idx < 0 {
		return ""
	}
	inner := s[idx+1:]
	if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
		inner = inner[:lastFence]
	}
	return strings.TrimSpace(inner)
}
