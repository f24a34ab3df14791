package agent

import (
	"encoding/json"
	"strings"
)

// eventKind is the closed set of message kinds the driver recognizes in the
// agent's stream. Anything else is ignored rather than probed field by field.
type eventKind int

const (
	eventIgnored eventKind = iota
	eventAssistant
	eventResultSuccess
	eventResultFailure
)

// event is one decoded stream message, reduced to the fields the driver
// acts on.
type event struct {
	Kind       eventKind
	Text       string
	Subtype    string
	RequestID  string
	Errors     []string
	Structured json.RawMessage
}

// rawStreamMessage mirrors the NDJSON wire shape of the agent CLI's
// stream-json output. Assistant content arrives either as a plain string or
// as an array of typed blocks depending on the CLI version.
type rawStreamMessage struct {
	Type             string          `json:"type"`
	Subtype          string          `json:"subtype,omitempty"`
	IsError          bool            `json:"is_error,omitempty"`
	Result           string          `json:"result,omitempty"`
	Errors           []string        `json:"errors,omitempty"`
	RequestID        string          `json:"request_id,omitempty"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
	Message          struct {
		Content json.RawMessage `json:"content,omitempty"`
	} `json:"message,omitempty"`
}

// decodeEvent parses one stream line into a tagged event. Malformed lines
// decode to an ignored event; the stream must stay consumable even when the
// agent interleaves diagnostics.
func decodeEvent(line []byte) event {
	var raw rawStreamMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return event{Kind: eventIgnored}
	}

	switch raw.Type {
	case "assistant":
		return event{Kind: eventAssistant, Text: contentText(raw.Message.Content)}
	case "result":
		ev := event{
			Text:       raw.Result,
			Subtype:    raw.Subtype,
			RequestID:  raw.RequestID,
			Errors:     raw.Errors,
			Structured: raw.StructuredOutput,
		}
		if raw.Subtype == "success" && !raw.IsError {
			ev.Kind = eventResultSuccess
		} else {
			ev.Kind = eventResultFailure
		}
		return ev
	default:
		return event{Kind: eventIgnored}
	}
}

// contentText flattens assistant message content into plain text.
func contentText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(content, &plain); err == nil {
		return plain
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	}
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
