package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sevigo/pr-warden/internal/agent"
)

// FailureKind is the closed set of known failure categories.
type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureCreditExhausted
	FailureModelNotFound
)

// String returns the audit-log name of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureCreditExhausted:
		return "credit_exhausted"
	case FailureModelNotFound:
		return "model_not_found"
	default:
		return "generic"
	}
}

// FailureCategory is a classified pipeline failure: the category tag, the
// provider correlation identifier when one was reported, and the raw
// underlying error message.
type FailureCategory struct {
	Kind      FailureKind
	RequestID string
	Message   string
}

// Classify maps any pipeline error to a known failure category by
// case-insensitive substring inspection of its message. Classification never
// fails; anything unrecognized is Generic.
func Classify(err error) FailureCategory {
	cat := FailureCategory{Kind: FailureGeneric}
	if err == nil {
		return cat
	}
	cat.Message = err.Error()

	var runErr *agent.Error
	if errors.As(err, &runErr) {
		cat.RequestID = runErr.RequestID
	}

	msg := strings.ToLower(cat.Message)
	switch {
	case strings.Contains(msg, "credit balance is too low"):
		cat.Kind = FailureCreditExhausted
	case strings.Contains(msg, "model:") && strings.Contains(msg, "not_found"):
		cat.Kind = FailureModelNotFound
	}
	return cat
}

// Comment composes the user-facing PR comment for the failure. Each category
// gets its own explanation; all include the raw message, and the correlation
// identifier when present.
func (c FailureCategory) Comment() string {
	var sb strings.Builder

	switch c.Kind {
	case FailureCreditExhausted:
		sb.WriteString("### PR-Warden could not review this pull request\n\n")
		sb.WriteString("The API credit balance is exhausted. ")
		sb.WriteString("Top up the account, then re-trigger the review by commenting with the bot mention.\n")
	case FailureModelNotFound:
		sb.WriteString("### PR-Warden could not review this pull request\n\n")
		sb.WriteString("The configured model does not exist or is not available to this API key. ")
		sb.WriteString("Check the `agent.model` setting.\n")
	default:
		sb.WriteString("### PR-Warden hit an unexpected error\n\n")
		sb.WriteString("The review did not complete. This does not block the pull request; ")
		sb.WriteString("re-trigger the review by commenting with the bot mention.\n")
	}

	if c.Message != "" {
		fmt.Fprintf(&sb, "\n> %s\n", c.Message)
	}
	if c.RequestID != "" {
		fmt.Fprintf(&sb, "\nRequest ID: `%s`\n", c.RequestID)
	}
	return sb.String()
}
