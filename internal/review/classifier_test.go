package review_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/pr-warden/internal/agent"
	"github.com/sevigo/pr-warden/internal/review"
)

func TestClassifyKnownCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want review.FailureKind
	}{
		{
			name: "credit exhaustion",
			err:  errors.New(`API Error: 400 {"type":"invalid_request_error","message":"Your credit balance is too low to access the Anthropic API."}`),
			want: review.FailureCreditExhausted,
		},
		{
			name: "credit exhaustion case insensitive",
			err:  errors.New("CREDIT BALANCE IS TOO LOW"),
			want: review.FailureCreditExhausted,
		},
		{
			name: "model not found",
			err:  errors.New(`model: claude-nonexistent-9 {"type":"not_found_error"} not_found`),
			want: review.FailureModelNotFound,
		},
		{
			name: "model substring alone is not enough",
			err:  errors.New("model: something else went wrong"),
			want: review.FailureGeneric,
		},
		{
			name: "not_found alone is not enough",
			err:  errors.New("resource not_found"),
			want: review.FailureGeneric,
		},
		{
			name: "anything else",
			err:  errors.New("connection reset by peer"),
			want: review.FailureGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := review.Classify(tt.err)
			assert.Equal(t, tt.want, cat.Kind)
			assert.Equal(t, tt.err.Error(), cat.Message)
		})
	}
}

func TestClassifyNilError(t *testing.T) {
	cat := review.Classify(nil)
	assert.Equal(t, review.FailureGeneric, cat.Kind)
	assert.Empty(t, cat.Message)
}

func TestClassifyCarriesRequestIDThroughWrapping(t *testing.T) {
	runErr := &agent.Error{
		Subtype:   "error_during_execution",
		RequestID: "req_abc123",
		Message:   "Your credit balance is too low",
	}
	wrapped := fmt.Errorf("agent session failed: %w", runErr)

	cat := review.Classify(wrapped)
	assert.Equal(t, review.FailureCreditExhausted, cat.Kind)
	assert.Equal(t, "req_abc123", cat.RequestID)
}

func TestFailureCommentContents(t *testing.T) {
	tests := []struct {
		name     string
		cat      review.FailureCategory
		contains []string
	}{
		{
			name: "credit exhausted",
			cat: review.FailureCategory{
				Kind:      review.FailureCreditExhausted,
				RequestID: "req_1",
				Message:   "credit balance is too low",
			},
			contains: []string{"credit balance is exhausted", "> credit balance is too low", "Request ID: `req_1`"},
		},
		{
			name:     "model not found",
			cat:      review.FailureCategory{Kind: review.FailureModelNotFound, Message: "model: x not_found"},
			contains: []string{"does not exist", "`agent.model`"},
		},
		{
			name:     "generic without request id",
			cat:      review.FailureCategory{Kind: review.FailureGeneric, Message: "boom"},
			contains: []string{"unexpected error", "does not block the pull request", "> boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.cat.Comment()
			for _, want := range tt.contains {
				assert.Contains(t, body, want)
			}
			if tt.cat.RequestID == "" {
				assert.NotContains(t, body, "Request ID")
			}
		})
	}
}

func TestFailureKindString(t *testing.T) {
	assert.Equal(t, "generic", review.FailureGeneric.String())
	assert.Equal(t, "credit_exhausted", review.FailureCreditExhausted.String())
	assert.Equal(t, "model_not_found", review.FailureModelNotFound.String())
}
