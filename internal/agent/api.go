package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const apiMaxTokens = 8192

// APISession is the lower-autonomy backend: one Messages call against the
// Anthropic API, no tool access, no extra turns. It exists for environments
// where running an agent CLI is not an option.
type APISession struct {
	client anthropic.Client
	logger *slog.Logger
}

// NewAPISession creates a single-call session backend.
func NewAPISession(apiKey string, logger *slog.Logger) *APISession {
	if logger == nil {
		logger = slog.Default()
	}
	return &APISession{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		logger: logger,
	}
}

// Run issues one completion request and reduces the response to a Result.
// MaxTurns and the tool policy are inert here: the backend never executes
// tools, so there is nothing to approve or bound.
func (s *APISession) Run(ctx context.Context, prompt string, opts Options) (*Result, error) {
	s.logger.Debug("calling completion API", "model", opts.Model)

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		MaxTokens: apiMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from completion API")
	}

	var text string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	res := &Result{Text: text}
	if opts.Structured {
		res.Structured = extractJSONObject(text)
	}
	return res, nil
}
