package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
)

// TruncationMarker is appended when the diff exceeds the character budget.
const TruncationMarker = "\n...(truncated)..."

// NoInstruction is the neutral marker folded into the prompt when no
// follow-up instruction was found in the PR conversation.
const NoInstruction = "No additional instructions."

// Context is everything about the pull request that goes into the prompt.
type Context struct {
	Title       string
	Body        string
	Diff        string
	Instruction string
}

// Fetcher gathers PR context from the hosting platform and bounds it.
type Fetcher struct {
	client       github.Client
	maxDiffChars int
	logger       *slog.Logger
}

// NewFetcher creates a context fetcher with the given diff character budget.
func NewFetcher(client github.Client, maxDiffChars int, logger *slog.Logger) *Fetcher {
	return &Fetcher{client: client, maxDiffChars: maxDiffChars, logger: logger}
}

// Fetch retrieves the unified diff and the latest follow-up instruction for
// the pull request. Title and body come from the event, which the caller has
// already populated from the webhook payload or a PR lookup.
func (f *Fetcher) Fetch(ctx context.Context, event *core.GitHubEvent) (*Context, error) {
	diff, err := f.client.GetPullRequestDiff(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR diff: %w", err)
	}

	truncated := Truncate(diff, f.maxDiffChars)
	if len(truncated) != len(diff) {
		f.logger.Info("diff truncated", "repo", event.RepoFullName, "pr", event.PRNumber,
			"original_chars", len(diff), "budget", f.maxDiffChars)
	}

	comments, err := f.client.ListIssueComments(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list PR comments: %w", err)
	}

	return &Context{
		Title:       event.PRTitle,
		Body:        event.PRBody,
		Diff:        truncated,
		Instruction: ExtractInstruction(comments),
	}, nil
}

// Truncate clips s to at most max bytes. Short input is returned unchanged;
// clipped input ends on a rune boundary, so a multi-byte rune straddling the
// budget is dropped rather than split, followed by the truncation marker.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + TruncationMarker
}

// ExtractInstruction scans the PR conversation, most recent comment first,
// for the last occurrence of the mention token. Everything after the token
// in that comment becomes the extra instruction; absence yields the neutral
// no-instruction marker.
func ExtractInstruction(comments []github.IssueComment) string {
	for i := len(comments) - 1; i >= 0; i-- {
		body := comments[i].Body
		idx := strings.LastIndex(body, core.MentionToken)
		if idx < 0 {
			continue
		}
		instruction := strings.TrimSpace(body[idx+len(core.MentionToken):])
		if instruction == "" {
			continue
		}
		return instruction
	}
	return NoInstruction
}
