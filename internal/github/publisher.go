package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// PlaceholderComment is posted when no review could be produced at all.
const PlaceholderComment = "PR-Warden ran but no review could be generated for this pull request."

// Outcome names the publishing strategy that was actually executed.
type Outcome string

const (
	OutcomeInlineReview   Outcome = "inline_review"
	OutcomeSummaryComment Outcome = "summary_comment"
	OutcomePlaceholder    Outcome = "placeholder"
)

// Publisher decides and executes the publishing strategy for a canonical
// review. Exactly one network write is issued per Publish call: either the
// whole inline batch as one atomic review, or a single conversation comment.
type Publisher struct {
	client Client
	logger *slog.Logger
}

// NewPublisher creates a Publisher on top of the GitHub client.
func NewPublisher(client Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish posts the review to the pull request.
//
// Decision order:
//  1. No review produced: a fixed placeholder comment.
//  2. Inline comments present: one review object with the summary as body
//     and every comment that lands inside the diff attached inline. Comments
//     referencing lines outside the diff are moved into the review body as
//     general findings. If none survive, the whole review degrades to a
//     single plain comment.
//  3. Summary only: a single plain conversation comment.
//
// A platform rejection of the review call is not handled here; it propagates
// to the caller's failure classification.
func (p *Publisher) Publish(ctx context.Context, event *core.GitHubEvent, review *core.Review) (Outcome, error) {
	if review.Empty() {
		p.logger.Info("no review produced, posting placeholder", "repo", event.RepoFullName, "pr", event.PRNumber)
		if err := p.client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber, PlaceholderComment); err != nil {
			return OutcomePlaceholder, fmt.Errorf("failed to post placeholder comment: %w", err)
		}
		return OutcomePlaceholder, nil
	}

	if len(review.Comments) > 0 {
		return p.publishInline(ctx, event, review)
	}

	if err := p.client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber, review.Summary); err != nil {
		return OutcomeSummaryComment, fmt.Errorf("failed to post summary comment: %w", err)
	}
	return OutcomeSummaryComment, nil
}

func (p *Publisher) publishInline(ctx context.Context, event *core.GitHubEvent, review *core.Review) (Outcome, error) {
	files, err := p.client.GetChangedFiles(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return OutcomeInlineReview, fmt.Errorf("failed to list changed files: %w", err)
	}
	validByFile := ValidLinesByFile(files, p.logger)

	var drafts []DraftReviewComment
	var offDiff []core.ReviewComment

	for _, c := range review.Comments {
		cleanPath := strings.TrimPrefix(c.Path, "./")
		valid, known := validByFile[cleanPath]
		if !known || !valid.Contains(c.Line, c.Side) {
			p.logger.Warn("moving comment to general findings (off-diff)",
				"path", c.Path, "line", c.Line, "side", c.Side)
			offDiff = append(offDiff, c)
			continue
		}

		side := string(c.Side)
		if side == "" {
			side = string(core.SideRight)
		}
		drafts = append(drafts, DraftReviewComment{
			Path: cleanPath,
			Line: c.Line,
			Side: side,
			Body: formatCommentBody(c),
		})
	}

	body := reviewBody(review.Summary, offDiff)

	if len(drafts) == 0 {
		p.logger.Info("no comments landed inside the diff, posting plain comment",
			"repo", event.RepoFullName, "pr", event.PRNumber)
		if body == "" {
			body = PlaceholderComment
		}
		if err := p.client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body); err != nil {
			return OutcomeSummaryComment, fmt.Errorf("failed to post summary comment: %w", err)
		}
		return OutcomeSummaryComment, nil
	}

	if err := p.client.CreateReview(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body, drafts); err != nil {
		return OutcomeInlineReview, fmt.Errorf("failed to create pull request review: %w", err)
	}
	return OutcomeInlineReview, nil
}

// formatCommentBody prefixes the severity label in parentheses when present.
func formatCommentBody(c core.ReviewComment) string {
	if c.Severity == "" {
		return c.Body
	}
	return fmt.Sprintf("(%s) %s", c.Severity, c.Body)
}

// reviewBody appends off-diff findings to the summary so they are not lost
// when their lines cannot carry an inline comment.
func reviewBody(summary string, offDiff []core.ReviewComment) string {
	if len(offDiff) == 0 {
		return summary
	}

	var sb strings.Builder
	sb.WriteString(summary)
	if summary != "" {
		sb.WriteString("\n\n")
	}
	sb.WriteString("### Findings outside the diff\n")
	for _, c := range offDiff {
		fmt.Fprintf(&sb, "\n- `%s:%d` %s", c.Path, c.Line, formatCommentBody(c))
	}
	return sb.String()
}
