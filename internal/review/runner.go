package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/pr-warden/internal/agent"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/prompt"
)

// OutcomeFailureComment marks a run that ended with a classified failure
// comment instead of a review artifact.
const OutcomeFailureComment github.Outcome = "failure_comment"

// RunResult is what one review run left on the pull request: the canonical
// review and its publishing outcome on success, or the failure category when
// the pipeline broke and a failure comment was posted instead.
type RunResult struct {
	Review  *core.Review
	Outcome github.Outcome
	Failure *FailureCategory
}

// Runner executes the full review pipeline for one pull request: fetch
// context, render the prompt, drive the agent session, normalize the output,
// publish. Every pipeline error funnels into classification and a user-facing
// failure comment; Run returns an error only when even that comment could not
// be posted. A run therefore always leaves something on the PR.
type Runner struct {
	client    github.Client
	publisher *github.Publisher
	session   agent.Session
	prompts   *prompt.Manager
	cfg       *config.Config
	logger    *slog.Logger
}

// NewRunner wires the review pipeline together.
func NewRunner(
	client github.Client,
	publisher *github.Publisher,
	session agent.Session,
	prompts *prompt.Manager,
	cfg *config.Config,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		client:    client,
		publisher: publisher,
		session:   session,
		prompts:   prompts,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run reviews one pull request end to end. workDir is the head-commit
// checkout for tool-using backends; repoCfg carries the repository's own
// review settings and may be nil.
func (r *Runner) Run(ctx context.Context, event *core.GitHubEvent, workDir string, repoCfg *core.RepoConfig) (*RunResult, error) {
	if repoCfg == nil {
		repoCfg = core.DefaultRepoConfig()
	}

	review, err := r.Produce(ctx, event, workDir, repoCfg)
	if err != nil {
		return r.publishFailure(ctx, event, err)
	}

	outcome, err := r.publisher.Publish(ctx, event, review)
	if err != nil {
		return r.publishFailure(ctx, event, err)
	}

	r.logger.Info("review published",
		"repo", event.RepoFullName, "pr", event.PRNumber, "outcome", outcome)
	return &RunResult{Review: review, Outcome: outcome}, nil
}

// Produce runs the pipeline up to and including normalization without
// publishing anything. The CLI uses it for dry runs.
func (r *Runner) Produce(ctx context.Context, event *core.GitHubEvent, workDir string, repoCfg *core.RepoConfig) (*core.Review, error) {
	if repoCfg == nil {
		repoCfg = core.DefaultRepoConfig()
	}

	fetcher := NewFetcher(r.client, r.cfg.Review.MaxDiffChars, r.logger)
	prCtx, err := fetcher.Fetch(ctx, event)
	if err != nil {
		return nil, err
	}

	backend := prompt.DefaultBackend
	if r.cfg.Agent.Backend == "api" {
		backend = prompt.APIBackend
	}

	rendered, err := r.prompts.Render(prompt.ReviewPrompt, backend, prompt.ReviewData{
		Title:              prCtx.Title,
		Body:               prCtx.Body,
		Diff:               prCtx.Diff,
		Instruction:        prCtx.Instruction,
		CustomInstructions: repoCfg.CustomInstructions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render review prompt: %w", err)
	}

	tools := repoCfg.AllowedTools
	if len(tools) == 0 {
		tools = r.cfg.Agent.AllowedTools
	}

	result, err := r.session.Run(ctx, rendered, agent.Options{
		Model:      r.cfg.Agent.Model,
		MaxTurns:   r.cfg.Agent.MaxTurns,
		Permission: r.cfg.Agent.Permission,
		Policy:     agent.AllowList(tools...),
		Structured: true,
		WorkDir:    workDir,
	})
	if err != nil {
		return nil, err
	}

	return Normalize(result.Structured, result.Text), nil
}

// publishFailure converts the pipeline error into a category and posts the
// corresponding comment. Only a failure of this last write surfaces as an
// error; the original pipeline error never does.
func (r *Runner) publishFailure(ctx context.Context, event *core.GitHubEvent, cause error) (*RunResult, error) {
	cat := Classify(cause)
	r.logger.Error("review pipeline failed",
		"repo", event.RepoFullName, "pr", event.PRNumber,
		"kind", cat.Kind.String(), "request_id", cat.RequestID, "error", cause)

	if err := r.client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber, cat.Comment()); err != nil {
		return nil, fmt.Errorf("failed to post failure comment (original error: %v): %w", cause, err)
	}
	return &RunResult{Outcome: OutcomeFailureComment, Failure: &cat}, nil
}
