package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/pr-warden/internal/agent"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/gitutil"
	"github.com/sevigo/pr-warden/internal/prompt"
	"github.com/sevigo/pr-warden/internal/review"
	"github.com/sevigo/pr-warden/internal/storage"
)

const cloneTimeout = 2 * time.Minute

// clientFactory mints an installation-scoped GitHub client and its token.
type clientFactory func(ctx context.Context, cfg *config.Config, installationID int64, logger *slog.Logger) (github.Client, string, error)

// ReviewJob runs one agent review per dispatched webhook event: it
// authenticates as the App installation, reports progress through a check
// run, checks out the head commit, and hands over to the review pipeline.
type ReviewJob struct {
	cfg       *config.Config
	session   agent.Session
	prompts   *prompt.Manager
	store     storage.Store // optional audit log, may be nil
	logger    *slog.Logger
	newClient clientFactory
}

// NewReviewJob creates a ReviewJob. store may be nil when no audit database
// is configured.
func NewReviewJob(cfg *config.Config, session agent.Session, prompts *prompt.Manager, store storage.Store, logger *slog.Logger) core.Job {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if session == nil {
		panic("agent session cannot be nil")
	}
	if prompts == nil {
		panic("prompt manager cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{
		cfg:       cfg,
		session:   session,
		prompts:   prompts,
		store:     store,
		logger:    logger,
		newClient: github.CreateInstallationClient,
	}
}

// Run executes the review job for a single GitHub event.
func (j *ReviewJob) Run(ctx context.Context, event *core.GitHubEvent) error {
	if err := validateEvent(event); err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	j.logger.Info("starting review job", "repo", event.RepoFullName, "pr", event.PRNumber)

	ghClient, token, err := j.newClient(ctx, j.cfg, event.InstallationID, j.logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	pr, err := ghClient.GetPullRequest(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to get PR details: %w", err)
	}
	if pr.GetHead() == nil || pr.GetHead().GetSHA() == "" {
		return fmt.Errorf("PR %d has no valid head SHA", event.PRNumber)
	}
	event.HeadSHA = pr.GetHead().GetSHA()

	statusUpdater := github.NewStatusUpdater(ghClient)
	checkRunID, err := statusUpdater.InProgress(ctx, event, "Reviewing", "Agent review in progress...")
	if err != nil {
		return fmt.Errorf("failed to set in-progress status: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, cloneTimeout)
	defer cancel()

	cloner := gitutil.NewCloner(j.logger)
	repoPath, cleanup, err := cloner.CloneAndCheckoutTemp(cloneCtx, event.RepoCloneURL, event.HeadSHA, token)
	if err != nil {
		j.concludeNeutral(ctx, statusUpdater, event, checkRunID, "Failed to clone repository")
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	defer cleanup()

	repoCfg := j.loadRepoConfig(repoPath)

	publisher := github.NewPublisher(ghClient, j.logger)
	runner := review.NewRunner(ghClient, publisher, j.session, j.prompts, j.cfg, j.logger)

	res, err := runner.Run(ctx, event, repoPath, repoCfg)
	if err != nil {
		j.concludeNeutral(ctx, statusUpdater, event, checkRunID, "Review could not be published")
		return fmt.Errorf("review run failed: %w", err)
	}

	if res.Failure != nil {
		j.concludeNeutral(ctx, statusUpdater, event, checkRunID,
			fmt.Sprintf("Review failed (%s); details posted on the PR", res.Failure.Kind))
	} else {
		if err := statusUpdater.Completed(ctx, event, checkRunID, "success", "Review Complete", "Review posted on the pull request"); err != nil {
			j.logger.Error("failed to update completion status", "error", err)
		}
	}

	j.saveRecord(ctx, event, res)

	j.logger.Info("review job finished",
		"repo", event.RepoFullName, "pr", event.PRNumber, "outcome", res.Outcome)
	return nil
}

// loadRepoConfig reads the repository's own settings; a missing or broken
// file degrades to the defaults.
func (j *ReviewJob) loadRepoConfig(repoPath string) *core.RepoConfig {
	repoCfg, err := config.LoadRepoConfig(repoPath)
	switch {
	case err == nil:
		return repoCfg
	case errors.Is(err, config.ErrConfigNotFound):
		return core.DefaultRepoConfig()
	default:
		j.logger.Warn("ignoring unreadable .pr-warden.yml", "error", err)
		return core.DefaultRepoConfig()
	}
}

func (j *ReviewJob) saveRecord(ctx context.Context, event *core.GitHubEvent, res *review.RunResult) {
	if j.store == nil {
		return
	}

	record := &core.ReviewRecord{
		RepoFullName: event.RepoFullName,
		PRNumber:     event.PRNumber,
		HeadSHA:      event.HeadSHA,
		Outcome:      string(res.Outcome),
	}
	if res.Review != nil {
		record.Summary = res.Review.Summary
		record.CommentCount = len(res.Review.Comments)
	}

	if err := j.store.SaveReview(ctx, record); err != nil {
		j.logger.Error("failed to save review record", "error", err)
	}
}

// concludeNeutral finishes the check run for a failed review. The conclusion
// is "neutral", never "failure": a broken review bot must not block merges.
func (j *ReviewJob) concludeNeutral(ctx context.Context, statusUpdater github.StatusUpdater, event *core.GitHubEvent, checkRunID int64, message string) {
	if err := statusUpdater.Completed(ctx, event, checkRunID, "neutral", "Review Failed", message); err != nil {
		j.logger.Error("failed to update failure status", "error", err)
	}
}
