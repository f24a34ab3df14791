package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/pr-warden/internal/agent"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/gitutil"
	"github.com/sevigo/pr-warden/internal/logger"
	"github.com/sevigo/pr-warden/internal/prompt"
	"github.com/sevigo/pr-warden/internal/review"
)

var (
	dryRun  bool
	verbose bool
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Run an agent review for a GitHub pull request",
	Long: `Run an agent review for a GitHub pull request.

The review command fetches the PR, checks out its head commit, drives the
configured agent backend, and posts the result back to GitHub. With --dry-run
the review is rendered locally instead of being published.

Examples:
  pr-warden review https://github.com/owner/repo/pull/123
  pr-warden review --dry-run https://github.com/owner/repo/pull/123`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render the review locally instead of publishing it")
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	prURL := args[0]
	overallStart := time.Now()

	titleColor.Println("PR-Warden review")
	dimColor.Printf("   Target: %s\n\n", prURL)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := cfg.Logger
	if !verbose {
		logCfg.Level = "error"
	}
	log := logger.New(logCfg, nil)

	owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(prURL)
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}

	token := githubToken
	if token == "" {
		token = viper.GetString("GITHUB_TOKEN")
	}
	if token == "" {
		token = cfg.GitHub.Token
	}
	if token == "" {
		return errors.New("GitHub token is not set\n\nTip: pass --github-token or set PW_GITHUB_TOKEN")
	}

	ghClient := github.NewPATClient(ctx, token, log)

	fmt.Println("Fetching pull request...")
	pr, err := ghClient.GetPullRequest(ctx, owner, repoName, prNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch PR: %w\n\nTip: check that the PR exists and your token has access", err)
	}

	event := &core.GitHubEvent{
		RepoOwner:    owner,
		RepoName:     repoName,
		RepoFullName: fmt.Sprintf("%s/%s", owner, repoName),
		RepoCloneURL: pr.GetBase().GetRepo().GetCloneURL(),
		PRNumber:     prNumber,
		PRTitle:      pr.GetTitle(),
		PRBody:       pr.GetBody(),
		HeadSHA:      pr.GetHead().GetSHA(),
	}
	dimColor.Printf("   PR #%d: %s (%s)\n", prNumber, pr.GetTitle(), shortSHA(event.HeadSHA))

	fmt.Println("Checking out head commit...")
	cloner := gitutil.NewCloner(log)
	repoPath, cleanup, err := cloner.CloneAndCheckoutTemp(ctx, event.RepoCloneURL, event.HeadSHA, token)
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	defer cleanup()

	repoCfg, err := config.LoadRepoConfig(repoPath)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		warnColor.Printf("   ignoring unreadable .pr-warden.yml: %v\n", err)
		repoCfg = core.DefaultRepoConfig()
	}

	session, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	prompts, err := prompt.NewManager()
	if err != nil {
		return fmt.Errorf("failed to load prompt templates: %w", err)
	}

	publisher := github.NewPublisher(ghClient, log)
	runner := review.NewRunner(ghClient, publisher, session, prompts, cfg, log)

	if dryRun {
		var result *core.Review
		err := runTask(fmt.Sprintf("Reviewing with %s", cfg.Agent.Model), func() error {
			var produceErr error
			result, produceErr = runner.Produce(ctx, event, repoPath, repoCfg)
			return produceErr
		})
		if err != nil {
			return printFailure(err)
		}
		dimColor.Printf("\nTotal time: %s\n", time.Since(overallStart).Round(time.Second))
		return printReview(result)
	}

	var res *review.RunResult
	err = runTask(fmt.Sprintf("Reviewing with %s", cfg.Agent.Model), func() error {
		var runErr error
		res, runErr = runner.Run(ctx, event, repoPath, repoCfg)
		return runErr
	})
	if err != nil {
		return err
	}

	dimColor.Printf("\nTotal time: %s\n", time.Since(overallStart).Round(time.Second))

	if res.Failure != nil {
		warnColor.Printf("Review failed (%s); details were posted on the PR.\n", res.Failure.Kind)
		return nil
	}

	successColor.Printf("Review published (%s): %s\n", res.Outcome, prURL)
	return nil
}

func newSession(cfg *config.Config, log *slog.Logger) (agent.Session, error) {
	switch cfg.Agent.Backend {
	case "claude-cli":
		return agent.NewCLISession(cfg.Agent.Command, log), nil
	case "api":
		return agent.NewAPISession(cfg.Agent.APIKey, log), nil
	default:
		return nil, fmt.Errorf("unsupported agent backend: %q", cfg.Agent.Backend)
	}
}

func printFailure(err error) error {
	cat := review.Classify(err)
	errorColor.Printf("\nReview failed (%s)\n", cat.Kind)
	fmt.Println(cat.Message)
	if cat.RequestID != "" {
		dimColor.Printf("Request ID: %s\n", cat.RequestID)
	}
	return err
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// printReview renders the review as markdown in the terminal.
func printReview(r *core.Review) error {
	if r == nil {
		warnColor.Println("\nNo review could be generated for this pull request.")
		return nil
	}

	out, err := glamour.Render(reviewMarkdown(r), "dark")
	if err != nil {
		// Fall back to plain markdown when the terminal renderer chokes.
		fmt.Println(reviewMarkdown(r))
		return nil
	}
	fmt.Print(out)
	return nil
}

func reviewMarkdown(r *core.Review) string {
	var sb strings.Builder
	sb.WriteString("# Review\n\n")
	if r.Summary != "" {
		sb.WriteString(r.Summary)
		sb.WriteString("\n")
	}
	if len(r.Comments) > 0 {
		fmt.Fprintf(&sb, "\n## Findings (%d)\n", len(r.Comments))
		for _, c := range r.Comments {
			sb.WriteString("\n---\n\n")
			if c.Severity != "" {
				fmt.Fprintf(&sb, "**%s** ", c.Severity)
			}
			fmt.Fprintf(&sb, "`%s:%d`\n\n%s\n", c.Path, c.Line, c.Body)
		}
	}
	return sb.String()
}
