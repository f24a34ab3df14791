// Package gitutil provides the repository checkout used by agent sessions.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Cloner materializes pull request head commits as local worktrees.
type Cloner struct {
	logger *slog.Logger
}

// NewCloner returns a new Cloner instance.
func NewCloner(logger *slog.Logger) *Cloner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{logger: logger}
}

// CloneAndCheckoutTemp clones the repository into a temporary directory and
// checks out the given commit. The returned cleanup function removes the
// directory; callers must defer it. An empty sha leaves the default branch
// checked out.
func (c *Cloner) CloneAndCheckoutTemp(ctx context.Context, repoURL, sha, token string) (string, func(), error) {
	if err := validateRepoURL(repoURL); err != nil {
		return "", nil, err
	}

	repoPath, err := os.MkdirTemp("", "pr-warden-repo-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() {
		if removeErr := os.RemoveAll(repoPath); removeErr != nil {
			c.logger.Error("failed to remove temp repo", "path", repoPath, "error", removeErr)
		}
	}

	c.logger.InfoContext(ctx, "cloning repository", "url", repoURL, "path", repoPath)

	opts := &git.CloneOptions{URL: repoURL}
	if token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
	}

	repo, err := git.PlainCloneContext(ctx, repoPath, false, opts)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to clone %s: %w", repoURL, err)
	}

	if sha != "" {
		if err := checkout(repo, sha); err != nil {
			cleanup()
			return "", nil, err
		}
	}

	c.logger.InfoContext(ctx, "repository checked out", "sha", sha)
	return repoPath, cleanup, nil
}

func checkout(repo *git.Repository, sha string) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	err = worktree.Checkout(&git.CheckoutOptions{
		Hash:  plumbing.NewHash(sha),
		Force: true,
	})
	if err != nil {
		return fmt.Errorf("failed to checkout %s: %w", sha, err)
	}
	return nil
}

// validateRepoURL rejects everything except HTTP(S) remotes and local paths.
// file:// is intentionally unsupported.
func validateRepoURL(repoURL string) error {
	if !strings.Contains(repoURL, "://") {
		return nil
	}
	if strings.HasPrefix(repoURL, "https://") || strings.HasPrefix(repoURL, "http://") {
		return nil
	}
	return fmt.Errorf("invalid repository URL: %s", repoURL)
}
