package review_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/pr-warden/internal/agent"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/mocks"
	"github.com/sevigo/pr-warden/internal/prompt"
	"github.com/sevigo/pr-warden/internal/review"
)

func runnerFixture(t *testing.T) (*review.Runner, *mocks.MockClient, *mocks.MockSession) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	session := mocks.NewMockSession(ctrl)

	prompts, err := prompt.NewManager()
	require.NoError(t, err)

	cfg := &config.Config{
		Agent: config.AgentConfig{
			Backend:      "claude-cli",
			Model:        "claude-sonnet-4-20250514",
			MaxTurns:     25,
			Permission:   "acceptEdits",
			AllowedTools: []string{"Read", "Grep"},
		},
		Review: config.ReviewConfig{MaxDiffChars: 120_000},
	}

	logger := slog.Default()
	publisher := github.NewPublisher(client, logger)
	return review.NewRunner(client, publisher, session, prompts, cfg, logger), client, session
}

func runnerEvent() *core.GitHubEvent {
	return &core.GitHubEvent{
		RepoOwner: "sevigo", RepoName: "demo", RepoFullName: "sevigo/demo",
		PRNumber: 42, PRTitle: "Add retry", PRBody: "with backoff",
	}
}

func expectContextFetch(client *mocks.MockClient) {
	client.EXPECT().
		GetPullRequestDiff(gomock.Any(), "sevigo", "demo", 42).
		Return("@@ -1,1 +1,1 @@\n-a\n+b", nil)
	client.EXPECT().
		ListIssueComments(gomock.Any(), "sevigo", "demo", 42).
		Return(nil, nil)
}

func TestRunnerHappyPathSummaryOnly(t *testing.T) {
	runner, client, session := runnerFixture(t)
	expectContextFetch(client)

	var seenPrompt string
	var seenOpts agent.Options
	session.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p string, opts agent.Options) (*agent.Result, error) {
			seenPrompt = p
			seenOpts = opts
			return &agent.Result{Text: "clean change, nothing to flag"}, nil
		})

	client.EXPECT().
		CreateComment(gomock.Any(), "sevigo", "demo", 42, "clean change, nothing to flag").
		Return(nil)

	res, err := runner.Run(context.Background(), runnerEvent(), "/tmp/checkout", nil)
	require.NoError(t, err)

	assert.Equal(t, github.OutcomeSummaryComment, res.Outcome)
	assert.Nil(t, res.Failure)
	require.NotNil(t, res.Review)
	assert.Equal(t, "clean change, nothing to flag", res.Review.Summary)

	assert.Contains(t, seenPrompt, "Add retry")
	assert.Contains(t, seenPrompt, "No additional instructions.")
	assert.True(t, seenOpts.Structured)
	assert.Equal(t, "/tmp/checkout", seenOpts.WorkDir)
	assert.Equal(t, []string{"Read", "Grep"}, seenOpts.Policy.Tools())
}

func TestRunnerRepoConfigOverridesTools(t *testing.T) {
	runner, client, session := runnerFixture(t)
	expectContextFetch(client)

	var seenOpts agent.Options
	session.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p string, opts agent.Options) (*agent.Result, error) {
			seenOpts = opts
			assert.Contains(t, p, "never approve vendored changes")
			return &agent.Result{Text: "ok"}, nil
		})
	client.EXPECT().CreateComment(gomock.Any(), "sevigo", "demo", 42, "ok").Return(nil)

	repoCfg := &core.RepoConfig{
		CustomInstructions: []string{"never approve vendored changes"},
		AllowedTools:       []string{"Read"},
	}
	_, err := runner.Run(context.Background(), runnerEvent(), "", repoCfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Read"}, seenOpts.Policy.Tools())
}

func TestRunnerAgentFailurePostsClassifiedComment(t *testing.T) {
	runner, client, session := runnerFixture(t)
	expectContextFetch(client)

	session.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &agent.Error{
			Subtype:   "error_during_execution",
			RequestID: "req_9",
			Message:   "Your credit balance is too low",
		})

	var body string
	client.EXPECT().
		CreateComment(gomock.Any(), "sevigo", "demo", 42, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int, b string) error {
			body = b
			return nil
		})

	res, err := runner.Run(context.Background(), runnerEvent(), "", nil)
	require.NoError(t, err, "pipeline failures must not surface as errors")

	assert.Equal(t, review.OutcomeFailureComment, res.Outcome)
	require.NotNil(t, res.Failure)
	assert.Equal(t, review.FailureCreditExhausted, res.Failure.Kind)
	assert.Contains(t, body, "credit balance is exhausted")
	assert.Contains(t, body, "Request ID: `req_9`")
}

func TestRunnerFetchFailurePostsGenericComment(t *testing.T) {
	runner, client, session := runnerFixture(t)

	client.EXPECT().
		GetPullRequestDiff(gomock.Any(), "sevigo", "demo", 42).
		Return("", errors.New("503 Service Unavailable"))
	session.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	client.EXPECT().
		CreateComment(gomock.Any(), "sevigo", "demo", 42, gomock.Any()).
		Return(nil)

	res, err := runner.Run(context.Background(), runnerEvent(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, review.OutcomeFailureComment, res.Outcome)
	assert.Equal(t, review.FailureGeneric, res.Failure.Kind)
}

func TestRunnerErrorsOnlyWhenFailureCommentItselfFails(t *testing.T) {
	runner, client, session := runnerFixture(t)
	expectContextFetch(client)

	session.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("agent crashed"))
	client.EXPECT().
		CreateComment(gomock.Any(), "sevigo", "demo", 42, gomock.Any()).
		Return(errors.New("403 Forbidden"))

	res, err := runner.Run(context.Background(), runnerEvent(), "", nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "failed to post failure comment")
	assert.Contains(t, err.Error(), "agent crashed")
}

func TestRunnerNoUsableOutputPostsPlaceholder(t *testing.T) {
	runner, client, session := runnerFixture(t)
	expectContextFetch(client)

	session.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&agent.Result{}, nil)
	client.EXPECT().
		CreateComment(gomock.Any(), "sevigo", "demo", 42, github.PlaceholderComment).
		Return(nil)

	res, err := runner.Run(context.Background(), runnerEvent(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, github.OutcomePlaceholder, res.Outcome)
	assert.Nil(t, res.Review)
}
