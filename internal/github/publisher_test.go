package github_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	gh "github.com/sevigo/pr-warden/internal/github"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/mocks"
)

const testPatch = "@@ -1,3 +1,4 @@\n" +
	" package main\n" +
	"+import \"fmt\"\n" +
	" \n" +
	" func main() {}"

func testEvent() *core.GitHubEvent {
	return &core.GitHubEvent{
		RepoOwner:    "sevigo",
		RepoName:     "demo",
		RepoFullName: "sevigo/demo",
		PRNumber:     7,
	}
}

func newPublisher(t *testing.T) (*gh.Publisher, *mocks.MockClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	return gh.NewPublisher(client, slog.Default()), client
}

func TestPublishNilReviewPostsPlaceholder(t *testing.T) {
	pub, client := newPublisher(t)

	client.EXPECT().
		CreateComment(gomock.Any(), "sevigo", "demo", 7, gh.PlaceholderComment).
		Return(nil)

	outcome, err := pub.Publish(context.Background(), testEvent(), nil)
	require.NoError(t, err)
	assert.Equal(t, gh.OutcomePlaceholder, outcome)
}

func TestPublishSummaryOnlyPostsPlainComment(t *testing.T) {
	pub, client := newPublisher(t)

	client.EXPECT().
		CreateComment(gomock.Any(), "sevigo", "demo", 7, "general review text").
		Return(nil)

	review := &core.Review{Summary: "general review text"}
	outcome, err := pub.Publish(context.Background(), testEvent(), review)
	require.NoError(t, err)
	assert.Equal(t, gh.OutcomeSummaryComment, outcome)
}

func TestPublishInlineReviewSingleAtomicCall(t *testing.T) {
	pub, client := newPublisher(t)

	client.EXPECT().
		GetChangedFiles(gomock.Any(), "sevigo", "demo", 7).
		Return([]gh.ChangedFile{{Filename: "main.go", Patch: testPatch}}, nil)

	var captured []gh.DraftReviewComment
	client.EXPECT().
		CreateReview(gomock.Any(), "sevigo", "demo", 7, "overall summary", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int, _ string, comments []gh.DraftReviewComment) error {
			captured = comments
			return nil
		}).
		Times(1)

	review := &core.Review{
		Summary: "overall summary",
		Comments: []core.ReviewComment{
			{Path: "main.go", Line: 2, Severity: "High", Body: "unused import"},
			{Path: "main.go", Line: 4, Body: "empty main"},
		},
	}

	outcome, err := pub.Publish(context.Background(), testEvent(), review)
	require.NoError(t, err)
	assert.Equal(t, gh.OutcomeInlineReview, outcome)

	require.Len(t, captured, 2)
	assert.Equal(t, "(High) unused import", captured[0].Body)
	assert.Equal(t, "RIGHT", captured[0].Side)
	assert.Equal(t, "empty main", captured[1].Body)
}

func TestPublishAllCommentsOffDiffFallsBackToPlainComment(t *testing.T) {
	pub, client := newPublisher(t)

	client.EXPECT().
		GetChangedFiles(gomock.Any(), "sevigo", "demo", 7).
		Return([]gh.ChangedFile{{Filename: "main.go", Patch: testPatch}}, nil)

	var body string
	client.EXPECT().
		CreateComment(gomock.Any(), "sevigo", "demo", 7, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int, b string) error {
			body = b
			return nil
		})

	review := &core.Review{
		Summary: "summary stays",
		Comments: []core.ReviewComment{
			{Path: "main.go", Line: 999, Body: "way off the diff"},
			{Path: "other.go", Line: 1, Body: "file not in PR"},
		},
	}

	outcome, err := pub.Publish(context.Background(), testEvent(), review)
	require.NoError(t, err)
	assert.Equal(t, gh.OutcomeSummaryComment, outcome)
	assert.Contains(t, body, "summary stays")
	assert.Contains(t, body, "`main.go:999`")
	assert.Contains(t, body, "`other.go:1`")
}

func TestPublishReviewRejectionPropagates(t *testing.T) {
	pub, client := newPublisher(t)

	client.EXPECT().
		GetChangedFiles(gomock.Any(), "sevigo", "demo", 7).
		Return([]gh.ChangedFile{{Filename: "main.go", Patch: testPatch}}, nil)
	client.EXPECT().
		CreateReview(gomock.Any(), "sevigo", "demo", 7, gomock.Any(), gomock.Any()).
		Return(errors.New("422 Unprocessable Entity"))

	review := &core.Review{
		Comments: []core.ReviewComment{{Path: "main.go", Line: 2, Body: "x"}},
	}

	_, err := pub.Publish(context.Background(), testEvent(), review)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create pull request review")
}
