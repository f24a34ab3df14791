package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/pr-warden/internal/core"
)

func validEvent() *core.GitHubEvent {
	return &core.GitHubEvent{
		RepoOwner:      "sevigo",
		RepoName:       "demo",
		RepoFullName:   "sevigo/demo",
		RepoCloneURL:   "https://github.com/sevigo/demo.git",
		PRNumber:       1,
		InstallationID: 42,
	}
}

func TestValidateEvent(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.GitHubEvent)
		wantErr string
	}{
		{
			name:   "valid event",
			mutate: func(*core.GitHubEvent) {},
		},
		{
			name:    "missing owner",
			mutate:  func(e *core.GitHubEvent) { e.RepoOwner = "" },
			wantErr: "repository owner",
		},
		{
			name:    "missing name",
			mutate:  func(e *core.GitHubEvent) { e.RepoName = "" },
			wantErr: "repository name",
		},
		{
			name:    "missing clone URL",
			mutate:  func(e *core.GitHubEvent) { e.RepoCloneURL = "" },
			wantErr: "clone URL",
		},
		{
			name:    "non-positive PR number",
			mutate:  func(e *core.GitHubEvent) { e.PRNumber = 0 },
			wantErr: "pull request number",
		},
		{
			name:    "missing installation",
			mutate:  func(e *core.GitHubEvent) { e.InstallationID = 0 },
			wantErr: "installation ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := validEvent()
			tt.mutate(event)

			err := validateEvent(event)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateEventNil(t *testing.T) {
	assert.ErrorContains(t, validateEvent(nil), "event cannot be nil")
}
