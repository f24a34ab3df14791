package core

import (
	"context"
	"time"
)

// JobDispatcher defines the contract for a system that can accept and queue
// background jobs for asynchronous processing. This interface decouples the
// event source (e.g., a webhook handler) from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch accepts a GitHubEvent and queues it for processing.
	// It returns an error if the job cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, event *GitHubEvent) error

	// Stop shuts the dispatcher down, waiting for in-flight jobs to finish.
	Stop()
}

// Job represents a single, executable unit of work that can be processed by
// the application's job dispatcher. Each job is triggered by a GitHubEvent.
type Job interface {
	Run(ctx context.Context, event *GitHubEvent) error
}

// ReviewRecord is a published review as persisted in the audit log.
// The review pipeline itself is stateless; records are written after
// publication and never read back into a run.
type ReviewRecord struct {
	ID           int64
	RepoFullName string
	PRNumber     int
	HeadSHA      string
	Summary      string
	CommentCount int
	Outcome      string
	CreatedAt    time.Time
}
