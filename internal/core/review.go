package core

// Side identifies which version of a file a review comment refers to.
type Side string

const (
	// SideRight is the new (head) version of the file.
	SideRight Side = "RIGHT"
	// SideLeft is the old (base) version of the file.
	SideLeft Side = "LEFT"
)

// ReviewComment is a single inline finding anchored to a diff line.
type ReviewComment struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Side     Side   `json:"side,omitempty"`
	Severity string `json:"severity,omitempty"`
	Body     string `json:"body"`
}

// Valid reports whether the comment carries everything the platform needs:
// a file path, a positive line number, and a non-empty body. Comments that
// fail this check are dropped during normalization and never published.
func (c ReviewComment) Valid() bool {
	return c.Path != "" && c.Line > 0 && c.Body != ""
}

// Review is the canonical review produced by one agent run. It is built
// exactly once per invocation, entirely from agent output, and consumed
// exactly once by the publisher.
type Review struct {
	Summary  string          `json:"summary"`
	Comments []ReviewComment `json:"comments"`
}

// Empty reports whether the review carries nothing publishable.
// An empty review is treated as "no review produced".
func (r *Review) Empty() bool {
	return r == nil || (r.Summary == "" && len(r.Comments) == 0)
}
