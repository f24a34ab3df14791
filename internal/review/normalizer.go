// Package review contains the review-result orchestration engine: it bounds
// the input context, drives the agent session, normalizes the agent's
// heterogeneous output into one canonical review, publishes it, and
// classifies failures into non-fatal, user-visible outcomes.
package review

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// structuredPayload mirrors the JSON shape the agent is asked to produce.
// Every field is decoded defensively; agents routinely bend the schema.
type structuredPayload struct {
	Summary  string            `json:"summary"`
	Comments []json.RawMessage `json:"comments"`
}

type commentCandidate struct {
	Path     string          `json:"path"`
	Line     json.RawMessage `json:"line"`
	Side     string          `json:"side"`
	Severity string          `json:"severity"`
	Body     string          `json:"body"`
}

// Normalize converts raw agent output into one canonical Review.
//
// The structured payload wins where it is usable; free text is the fallback
// for the summary. Candidates missing a path, a usable line, or a body are
// dropped silently - a best-effort review with fewer comments is preferred
// over no review. Returns nil when nothing publishable remains.
func Normalize(structured json.RawMessage, fallbackText string) *core.Review {
	fallback := strings.TrimSpace(fallbackText)
	if len(structured) == 0 && fallback == "" {
		return nil
	}

	var payload structuredPayload
	if len(structured) > 0 {
		// A payload that is not an object at all degrades to text-only.
		_ = json.Unmarshal(structured, &payload)
	}

	review := &core.Review{}
	for _, raw := range payload.Comments {
		if c, ok := normalizeComment(raw); ok {
			review.Comments = append(review.Comments, c)
		}
	}

	review.Summary = strings.TrimSpace(payload.Summary)
	if review.Summary == "" {
		review.Summary = fallback
	}

	if review.Empty() {
		return nil
	}
	return review
}

func normalizeComment(raw json.RawMessage) (core.ReviewComment, bool) {
	var cand commentCandidate
	if err := json.Unmarshal(raw, &cand); err != nil {
		return core.ReviewComment{}, false
	}

	c := core.ReviewComment{
		Path:     strings.TrimSpace(cand.Path),
		Line:     coerceLine(cand.Line),
		Side:     coerceSide(cand.Side),
		Severity: strings.TrimSpace(cand.Severity),
		Body:     strings.TrimSpace(cand.Body),
	}
	if !c.Valid() {
		return core.ReviewComment{}, false
	}
	return c, true
}

// coerceLine accepts the line number as a JSON number or a numeric string
// and rejects everything non-positive or non-integral.
func coerceLine(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		num = parsed
	}

	line := int(num)
	if float64(line) != num || line <= 0 {
		return 0
	}
	return line
}

func coerceSide(s string) core.Side {
	if strings.EqualFold(strings.TrimSpace(s), string(core.SideLeft)) {
		return core.SideLeft
	}
	return core.SideRight
}
