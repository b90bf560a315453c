package domain

import (
	"fmt"
	"time"
)

// Pass names
const (
	PassLongAnswers = "long-answers"
	PassQACards     = "qa-cards"
	PassAudit       = "audit"
)

// KnownPasses lists every pass in the order a scheduled cycle runs them.
var KnownPasses = []string{PassLongAnswers, PassQACards, PassAudit}

// IsKnownPass reports whether name identifies a registered pass.
func IsKnownPass(name string) bool {
	for _, p := range KnownPasses {
		if p == name {
			return true
		}
	}
	return false
}

// RunFailure records a chapter a pass could not process.
type RunFailure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Run is the persisted report of one pass execution over a corpus.
type Run struct {
	ID         string       `json:"id"`
	Pass       string       `json:"pass"`
	Corpus     string       `json:"corpus"`
	DryRun     bool         `json:"dryRun"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Total      int          `json:"total"`
	Updated    int          `json:"updated"`
	Unchanged  int          `json:"unchanged"`
	Errors     int          `json:"errors"`
	Failures   []RunFailure `json:"failures,omitempty"`
}

// ValidateRun validates a Run instance
func ValidateRun(r *Run) error {
	if r == nil {
		return fmt.Errorf("run cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	if !IsKnownPass(r.Pass) {
		return fmt.Errorf("run Pass %q is not a known pass", r.Pass)
	}

	if r.Total < 0 || r.Updated < 0 || r.Unchanged < 0 || r.Errors < 0 {
		return fmt.Errorf("run counters cannot be negative")
	}

	if r.Updated+r.Unchanged+r.Errors != r.Total {
		return fmt.Errorf("run counters do not add up to Total")
	}

	if !r.FinishedAt.IsZero() && r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("run FinishedAt is before StartedAt")
	}

	return nil
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
