// Package aggregate collects per-document validation outcomes from
// concurrent workers into an immutable run summary.
package aggregate

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	xmlvalidator "github.com/xmlvalid/validator"
)

// Aggregator accumulates outcomes. All methods are safe for concurrent use.
type Aggregator struct {
	runID   string
	started time.Time

	mu       sync.Mutex
	outcomes []xmlvalidator.Outcome
	valid    int
	invalid  int
	errored  int
	skipped  int
	schemas  map[string]int
}

// New creates an Aggregator with a fresh run ID.
func New() *Aggregator {
	return &Aggregator{
		runID:   ulid.Make().String(),
		started: time.Now(),
		schemas: make(map[string]int),
	}
}

// RunID returns the unique identifier of this run.
func (a *Aggregator) RunID() string {
	return a.runID
}

// Add records one document outcome.
func (a *Aggregator) Add(out xmlvalidator.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.outcomes = append(a.outcomes, out)
	switch out.Status {
	case xmlvalidator.StatusValid:
		a.valid++
	case xmlvalidator.StatusInvalid:
		a.invalid++
	case xmlvalidator.StatusError:
		a.errored++
	case xmlvalidator.StatusSkipped:
		a.skipped++
	}
	if out.Schema != "" {
		a.schemas[out.Schema]++
	}
}

// Summary is the immutable result of a run.
type Summary struct {
	RunID    string                 `json:"run_id" yaml:"run_id"`
	Total    int                    `json:"total" yaml:"total"`
	Valid    int                    `json:"valid" yaml:"valid"`
	Invalid  int                    `json:"invalid" yaml:"invalid"`
	Errors   int                    `json:"errors" yaml:"errors"`
	Skipped  int                    `json:"skipped" yaml:"skipped"`
	Duration time.Duration          `json:"duration_ns" yaml:"duration_ns"`
	Schemas  map[string]int         `json:"schemas,omitempty" yaml:"schemas,omitempty"`
	Outcomes []xmlvalidator.Outcome `json:"outcomes" yaml:"outcomes"`

	// Metrics carries cache and engine counters when the caller attaches
	// them after the run.
	Metrics *xmlvalidator.MetricsSnapshot `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Summary snapshots the current state. The returned value shares nothing
// mutable with the aggregator.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	outcomes := make([]xmlvalidator.Outcome, len(a.outcomes))
	copy(outcomes, a.outcomes)
	schemas := make(map[string]int, len(a.schemas))
	for k, v := range a.schemas {
		schemas[k] = v
	}

	return Summary{
		RunID:    a.runID,
		Total:    len(a.outcomes),
		Valid:    a.valid,
		Invalid:  a.invalid,
		Errors:   a.errored,
		Skipped:  a.skipped,
		Duration: time.Since(a.started),
		Schemas:  schemas,
		Outcomes: outcomes,
	}
}

// AllValid reports whether every processed document validated cleanly.
func (s Summary) AllValid() bool {
	return s.Invalid == 0 && s.Errors == 0
}

// ExitCode maps the summary onto the process exit code: system errors
// dominate invalid documents, which dominate success.
func (s Summary) ExitCode() int {
	switch {
	case s.Errors > 0:
		return 2
	case s.Invalid > 0:
		return 1
	default:
		return 0
	}
}
