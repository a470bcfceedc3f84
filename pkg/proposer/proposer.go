// pkg/proposer/proposer.go

// Package proposer produces candidate cleaning plans from a dataset
// profile. A plan source is an untrusted collaborator: whatever it
// returns is raw JSON that the pipeline decodes and validates before
// anything touches the dataset.
package proposer

import (
	"context"
	"fmt"

	"github.com/rajansavani/csv-cleaner/pkg/profile"
)

// PlanSource proposes a cleaning plan for a profiled dataset. The
// returned bytes are candidate plan JSON, never a trusted plan.
type PlanSource interface {
	Propose(ctx context.Context, prof *profile.Profile) ([]byte, error)
	Name() string
}

// SourceError marks a plan source that produced nothing usable:
// transport failures, empty responses, refusals. It is distinct from a
// schema or validation failure, which concern content the source did
// return.
type SourceError struct {
	Source string
	Reason string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan source %s failed: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("plan source %s failed: %s", e.Source, e.Reason)
}

func (e *SourceError) Unwrap() error { return e.Err }

// StaticSource replays a fixed plan document. Used for offline runs,
// plan files supplied on the command line, and tests.
type StaticSource struct {
	Plan []byte
}

// NewStaticSource wraps raw plan JSON as a PlanSource.
func NewStaticSource(raw []byte) *StaticSource {
	return &StaticSource{Plan: raw}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Propose(_ context.Context, _ *profile.Profile) ([]byte, error) {
	if len(s.Plan) == 0 {
		return nil, &SourceError{Source: s.Name(), Reason: "no plan configured"}
	}
	return s.Plan, nil
}
