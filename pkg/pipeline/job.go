// pkg/pipeline/job.go
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/report"
)

// Job is one independent cleaning run. Input is either raw CSV bytes or
// an already-built dataset; PlanJSON, when set, bypasses the runner's
// plan source and is still decoded and validated like any other plan.
type Job struct {
	ID       string
	Name     string
	Raw      []byte
	Dataset  *dataset.Dataset
	PlanJSON []byte
}

// NewJob creates a job over raw CSV input with a fresh unique id.
func NewJob(name string, raw []byte) Job {
	return Job{
		ID:   uuid.New().String(),
		Name: name,
		Raw:  raw,
	}
}

// Result is the outcome of one job: the cleaned dataset, its audit
// report, and any artifact persistence failures. Partial results carry
// the dataset and log as of the last completed step.
type Result struct {
	JobID        string
	Report       *report.Report
	Cleaned      *dataset.Dataset
	Partial      bool
	ArtifactErrs []error
	Duration     time.Duration
}
