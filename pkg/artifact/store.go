// pkg/artifact/store.go

// Package artifact persists the outputs of a cleaning run: the cleaned
// dataset, the plan that produced it, and the audit report. Persistence
// is a collaborator of the pipeline, never part of its correctness; a
// store failure is reported but does not fail the run.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/report"
)

// Store persists run artifacts keyed by job id.
type Store interface {
	SaveDataset(jobID string, ds *dataset.Dataset) error
	SavePlan(jobID string, raw []byte) error
	SaveReport(jobID string, r *report.Report) error
	CleanedPath(jobID string) string
	ReportPath(jobID string) string
}

// StoreError marks an artifact persistence failure.
type StoreError struct {
	Artifact string
	JobID    string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to store %s artifact for job %s: %v", e.Artifact, e.JobID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// FSStore writes artifacts under a base directory:
// cleaned/<id>.csv, plans/<id>.json, reports/<id>.json.
type FSStore struct {
	base   string
	logger *zap.Logger
}

// NewFSStore creates the artifact directory tree under base.
func NewFSStore(base string, logger *zap.Logger) (*FSStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, sub := range []string{"cleaned", "plans", "reports"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	return &FSStore{base: base, logger: logger}, nil
}

func (s *FSStore) CleanedPath(jobID string) string {
	return filepath.Join(s.base, "cleaned", jobID+".csv")
}

func (s *FSStore) PlanPath(jobID string) string {
	return filepath.Join(s.base, "plans", jobID+".json")
}

func (s *FSStore) ReportPath(jobID string) string {
	return filepath.Join(s.base, "reports", jobID+".json")
}

// SaveDataset writes the cleaned dataset as CSV.
func (s *FSStore) SaveDataset(jobID string, ds *dataset.Dataset) error {
	encoded, err := dataset.EncodeCSV(ds)
	if err != nil {
		return &StoreError{Artifact: "dataset", JobID: jobID, Err: err}
	}
	if err := os.WriteFile(s.CleanedPath(jobID), encoded, 0o644); err != nil {
		return &StoreError{Artifact: "dataset", JobID: jobID, Err: err}
	}
	s.logger.Debug("stored cleaned dataset",
		zap.String("job_id", jobID),
		zap.String("path", s.CleanedPath(jobID)))
	return nil
}

// SavePlan writes the plan exactly as it was decoded, byte for byte.
func (s *FSStore) SavePlan(jobID string, raw []byte) error {
	if err := os.WriteFile(s.PlanPath(jobID), raw, 0o644); err != nil {
		return &StoreError{Artifact: "plan", JobID: jobID, Err: err}
	}
	s.logger.Debug("stored plan",
		zap.String("job_id", jobID),
		zap.String("path", s.PlanPath(jobID)))
	return nil
}

// SaveReport writes the audit report as JSON.
func (s *FSStore) SaveReport(jobID string, r *report.Report) error {
	encoded, err := r.Encode()
	if err != nil {
		return &StoreError{Artifact: "report", JobID: jobID, Err: err}
	}
	if err := os.WriteFile(s.ReportPath(jobID), encoded, 0o644); err != nil {
		return &StoreError{Artifact: "report", JobID: jobID, Err: err}
	}
	s.logger.Debug("stored report",
		zap.String("job_id", jobID),
		zap.String("path", s.ReportPath(jobID)))
	return nil
}
