// pkg/pipeline/runner.go

// Package pipeline orchestrates cleaning runs: ingest, profile, plan,
// validate, execute, report, persist. Jobs are independent and never
// share mutable state; RunAll executes them on a bounded worker pool.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rajansavani/csv-cleaner/pkg/artifact"
	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/executor"
	"github.com/rajansavani/csv-cleaner/pkg/ingest"
	"github.com/rajansavani/csv-cleaner/pkg/plan"
	"github.com/rajansavani/csv-cleaner/pkg/profile"
	"github.com/rajansavani/csv-cleaner/pkg/proposer"
	"github.com/rajansavani/csv-cleaner/pkg/report"
)

const defaultWorkers = 4

// Runner executes cleaning jobs. Collaborators are optional: without a
// plan source it falls back to the baseline plan, without a store or
// recorder nothing is persisted.
type Runner struct {
	logger   *zap.Logger
	source   proposer.PlanSource
	store    artifact.Store
	recorder *artifact.PGRecorder
	workers  int
}

// NewRunner builds a Runner with no collaborators attached.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, workers: defaultWorkers}
}

// WithPlanSource attaches a plan proposer.
func (r *Runner) WithPlanSource(source proposer.PlanSource) *Runner {
	r.source = source
	return r
}

// WithStore attaches an artifact store.
func (r *Runner) WithStore(store artifact.Store) *Runner {
	r.store = store
	return r
}

// WithRecorder attaches an execution-log recorder.
func (r *Runner) WithRecorder(recorder *artifact.PGRecorder) *Runner {
	r.recorder = recorder
	return r
}

// WithWorkers sets the RunAll concurrency limit.
func (r *Runner) WithWorkers(n int) *Runner {
	if n > 0 {
		r.workers = n
	}
	return r
}

// Run executes one job end to end. On a step execution failure the
// returned Result still carries the partial dataset, log and report,
// alongside the *executor.StepError.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()
	logger := r.logger.With(zap.String("job_id", job.ID), zap.String("job_name", job.Name))
	logger.Info("starting cleaning run")

	ds := job.Dataset
	if ds == nil {
		var err error
		ds, err = ingest.Decode(job.Raw)
		if err != nil {
			logger.Error("ingestion failed", zap.Error(err))
			return nil, err
		}
	}

	pre := profile.New(ds)
	logger.Info("profiled input",
		zap.Int("rows", pre.RowCount),
		zap.Int("columns", pre.ColumnCount),
		zap.Int("duplicate_rows", pre.DuplicateRows))

	typed := dataset.ApplyTypes(ds, pre.ColumnTypes())

	rawPlan, err := r.proposePlan(ctx, job, pre)
	if err != nil {
		logger.Error("plan source failed", zap.Error(err))
		return nil, err
	}

	p, err := plan.Decode(rawPlan)
	if err != nil {
		logger.Error("plan rejected by schema", zap.Error(err))
		return nil, err
	}
	if err := plan.Check(p, pre); err != nil {
		logger.Error("plan rejected by validation", zap.Error(err))
		return nil, err
	}
	logger.Info("plan accepted", zap.Int("steps", len(p.Steps)))

	cleaned, log, execErr := executor.Run(p, typed, logger)
	post := profile.New(cleaned)

	rep := report.Build(job.ID, p, pre, post, log)
	if execErr != nil {
		rep.MarkPartial(execErr)
	} else if !p.Validations.Empty() {
		results := executor.EvaluateValidations(p.Validations, cleaned)
		rep.WithValidations(results)
		if !results.OK() {
			logger.Warn("data quality rules reported violations")
		}
	}

	res := &Result{
		JobID:        job.ID,
		Report:       rep,
		Cleaned:      cleaned,
		Partial:      execErr != nil,
		ArtifactErrs: r.persist(ctx, job.ID, cleaned, rawPlan, rep, log, logger),
		Duration:     time.Since(start),
	}

	if execErr != nil {
		logger.Warn("cleaning run stopped early",
			zap.Int("completed_steps", len(log)),
			zap.Error(execErr))
		return res, execErr
	}

	logger.Info("cleaning run complete",
		zap.Int("rows_out", cleaned.Rows()),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// RunAll executes independent jobs concurrently on a bounded pool.
// Results are returned in job order; the slot of a failed job holds
// whatever partial result the job produced. One job failing never
// cancels its siblings; the first error is returned after all jobs
// finish.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := r.Run(ctx, job)
			results[i] = res
			if err != nil {
				return fmt.Errorf("job %s: %w", job.ID, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

// proposePlan resolves the plan bytes for a job: an explicit plan wins,
// then the attached source, then the baseline plan.
func (r *Runner) proposePlan(ctx context.Context, job Job, pre *profile.Profile) ([]byte, error) {
	if len(job.PlanJSON) > 0 {
		return job.PlanJSON, nil
	}
	if r.source != nil {
		return r.source.Propose(ctx, pre)
	}
	return json.Marshal(plan.Default())
}

// persist writes artifacts through the attached collaborators. Failures
// are collected and reported; they never fail the run itself.
func (r *Runner) persist(
	ctx context.Context,
	jobID string,
	cleaned *dataset.Dataset,
	rawPlan []byte,
	rep *report.Report,
	log []executor.LogEntry,
	logger *zap.Logger,
) []error {
	var errs []error
	if r.store != nil {
		if err := r.store.SaveDataset(jobID, cleaned); err != nil {
			errs = append(errs, err)
		}
		if err := r.store.SavePlan(jobID, rawPlan); err != nil {
			errs = append(errs, err)
		}
		if err := r.store.SaveReport(jobID, rep); err != nil {
			errs = append(errs, err)
		}
	}
	if r.recorder != nil {
		if err := r.recorder.RecordLog(ctx, jobID, log); err != nil {
			errs = append(errs, err)
		}
	}
	for _, err := range errs {
		logger.Warn("artifact persistence failed", zap.Error(err))
	}
	return errs
}
