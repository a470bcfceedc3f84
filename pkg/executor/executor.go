// pkg/executor/executor.go

// Package executor applies a validated cleaning plan to a dataset as a
// strict ordered fold. Each step is a pure Dataset -> Dataset transform
// producing a fresh dataset; the input is never mutated. Every executed
// step appends exactly one log entry, even when it changed nothing.
package executor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/plan"
)

// LogEntry records what one executed step did.
type LogEntry struct {
	StepIndex     int      `json:"step_index"`
	Op            plan.Op  `json:"op"`
	Columns       []string `json:"columns"`
	RowsAffected  int      `json:"rows_affected"`
	ValuesChanged int      `json:"values_changed"`
	Description   string   `json:"description"`
}

// StepError reports a step that failed at execution time despite having
// passed validation. It is fatal: the step is never skipped, and the
// caller receives the dataset and log as of the last completed step.
type StepError struct {
	Index int
	Op    plan.Op
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed during execution: %v", e.Index, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run executes every step of p over ds in plan order. It returns the
// final dataset and the full execution log. On a step failure it
// returns the dataset and log as of the last completed step together
// with a *StepError.
//
// Execution is deterministic: no transform consults a clock, randomness
// or external state, so the same plan over the same dataset always
// yields byte-identical output and an identical log.
func Run(p *plan.Plan, ds *dataset.Dataset, logger *zap.Logger) (*dataset.Dataset, []LogEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cur := ds
	log := make([]LogEntry, 0, len(p.Steps))
	for i, step := range p.Steps {
		next, entry, err := apply(i, step, cur)
		if err != nil {
			logger.Error("step failed",
				zap.Int("step_index", i),
				zap.String("op", string(step.Op)),
				zap.Error(err))
			return cur, log, &StepError{Index: i, Op: step.Op, Err: err}
		}

		logger.Debug("step executed",
			zap.Int("step_index", i),
			zap.String("op", string(step.Op)),
			zap.Int("rows_affected", entry.RowsAffected),
			zap.Int("values_changed", entry.ValuesChanged))

		log = append(log, entry)
		cur = next
	}
	return cur, log, nil
}

func apply(index int, step plan.Step, ds *dataset.Dataset) (*dataset.Dataset, LogEntry, error) {
	var (
		out *dataset.Dataset
		res result
		err error
	)
	switch args := step.Args.(type) {
	case plan.TrimArgs:
		out, res, err = trimWhitespace(ds, args)
	case plan.CaseArgs:
		out, res, err = normalizeCase(ds, args)
	case plan.ParseDateArgs:
		out, res, err = parseDates(ds, args)
	case plan.FillArgs:
		out, res, err = fillMissing(ds, args)
	case plan.DropArgs:
		out, res, err = dropColumn(ds, args)
	case plan.DedupeArgs:
		out, res, err = deduplicateRows(ds, args)
	case plan.CastArgs:
		out, res, err = castType(ds, args)
	case plan.SplitArgs:
		out, res, err = splitColumn(ds, args)
	case plan.ClipArgs:
		out, res, err = clipRange(ds, args)
	case plan.RenameArgs:
		out, res, err = renameColumn(ds, args)
	case plan.NullsArgs:
		out, res, err = standardizeNulls(ds, args)
	default:
		err = fmt.Errorf("op %q has no executor", step.Op)
	}
	if err != nil {
		return nil, LogEntry{}, err
	}

	entry := LogEntry{
		StepIndex:     index,
		Op:            step.Op,
		Columns:       res.columns,
		RowsAffected:  res.rowsAffected,
		ValuesChanged: res.valuesChanged,
		Description:   res.description,
	}
	if entry.Columns == nil {
		entry.Columns = []string{}
	}
	return out, entry, nil
}

// result collects the audit counters produced by one transform.
type result struct {
	columns       []string
	rowsAffected  int
	valuesChanged int
	description   string
}
