// pkg/report/report.go

// Package report assembles the audit artifact of a cleaning run.
package report

import (
	"encoding/json"

	"github.com/rajansavani/csv-cleaner/pkg/executor"
	"github.com/rajansavani/csv-cleaner/pkg/plan"
	"github.com/rajansavani/csv-cleaner/pkg/profile"
)

// Report ties together everything needed to audit one cleaning run:
// the executed plan, the dataset profile before and after, and the
// per-step execution log in order. Partial marks runs that stopped at
// a failed step; the log then covers the completed prefix.
type Report struct {
	JobID       string                      `json:"job_id"`
	Plan        *plan.Plan                  `json:"plan"`
	PreProfile  *profile.Profile            `json:"pre_profile"`
	PostProfile *profile.Profile            `json:"post_profile"`
	Log         []executor.LogEntry         `json:"log"`
	Validations *executor.ValidationResults `json:"validations,omitempty"`
	Partial     bool                        `json:"partial"`
	Error       string                      `json:"error,omitempty"`
}

// Build aggregates the run artifacts into a Report. Pure: inputs are
// referenced, not copied, and log order is preserved.
func Build(jobID string, p *plan.Plan, pre, post *profile.Profile, log []executor.LogEntry) *Report {
	if log == nil {
		log = []executor.LogEntry{}
	}
	return &Report{
		JobID:       jobID,
		Plan:        p,
		PreProfile:  pre,
		PostProfile: post,
		Log:         log,
	}
}

// WithValidations attaches the post-execution rule results. Partial
// runs never carry them: rules are defined over the fully cleaned data.
func (r *Report) WithValidations(v *executor.ValidationResults) *Report {
	r.Validations = v
	return r
}

// MarkPartial records that execution stopped early and why.
func (r *Report) MarkPartial(err error) *Report {
	r.Partial = true
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Encode serializes the report as indented JSON with stable field names.
func (r *Report) Encode() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
