// pkg/report/report_test.go
package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/executor"
	"github.com/rajansavani/csv-cleaner/pkg/plan"
	"github.com/rajansavani/csv-cleaner/pkg/profile"
)

func TestBuild(t *testing.T) {
	ds, err := dataset.New([]dataset.Column{
		{Name: "v", Type: dataset.TypeString, Cells: []any{"a", "a", "b"}},
	})
	require.NoError(t, err)

	pre := profile.New(ds)
	post := profile.New(ds)
	p := plan.Default()
	log := []executor.LogEntry{
		{StepIndex: 0, Op: plan.OpTrimWhitespace, Columns: []string{"v"}},
		{StepIndex: 1, Op: plan.OpDeduplicateRows, Columns: []string{"v"}, RowsAffected: 1},
	}

	r := Build("job-1", p, pre, post, log)
	assert.Equal(t, "job-1", r.JobID)
	assert.Same(t, p, r.Plan)
	assert.Equal(t, log, r.Log)
	assert.False(t, r.Partial)
	assert.Empty(t, r.Error)
}

func TestBuild_NilLogBecomesEmpty(t *testing.T) {
	r := Build("job-2", plan.Default(), nil, nil, nil)
	assert.NotNil(t, r.Log)
	assert.Empty(t, r.Log)
}

func TestMarkPartial(t *testing.T) {
	r := Build("job-3", plan.Default(), nil, nil, nil)
	r.MarkPartial(assert.AnError)

	assert.True(t, r.Partial)
	assert.Equal(t, assert.AnError.Error(), r.Error)
}

func TestWithValidations(t *testing.T) {
	r := Build("job-5", plan.Default(), nil, nil, nil)
	assert.Nil(t, r.Validations)

	results := &executor.ValidationResults{
		Required: []executor.RequiredResult{{Column: "v", OK: true}},
	}
	r.WithValidations(results)
	assert.Same(t, results, r.Validations)

	encoded, err := r.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Contains(t, decoded, "validations")
	top := decoded["validations"].(map[string]any)
	assert.Len(t, top["required"], 1)
}

func TestEncode_StableFields(t *testing.T) {
	r := Build("job-4", plan.Default(), nil, nil, []executor.LogEntry{
		{StepIndex: 0, Op: plan.OpTrimWhitespace, Columns: []string{}},
	})

	encoded, err := r.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "job-4", decoded["job_id"])
	assert.Contains(t, decoded, "plan")
	assert.Contains(t, decoded, "pre_profile")
	assert.Contains(t, decoded, "post_profile")
	assert.Contains(t, decoded, "log")
}
