// pkg/plan/validate_test.go
package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/profile"
)

func profileOf(t *testing.T, columns []dataset.Column) *profile.Profile {
	t.Helper()
	ds, err := dataset.New(columns)
	require.NoError(t, err)
	return profile.New(ds)
}

// ratingProfile has a string "rating" column (mixed values defeat
// numeric inference) and a string "name" column.
func ratingProfile(t *testing.T) *profile.Profile {
	t.Helper()
	return profileOf(t, []dataset.Column{
		{Name: "rating", Type: dataset.TypeString, Cells: []any{"8.5", "n/a", "10.2", nil}},
		{Name: "name", Type: dataset.TypeString, Cells: []any{"a", "b", "c", "d"}},
	})
}

func TestValidate_CleanPlan(t *testing.T) {
	p := &Plan{Version: 1, Steps: []Step{
		{Op: OpCastType, Args: CastArgs{Column: "rating", Type: dataset.TypeFloat}},
		{Op: OpFillMissing, Args: FillArgs{Column: "rating", Value: 0.0}},
		{Op: OpClipRange, Args: ClipArgs{Column: "rating", Lower: 0, Upper: 10}},
	}}
	assert.Empty(t, Validate(p, ratingProfile(t)))
}

func TestValidate_NonexistentColumn(t *testing.T) {
	p := &Plan{Version: 1, Steps: []Step{
		{Op: OpTrimWhitespace, Args: TrimArgs{Columns: []string{"Rating"}}},
	}}

	issues := Validate(p, ratingProfile(t))
	require.Len(t, issues, 1)
	assert.Equal(t, 0, issues[0].StepIndex)
	assert.Contains(t, issues[0].Message, `"Rating"`)
}

func TestValidate_ClipBeforeCastRejected(t *testing.T) {
	// Clipping a string column is a hard error even when a later cast
	// would have made it numeric.
	p := &Plan{Version: 1, Steps: []Step{
		{Op: OpClipRange, Args: ClipArgs{Column: "rating", Lower: 0, Upper: 10}},
		{Op: OpCastType, Args: CastArgs{Column: "rating", Type: dataset.TypeFloat}},
	}}

	issues := Validate(p, ratingProfile(t))
	require.Len(t, issues, 1)
	assert.Equal(t, 0, issues[0].StepIndex)
	assert.Equal(t, OpClipRange, issues[0].Op)
	assert.Contains(t, issues[0].Message, "numeric")
}

func TestValidate_SimulatesColumnSet(t *testing.T) {
	tests := []struct {
		name     string
		steps    []Step
		wantMsgs []string
	}{
		{
			name: "reference after drop",
			steps: []Step{
				{Op: OpDropColumn, Args: DropArgs{Column: "name"}},
				{Op: OpNormalizeCase, Args: CaseArgs{Column: "name", Mode: CaseLower}},
			},
			wantMsgs: []string{"does not exist"},
		},
		{
			name: "split output usable later",
			steps: []Step{
				{Op: OpSplitColumn, Args: SplitArgs{Column: "name", Delimiter: " ", Into: []string{"first", "last"}}},
				{Op: OpNormalizeCase, Args: CaseArgs{Column: "first", Mode: CaseTitle}},
			},
		},
		{
			name: "rename tracked",
			steps: []Step{
				{Op: OpRenameColumn, Args: RenameArgs{From: "name", To: "label"}},
				{Op: OpTrimWhitespace, Args: TrimArgs{Columns: []string{"label"}}},
				{Op: OpTrimWhitespace, Args: TrimArgs{Columns: []string{"name"}}},
			},
			wantMsgs: []string{"does not exist"},
		},
		{
			name: "split collision",
			steps: []Step{
				{Op: OpSplitColumn, Args: SplitArgs{Column: "name", Delimiter: " ", Into: []string{"rating"}}},
			},
			wantMsgs: []string{"collides"},
		},
		{
			name: "cast retypes for later clip",
			steps: []Step{
				{Op: OpCastType, Args: CastArgs{Column: "rating", Type: dataset.TypeInt}},
				{Op: OpClipRange, Args: ClipArgs{Column: "rating", Lower: 0, Upper: 100}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(&Plan{Version: 1, Steps: tt.steps}, ratingProfile(t))
			require.Len(t, issues, len(tt.wantMsgs))
			for i, msg := range tt.wantMsgs {
				assert.Contains(t, issues[i].Message, msg)
			}
		})
	}
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	p := &Plan{Version: 1, Steps: []Step{
		{Op: OpNormalizeCase, Args: CaseArgs{Column: "missing", Mode: "shouting"}},
		{Op: OpParseDate, Args: ParseDateArgs{Column: "name", Format: "YYYY-MM-DD"}},
		{Op: OpClipRange, Args: ClipArgs{Column: "rating", Lower: 10, Upper: 0}},
	}}

	issues := Validate(p, ratingProfile(t))
	require.Len(t, issues, 5)

	// Ordered by step index.
	assert.Equal(t, 0, issues[0].StepIndex)
	assert.Equal(t, 0, issues[1].StepIndex)
	assert.Equal(t, 1, issues[2].StepIndex)
	assert.Equal(t, 2, issues[3].StepIndex)
	assert.Equal(t, 2, issues[4].StepIndex)
}

func TestValidate_StatisticFillNeedsNumericColumn(t *testing.T) {
	p := &Plan{Version: 1, Steps: []Step{
		{Op: OpFillMissing, Args: FillArgs{Column: "name", Strategy: FillMean}},
	}}
	issues := Validate(p, ratingProfile(t))
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "numeric")

	// Mode works on any column type.
	p = &Plan{Version: 1, Steps: []Step{
		{Op: OpFillMissing, Args: FillArgs{Column: "name", Strategy: FillMode}},
	}}
	assert.Empty(t, Validate(p, ratingProfile(t)))
}

func TestValidate_FillConstantMustCoerce(t *testing.T) {
	prof := profileOf(t, []dataset.Column{
		{Name: "count", Type: dataset.TypeString, Cells: []any{"1", "2", nil}},
	})
	require.Equal(t, dataset.TypeInt, prof.Columns[0].Type)

	p := &Plan{Version: 1, Steps: []Step{
		{Op: OpFillMissing, Args: FillArgs{Column: "count", Value: "lots"}},
	}}
	issues := Validate(p, prof)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "not a valid")
}

func TestValidate_ValidationRules(t *testing.T) {
	lo, hi := 10.0, 0.0
	p := &Plan{Version: 1, Validations: Validations{
		Ranges: []RangeRule{{Column: "rating", Min: &lo, Max: &hi}},
		Enums:  []EnumRule{{Column: "name", Allowed: []string{}}},
	}}

	issues := Validate(p, ratingProfile(t))
	require.Len(t, issues, 2)
	assert.Equal(t, -1, issues[0].StepIndex)
	assert.Contains(t, issues[0].Message, "min 10 exceeds max 0")
	assert.Contains(t, issues[1].Message, "allowed values cannot be empty")
	assert.Contains(t, issues[1].String(), "validations:")
}

func TestValidate_ValidationRulesAllowUnknownColumns(t *testing.T) {
	// Rules run against the cleaned dataset, so a column unknown to the
	// input profile is a run-time outcome, not a plan defect.
	lo, hi := 0.0, 10.0
	p := &Plan{Version: 1, Validations: Validations{
		Required: []RequiredRule{{Column: "ghost"}},
		Ranges:   []RangeRule{{Column: "ghost", Min: &lo, Max: &hi}},
		Enums:    []EnumRule{{Column: "ghost", Allowed: []string{"x"}}},
	}}
	assert.Empty(t, Validate(p, ratingProfile(t)))
}

func TestValidate_Idempotent(t *testing.T) {
	p := &Plan{Version: 1, Steps: []Step{
		{Op: OpClipRange, Args: ClipArgs{Column: "rating", Lower: 0, Upper: 10}},
		{Op: OpDropColumn, Args: DropArgs{Column: "ghost"}},
	}}
	prof := ratingProfile(t)

	first := Validate(p, prof)
	second := Validate(p, prof)
	assert.Equal(t, first, second)
}

func TestCheck(t *testing.T) {
	prof := ratingProfile(t)

	err := Check(&Plan{Version: 1, Steps: []Step{
		{Op: OpClipRange, Args: ClipArgs{Column: "rating", Lower: 0, Upper: 10}},
	}}, prof)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Issues)

	assert.NoError(t, Check(&Plan{Version: 1, Steps: []Step{
		{Op: OpDeduplicateRows, Args: DedupeArgs{}},
	}}, prof))
}
