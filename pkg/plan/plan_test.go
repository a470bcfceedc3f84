// pkg/plan/plan_test.go
package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
)

func TestDecode_ValidPlan(t *testing.T) {
	raw := []byte(`{
		"version": 1,
		"summary": "clean up ratings",
		"steps": [
			{"op": "trim_whitespace", "args": {"columns": ["name"]}},
			{"op": "cast_type", "args": {"column": "rating", "type": "float"}},
			{"op": "fill_missing", "args": {"column": "rating", "value": 0.0}},
			{"op": "clip_range", "args": {"column": "rating", "lower": 0, "upper": 10}}
		]
	}`)

	p, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Version)
	assert.Equal(t, "clean up ratings", p.Summary)
	require.Len(t, p.Steps, 4)

	cast, ok := p.Steps[1].Args.(CastArgs)
	require.True(t, ok)
	assert.Equal(t, "rating", cast.Column)
	assert.Equal(t, dataset.TypeFloat, cast.Type)

	clip, ok := p.Steps[3].Args.(ClipArgs)
	require.True(t, ok)
	assert.Equal(t, 0.0, clip.Lower)
	assert.Equal(t, 10.0, clip.Upper)
}

func TestDecode_ValidationsBlock(t *testing.T) {
	raw := []byte(`{
		"version": 1,
		"steps": [{"op": "trim_whitespace", "args": {}}],
		"validations": {
			"required": [{"column": "name"}],
			"ranges": [{"column": "rating", "min": 0, "max": 10}, {"column": "age", "min": 0}],
			"enums": [{"column": "status", "allowed": ["active", "inactive"]}]
		}
	}`)

	p, err := Decode(raw)
	require.NoError(t, err)

	v := p.Validations
	require.Len(t, v.Required, 1)
	assert.Equal(t, "name", v.Required[0].Column)

	require.Len(t, v.Ranges, 2)
	require.NotNil(t, v.Ranges[0].Min)
	require.NotNil(t, v.Ranges[0].Max)
	assert.Equal(t, 0.0, *v.Ranges[0].Min)
	assert.Equal(t, 10.0, *v.Ranges[0].Max)
	assert.Nil(t, v.Ranges[1].Max, "omitted bound stays open")

	require.Len(t, v.Enums, 1)
	assert.Equal(t, []string{"active", "inactive"}, v.Enums[0].Allowed)
	assert.False(t, v.Empty())
}

func TestDecode_ValidationsOmitted(t *testing.T) {
	p, err := Decode([]byte(`{"version":1,"steps":[]}`))
	require.NoError(t, err)
	assert.True(t, p.Validations.Empty())
}

func TestDecode_SchemaViolations(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantIndex int
		wantMsg   string
	}{
		{
			name:      "unknown op",
			raw:       `{"version":1,"steps":[{"op":"run_script","args":{}}]}`,
			wantIndex: 0,
			wantMsg:   "unknown op",
		},
		{
			name:      "unexpected argument field",
			raw:       `{"version":1,"steps":[{"op":"drop_column","args":{"column":"a","force":true}}]}`,
			wantIndex: 0,
			wantMsg:   "invalid args",
		},
		{
			name:      "missing required field",
			raw:       `{"version":1,"steps":[{"op":"cast_type","args":{"column":"a"}}]}`,
			wantIndex: 0,
			wantMsg:   "requires a target type",
		},
		{
			name:      "fill with both value and strategy",
			raw:       `{"version":1,"steps":[{"op":"fill_missing","args":{"column":"a","strategy":"mean","value":1}}]}`,
			wantIndex: 0,
			wantMsg:   "exactly one",
		},
		{
			name:      "fill with neither value nor strategy",
			raw:       `{"version":1,"steps":[{"op":"fill_missing","args":{"column":"a"}}]}`,
			wantIndex: 0,
			wantMsg:   "exactly one",
		},
		{
			name:      "missing steps field",
			raw:       `{"version":1}`,
			wantIndex: -1,
			wantMsg:   "no steps",
		},
		{
			name:      "not json",
			raw:       `not a plan`,
			wantIndex: -1,
			wantMsg:   "malformed",
		},
		{
			name:      "unknown top-level field",
			raw:       `{"version":1,"steps":[],"hooks":[]}`,
			wantIndex: -1,
			wantMsg:   "malformed",
		},
		{
			name:      "unknown validations field",
			raw:       `{"version":1,"steps":[],"validations":{"uniqueness":[]}}`,
			wantIndex: -1,
			wantMsg:   "malformed validations",
		},
		{
			name:      "validation rule without column",
			raw:       `{"version":1,"steps":[],"validations":{"ranges":[{"min":0,"max":1}]}}`,
			wantIndex: -1,
			wantMsg:   "requires a column",
		},
		{
			name:      "second step bad",
			raw:       `{"version":1,"steps":[{"op":"deduplicate_rows","args":{}},{"op":"rename_column","args":{"from":"a"}}]}`,
			wantIndex: 1,
			wantMsg:   "requires from and to",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "want *SchemaError, got %T", err)
			assert.Equal(t, tt.wantIndex, schemaErr.StepIndex)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestStep_MarshalRoundTrip(t *testing.T) {
	p := Default()
	raw, err := p.Steps[0].MarshalJSON()
	require.NoError(t, err)

	var decoded Step
	require.NoError(t, decoded.UnmarshalJSON(raw))
	assert.Equal(t, p.Steps[0], decoded)
}

func TestDefault_PassesValidation(t *testing.T) {
	prof := profileOf(t, []dataset.Column{
		{Name: "a", Type: dataset.TypeString, Cells: []any{"x", "x"}},
	})
	assert.Empty(t, Validate(Default(), prof))
}
