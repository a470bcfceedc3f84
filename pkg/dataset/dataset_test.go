// pkg/dataset/dataset_test.go
package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		columns []Column
		wantErr string
	}{
		{
			name: "valid dataset",
			columns: []Column{
				{Name: "id", Type: TypeInt, Cells: []any{int64(1), int64(2)}},
				{Name: "name", Type: TypeString, Cells: []any{"a", "b"}},
			},
		},
		{
			name: "duplicate column names",
			columns: []Column{
				{Name: "id", Type: TypeInt, Cells: []any{int64(1)}},
				{Name: "id", Type: TypeString, Cells: []any{"a"}},
			},
			wantErr: "duplicate column name",
		},
		{
			name: "unequal column lengths",
			columns: []Column{
				{Name: "id", Type: TypeInt, Cells: []any{int64(1), int64(2)}},
				{Name: "name", Type: TypeString, Cells: []any{"a"}},
			},
			wantErr: "expected 2",
		},
		{
			name: "empty column name",
			columns: []Column{
				{Name: "", Type: TypeString, Cells: []any{"a"}},
			},
			wantErr: "cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := New(tt.columns)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.columns), ds.Cols())
		})
	}
}

func TestColumn_CaseSensitiveLookup(t *testing.T) {
	ds, err := New([]Column{
		{Name: "Rating", Type: TypeFloat, Cells: []any{8.5}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, ds.Column("Rating"))
	assert.Equal(t, -1, ds.Column("rating"))
	assert.Equal(t, -1, ds.Column("RATING"))
}

func TestApplyTypes(t *testing.T) {
	ds, err := New([]Column{
		{Name: "score", Type: TypeString, Cells: []any{"8.5", "n/a", "10.2", nil}},
		{Name: "name", Type: TypeString, Cells: []any{"a", "b", "c", "d"}},
	})
	require.NoError(t, err)

	typed := ApplyTypes(ds, map[string]Type{"score": TypeFloat})

	// Coercion failures become missing; untouched columns are shared.
	score := typed.Columns[typed.Column("score")]
	assert.Equal(t, TypeFloat, score.Type)
	assert.Equal(t, []any{8.5, nil, 10.2, nil}, score.Cells)

	// Input dataset is not mutated.
	assert.Equal(t, "n/a", ds.Columns[0].Cells[1])
	assert.Equal(t, TypeString, ds.Columns[0].Type)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		target  Type
		want    any
		wantErr bool
	}{
		{name: "string to int", value: "42", target: TypeInt, want: int64(42)},
		{name: "string to float", value: "3.25", target: TypeFloat, want: 3.25},
		{name: "integral float to int", value: 7.0, target: TypeInt, want: int64(7)},
		{name: "fractional float to int", value: 7.5, target: TypeInt, wantErr: true},
		{name: "yes to bool", value: "Yes", target: TypeBool, want: true},
		{name: "f to bool", value: "f", target: TypeBool, want: false},
		{name: "numeric string to bool", value: "1", target: TypeBool, wantErr: true},
		{name: "iso date", value: "2024-03-01", target: TypeDate, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "garbage to float", value: "n/a", target: TypeFloat, wantErr: true},
		{name: "nan is not a float", value: "nan", target: TypeFloat, wantErr: true},
		{name: "NaN is not a float", value: "NaN", target: TypeFloat, wantErr: true},
		{name: "inf is not a float", value: "inf", target: TypeFloat, wantErr: true},
		{name: "negative inf is not a float", value: "-Inf", target: TypeFloat, wantErr: true},
		{name: "int to string", value: int64(5), target: TypeString, want: "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.target)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Canonical(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "42", Format(int64(42)))
	assert.Equal(t, "8.5", Format(8.5))
	assert.Equal(t, "10", Format(10.0))
	assert.Equal(t, "true", Format(true))
	assert.Equal(t, "2024-03-01", Format(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-01 13:45:00", Format(time.Date(2024, 3, 1, 13, 45, 0, 0, time.UTC)))
}

func TestIsNullToken(t *testing.T) {
	for _, token := range []string{"", "NA", "n/a", " null ", "None", "NaN", "-"} {
		assert.True(t, IsNullToken(token), "token %q", token)
	}
	assert.False(t, IsNullToken("0"))
	assert.False(t, IsNullToken("no"))
}

func TestEncodeCSV_Deterministic(t *testing.T) {
	ds, err := New([]Column{
		{Name: "id", Type: TypeInt, Cells: []any{int64(1), int64(2)}},
		{Name: "score", Type: TypeFloat, Cells: []any{8.5, nil}},
	})
	require.NoError(t, err)

	first, err := EncodeCSV(ds)
	require.NoError(t, err)
	second, err := EncodeCSV(ds)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "id,score\n1,8.5\n2,\n", string(first))
}
