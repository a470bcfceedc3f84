// pkg/executor/validations.go
package executor

import (
	"sort"
	"strings"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/plan"
)

// badValueLimit caps the distinct offending values reported per enum
// rule so one wild column cannot blow up the report.
const badValueLimit = 50

// RequiredResult records whether a required column survived the run.
type RequiredResult struct {
	Column string `json:"column"`
	OK     bool   `json:"ok"`
}

// RangeResult records a range rule evaluated over the cleaned column.
// Checked counts the numeric values seen; missing cells and values that
// are not numeric are skipped, and a column with nothing to check
// passes.
type RangeResult struct {
	Column     string   `json:"column"`
	OK         bool     `json:"ok"`
	Reason     string   `json:"reason,omitempty"`
	Checked    int      `json:"checked"`
	Violations int      `json:"violations"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
}

// EnumResult records an enum rule: the distinct non-missing values that
// fall outside the allowed set, sorted, capped at badValueLimit.
// BadValueCount is the uncapped distinct count.
type EnumResult struct {
	Column        string   `json:"column"`
	OK            bool     `json:"ok"`
	Reason        string   `json:"reason,omitempty"`
	BadValues     []string `json:"bad_values"`
	BadValueCount int      `json:"bad_value_count"`
}

// ValidationResults carries every rule outcome of one run, in rule
// order.
type ValidationResults struct {
	Required []RequiredResult `json:"required"`
	Ranges   []RangeResult    `json:"ranges"`
	Enums    []EnumResult     `json:"enums"`
}

// OK reports whether every rule passed.
func (r *ValidationResults) OK() bool {
	for _, res := range r.Required {
		if !res.OK {
			return false
		}
	}
	for _, res := range r.Ranges {
		if !res.OK {
			return false
		}
	}
	for _, res := range r.Enums {
		if !res.OK {
			return false
		}
	}
	return true
}

// EvaluateValidations checks the plan's data quality rules against the
// cleaned dataset. Rules assert and report; they never mutate the data
// and never fail the run. A rule naming a column the plan dropped
// reports ok=false with a reason rather than erroring.
func EvaluateValidations(v plan.Validations, ds *dataset.Dataset) *ValidationResults {
	out := &ValidationResults{
		Required: make([]RequiredResult, 0, len(v.Required)),
		Ranges:   make([]RangeResult, 0, len(v.Ranges)),
		Enums:    make([]EnumResult, 0, len(v.Enums)),
	}

	for _, rule := range v.Required {
		out.Required = append(out.Required, RequiredResult{
			Column: rule.Column,
			OK:     ds.Column(rule.Column) >= 0,
		})
	}

	for _, rule := range v.Ranges {
		out.Ranges = append(out.Ranges, evaluateRange(rule, ds))
	}

	for _, rule := range v.Enums {
		out.Enums = append(out.Enums, evaluateEnum(rule, ds))
	}
	return out
}

func evaluateRange(rule plan.RangeRule, ds *dataset.Dataset) RangeResult {
	res := RangeResult{Column: rule.Column, Min: rule.Min, Max: rule.Max}
	idx := ds.Column(rule.Column)
	if idx < 0 {
		res.Reason = "missing column"
		return res
	}

	for _, cell := range ds.Columns[idx].Cells {
		if cell == nil {
			continue
		}
		v, err := dataset.Coerce(cell, dataset.TypeFloat)
		if err != nil {
			continue
		}
		f := v.(float64)
		res.Checked++
		if (rule.Min != nil && f < *rule.Min) || (rule.Max != nil && f > *rule.Max) {
			res.Violations++
		}
	}
	res.OK = res.Violations == 0
	return res
}

func evaluateEnum(rule plan.EnumRule, ds *dataset.Dataset) EnumResult {
	res := EnumResult{Column: rule.Column, BadValues: []string{}}
	idx := ds.Column(rule.Column)
	if idx < 0 {
		res.Reason = "missing column"
		return res
	}

	allowed := make(map[string]bool, len(rule.Allowed))
	for _, v := range rule.Allowed {
		allowed[v] = true
	}

	seen := make(map[string]bool)
	for _, cell := range ds.Columns[idx].Cells {
		if cell == nil {
			continue
		}
		v := strings.TrimSpace(dataset.Format(cell))
		if allowed[v] || seen[v] {
			continue
		}
		seen[v] = true
	}

	res.BadValueCount = len(seen)
	res.OK = len(seen) == 0
	for v := range seen {
		res.BadValues = append(res.BadValues, v)
	}
	sort.Strings(res.BadValues)
	if len(res.BadValues) > badValueLimit {
		res.BadValues = res.BadValues[:badValueLimit]
	}
	return res
}
