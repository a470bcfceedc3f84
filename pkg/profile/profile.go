// pkg/profile/profile.go

// Package profile derives a read-only structural and statistical summary
// of a dataset. Profiles are built fresh from a dataset, never mutated,
// and feed both plan proposal and plan validation.
package profile

import (
	"strings"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
)

// sampleSize caps the per-column sample of raw values.
const sampleSize = 10

// inferThreshold is the share of non-missing values a candidate type
// must accept before a column is inferred as that type.
const inferThreshold = 0.95

// ColumnProfile summarizes one column at profiling time.
type ColumnProfile struct {
	Name          string       `json:"name"`
	Type          dataset.Type `json:"type"`
	MissingCount  int          `json:"missing_count"`
	MissingRatio  float64      `json:"missing_ratio"`
	DistinctCount int          `json:"distinct_count"`
	Sample        []string     `json:"sample"`
}

// Profile is an immutable snapshot of a dataset's shape and per-column
// statistics. A zero-row or zero-column dataset yields a valid minimal
// profile rather than an error.
type Profile struct {
	RowCount      int             `json:"row_count"`
	ColumnCount   int             `json:"column_count"`
	DuplicateRows int             `json:"duplicate_rows"`
	Columns       []ColumnProfile `json:"columns"`
}

// New profiles a dataset. Pure: the dataset is only read.
func New(ds *dataset.Dataset) *Profile {
	p := &Profile{
		RowCount:      ds.Rows(),
		ColumnCount:   ds.Cols(),
		DuplicateRows: countDuplicateRows(ds),
		Columns:       make([]ColumnProfile, 0, ds.Cols()),
	}

	for _, col := range ds.Columns {
		p.Columns = append(p.Columns, profileColumn(col, p.RowCount))
	}
	return p
}

// Column returns the profile of the named column, case-sensitively.
func (p *Profile) Column(name string) (ColumnProfile, bool) {
	for _, cp := range p.Columns {
		if cp.Name == name {
			return cp, true
		}
	}
	return ColumnProfile{}, false
}

// ColumnTypes returns the inferred name -> type mapping, ready for
// dataset.ApplyTypes.
func (p *Profile) ColumnTypes() map[string]dataset.Type {
	types := make(map[string]dataset.Type, len(p.Columns))
	for _, cp := range p.Columns {
		types[cp.Name] = cp.Type
	}
	return types
}

func profileColumn(col dataset.Column, rows int) ColumnProfile {
	cp := ColumnProfile{Name: col.Name, Type: col.Type, Sample: []string{}}

	distinct := make(map[string]bool)
	for _, cell := range col.Cells {
		if cell == nil {
			cp.MissingCount++
			continue
		}
		key := dataset.Format(cell)
		if !distinct[key] {
			distinct[key] = true
			if len(cp.Sample) < sampleSize {
				cp.Sample = append(cp.Sample, key)
			}
		}
	}
	cp.DistinctCount = len(distinct)
	if rows > 0 {
		cp.MissingRatio = float64(cp.MissingCount) / float64(rows)
	}

	// Raw string columns get a logical type inferred from their values.
	if col.Type == dataset.TypeString {
		cp.Type = inferType(col.Cells)
	}
	return cp
}

// inferType picks the logical type of a raw string column: candidate
// types are tried in a fixed priority order and the first one accepted
// by at least inferThreshold of the non-missing values wins. Columns
// with no non-missing values stay strings.
func inferType(cells []any) dataset.Type {
	nonMissing := 0
	accepted := map[dataset.Type]int{}

	for _, cell := range cells {
		if cell == nil {
			continue
		}
		nonMissing++
		s, ok := cell.(string)
		if !ok {
			continue
		}
		for _, t := range []dataset.Type{dataset.TypeBool, dataset.TypeInt, dataset.TypeFloat, dataset.TypeDate} {
			if acceptsAs(s, t) {
				accepted[t]++
			}
		}
	}
	if nonMissing == 0 {
		return dataset.TypeString
	}

	for _, t := range []dataset.Type{dataset.TypeBool, dataset.TypeInt, dataset.TypeFloat, dataset.TypeDate} {
		if float64(accepted[t])/float64(nonMissing) >= inferThreshold {
			return t
		}
	}
	return dataset.TypeString
}

// acceptsAs reports whether a raw string parses as the candidate type.
// Bool inference deliberately excludes "0"/"1" so binary integer columns
// are not misread as booleans.
func acceptsAs(s string, t dataset.Type) bool {
	if t == dataset.TypeBool {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "false", "t", "f", "yes", "no", "y", "n":
			return true
		}
		return false
	}
	_, err := dataset.Coerce(s, t)
	return err == nil
}

// countDuplicateRows counts rows that are exact duplicates of an earlier
// row across all columns.
func countDuplicateRows(ds *dataset.Dataset) int {
	rows := ds.Rows()
	if rows == 0 || ds.Cols() == 0 {
		return 0
	}

	seen := make(map[string]bool, rows)
	dupes := 0
	var sb strings.Builder
	for i := 0; i < rows; i++ {
		sb.Reset()
		for _, col := range ds.Columns {
			if col.Cells[i] == nil {
				sb.WriteString("\x00")
			} else {
				sb.WriteString(dataset.Format(col.Cells[i]))
			}
			sb.WriteString("\x1f")
		}
		key := sb.String()
		if seen[key] {
			dupes++
		} else {
			seen[key] = true
		}
	}
	return dupes
}
