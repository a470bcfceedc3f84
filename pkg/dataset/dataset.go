// pkg/dataset/dataset.go
package dataset

import (
	"errors"
	"fmt"
)

// Type identifies the logical type of a column.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "integer"
	TypeFloat  Type = "float"
	TypeBool   Type = "boolean"
	TypeDate   Type = "date"
)

// Valid reports whether t is one of the known logical types.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeDate:
		return true
	}
	return false
}

// Numeric reports whether the type supports arithmetic comparisons.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Column is an ordered sequence of nullable cells sharing one logical type.
// A nil cell means the value is missing. Non-nil cells hold string, int64,
// float64, bool or time.Time matching the column type.
type Column struct {
	Name  string
	Type  Type
	Cells []any
}

// Dataset is an ordered collection of equal-length named columns.
// Column order is significant for display only.
type Dataset struct {
	Columns []Column
}

// New builds a Dataset and checks its structural invariants:
// unique column names and equal column lengths.
func New(columns []Column) (*Dataset, error) {
	seen := make(map[string]bool, len(columns))
	rows := -1
	for _, col := range columns {
		if col.Name == "" {
			return nil, errors.New("column name cannot be empty")
		}
		if seen[col.Name] {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		seen[col.Name] = true

		if rows == -1 {
			rows = len(col.Cells)
		} else if len(col.Cells) != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, len(col.Cells), rows)
		}
	}
	return &Dataset{Columns: columns}, nil
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// Cols returns the column count.
func (d *Dataset) Cols() int {
	return len(d.Columns)
}

// Column returns the index of the named column, or -1 if absent.
// Lookup is case-sensitive.
func (d *Dataset) Column(name string) int {
	for i, col := range d.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in display order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// Clone returns a copy whose column slice is independent of the receiver.
// Cell slices are shared; transforms must allocate fresh cell slices for
// any column they modify rather than writing through shared ones.
func (d *Dataset) Clone() *Dataset {
	cols := make([]Column, len(d.Columns))
	copy(cols, d.Columns)
	return &Dataset{Columns: cols}
}

// ColumnTypes returns a name -> logical type mapping.
func (d *Dataset) ColumnTypes() map[string]Type {
	types := make(map[string]Type, len(d.Columns))
	for _, col := range d.Columns {
		types[col.Name] = col.Type
	}
	return types
}

// ApplyTypes materializes inferred logical types onto a dataset: every
// column listed in types is coerced cell-by-cell to its target type.
// Cells that fail coercion become missing. Columns absent from the map
// keep their current representation.
func ApplyTypes(d *Dataset, types map[string]Type) *Dataset {
	out := d.Clone()
	for i, col := range out.Columns {
		target, ok := types[col.Name]
		if !ok || target == col.Type {
			continue
		}
		cells := make([]any, len(col.Cells))
		for j, cell := range col.Cells {
			if cell == nil {
				continue
			}
			v, err := Coerce(cell, target)
			if err != nil {
				continue // missing
			}
			cells[j] = v
		}
		out.Columns[i] = Column{Name: col.Name, Type: target, Cells: cells}
	}
	return out
}
