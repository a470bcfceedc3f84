// pkg/dataset/csv.go
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// EncodeCSV serializes a dataset as CSV: one header row of column names
// followed by one row per record, cells in canonical form, missing cells
// as empty fields. Output is deterministic for identical datasets.
func EncodeCSV(d *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(d.Names()); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	rows := d.Rows()
	record := make([]string, d.Cols())
	for i := 0; i < rows; i++ {
		for j, col := range d.Columns {
			record[j] = Format(col.Cells[i])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
