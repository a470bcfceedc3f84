// pkg/ingest/ingest.go
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
)

// Error marks a failure to turn external input into a Dataset. It is a
// distinct failure mode from plan validation or execution errors.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingestion failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("ingestion failed: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// candidate delimiters, tried in order when sniffing is inconclusive.
var delimiters = []rune{',', ';', '\t', '|'}

// Decode parses raw delimited text into an all-string Dataset.
//
// Messy real-world inputs are tolerated where possible:
//   - UTF-8 (with or without BOM), cp1252 and latin-1 encodings
//   - comma, semicolon, tab or pipe delimiters (sniffed from a sample)
//
// Every cell is kept as its raw string; cells that are empty after
// trimming become missing. Ragged rows and duplicate headers are
// reported as an *Error rather than silently repaired.
func Decode(raw []byte) (*dataset.Dataset, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &Error{Reason: "empty input"}
	}

	text, err := decodeText(raw)
	if err != nil {
		return nil, &Error{Reason: "undecodable input", Err: err}
	}

	delim := sniffDelimiter(sample(text, 50_000))

	var lastErr error
	for _, d := range orderedCandidates(delim) {
		ds, err := parseCSV(text, d)
		if err != nil {
			lastErr = err
			continue
		}
		// A single parsed column under a non-comma delimiter usually
		// means the delimiter guess was wrong; keep trying.
		if ds.Cols() <= 1 && d != ',' {
			lastErr = fmt.Errorf("delimiter %q produced a single column", d)
			continue
		}
		return ds, nil
	}
	return nil, &Error{Reason: "could not parse input with any known delimiter", Err: lastErr}
}

// decodeText converts raw bytes to a UTF-8 string, trying common encodings.
func decodeText(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) // UTF-8 BOM

	if utf8.Valid(raw) {
		return string(raw), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		decoded, err := cm.NewDecoder().Bytes(raw)
		if err == nil {
			return string(decoded), nil
		}
	}
	return "", errors.New("input is not UTF-8, cp1252 or latin-1")
}

// sniffDelimiter picks the candidate that appears most often in the
// sample's first line, mirroring a CSV dialect sniffer. Returns 0 when
// no candidate appears at all.
func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}

	best := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// orderedCandidates puts the sniffed delimiter first, then the defaults,
// skipping duplicates.
func orderedCandidates(sniffed rune) []rune {
	out := make([]rune, 0, len(delimiters)+1)
	if sniffed != 0 {
		out = append(out, sniffed)
	}
	for _, d := range delimiters {
		if d != sniffed {
			out = append(out, d)
		}
	}
	return out
}

func sample(text string, n int) string {
	if len(text) > n {
		return text[:n]
	}
	return text
}

// parseCSV reads the full text under one delimiter into a Dataset.
func parseCSV(text string, delim rune) (*dataset.Dataset, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv parse error: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("no rows found")
	}

	header := records[0]
	columns := make([]dataset.Column, len(header))
	for i, name := range header {
		columns[i] = dataset.Column{
			Name:  strings.TrimSpace(name),
			Type:  dataset.TypeString,
			Cells: make([]any, 0, len(records)-1),
		}
	}

	for _, record := range records[1:] {
		for i := range columns {
			cell := record[i]
			if strings.TrimSpace(cell) == "" {
				columns[i].Cells = append(columns[i].Cells, nil)
			} else {
				columns[i].Cells = append(columns[i].Cells, cell)
			}
		}
	}

	ds, err := dataset.New(columns)
	if err != nil {
		return nil, err
	}
	return ds, nil
}
