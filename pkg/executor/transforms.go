// pkg/executor/transforms.go
package executor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/plan"
)

// columnIndex resolves a column name or fails the step. Validation has
// already checked existence, so a miss here is an internal fault.
func columnIndex(ds *dataset.Dataset, name string) (int, error) {
	idx := ds.Column(name)
	if idx < 0 {
		return 0, fmt.Errorf("column %q not found", name)
	}
	return idx, nil
}

// stringTargets resolves an explicit column list, defaulting to every
// string-typed column when the list is empty.
func stringTargets(ds *dataset.Dataset, columns []string) ([]int, error) {
	if len(columns) == 0 {
		var idxs []int
		for i, col := range ds.Columns {
			if col.Type == dataset.TypeString {
				idxs = append(idxs, i)
			}
		}
		return idxs, nil
	}
	idxs := make([]int, 0, len(columns))
	for _, name := range columns {
		idx, err := columnIndex(ds, name)
		if err != nil {
			return nil, err
		}
		idxs = append(idxs, idx)
	}
	return idxs, nil
}

func trimWhitespace(ds *dataset.Dataset, args plan.TrimArgs) (*dataset.Dataset, result, error) {
	idxs, err := stringTargets(ds, args.Columns)
	if err != nil {
		return nil, result{}, err
	}

	out := ds.Clone()
	res := result{}
	touched := make(map[int]bool)
	for _, idx := range idxs {
		col := out.Columns[idx]
		res.columns = append(res.columns, col.Name)
		cells := make([]any, len(col.Cells))
		copy(cells, col.Cells)
		for j, cell := range cells {
			s, ok := cell.(string)
			if !ok {
				continue
			}
			trimmed := strings.TrimSpace(s)
			if trimmed == s {
				continue
			}
			if trimmed == "" {
				cells[j] = nil
			} else {
				cells[j] = trimmed
			}
			res.valuesChanged++
			touched[j] = true
		}
		out.Columns[idx] = dataset.Column{Name: col.Name, Type: col.Type, Cells: cells}
	}
	res.rowsAffected = len(touched)
	res.description = fmt.Sprintf("trimmed whitespace in %d column(s)", len(idxs))
	return out, res, nil
}

func normalizeCase(ds *dataset.Dataset, args plan.CaseArgs) (*dataset.Dataset, result, error) {
	idx, err := columnIndex(ds, args.Column)
	if err != nil {
		return nil, result{}, err
	}

	var transform func(string) string
	switch args.Mode {
	case plan.CaseLower:
		transform = strings.ToLower
	case plan.CaseUpper:
		transform = strings.ToUpper
	case plan.CaseTitle:
		caser := cases.Title(language.Und)
		transform = caser.String
	default:
		return nil, result{}, fmt.Errorf("unknown case mode %q", args.Mode)
	}

	out := ds.Clone()
	col := out.Columns[idx]
	cells := make([]any, len(col.Cells))
	copy(cells, col.Cells)
	res := result{columns: []string{col.Name}}
	for j, cell := range cells {
		s, ok := cell.(string)
		if !ok {
			continue
		}
		if next := transform(s); next != s {
			cells[j] = next
			res.valuesChanged++
			res.rowsAffected++
		}
	}
	out.Columns[idx] = dataset.Column{Name: col.Name, Type: col.Type, Cells: cells}
	res.description = fmt.Sprintf("normalized %q to %s case", col.Name, args.Mode)
	return out, res, nil
}

func parseDates(ds *dataset.Dataset, args plan.ParseDateArgs) (*dataset.Dataset, result, error) {
	idx, err := columnIndex(ds, args.Column)
	if err != nil {
		return nil, result{}, err
	}

	out := ds.Clone()
	col := out.Columns[idx]
	cells := make([]any, len(col.Cells))
	res := result{columns: []string{col.Name}}
	failures := 0
	for j, cell := range col.Cells {
		if cell == nil {
			continue
		}
		before := dataset.Format(cell)
		t, err := dataset.ParseDate(before, args.Format)
		if err != nil {
			// Unparseable values become missing; that counts as a change.
			failures++
			res.valuesChanged++
			res.rowsAffected++
			continue
		}
		cells[j] = t
		if dataset.Format(t) != before {
			res.valuesChanged++
			res.rowsAffected++
		}
	}
	out.Columns[idx] = dataset.Column{Name: col.Name, Type: dataset.TypeDate, Cells: cells}
	res.description = fmt.Sprintf("parsed %q as dates with layout %q (%d unparseable)", col.Name, args.Format, failures)
	return out, res, nil
}

func fillMissing(ds *dataset.Dataset, args plan.FillArgs) (*dataset.Dataset, result, error) {
	idx, err := columnIndex(ds, args.Column)
	if err != nil {
		return nil, result{}, err
	}
	col := ds.Columns[idx]

	fill, how, err := fillValue(col, args)
	if err != nil {
		return nil, result{}, err
	}

	out := ds.Clone()
	cells := make([]any, len(col.Cells))
	copy(cells, col.Cells)
	res := result{columns: []string{col.Name}}
	for j, cell := range cells {
		if cell == nil {
			cells[j] = fill
			res.valuesChanged++
			res.rowsAffected++
		}
	}
	out.Columns[idx] = dataset.Column{Name: col.Name, Type: col.Type, Cells: cells}
	res.description = fmt.Sprintf("filled missing values in %q with %s", col.Name, how)
	return out, res, nil
}

// fillValue resolves the replacement value for fill_missing: either the
// coerced constant or a statistic computed over the column's non-missing
// values at this point in the plan.
func fillValue(col dataset.Column, args plan.FillArgs) (any, string, error) {
	if args.Value != nil {
		v, err := dataset.Coerce(args.Value, col.Type)
		if err != nil {
			return nil, "", fmt.Errorf("fill value %v is not a valid %s: %w", args.Value, col.Type, err)
		}
		return v, fmt.Sprintf("constant %s", dataset.Format(v)), nil
	}

	switch args.Strategy {
	case plan.FillMean, plan.FillMedian:
		nums := make([]float64, 0, len(col.Cells))
		for _, cell := range col.Cells {
			switch v := cell.(type) {
			case int64:
				nums = append(nums, float64(v))
			case float64:
				nums = append(nums, v)
			}
		}
		if len(nums) == 0 {
			return nil, "", fmt.Errorf("cannot compute %s of %q: no numeric values", args.Strategy, col.Name)
		}
		var stat float64
		if args.Strategy == plan.FillMean {
			sum := 0.0
			for _, n := range nums {
				sum += n
			}
			stat = sum / float64(len(nums))
		} else {
			sort.Float64s(nums)
			mid := len(nums) / 2
			if len(nums)%2 == 0 {
				stat = (nums[mid-1] + nums[mid]) / 2
			} else {
				stat = nums[mid]
			}
		}
		if col.Type == dataset.TypeInt {
			return int64(math.Round(stat)), args.Strategy, nil
		}
		return stat, args.Strategy, nil

	case plan.FillMode:
		counts := make(map[string]int)
		values := make(map[string]any)
		order := []string{}
		for _, cell := range col.Cells {
			if cell == nil {
				continue
			}
			key := dataset.Format(cell)
			if counts[key] == 0 {
				order = append(order, key)
				values[key] = cell
			}
			counts[key]++
		}
		if len(order) == 0 {
			return nil, "", fmt.Errorf("cannot compute mode of %q: no values", col.Name)
		}
		// Ties resolve to the first-encountered value so runs stay
		// deterministic.
		best := order[0]
		for _, key := range order[1:] {
			if counts[key] > counts[best] {
				best = key
			}
		}
		return values[best], plan.FillMode, nil

	default:
		return nil, "", fmt.Errorf("unknown fill strategy %q", args.Strategy)
	}
}

func dropColumn(ds *dataset.Dataset, args plan.DropArgs) (*dataset.Dataset, result, error) {
	idx, err := columnIndex(ds, args.Column)
	if err != nil {
		return nil, result{}, err
	}

	cols := make([]dataset.Column, 0, len(ds.Columns)-1)
	cols = append(cols, ds.Columns[:idx]...)
	cols = append(cols, ds.Columns[idx+1:]...)
	out, err := dataset.New(cols)
	if err != nil {
		return nil, result{}, err
	}
	res := result{
		columns:       []string{args.Column},
		rowsAffected:  ds.Rows(),
		valuesChanged: ds.Rows(),
		description:   fmt.Sprintf("dropped column %q", args.Column),
	}
	return out, res, nil
}

func deduplicateRows(ds *dataset.Dataset, args plan.DedupeArgs) (*dataset.Dataset, result, error) {
	keyCols := args.Columns
	if len(keyCols) == 0 {
		keyCols = ds.Names()
	}
	keyIdxs := make([]int, 0, len(keyCols))
	for _, name := range keyCols {
		idx, err := columnIndex(ds, name)
		if err != nil {
			return nil, result{}, err
		}
		keyIdxs = append(keyIdxs, idx)
	}

	rows := ds.Rows()
	seen := make(map[string]bool, rows)
	keep := make([]int, 0, rows)
	var sb strings.Builder
	for i := 0; i < rows; i++ {
		sb.Reset()
		for _, idx := range keyIdxs {
			cell := ds.Columns[idx].Cells[i]
			if cell == nil {
				sb.WriteString("\x00")
			} else {
				sb.WriteString(dataset.Format(cell))
			}
			sb.WriteString("\x1f")
		}
		key := sb.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, i)
	}

	cols := make([]dataset.Column, len(ds.Columns))
	for c, col := range ds.Columns {
		cells := make([]any, len(keep))
		for k, i := range keep {
			cells[k] = col.Cells[i]
		}
		cols[c] = dataset.Column{Name: col.Name, Type: col.Type, Cells: cells}
	}
	out, err := dataset.New(cols)
	if err != nil {
		return nil, result{}, err
	}

	removed := rows - len(keep)
	res := result{
		columns:       keyCols,
		rowsAffected:  removed,
		valuesChanged: removed * ds.Cols(),
		description:   fmt.Sprintf("removed %d duplicate row(s)", removed),
	}
	return out, res, nil
}

func castType(ds *dataset.Dataset, args plan.CastArgs) (*dataset.Dataset, result, error) {
	idx, err := columnIndex(ds, args.Column)
	if err != nil {
		return nil, result{}, err
	}
	if !args.Type.Valid() {
		return nil, result{}, fmt.Errorf("unknown target type %q", args.Type)
	}

	out := ds.Clone()
	col := out.Columns[idx]
	cells := make([]any, len(col.Cells))
	missing := 0
	repair := args.Type.Numeric() && (args.AllowCurrency || args.AllowThousands || args.FixTypos)
	for j, cell := range col.Cells {
		if cell == nil {
			missing++
			continue
		}
		if s, ok := cell.(string); ok && repair {
			if cleaned := repairNumericString(s, args); cleaned != "" {
				cell = cleaned
			}
		}
		v, err := dataset.Coerce(cell, args.Type)
		if err != nil {
			missing++
			continue
		}
		cells[j] = v
	}
	out.Columns[idx] = dataset.Column{Name: col.Name, Type: args.Type, Cells: cells}

	// The audited count for a cast is the number of cells missing after
	// it: unconvertible inputs and already-missing inputs alike.
	res := result{
		columns:       []string{col.Name},
		rowsAffected:  missing,
		valuesChanged: missing,
		description:   fmt.Sprintf("cast %q to %s (%d missing after cast)", col.Name, args.Type, missing),
	}
	return out, res, nil
}

// repairNumericString applies the cast's opt-in formatting repairs so
// values like "$1,234" or "1O0" survive a numeric cast instead of
// becoming missing.
func repairNumericString(s string, args plan.CastArgs) string {
	s = strings.TrimSpace(s)
	if args.FixTypos {
		s = strings.Map(func(r rune) rune {
			if r == 'o' || r == 'O' {
				return '0'
			}
			return r
		}, s)
	}
	if args.AllowCurrency {
		for _, sym := range "$€£¥" {
			s = strings.ReplaceAll(s, string(sym), "")
		}
	}
	if args.AllowThousands {
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, " ", "")
		s = stripSeparatorDots(s)
	}
	return strings.TrimSpace(s)
}

// stripSeparatorDots removes dots used as thousands separators: a dot
// between a digit and a group of exactly three digits ("2.278.845").
// A trailing group of any other length is a decimal point and stays.
func stripSeparatorDots(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	isDigit := func(c byte) bool { return c >= '0' && c <= '9' }
	separator := func(i int) bool {
		if i == 0 || !isDigit(s[i-1]) || len(s)-(i+1) < 3 {
			return false
		}
		if !isDigit(s[i+1]) || !isDigit(s[i+2]) || !isDigit(s[i+3]) {
			return false
		}
		return i+4 == len(s) || !isDigit(s[i+4])
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '.' && separator(i) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func splitColumn(ds *dataset.Dataset, args plan.SplitArgs) (*dataset.Dataset, result, error) {
	idx, err := columnIndex(ds, args.Column)
	if err != nil {
		return nil, result{}, err
	}
	if args.Delimiter == "" {
		return nil, result{}, fmt.Errorf("delimiter cannot be empty")
	}
	if len(args.Into) == 0 {
		return nil, result{}, fmt.Errorf("at least one output column is required")
	}

	src := ds.Columns[idx]
	rows := len(src.Cells)
	parts := make([][]any, len(args.Into))
	for k := range parts {
		parts[k] = make([]any, rows)
	}

	split := 0
	for j, cell := range src.Cells {
		if cell == nil {
			continue
		}
		pieces := strings.Split(dataset.Format(cell), args.Delimiter)
		for k := range args.Into {
			if k < len(pieces) {
				if piece := strings.TrimSpace(pieces[k]); piece != "" {
					parts[k][j] = piece
				}
			}
		}
		split++
	}

	cols := make([]dataset.Column, 0, len(ds.Columns)+len(args.Into))
	cols = append(cols, ds.Columns[:idx+1]...)
	for k, name := range args.Into {
		cols = append(cols, dataset.Column{Name: name, Type: dataset.TypeString, Cells: parts[k]})
	}
	cols = append(cols, ds.Columns[idx+1:]...)
	out, err := dataset.New(cols)
	if err != nil {
		return nil, result{}, err
	}

	res := result{
		columns:       append([]string{args.Column}, args.Into...),
		rowsAffected:  split,
		valuesChanged: split * len(args.Into),
		description:   fmt.Sprintf("split %q on %q into %d column(s)", args.Column, args.Delimiter, len(args.Into)),
	}
	return out, res, nil
}

func clipRange(ds *dataset.Dataset, args plan.ClipArgs) (*dataset.Dataset, result, error) {
	idx, err := columnIndex(ds, args.Column)
	if err != nil {
		return nil, result{}, err
	}
	col := ds.Columns[idx]
	if !col.Type.Numeric() {
		return nil, result{}, fmt.Errorf("column %q is %s, expected a numeric column", col.Name, col.Type)
	}
	if args.Lower > args.Upper {
		return nil, result{}, fmt.Errorf("lower bound %v exceeds upper bound %v", args.Lower, args.Upper)
	}

	out := ds.Clone()
	cells := make([]any, len(col.Cells))
	copy(cells, col.Cells)
	res := result{columns: []string{col.Name}}
	for j, cell := range cells {
		switch v := cell.(type) {
		case float64:
			if clamped := math.Min(math.Max(v, args.Lower), args.Upper); clamped != v {
				cells[j] = clamped
				res.valuesChanged++
				res.rowsAffected++
			}
		case int64:
			lo := int64(math.Ceil(args.Lower))
			hi := int64(math.Floor(args.Upper))
			clamped := v
			if clamped < lo {
				clamped = lo
			}
			if clamped > hi {
				clamped = hi
			}
			if clamped != v {
				cells[j] = clamped
				res.valuesChanged++
				res.rowsAffected++
			}
		}
	}
	out.Columns[idx] = dataset.Column{Name: col.Name, Type: col.Type, Cells: cells}
	res.description = fmt.Sprintf("clipped %q into [%v, %v]", col.Name, args.Lower, args.Upper)
	return out, res, nil
}

func renameColumn(ds *dataset.Dataset, args plan.RenameArgs) (*dataset.Dataset, result, error) {
	idx, err := columnIndex(ds, args.From)
	if err != nil {
		return nil, result{}, err
	}
	if args.To != args.From && ds.Column(args.To) >= 0 {
		return nil, result{}, fmt.Errorf("target name %q already exists", args.To)
	}

	out := ds.Clone()
	col := out.Columns[idx]
	out.Columns[idx] = dataset.Column{Name: args.To, Type: col.Type, Cells: col.Cells}
	res := result{
		columns:     []string{args.From, args.To},
		description: fmt.Sprintf("renamed %q to %q", args.From, args.To),
	}
	return out, res, nil
}

func standardizeNulls(ds *dataset.Dataset, args plan.NullsArgs) (*dataset.Dataset, result, error) {
	idxs, err := stringTargets(ds, args.Columns)
	if err != nil {
		return nil, result{}, err
	}

	isNull := dataset.IsNullToken
	if len(args.Tokens) > 0 {
		tokens := make(map[string]bool, len(args.Tokens))
		for _, t := range args.Tokens {
			tokens[strings.ToLower(strings.TrimSpace(t))] = true
		}
		isNull = func(s string) bool {
			return tokens[strings.ToLower(strings.TrimSpace(s))]
		}
	}

	out := ds.Clone()
	res := result{}
	touched := make(map[int]bool)
	for _, idx := range idxs {
		col := out.Columns[idx]
		res.columns = append(res.columns, col.Name)
		cells := make([]any, len(col.Cells))
		copy(cells, col.Cells)
		for j, cell := range cells {
			s, ok := cell.(string)
			if !ok {
				continue
			}
			if isNull(s) {
				cells[j] = nil
				res.valuesChanged++
				touched[j] = true
			}
		}
		out.Columns[idx] = dataset.Column{Name: col.Name, Type: col.Type, Cells: cells}
	}
	res.rowsAffected = len(touched)
	res.description = fmt.Sprintf("standardized null tokens in %d column(s)", len(idxs))
	return out, res, nil
}
