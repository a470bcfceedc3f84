// pkg/dataset/values.go
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayouts is the closed set of date layouts the pipeline accepts,
// both for type inference and for parse_date plan steps. Order matters:
// earlier layouts win when a value parses under more than one.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"02.01.2006",
	"01-02-2006",
}

// SupportedDateLayout reports whether layout is in the accepted set.
func SupportedDateLayout(layout string) bool {
	for _, l := range DateLayouts {
		if l == layout {
			return true
		}
	}
	return false
}

// nullTokens are string values treated as missing by standardize_nulls
// and by ingestion. Comparison is case-insensitive after trimming.
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"none": true,
	"nan":  true,
	"-":    true,
	"—":    true,
}

// IsNullToken reports whether s is a conventional missing-value marker.
func IsNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// Coerce converts a cell value to the target logical type.
// It never returns a nil value with a nil error; callers map coercion
// failures to missing cells themselves.
func Coerce(v any, target Type) (any, error) {
	if v == nil {
		return nil, errors.New("nil value")
	}
	switch target {
	case TypeString:
		return Format(v), nil
	case TypeInt:
		return toInt(v)
	case TypeFloat:
		return toFloat(v)
	case TypeBool:
		return toBool(v)
	case TypeDate:
		return toDate(v)
	default:
		return nil, fmt.Errorf("unknown target type %q", target)
	}
}

// toInt attempts to convert a value to int64.
func toInt(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case float64:
		if val != float64(int64(val)) {
			return 0, fmt.Errorf("float %v has a fractional part", val)
		}
		return int64(val), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, errors.New("empty string")
		}
		return strconv.ParseInt(cleaned, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", v)
	}
}

// toFloat attempts to convert a value to float64.
func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, errors.New("empty string")
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, err
		}
		// ParseFloat accepts "nan" and "inf" spellings; those are
		// missing-value markers here, never numbers.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("non-finite value %q", val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

// toBool attempts to convert a value to bool.
func toBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case int64:
		return val != 0, nil
	case string:
		cleaned := strings.TrimSpace(strings.ToLower(val))
		switch cleaned {
		case "true", "t", "yes", "y":
			return true, nil
		case "false", "f", "no", "n":
			return false, nil
		default:
			return false, fmt.Errorf("cannot parse %q as boolean", val)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", v)
	}
}

// toDate attempts to convert a value to time.Time using the accepted layouts.
func toDate(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return time.Time{}, errors.New("empty string")
		}
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as date", cleaned)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to date", v)
	}
}

// ParseDate parses s under a single explicit layout.
func ParseDate(s, layout string) (time.Time, error) {
	return time.Parse(layout, strings.TrimSpace(s))
}

// Format renders a cell value in its canonical string form. The mapping
// is fixed so that identical datasets always serialize identically:
// ints in base 10, floats via the shortest round-trip representation,
// bools as true/false, dates as 2006-01-02 (with time when non-zero).
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}
