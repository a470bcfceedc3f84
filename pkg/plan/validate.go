// pkg/plan/validate.go
package plan

import (
	"fmt"
	"strings"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/profile"
)

// Issue is one semantic problem found while validating a plan against
// a profile. Issues are ordered by step index.
type Issue struct {
	StepIndex int    `json:"step_index"`
	Op        Op     `json:"op"`
	Message   string `json:"message"`
}

func (i Issue) String() string {
	if i.StepIndex < 0 {
		return fmt.Sprintf("validations: %s", i.Message)
	}
	return fmt.Sprintf("step %d (%s): %s", i.StepIndex, i.Op, i.Message)
}

// ValidationError carries every semantic issue found in a plan, not
// just the first one.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("plan validation failed with %d issue(s): %s",
		len(e.Issues), strings.Join(msgs, "; "))
}

// Check validates p against prof and returns a *ValidationError when
// any issue exists, nil otherwise.
func Check(p *Plan, prof *profile.Profile) error {
	if issues := Validate(p, prof); len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Validate evaluates every step of p against prof and returns all
// semantic issues found. The column set and column types are simulated
// through the plan in order, so a step is judged against the dataset
// shape it would actually see: drops remove columns, splits and
// renames add or move them, casts and date parses retype them.
//
// Validation is pure and idempotent; it never touches a dataset.
func Validate(p *Plan, prof *profile.Profile) []Issue {
	sim := make(map[string]dataset.Type, len(prof.Columns))
	for _, cp := range prof.Columns {
		sim[cp.Name] = cp.Type
	}

	var issues []Issue
	add := func(i int, op Op, format string, args ...any) {
		issues = append(issues, Issue{StepIndex: i, Op: op, Message: fmt.Sprintf(format, args...)})
	}

	// Validation rules are checked first. They run against the cleaned
	// dataset, whose columns are unknowable here, so only the rules
	// themselves are judged: column existence is settled at run time.
	for ri, r := range p.Validations.Ranges {
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			add(-1, "", "ranges[%d]: min %v exceeds max %v for column %q", ri, *r.Min, *r.Max, r.Column)
		}
	}
	for ri, r := range p.Validations.Enums {
		if len(r.Allowed) == 0 {
			add(-1, "", "enums[%d]: allowed values cannot be empty for column %q", ri, r.Column)
		}
	}
	exists := func(i int, op Op, column string) bool {
		if _, ok := sim[column]; !ok {
			add(i, op, "column %q does not exist at this point in the plan", column)
			return false
		}
		return true
	}

	for i, step := range p.Steps {
		switch args := step.Args.(type) {
		case TrimArgs:
			for _, c := range args.Columns {
				exists(i, step.Op, c)
			}

		case CaseArgs:
			exists(i, step.Op, args.Column)
			switch args.Mode {
			case CaseLower, CaseUpper, CaseTitle:
			default:
				add(i, step.Op, "unknown case mode %q", args.Mode)
			}

		case ParseDateArgs:
			ok := exists(i, step.Op, args.Column)
			if !dataset.SupportedDateLayout(args.Format) {
				add(i, step.Op, "unsupported date format %q", args.Format)
			}
			if ok {
				sim[args.Column] = dataset.TypeDate
			}

		case FillArgs:
			if !exists(i, step.Op, args.Column) {
				break
			}
			t := sim[args.Column]
			switch args.Strategy {
			case FillMean, FillMedian:
				if !t.Numeric() {
					add(i, step.Op, "strategy %q requires a numeric column, %q is %s", args.Strategy, args.Column, t)
				}
			case FillMode, "":
			default:
				add(i, step.Op, "unknown fill strategy %q", args.Strategy)
			}
			if args.Value != nil {
				if _, err := dataset.Coerce(args.Value, t); err != nil {
					add(i, step.Op, "fill value %v is not a valid %s", args.Value, t)
				}
			}

		case DropArgs:
			if exists(i, step.Op, args.Column) {
				delete(sim, args.Column)
			}

		case DedupeArgs:
			for _, c := range args.Columns {
				exists(i, step.Op, c)
			}

		case CastArgs:
			ok := exists(i, step.Op, args.Column)
			if !args.Type.Valid() {
				add(i, step.Op, "unknown target type %q", args.Type)
			} else if ok {
				sim[args.Column] = args.Type
			}

		case SplitArgs:
			exists(i, step.Op, args.Column)
			if args.Delimiter == "" {
				add(i, step.Op, "delimiter cannot be empty")
			}
			if len(args.Into) == 0 {
				add(i, step.Op, "at least one output column is required")
			}
			for _, name := range args.Into {
				if name == "" {
					add(i, step.Op, "output column names cannot be empty")
					continue
				}
				if _, taken := sim[name]; taken {
					add(i, step.Op, "output column %q collides with an existing column", name)
					continue
				}
				sim[name] = dataset.TypeString
			}

		case ClipArgs:
			if exists(i, step.Op, args.Column) {
				if t := sim[args.Column]; !t.Numeric() {
					add(i, step.Op, "column %q is %s, clip_range requires a numeric column", args.Column, t)
				}
			}
			if args.Lower > args.Upper {
				add(i, step.Op, "lower bound %v exceeds upper bound %v", args.Lower, args.Upper)
			}

		case RenameArgs:
			if !exists(i, step.Op, args.From) {
				break
			}
			if args.To == args.From {
				break
			}
			if _, taken := sim[args.To]; taken {
				add(i, step.Op, "target name %q collides with an existing column", args.To)
				break
			}
			sim[args.To] = sim[args.From]
			delete(sim, args.From)

		case NullsArgs:
			for _, c := range args.Columns {
				exists(i, step.Op, c)
			}

		default:
			add(i, step.Op, "step has no validatable arguments")
		}
	}
	return issues
}
