// pkg/plan/plan.go

// Package plan defines the closed vocabulary of cleaning steps, the
// structural decoding of untrusted plan JSON, and the semantic
// validation of a decoded plan against a dataset profile.
//
// Plans are data, never code: each step is a tagged variant from a
// fixed op set with op-specific arguments. Decoding enforces shape
// (SchemaError); validation enforces meaning against the actual
// dataset (ValidationError). A decoded plan is never rewritten.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
)

// Op tags a cleaning step variant.
type Op string

const (
	OpTrimWhitespace   Op = "trim_whitespace"
	OpNormalizeCase    Op = "normalize_case"
	OpParseDate        Op = "parse_date"
	OpFillMissing      Op = "fill_missing"
	OpDropColumn       Op = "drop_column"
	OpDeduplicateRows  Op = "deduplicate_rows"
	OpCastType         Op = "cast_type"
	OpSplitColumn      Op = "split_column"
	OpClipRange        Op = "clip_range"
	OpRenameColumn     Op = "rename_column"
	OpStandardizeNulls Op = "standardize_nulls"
)

// Ops lists the full vocabulary in a stable order.
var Ops = []Op{
	OpTrimWhitespace, OpNormalizeCase, OpParseDate, OpFillMissing,
	OpDropColumn, OpDeduplicateRows, OpCastType, OpSplitColumn,
	OpClipRange, OpRenameColumn, OpStandardizeNulls,
}

// Known reports whether o is part of the vocabulary.
func (o Op) Known() bool {
	for _, known := range Ops {
		if o == known {
			return true
		}
	}
	return false
}

// Fill strategies for fill_missing.
const (
	FillMean   = "mean"
	FillMedian = "median"
	FillMode   = "mode"
)

// Case modes for normalize_case.
const (
	CaseLower = "lower"
	CaseUpper = "upper"
	CaseTitle = "title"
)

// StepArgs is implemented by the per-op argument structs.
type StepArgs interface {
	op() Op
}

// TrimArgs selects columns for whitespace trimming. An empty Columns
// list means every string column.
type TrimArgs struct {
	Columns []string `json:"columns,omitempty"`
}

// CaseArgs selects a column and a case mode (lower, upper, title).
type CaseArgs struct {
	Column string `json:"column"`
	Mode   string `json:"mode"`
}

// ParseDateArgs reparses a column under one explicit layout.
type ParseDateArgs struct {
	Column string `json:"column"`
	Format string `json:"format"`
}

// FillArgs fills missing cells with either a constant Value or a
// statistic Strategy (mean, median, mode). Exactly one of the two must
// be set; that is a shape rule, enforced at decode time.
type FillArgs struct {
	Column   string `json:"column"`
	Strategy string `json:"strategy,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// DropArgs removes a column.
type DropArgs struct {
	Column string `json:"column"`
}

// DedupeArgs drops exact duplicate rows over a key subset. An empty
// Columns list means all columns.
type DedupeArgs struct {
	Columns []string `json:"columns,omitempty"`
}

// CastArgs coerces a column to a logical type. The optional flags
// repair common numeric formatting before the cast: currency symbols,
// thousands separators, the letter O typed for a zero.
type CastArgs struct {
	Column         string       `json:"column"`
	Type           dataset.Type `json:"type"`
	AllowCurrency  bool         `json:"allow_currency,omitempty"`
	AllowThousands bool         `json:"allow_thousands,omitempty"`
	FixTypos       bool         `json:"fix_typos,omitempty"`
}

// SplitArgs splits a string column on a delimiter into new columns
// appended after the source.
type SplitArgs struct {
	Column    string   `json:"column"`
	Delimiter string   `json:"delimiter"`
	Into      []string `json:"into"`
}

// ClipArgs clamps a numeric column into [Lower, Upper].
type ClipArgs struct {
	Column string  `json:"column"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// RenameArgs renames a column in place.
type RenameArgs struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NullsArgs maps conventional null tokens to missing. Empty Columns
// means every string column; empty Tokens means the default token set.
type NullsArgs struct {
	Columns []string `json:"columns,omitempty"`
	Tokens  []string `json:"tokens,omitempty"`
}

func (TrimArgs) op() Op      { return OpTrimWhitespace }
func (CaseArgs) op() Op      { return OpNormalizeCase }
func (ParseDateArgs) op() Op { return OpParseDate }
func (FillArgs) op() Op      { return OpFillMissing }
func (DropArgs) op() Op      { return OpDropColumn }
func (DedupeArgs) op() Op    { return OpDeduplicateRows }
func (CastArgs) op() Op      { return OpCastType }
func (SplitArgs) op() Op     { return OpSplitColumn }
func (ClipArgs) op() Op      { return OpClipRange }
func (RenameArgs) op() Op    { return OpRenameColumn }
func (NullsArgs) op() Op     { return OpStandardizeNulls }

// Step is one tagged transform in a plan.
type Step struct {
	Op   Op
	Args StepArgs
}

// RequiredRule asserts that a column is present in the cleaned dataset.
type RequiredRule struct {
	Column string `json:"column"`
}

// RangeRule bounds the numeric values of a column. A nil bound is open.
type RangeRule struct {
	Column string   `json:"column"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// EnumRule restricts a column to a closed set of allowed values.
type EnumRule struct {
	Column  string   `json:"column"`
	Allowed []string `json:"allowed"`
}

// Validations are plan-level data quality rules. Unlike steps they never
// mutate the dataset: they are evaluated against the cleaned data after
// the last step and their results go into the run report.
type Validations struct {
	Required []RequiredRule `json:"required,omitempty"`
	Ranges   []RangeRule    `json:"ranges,omitempty"`
	Enums    []EnumRule     `json:"enums,omitempty"`
}

// Empty reports whether the plan carries no rules at all.
func (v Validations) Empty() bool {
	return len(v.Required) == 0 && len(v.Ranges) == 0 && len(v.Enums) == 0
}

// Plan is an ordered, immutable sequence of cleaning steps plus the
// data quality rules to evaluate once they have run.
type Plan struct {
	Version     int         `json:"version"`
	Summary     string      `json:"summary,omitempty"`
	Steps       []Step      `json:"steps"`
	Validations Validations `json:"validations"`
}

// SchemaError reports a structural violation in plan JSON: unknown op
// tags, unexpected or missing fields, wrong value shapes. StepIndex is
// -1 for plan-level problems.
type SchemaError struct {
	StepIndex int
	Reason    string
	Err       error
}

func (e *SchemaError) Error() string {
	where := "plan"
	if e.StepIndex >= 0 {
		where = fmt.Sprintf("step %d", e.StepIndex)
	}
	if e.Err != nil {
		return fmt.Sprintf("plan schema violation at %s: %s: %v", where, e.Reason, e.Err)
	}
	return fmt.Sprintf("plan schema violation at %s: %s", where, e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Decode parses untrusted plan JSON into a Plan. Every structural
// problem is reported as a *SchemaError; nothing is repaired or
// defaulted away.
func Decode(raw []byte) (*Plan, error) {
	var envelope struct {
		Version     int               `json:"version"`
		Summary     string            `json:"summary"`
		Steps       []json.RawMessage `json:"steps"`
		Validations json.RawMessage   `json:"validations"`
	}
	if err := strictDecode(raw, &envelope); err != nil {
		return nil, &SchemaError{StepIndex: -1, Reason: "malformed plan document", Err: err}
	}
	if envelope.Steps == nil {
		return nil, &SchemaError{StepIndex: -1, Reason: "plan has no steps field"}
	}

	p := &Plan{Version: envelope.Version, Summary: envelope.Summary, Steps: make([]Step, 0, len(envelope.Steps))}
	for i, rawStep := range envelope.Steps {
		step, err := decodeStep(i, rawStep)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, step)
	}

	if len(envelope.Validations) > 0 && string(envelope.Validations) != "null" {
		if err := strictDecode(envelope.Validations, &p.Validations); err != nil {
			return nil, &SchemaError{StepIndex: -1, Reason: "malformed validations block", Err: err}
		}
		if err := checkValidationsShape(p.Validations); err != nil {
			return nil, &SchemaError{StepIndex: -1, Reason: err.Error()}
		}
	}
	return p, nil
}

// checkValidationsShape enforces the structural rules of the
// validations block: every rule names a column.
func checkValidationsShape(v Validations) error {
	for i, r := range v.Required {
		if r.Column == "" {
			return fmt.Errorf("validations.required[%d] requires a column", i)
		}
	}
	for i, r := range v.Ranges {
		if r.Column == "" {
			return fmt.Errorf("validations.ranges[%d] requires a column", i)
		}
	}
	for i, r := range v.Enums {
		if r.Column == "" {
			return fmt.Errorf("validations.enums[%d] requires a column", i)
		}
	}
	return nil
}

func decodeStep(index int, raw json.RawMessage) (Step, error) {
	var header struct {
		Op   Op              `json:"op"`
		Args json.RawMessage `json:"args"`
	}
	if err := strictDecode(raw, &header); err != nil {
		return Step{}, &SchemaError{StepIndex: index, Reason: "malformed step object", Err: err}
	}
	if !header.Op.Known() {
		return Step{}, &SchemaError{StepIndex: index, Reason: fmt.Sprintf("unknown op %q", header.Op)}
	}
	if len(header.Args) == 0 {
		header.Args = json.RawMessage("{}")
	}

	args, err := decodeArgs(header.Op, header.Args)
	if err != nil {
		return Step{}, &SchemaError{StepIndex: index, Reason: fmt.Sprintf("invalid args for %s", header.Op), Err: err}
	}
	if err := checkShape(args); err != nil {
		return Step{}, &SchemaError{StepIndex: index, Reason: err.Error()}
	}
	return Step{Op: header.Op, Args: args}, nil
}

func decodeArgs(op Op, raw json.RawMessage) (StepArgs, error) {
	switch op {
	case OpTrimWhitespace:
		return strictArgs[TrimArgs](raw)
	case OpNormalizeCase:
		return strictArgs[CaseArgs](raw)
	case OpParseDate:
		return strictArgs[ParseDateArgs](raw)
	case OpFillMissing:
		return strictArgs[FillArgs](raw)
	case OpDropColumn:
		return strictArgs[DropArgs](raw)
	case OpDeduplicateRows:
		return strictArgs[DedupeArgs](raw)
	case OpCastType:
		return strictArgs[CastArgs](raw)
	case OpSplitColumn:
		return strictArgs[SplitArgs](raw)
	case OpClipRange:
		return strictArgs[ClipArgs](raw)
	case OpRenameColumn:
		return strictArgs[RenameArgs](raw)
	case OpStandardizeNulls:
		return strictArgs[NullsArgs](raw)
	default:
		return nil, fmt.Errorf("unknown op %q", op)
	}
}

func strictArgs[T StepArgs](raw json.RawMessage) (StepArgs, error) {
	var args T
	if err := strictDecode(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

func strictDecode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Trailing content after the document is a shape violation too.
	if dec.More() {
		return fmt.Errorf("unexpected trailing content")
	}
	return nil
}

// checkShape enforces per-op structural rules that json tags alone
// cannot express: required fields and mutual exclusion.
func checkShape(args StepArgs) error {
	switch a := args.(type) {
	case CaseArgs:
		if a.Column == "" {
			return fmt.Errorf("normalize_case requires a column")
		}
		if a.Mode == "" {
			return fmt.Errorf("normalize_case requires a mode")
		}
	case ParseDateArgs:
		if a.Column == "" {
			return fmt.Errorf("parse_date requires a column")
		}
		if a.Format == "" {
			return fmt.Errorf("parse_date requires a format")
		}
	case FillArgs:
		if a.Column == "" {
			return fmt.Errorf("fill_missing requires a column")
		}
		if (a.Strategy == "") == (a.Value == nil) {
			return fmt.Errorf("fill_missing requires exactly one of strategy or value")
		}
	case DropArgs:
		if a.Column == "" {
			return fmt.Errorf("drop_column requires a column")
		}
	case CastArgs:
		if a.Column == "" {
			return fmt.Errorf("cast_type requires a column")
		}
		if a.Type == "" {
			return fmt.Errorf("cast_type requires a target type")
		}
	case SplitArgs:
		if a.Column == "" {
			return fmt.Errorf("split_column requires a column")
		}
	case ClipArgs:
		if a.Column == "" {
			return fmt.Errorf("clip_range requires a column")
		}
	case RenameArgs:
		if a.From == "" || a.To == "" {
			return fmt.Errorf("rename_column requires from and to")
		}
	}
	return nil
}

// MarshalJSON renders the step back in its wire shape.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   Op       `json:"op"`
		Args StepArgs `json:"args"`
	}{Op: s.Op, Args: s.Args})
}

// UnmarshalJSON decodes a single step; used when plans round-trip
// through reports. Step indexes are unknown here, so schema errors
// carry index -1.
func (s *Step) UnmarshalJSON(raw []byte) error {
	step, err := decodeStep(-1, raw)
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// Default returns a conservative plan applicable to any dataset:
// trim whitespace, standardize null tokens, drop duplicate rows.
func Default() *Plan {
	return &Plan{
		Version: 1,
		Summary: "baseline cleanup: trim, standardize nulls, deduplicate",
		Steps: []Step{
			{Op: OpTrimWhitespace, Args: TrimArgs{}},
			{Op: OpStandardizeNulls, Args: NullsArgs{}},
			{Op: OpDeduplicateRows, Args: DedupeArgs{}},
		},
	}
}
