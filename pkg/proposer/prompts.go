// pkg/proposer/prompts.go
package proposer

import (
	"encoding/json"
	"fmt"

	"github.com/rajansavani/csv-cleaner/pkg/profile"
)

// systemPrompt pins the model to the closed plan vocabulary and the
// exact JSON shape the decoder accepts. The vocabulary here must stay
// in lockstep with pkg/plan.
const systemPrompt = `You are a data-cleaning planner. Given a profile of a tabular dataset,
propose a cleaning plan as a single JSON object and nothing else.

The plan object has this shape:
{"version": 1, "summary": "<one sentence>", "steps": [{"op": "...", "args": {...}}, ...],
 "validations": {"required": [...], "ranges": [...], "enums": [...]}}

Only these ops exist. Any other op, or any extra argument field, makes the plan invalid:
- trim_whitespace      args: {"columns": [names]} (omit for all string columns)
- normalize_case       args: {"column": name, "mode": "lower"|"upper"|"title"}
- parse_date           args: {"column": name, "format": layout}
- fill_missing         args: {"column": name, "strategy": "mean"|"median"|"mode"} or {"column": name, "value": constant}
- drop_column          args: {"column": name}
- deduplicate_rows     args: {"columns": [names]} (omit for all columns)
- cast_type            args: {"column": name, "type": "string"|"integer"|"float"|"boolean"|"date"}
                       optional flags: "allow_currency", "allow_thousands", "fix_typos" (booleans)
                       to strip currency symbols and thousands separators and repair O-for-0 typos
                       before a numeric cast
- split_column         args: {"column": name, "delimiter": text, "into": [new names]}
- clip_range           args: {"column": name, "lower": number, "upper": number}
- rename_column        args: {"from": name, "to": name}
- standardize_nulls    args: {"columns": [names]} (omit for all string columns)

The optional validations block declares data quality rules checked against the
cleaned data after all steps have run. Rules never modify data:
- required  [{"column": name}, ...]                          the column must survive the plan
- ranges    [{"column": name, "min": number, "max": number}] numeric values must fall inside; either bound may be omitted
- enums     [{"column": name, "allowed": [values]}]          every non-missing value must be in the allowed list

Rules:
- Reference only columns that exist in the profile, with exact case.
- Order steps so each one sees the columns and types left by the steps before it:
  cast a column to a numeric type before clipping it.
- Date formats must be Go reference layouts such as "2006-01-02" or "01/02/2006".
- Prefer few, well-justified steps over many speculative ones.
- Output JSON only. No prose, no markdown.`

// userPrompt renders the profile the model plans against.
func userPrompt(prof *profile.Profile) (string, error) {
	encoded, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}
	return fmt.Sprintf("Propose a cleaning plan for the dataset with this profile:\n\n%s", encoded), nil
}
