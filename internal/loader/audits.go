package loader

import (
	"fmt"
	"sort"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/model"
)

// convertAudits accepts both the canonical {type, columns, ...} list
// form and the legacy shorthand keys (not_null, positive_values,
// unique_combination, accepted_values) and coerces everything to
// []model.Audit (spec §4.2). Shorthand entries are appended after
// canonical ones in a fixed order: not_null, positive_values,
// unique_combination, then accepted_values sorted by column name.
func convertAudits(v any, diags *cerrors.Diagnostics, modelName string) []model.Audit {
	am, ok := v.(map[string]any)
	if !ok {
		// Also accept the bare canonical list form: audits: [{type: ...}, ...]
		if list, ok := v.([]any); ok {
			return convertCanonicalAuditList(list, diags, modelName)
		}
		return nil
	}

	var out []model.Audit

	if list, ok := am["audits"].([]any); ok {
		out = append(out, convertCanonicalAuditList(list, diags, modelName)...)
	}

	if cols := stringList(am["not_null"]); cols != nil {
		out = append(out, model.Audit{Variant: model.AuditNotNull, Columns: cols})
	}
	if cols := stringList(am["positive_values"]); cols != nil {
		out = append(out, model.Audit{Variant: model.AuditPositiveValues, Columns: cols})
	}
	if groups, ok := am["unique_combination"].([]any); ok {
		for _, g := range groups {
			cols := stringList(g)
			if cols == nil {
				if s, ok := g.(string); ok {
					cols = []string{s}
				}
			}
			out = append(out, model.Audit{Variant: model.AuditUniqueCombination, Columns: cols})
		}
	}
	if av, ok := am["accepted_values"].(map[string]any); ok {
		cols := make([]string, 0, len(av))
		for col := range av {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			lits := stringList(av[col])
			out = append(out, model.Audit{
				Variant:        model.AuditAcceptedValues,
				Columns:        []string{col},
				AcceptedValues: map[string][]string{col: lits},
			})
		}
	}

	return out
}

func convertCanonicalAuditList(list []any, diags *cerrors.Diagnostics, modelName string) []model.Audit {
	out := make([]model.Audit, 0, len(list))
	for i, e := range list {
		am, ok := e.(map[string]any)
		if !ok {
			diags.Errorf(modelName, fmt.Sprintf("audits[%d]", i), "malformed audit entry")
			continue
		}
		variant := stringOr(am["type"], "")
		a := model.Audit{Columns: stringList(am["columns"])}
		switch model.AuditVariant(variant) {
		case model.AuditNotNull, model.AuditPositiveValues, model.AuditUniqueCombination, model.AuditAcceptedValues:
			a.Variant = model.AuditVariant(variant)
		default:
			diags.Errorf(modelName, fmt.Sprintf("audits[%d].type", i), "unrecognized audit type %q", variant)
			continue
		}
		if a.Variant == model.AuditAcceptedValues {
			switch vals := am["values"].(type) {
			case map[string]any:
				a.AcceptedValues = map[string][]string{}
				for col, v := range vals {
					a.AcceptedValues[col] = stringList(v)
				}
			case []any:
				if len(a.Columns) == 1 {
					a.AcceptedValues = map[string][]string{a.Columns[0]: stringList(vals)}
				}
			}
		}
		out = append(out, a)
	}
	return out
}
