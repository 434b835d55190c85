package sqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/dialect"
	"github.com/shubham184/fabric-compiler/internal/model"
)

var bareword = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var macroCall = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)\(([^()]*)\)`)

// quoteQualified quotes each dot-separated segment of an external
// table reference (e.g. "source_systems.forecast_cycles"). Sibling
// model/CTE names are never dot-qualified and tableRef passes them
// through unquoted instead.
func quoteQualified(name string, d dialect.Dialect) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// tableRef renders a FROM/JOIN source: external references are
// quoted per segment, sibling models and CTEs are referenced by their
// bare name (they resolve to a materialized table, view, or an entry
// already spliced into the surrounding WITH-list).
func tableRef(name string, d dialect.Dialect) string {
	if model.IsExternalRef(name) {
		return quoteQualified(name, d)
	}
	return name
}

// expandMacros rewrites every @name(args) placeholder in expr via the
// dialect's macro support, erroring when the dialect doesn't
// implement a referenced macro (spec §9).
func expandMacros(expr string, modelName string, d dialect.Dialect) (string, error) {
	var firstErr error
	out := macroCall.ReplaceAllStringFunc(expr, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := macroCall.FindStringSubmatch(match)
		name, args := sub[1], sub[2]
		if !d.SupportsMacro(name) {
			firstErr = &cerrors.GenerationError{
				Model: modelName,
				Msg:   fmt.Sprintf("dialect %q does not support macro @%s()", d.Name(), name),
			}
			return match
		}
		return d.ExpandMacro(name, args)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// renderColumnExpression implements the §4.6 "Expression rendering"
// rule for one SELECT-list entry: empty expression qualifies the
// output name against the column's own reference_table; a single
// bareword qualifies itself the same way; anything else is emitted
// verbatim (after macro expansion) with no further alias rewriting,
// since a multi-token fragment may already carry its own
// "alias.column" qualification and blind substitution would corrupt
// it (spec §4.6).
func renderColumnExpression(m *model.Model, c model.ColumnSpec, am *aliasMapping, d dialect.Dialect) (string, error) {
	table := c.ReferenceTable
	if table == "" {
		table = baseTableName(m)
	}

	if c.Expression == "" {
		alias, ok := am.Alias(table)
		if !ok {
			return "", &cerrors.GenerationError{Model: m.Name, Msg: fmt.Sprintf("no alias for reference_table %q", table)}
		}
		return fmt.Sprintf("%s.%s", alias, c.Name), nil
	}

	if bareword.MatchString(c.Expression) {
		alias, ok := am.Alias(table)
		if !ok {
			return "", &cerrors.GenerationError{Model: m.Name, Msg: fmt.Sprintf("no alias for reference_table %q", table)}
		}
		return fmt.Sprintf("%s.%s", alias, c.Expression), nil
	}

	return expandMacros(c.Expression, m.Name, d)
}

// baseTableName returns the table that owns alias "T": base_table if
// set, else the first depends_on entry.
func baseTableName(m *model.Model) string {
	if m.BaseTable != "" {
		return m.BaseTable
	}
	if len(m.DependsOn) > 0 {
		return m.DependsOn[0]
	}
	return ""
}

func joinKeyword(jt model.JoinType) string {
	switch jt {
	case model.JoinInner:
		return "INNER JOIN"
	case model.JoinLeft:
		return "LEFT JOIN"
	case model.JoinRight:
		return "RIGHT JOIN"
	case model.JoinFullOuter:
		return "FULL OUTER JOIN"
	default:
		return "INNER JOIN"
	}
}
