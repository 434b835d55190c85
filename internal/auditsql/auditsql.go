// Package auditsql is the Audit SQL Emitter (spec §4.7): for each
// Audit declared on a model it renders a standalone validation query
// returning a single violation_count expected to be zero, keyed
// deterministically so state diffs stay stable across regenerations.
package auditsql

import (
	"fmt"
	"strings"

	"github.com/shubham184/fabric-compiler/internal/dialect"
	"github.com/shubham184/fabric-compiler/internal/model"
)

// Check is one emitted audit statement.
type Check struct {
	Key     string // "<model>.<audit_index>"
	Model   string
	Variant model.AuditVariant
	SQL     string
}

// Emit renders one Check per Audit declared on m, in declaration
// order.
func Emit(m *model.Model, d dialect.Dialect) []Check {
	checks := make([]Check, 0, len(m.Audits))
	for i, a := range m.Audits {
		checks = append(checks, Check{
			Key:     fmt.Sprintf("%s.%d", m.Name, i),
			Model:   m.Name,
			Variant: a.Variant,
			SQL:     render(m, a, d),
		})
	}
	return checks
}

func render(m *model.Model, a model.Audit, d dialect.Dialect) string {
	table := d.QuoteIdentifier(m.Name)
	switch a.Variant {
	case model.AuditNotNull:
		return renderNotNull(table, a.Columns)
	case model.AuditPositiveValues:
		return renderPositiveValues(table, a.Columns)
	case model.AuditUniqueCombination:
		return renderUniqueCombination(table, a.Columns)
	case model.AuditAcceptedValues:
		return renderAcceptedValues(table, a)
	default:
		return fmt.Sprintf("-- unrecognized audit variant %q", a.Variant)
	}
}

func renderNotNull(table string, columns []string) string {
	conds := make([]string, len(columns))
	for i, c := range columns {
		conds[i] = fmt.Sprintf("%s IS NULL", c)
	}
	return fmt.Sprintf("SELECT COUNT(*) AS violation_count FROM %s WHERE %s",
		table, strings.Join(conds, " OR "))
}

func renderPositiveValues(table string, columns []string) string {
	conds := make([]string, len(columns))
	for i, c := range columns {
		conds[i] = fmt.Sprintf("(%s IS NULL OR %s <= 0)", c, c)
	}
	return fmt.Sprintf("SELECT COUNT(*) AS violation_count FROM %s WHERE %s",
		table, strings.Join(conds, " OR "))
}

func renderUniqueCombination(table string, columns []string) string {
	cols := strings.Join(columns, ", ")
	return fmt.Sprintf(
		"SELECT COUNT(*) AS violation_count FROM (\n"+
			"  SELECT %s, COUNT(*) AS grp_count FROM %s GROUP BY %s\n"+
			") dup WHERE dup.grp_count > 1",
		cols, table, cols)
}

func renderAcceptedValues(table string, a model.Audit) string {
	// Columns is authored order; AcceptedValues maps each to its own
	// allowed-literal set (a single-column shorthand is normalized to
	// a one-entry map by the loader).
	conds := make([]string, 0, len(a.Columns))
	for _, col := range a.Columns {
		vals := a.AcceptedValues[col]
		literals := make([]string, len(vals))
		for i, v := range vals {
			literals[i] = fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "''"))
		}
		conds = append(conds, fmt.Sprintf("%s NOT IN (%s)", col, strings.Join(literals, ", ")))
	}
	return fmt.Sprintf("SELECT COUNT(*) AS violation_count FROM %s WHERE %s",
		table, strings.Join(conds, " OR "))
}
