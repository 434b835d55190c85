// Package sqlgen is the SQL Generator + Dialect Adapter (spec §4.6):
// it turns one validated model.Model into dialect-specific SQL,
// resolving the reference_table -> alias mapping once per model and
// expanding cte_refs into a WITH-list in dependency order.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/dialect"
	"github.com/shubham184/fabric-compiler/internal/model"
)

// Artifact is one generated emission: the full DDL statement for a
// kind TABLE/VIEW model. Kind CTE bodies are spliced into a parent's
// WITH-list and never become an Artifact of their own.
type Artifact struct {
	Model string
	Kind  model.Kind
	SQL   string
}

// Generate produces one Artifact per model in topoOrder whose kind is
// TABLE or VIEW. CTE-kind models never get a standalone Artifact;
// their bodies are inlined into every dependent's WITH-list instead.
// topoOrder must be dependency-first (depgraph.Graph.TopoOrder).
func Generate(corpus model.Corpus, topoOrder []string, d dialect.Dialect) (map[string]*Artifact, error) {
	artifacts := make(map[string]*Artifact)

	for _, name := range topoOrder {
		m, ok := corpus[name]
		if !ok {
			continue // external table reference, not a model to generate
		}
		if m.Kind == model.KindCTE {
			continue
		}
		art, err := generateOne(corpus, topoOrder, m, d)
		if err != nil {
			return nil, err
		}
		artifacts[name] = art
	}

	return artifacts, nil
}

func generateOne(corpus model.Corpus, topoOrder []string, m *model.Model, d dialect.Dialect) (*Artifact, error) {
	if m.BaseTable == "" && len(m.DependsOn) == 0 {
		// B1: a seed model emits no SELECT at all, it is a declared
		// source, not something this generator has a body for.
		return nil, &cerrors.GenerationError{Model: m.Name, Msg: "seed model (no base_table, no depends_on) has no SELECT to generate"}
	}

	body, err := buildSelectBody(corpus, m, d)
	if err != nil {
		return nil, err
	}

	withList, err := buildWithList(corpus, topoOrder, m, d)
	if err != nil {
		return nil, err
	}

	qualified := d.QuoteIdentifier(m.Name)
	var prelude string
	if m.Kind == model.KindView {
		prelude = d.CreateViewPrelude(qualified)
	} else {
		prelude = d.CreateTablePrelude(qualified)
	}

	var sb strings.Builder
	sb.WriteString(prelude)
	sb.WriteString("\n")
	if withList != "" {
		sb.WriteString(withList)
		sb.WriteString("\n")
	}
	sb.WriteString(body)

	if opt := d.OptimizationClause(m.Optimization); opt != "" {
		sb.WriteString("\n")
		sb.WriteString(opt)
	}

	return &Artifact{Model: m.Name, Kind: m.Kind, SQL: sb.String()}, nil
}

// buildWithList expands m.CTERefs transitively and renders a single
// flat WITH clause in dependency order, so nested CTEs precede their
// users (B2): the closure is computed once, then filtered out of the
// global topoOrder, which is already dependency-first.
func buildWithList(corpus model.Corpus, topoOrder []string, m *model.Model, d dialect.Dialect) (string, error) {
	closure := cteClosure(corpus, m)
	if len(closure) == 0 {
		return "", nil
	}

	var entries []string
	for _, name := range topoOrder {
		if !closure[name] {
			continue
		}
		cte := corpus[name]
		body, err := buildSelectBody(corpus, cte, d)
		if err != nil {
			return "", err
		}
		entries = append(entries, fmt.Sprintf("%s AS (\n%s\n)", name, indent(body)))
	}

	return "WITH " + strings.Join(entries, ",\n"), nil
}

func cteClosure(corpus model.Corpus, m *model.Model) map[string]bool {
	closure := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		dep, ok := corpus[name]
		if !ok || dep.Kind != model.KindCTE || closure[name] {
			return
		}
		closure[name] = true
		for _, ref := range dep.CTERefs {
			visit(ref)
		}
	}
	for _, ref := range m.CTERefs {
		visit(ref)
	}
	return closure
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// buildSelectBody renders the SELECT...FROM...[JOIN]...[WHERE]...
// [GROUP BY...HAVING] body shared by both standalone artifacts and
// CTE bodies spliced into a parent's WITH-list.
func buildSelectBody(corpus model.Corpus, m *model.Model, d dialect.Dialect) (string, error) {
	am := buildAliasMapping(m)

	selectList, err := renderSelectList(m, am, d)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selectList, ", "))

	from := baseTableName(m)
	if from == "" {
		return "", &cerrors.GenerationError{Model: m.Name, Msg: "no base_table or depends_on to anchor FROM"}
	}
	sb.WriteString("\nFROM ")
	sb.WriteString(tableRef(from, d))
	sb.WriteString(" AS T")

	joins, err := renderJoins(m, am, d)
	if err != nil {
		return "", err
	}
	for _, j := range joins {
		sb.WriteString("\n")
		sb.WriteString(j)
	}

	where, err := renderWhere(m, am, d)
	if err != nil {
		return "", err
	}
	if where != "" {
		sb.WriteString("\nWHERE ")
		sb.WriteString(where)
	}

	if len(m.GroupBy) > 0 {
		sb.WriteString("\nGROUP BY ")
		sb.WriteString(strings.Join(m.GroupBy, ", "))
	}

	if len(m.Having) > 0 {
		having, err := renderHaving(m, d)
		if err != nil {
			return "", err
		}
		sb.WriteString("\nHAVING ")
		sb.WriteString(having)
	}

	return sb.String(), nil
}

func renderSelectList(m *model.Model, am *aliasMapping, d dialect.Dialect) ([]string, error) {
	out := make([]string, 0, len(m.Columns))
	for _, c := range m.Columns {
		expr, err := renderColumnExpression(m, c, am, d)
		if err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("%s AS %s", expr, c.Name))
	}
	return out, nil
}

func renderJoins(m *model.Model, am *aliasMapping, d dialect.Dialect) ([]string, error) {
	out := make([]string, 0, len(m.Relationships))
	for _, fk := range m.Relationships {
		alias, ok := am.Alias(fk.ReferencesTable)
		if !ok {
			return nil, &cerrors.GenerationError{Model: m.Name, Msg: fmt.Sprintf("no alias for references_table %q", fk.ReferencesTable)}
		}
		clause := fmt.Sprintf("%s %s AS %s ON T.%s = %s.%s",
			joinKeyword(fk.JoinType), tableRef(fk.ReferencesTable, d), alias,
			fk.LocalColumn, alias, fk.ReferencesColumn)
		out = append(out, clause)
	}
	return out, nil
}

// renderWhere assembles filters into a single conjunction, grouping
// predicates by reference_table so predicates against the same table
// sit adjacently. Each condition is emitted as authored (after macro
// expansion); column names inside it are not qualified with the
// table's alias.
func renderWhere(m *model.Model, am *aliasMapping, d dialect.Dialect) (string, error) {
	if len(m.Filters) == 0 {
		return "", nil
	}

	grouped := map[string][]string{}
	var tables []string
	for _, f := range m.Filters {
		table := f.ReferenceTable
		if table == "" {
			table = baseTableName(m)
		}
		cond, err := expandMacros(f.Condition, m.Name, d)
		if err != nil {
			return "", err
		}
		if _, seen := grouped[table]; !seen {
			tables = append(tables, table)
		}
		grouped[table] = append(grouped[table], cond)
	}

	var parts []string
	for _, t := range tables {
		parts = append(parts, grouped[t]...)
	}
	return strings.Join(parts, " AND "), nil
}

func renderHaving(m *model.Model, d dialect.Dialect) (string, error) {
	rendered := make([]string, 0, len(m.Having))
	for _, h := range m.Having {
		expanded, err := expandMacros(h, m.Name, d)
		if err != nil {
			return "", err
		}
		rendered = append(rendered, expanded)
	}
	return strings.Join(rendered, " AND "), nil
}
