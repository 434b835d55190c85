// Package validate runs invariants I1-I3 and I5-I9 from spec §3
// across an entire corpus, accumulating every violation rather than
// short-circuiting on the first (spec §4.3, §7). I4 (acyclicity) is
// checked by internal/depgraph.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/dialect"
	"github.com/shubham184/fabric-compiler/internal/exprscan"
	"github.com/shubham184/fabric-compiler/internal/model"
)

// Run validates corpus and returns every diagnostic found. Callers
// should treat a non-empty Diagnostics.HasErrors() as "halt before
// generation" per spec §7.
func Run(corpus model.Corpus) cerrors.Diagnostics {
	var diags cerrors.Diagnostics

	names := corpus.SortedNames()

	checkUniqueNames(corpus, &diags) // I1 is implicit in corpus being a map; kept for explicit diagnostics on case-variant collisions
	for _, name := range names {
		m := corpus[name]
		checkReferenceTables(m, &diags)          // I2
		checkCTERefs(corpus, m, &diags)          // I3
		checkOutputSubsets(m, &diags)            // I5
		checkAggregationGrouping(m, &diags)      // I6
		checkHavingReferences(m, &diags)         // I7
		checkCTEHasNoOptimization(m, &diags)     // I8
		checkNoSelfDependency(m, &diags)         // I9
		checkAuditDataTypeWarnings(m, &diags)    // warning
		checkExternalRefCoverage(corpus, m, &diags)
		checkJoinSourceAmbiguity(m, &diags)
		checkColumnReferencesResolve(corpus, m, &diags)
	}
	// I4 (acyclicity) is the Dependency Resolver's job (spec §4.4); it
	// is not re-implemented here to keep cycle-membership reporting in
	// one place.

	diags.Sort()
	return diags
}

func checkUniqueNames(corpus model.Corpus, diags *cerrors.Diagnostics) {
	seen := map[string]bool{}
	for name := range corpus {
		lower := strings.ToLower(name)
		if seen[lower] {
			diags.Errorf(name, "model.name", "duplicate model name (case-insensitive collision)")
		}
		seen[lower] = true
	}
}

// checkReferenceTables enforces I2: every reference_table used in
// columns/filters/relationships appears in depends_on, equals
// base_table, or is an external reference that is itself listed.
func checkReferenceTables(m *model.Model, diags *cerrors.Diagnostics) {
	known := referenceTableSet(m)

	for i, c := range m.Columns {
		if c.ReferenceTable == "" {
			continue
		}
		if !known[c.ReferenceTable] {
			diags.Errorf(m.Name, fmt.Sprintf("columns[%d].reference_table", i),
				"reference_table %q not in depends_on and not base_table", c.ReferenceTable)
		}
	}
	for i, f := range m.Filters {
		if f.ReferenceTable == "" {
			continue
		}
		if !known[f.ReferenceTable] {
			diags.Errorf(m.Name, fmt.Sprintf("filters[%d].reference_table", i),
				"reference_table %q not in depends_on and not base_table", f.ReferenceTable)
		}
	}
	for i, fk := range m.Relationships {
		if fk.ReferencesTable == "" {
			continue
		}
		if !known[fk.ReferencesTable] {
			diags.Errorf(m.Name, fmt.Sprintf("relationships[%d].references_table", i),
				"references_table %q not in depends_on and not base_table", fk.ReferencesTable)
		}
	}
}

func referenceTableSet(m *model.Model) map[string]bool {
	set := map[string]bool{}
	if m.BaseTable != "" {
		set[m.BaseTable] = true
	}
	for _, d := range m.DependsOn {
		set[d] = true
	}
	return set
}

// checkCTERefs enforces I3: every cte_refs member has kind=CTE and is
// in depends_on.
func checkCTERefs(corpus model.Corpus, m *model.Model, diags *cerrors.Diagnostics) {
	dependsSet := map[string]bool{}
	for _, d := range m.DependsOn {
		dependsSet[d] = true
	}
	for i, ref := range m.CTERefs {
		if !dependsSet[ref] {
			diags.Errorf(m.Name, fmt.Sprintf("cte_refs[%d]", i), "cte %q not in depends_on", ref)
			continue
		}
		dep, ok := corpus[ref]
		if !ok {
			continue // external table can't be a CTE; checkExternalRefCoverage handles resolvability separately
		}
		if dep.Kind != model.KindCTE {
			diags.Errorf(m.Name, fmt.Sprintf("cte_refs[%d]", i), "model %q is not kind CTE", ref)
		}
	}
}

// checkOutputSubsets enforces I5: grain, audits.columns, and
// relationships.local_column are subsets of output column names.
func checkOutputSubsets(m *model.Model, diags *cerrors.Diagnostics) {
	out := map[string]bool{}
	for _, c := range m.Columns {
		out[c.Name] = true
	}
	for i, g := range m.Grain {
		if !out[g] {
			diags.Errorf(m.Name, fmt.Sprintf("grain[%d]", i), "grain column %q not an output column", g)
		}
	}
	for ai, a := range m.Audits {
		for ci, col := range a.Columns {
			if !out[col] {
				diags.Errorf(m.Name, fmt.Sprintf("audits[%d].columns[%d]", ai, ci), "audit column %q not an output column", col)
			}
		}
	}
	for i, fk := range m.Relationships {
		if !out[fk.LocalColumn] {
			diags.Errorf(m.Name, fmt.Sprintf("relationships[%d].local_column", i), "local_column %q not an output column", fk.LocalColumn)
		}
	}
}

// checkAggregationGrouping enforces I6: if any column expression is
// aggregate, group_by is non-empty and every non-aggregate output
// column name appears in group_by.
func checkAggregationGrouping(m *model.Model, diags *cerrors.Diagnostics) {
	anyAggregate := false
	nonAggregateCols := map[string]bool{}
	for _, c := range m.Columns {
		if c.Expression == "" {
			nonAggregateCols[c.Name] = true
			continue
		}
		r := exprscan.Analyze(c.Expression)
		if r.IsAggregate {
			anyAggregate = true
		} else {
			nonAggregateCols[c.Name] = true
		}
	}
	if !anyAggregate {
		return
	}
	if len(m.GroupBy) == 0 {
		diags.Errorf(m.Name, "aggregations.group_by", "aggregate column present but group_by is empty")
		return
	}
	groupSet := map[string]bool{}
	for _, g := range m.GroupBy {
		groupSet[g] = true
	}
	nonAggNames := make([]string, 0, len(nonAggregateCols))
	for n := range nonAggregateCols {
		nonAggNames = append(nonAggNames, n)
	}
	sort.Strings(nonAggNames)
	for _, n := range nonAggNames {
		if !groupSet[n] {
			diags.Errorf(m.Name, "aggregations.group_by", "non-aggregate output column %q missing from group_by", n)
		}
	}
}

// checkHavingReferences checks I7 at warning severity: each
// identifier a having predicate references must be an output column
// name, unless the whole predicate text equals a declared column
// expression. A predicate that only embeds a declared aggregate
// expression (e.g. "SUM(x) > 0") is not matched against it.
func checkHavingReferences(m *model.Model, diags *cerrors.Diagnostics) {
	if len(m.Having) == 0 {
		return
	}
	out := map[string]bool{}
	exprs := map[string]bool{}
	for _, c := range m.Columns {
		out[c.Name] = true
		if c.Expression != "" {
			exprs[c.Expression] = true
		}
	}
	for i, h := range m.Having {
		r := exprscan.Analyze(h)
		for _, col := range r.ReferencedColumns {
			if !out[col] && !exprs[h] {
				diags.Warnf(m.Name, fmt.Sprintf("aggregations.having[%d]", i),
					"having predicate references %q, not an output column or declared aggregate expression", col)
			}
		}
	}
}

// checkCTEHasNoOptimization enforces I8.
func checkCTEHasNoOptimization(m *model.Model, diags *cerrors.Diagnostics) {
	if m.Kind == model.KindCTE && !m.Optimization.IsZero() {
		diags.Errorf(m.Name, "optimization", "kind CTE must not declare optimization hints")
	}
}

// checkNoSelfDependency enforces I9.
func checkNoSelfDependency(m *model.Model, diags *cerrors.Diagnostics) {
	for _, d := range m.DependsOn {
		if d == m.Name {
			diags.Errorf(m.Name, "source.depends_on", "depends_on contains self-reference")
		}
	}
}

// textualTypes lists data types that cannot satisfy certain
// audit variants (warning-severity per spec §4.3).
var textualTypes = map[string]bool{
	"VARCHAR": true, "TEXT": true, "CHAR": true, "STRING": true,
}

func checkAuditDataTypeWarnings(m *model.Model, diags *cerrors.Diagnostics) {
	dataType := map[string]string{}
	for _, c := range m.Columns {
		if c.DataType != "" {
			dataType[c.Name] = strings.ToUpper(c.DataType)
		}
	}
	for ai, a := range m.Audits {
		if a.Variant != model.AuditPositiveValues {
			continue
		}
		for _, col := range a.Columns {
			if dt, ok := dataType[col]; ok && textualTypes[dt] {
				diags.Warnf(m.Name, fmt.Sprintf("audits[%d]", ai),
					"POSITIVE_VALUES audit on column %q whose data_type %s is incompatible", col, dt)
			}
		}
	}
	for ai, a := range m.Audits {
		if a.Variant == model.AuditAcceptedValues {
			total := 0
			for _, vals := range a.AcceptedValues {
				total += len(vals)
			}
			if total == 0 {
				diags.Errorf(m.Name, fmt.Sprintf("audits[%d]", ai), "ACCEPTED_VALUES audit with zero allowed literals") // B3
			}
		}
	}
}

// checkExternalRefCoverage warns when an external-table reference has
// no sibling model exposing columns to cross-check against.
func checkExternalRefCoverage(corpus model.Corpus, m *model.Model, diags *cerrors.Diagnostics) {
	for _, d := range m.DependsOn {
		if !model.IsExternalRef(d) {
			continue
		}
		if _, ok := corpus[d]; !ok {
			diags.Warnf(m.Name, "source.depends_on", "external reference %q has no sibling model exposing columns", d)
		}
	}
}

// checkJoinSourceAmbiguity resolves the spec §9 Open Question: only
// relationships introduce JOINs. A column whose reference_table is
// neither base_table nor a relationship's references_table is a
// warning. Aliases written inside expression text (e.g. "A.Col") are
// not checked.
func checkJoinSourceAmbiguity(m *model.Model, diags *cerrors.Diagnostics) {
	introduced := map[string]bool{}
	if m.BaseTable != "" {
		introduced[m.BaseTable] = true
	}
	for _, fk := range m.Relationships {
		introduced[fk.ReferencesTable] = true
	}
	for i, c := range m.Columns {
		if c.ReferenceTable == "" || introduced[c.ReferenceTable] {
			continue
		}
		diags.Warnf(m.Name, fmt.Sprintf("columns[%d]", i),
			"column references %q which is neither base_table nor introduced by a relationship", c.ReferenceTable)
	}
}

// checkColumnReferencesResolve warns when a column's expression names a
// bareword column not present among its own reference_table's output
// columns (spec §4.5). Alias-qualified expressions ("A.Col") are left
// to the generator, since exprscan.Analyze yields both sides of the
// dot as separate referenced columns and neither alone identifies the
// sibling model unambiguously.
func checkColumnReferencesResolve(corpus model.Corpus, m *model.Model, diags *cerrors.Diagnostics) {
	for i, c := range m.Columns {
		if c.ReferenceTable == "" || c.Expression == "" || strings.Contains(c.Expression, ".") {
			continue
		}
		ref, ok := corpus[c.ReferenceTable]
		if !ok {
			continue // external table; checkExternalRefCoverage handles resolvability
		}
		r := exprscan.Analyze(c.Expression)
		for _, col := range r.ReferencedColumns {
			if !ref.HasColumn(col) {
				diags.Warnf(m.Name, fmt.Sprintf("columns[%d]", i),
					"column %q not present in %q; available: [%s]", col, c.ReferenceTable, strings.Join(ref.OutputColumnNames(), ", "))
			}
		}
	}
}

// CheckUnknownFunctions warns on a dialect-aware pass when a column
// expression or filter condition calls a function that is neither one
// of exprscan's recognized built-ins nor one of d's ReservedFunctions
// (spec §4.5, §4.6). Separate from Run because it requires a resolved
// Dialect, which generate(root, out_dir, dialect) has and validate(root)
// does not (spec §6).
func CheckUnknownFunctions(corpus model.Corpus, d dialect.Dialect) cerrors.Diagnostics {
	var diags cerrors.Diagnostics
	reserved := map[string]bool{}
	for _, fn := range d.ReservedFunctions() {
		reserved[strings.ToUpper(fn)] = true
	}

	for _, name := range corpus.SortedNames() {
		m := corpus[name]
		for i, c := range m.Columns {
			if c.Expression == "" {
				continue
			}
			checkCallsAgainstDialect(m, fmt.Sprintf("columns[%d].expression", i), c.Expression, reserved, &diags)
		}
		for i, f := range m.Filters {
			if f.Condition == "" {
				continue
			}
			checkCallsAgainstDialect(m, fmt.Sprintf("filters[%d].condition", i), f.Condition, reserved, &diags)
		}
	}

	diags.Sort()
	return diags
}

func checkCallsAgainstDialect(m *model.Model, fieldPath, expr string, reserved map[string]bool, diags *cerrors.Diagnostics) {
	r := exprscan.Analyze(expr)
	for _, fn := range r.FunctionsUsed {
		if exprscan.IsBuiltin(fn) || reserved[strings.ToUpper(fn)] {
			continue
		}
		diags.Warnf(m.Name, fieldPath, "function %q is not a recognized built-in for this dialect", fn)
	}
}
