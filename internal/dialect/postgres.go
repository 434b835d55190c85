package dialect

import (
	"fmt"
	"strings"

	"github.com/shubham184/fabric-compiler/internal/model"
)

func init() {
	Register(&postgres{})
}

// postgres targets Postgres-family engines: CREATE TABLE AS / CREATE
// OR REPLACE VIEW, double-quoted identifiers, no native clustering.
type postgres struct{}

func (postgres) Name() string { return "postgres" }

func (postgres) QuoteIdentifier(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (postgres) CreateTablePrelude(qualifiedName string) string {
	return fmt.Sprintf("CREATE TABLE %s AS", qualifiedName)
}

func (postgres) CreateViewPrelude(qualifiedName string) string {
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS", qualifiedName)
}

func (postgres) OptimizationClause(opt model.Optimization) string {
	if opt.IsZero() {
		return ""
	}
	var parts []string
	if len(opt.Indexes) > 0 {
		for _, idx := range opt.Indexes {
			parts = append(parts, fmt.Sprintf("-- index hint: %s", idx))
		}
	}
	// Postgres has no CREATE TABLE AS partition/cluster clause; hints
	// surface as follow-up DDL comments for the executor to act on.
	if len(opt.PartitionedBy) > 0 {
		parts = append(parts, fmt.Sprintf("-- partition by: %s", strings.Join(opt.PartitionedBy, ", ")))
	}
	if len(opt.ClusteredBy) > 0 {
		parts = append(parts, fmt.Sprintf("-- cluster by: %s", strings.Join(opt.ClusteredBy, ", ")))
	}
	return strings.Join(parts, "\n")
}

var postgresMacros = map[string]bool{
	"newpk": true, // gen_random_uuid()-backed
}

func (postgres) SupportsMacro(name string) bool { return postgresMacros[name] }

func (postgres) ExpandMacro(name, args string) string {
	switch name {
	case "newpk":
		return "gen_random_uuid()"
	default:
		return ""
	}
}

func (postgres) ReservedFunctions() []string {
	return []string{"gen_random_uuid", "now", "coalesce", "nullif"}
}
