// Package dialect defines the capability set the SQL generator
// compiles against (spec §4.6): identifier quoting, DDL-prelude
// shape, partitioning/clustering clause rendering, audit-SQL
// templates, the reserved-function allowlist, and placeholder macro
// expansion. Adding a dialect means implementing this interface; the
// generator core never special-cases a dialect by name.
package dialect

import "github.com/shubham184/fabric-compiler/internal/model"

// Dialect is implemented once per target SQL engine.
type Dialect interface {
	// Name identifies the dialect, e.g. "postgres", "spark".
	Name() string

	// QuoteIdentifier quotes a raw identifier for safe use in
	// generated SQL.
	QuoteIdentifier(ident string) string

	// CreateTablePrelude renders the DDL opening for a materialized
	// table, e.g. "CREATE TABLE <name> AS".
	CreateTablePrelude(qualifiedName string) string

	// CreateViewPrelude renders the DDL opening for a view.
	CreateViewPrelude(qualifiedName string) string

	// OptimizationClause renders the partitioning/clustering/index
	// hints as a dialect-specific trailing clause. Returns "" if the
	// model declares no optimization hints.
	OptimizationClause(opt model.Optimization) string

	// SupportsMacro reports whether this dialect implements the named
	// placeholder macro (e.g. "newpk", "Feature"). Using an
	// unsupported macro is a GenerationError (spec §9).
	SupportsMacro(name string) bool

	// ExpandMacro expands a recognized macro call into SQL. Only
	// called when SupportsMacro(name) is true.
	ExpandMacro(name, args string) string

	// ReservedFunctions lists function identifiers this dialect
	// recognizes as built-in (beyond the analyzer's default set),
	// used to avoid false-positive "unknown function" warnings.
	ReservedFunctions() []string
}

// registry resolves a dialect by its invoker-supplied name (spec §6).
// Unknown names are the caller's responsibility to reject with
// cerrors.UnknownDialectError.
var registry = map[string]Dialect{}

// Register adds a dialect to the registry. Dialects self-register via
// an init() in their own file, the way the teacher's function
// registrations happen in engine construction.
func Register(d Dialect) {
	registry[d.Name()] = d
}

// Lookup returns the dialect registered under name, or nil, false if
// unrecognized.
func Lookup(name string) (Dialect, bool) {
	d, ok := registry[name]
	return d, ok
}

// Names returns every registered dialect name, for diagnostics.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
