package dialect

import (
	"fmt"
	"strings"

	"github.com/shubham184/fabric-compiler/internal/model"
)

func init() {
	Register(&spark{})
}

// spark targets Spark SQL / Delta Lake: CREATE OR REPLACE TABLE,
// backtick-quoted identifiers, native PARTITIONED BY / CLUSTER BY.
type spark struct{}

func (spark) Name() string { return "spark" }

func (spark) QuoteIdentifier(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (spark) CreateTablePrelude(qualifiedName string) string {
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s AS", qualifiedName)
}

func (spark) CreateViewPrelude(qualifiedName string) string {
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS", qualifiedName)
}

func (spark) OptimizationClause(opt model.Optimization) string {
	if opt.IsZero() {
		return ""
	}
	var parts []string
	if len(opt.PartitionedBy) > 0 {
		parts = append(parts, fmt.Sprintf("PARTITIONED BY (%s)", strings.Join(opt.PartitionedBy, ", ")))
	}
	if len(opt.ClusteredBy) > 0 {
		parts = append(parts, fmt.Sprintf("CLUSTER BY (%s)", strings.Join(opt.ClusteredBy, ", ")))
	}
	if len(opt.Indexes) > 0 {
		for _, idx := range opt.Indexes {
			parts = append(parts, fmt.Sprintf("-- index hint (unsupported on Spark): %s", idx))
		}
	}
	return strings.Join(parts, "\n")
}

var sparkMacros = map[string]bool{
	"newpk":   true,
	"Feature": true,
}

func (spark) SupportsMacro(name string) bool { return sparkMacros[name] }

func (spark) ExpandMacro(name, args string) string {
	switch name {
	case "newpk":
		return "uuid()"
	case "Feature":
		return fmt.Sprintf("feature_store.lookup(%s)", args)
	default:
		return ""
	}
}

func (spark) ReservedFunctions() []string {
	return []string{"uuid", "current_timestamp", "coalesce", "nullif"}
}
