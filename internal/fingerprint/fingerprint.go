// Package fingerprint computes the three stable per-model hashes
// (spec §4.8) that the state store uses to detect Add/Replace/
// AlterMeta changes between compiler runs. Canonical serialization
// sorts map keys, preserves authored order of ordered sequences, and
// tags variants with their textual constant rather than a numeric
// value, so the hash survives a Go struct-layout change.
package fingerprint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/shubham184/fabric-compiler/internal/model"
)

// Hashes bundles the three projections computed for one model.
type Hashes struct {
	Logic    uint64
	Schema   uint64
	Metadata uint64
}

// Compute derives logic_hash, schema_hash, and metadata_hash for m.
func Compute(m *model.Model) Hashes {
	return Hashes{
		Logic:    xxhash.Sum64String(canonicalLogic(m)),
		Schema:   xxhash.Sum64String(canonicalSchema(m)),
		Metadata: xxhash.Sum64String(canonicalMetadata(m)),
	}
}

// canonicalLogic covers everything that changes generated SQL:
// columns, filters, ctes, aggregations, relationships, base_table.
func canonicalLogic(m *model.Model) string {
	var sb strings.Builder

	sb.WriteString("base_table=")
	sb.WriteString(m.BaseTable)
	sb.WriteString("\n")

	sb.WriteString("depends_on=")
	sb.WriteString(strings.Join(m.DependsOn, ","))
	sb.WriteString("\n")

	sb.WriteString("columns=\n")
	for _, c := range m.Columns {
		fmt.Fprintf(&sb, "  name=%s reference_table=%s expression=%s\n", c.Name, c.ReferenceTable, c.Expression)
	}

	sb.WriteString("filters=\n")
	for _, f := range m.Filters {
		fmt.Fprintf(&sb, "  reference_table=%s condition=%s\n", f.ReferenceTable, f.Condition)
	}

	sb.WriteString("ctes=")
	sb.WriteString(strings.Join(m.CTERefs, ","))
	sb.WriteString("\n")

	sb.WriteString("group_by=")
	sb.WriteString(strings.Join(m.GroupBy, ","))
	sb.WriteString("\n")
	sb.WriteString("having=")
	sb.WriteString(strings.Join(m.Having, "|"))
	sb.WriteString("\n")

	sb.WriteString("relationships=\n")
	for _, fk := range m.Relationships {
		fmt.Fprintf(&sb, "  local_column=%s references_table=%s references_column=%s relationship_type=%s join_type=%s\n",
			fk.LocalColumn, fk.ReferencesTable, fk.ReferencesColumn, fk.RelationshipType, fk.JoinType)
	}

	return sb.String()
}

// canonicalSchema covers the output shape: column name and data type.
func canonicalSchema(m *model.Model) string {
	var sb strings.Builder
	for _, c := range m.Columns {
		fmt.Fprintf(&sb, "name=%s data_type=%s\n", c.Name, c.DataType)
	}
	return sb.String()
}

// canonicalMetadata covers everything descriptive, never semantic:
// changing it produces AlterMeta rather than Replace.
func canonicalMetadata(m *model.Model) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "description=%s\n", m.Description)
	fmt.Fprintf(&sb, "owner=%s\n", m.Owner)
	fmt.Fprintf(&sb, "domain=%s\n", m.Domain)
	fmt.Fprintf(&sb, "refresh_frequency=%s\n", m.RefreshFrequency)
	fmt.Fprintf(&sb, "layer=%s\n", m.Layer)
	fmt.Fprintf(&sb, "kind=%s\n", m.Kind)

	tags := append([]string(nil), m.Tags...)
	sort.Strings(tags)
	fmt.Fprintf(&sb, "tags=%s\n", strings.Join(tags, ","))

	return sb.String()
}
