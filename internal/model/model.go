// Package model holds the typed in-memory representation of a single
// authored model definition, the central entity the rest of the
// compiler pipeline operates on.
package model

import (
	"fmt"
	"sort"
)

// Layer is the medallion tier a model belongs to.
type Layer string

const (
	LayerBronze Layer = "bronze"
	LayerSilver Layer = "silver"
	LayerGold   Layer = "gold"
	LayerCTE    Layer = "cte"
)

// Kind is the materialization strategy for a model.
type Kind string

const (
	KindTable Kind = "TABLE"
	KindView  Kind = "VIEW"
	KindCTE   Kind = "CTE"
)

// AuditVariant tags the kind of data-quality check an Audit performs.
type AuditVariant string

const (
	AuditNotNull           AuditVariant = "NOT_NULL"
	AuditPositiveValues    AuditVariant = "POSITIVE_VALUES"
	AuditUniqueCombination AuditVariant = "UNIQUE_COMBINATION"
	AuditAcceptedValues    AuditVariant = "ACCEPTED_VALUES"
)

// RelationshipType describes the cardinality of a ForeignKey.
type RelationshipType string

const (
	RelOneToOne   RelationshipType = "one-to-one"
	RelOneToMany  RelationshipType = "one-to-many"
	RelManyToOne  RelationshipType = "many-to-one"
	RelManyToMany RelationshipType = "many-to-many"
)

// JoinType is the SQL join kind a ForeignKey renders as.
type JoinType string

const (
	JoinInner     JoinType = "INNER"
	JoinLeft      JoinType = "LEFT"
	JoinRight     JoinType = "RIGHT"
	JoinFullOuter JoinType = "FULL_OUTER"
)

// ColumnSpec is one projected output column of a model.
type ColumnSpec struct {
	Name           string
	ReferenceTable string
	// Expression is raw SQL. Empty means "identity mapping of the
	// same-named column on ReferenceTable".
	Expression  string
	Description string
	DataType    string
}

// WhereClause is one conjunct of a model's filter list.
type WhereClause struct {
	ReferenceTable string
	Condition      string
}

// Audit is one data-quality check declared on a model.
type Audit struct {
	Variant AuditVariant
	Columns []string
	// AcceptedValues maps column -> allowed literal list. Only
	// meaningful when Variant == AuditAcceptedValues. A single-column
	// audit authored as a flat literal list is normalized by the
	// loader to a one-entry map keyed by Columns[0].
	AcceptedValues map[string][]string
}

// ForeignKey describes a join relationship consumed by the generator.
type ForeignKey struct {
	LocalColumn      string
	ReferencesTable  string
	ReferencesColumn string
	RelationshipType RelationshipType
	JoinType         JoinType
}

// Optimization carries physical-layout hints. Must be the zero value
// when the owning Model's Kind is KindCTE (invariant I8).
type Optimization struct {
	PartitionedBy []string
	ClusteredBy   []string
	Indexes       []string
}

// IsZero reports whether no optimization hints were authored.
func (o Optimization) IsZero() bool {
	return len(o.PartitionedBy) == 0 && len(o.ClusteredBy) == 0 && len(o.Indexes) == 0
}

// Model is the frozen, validated unit of compilation.
//
// Construction (via the loader) guarantees structural validity: enum
// fields carry only recognized variants and required fields are
// non-empty. Semantic validity — cross-references, acyclicity,
// aggregation rules — is the validator's job and is not enforced by
// this package.
type Model struct {
	Name             string
	Description      string
	Layer            Layer
	Kind             Kind
	Owner            string
	Tags             []string // authored order, de-duplicated
	Domain           string
	RefreshFrequency string

	BaseTable string // optional; qualified identifier

	// DependsOn is an ordered set: authored order, first occurrence
	// wins, no duplicates.
	DependsOn []string

	Columns []ColumnSpec

	Filters []WhereClause

	// CTERefs are names of upstream models that must have Kind ==
	// KindCTE. Always a subset of DependsOn.
	CTERefs []string

	GroupBy []string
	Having  []string

	Audits []Audit

	Grain []string

	Relationships []ForeignKey

	Optimization Optimization

	// SourceFiles lists the definition files that contributed to this
	// Model after partial-file merge, in the order they were merged.
	// Diagnostic use only; does not affect equality/hashing.
	SourceFiles []string
}

// String renders a short identifying label, used in diagnostics.
func (m *Model) String() string {
	return fmt.Sprintf("%s(%s/%s)", m.Name, m.Layer, m.Kind)
}

// OutputColumnNames returns the ordered list of output column names,
// i.e. the projection shape this model exposes to downstream models.
func (m *Model) OutputColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether name is among the model's output columns.
func (m *Model) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// IsExternalRef reports whether ref names an external table rather
// than a sibling model: qualified with a schema prefix, e.g. "raw.*".
func IsExternalRef(ref string) bool {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '.' {
			return i > 0
		}
	}
	return false
}

// AddDependsOn appends name to DependsOn if not already present,
// preserving ordered-set semantics (first occurrence wins).
func (m *Model) AddDependsOn(name string) {
	for _, d := range m.DependsOn {
		if d == name {
			return
		}
	}
	m.DependsOn = append(m.DependsOn, name)
}

// AddTag appends tag to Tags if not already present.
func (m *Model) AddTag(tag string) {
	for _, t := range m.Tags {
		if t == tag {
			return
		}
	}
	m.Tags = append(m.Tags, tag)
}

// Corpus is the full mapping of model name to Model produced by the
// loader and consumed read-only by every later stage.
type Corpus map[string]*Model

// SortedNames returns the corpus's model names in lexicographic order.
// Used wherever a stage needs a deterministic default order before the
// resolver's topological order is available (e.g. error reporting).
func (c Corpus) SortedNames() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
