package loader

import (
	"fmt"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/model"
)

// convert turns a merged generic tree into a model.Model. Structural
// problems (malformed enum values, wrong shapes) are reported as
// error-severity diagnostics; the caller decides whether to keep a
// partially-converted model around (it does not, on any error).
func convert(stem string, doc map[string]any, sourceFiles []string) (*model.Model, cerrors.Diagnostics) {
	var diags cerrors.Diagnostics
	m := &model.Model{SourceFiles: sourceFiles}

	modelSec, _ := doc["model"].(map[string]any)
	m.Name = stringOr(modelSec["name"], stem)
	m.Description = stringOr(modelSec["description"], "")
	m.Owner = stringOr(modelSec["owner"], "")
	m.Domain = stringOr(modelSec["domain"], "")
	m.RefreshFrequency = stringOr(modelSec["refresh_frequency"], "")

	if l, ok := modelSec["layer"].(string); ok {
		switch model.Layer(l) {
		case model.LayerBronze, model.LayerSilver, model.LayerGold, model.LayerCTE:
			m.Layer = model.Layer(l)
		default:
			diags.Errorf(m.Name, "model.layer", "unrecognized layer %q", l)
		}
	}
	if k, ok := modelSec["kind"].(string); ok {
		switch model.Kind(k) {
		case model.KindTable, model.KindView, model.KindCTE:
			m.Kind = model.Kind(k)
		default:
			diags.Errorf(m.Name, "model.kind", "unrecognized kind %q", k)
		}
	} else if m.Layer == model.LayerCTE {
		m.Kind = model.KindCTE
	}

	for _, t := range stringList(modelSec["tags"]) {
		m.AddTag(t)
	}

	sourceSec, _ := doc["source"].(map[string]any)
	m.BaseTable = stringOr(sourceSec["base_table"], "")
	for _, d := range stringList(sourceSec["depends_on"]) {
		m.AddDependsOn(d)
	}

	m.Columns = convertColumns(doc["transformations"], &diags, m.Name)
	m.Filters = convertFilters(doc["filters"], &diags, m.Name)
	m.CTERefs = canonicalizeCTEs(doc["ctes"])
	for _, c := range m.CTERefs {
		m.AddDependsOn(c)
	}

	m.GroupBy, m.Having = convertAggregations(doc["aggregations"])
	m.Audits = convertAudits(doc["audits"], &diags, m.Name)
	m.Grain = stringList(doc["grain"])
	m.Relationships = convertRelationships(doc["relationships"], &diags, m.Name)
	m.Optimization = convertOptimization(doc["optimization"])

	if m.Name == "" {
		diags.Errorf(stem, "model.name", "missing model name")
	}

	return m, diags
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func convertColumns(v any, diags *cerrors.Diagnostics, modelName string) []model.ColumnSpec {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.ColumnSpec, 0, len(list))
	for i, e := range list {
		cm, ok := e.(map[string]any)
		if !ok {
			diags.Errorf(modelName, fmt.Sprintf("columns[%d]", i), "malformed column entry")
			continue
		}
		out = append(out, model.ColumnSpec{
			Name:           stringOr(cm["name"], ""),
			ReferenceTable: stringOr(cm["reference_table"], ""),
			Expression:     stringOr(cm["expression"], ""),
			Description:    stringOr(cm["description"], ""),
			DataType:       stringOr(cm["data_type"], ""),
		})
	}
	return out
}

func convertFilters(v any, diags *cerrors.Diagnostics, modelName string) []model.WhereClause {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.WhereClause, 0, len(list))
	for i, e := range list {
		fm, ok := e.(map[string]any)
		if !ok {
			diags.Errorf(modelName, fmt.Sprintf("filters[%d]", i), "malformed filter entry")
			continue
		}
		out = append(out, model.WhereClause{
			ReferenceTable: stringOr(fm["reference_table"], ""),
			Condition:      stringOr(fm["condition"], ""),
		})
	}
	return out
}

// canonicalizeCTEs resolves the Open Question in spec §9: ctes may be
// authored as a bare list of names, or as a nested {ctes: [...]} map.
// Both normalize to a flat []string of model names.
func canonicalizeCTEs(v any) []string {
	switch t := v.(type) {
	case []any:
		return stringList(t)
	case map[string]any:
		return stringList(t["ctes"])
	default:
		return nil
	}
}

func convertAggregations(v any) (groupBy, having []string) {
	am, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}
	return stringList(am["group_by"]), stringList(am["having"])
}

func convertRelationships(v any, diags *cerrors.Diagnostics, modelName string) []model.ForeignKey {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.ForeignKey, 0, len(list))
	for i, e := range list {
		rm, ok := e.(map[string]any)
		if !ok {
			diags.Errorf(modelName, fmt.Sprintf("relationships[%d]", i), "malformed relationship entry")
			continue
		}
		fk := model.ForeignKey{
			LocalColumn:      stringOr(rm["local_column"], ""),
			ReferencesTable:  stringOr(rm["references_table"], ""),
			ReferencesColumn: stringOr(rm["references_column"], ""),
		}
		rt := stringOr(rm["relationship_type"], string(model.RelManyToOne))
		switch model.RelationshipType(rt) {
		case model.RelOneToOne, model.RelOneToMany, model.RelManyToOne, model.RelManyToMany:
			fk.RelationshipType = model.RelationshipType(rt)
		default:
			diags.Errorf(modelName, fmt.Sprintf("relationships[%d].relationship_type", i), "unrecognized relationship_type %q", rt)
		}
		jt := stringOr(rm["join_type"], string(model.JoinLeft))
		switch model.JoinType(jt) {
		case model.JoinInner, model.JoinLeft, model.JoinRight, model.JoinFullOuter:
			fk.JoinType = model.JoinType(jt)
		default:
			diags.Errorf(modelName, fmt.Sprintf("relationships[%d].join_type", i), "unrecognized join_type %q", jt)
		}
		out = append(out, fk)
	}
	return out
}

func convertOptimization(v any) model.Optimization {
	om, ok := v.(map[string]any)
	if !ok {
		return model.Optimization{}
	}
	return model.Optimization{
		PartitionedBy: stringList(om["partitioned_by"]),
		ClusteredBy:   stringList(om["clustered_by"]),
		Indexes:       stringList(om["indexes"]),
	}
}
