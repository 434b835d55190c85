package sqlgen_test

import (
	"errors"
	"testing"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/depgraph"
	"github.com/shubham184/fabric-compiler/internal/dialect"
	"github.com/shubham184/fabric-compiler/internal/model"
	"github.com/shubham184/fabric-compiler/internal/sqlgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSeedToGoldCorpus constructs the S1 worked example: a bronze
// seed view, a CTE that filters active cycles, a silver cleanup
// table, and a gold fact joining the two.
func buildSeedToGoldCorpus() model.Corpus {
	raw := &model.Model{
		Name:      "raw_forecast_cycle",
		Layer:     model.LayerBronze,
		Kind:      model.KindView,
		BaseTable: "source_systems.forecast_cycles",
		Columns: []model.ColumnSpec{
			{Name: "ForecastCycleId"},
			{Name: "Status"},
		},
	}

	active := &model.Model{
		Name:      "active_forecast_cycles",
		Layer:     model.LayerCTE,
		Kind:      model.KindCTE,
		DependsOn: []string{"raw_forecast_cycle"},
		Columns: []model.ColumnSpec{
			{Name: "ForecastCycleId"},
		},
		Filters: []model.WhereClause{
			{ReferenceTable: "raw_forecast_cycle", Condition: "Status = 'ACTIVE'"},
		},
	}

	clean := &model.Model{
		Name:      "clean_forecast_cycle",
		Layer:     model.LayerSilver,
		Kind:      model.KindTable,
		BaseTable: "raw_forecast_cycle",
		DependsOn: []string{"raw_forecast_cycle"},
		Columns: []model.ColumnSpec{
			{Name: "ForecastCycleId"},
			{Name: "Status", Expression: "UPPER(Status)"},
		},
	}

	fct := &model.Model{
		Name:      "fct_ForecastCycle",
		Layer:     model.LayerGold,
		Kind:      model.KindTable,
		BaseTable: "clean_forecast_cycle",
		DependsOn: []string{"clean_forecast_cycle", "active_forecast_cycles"},
		CTERefs:   []string{"active_forecast_cycles"},
		Columns: []model.ColumnSpec{
			{Name: "ForecastCycleId"},
			{
				Name:       "IsActive",
				Expression: "CASE WHEN A.ForecastCycleId IS NOT NULL THEN TRUE ELSE FALSE END",
			},
		},
		Relationships: []model.ForeignKey{
			{
				LocalColumn:      "ForecastCycleId",
				ReferencesTable:  "active_forecast_cycles",
				ReferencesColumn: "ForecastCycleId",
				RelationshipType: model.RelOneToOne,
				JoinType:         model.JoinLeft,
			},
		},
	}

	return model.Corpus{
		raw.Name:   raw,
		active.Name: active,
		clean.Name:  clean,
		fct.Name:    fct,
	}
}

func TestGenerateSeedToGoldChain(t *testing.T) {
	corpus := buildSeedToGoldCorpus()
	g := depgraph.Build(corpus)
	order, err := g.TopoOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"raw_forecast_cycle", "active_forecast_cycles", "clean_forecast_cycle", "fct_ForecastCycle"}, order)

	pg, ok := dialect.Lookup("postgres")
	require.True(t, ok)

	artifacts, err := sqlgen.Generate(corpus, order, pg)
	require.NoError(t, err)

	// raw_forecast_cycle is a seed view: BaseTable is set, so it's not
	// a B1 boundary violation and still gets an Artifact.
	require.Contains(t, artifacts, "raw_forecast_cycle")

	fctArt, ok := artifacts["fct_ForecastCycle"]
	require.True(t, ok)
	assert.Contains(t, fctArt.SQL, "WITH active_forecast_cycles AS (")
	assert.Contains(t, fctArt.SQL, "LEFT JOIN active_forecast_cycles AS A ON T.ForecastCycleId = A.ForecastCycleId")
	assert.Contains(t, fctArt.SQL, "CASE WHEN A.ForecastCycleId IS NOT NULL THEN TRUE ELSE FALSE END AS IsActive")

	// active_forecast_cycles is kind CTE: never a standalone artifact.
	_, isArtifact := artifacts["active_forecast_cycles"]
	assert.False(t, isArtifact)
}

func TestGenerateSeedWithoutBaseTableIsBoundaryError(t *testing.T) {
	seed := &model.Model{
		Name: "orphan",
		Kind: model.KindTable,
		Columns: []model.ColumnSpec{
			{Name: "x"},
		},
	}
	corpus := model.Corpus{"orphan": seed}

	pg, ok := dialect.Lookup("postgres")
	require.True(t, ok)

	_, err := sqlgen.Generate(corpus, []string{"orphan"}, pg)
	require.Error(t, err)

	var genErr *cerrors.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Contains(t, genErr.Msg, "seed model")
}

func TestGenerateThreeDeepNestedCTEsInnermostFirst(t *testing.T) {
	inner := &model.Model{
		Name: "inner_cte", Kind: model.KindCTE, BaseTable: "raw",
		Columns: []model.ColumnSpec{{Name: "id"}},
	}
	mid := &model.Model{
		Name: "mid_cte", Kind: model.KindCTE, BaseTable: "inner_cte",
		DependsOn: []string{"inner_cte"}, CTERefs: []string{"inner_cte"},
		Columns: []model.ColumnSpec{{Name: "id"}},
	}
	outer := &model.Model{
		Name: "outer_cte", Kind: model.KindCTE, BaseTable: "mid_cte",
		DependsOn: []string{"mid_cte"}, CTERefs: []string{"mid_cte"},
		Columns: []model.ColumnSpec{{Name: "id"}},
	}
	top := &model.Model{
		Name: "top_table", Kind: model.KindTable, BaseTable: "outer_cte",
		DependsOn: []string{"outer_cte"}, CTERefs: []string{"outer_cte"},
		Columns: []model.ColumnSpec{{Name: "id"}},
	}

	corpus := model.Corpus{
		"inner_cte": inner, "mid_cte": mid, "outer_cte": outer, "top_table": top,
	}
	g := depgraph.Build(corpus)
	order, err := g.TopoOrder()
	require.NoError(t, err)

	pg, _ := dialect.Lookup("postgres")
	artifacts, err := sqlgen.Generate(corpus, order, pg)
	require.NoError(t, err)

	sql := artifacts["top_table"].SQL
	innerIdx := indexOf(sql, "inner_cte AS (")
	midIdx := indexOf(sql, "mid_cte AS (")
	outerIdx := indexOf(sql, "outer_cte AS (")
	require.True(t, innerIdx >= 0 && midIdx >= 0 && outerIdx >= 0)
	assert.Less(t, innerIdx, midIdx)
	assert.Less(t, midIdx, outerIdx)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
