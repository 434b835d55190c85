package depgraph_test

import (
	"errors"
	"testing"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/depgraph"
	"github.com/shubham184/fabric-compiler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoOrderOrdersDependenciesBeforeDependents(t *testing.T) {
	corpus := model.Corpus{
		"raw":    &model.Model{Name: "raw"},
		"silver": &model.Model{Name: "silver", DependsOn: []string{"raw"}},
		"gold":   &model.Model{Name: "gold", DependsOn: []string{"silver"}},
	}
	g := depgraph.Build(corpus)
	order, err := g.TopoOrder()
	require.NoError(t, err)

	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	assert.Less(t, pos["raw"], pos["silver"])
	assert.Less(t, pos["silver"], pos["gold"])
}

func TestTopoOrderBreaksTiesAlphabetically(t *testing.T) {
	corpus := model.Corpus{
		"zeta": &model.Model{Name: "zeta"},
		"alfa": &model.Model{Name: "alfa"},
	}
	g := depgraph.Build(corpus)
	order, err := g.TopoOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"alfa", "zeta"}, order)
}

func TestCyclesEmptyForAcyclicGraph(t *testing.T) {
	corpus := model.Corpus{
		"a": &model.Model{Name: "a"},
		"b": &model.Model{Name: "b", DependsOn: []string{"a"}},
	}
	g := depgraph.Build(corpus)
	assert.Empty(t, g.Cycles())
}

func TestCyclesDetectsTwoNodeCycle(t *testing.T) {
	corpus := model.Corpus{
		"a": &model.Model{Name: "a", DependsOn: []string{"b"}},
		"b": &model.Model{Name: "b", DependsOn: []string{"a"}},
	}
	g := depgraph.Build(corpus)
	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b"}, cycles[0])
}

func TestCyclesDetectsSelfLoop(t *testing.T) {
	corpus := model.Corpus{
		"a": &model.Model{Name: "a", DependsOn: []string{"a"}},
	}
	g := depgraph.Build(corpus)
	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a"}, cycles[0])
}

func TestTopoOrderReturnsCycleErrorOnCyclicGraph(t *testing.T) {
	corpus := model.Corpus{
		"a": &model.Model{Name: "a", DependsOn: []string{"b"}},
		"b": &model.Model{Name: "b", DependsOn: []string{"a"}},
	}
	g := depgraph.Build(corpus)
	_, err := g.TopoOrder()
	require.Error(t, err)
	var cycleErr *cerrors.CycleError
	assert.True(t, errors.As(err, &cycleErr))
}

func TestBuildAddsEdgelessNodeForExternalReference(t *testing.T) {
	corpus := model.Corpus{
		"silver": &model.Model{Name: "silver", DependsOn: []string{"raw.external_table"}},
	}
	g := depgraph.Build(corpus)
	order, err := g.TopoOrder()
	require.NoError(t, err)
	assert.Contains(t, order, "raw.external_table")
	assert.Contains(t, order, "silver")
}
