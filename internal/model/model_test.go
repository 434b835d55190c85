package model_test

import (
	"testing"

	"github.com/shubham184/fabric-compiler/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestOutputColumnNamesPreservesOrder(t *testing.T) {
	m := &model.Model{Columns: []model.ColumnSpec{{Name: "A"}, {Name: "B"}}}
	assert.Equal(t, []string{"A", "B"}, m.OutputColumnNames())
}

func TestHasColumn(t *testing.T) {
	m := &model.Model{Columns: []model.ColumnSpec{{Name: "A"}}}
	assert.True(t, m.HasColumn("A"))
	assert.False(t, m.HasColumn("B"))
}

func TestIsExternalRef(t *testing.T) {
	assert.True(t, model.IsExternalRef("raw.orders"))
	assert.False(t, model.IsExternalRef("clean_orders"))
	assert.False(t, model.IsExternalRef(".leading_dot"))
}

func TestAddDependsOnDedupesAndPreservesOrder(t *testing.T) {
	m := &model.Model{}
	m.AddDependsOn("a")
	m.AddDependsOn("b")
	m.AddDependsOn("a")
	assert.Equal(t, []string{"a", "b"}, m.DependsOn)
}

func TestAddTagDedupes(t *testing.T) {
	m := &model.Model{}
	m.AddTag("pii")
	m.AddTag("finance")
	m.AddTag("pii")
	assert.Equal(t, []string{"pii", "finance"}, m.Tags)
}

func TestCorpusSortedNames(t *testing.T) {
	c := model.Corpus{
		"zeta": &model.Model{Name: "zeta"},
		"alfa": &model.Model{Name: "alfa"},
	}
	assert.Equal(t, []string{"alfa", "zeta"}, c.SortedNames())
}

func TestOptimizationIsZero(t *testing.T) {
	assert.True(t, model.Optimization{}.IsZero())
	assert.False(t, model.Optimization{PartitionedBy: []string{"x"}}.IsZero())
}
