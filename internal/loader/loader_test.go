package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shubham184/fabric-compiler/internal/loader"
	"github.com/shubham184/fabric-compiler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadSingleModel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "raw_orders.model.yaml", `
model:
  name: raw_orders
  layer: bronze
  kind: VIEW
source:
  base_table: src.orders
transformations:
  - name: OrderId
  - name: Status
`)

	res, err := loader.Load(dir)
	require.NoError(t, err)
	assert.False(t, res.Diagnostics.HasErrors())
	require.Contains(t, res.Corpus, "raw_orders")
	m := res.Corpus["raw_orders"]
	assert.Equal(t, model.LayerBronze, m.Layer)
	assert.Equal(t, model.KindView, m.Kind)
	assert.Len(t, m.Columns, 2)
}

func TestLoadUnknownTopLevelSectionIsDiagnostic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.model.yaml", `
model:
  name: m
bogus_section:
  x: 1
`)
	res, err := loader.Load(dir)
	require.NoError(t, err)
	found := false
	for _, d := range res.Diagnostics {
		if containsAll(d.Message, "unknown top-level section") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadMergesPartialFilesAppendByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fct_orders.model.yaml", `
model:
  name: fct_orders
  layer: gold
  kind: TABLE
source:
  base_table: raw_orders
transformations:
  - name: OrderId
`)
	writeFile(t, dir, "fct_orders.part2.yaml", `
transformations:
  - name: Status
`)

	res, err := loader.Load(dir)
	require.NoError(t, err)
	m := res.Corpus["fct_orders"]
	require.NotNil(t, m)
	assert.Len(t, m.Columns, 2)
	assert.Equal(t, "OrderId", m.Columns[0].Name)
	assert.Equal(t, "Status", m.Columns[1].Name)
}

func TestLoadMergePartialFileRemovesByKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fct_orders.model.yaml", `
model:
  name: fct_orders
  layer: gold
  kind: TABLE
source:
  base_table: raw_orders
transformations:
  - name: OrderId
  - name: Legacy
`)
	writeFile(t, dir, "fct_orders.part2.yaml", `
transformations:
  - name: Legacy
    operator: "-"
`)

	res, err := loader.Load(dir)
	require.NoError(t, err)
	m := res.Corpus["fct_orders"]
	require.NotNil(t, m)
	names := m.OutputColumnNames()
	assert.Equal(t, []string{"OrderId"}, names)
}

func TestLoadAuditsLegacyShorthand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "clean.model.yaml", `
model:
  name: clean
  layer: silver
  kind: TABLE
source:
  base_table: raw
transformations:
  - name: Id
  - name: Amount
audits:
  not_null: [Id]
  positive_values: [Amount]
`)

	res, err := loader.Load(dir)
	require.NoError(t, err)
	m := res.Corpus["clean"]
	require.NotNil(t, m)
	require.Len(t, m.Audits, 2)
	assert.Equal(t, model.AuditNotNull, m.Audits[0].Variant)
	assert.Equal(t, model.AuditPositiveValues, m.Audits[1].Variant)
}

func containsAll(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
