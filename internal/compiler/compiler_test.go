package compiler_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/compiler"
	"github.com/shubham184/fabric-compiler/internal/graphexport"
	"github.com/shubham184/fabric-compiler/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawDef = `
model:
  name: raw_forecast_cycle
  layer: bronze
  kind: VIEW
source:
  base_table: source_systems.forecast_cycles
transformations:
  - name: ForecastCycleId
  - name: Status
`

const activeDef = `
model:
  name: active_forecast_cycles
  layer: cte
  kind: CTE
source:
  depends_on: [raw_forecast_cycle]
transformations:
  - name: ForecastCycleId
filters:
  - reference_table: raw_forecast_cycle
    condition: "Status = 'ACTIVE'"
`

const cleanDef = `
model:
  name: clean_forecast_cycle
  layer: silver
  kind: TABLE
source:
  base_table: raw_forecast_cycle
  depends_on: [raw_forecast_cycle]
transformations:
  - name: ForecastCycleId
  - name: Status
    expression: UPPER(Status)
`

const fctDef = `
model:
  name: fct_ForecastCycle
  layer: gold
  kind: TABLE
source:
  base_table: clean_forecast_cycle
  depends_on: [clean_forecast_cycle, active_forecast_cycles]
ctes: [active_forecast_cycles]
transformations:
  - name: ForecastCycleId
  - name: IsActive
    expression: "CASE WHEN A.ForecastCycleId IS NOT NULL THEN TRUE ELSE FALSE END"
relationships:
  - local_column: ForecastCycleId
    references_table: active_forecast_cycles
    references_column: ForecastCycleId
    relationship_type: one-to-one
    join_type: LEFT
`

func writeCorpusDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"raw_forecast_cycle.model.yaml":     rawDef,
		"active_forecast_cycles.model.yaml": activeDef,
		"clean_forecast_cycle.model.yaml":   cleanDef,
		"fct_ForecastCycle.model.yaml":      fctDef,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestValidatePassesOnWellFormedCorpus(t *testing.T) {
	dir := writeCorpusDir(t)
	diags, err := compiler.Validate(dir)
	require.NoError(t, err)
	assert.False(t, diags.HasErrors())
}

const cycleADef = `
model:
  name: cycle_a
  layer: silver
  kind: TABLE
source:
  base_table: cycle_b
  depends_on: [cycle_b]
transformations:
  - name: Id
`

const cycleBDef = `
model:
  name: cycle_b
  layer: silver
  kind: TABLE
source:
  base_table: cycle_a
  depends_on: [cycle_a]
transformations:
  - name: Id
`

func TestValidateRejectsCyclicCorpus(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"cycle_a.model.yaml": cycleADef,
		"cycle_b.model.yaml": cycleBDef,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	diags, err := compiler.Validate(dir)
	require.Error(t, err)
	assert.False(t, diags.HasErrors()) // the cycle is a CycleError, not a validation diagnostic

	var cycleErr *cerrors.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, 2, cycleErr.ExitCode())
}

func TestGenerateWritesOneSQLFilePerMaterializedModel(t *testing.T) {
	dir := writeCorpusDir(t)
	outDir := filepath.Join(t.TempDir(), "out")

	result, err := compiler.Generate(dir, outDir, "postgres")
	require.NoError(t, err)
	assert.Len(t, result.Artifacts, 3) // raw, clean, fct; active_forecast_cycles is kind CTE

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.Contains(t, names, "fct_ForecastCycle.sql")
	assert.Contains(t, names, "clean_forecast_cycle.sql")
	assert.Contains(t, names, "raw_forecast_cycle.sql")
	assert.NotContains(t, names, "active_forecast_cycles.sql")
}

func TestGenerateFlagsUnrecognizedFunctionCall(t *testing.T) {
	dir := t.TempDir()
	weirdDef := `
model:
  name: raw_forecast_cycle
  layer: bronze
  kind: VIEW
source:
  base_table: source_systems.forecast_cycles
transformations:
  - name: ForecastCycleId
  - name: Status
    expression: feature_store_lookup(Status)
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw_forecast_cycle.model.yaml"), []byte(weirdDef), 0o644))

	result, err := compiler.Generate(dir, "", "postgres")
	require.NoError(t, err)

	found := false
	for _, d := range result.Diagnostics.Warnings() {
		if d.Model == "raw_forecast_cycle" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerateUnknownDialectErrors(t *testing.T) {
	dir := writeCorpusDir(t)
	_, err := compiler.Generate(dir, "", "unknown-engine")
	require.Error(t, err)
}

func TestInitPlanApplyRoundTrip(t *testing.T) {
	dir := writeCorpusDir(t)

	_, err := compiler.InitState(dir, "dev")
	require.NoError(t, err)

	snap, exists, err := compiler.ShowState(dir, "dev")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Len(t, snap.Models, 4)

	changes, _, err := compiler.Plan(dir, "dev")
	require.NoError(t, err)
	assert.Empty(t, changes) // nothing changed since init

	applied, err := compiler.Apply(dir, "dev", state.ModeAutoApply)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestExportGraphNodesEdges(t *testing.T) {
	dir := writeCorpusDir(t)
	out, err := compiler.ExportGraph(dir, graphexport.FormatNodesEdges)
	require.NoError(t, err)
	assert.Contains(t, string(out), "fct_ForecastCycle")
}
