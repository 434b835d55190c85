// Package compiler orchestrates the pipeline (spec §5: Loader →
// Validator → Resolver → Generator → Planner) and exposes the §6
// CLI-surface-contract operations that cmd/fabricc maps onto flags.
package compiler

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shubham184/fabric-compiler/internal/auditsql"
	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/depgraph"
	"github.com/shubham184/fabric-compiler/internal/dialect"
	"github.com/shubham184/fabric-compiler/internal/graphexport"
	"github.com/shubham184/fabric-compiler/internal/loader"
	"github.com/shubham184/fabric-compiler/internal/model"
	"github.com/shubham184/fabric-compiler/internal/sqlgen"
	"github.com/shubham184/fabric-compiler/internal/state"
	"github.com/shubham184/fabric-compiler/internal/validate"
)

// GenerateResult bundles everything one generate() run produces.
type GenerateResult struct {
	Corpus      model.Corpus
	Order       []string
	Artifacts   map[string]*sqlgen.Artifact
	AuditChecks map[string][]auditsql.Check
	Diagnostics cerrors.Diagnostics
}

// loadAndValidate runs Loader, Validator, then the Dependency
// Resolver's acyclicity check, halting before generation if any
// error-severity diagnostic exists (spec §7) or the graph has a cycle
// (spec §4.4, P2) — every operation built on this helper, including
// validate(root), must be unable to pass a cyclic corpus.
func loadAndValidate(root string) (model.Corpus, cerrors.Diagnostics, error) {
	result, err := loader.Load(root)
	if err != nil {
		return nil, nil, err
	}

	diags := append(cerrors.Diagnostics(nil), result.Diagnostics...)
	validationDiags := validate.Run(result.Corpus)
	diags = append(diags, validationDiags...)
	diags.Sort()

	if diags.HasErrors() {
		return result.Corpus, diags, &cerrors.ValidationError{Diagnostics: diags}
	}

	if _, err := depgraph.Build(result.Corpus).TopoOrder(); err != nil {
		return result.Corpus, diags, err
	}

	return result.Corpus, diags, nil
}

// Validate runs validate(root): Loader, Validator and the Resolver's
// cycle check, surfacing every diagnostic without generating SQL.
func Validate(root string) (cerrors.Diagnostics, error) {
	slog.Info("validating model corpus", "root", root)
	_, diags, err := loadAndValidate(root)
	return diags, err
}

// Generate runs generate(root, out_dir, dialect): the full pipeline
// through SQL emission, writing one file per artifact under out_dir.
func Generate(root, outDir, dialectName string) (*GenerateResult, error) {
	d, ok := dialect.Lookup(dialectName)
	if !ok {
		return nil, &cerrors.UnknownDialectError{Dialect: dialectName}
	}

	corpus, diags, err := loadAndValidate(root)
	if err != nil {
		return nil, err
	}

	g := depgraph.Build(corpus)
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}

	artifacts, err := sqlgen.Generate(corpus, order, d)
	if err != nil {
		return nil, err
	}

	fnDiags := validate.CheckUnknownFunctions(corpus, d)
	diags = append(diags, fnDiags...)
	diags.Sort()

	audits := make(map[string][]auditsql.Check, len(corpus))
	for name, m := range corpus {
		if len(m.Audits) > 0 {
			audits[name] = auditsql.Emit(m, d)
		}
	}

	if outDir != "" {
		if err := writeArtifacts(outDir, artifacts, audits); err != nil {
			return nil, err
		}
	}

	slog.Info("generated SQL artifacts", "models", len(artifacts), "dialect", dialectName)
	return &GenerateResult{
		Corpus:      corpus,
		Order:       order,
		Artifacts:   artifacts,
		AuditChecks: audits,
		Diagnostics: diags,
	}, nil
}

func writeArtifacts(outDir string, artifacts map[string]*sqlgen.Artifact, audits map[string][]auditsql.Check) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &cerrors.IOError{Path: outDir, Err: err}
	}
	for name, art := range artifacts {
		path := filepath.Join(outDir, name+".sql")
		if err := os.WriteFile(path, []byte(art.SQL+"\n"), 0o644); err != nil {
			return &cerrors.IOError{Path: path, Err: err}
		}
	}
	for name, checks := range audits {
		for _, c := range checks {
			path := filepath.Join(outDir, fmt.Sprintf("%s.audit.%s.sql", name, c.Key))
			if err := os.WriteFile(path, []byte(c.SQL+"\n"), 0o644); err != nil {
				return &cerrors.IOError{Path: path, Err: err}
			}
		}
	}
	return nil
}

// InitState runs init_state(root, env).
func InitState(root, env string) (*state.Snapshot, error) {
	corpus, _, err := loadAndValidate(root)
	if err != nil {
		return nil, err
	}
	return state.Init(root, env, corpus)
}

// ShowState runs show_state(env).
func ShowState(root, env string) (*state.Snapshot, bool, error) {
	return state.Load(root, env)
}

// Plan runs plan(root, env).
func Plan(root, env string) ([]state.Change, *state.Snapshot, error) {
	corpus, _, err := loadAndValidate(root)
	if err != nil {
		return nil, nil, err
	}
	return state.Plan(root, env, corpus)
}

// Apply runs apply(root, env, mode).
func Apply(root, env string, mode state.Mode) ([]state.Change, error) {
	changes, next, err := Plan(root, env)
	if err != nil {
		return nil, err
	}
	if err := state.Apply(root, next, mode); err != nil {
		return changes, err
	}
	return changes, nil
}

// ExportGraph runs export_graph(root, format).
func ExportGraph(root string, format graphexport.Format) ([]byte, error) {
	corpus, _, err := loadAndValidate(root)
	if err != nil {
		return nil, err
	}
	return graphexport.Export(corpus, format)
}
