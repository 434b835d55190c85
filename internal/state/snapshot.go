// Package state is the State Store + Planner (spec §4.9): it
// persists one Snapshot per environment, diffs the current IR
// against it to produce an ordered Plan, and applies a plan back to
// disk with an atomic write-temp-then-rename under an advisory lock
// (adapted from the write pattern in the teacher's slackbot state
// manager and the teacher's internal/lockfile).
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/fingerprint"
	"github.com/shubham184/fabric-compiler/internal/lockfile"
	"github.com/shubham184/fabric-compiler/internal/model"
	"gopkg.in/yaml.v3"
)

// SnapshotColumn is the persisted shape of one output column.
type SnapshotColumn struct {
	Name        string `yaml:"name"`
	DataType    string `yaml:"data_type"`
	Nullable    bool   `yaml:"nullable"`
	Description string `yaml:"description,omitempty"`
}

// SnapshotEntry is the persisted record for one model.
type SnapshotEntry struct {
	Columns      []SnapshotColumn `yaml:"columns"`
	Dependencies []string         `yaml:"dependencies"`
	Kind         model.Kind       `yaml:"kind"`
	Layer        model.Layer      `yaml:"layer"`
	LogicHash    uint64           `yaml:"logic_hash"`
	SchemaHash   uint64           `yaml:"schema_hash"`
	MetadataHash uint64           `yaml:"metadata_hash"`
}

// Snapshot is the full per-environment persisted state.
type Snapshot struct {
	Env    string                   `yaml:"env"`
	Models map[string]SnapshotEntry `yaml:"models"`
}

// BuildSnapshot derives a Snapshot from the current corpus, one
// entry per model, columns marked nullable when no audits enforce
// NOT_NULL on them.
func BuildSnapshot(env string, corpus model.Corpus) *Snapshot {
	snap := &Snapshot{Env: env, Models: make(map[string]SnapshotEntry, len(corpus))}
	for name, m := range corpus {
		notNull := map[string]bool{}
		for _, a := range m.Audits {
			if a.Variant == model.AuditNotNull {
				for _, c := range a.Columns {
					notNull[c] = true
				}
			}
		}
		cols := make([]SnapshotColumn, len(m.Columns))
		for i, c := range m.Columns {
			cols[i] = SnapshotColumn{
				Name:        c.Name,
				DataType:    c.DataType,
				Nullable:    !notNull[c.Name],
				Description: c.Description,
			}
		}
		h := fingerprint.Compute(m)
		snap.Models[name] = SnapshotEntry{
			Columns:      cols,
			Dependencies: append([]string(nil), m.DependsOn...),
			Kind:         m.Kind,
			Layer:        m.Layer,
			LogicHash:    h.Logic,
			SchemaHash:   h.Schema,
			MetadataHash: h.Metadata,
		}
	}
	return snap
}

func snapshotPath(root, env string) string {
	return filepath.Join(root, ".fabric", "state", env+".state")
}

// Load reads the persisted snapshot for env, or (nil, false, nil) if
// none exists yet.
func Load(root, env string) (*Snapshot, bool, error) {
	path := snapshotPath(root, env)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &cerrors.IOError{Path: path, Err: err}
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		// A malformed snapshot fails fatally rather than being silently
		// discarded and overwritten (spec §4.9 failure semantics).
		return nil, false, &cerrors.StateError{Env: env, Msg: fmt.Sprintf("malformed snapshot: %v", err)}
	}
	return &snap, true, nil
}

// Init snapshots the current IR for env. Fails if a snapshot already
// exists.
func Init(root, env string, corpus model.Corpus) (*Snapshot, error) {
	_, exists, err := Load(root, env)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &cerrors.StateError{Env: env, Msg: "snapshot already exists, use plan/apply to update"}
	}
	snap := BuildSnapshot(env, corpus)
	if err := writeSnapshot(root, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// writeSnapshot persists snap atomically: write to a sibling .tmp
// file, then rename over the target, under an advisory lock so two
// concurrent applies against the same environment cannot interleave.
func writeSnapshot(root string, snap *Snapshot) error {
	path := snapshotPath(root, snap.Env)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &cerrors.IOError{Path: dir, Err: err}
	}

	guard, err := lockfile.Acquire(path + ".lock")
	if err != nil {
		return &cerrors.StateError{Env: snap.Env, Msg: fmt.Sprintf("acquire snapshot lock: %v", err)}
	}
	defer guard.Close()

	data, err := yaml.Marshal(snap)
	if err != nil {
		return &cerrors.StateError{Env: snap.Env, Msg: fmt.Sprintf("marshal snapshot: %v", err)}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return &cerrors.IOError{Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &cerrors.IOError{Path: path, Err: err}
	}
	return nil
}
