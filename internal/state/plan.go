package state

import (
	"github.com/shubham184/fabric-compiler/internal/depgraph"
	"github.com/shubham184/fabric-compiler/internal/model"
)

// ChangeKind distinguishes the four plan-entry variants (spec §4.9).
type ChangeKind string

const (
	ChangeAdd        ChangeKind = "Add"
	ChangeDropRemove ChangeKind = "DropRemove"
	ChangeReplace    ChangeKind = "Replace"
	ChangeAlterMeta  ChangeKind = "AlterMeta"
)

// Change is one entry in a Plan.
type Change struct {
	Model string
	Kind  ChangeKind
}

// Mode governs what Apply does with a computed Plan.
type Mode string

const (
	ModeDryRun    Mode = "dry-run"
	ModeAutoApply Mode = "auto-apply"
	ModeConfirm   Mode = "confirm"
)

// Plan diffs the current corpus against the persisted snapshot for
// env, producing Changes ordered per spec §4.9: Adds and Replaces in
// resolver topo order (dependencies first), DropRemoves in reverse
// topo order (dependents first), AlterMeta in topo order with no
// cascade requirement.
func Plan(root, env string, corpus model.Corpus) ([]Change, *Snapshot, error) {
	prev, exists, err := Load(root, env)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		prev = &Snapshot{Env: env, Models: map[string]SnapshotEntry{}}
	}

	current := BuildSnapshot(env, corpus)

	// Union the live corpus with synthetic entries reconstructed from
	// dropped snapshot records (their last known dependency list) so a
	// single topo order covers Adds/Replaces/AlterMeta and DropRemoves
	// consistently, rather than approximating the dropped side.
	union := make(model.Corpus, len(corpus)+len(prev.Models))
	for name, m := range corpus {
		union[name] = m
	}
	for name, entry := range prev.Models {
		if _, ok := union[name]; ok {
			continue
		}
		union[name] = &model.Model{Name: name, DependsOn: entry.Dependencies}
	}

	g := depgraph.Build(union)
	order, err := g.TopoOrder()
	if err != nil {
		return nil, nil, err
	}

	var adds, replaces, alters, drops []Change
	for _, name := range order {
		curEntry, inCurrent := current.Models[name]
		if !inCurrent {
			if _, wasPresent := prev.Models[name]; wasPresent {
				drops = append([]Change{{Model: name, Kind: ChangeDropRemove}}, drops...)
			}
			continue
		}
		prevEntry, existed := prev.Models[name]
		switch {
		case !existed:
			adds = append(adds, Change{Model: name, Kind: ChangeAdd})
		case curEntry.LogicHash != prevEntry.LogicHash || curEntry.SchemaHash != prevEntry.SchemaHash:
			replaces = append(replaces, Change{Model: name, Kind: ChangeReplace})
		case curEntry.MetadataHash != prevEntry.MetadataHash:
			alters = append(alters, Change{Model: name, Kind: ChangeAlterMeta})
		}
	}

	changes := make([]Change, 0, len(adds)+len(replaces)+len(alters)+len(drops))
	changes = append(changes, adds...)
	changes = append(changes, replaces...)
	changes = append(changes, alters...)
	changes = append(changes, drops...)

	return changes, current, nil
}

// Apply runs changes according to mode. ModeDryRun computes and
// returns without writing. ModeAutoApply and ModeConfirm both persist
// next unconditionally once called. No caller in this module asks for
// confirmation: the CLI's apply command passes confirm straight
// through, so it writes exactly as auto-apply does.
func Apply(root string, next *Snapshot, mode Mode) error {
	if mode == ModeDryRun {
		return nil
	}
	// Per spec §4.9 failure semantics the previous snapshot is left
	// intact on failure: writeSnapshot only replaces the file via its
	// final atomic rename.
	return writeSnapshot(root, next)
}
