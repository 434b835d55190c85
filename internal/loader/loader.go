// Package loader discovers model definition files under a root
// directory, parses each to a generic key/value tree, merges
// partial-file splits, coerces legacy shorthands, and freezes the
// result into a model.Corpus (spec §4.2).
//
// Definition files are authored YAML (gopkg.in/yaml.v3), mirroring
// the teacher's own structured-document conventions in
// internal/config/yaml_config.go and internal/discovery/local.go.
package loader

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shubham184/fabric-compiler/internal/cerrors"
	"github.com/shubham184/fabric-compiler/internal/model"
)

// recognizedSuffixes are the file extensions the loader will attempt
// to parse as model definitions.
var recognizedSuffixes = []string{".model.yaml", ".model.yml", ".yaml", ".yml"}

// partSuffix matches a trailing ".partN" before the extension, e.g.
// "fct_Orders.part2.yaml".
var partSuffix = regexp.MustCompile(`^(.*)\.part(\d+)$`)

// topLevelSections are the only recognized top-level keys in a
// definition file (spec §6). Anything else is a load error for that
// file.
var topLevelSections = map[string]bool{
	"model": true, "source": true, "transformations": true,
	"filters": true, "ctes": true, "aggregations": true,
	"audits": true, "grain": true, "relationships": true,
	"optimization": true,
}

// Result is what Load returns: the frozen corpus plus every
// diagnostic accumulated while loading (spec §4.2, §7 accumulate
// policy — a malformed file is skipped, not fatal to the corpus).
type Result struct {
	Corpus      model.Corpus
	Diagnostics cerrors.Diagnostics
}

// fileGroup is the set of files contributing to one model, in
// filename-lexicographic merge order.
type fileGroup struct {
	stem  string
	files []string
}

// Load walks root, groups definition files by stem (modulo a
// ".partN" suffix), parses and merges each group, and converts the
// merged tree into a model.Model.
func Load(root string) (Result, error) {
	var res Result
	res.Corpus = make(model.Corpus)

	paths, err := discover(root)
	if err != nil {
		return res, &cerrors.IOError{Path: root, Err: err}
	}

	groups := groupByStem(paths)
	stems := make([]string, 0, len(groups))
	for stem := range groups {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	for _, stem := range stems {
		g := groups[stem]
		sort.Strings(g.files)

		merged, err := loadAndMergeGroup(g.files, &res.Diagnostics)
		if err != nil {
			// The whole group fails, not the corpus: record and move on.
			res.Diagnostics.Errorf("", "", "%v", err)
			continue
		}
		if merged == nil {
			continue
		}

		m, convErrs := convert(stem, merged, g.files)
		if len(convErrs) > 0 {
			res.Diagnostics = append(res.Diagnostics, convErrs...)
			if convErrs.HasErrors() {
				continue
			}
		}
		res.Corpus[m.Name] = m
	}

	return res, nil
}

func discover(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, suf := range recognizedSuffixes {
			if strings.HasSuffix(path, suf) {
				out = append(out, path)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// groupByStem groups files sharing the same stem modulo a ".partN"
// suffix, e.g. "fct_Orders.yaml" and "fct_Orders.part2.yaml" both
// belong to stem "fct_Orders".
func groupByStem(paths []string) map[string]*fileGroup {
	groups := make(map[string]*fileGroup)
	for _, p := range paths {
		base := filepath.Base(p)
		for _, suf := range recognizedSuffixes {
			if strings.HasSuffix(base, suf) {
				base = strings.TrimSuffix(base, suf)
				break
			}
		}
		stem := base
		if m := partSuffix.FindStringSubmatch(base); m != nil {
			stem = m[1]
		}
		g, ok := groups[stem]
		if !ok {
			g = &fileGroup{stem: stem}
			groups[stem] = g
		}
		g.files = append(g.files, p)
	}
	return groups
}

// loadAndMergeGroup parses every file in the group and reduces them
// into one generic tree via the merge operator semantics in merge.go.
// Returns nil, nil if every file in the group failed to parse (already
// recorded as diagnostics) and there is nothing left to convert.
func loadAndMergeGroup(files []string, diags *cerrors.Diagnostics) (map[string]any, error) {
	var merged map[string]any
	anyParsed := false

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			diags.Errorf("", "", "%s: %v", f, err)
			continue
		}

		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			diags.Errorf("", "", "%s: malformed document: %v", f, err)
			continue
		}

		for key := range doc {
			if !topLevelSections[key] {
				diags.Errorf("", "", "%s: unknown top-level section %q", f, key)
				delete(doc, key)
			}
		}

		if merged == nil {
			merged = doc
		} else {
			merged = mergeDocs(merged, doc)
		}
		anyParsed = true
	}

	if !anyParsed {
		return nil, nil
	}
	return merged, nil
}
