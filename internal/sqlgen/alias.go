package sqlgen

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shubham184/fabric-compiler/internal/model"
)

// aliasMapping is the single source of truth for qualifying a
// reference_table to its SQL alias within one model's generated
// statement (spec §4.6 "Aliasing discipline").
type aliasMapping struct {
	byTable map[string]string // reference_table/base_table name -> alias
	order   []string          // tables in the order aliases were assigned
}

// buildAliasMapping assigns aliases once per model: the first
// dependency (base_table if set, else the first depends_on entry)
// becomes "T"; every additional dependency gets a short alias derived
// from the leading letter of its name, with numeric suffixes breaking
// collisions. This approximates "consonant initials" from spec §4.6
// without a full tokenizer over multi-word identifiers.
func buildAliasMapping(m *model.Model) *aliasMapping {
	am := &aliasMapping{byTable: map[string]string{}}

	first := m.BaseTable
	if first == "" && len(m.DependsOn) > 0 {
		first = m.DependsOn[0]
	}
	if first != "" {
		am.byTable[first] = "T"
		am.order = append(am.order, first)
	}

	used := map[string]bool{"T": true}
	for _, dep := range m.DependsOn {
		if dep == first {
			continue
		}
		if _, ok := am.byTable[dep]; ok {
			continue
		}
		alias := shortAlias(dep, used)
		used[alias] = true
		am.byTable[dep] = alias
		am.order = append(am.order, dep)
	}

	return am
}

func shortAlias(name string, used map[string]bool) string {
	base := leadingLetterAlias(name)
	if base == "" {
		base = "X"
	}
	if !used[base] {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + strconv.Itoa(i)
		if !used[candidate] {
			return candidate
		}
	}
}

func leadingLetterAlias(name string) string {
	for _, r := range name {
		if unicode.IsLetter(r) {
			return strings.ToUpper(string(r))
		}
	}
	return ""
}

// Alias returns the alias assigned to table, or "" if it was never
// registered (a GenerationError condition upstream).
func (a *aliasMapping) Alias(table string) (string, bool) {
	v, ok := a.byTable[table]
	return v, ok
}
