package loader

// mergeDocs reduces two parsed documents (base, the accumulation of
// lexicographically earlier files; overlay, the next file in order)
// into one, per spec §4.2 / §9:
//
//   - scalars: overlay overwrites base (last-wins in filename
//     lexicographic order)
//   - maps: merge recursively, key by key
//   - lists: concatenated, UNLESS elements carry a stable element key
//     and an "operator" field (+ append/default, - remove by key,
//     U update by key)
func mergeDocs(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range overlay {
		bv, exists := out[k]
		if !exists {
			out[k] = ov
			continue
		}
		out[k] = mergeValue(bv, ov)
	}
	return out
}

func mergeValue(base, overlay any) any {
	switch ov := overlay.(type) {
	case map[string]any:
		if bv, ok := base.(map[string]any); ok {
			return mergeDocs(bv, ov)
		}
		return ov
	case []any:
		if bv, ok := base.([]any); ok {
			return mergeLists(bv, ov)
		}
		return ov
	default:
		// scalar: overlay wins
		return ov
	}
}

// mergeLists applies the +/-/U operator reduction. Elements without a
// recognized element key (no "name" or "column" field) are treated as
// plain append entries, except under "-", where they are dropped.
func mergeLists(base, overlay []any) []any {
	// Fast path: if nothing in overlay carries an operator, the merge
	// rule degenerates to concatenation.
	hasOperator := false
	for _, e := range overlay {
		if m, ok := e.(map[string]any); ok {
			if _, ok := m["operator"]; ok {
				hasOperator = true
				break
			}
		}
	}
	if !hasOperator {
		out := make([]any, 0, len(base)+len(overlay))
		out = append(out, base...)
		out = append(out, overlay...)
		return out
	}

	result := append([]any(nil), base...)
	for _, e := range overlay {
		m, ok := e.(map[string]any)
		if !ok {
			result = append(result, e)
			continue
		}
		op, _ := m["operator"].(string)
		key := elementKey(m)

		switch op {
		case "-":
			if key == "" {
				continue
			}
			result = removeByKey(result, key)
		case "U":
			if key == "" {
				result = append(result, withoutOperator(m))
				continue
			}
			result = updateByKey(result, key, withoutOperator(m))
		case "+", "":
			result = append(result, withoutOperator(m))
		default:
			result = append(result, withoutOperator(m))
		}
	}
	return result
}

// elementKey returns the stable identity of a list element: its
// "name" field if present, else its "column" field, else "".
func elementKey(m map[string]any) string {
	if v, ok := m["name"].(string); ok {
		return v
	}
	if v, ok := m["column"].(string); ok {
		return v
	}
	return ""
}

func withoutOperator(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "operator" {
			continue
		}
		out[k] = v
	}
	return out
}

func removeByKey(list []any, key string) []any {
	out := list[:0:0]
	for _, e := range list {
		m, ok := e.(map[string]any)
		if ok && elementKey(m) == key {
			continue
		}
		out = append(out, e)
	}
	return out
}

func updateByKey(list []any, key string, replacement map[string]any) []any {
	found := false
	out := make([]any, len(list))
	for i, e := range list {
		m, ok := e.(map[string]any)
		if ok && elementKey(m) == key {
			out[i] = replacement
			found = true
			continue
		}
		out[i] = e
	}
	if !found {
		out = append(out, replacement)
	}
	return out
}
