package lens

// Path creates a lens into a nested map[string]any document, focusing the
// value at the given key path. Get returns nil when any segment is absent
// or not a nested map. Set rebuilds the path copy-on-write: every map along
// the path is shallow-copied, untouched siblings are shared with the
// original document, and missing intermediate maps are created.
//
// An empty path focuses the document itself (Get returns it, Set replaces
// it when given a map[string]any, otherwise leaves it unchanged).
func Path(keys ...string) Lens[map[string]any, any] {
	return Lens[map[string]any, any]{
		get: func(doc map[string]any) any {
			return pathGet(doc, keys)
		},
		set: func(doc map[string]any, v any) map[string]any {
			if len(keys) == 0 {
				if m, ok := v.(map[string]any); ok {
					return m
				}
				return doc
			}
			return pathSet(doc, keys, v)
		},
	}
}

func pathGet(doc map[string]any, keys []string) any {
	if len(keys) == 0 {
		return doc
	}
	cur := any(doc)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[k]
		if !ok {
			return nil
		}
	}
	return cur
}

func pathSet(doc map[string]any, keys []string, v any) map[string]any {
	out := make(map[string]any, len(doc)+1)
	for k, val := range doc {
		out[k] = val
	}

	if len(keys) == 1 {
		out[keys[0]] = v
		return out
	}

	child, _ := out[keys[0]].(map[string]any)
	out[keys[0]] = pathSet(child, keys[1:], v)
	return out
}
