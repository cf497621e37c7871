package config

// mergeMaps layers src onto dst. Maps merge key by key; any other value
// replaces what dst held. An explicit null in src removes the key, so an
// overlay can write `icons: ~` to fall back to the built-in mappings.
func mergeMaps(dst, src map[string]any) {
	for key, val := range src {
		if val == nil {
			delete(dst, key)
			continue
		}

		next, ok := val.(map[string]any)
		if !ok {
			dst[key] = val
			continue
		}

		cur, ok := dst[key].(map[string]any)
		if !ok {
			cur = make(map[string]any, len(next))
			dst[key] = cur
		}
		mergeMaps(cur, next)
	}
}
