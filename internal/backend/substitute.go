package backend

// MockSearchValue is the fixed ranked list served while offline, in the backend's [score, id] layout.
func MockSearchValue() any {
	return []any{
		[]any{0.92, int64(0)},
		[]any{0.85, int64(1)},
		[]any{0.78, int64(2)},
	}
}

// zeroRecord is the stored record served for any id while offline.
func zeroRecord(dim int) any {
	vec := make([]any, dim)
	for i := range vec {
		vec[i] = 0.0
	}
	return map[string]any{"vector": vec}
}
