package service

// Filter returns the items fn accepts. The result is never nil so it
// encodes as an empty JSON array.
func Filter[T any](items []T, fn func(T) bool) []T {
	result := make([]T, 0, len(items))
	for _, v := range items {
		if fn(v) {
			result = append(result, v)
		}
	}
	return result
}
