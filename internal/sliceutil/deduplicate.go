// Package sliceutil provides generic slice helpers.
package sliceutil

// Deduplicate keeps the first item for each key, preserving order.
//
//	blocks = sliceutil.Deduplicate(blocks, func(b Block) string { return b.SubjectCode + "/" + b.Section })
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}
	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFunc(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// Unique removes repeated values, keeping first occurrences in order.
func Unique[T comparable](items []T) []T {
	return Deduplicate(items, func(v T) T { return v })
}
