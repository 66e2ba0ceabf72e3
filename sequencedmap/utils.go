package sequencedmap

import "iter"

// Len returns the number of elements in the map. nil safe.
func Len[K comparable, V any](m *Map[K, V]) int {
	if m == nil {
		return 0
	}
	return len(m.l)
}

// From creates a new map from the given sequence.
func From[K comparable, V any](seq iter.Seq2[K, V]) *Map[K, V] {
	newMap := New[K, V]()

	for k, v := range seq {
		newMap.Set(k, v)
	}

	return newMap
}

// Merge copies every element of src into dst in order.
// Keys already present in dst keep their position and take the value from src.
func Merge[K comparable, V any](dst, src *Map[K, V]) {
	for k, v := range src.All() {
		dst.Set(k, v)
	}
}
