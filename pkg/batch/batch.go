// Package batch splits ordered sequences into capped-size chunks for
// write endpoints that reject oversized requests.
package batch

// Chunks splits items into contiguous sub-slices of at most size elements,
// preserving order. The final chunk may be shorter. The sub-slices share
// backing storage with items. A non-positive size panics: callers configure
// batch sizes from endpoint caps, so zero means a broken configuration.
func Chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		panic("batch: non-positive chunk size")
	}

	if len(items) == 0 {
		return nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}

	return chunks
}

// Count returns the number of chunks Chunks would produce for n items.
func Count(n, size int) int {
	if size <= 0 {
		panic("batch: non-positive chunk size")
	}
	return (n + size - 1) / size
}
