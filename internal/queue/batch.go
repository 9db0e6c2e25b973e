package queue

// DefaultBatchSize is the number of items shown between intermissions.
const DefaultBatchSize = 10

// CreateBatches slices items into consecutive groups of size. An empty
// input yields a single empty batch, so callers can rely on at least one
// batch. The batches share no backing array with items.
func CreateBatches(items []Item, size int) [][]Item {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(items) == 0 {
		return [][]Item{{}}
	}

	batches := make([][]Item, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batch := make([]Item, end-start)
		copy(batch, items[start:end])
		batches = append(batches, batch)
	}
	return batches
}

// BatchIndexOf returns the batch containing the global index idx by
// walking batch lengths. An idx past the end maps to the last batch.
func BatchIndexOf(batches [][]Item, idx int) int {
	acc := 0
	for i, b := range batches {
		acc += len(b)
		if idx < acc {
			return i
		}
	}
	return max(len(batches)-1, 0)
}

// BatchStart returns the global index of the first item in batch bi.
func BatchStart(batches [][]Item, bi int) int {
	start := 0
	for i := 0; i < bi && i < len(batches); i++ {
		start += len(batches[i])
	}
	return start
}

// Flatten concatenates batches into one slice.
func Flatten(batches [][]Item) []Item {
	var n int
	for _, b := range batches {
		n += len(b)
	}
	out := make([]Item, 0, n)
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}
