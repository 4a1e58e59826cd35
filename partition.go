package parallel

import "iter"

// span is the half-open index range [low, high) of one partition.
type span struct {
	low, high int
}

func (s span) len() int { return s.high - s.low }

// partition splits [low, high) into n contiguous spans of (high-low)/n indices,
// the last span absorbing the remainder. n is reduced to high-low when there
// are fewer indices than partitions, so no span is empty unless the range is.
func partition(low, high, n int) []span {
	count := high - low
	if n > count {
		n = count
	}
	if n < 1 {
		n = 1
	}

	size := count / n
	spans := make([]span, n)
	for i := range spans {
		spans[i] = span{low: low + i*size, high: low + (i+1)*size}
	}
	spans[n-1].high = high
	return spans
}

// chunkSizer yields the adaptive chunk sizes used by ForEach:
// b, min(⌊b·s⌋, m), min(⌊b·s²⌋, m), ...
type chunkSizer struct {
	next   float64
	growth float64
	max    int
}

func newChunkSizer(s Settings) *chunkSizer {
	return &chunkSizer{next: float64(s.InitialChunkSize), growth: s.ChunkGrowthFactor, max: s.MaxChunkSize}
}

func (c *chunkSizer) take() int {
	if c.next >= float64(c.max) {
		return max(c.max, 1)
	}
	size := int(c.next)
	c.next *= c.growth
	return max(size, 1)
}

// maxChunkPrealloc caps the capacity reserved for a chunk buffer up front.
// Larger chunks grow by append as elements arrive.
const maxChunkPrealloc = 1024

// fillChunks pulls elements from seq on the calling goroutine into freshly
// allocated buffers sized by sizer and hands each full buffer, then the final
// partial one, to emit.
func fillChunks[T any](seq iter.Seq[T], sizer *chunkSizer, emit func(chunk []T)) {
	size := sizer.take()
	chunk := make([]T, 0, min(size, maxChunkPrealloc))
	for v := range seq {
		chunk = append(chunk, v)
		if len(chunk) == size {
			emit(chunk)
			size = sizer.take()
			chunk = make([]T, 0, min(size, maxChunkPrealloc))
		}
	}
	if len(chunk) > 0 {
		emit(chunk)
	}
}
