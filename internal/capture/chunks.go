package capture

import (
	"sync"
	"time"
)

// ChunkSet accumulates the opaque byte chunks emitted by the native
// streaming recorder. Chunks are kept in arrival order; concatenating
// them in that order yields a complete, independently decodable
// container. Reordering would corrupt it.
type ChunkSet struct {
	chunks     [][]byte
	totalBytes int
	lastUpdate time.Time

	mu sync.RWMutex
}

// ChunkStats represents chunk-set statistics for monitoring.
type ChunkStats struct {
	Chunks     int       `json:"chunks"`
	TotalBytes int       `json:"total_bytes"`
	LastUpdate time.Time `json:"last_update"`
}

// NewChunkSet creates an empty chunk set.
func NewChunkSet() *ChunkSet {
	return &ChunkSet{
		chunks:     make([][]byte, 0, 32),
		lastUpdate: time.Now(),
	}
}

// Append copies the chunk into the set in arrival order.
func (c *ChunkSet) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	buf := make([]byte, len(chunk))
	copy(buf, chunk)

	c.mu.Lock()
	c.chunks = append(c.chunks, buf)
	c.totalBytes += len(buf)
	c.lastUpdate = time.Now()
	c.mu.Unlock()
}

// Concat joins all chunks in arrival order into a single byte buffer and
// clears the set.
func (c *ChunkSet) Concat() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]byte, 0, c.totalBytes)
	for _, chunk := range c.chunks {
		out = append(out, chunk...)
	}

	c.chunks = make([][]byte, 0, 32)
	c.totalBytes = 0
	return out
}

// Count returns the number of buffered chunks.
func (c *ChunkSet) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chunks)
}

// TotalBytes returns the byte total across buffered chunks.
func (c *ChunkSet) TotalBytes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalBytes
}

// Stats returns current chunk-set statistics.
func (c *ChunkSet) Stats() ChunkStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ChunkStats{
		Chunks:     len(c.chunks),
		TotalBytes: c.totalBytes,
		LastUpdate: c.lastUpdate,
	}
}
