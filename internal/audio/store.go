package audio

import (
	"sync"
	"time"
)

// Store accumulates raw float PCM chunks produced by a capture callback.
// Append copies the incoming frame because capture callbacks hand over
// borrowed buffers that are only valid for the duration of the call.
// The store performs no amplitude enforcement; clipping is the encoder's
// responsibility.
type Store struct {
	chunks       [][]float32
	totalSamples int
	totalChunks  uint64
	lastUpdate   time.Time

	mu sync.RWMutex
}

// StoreStats represents store statistics for monitoring.
type StoreStats struct {
	Chunks       int       `json:"chunks"`
	TotalSamples int       `json:"total_samples"`
	LastUpdate   time.Time `json:"last_update"`
}

// NewStore creates a new PCM sample store.
func NewStore() *Store {
	return &Store{
		chunks:     make([][]float32, 0, 64),
		lastUpdate: time.Now(),
	}
}

// Append copies the frame into the store in arrival order. It is safe to
// call from the audio-processing callback: amortized O(1), no locks held
// beyond the append itself, never blocks on I/O.
func (s *Store) Append(frame []float32) {
	if len(frame) == 0 {
		return
	}

	chunk := make([]float32, len(frame))
	copy(chunk, frame)

	s.mu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.totalSamples += len(chunk)
	s.totalChunks++
	s.lastUpdate = time.Now()
	s.mu.Unlock()
}

// Drain returns all buffered chunks and clears the store. The chunks are
// moved, not copied; callers own the returned slices. Called once per
// recording, at stop time.
func (s *Store) Drain() [][]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := s.chunks
	s.chunks = make([][]float32, 0, 64)
	s.totalSamples = 0
	return chunks
}

// TotalSamples returns the number of buffered samples across all chunks.
func (s *Store) TotalSamples() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalSamples
}

// ChunkCount returns the number of buffered chunks.
func (s *Store) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// LastUpdate returns the time of the last append.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Stats returns current store statistics.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreStats{
		Chunks:       len(s.chunks),
		TotalSamples: s.totalSamples,
		LastUpdate:   s.lastUpdate,
	}
}

// Flatten concatenates chunks into a single sample slice, preserving
// arrival order.
func Flatten(chunks [][]float32) []float32 {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}

	out := make([]float32, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
