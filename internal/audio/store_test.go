package audio

import (
	"sync"
	"testing"
)

func TestStoreAppendAndDrain(t *testing.T) {
	store := NewStore()

	frames := [][]float32{
		{0.1, 0.2, 0.3},
		{0.4, 0.5},
		{0.6},
	}

	for _, f := range frames {
		store.Append(f)
	}

	if store.ChunkCount() != 3 {
		t.Errorf("Expected 3 chunks, got %d", store.ChunkCount())
	}

	if store.TotalSamples() != 6 {
		t.Errorf("Expected 6 total samples, got %d", store.TotalSamples())
	}

	chunks := store.Drain()
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 drained chunks, got %d", len(chunks))
	}

	// Arrival order is preserved
	flat := Flatten(chunks)
	expected := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	for i, s := range expected {
		if flat[i] != s {
			t.Errorf("Sample %d: expected %f, got %f", i, s, flat[i])
		}
	}

	// Drain clears the store
	if store.ChunkCount() != 0 || store.TotalSamples() != 0 {
		t.Errorf("Store not empty after drain: %d chunks, %d samples",
			store.ChunkCount(), store.TotalSamples())
	}
}

func TestStoreAppendCopiesFrame(t *testing.T) {
	// The input frame is borrowed memory; the store must copy it before
	// returning so later mutation by the caller cannot corrupt the buffer.
	store := NewStore()

	frame := []float32{0.5, -0.5}
	store.Append(frame)
	frame[0] = 99
	frame[1] = 99

	chunks := store.Drain()
	if chunks[0][0] != 0.5 || chunks[0][1] != -0.5 {
		t.Errorf("Store retained borrowed frame instead of copying: %v", chunks[0])
	}
}

func TestStoreAppendEmptyFrame(t *testing.T) {
	store := NewStore()
	store.Append(nil)
	store.Append([]float32{})

	if store.ChunkCount() != 0 {
		t.Errorf("Expected empty frames to be ignored, got %d chunks", store.ChunkCount())
	}
}

func TestStoreConcurrentAppend(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Append([]float32{1, 2, 3, 4})
			}
		}()
	}
	wg.Wait()

	if store.TotalSamples() != 8*100*4 {
		t.Errorf("Expected %d samples, got %d", 8*100*4, store.TotalSamples())
	}
}

func TestFlattenEmpty(t *testing.T) {
	if got := Flatten(nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %d samples", len(got))
	}
}
