package behavior

import (
	"sync"

	"round1/internal/model"
)

// FrameBuffer is a bounded, mutex-guarded window of recent FrameSamples.
// When full the oldest sample is evicted. Readers always get a copy, so
// aggregation never observes a half-appended batch.
type FrameBuffer struct {
	mu      sync.Mutex
	samples []model.FrameSample
	start   int
	size    int
}

// NewFrameBuffer creates a buffer retaining at most capacity samples
func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &FrameBuffer{samples: make([]model.FrameSample, capacity)}
}

// Append adds samples in order
func (b *FrameBuffer) Append(samples ...model.FrameSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.samples)
	for _, s := range samples {
		if b.size < capacity {
			b.samples[(b.start+b.size)%capacity] = s
			b.size++
			continue
		}
		b.samples[b.start] = s
		b.start = (b.start + 1) % capacity
	}
}

// Snapshot returns the retained samples oldest first
func (b *FrameBuffer) Snapshot() []model.FrameSample {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyLocked()
}

// Drain returns the retained samples and empties the buffer
func (b *FrameBuffer) Drain() []model.FrameSample {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.copyLocked()
	b.start, b.size = 0, 0
	return out
}

// Len returns the number of retained samples
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *FrameBuffer) copyLocked() []model.FrameSample {
	out := make([]model.FrameSample, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.samples[(b.start+i)%len(b.samples)]
	}
	return out
}
