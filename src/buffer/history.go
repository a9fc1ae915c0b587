// Package buffer keeps the most recent accelerometer samples in fixed-size rings.
package buffer

import (
	"sync"

	"github.com/iafilius/AccelMonitor/src/sensor"
)

// DefaultLength is how many samples the live chart shows.
const DefaultLength = 100

// Series is a chronological copy of the buffered samples. All slices have the same length.
type Series struct {
	Index []float64
	X     []float64
	Y     []float64
	Z     []float64
}

// Len returns the number of points in the series.
func (s Series) Len() int { return len(s.Index) }

// History is a bounded, thread-safe sample history. One goroutine appends while
// another takes snapshots for drawing.
type History struct {
	mu    sync.RWMutex
	idx   []int64
	x     []float64
	y     []float64
	z     []float64
	start int // position of the oldest entry
	n     int
	total uint64
	gen   uint64
}

// New returns a history holding at most length samples. Non-positive lengths use DefaultLength.
func New(length int) *History {
	if length <= 0 {
		length = DefaultLength
	}
	return &History{
		idx: make([]int64, length),
		x:   make([]float64, length),
		y:   make([]float64, length),
		z:   make([]float64, length),
	}
}

// Cap returns the maximum number of samples kept.
func (h *History) Cap() int { return len(h.idx) }

// Len returns the number of samples currently held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.n
}

// Total returns how many samples were appended since the last Reset.
func (h *History) Total() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Generation increases on every Append and Reset and never goes back, so a
// reader that remembers it can tell whether the contents changed.
func (h *History) Generation() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gen
}

// Append stores a reading, evicting the oldest one when full. The sample index
// continues from the newest buffered sample, starting at 1 for an empty history.
func (h *History) Append(x, y, z float64) sensor.Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	size := len(h.idx)
	var next int64 = 1
	if h.n > 0 {
		next = h.idx[(h.start+h.n-1)%size] + 1
	}
	var pos int
	if h.n < size {
		pos = (h.start + h.n) % size
		h.n++
	} else {
		pos = h.start
		h.start = (h.start + 1) % size
	}
	h.idx[pos], h.x[pos], h.y[pos], h.z[pos] = next, x, y, z
	h.total++
	h.gen++
	return sensor.Sample{Index: next, X: x, Y: y, Z: z}
}

// Add is Append for a decoded sample; the sample's own Index is ignored.
func (h *History) Add(s sensor.Sample) sensor.Sample { return h.Append(s.X, s.Y, s.Z) }

// Latest returns the newest sample, if any.
func (h *History) Latest() (sensor.Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.n == 0 {
		return sensor.Sample{}, false
	}
	p := (h.start + h.n - 1) % len(h.idx)
	return sensor.Sample{Index: h.idx[p], X: h.x[p], Y: h.y[p], Z: h.z[p]}, true
}

// Snapshot copies the buffered samples, oldest first.
func (h *History) Snapshot() Series {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Series{
		Index: make([]float64, h.n),
		X:     make([]float64, h.n),
		Y:     make([]float64, h.n),
		Z:     make([]float64, h.n),
	}
	size := len(h.idx)
	for i := 0; i < h.n; i++ {
		p := (h.start + i) % size
		s.Index[i] = float64(h.idx[p])
		s.X[i] = h.x[p]
		s.Y[i] = h.y[p]
		s.Z[i] = h.z[p]
	}
	return s
}

// Reset drops all samples; the next Append starts again at index 1.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.start, h.n, h.total = 0, 0, 0
	h.gen++
}
