package observability

import (
	"math"
	"sort"
	"sync"
	"time"
)

// LatencySnapshot is the aggregate response-time view served by /v1/stats.
type LatencySnapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	WindowSize  int       `json:"window_size"`
	Samples     int       `json:"samples"`
	LastMS      float64   `json:"last_ms"`
	MeanMS      float64   `json:"mean_ms"`
	P95MS       float64   `json:"p95_ms"`
}

// LatencyWindow keeps the most recent response times in a fixed ring buffer.
// Old samples are overwritten, not summarized.
type LatencyWindow struct {
	mu     sync.RWMutex
	values []float64
	next   int
	filled bool
	last   float64
}

func NewLatencyWindow(maxSamples int) *LatencyWindow {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &LatencyWindow{values: make([]float64, maxSamples)}
}

func (w *LatencyWindow) Observe(ms float64) {
	if ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.values[w.next] = ms
	w.last = ms
	w.next++
	if w.next >= len(w.values) {
		w.next = 0
		w.filled = true
	}
}

func (w *LatencyWindow) Snapshot() LatencySnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	n := w.next
	if w.filled {
		n = len(w.values)
	}
	snap := LatencySnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  len(w.values),
		Samples:     n,
	}
	if n == 0 {
		return snap
	}

	samples := make([]float64, n)
	copy(samples, w.values[:n])
	sort.Float64s(samples)

	sum := 0.0
	for _, v := range samples {
		sum += v
	}

	snap.LastMS = round2(w.last)
	snap.MeanMS = round2(sum / float64(n))
	snap.P95MS = round2(quantile(samples, 0.95))
	return snap
}

func (w *LatencyWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.values = make([]float64, len(w.values))
	w.next = 0
	w.filled = false
	w.last = 0
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
