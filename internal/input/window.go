// Package input defines the raw pointer sample model and the bounded,
// time-ordered sample window the stabilization pipeline operates on.
package input

import "math"

// Point is a 2D screen-space coordinate in pixels.
type Point struct {
	X float64
	Y float64
}

// Sample is a single timestamped pointer observation. Samples are
// immutable once created; one is built per host input event.
type Sample struct {
	X           float64
	Y           float64
	TimestampMs int64 // Unix millis
}

// Point returns the sample's position.
func (s Sample) Point() Point {
	return Point{X: s.X, Y: s.Y}
}

// Valid reports whether the sample can enter the window. Samples with
// non-finite coordinates or a non-positive timestamp are malformed and
// must be dropped by the caller; failure containment is one sample.
func (s Sample) Valid() bool {
	if math.IsNaN(s.X) || math.IsInf(s.X, 0) {
		return false
	}
	if math.IsNaN(s.Y) || math.IsInf(s.Y, 0) {
		return false
	}
	return s.TimestampMs > 0
}

// Window is a time-ordered sequence of samples bounded by a horizon.
// Every append evicts entries older than the horizon relative to the
// newest sample, so the window never holds an entry older than
// horizonMs behind the latest sample and per-tick analysis stays
// O(samples-in-window) rather than O(session length).
//
// The window is single-owner state: it is mutated only by the engine
// coordinator and performs no locking of its own.
type Window struct {
	horizonMs int64
	samples   []Sample
}

// NewWindow creates a window with the given horizon in milliseconds.
func NewWindow(horizonMs int64) *Window {
	return &Window{horizonMs: horizonMs}
}

// SetHorizon updates the eviction horizon. The new horizon takes
// effect on the next append; it does not retroactively evict.
func (w *Window) SetHorizon(horizonMs int64) {
	if horizonMs > 0 {
		w.horizonMs = horizonMs
	}
}

// Horizon returns the current eviction horizon in milliseconds.
func (w *Window) Horizon() int64 {
	return w.horizonMs
}

// Append inserts a sample and prunes entries older than the horizon.
// Malformed samples and samples whose timestamp regresses behind the
// current latest are dropped; the return value reports whether the
// sample was admitted.
func (w *Window) Append(s Sample) bool {
	if !s.Valid() {
		return false
	}
	if n := len(w.samples); n > 0 && s.TimestampMs < w.samples[n-1].TimestampMs {
		return false
	}
	w.samples = append(w.samples, s)
	w.prune(s.TimestampMs)
	return true
}

// prune evicts samples with timestamp < latest − horizon.
func (w *Window) prune(latestMs int64) {
	cutoff := latestMs - w.horizonMs
	i := 0
	for i < len(w.samples) && w.samples[i].TimestampMs < cutoff {
		i++
	}
	if i > 0 {
		w.samples = append(w.samples[:0], w.samples[i:]...)
	}
}

// Len returns the number of in-window samples.
func (w *Window) Len() int {
	return len(w.samples)
}

// Latest returns the most recent sample, if any.
func (w *Window) Latest() (Sample, bool) {
	if len(w.samples) == 0 {
		return Sample{}, false
	}
	return w.samples[len(w.samples)-1], true
}

// Samples returns the in-window samples in time order. The returned
// slice aliases internal storage; callers must not retain it across
// appends. The engine copies before handing samples to subscribers.
func (w *Window) Samples() []Sample {
	return w.samples
}

// Snapshot returns a copy of the in-window samples, safe to retain.
func (w *Window) Snapshot() []Sample {
	out := make([]Sample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Reset discards all buffered samples.
func (w *Window) Reset() {
	w.samples = w.samples[:0]
}
