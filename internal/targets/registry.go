// Package targets tracks interactive targets: their expanded hit
// regions, priority ordering for sequential access, per-target
// interaction history and liveness sweeping of detached targets.
package targets

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/GrupoUS/steadyinput/internal/input"
)

// Priority is the healthcare-ordinal ranking governing target ordering.
// Lower values sort first.
type Priority int

const (
	PriorityEmergency Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

// String returns the priority's wire name.
func (p Priority) String() string {
	switch p {
	case PriorityEmergency:
		return "emergency"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Method is how a target is activated.
type Method string

const (
	MethodClick Method = "click"
	MethodHover Method = "hover"
	MethodDwell Method = "dwell"
	MethodTouch Method = "touch"
)

// MinTargetSizePx is the minimum expanded hit-region size per axis
// (the conventional minimum touch-target size).
const MinTargetSizePx = 44.0

// InteractionHistorySize bounds the per-target interaction ring buffer.
const InteractionHistorySize = 20

// Rect is an axis-aligned rectangle {origin, size} in pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p lies within the rectangle (edges
// inclusive).
func (r Rect) Contains(p input.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Scale grows the rectangle about its centre by the given factor.
func (r Rect) Scale(factor float64) Rect {
	if factor <= 1 {
		return r
	}
	newW := r.W * factor
	newH := r.H * factor
	return Rect{
		X: r.X - (newW-r.W)/2,
		Y: r.Y - (newH-r.H)/2,
		W: newW,
		H: newH,
	}
}

// ExpandBounds computes a target's hit-testable rectangle. When
// large-targets mode is on, width and height are scaled by the
// multiplier keeping the origin fixed; each axis is then floored at
// MinTargetSizePx (grown about the centre so small targets stay
// anchored). The result always contains the original bounds.
func ExpandBounds(b Rect, multiplier float64, largeTargets bool) Rect {
	out := b
	if largeTargets && multiplier > 1 {
		out.W = b.W * multiplier
		out.H = b.H * multiplier
	}
	if out.W < MinTargetSizePx {
		out.X -= (MinTargetSizePx - out.W) / 2
		out.W = MinTargetSizePx
	}
	if out.H < MinTargetSizePx {
		out.Y -= (MinTargetSizePx - out.H) / 2
		out.H = MinTargetSizePx
	}
	return out
}

// Interaction is one entry in a target's history ring buffer.
type Interaction struct {
	ID   string      `json:"id"` // UUID, unique per recorded interaction
	Kind string      `json:"kind"`
	AtMs int64       `json:"at_ms"`
	Pos  input.Point `json:"pos"`
}

// Interaction kinds recorded in target history.
const (
	InteractionHoverEnter = "hover_enter"
	InteractionHoverExit  = "hover_exit"
	InteractionActivate   = "activate"
)

// LivenessProbe reports whether a target's backing element is still
// attached. A nil probe means the target is always live.
type LivenessProbe func() bool

// Target is a registered interactive element.
type Target struct {
	ID             string
	OriginalBounds Rect
	ExpandedBounds Rect
	Priority       Priority
	Method         Method

	// LastStabilized is the most recent stabilized position observed
	// while the pointer was over this target.
	LastStabilized input.Point

	probe LivenessProbe
	order int64 // registration sequence, breaks priority ties

	// interactions is a ring buffer of the last
	// InteractionHistorySize interactions.
	interactions []Interaction
}

// Alive reports whether the target's backing element is attached.
func (t *Target) Alive() bool {
	if t.probe == nil {
		return true
	}
	return t.probe()
}

// RecordInteraction appends to the target's history, evicting the
// oldest entry once the ring is full.
func (t *Target) RecordInteraction(kind string, atMs int64, pos input.Point) Interaction {
	in := Interaction{
		ID:   uuid.NewString(),
		Kind: kind,
		AtMs: atMs,
		Pos:  pos,
	}
	t.interactions = append(t.interactions, in)
	if len(t.interactions) > InteractionHistorySize {
		t.interactions = t.interactions[len(t.interactions)-InteractionHistorySize:]
	}
	return in
}

// Interactions returns a copy of the target's interaction history,
// oldest first.
func (t *Target) Interactions() []Interaction {
	out := make([]Interaction, len(t.interactions))
	copy(out, t.interactions)
	return out
}

// Options configures target registration.
type Options struct {
	Priority Priority
	Method   Method
	Probe    LivenessProbe
}

// Registry tracks live targets. It is single-owner state mutated by
// the engine coordinator; the lock exists for diagnostic readers
// (TargetCount, Ordered) arriving from other goroutines.
type Registry struct {
	mu        sync.RWMutex
	targets   map[string]*Target
	nextOrder int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]*Target)}
}

// Register adds a target with bounds expanded per the current settings.
// Registering an id that is already live is rejected; unregister first.
func (r *Registry) Register(id string, bounds Rect, multiplier float64, largeTargets bool, opts Options) (*Target, error) {
	if id == "" {
		return nil, fmt.Errorf("target id must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.targets[id]; exists {
		return nil, fmt.Errorf("target %q already registered", id)
	}
	method := opts.Method
	if method == "" {
		method = MethodDwell
	}
	t := &Target{
		ID:             id,
		OriginalBounds: bounds,
		ExpandedBounds: ExpandBounds(bounds, multiplier, largeTargets),
		Priority:       opts.Priority,
		Method:         method,
		probe:          opts.Probe,
		order:          r.nextOrder,
	}
	r.nextOrder++
	r.targets[id] = t
	return t, nil
}

// Unregister removes a target. Unknown ids are a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, id)
}

// Get returns a live target by id, or nil.
func (r *Registry) Get(id string) *Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.targets[id]
}

// Count returns the number of live targets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}

// Ordered returns all live targets sorted by priority (emergency
// first), ties broken by registration order. Consumed by
// sequential/scan navigation.
func (r *Registry) Ordered() []*Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Target, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].order < out[j].order
	})
	return out
}

// HitTest returns the highest-precedence live target whose expanded
// bounds contain p, or nil.
func (r *Registry) HitTest(p input.Point) *Target {
	for _, t := range r.Ordered() {
		if t.ExpandedBounds.Contains(p) {
			return t
		}
	}
	return nil
}

// Sweep removes targets whose liveness probe reports detached and
// returns the number removed. Run periodically so stale targets cannot
// leak dwell timers against destroyed elements.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, t := range r.targets {
		if !t.Alive() {
			delete(r.targets, id)
			removed++
		}
	}
	return removed
}

// Reapply recomputes every live target's expanded bounds for new
// settings values. Called when the settings store changes target
// sizing.
func (r *Registry) Reapply(multiplier float64, largeTargets bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.targets {
		t.ExpandedBounds = ExpandBounds(t.OriginalBounds, multiplier, largeTargets)
	}
}
