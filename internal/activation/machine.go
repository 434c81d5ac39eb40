// Package activation implements the dwell-based activation state
// machine: Idle → Hovering → Dwelling → Activated → Idle, with
// double-activation suppression.
//
// The machine is pure with respect to time: every transition is driven
// by an explicit event-timestamp argument, so behaviour is fully
// deterministic under replay. The engine coordinator owns the single
// real dwell timer and calls Tick when it fires.
package activation

import (
	"github.com/GrupoUS/steadyinput/internal/config"
	"github.com/GrupoUS/steadyinput/internal/input"
	"github.com/GrupoUS/steadyinput/internal/targets"
)

// State is the machine's current interaction state.
type State int

const (
	// StateIdle: the stabilized pointer is over no target.
	StateIdle State = iota
	// StateHovering: over a target, no dwell pending (dwell disabled).
	StateHovering
	// StateDwelling: over a target with a pending dwell timer.
	StateDwelling
)

// String returns the state's display name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHovering:
		return "hovering"
	case StateDwelling:
		return "dwelling"
	default:
		return "unknown"
	}
}

// Event is a dispatched target activation.
type Event struct {
	TargetID string         `json:"target_id"`
	Method   targets.Method `json:"method"`
	AtMs     int64          `json:"at_ms"`
	Pos      input.Point    `json:"pos"`
}

// Transition reports side effects of a pointer update for the engine
// to act on: interaction recording and dwell timer scheduling.
type Transition struct {
	Entered    *targets.Target // target newly hovered, if any
	Exited     *targets.Target // target just left, if any
	Activation *Event          // activation to dispatch, if any

	// DwellDeadlineMs is the absolute time the pending dwell fires at;
	// valid only when DwellPending is true. The engine schedules its
	// timer from this.
	DwellDeadlineMs int64
	DwellPending    bool
}

// pendingDwell is the transient per-target dwell timer state. At most
// one exists system-wide: selecting a new target cancels the previous
// timer.
type pendingDwell struct {
	target    *targets.Target
	startedMs int64
	dwellMs   int64 // captured at timer start; immune to mid-dwell settings changes
}

// Machine is the per-session activation state machine. Single-owner
// state, mutated only by the engine coordinator.
type Machine struct {
	state   State
	current *targets.Target
	dwell   *pendingDwell

	// lastActivationMs drives double-activation suppression across all
	// targets and states.
	lastActivationMs int64
	hasActivated     bool

	// onPurge is invoked when a dwell fires against a detached target
	// so the registry can drop it. Stale reference, not a fault.
	onPurge func(id string)
}

// NewMachine creates an idle machine. onPurge may be nil.
func NewMachine(onPurge func(id string)) *Machine {
	return &Machine{onPurge: onPurge}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// CurrentTarget returns the hovered/dwelling target, or nil when idle.
func (m *Machine) CurrentTarget() *targets.Target {
	return m.current
}

// DwellDeadline returns the absolute fire time of the pending dwell.
func (m *Machine) DwellDeadline() (int64, bool) {
	if m.dwell == nil {
		return 0, false
	}
	return m.dwell.startedMs + m.dwell.dwellMs, true
}

// PointerAt processes a stabilized pointer position. hit is the
// hit-test result for pos (nil when over no target); s is the per-tick
// settings snapshot.
func (m *Machine) PointerAt(pos input.Point, nowMs int64, hit *targets.Target, s config.Settings) Transition {
	var tr Transition

	if m.current != nil && hit != m.current {
		// Hover exit uses the current target's hover-expanded region:
		// once hovering, the hit region grows by the hover expansion
		// factor so tremor excursions near the edge do not thrash the
		// dwell timer.
		if m.current.ExpandedBounds.Scale(s.HoverExpansionFactor).Contains(pos) && hit == nil {
			// Still inside the stickier hover region; treat as staying.
			hit = m.current
		}
	}

	switch {
	case hit == nil && m.current == nil:
		// Idle, nothing to do.
	case hit == nil:
		// Leaving the current target: cancel any pending dwell.
		tr.Exited = m.current
		m.cancelDwell()
		m.current = nil
		m.state = StateIdle
	case m.current == nil || hit.ID != m.current.ID:
		// Entering a (new) target cancels any other target's dwell.
		tr.Exited = m.current
		m.cancelDwell()
		m.current = hit
		tr.Entered = hit
		if s.DwellEnabled {
			m.dwell = &pendingDwell{target: hit, startedMs: nowMs, dwellMs: s.DwellMs}
			m.state = StateDwelling
		} else {
			m.state = StateHovering
		}
	default:
		// Still on the same target; a pending dwell keeps counting.
	}

	if m.current != nil {
		m.current.LastStabilized = pos
	}

	// Fire a dwell that has already elapsed by event time. This makes
	// replay deterministic without a wall-clock timer.
	if ev := m.fireDwellIfDue(nowMs, s); ev != nil {
		tr.Activation = ev
	}

	if deadline, ok := m.DwellDeadline(); ok {
		tr.DwellDeadlineMs = deadline
		tr.DwellPending = true
	}
	return tr
}

// Press processes an explicit click/touch at the given position. When
// dwell is disabled the hovered target activates immediately.
func (m *Machine) Press(pos input.Point, nowMs int64, hit *targets.Target, s config.Settings) *Event {
	if hit == nil || s.DwellEnabled {
		return nil
	}
	method := hit.Method
	if method != targets.MethodClick && method != targets.MethodTouch {
		method = targets.MethodClick
	}
	return m.activate(hit, method, nowMs, pos, s)
}

// Tick fires the pending dwell if its deadline has passed. The engine
// calls this from its dwell timer and from replay advancement.
func (m *Machine) Tick(nowMs int64, s config.Settings) *Event {
	return m.fireDwellIfDue(nowMs, s)
}

// Reset returns the machine to idle, cancelling any pending dwell.
// Suppression history survives a reset.
func (m *Machine) Reset() {
	m.cancelDwell()
	m.current = nil
	m.state = StateIdle
}

func (m *Machine) cancelDwell() {
	m.dwell = nil
	if m.state == StateDwelling {
		m.state = StateHovering
	}
}

func (m *Machine) fireDwellIfDue(nowMs int64, s config.Settings) *Event {
	d := m.dwell
	if d == nil || nowMs < d.startedMs+d.dwellMs {
		return nil
	}
	m.dwell = nil

	// Target detached before the timer fired: drop silently and purge.
	if !d.target.Alive() {
		if m.onPurge != nil {
			m.onPurge(d.target.ID)
		}
		if m.current != nil && m.current.ID == d.target.ID {
			m.current = nil
		}
		m.state = StateIdle
		return nil
	}

	ev := m.activate(d.target, targets.MethodDwell, nowMs, d.target.LastStabilized, s)
	// Activated → Idle; the pointer is typically still inside, so the
	// next pointer event re-enters Hovering/Dwelling and the
	// suppression window prevents tremor-induced repeat triggers.
	m.current = nil
	m.state = StateIdle
	return ev
}

// activate applies double-activation suppression and emits the event.
// Any activation within the suppression window of the previous one is
// discarded regardless of state.
func (m *Machine) activate(t *targets.Target, method targets.Method, nowMs int64, pos input.Point, s config.Settings) *Event {
	if m.hasActivated && nowMs-m.lastActivationMs < s.DoubleActivationWindowMs {
		return nil
	}
	m.lastActivationMs = nowMs
	m.hasActivated = true
	return &Event{
		TargetID: t.ID,
		Method:   method,
		AtMs:     nowMs,
		Pos:      pos,
	}
}
