// Package engine wires raw pointer events into the stabilization
// filter, tremor analyzer, target registry and activation state
// machine, and exposes the stabilized-cursor stream, tremor
// classifications and target activations to subscribers.
package engine

import (
	"log"
	"sync"
	"time"

	"github.com/GrupoUS/steadyinput/internal/activation"
	"github.com/GrupoUS/steadyinput/internal/config"
	"github.com/GrupoUS/steadyinput/internal/input"
	"github.com/GrupoUS/steadyinput/internal/stabilize"
	"github.com/GrupoUS/steadyinput/internal/targets"
	"github.com/GrupoUS/steadyinput/internal/tremor"
)

// Timer periods. One dwell timer, one analysis timer, one registry
// sweep; all owned by the engine and released on Close.
const (
	// AnalysisInterval is the fixed tremor analysis period. It runs
	// independent of input arrival, so idle periods yield nil rather
	// than stalling.
	AnalysisInterval = 10 * time.Second
	// SweepInterval is the registry liveness sweep period.
	SweepInterval = 30 * time.Second
)

// Callbacks receive engine output. A nil pattern on OnTremor means
// "insufficient data" for that tick, which subscribers may display as
// such; atMs is the tick's time. Callbacks run on the event-processing
// path and must not call back into the engine.
type (
	StabilizedFunc func(input.Point)
	TremorFunc     func(atMs int64, p *tremor.Pattern)
	ActivateFunc   func(activation.Event)
)

// Engine is the coordinator facade. All event processing is serialized
// behind one mutex: a pointer-move is fully processed (window update →
// filter → hit-test → state machine) before the next queued event, so
// there is no reentrancy and the window, registry and machine have a
// single effective owner.
type Engine struct {
	mu       sync.Mutex
	settings *config.Store
	window   *input.Window
	registry *targets.Registry
	machine  *activation.Machine

	lastEmitted     input.Point
	hasEmitted      bool
	lastSettingsRev int64

	onStabilized []StabilizedFunc
	onTremor     []TremorFunc
	onActivate   []ActivateFunc

	// Timer handles. nil when the engine runs in manual-tick mode
	// (replay and tests drive RunAnalysis/SweepTargets/AdvanceTo
	// directly from event timestamps).
	dwellTimer   *time.Timer
	analysisTick *time.Ticker
	sweepTick    *time.Ticker
	done         chan struct{}
	manual       bool
	closed       bool
}

// Option configures engine construction.
type Option func(*Engine)

// WithManualTicks disables the wall-clock timers. Analysis, sweep and
// dwell firing are then driven by the caller via RunAnalysis,
// SweepTargets and the timestamps of ingested events — the mode used
// by trace replay and tests.
func WithManualTicks() Option {
	return func(e *Engine) { e.manual = true }
}

// New creates an engine around the given settings store and starts its
// periodic timers unless manual-tick mode is selected.
func New(settings *config.Store, opts ...Option) *Engine {
	s := settings.Snapshot()
	e := &Engine{
		settings: settings,
		window:   input.NewWindow(s.WindowMs),
		registry: targets.NewRegistry(),
		done:     make(chan struct{}),
	}
	e.machine = activation.NewMachine(func(id string) {
		e.registry.Unregister(id)
		log.Printf("engine: purged detached target %q on dwell fire", id)
	})
	e.lastSettingsRev = settings.Revision()
	for _, opt := range opts {
		opt(e)
	}
	if !e.manual {
		e.analysisTick = time.NewTicker(AnalysisInterval)
		e.sweepTick = time.NewTicker(SweepInterval)
		go e.runTimers()
	}
	return e
}

// runTimers services the analysis and sweep tickers until Close.
func (e *Engine) runTimers() {
	for {
		select {
		case <-e.done:
			return
		case <-e.analysisTick.C:
			e.RunAnalysis()
		case <-e.sweepTick.C:
			e.SweepTargets()
		}
	}
}

// Close stops all timers deterministically. Safe to call twice.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.done)
	if e.analysisTick != nil {
		e.analysisTick.Stop()
	}
	if e.sweepTick != nil {
		e.sweepTick.Stop()
	}
	if e.dwellTimer != nil {
		e.dwellTimer.Stop()
		e.dwellTimer = nil
	}
}

// OnStabilized subscribes to the stabilized coordinate stream.
func (e *Engine) OnStabilized(fn StabilizedFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStabilized = append(e.onStabilized, fn)
}

// OnTremor subscribes to per-tick tremor classifications (nil allowed).
func (e *Engine) OnTremor(fn TremorFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTremor = append(e.onTremor, fn)
}

// OnActivate subscribes to dispatched target activations.
func (e *Engine) OnActivate(fn ActivateFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onActivate = append(e.onActivate, fn)
}

// RegisterTarget adds an interactive target. Bounds are expanded per
// the current settings snapshot.
func (e *Engine) RegisterTarget(id string, bounds targets.Rect, opts targets.Options) error {
	s := e.settings.Snapshot()
	_, err := e.registry.Register(id, bounds, s.TargetSizeMultiplier, s.LargeTargets, opts)
	return err
}

// UnregisterTarget removes a target. The state machine is reset off it
// if it was mid-hover or mid-dwell.
func (e *Engine) UnregisterTarget(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur := e.machine.CurrentTarget(); cur != nil && cur.ID == id {
		e.machine.Reset()
		e.stopDwellTimer()
	}
	e.registry.Unregister(id)
}

// TargetCount returns the live-target count for diagnostics.
func (e *Engine) TargetCount() int {
	return e.registry.Count()
}

// OrderedTargets returns live targets in priority order.
func (e *Engine) OrderedTargets() []*targets.Target {
	return e.registry.Ordered()
}

// IngestPointer processes one raw pointer sample: window update,
// stabilization, jitter gating, hit-test and activation transitions,
// then emits the stabilized coordinate. A malformed sample is dropped
// and the pipeline continues on the next sample.
func (e *Engine) IngestPointer(x, y float64, timestampMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	s := e.snapshotSettings()

	sample := input.Sample{X: x, Y: y, TimestampMs: timestampMs}
	if !e.window.Append(sample) {
		return
	}

	pos := sample.Point()
	if s.Enabled {
		pos = stabilize.Apply(e.window, s.Sensitivity)
	}

	// Jitter gate: hold the previous emitted position for sub-threshold
	// movement so tremor micro-motion does not wobble the cursor.
	if e.hasEmitted && s.MovementThresholdPx > 0 {
		dx := pos.X - e.lastEmitted.X
		dy := pos.Y - e.lastEmitted.Y
		if dx*dx+dy*dy < s.MovementThresholdPx*s.MovementThresholdPx {
			pos = e.lastEmitted
		}
	}
	e.lastEmitted = pos
	e.hasEmitted = true

	hit := e.registry.HitTest(pos)
	tr := e.machine.PointerAt(pos, timestampMs, hit, s)
	e.applyTransition(tr, timestampMs, pos, s)

	for _, fn := range e.onStabilized {
		fn(pos)
	}
}

// IngestPress processes an explicit click/touch at the given position.
// The position is hit-tested as-is; presses do not enter the sample
// window.
func (e *Engine) IngestPress(x, y float64, timestampMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	s := e.snapshotSettings()
	pos := input.Point{X: x, Y: y}
	hit := e.registry.HitTest(pos)
	if ev := e.machine.Press(pos, timestampMs, hit, s); ev != nil {
		e.dispatch(*ev, hit)
	}
}

// applyTransition records interactions, dispatches activations and
// reschedules the dwell timer from a pointer transition.
func (e *Engine) applyTransition(tr activation.Transition, nowMs int64, pos input.Point, s config.Settings) {
	if tr.Exited != nil {
		tr.Exited.RecordInteraction(targets.InteractionHoverExit, nowMs, pos)
	}
	if tr.Entered != nil {
		tr.Entered.RecordInteraction(targets.InteractionHoverEnter, nowMs, pos)
	}
	if tr.Activation != nil {
		e.dispatch(*tr.Activation, e.registry.Get(tr.Activation.TargetID))
	}

	e.stopDwellTimer()
	if tr.DwellPending && !e.manual {
		delay := time.Duration(tr.DwellDeadlineMs-nowMs) * time.Millisecond
		if delay < 0 {
			delay = 0
		}
		e.dwellTimer = time.AfterFunc(delay, e.fireDwell)
	}
}

func (e *Engine) stopDwellTimer() {
	if e.dwellTimer != nil {
		e.dwellTimer.Stop()
		e.dwellTimer = nil
	}
}

// fireDwell services the wall-clock dwell timer.
func (e *Engine) fireDwell() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	s := e.snapshotSettings()
	nowMs := time.Now().UnixMilli()
	if ev := e.machine.Tick(nowMs, s); ev != nil {
		e.dispatch(*ev, e.registry.Get(ev.TargetID))
	}
}

// AdvanceTo drives the dwell timer from event time. Replay and tests
// call this instead of waiting on the wall clock.
func (e *Engine) AdvanceTo(nowMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	s := e.snapshotSettings()
	if ev := e.machine.Tick(nowMs, s); ev != nil {
		e.dispatch(*ev, e.registry.Get(ev.TargetID))
	}
}

// dispatch records the interaction and notifies activation subscribers.
func (e *Engine) dispatch(ev activation.Event, t *targets.Target) {
	if t != nil {
		t.RecordInteraction(targets.InteractionActivate, ev.AtMs, ev.Pos)
	}
	for _, fn := range e.onActivate {
		fn(ev)
	}
}

// RunAnalysis performs one wall-clock tremor analysis tick; the live
// ticker path. Event timestamps are epoch milliseconds, so the wall
// clock and the sample timeline share an origin.
func (e *Engine) RunAnalysis() *tremor.Pattern {
	return e.RunAnalysisAt(time.Now().UnixMilli())
}

// RunAnalysisAt performs one tremor analysis tick as of nowMs over the
// current window, notifies subscribers (nil on insufficient data) and
// auto-applies the recommended settings tier on a positive detection.
// The recent-activity gate is anchored on nowMs, so ticks during an
// idle input stream yield nil instead of re-reporting the last burst.
// The auto-apply is an explicit, logged mutation of the settings
// store, never silent, and is skipped when the recommendation is
// already in force.
func (e *Engine) RunAnalysisAt(nowMs int64) *tremor.Pattern {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	s := e.snapshotSettings()
	samples := e.window.Snapshot()
	e.mu.Unlock()

	pattern := tremor.Analyze(samples, nowMs, s.HealthcareMode)
	if pattern != nil && pattern.HasTremor {
		rec := pattern.Recommended
		alreadyApplied := s.Enabled && s.Sensitivity == rec.Sensitivity &&
			s.WindowMs == rec.WindowMs && s.DwellMs == rec.DwellMs
		if !alreadyApplied {
			applied := e.settings.Update(func(next *config.Settings) {
				next.Enabled = true
				next.Sensitivity = rec.Sensitivity
				next.WindowMs = rec.WindowMs
				next.DwellMs = rec.DwellMs
			})
			log.Printf("engine: %s tremor detected (%.1fHz, confidence %.2f); auto-applied sensitivity=%d window=%dms dwell=%dms",
				pattern.Classification, pattern.FrequencyHz, pattern.Confidence,
				applied.Sensitivity, applied.WindowMs, applied.DwellMs)
		}
	}

	e.mu.Lock()
	subs := make([]TremorFunc, len(e.onTremor))
	copy(subs, e.onTremor)
	e.mu.Unlock()
	for _, fn := range subs {
		fn(nowMs, pattern)
	}
	return pattern
}

// SweepTargets runs one registry liveness sweep and resets the state
// machine if its current target was removed.
func (e *Engine) SweepTargets() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	removed := e.registry.Sweep()
	if cur := e.machine.CurrentTarget(); cur != nil && e.registry.Get(cur.ID) == nil {
		e.machine.Reset()
		e.stopDwellTimer()
	}
	if removed > 0 {
		log.Printf("engine: sweep removed %d detached target(s)", removed)
	}
	return removed
}

// snapshotSettings takes the per-tick settings snapshot and reacts to
// store changes: window horizon and target expansion follow the store
// at the next tick. An in-flight dwell is unaffected (its duration was
// captured at timer start).
func (e *Engine) snapshotSettings() config.Settings {
	s := e.settings.Snapshot()
	if rev := e.settings.Revision(); rev != e.lastSettingsRev {
		e.lastSettingsRev = rev
		e.window.SetHorizon(s.WindowMs)
		e.registry.Reapply(s.TargetSizeMultiplier, s.LargeTargets)
	}
	return s
}
