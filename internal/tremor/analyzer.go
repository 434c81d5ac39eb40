// Package tremor profiles the pointer sample window for motor tremor:
// windowed movement statistics, zero-crossing frequency estimation and
// a deterministic frequency-band classification with per-class
// recommended stabilization settings.
package tremor

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/GrupoUS/steadyinput/internal/input"
)

// Axis identifies the dominant tremor axis.
type Axis string

const (
	AxisX    Axis = "x"
	AxisY    Axis = "y"
	AxisBoth Axis = "both"
)

// Analysis thresholds. Insufficient data is a nil result, not an error.
const (
	// MinTotalSamples is the minimum window population for analysis.
	MinTotalSamples = 50
	// MinRecentSamples is the minimum population of the recent
	// sub-window.
	MinRecentSamples = 20
	// RecentSubWindowMs is the span of the recent sub-window measured
	// back from the analysis tick time.
	RecentSubWindowMs = 5000

	// TremorMovementThresholdPx: average per-frame movement above
	// which the heuristic considers tremor possible.
	TremorMovementThresholdPx = 3.0
	// TremorVariabilityThreshold: combined positional standard
	// deviation above which the heuristic considers tremor possible.
	TremorVariabilityThreshold = 15.0

	// DominantAxisRatio: one axis dominates when its variance exceeds
	// the other's by this factor.
	DominantAxisRatio = 1.5
)

// Pattern is the classified tremor profile recomputed on each analysis
// tick.
type Pattern struct {
	FrequencyHz    float64 `json:"frequency_hz"`
	AmplitudePx    float64 `json:"amplitude_px"`
	Consistency    float64 `json:"consistency"` // [0,1] regularity of the oscillation
	DominantAxis   Axis    `json:"dominant_axis"`
	Classification Class   `json:"classification"`
	HasTremor      bool    `json:"has_tremor"`
	Confidence     float64 `json:"confidence"` // [0,1]

	// Supporting statistics, retained for telemetry and reporting.
	SampleCount   int            `json:"sample_count"`
	PathLengthPx  float64        `json:"path_length_px"`
	AvgMovementPx float64        `json:"avg_movement_px"` // mean per-frame movement
	WindowSeconds float64        `json:"window_seconds"`
	Recommended   Recommendation `json:"recommended"`
}

// Analyze computes a tremor pattern from time-ordered samples, or nil
// when there is insufficient data: fewer than MinTotalSamples overall
// or fewer than MinRecentSamples within the recent sub-window measured
// back from nowMs, the analysis tick time. Anchoring the sub-window on
// the tick rather than the newest sample means an idle stream decays to
// nil instead of re-reporting a stale pattern forever. A nil result is
// the expected idle/cold-start outcome, not a fault.
//
// healthcareMode routes ambiguous mid-range frequencies to
// stress_related (see Classify); it is a per-tick settings value, not
// analyzer state.
func Analyze(samples []input.Sample, nowMs int64, healthcareMode bool) *Pattern {
	n := len(samples)
	if n < MinTotalSamples {
		return nil
	}
	latestMs := samples[n-1].TimestampMs
	// The tick never runs behind the data it analyzes.
	if nowMs < latestMs {
		nowMs = latestMs
	}
	recent := 0
	for i := n - 1; i >= 0; i-- {
		if samples[i].TimestampMs < nowMs-RecentSubWindowMs {
			break
		}
		recent++
	}
	if recent < MinRecentSamples {
		return nil
	}

	windowSeconds := float64(latestMs-samples[0].TimestampMs) / 1000.0
	if windowSeconds <= 0 {
		return nil
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, s := range samples {
		xs[i] = s.X
		ys[i] = s.Y
	}
	varX := stat.Variance(xs, nil)
	varY := stat.Variance(ys, nil)

	// Total path length and mean per-frame movement.
	var pathLength float64
	for i := 1; i < n; i++ {
		dx := samples[i].X - samples[i-1].X
		dy := samples[i].Y - samples[i-1].Y
		pathLength += math.Hypot(dx, dy)
	}
	avgMovement := pathLength / float64(n-1)

	// Dominant frequency from zero crossings on the sign of x-deltas:
	// each full oscillation contributes two sign changes.
	crossings, intervalsMs := xDeltaCrossings(samples)
	frequencyHz := float64(crossings) / 2.0 / windowSeconds

	variability := math.Sqrt(varX + varY)
	hasTremor := avgMovement > TremorMovementThresholdPx && variability > TremorVariabilityThreshold
	confidence := clamp01((avgMovement/10.0 + variability/50.0) / 2.0)

	p := &Pattern{
		FrequencyHz:    frequencyHz,
		AmplitudePx:    variability,
		Consistency:    intervalConsistency(intervalsMs),
		DominantAxis:   dominantAxis(varX, varY),
		Classification: Classify(frequencyHz, healthcareMode),
		HasTremor:      hasTremor,
		Confidence:     confidence,
		SampleCount:    n,
		PathLengthPx:   pathLength,
		AvgMovementPx:  avgMovement,
		WindowSeconds:  windowSeconds,
	}
	p.Recommended = RecommendationFor(p.Classification)
	return p
}

// xDeltaCrossings counts sign changes of consecutive x-deltas and
// collects the millisecond intervals between crossings. Zero deltas
// carry the previous sign so a pause does not fabricate a crossing.
func xDeltaCrossings(samples []input.Sample) (int, []float64) {
	crossings := 0
	var intervals []float64
	prevSign := 0
	lastCrossMs := int64(-1)
	for i := 1; i < len(samples); i++ {
		dx := samples[i].X - samples[i-1].X
		sign := 0
		if dx > 0 {
			sign = 1
		} else if dx < 0 {
			sign = -1
		}
		if sign == 0 {
			continue
		}
		if prevSign != 0 && sign != prevSign {
			crossings++
			ts := samples[i].TimestampMs
			if lastCrossMs >= 0 {
				intervals = append(intervals, float64(ts-lastCrossMs))
			}
			lastCrossMs = ts
		}
		prevSign = sign
	}
	return crossings, intervals
}

// intervalConsistency scores oscillation regularity in [0,1] as one
// minus the coefficient of variation of intercrossing intervals. A
// perfectly periodic signal scores 1.
func intervalConsistency(intervalsMs []float64) float64 {
	if len(intervalsMs) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(intervalsMs, nil)
	if mean <= 0 {
		return 0
	}
	return clamp01(1.0 - std/mean)
}

func dominantAxis(varX, varY float64) Axis {
	switch {
	case varX > varY*DominantAxisRatio:
		return AxisX
	case varY > varX*DominantAxisRatio:
		return AxisY
	default:
		return AxisBoth
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
