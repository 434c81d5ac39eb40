// Package stabilize implements the tier-selected stabilization filter:
// a pure transform from the sample window and a sensitivity tier to a
// stabilized coordinate. Higher tiers trade responsiveness for
// stability; no tier references data older than the window horizon, so
// lag is bounded by construction.
package stabilize

import (
	"math"

	"github.com/GrupoUS/steadyinput/internal/input"
)

// Tier identifies one of the five stabilization algorithms. Two
// adjacent sensitivity integers map to each tier.
type Tier int

const (
	// TierPassthrough (sensitivity 1–2) emits the raw position.
	TierPassthrough Tier = iota
	// TierMean (3–4) emits the arithmetic mean of the window.
	TierMean
	// TierWeighted (5–6) emits an exponential time-weighted mean.
	TierWeighted
	// TierPredictive (7–8) blends a short velocity extrapolation with
	// the raw position.
	TierPredictive
	// TierHeavy (9–10) emits a strong exponential moving average
	// iterated over the whole window.
	TierHeavy
)

// Filter tuning constants. These bound the predictive tier so a noisy
// window can never extrapolate a teleport.
const (
	// PredictiveLookaheadMs is how far ahead the predictive tier
	// extrapolates, roughly one frame at 60Hz.
	PredictiveLookaheadMs = 16.0
	// MaxVelocityPxPerSec clamps the estimated velocity magnitude
	// per axis before extrapolation.
	MaxVelocityPxPerSec = 1000.0
	// PredictiveBlend is the weight of the prediction in the blended
	// output; the remainder is the raw position.
	PredictiveBlend = 0.7
	// HeavyAlpha is the EMA coefficient for the heavy-smoothing tier.
	HeavyAlpha = 0.1
	// HeavyMinSamples is the minimum window population for the heavy
	// tier; below it the filter falls back to passthrough.
	HeavyMinSamples = 5
	// MinVelocityDtMs floors the Δt used for velocity estimation so a
	// burst of same-millisecond samples cannot divide by zero.
	MinVelocityDtMs = 1.0
)

// TierForSensitivity maps a validated sensitivity (1–10) to its tier.
// Sensitivity is clamped at the settings boundary; values seen here
// are assumed in range.
func TierForSensitivity(sensitivity int) Tier {
	switch {
	case sensitivity <= 2:
		return TierPassthrough
	case sensitivity <= 4:
		return TierMean
	case sensitivity <= 6:
		return TierWeighted
	case sensitivity <= 8:
		return TierPredictive
	default:
		return TierHeavy
	}
}

// Apply computes the stabilized position for the given window and
// sensitivity. With fewer than 2 samples every tier is a cold-start
// passthrough of the raw position.
func Apply(w *input.Window, sensitivity int) input.Point {
	samples := w.Samples()
	latest, ok := w.Latest()
	if !ok {
		return input.Point{}
	}
	raw := latest.Point()
	if len(samples) < 2 {
		return raw
	}

	switch TierForSensitivity(sensitivity) {
	case TierMean:
		return meanPosition(samples)
	case TierWeighted:
		return weightedPosition(samples, w.Horizon())
	case TierPredictive:
		return predictivePosition(samples, raw)
	case TierHeavy:
		return heavyPosition(samples, raw)
	default:
		return raw
	}
}

// meanPosition returns the arithmetic mean of all in-window samples.
func meanPosition(samples []input.Sample) input.Point {
	var sumX, sumY float64
	for _, s := range samples {
		sumX += s.X
		sumY += s.Y
	}
	n := float64(len(samples))
	return input.Point{X: sumX / n, Y: sumY / n}
}

// weightedPosition returns an exponential time-weighted mean where
// recent samples dominate: weight = exp(−age / (horizon/3)).
func weightedPosition(samples []input.Sample, horizonMs int64) input.Point {
	latestMs := samples[len(samples)-1].TimestampMs
	tau := float64(horizonMs) / 3.0
	if tau <= 0 {
		tau = 1
	}

	var sumX, sumY, sumW float64
	for _, s := range samples {
		age := float64(latestMs - s.TimestampMs)
		w := math.Exp(-age / tau)
		sumX += s.X * w
		sumY += s.Y * w
		sumW += w
	}
	if sumW == 0 {
		return samples[len(samples)-1].Point()
	}
	return input.Point{X: sumX / sumW, Y: sumY / sumW}
}

// predictivePosition estimates velocity from the earliest and latest of
// the last 3 samples, clamps it, predicts a short lookahead and blends
// the prediction with the raw position. Falls back to passthrough with
// fewer than 3 samples.
func predictivePosition(samples []input.Sample, raw input.Point) input.Point {
	if len(samples) < 3 {
		return raw
	}
	recent := samples[len(samples)-3:]
	first, last := recent[0], recent[2]

	dtMs := float64(last.TimestampMs - first.TimestampMs)
	if dtMs < MinVelocityDtMs {
		dtMs = MinVelocityDtMs
	}
	vx := (last.X - first.X) / dtMs * 1000.0
	vy := (last.Y - first.Y) / dtMs * 1000.0
	vx = clamp(vx, -MaxVelocityPxPerSec, MaxVelocityPxPerSec)
	vy = clamp(vy, -MaxVelocityPxPerSec, MaxVelocityPxPerSec)

	lookaheadSec := PredictiveLookaheadMs / 1000.0
	predicted := input.Point{
		X: last.X + vx*lookaheadSec,
		Y: last.Y + vy*lookaheadSec,
	}
	return input.Point{
		X: predicted.X*PredictiveBlend + raw.X*(1-PredictiveBlend),
		Y: predicted.Y*PredictiveBlend + raw.Y*(1-PredictiveBlend),
	}
}

// heavyPosition computes a strong EMA seeded at the oldest sample and
// iterated forward over the window. Requires HeavyMinSamples samples,
// else passthrough.
func heavyPosition(samples []input.Sample, raw input.Point) input.Point {
	if len(samples) < HeavyMinSamples {
		return raw
	}
	x, y := samples[0].X, samples[0].Y
	for _, s := range samples[1:] {
		x = HeavyAlpha*s.X + (1-HeavyAlpha)*x
		y = HeavyAlpha*s.Y + (1-HeavyAlpha)*y
	}
	return input.Point{X: x, Y: y}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
