package tremor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrupoUS/steadyinput/internal/input"
)

// oscillatingSamples builds n samples alternating ±amplitude on x at
// stepMs cadence, starting at startMs. Each sample flips direction, so
// the estimated frequency is ≈ 1/(2*stepMs).
func oscillatingSamples(n int, amplitude float64, startMs, stepMs int64) []input.Sample {
	out := make([]input.Sample, n)
	for i := 0; i < n; i++ {
		x := amplitude
		if i%2 == 1 {
			x = -amplitude
		}
		out[i] = input.Sample{X: x, Y: 0, TimestampMs: startMs + int64(i)*stepMs}
	}
	return out
}

// latest returns the newest timestamp, the natural tick time for a
// just-ingested window.
func latest(samples []input.Sample) int64 {
	return samples[len(samples)-1].TimestampMs
}

func TestAnalyzeReturnsNilOnInsufficientData(t *testing.T) {
	t.Parallel()

	t.Run("under total sample minimum", func(t *testing.T) {
		t.Parallel()
		samples := oscillatingSamples(MinTotalSamples-1, 20, 1000, 85)
		assert.Nil(t, Analyze(samples, latest(samples), false))
	})

	t.Run("under recent sub-window minimum", func(t *testing.T) {
		t.Parallel()
		// 45 dense samples long ago, then a sparse 1Hz tail: only 6
		// samples fall inside the recent 5s sub-window.
		samples := oscillatingSamples(45, 20, 1000, 100)
		for i := 0; i < 15; i++ {
			samples = append(samples, input.Sample{
				X: 5, Y: 5, TimestampMs: 10_000 + int64(i)*1000,
			})
		}
		require.GreaterOrEqual(t, len(samples), MinTotalSamples)
		assert.Nil(t, Analyze(samples, latest(samples), false))
	})

	t.Run("empty window", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Analyze(nil, 1000, false))
	})
}

func TestAnalyzeIdleTickDecaysToNil(t *testing.T) {
	t.Parallel()

	// A dense tremor burst, then silence. A tick while the burst is
	// fresh sees it; a tick after the input stream has gone idle must
	// report nil rather than the stale pattern.
	samples := oscillatingSamples(60, 20, 1000, 85)
	fresh := Analyze(samples, latest(samples), false)
	require.NotNil(t, fresh)
	require.True(t, fresh.HasTremor)

	idleTick := latest(samples) + RecentSubWindowMs + 1
	assert.Nil(t, Analyze(samples, idleTick, false))
}

func TestAnalyzeDetectsOscillationTremor(t *testing.T) {
	t.Parallel()

	// 60 samples over ≈5s oscillating ±20px on x at ≈6Hz.
	samples := oscillatingSamples(60, 20, 1000, 85)
	p := Analyze(samples, latest(samples), false)
	require.NotNil(t, p)

	assert.True(t, p.HasTremor)
	assert.Equal(t, AxisX, p.DominantAxis)
	assert.Contains(t, []Class{ClassParkinsonian, ClassEssential}, p.Classification)
	assert.Greater(t, p.Confidence, 0.0)
	assert.LessOrEqual(t, p.Confidence, 1.0)
	assert.InDelta(t, 5.8, p.FrequencyHz, 0.5)
	// Perfectly periodic input: intercrossing intervals are constant.
	assert.Greater(t, p.Consistency, 0.9)
	assert.Equal(t, 60, p.SampleCount)
	assert.NotZero(t, p.Recommended.Sensitivity)
}

func TestAnalyzeSmoothMovementIsNotTremor(t *testing.T) {
	t.Parallel()

	// Slow monotonic drift: large variance but no oscillation and a
	// tiny per-frame movement.
	samples := make([]input.Sample, 80)
	for i := range samples {
		samples[i] = input.Sample{
			X:           float64(i) * 0.5,
			Y:           0,
			TimestampMs: 1000 + int64(i)*60,
		}
	}
	p := Analyze(samples, latest(samples), false)
	require.NotNil(t, p)
	assert.False(t, p.HasTremor)
}

func TestHealthcareModeRoutesAmbiguousBand(t *testing.T) {
	t.Parallel()

	samples := oscillatingSamples(60, 20, 1000, 85) // ≈5.8Hz, ambiguous band
	p := Analyze(samples, latest(samples), true)
	require.NotNil(t, p)
	assert.Equal(t, ClassStressRelated, p.Classification)
}

func TestClassifyFrequencyBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		freq       float64
		healthcare bool
		want       Class
	}{
		{"slow oscillation", 2.0, false, ClassMedicationInduced},
		{"rest tremor band", 4.0, false, ClassParkinsonian},
		{"action tremor band", 7.0, false, ClassEssential},
		{"physiological band", 10.0, false, ClassPhysiological},
		{"above physiological", 14.0, false, ClassStressRelated},
		{"ambiguous with healthcare", 5.0, true, ClassStressRelated},
		{"ambiguous without healthcare", 5.0, false, ClassParkinsonian},
		{"healthcare outside ambiguous band", 7.0, true, ClassEssential},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.freq, tt.healthcare))
		})
	}
}

func TestRecommendationForCoversEveryClass(t *testing.T) {
	t.Parallel()

	for _, c := range []Class{
		ClassEssential, ClassParkinsonian, ClassPhysiological,
		ClassMedicationInduced, ClassStressRelated,
	} {
		rec := RecommendationFor(c)
		assert.GreaterOrEqual(t, rec.Sensitivity, 1, "class %s", c)
		assert.LessOrEqual(t, rec.Sensitivity, 10, "class %s", c)
		assert.Positive(t, rec.WindowMs, "class %s", c)
		assert.Positive(t, rec.DwellMs, "class %s", c)
	}
}
