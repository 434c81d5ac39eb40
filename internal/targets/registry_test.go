package targets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrupoUS/steadyinput/internal/input"
)

func TestExpandBounds(t *testing.T) {
	t.Parallel()

	t.Run("large targets scales width and height", func(t *testing.T) {
		t.Parallel()
		got := ExpandBounds(Rect{X: 0, Y: 0, W: 40, H: 40}, 1.5, true)
		assert.InDelta(t, 0.0, got.X, 1e-9)
		assert.InDelta(t, 0.0, got.Y, 1e-9)
		assert.InDelta(t, 60.0, got.W, 1e-9)
		assert.InDelta(t, 60.0, got.H, 1e-9)
	})

	t.Run("floors each axis at minimum touch size", func(t *testing.T) {
		t.Parallel()
		got := ExpandBounds(Rect{X: 100, Y: 100, W: 20, H: 60}, 1.0, false)
		assert.InDelta(t, MinTargetSizePx, got.W, 1e-9)
		assert.InDelta(t, 60.0, got.H, 1e-9)
		// Width growth is centred so the target stays anchored.
		assert.InDelta(t, 100-(MinTargetSizePx-20)/2, got.X, 1e-9)
	})

	t.Run("expanded always contains original", func(t *testing.T) {
		t.Parallel()
		orig := Rect{X: 10, Y: 20, W: 8, H: 8}
		got := ExpandBounds(orig, 2.0, true)
		for _, p := range []input.Point{
			{X: orig.X, Y: orig.Y},
			{X: orig.X + orig.W, Y: orig.Y + orig.H},
		} {
			assert.True(t, got.Contains(p), "expanded bounds must contain %v", p)
		}
	})
}

func TestRegistryRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.Register("ok", Rect{W: 50, H: 50}, 1.0, false, Options{})
	require.NoError(t, err)
	_, err = r.Register("ok", Rect{W: 50, H: 50}, 1.0, false, Options{})
	assert.Error(t, err)

	_, err = r.Register("", Rect{}, 1.0, false, Options{})
	assert.Error(t, err)
}

func TestOrderedSortsByPriorityThenRegistration(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	reg := func(id string, p Priority) {
		_, err := r.Register(id, Rect{W: 50, H: 50}, 1.0, false, Options{Priority: p})
		require.NoError(t, err)
	}
	reg("low", PriorityLow)
	reg("normal-1", PriorityNormal)
	reg("emergency", PriorityEmergency)
	reg("normal-2", PriorityNormal)
	reg("high", PriorityHigh)

	var ids []string
	for _, tg := range r.Ordered() {
		ids = append(ids, tg.ID)
	}
	assert.Equal(t, []string{"emergency", "high", "normal-1", "normal-2", "low"}, ids)
}

func TestHitTestPrefersHigherPriority(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.Register("background", Rect{X: 0, Y: 0, W: 200, H: 200}, 1.0, false, Options{Priority: PriorityLow})
	require.NoError(t, err)
	_, err = r.Register("alert", Rect{X: 50, Y: 50, W: 100, H: 100}, 1.0, false, Options{Priority: PriorityEmergency})
	require.NoError(t, err)

	hit := r.HitTest(input.Point{X: 100, Y: 100})
	require.NotNil(t, hit)
	assert.Equal(t, "alert", hit.ID)

	assert.Nil(t, r.HitTest(input.Point{X: 500, Y: 500}))
}

func TestSweepRemovesDetachedTargets(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	attached := true
	_, err := r.Register("detachable", Rect{W: 50, H: 50}, 1.0, false, Options{
		Probe: func() bool { return attached },
	})
	require.NoError(t, err)
	_, err = r.Register("permanent", Rect{W: 50, H: 50}, 1.0, false, Options{})
	require.NoError(t, err)

	assert.Zero(t, r.Sweep())
	assert.Equal(t, 2, r.Count())

	attached = false
	assert.Equal(t, 1, r.Sweep())
	require.Equal(t, 1, r.Count())
	assert.Equal(t, "permanent", r.Ordered()[0].ID)
}

func TestInteractionRingBufferKeepsLastTwenty(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	tg, err := r.Register("btn", Rect{W: 50, H: 50}, 1.0, false, Options{})
	require.NoError(t, err)

	for i := 0; i < InteractionHistorySize+5; i++ {
		tg.RecordInteraction(InteractionHoverEnter, int64(i), input.Point{})
	}
	history := tg.Interactions()
	require.Len(t, history, InteractionHistorySize)
	assert.Equal(t, int64(5), history[0].AtMs, "oldest entries evicted first")
	assert.NotEmpty(t, history[0].ID)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestReapplyRecomputesExpandedBounds(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
		_, err := r.Register(ids[i], Rect{X: float64(i) * 100, W: 50, H: 50}, 1.0, false, Options{})
		require.NoError(t, err)
	}
	r.Reapply(2.0, true)
	for _, id := range ids {
		tg := r.Get(id)
		require.NotNil(t, tg)
		assert.InDelta(t, 100.0, tg.ExpandedBounds.W, 1e-9)
	}
}
