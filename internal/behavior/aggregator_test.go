package behavior

import (
	"math/rand"
	"testing"

	"round1/internal/config"
	"round1/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator() *Aggregator {
	return NewAggregator(config.Default().Behavior)
}

// frames builds n samples 100ms apart starting at t=0
func frames(n int, fill func(i int, s *model.FrameSample)) []model.FrameSample {
	out := make([]model.FrameSample, n)
	for i := range out {
		out[i] = model.FrameSample{
			TimestampMS:  int64(i * 100),
			EyeContact:   1,
			HeadX:        0.5,
			HeadY:        0.5,
			FaceDetected: true,
		}
		if fill != nil {
			fill(i, &out[i])
		}
	}
	return out
}

func TestAggregateEmpty(t *testing.T) {
	_, ok := newTestAggregator().Aggregate(nil)
	assert.False(t, ok)

	_, ok = newTestAggregator().Aggregate([]model.FrameSample{})
	assert.False(t, ok)
}

func TestAggregateBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := newTestAggregator()

	for n := 1; n <= 50; n++ {
		samples := frames(n, func(i int, s *model.FrameSample) {
			s.TimestampMS = int64(i * rng.Intn(200))
			s.EyeContact = rng.Float64()
			s.BlinkEvent = rng.Intn(4) == 0
			s.HeadX = rng.Float64()
			s.HeadY = rng.Float64()
			s.Lean = rng.Float64()*0.2 - 0.1
			s.FaceDetected = rng.Intn(5) != 0
		})

		sum, ok := a.Aggregate(samples)
		require.True(t, ok)
		assert.GreaterOrEqual(t, sum.EyeContactPct, 0.0)
		assert.LessOrEqual(t, sum.EyeContactPct, 100.0)
		assert.GreaterOrEqual(t, sum.BlinkRatePerMin, 0.0)
		assert.GreaterOrEqual(t, sum.DurationSec, 0.0)
		assert.GreaterOrEqual(t, sum.HeadStability, 0.0)
		assert.GreaterOrEqual(t, sum.FidgetScore, 0.0)
		assert.Equal(t, n, sum.SampleCount)
	}
}

func TestAggregateDuration(t *testing.T) {
	sum, ok := newTestAggregator().Aggregate(frames(31, nil))
	require.True(t, ok)
	assert.InDelta(t, 3.0, sum.DurationSec, 1e-9)
}

func TestAggregateSingleSample(t *testing.T) {
	sum, ok := newTestAggregator().Aggregate(frames(1, func(_ int, s *model.FrameSample) { s.BlinkEvent = true }))
	require.True(t, ok)
	assert.Equal(t, 0.0, sum.DurationSec)
	assert.Equal(t, 0.0, sum.BlinkRatePerMin, "no rate without elapsed time")
	assert.Equal(t, 0.0, sum.FidgetScore)
	assert.Equal(t, 0.0, sum.HeadStability)
}

func TestAggregateEyeContactPct(t *testing.T) {
	samples := frames(4, func(i int, s *model.FrameSample) {
		if i == 0 {
			s.EyeContact = 0.6 // threshold itself does not count
		}
	})
	sum, ok := newTestAggregator().Aggregate(samples)
	require.True(t, ok)
	assert.InDelta(t, 75.0, sum.EyeContactPct, 1e-9)
}

func TestCountBlinksDebounce(t *testing.T) {
	a := newTestAggregator()

	t.Run("sustained closure counts once", func(t *testing.T) {
		samples := frames(10, func(_ int, s *model.FrameSample) { s.BlinkEvent = true })
		assert.Equal(t, 1, a.countBlinks(samples))
	})

	t.Run("reopen inside cooldown is ignored", func(t *testing.T) {
		pattern := []bool{true, false, true, false, false, false, false, false}
		samples := frames(len(pattern), func(i int, s *model.FrameSample) { s.BlinkEvent = pattern[i] })
		assert.Equal(t, 1, a.countBlinks(samples))
	})

	t.Run("separate blinks after cooldown", func(t *testing.T) {
		pattern := []bool{true, false, false, false, false, false, true, false}
		samples := frames(len(pattern), func(i int, s *model.FrameSample) { s.BlinkEvent = pattern[i] })
		assert.Equal(t, 2, a.countBlinks(samples))
	})
}

func TestAggregateBlinkRate(t *testing.T) {
	// 61 frames over 6s with blinks at frames 0, 20 and 40
	samples := frames(61, func(i int, s *model.FrameSample) { s.BlinkEvent = i%20 == 0 && i < 60 })
	sum, ok := newTestAggregator().Aggregate(samples)
	require.True(t, ok)
	assert.InDelta(t, 30.0, sum.BlinkRatePerMin, 1e-9)
}

func TestAggregatePosture(t *testing.T) {
	tests := []struct {
		lean float64
		want model.Lean
	}{
		{-0.05, model.LeanForward},
		{0.05, model.LeanBack},
		{0, model.LeanNeutral},
		{0.02, model.LeanNeutral},
		{-0.02, model.LeanNeutral},
	}
	a := newTestAggregator()
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			sum, ok := a.Aggregate(frames(10, func(_ int, s *model.FrameSample) { s.Lean = tt.lean }))
			require.True(t, ok)
			assert.Equal(t, tt.want, sum.Lean)
		})
	}
}

func TestAggregateHeadMotion(t *testing.T) {
	samples := frames(3, func(i int, s *model.FrameSample) {
		switch i {
		case 0:
			s.HeadX, s.HeadY = 0, 0
		case 1:
			s.FaceDetected = false // fallback point must not count as movement
		case 2:
			s.HeadX, s.HeadY = 0.1, 0
		}
	})

	sum, ok := newTestAggregator().Aggregate(samples)
	require.True(t, ok)
	assert.InDelta(t, 0.0025, sum.HeadStability, 1e-12)
	assert.InDelta(t, 0.1, sum.FidgetScore, 1e-12)
}
