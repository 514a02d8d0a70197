package behavior

import (
	"math"

	"round1/internal/model"
)

// Totals keeps running aggregates over every sample of a session, so the
// whole-interview summary does not depend on the bounded window. It produces
// the same summary Aggregate would for the full sample sequence. Not safe for
// concurrent use.
type Totals struct {
	agg *Aggregator

	count           int
	firstMS         int64
	lastMS          int64
	eyeHits         int
	blinks          int
	prevBlink       bool
	cooldown        int
	leanSum         float64
	faces           int
	sumX, sumY      float64
	sumX2, sumY2    float64
	lastX, lastY    float64
	displacementSum float64
}

// NewTotals creates empty running totals using the aggregator's thresholds
func (a *Aggregator) NewTotals() *Totals {
	return &Totals{agg: a}
}

// Add folds samples in capture order into the totals
func (t *Totals) Add(samples ...model.FrameSample) {
	for _, s := range samples {
		if t.count == 0 {
			t.firstMS = s.TimestampMS
		}
		t.lastMS = s.TimestampMS
		t.count++

		if s.EyeContact > t.agg.eyeContactThreshold {
			t.eyeHits++
		}

		if s.BlinkEvent && !t.prevBlink && t.cooldown == 0 {
			t.blinks++
			t.cooldown = t.agg.blinkCooldown
		} else if t.cooldown > 0 {
			t.cooldown--
		}
		t.prevBlink = s.BlinkEvent

		t.leanSum += s.Lean

		if s.FaceDetected {
			if t.faces > 0 {
				t.displacementSum += math.Hypot(s.HeadX-t.lastX, s.HeadY-t.lastY)
			}
			t.faces++
			t.sumX += s.HeadX
			t.sumY += s.HeadY
			t.sumX2 += s.HeadX * s.HeadX
			t.sumY2 += s.HeadY * s.HeadY
			t.lastX, t.lastY = s.HeadX, s.HeadY
		}
	}
}

// Summary returns false until a sample was added
func (t *Totals) Summary() (model.SignalSummary, bool) {
	if t.count == 0 {
		return model.SignalSummary{}, false
	}

	duration := math.Max(0, float64(t.lastMS-t.firstMS)/1000)
	var blinkRate float64
	if duration > 0 {
		blinkRate = float64(t.blinks) / (duration / 60)
	}

	var variance, fidget float64
	if t.faces > 0 {
		n := float64(t.faces)
		mx, my := t.sumX/n, t.sumY/n
		variance = math.Max(0, t.sumX2/n-mx*mx) + math.Max(0, t.sumY2/n-my*my)
	}
	if t.faces > 1 {
		fidget = t.displacementSum / float64(t.faces-1)
	}

	return model.SignalSummary{
		DurationSec:     duration,
		EyeContactPct:   float64(t.eyeHits) / float64(t.count) * 100,
		BlinkRatePerMin: blinkRate,
		HeadStability:   variance,
		Lean:            t.agg.classifyLean(t.leanSum / float64(t.count)),
		FidgetScore:     fidget,
		SampleCount:     t.count,
	}, true
}
