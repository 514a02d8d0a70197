package behavior

import (
	"math"

	"round1/internal/config"
	"round1/internal/model"

	"gonum.org/v1/gonum/stat"
)

// Aggregator summarizes a window of FrameSamples into a SignalSummary
type Aggregator struct {
	eyeContactThreshold float64
	blinkCooldown       int
	leanThreshold       float64
}

// NewAggregator creates an aggregator with the configured thresholds
func NewAggregator(cfg config.BehaviorConfig) *Aggregator {
	return &Aggregator{
		eyeContactThreshold: cfg.EyeContactThreshold,
		blinkCooldown:       cfg.BlinkCooldownFrames,
		leanThreshold:       cfg.LeanThreshold,
	}
}

// Aggregate returns false for an empty window; callers must treat that as
// "no data" rather than a zero summary. Samples are expected in capture order.
func (a *Aggregator) Aggregate(samples []model.FrameSample) (model.SignalSummary, bool) {
	if len(samples) == 0 {
		return model.SignalSummary{}, false
	}

	duration := math.Max(0, float64(samples[len(samples)-1].TimestampMS-samples[0].TimestampMS)/1000)

	var blinkRate float64
	if duration > 0 {
		blinkRate = float64(a.countBlinks(samples)) / (duration / 60)
	}

	leans := make([]float64, len(samples))
	for i, s := range samples {
		leans[i] = s.Lean
	}

	headStability, fidget := headMotion(samples)

	return model.SignalSummary{
		DurationSec:     duration,
		EyeContactPct:   a.eyeContactPct(samples),
		BlinkRatePerMin: blinkRate,
		HeadStability:   headStability,
		Lean:            a.classifyLean(stat.Mean(leans, nil)),
		FidgetScore:     fidget,
		SampleCount:     len(samples),
	}, true
}

// eyeContactPct is the share of frames whose eye contact exceeds the threshold
func (a *Aggregator) eyeContactPct(samples []model.FrameSample) float64 {
	var hits int
	for _, s := range samples {
		if s.EyeContact > a.eyeContactThreshold {
			hits++
		}
	}
	return float64(hits) / float64(len(samples)) * 100
}

// countBlinks counts rising edges of BlinkEvent. After a counted blink the
// next blinkCooldown frames cannot start another one.
func (a *Aggregator) countBlinks(samples []model.FrameSample) int {
	var count, cooldown int
	prev := false
	for _, s := range samples {
		if s.BlinkEvent && !prev && cooldown == 0 {
			count++
			cooldown = a.blinkCooldown
		} else if cooldown > 0 {
			cooldown--
		}
		prev = s.BlinkEvent
	}
	return count
}

func (a *Aggregator) classifyLean(mean float64) model.Lean {
	switch {
	case mean < -a.leanThreshold:
		return model.LeanForward
	case mean > a.leanThreshold:
		return model.LeanBack
	}
	return model.LeanNeutral
}

// headMotion returns the population variance of the head point and the mean
// displacement between consecutive head points. Frames without a face are skipped.
func headMotion(samples []model.FrameSample) (variance, fidget float64) {
	xs := make([]float64, 0, len(samples))
	ys := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.FaceDetected {
			xs = append(xs, s.HeadX)
			ys = append(ys, s.HeadY)
		}
	}
	if len(xs) == 0 {
		return 0, 0
	}

	variance = stat.PopVariance(xs, nil) + stat.PopVariance(ys, nil)

	if len(xs) < 2 {
		return variance, 0
	}
	var total float64
	for i := 1; i < len(xs); i++ {
		total += math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])
	}
	return variance, total / float64(len(xs)-1)
}
