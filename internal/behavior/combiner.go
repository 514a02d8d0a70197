package behavior

import (
	"math"

	"round1/internal/config"
	"round1/internal/model"
)

// Impression score baselines used when no classifier output is available
const (
	BaseProfessionalism = 75.0
	BaseEngagement      = 70.0
	BaseAlertness       = 80.0
	BaseConfidence      = 70.0
)

// Flags attached to CombinedAnalytics.Distractions
const (
	FlagDistracted     = "Distracted behavior detected"
	FlagFatigue        = "Signs of fatigue detected"
	FlagUnprofessional = "Unprofessional behavior detected"
	FlagAbnormalBlink  = "Abnormal blink pattern"
)

// Frame-signal thresholds for the second adjustment step
const (
	highEyeContactPct   = 80.0
	lowEyeContactPct    = 40.0
	steadyHeadScore     = 80.0
	secondaryBoostScale = 10.0
)

// Combiner merges classifier output and frame signals into CombinedAnalytics
type Combiner struct {
	secondaryThreshold float64
	blinkRateMin       float64
	blinkRateMax       float64
}

// NewCombiner creates a combiner with the configured thresholds
func NewCombiner(cfg config.BehaviorConfig) *Combiner {
	return &Combiner{
		secondaryThreshold: cfg.SecondaryPredictionThreshold,
		blinkRateMin:       cfg.BlinkRateMin,
		blinkRateMax:       cfg.BlinkRateMax,
	}
}

// scores accumulates unclamped adjustments
type scores struct {
	prof, eng, alert, conf float64
	flags                  []string
}

func (s *scores) flag(f string) {
	for _, existing := range s.flags {
		if existing == f {
			return
		}
	}
	s.flags = append(s.flags, f)
}

// Combine applies the class-conditioned adjustments for impression (nil keeps the
// baselines), then the frame-signal adjustments for summary (nil skips them).
// Scores are clamped to [0,100] once, at the end.
func (c *Combiner) Combine(impression *model.ImpressionClassification, summary *model.SignalSummary) model.CombinedAnalytics {
	s := &scores{
		prof:  BaseProfessionalism,
		eng:   BaseEngagement,
		alert: BaseAlertness,
		conf:  BaseConfidence,
	}

	var ts int64
	if impression != nil {
		ts = impression.TimestampMS
		applyTopClass(s, impression.Top, impression.Confidence)
		c.applySecondary(s, impression)
	}
	if summary != nil {
		c.applySignals(s, summary)
	}

	flags := s.flags
	if flags == nil {
		flags = []string{}
	}
	return model.CombinedAnalytics{
		Professionalism: clamp(s.prof, 0, 100),
		Engagement:      clamp(s.eng, 0, 100),
		Alertness:       clamp(s.alert, 0, 100),
		Confidence:      clamp(s.conf, 0, 100),
		Distractions:    flags,
		TimestampMS:     ts,
	}
}

// applyTopClass moves the scores toward the top class, scaled by its confidence.
// Unknown classes leave the baselines untouched.
func applyTopClass(s *scores, class string, conf float64) {
	switch class {
	case model.ClassProfessional:
		s.prof += 10 + conf*15
		s.conf += 10 + conf*20
	case model.ClassEngaged:
		s.eng += 15 + conf*15
		s.alert += conf * 20
	case model.ClassConfident:
		s.conf += 15 + conf*15
		s.prof += 5 + conf*10
	case model.ClassDistracted:
		s.eng -= conf * 40
		s.alert -= conf * 40
		s.flag(FlagDistracted)
	case model.ClassTired, model.ClassFatigued:
		s.alert -= conf * 50
		s.eng -= conf * 30
		s.flag(FlagFatigue)
	case model.ClassNervous, model.ClassAnxious:
		s.conf -= conf * 30
	case model.ClassUnprofessional:
		s.prof -= conf * 45
		s.flag(FlagUnprofessional)
	}
}

// applySecondary gives a small boost for strong positive predictions other than the top class
func (c *Combiner) applySecondary(s *scores, impression *model.ImpressionClassification) {
	for _, p := range impression.Predictions {
		if p.Class == impression.Top || p.Confidence <= c.secondaryThreshold {
			continue
		}
		switch p.Class {
		case model.ClassProfessional:
			s.prof += p.Confidence * secondaryBoostScale
		case model.ClassEngaged:
			s.eng += p.Confidence * secondaryBoostScale
		case model.ClassConfident:
			s.conf += p.Confidence * secondaryBoostScale
		}
	}
}

func (c *Combiner) applySignals(s *scores, summary *model.SignalSummary) {
	switch {
	case summary.EyeContactPct > highEyeContactPct:
		s.eng += 15
		s.conf += 10
	case summary.EyeContactPct < lowEyeContactPct:
		s.eng -= 20
		s.conf -= 15
	}

	if StabilityScore(summary.HeadStability) > steadyHeadScore {
		s.alert += 10
		s.prof += 5
	}

	switch summary.Lean {
	case model.LeanForward:
		s.eng += 10
	case model.LeanBack:
		s.eng -= 10
		s.alert -= 5
	}

	if summary.DurationSec > 0 && (summary.BlinkRatePerMin > c.blinkRateMax || summary.BlinkRatePerMin < c.blinkRateMin) {
		s.alert -= 15
		s.flag(FlagAbnormalBlink)
	}
}

// BehaviorScore rates posture, eye contact and stillness on 0-100
func BehaviorScore(s model.SignalSummary) float64 {
	posture := 70.0
	if s.Lean == model.LeanNeutral {
		posture = 100
	}
	natural := math.Max(0, 100-s.FidgetScore*1000)
	return s.EyeContactPct*0.5 + posture*0.3 + natural*0.2
}

// StabilityScore maps head-position variance onto a 0-100 score, higher is steadier
func StabilityScore(variance float64) float64 {
	return clamp((1-variance*1000)*100, 0, 100)
}
