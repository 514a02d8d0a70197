// Package report builds the recruiter-facing interview report from the final
// behavior summary and impression analytics.
package report

import (
	"math"
	"sync"
	"time"

	"round1/internal/behavior"
	"round1/internal/model"
)

// Scoring constants
const (
	targetDurationSec    = 300.0 // five minutes earns the full duration score
	recentHistoryLimit   = 10
	positiveClassMinConf = 0.7
	positiveShare        = 0.6
)

// Fallback list entries
const (
	DefaultStrength    = "Completed interview successfully"
	DefaultImprovement = "Continue current approach"
)

// Generator accumulates classification history for one interview and
// produces its report. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	history []model.ImpressionClassification
	counts  map[string]int
	now     func() time.Time
}

// NewGenerator creates a generator with an empty history
func NewGenerator() *Generator {
	return &Generator{counts: make(map[string]int), now: time.Now}
}

// NewGeneratorFrom restores a generator from persisted recent history and
// per-class counts. counts may cover more classifications than recent.
func NewGeneratorFrom(recent []model.ImpressionClassification, counts map[string]int) *Generator {
	g := NewGenerator()
	g.history = append(g.history, recent...)
	for class, n := range counts {
		g.counts[class] = n
	}
	if len(counts) == 0 {
		for _, c := range recent {
			g.counts[c.Top]++
		}
	}
	return g
}

// AddClassification records one classifier result
func (g *Generator) AddClassification(c model.ImpressionClassification) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.history = append(g.history, c)
	g.counts[c.Top]++
}

// ClassificationSummary returns the number of classifications per top class
func (g *Generator) ClassificationSummary() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]int, len(g.counts))
	for k, v := range g.counts {
		out[k] = v
	}
	return out
}

// Generate builds the report. A nil summary is treated as an empty session
// and nil analytics as the impression baselines.
func (g *Generator) Generate(sessionID string, summary *model.SignalSummary, analytics *model.CombinedAnalytics) *model.InterviewReport {
	sum := model.SignalSummary{Lean: model.LeanNeutral}
	if summary != nil {
		sum = *summary
	}
	imp := model.CombinedAnalytics{
		Professionalism: behavior.BaseProfessionalism,
		Engagement:      behavior.BaseEngagement,
		Alertness:       behavior.BaseAlertness,
		Confidence:      behavior.BaseConfidence,
	}
	if analytics != nil {
		imp = *analytics
	}
	if imp.Distractions == nil {
		imp.Distractions = []string{}
	}

	scores := model.ComponentScores{
		Technical:       technicalScore(sum),
		Behavioral:      round(behavior.BehaviorScore(sum)),
		Engagement:      round(imp.Engagement),
		Professionalism: round(imp.Professionalism),
	}
	overall := round(float64(scores.Technical)*0.2 +
		float64(scores.Behavioral)*0.3 +
		float64(scores.Engagement)*0.25 +
		float64(scores.Professionalism)*0.25)

	g.mu.Lock()
	recent := g.recentLocked()
	counts := make(map[string]int, len(g.counts))
	for k, v := range g.counts {
		counts[k] = v
	}
	positive := g.mostlyPositiveLocked()
	g.mu.Unlock()

	return &model.InterviewReport{
		SessionID:    sessionID,
		OverallScore: overall,
		Tier:         Tier(overall),
		Scores:       scores,
		MediaMetrics: model.MediaMetrics{
			EyeContact:    sum.EyeContactPct,
			HeadStability: round(behavior.StabilityScore(sum.HeadStability)),
			BlinkRate:     sum.BlinkRatePerMin,
			Posture:       sum.Lean,
			FidgetScore:   round(sum.FidgetScore * 100),
		},
		ImpressionMetrics: model.ImpressionMetrics{
			Professionalism:       imp.Professionalism,
			Engagement:            imp.Engagement,
			Alertness:             imp.Alertness,
			Confidence:            imp.Confidence,
			Distractions:          imp.Distractions,
			RecentClassifications: recent,
			ClassificationSummary: counts,
		},
		Strengths:    strengths(sum, imp, positive),
		Improvements: improvements(sum, imp),
		DurationSec:  sum.DurationSec,
		GeneratedAt:  g.now(),
	}
}

// Tier buckets an overall score
func Tier(overall int) model.ReportTier {
	switch {
	case overall >= 85:
		return model.TierExcellent
	case overall >= 75:
		return model.TierGood
	case overall >= 60:
		return model.TierAverage
	}
	return model.TierPoor
}

// technicalScore averages head stability with how much of targetDurationSec the
// session covered. A zero-length session caps it at 50, which alone keeps an
// otherwise strong interview out of the excellent tier.
func technicalScore(s model.SignalSummary) int {
	duration := math.Min(100, s.DurationSec/targetDurationSec*100)
	return round((behavior.StabilityScore(s.HeadStability) + duration) / 2)
}

func strengths(s model.SignalSummary, a model.CombinedAnalytics, mostlyPositive bool) []string {
	var out []string
	if s.EyeContactPct > 70 {
		out = append(out, "Excellent eye contact")
	}
	if s.Lean == model.LeanNeutral {
		out = append(out, "Good posture maintained")
	}
	if a.Professionalism > 80 {
		out = append(out, "Professional appearance")
	}
	if a.Engagement > 80 {
		out = append(out, "High engagement level")
	}
	if a.Confidence > 80 {
		out = append(out, "Confident presentation")
	}
	if len(a.Distractions) == 0 {
		out = append(out, "Distraction-free environment")
	}
	if mostlyPositive {
		out = append(out, "Consistently positive behavior classification")
	}
	if len(out) == 0 {
		return []string{DefaultStrength}
	}
	return out
}

func improvements(s model.SignalSummary, a model.CombinedAnalytics) []string {
	var out []string
	if s.EyeContactPct < 60 {
		out = append(out, "Increase eye contact with camera")
	}
	switch s.Lean {
	case model.LeanBack:
		out = append(out, "Sit up straighter, avoid leaning back")
	case model.LeanForward:
		out = append(out, "Relax posture, avoid leaning too forward")
	}
	if a.Professionalism < 70 {
		out = append(out, "Consider more professional attire")
	}
	if a.Engagement < 70 {
		out = append(out, "Show more enthusiasm and interest")
	}
	if a.Confidence < 70 {
		out = append(out, "Project more confidence")
	}
	if len(a.Distractions) > 0 {
		out = append(out, "Remove distractions from environment")
	}
	if s.BlinkRatePerMin < 8 {
		out = append(out, "Try to blink more naturally")
	}
	if s.BlinkRatePerMin > 25 {
		out = append(out, "Reduce excessive blinking, stay relaxed")
	}
	if len(out) == 0 {
		return []string{DefaultImprovement}
	}
	return out
}

func (g *Generator) recentLocked() []model.ImpressionClassification {
	start := len(g.history) - recentHistoryLimit
	if start < 0 {
		start = 0
	}
	return append([]model.ImpressionClassification{}, g.history[start:]...)
}

// mostlyPositiveLocked reports whether more than 60% of the retained history
// is a confident positive class
func (g *Generator) mostlyPositiveLocked() bool {
	if len(g.history) == 0 {
		return false
	}
	var positive int
	for _, c := range g.history {
		switch c.Top {
		case model.ClassProfessional, model.ClassEngaged, model.ClassConfident:
			if c.Confidence > positiveClassMinConf {
				positive++
			}
		}
	}
	return float64(positive) > float64(len(g.history))*positiveShare
}

func round(v float64) int {
	return int(math.Round(v))
}
