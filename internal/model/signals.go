package model

// Lean is the classified posture over a window
type Lean string

const (
	LeanForward Lean = "forward"
	LeanNeutral Lean = "neutral"
	LeanBack    Lean = "back"
)

// SignalSummary aggregates a window of FrameSamples. It is a value type;
// a new one is produced for every aggregation.
type SignalSummary struct {
	DurationSec     float64 `json:"durationSec" bson:"durationSec"`
	EyeContactPct   float64 `json:"eyeContactPct" bson:"eyeContactPct"`     // 0-100
	BlinkRatePerMin float64 `json:"blinkRatePerMin" bson:"blinkRatePerMin"` // >= 0
	HeadStability   float64 `json:"headStability" bson:"headStability"`     // variance, lower is steadier
	Lean            Lean    `json:"lean" bson:"lean"`
	FidgetScore     float64 `json:"fidgetScore" bson:"fidgetScore"` // mean frame-to-frame head displacement
	SampleCount     int     `json:"sampleCount" bson:"sampleCount"`
}
