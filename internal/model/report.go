package model

import "time"

// ReportTier buckets the overall report score
type ReportTier string

const (
	TierExcellent ReportTier = "excellent"
	TierGood      ReportTier = "good"
	TierAverage   ReportTier = "average"
	TierPoor      ReportTier = "poor"
)

// ComponentScores are the four 0-100 components of the overall report score
type ComponentScores struct {
	Technical       int `json:"technical" bson:"technical"`
	Behavioral      int `json:"behavioral" bson:"behavioral"`
	Engagement      int `json:"engagement" bson:"engagement"`
	Professionalism int `json:"professionalism" bson:"professionalism"`
}

// MediaMetrics are the frame-signal figures shown to the recruiter
type MediaMetrics struct {
	EyeContact    float64 `json:"eyeContact" bson:"eyeContact"`       // percent
	HeadStability int     `json:"headStability" bson:"headStability"` // 0-100 score, higher is steadier
	BlinkRate     float64 `json:"blinkRate" bson:"blinkRate"`         // per minute
	Posture       Lean    `json:"posture" bson:"posture"`
	FidgetScore   int     `json:"fidgetScore" bson:"fidgetScore"`
}

// ImpressionMetrics are the classifier-driven figures shown to the recruiter
type ImpressionMetrics struct {
	Professionalism       float64                    `json:"professionalism" bson:"professionalism"`
	Engagement            float64                    `json:"engagement" bson:"engagement"`
	Alertness             float64                    `json:"alertness" bson:"alertness"`
	Confidence            float64                    `json:"confidence" bson:"confidence"`
	Distractions          []string                   `json:"distractions" bson:"distractions"`
	RecentClassifications []ImpressionClassification `json:"recentClassifications" bson:"recentClassifications"`
	ClassificationSummary map[string]int             `json:"classificationSummary" bson:"classificationSummary"`
}

// InterviewReport is the recruiter-facing summary of an interview
type InterviewReport struct {
	SessionID         string            `json:"sessionId" bson:"_id"`
	OverallScore      int               `json:"overallScore" bson:"overallScore"`
	Tier              ReportTier        `json:"tier" bson:"tier"`
	Scores            ComponentScores   `json:"scores" bson:"scores"`
	MediaMetrics      MediaMetrics      `json:"mediaMetrics" bson:"mediaMetrics"`
	ImpressionMetrics ImpressionMetrics `json:"impressionMetrics" bson:"impressionMetrics"`
	Strengths         []string          `json:"strengths" bson:"strengths"`
	Improvements      []string          `json:"improvements" bson:"improvements"`
	DurationSec       float64           `json:"durationSec" bson:"durationSec"`
	Score             *ScoreResult      `json:"score,omitempty" bson:"score,omitempty"`
	GeneratedAt       time.Time         `json:"generatedAt" bson:"generatedAt"`
}
