package model

// ScoreThresholds are the pass thresholds for a job
type ScoreThresholds struct {
	Overall float64 `json:"overall" bson:"overall"`
}

// ScoreJob is the job context sent to the scorer
type ScoreJob struct {
	Title          string          `json:"title"`
	SkillsRequired []string        `json:"skillsRequired"`
	Thresholds     ScoreThresholds `json:"thresholds"`
}

// ScoreBehavior is the behavior context sent to the scorer
type ScoreBehavior struct {
	AttentionScoreAvg float64 `json:"attentionScoreAvg"`
	SpeakingRatio     float64 `json:"speakingRatio"`
	LookingAwayPctAvg float64 `json:"lookingAwayPctAvg"`
	PausesCount       int     `json:"pausesCount"`
	BlinkRatePerMin   float64 `json:"blinkRatePerMin"`
	HeadStability     float64 `json:"headStability"` // lower is more stable
	Lean              Lean    `json:"lean"`
	FidgetScore       float64 `json:"fidgetScore"`
	BehaviorScore     float64 `json:"behaviorScore"` // 0-100
	DurationSec       float64 `json:"duration"`
}

// ScoreWeights weights the partial scores into the overall score
type ScoreWeights struct {
	Interview float64 `json:"interview" bson:"interview"`
	Resume    float64 `json:"resume" bson:"resume"`
	Behavior  float64 `json:"behavior" bson:"behavior"`
}

// ScoreRequest is the input to interview scoring
type ScoreRequest struct {
	Job        ScoreJob         `json:"job"`
	Resume     Resume           `json:"resume"`
	Transcript []TranscriptLine `json:"transcript"`
	Behavior   ScoreBehavior    `json:"behavior"`
	Weights    ScoreWeights     `json:"weights"`
}

// BiasCheck records whether the scorer flagged possible bias
type BiasCheck struct {
	Flagged bool   `json:"flagged" bson:"flagged"`
	Notes   string `json:"notes" bson:"notes"`
}

// ScoreResult is the final hiring assessment of an interview
type ScoreResult struct {
	InterviewScore  float64   `json:"interviewScore" bson:"interviewScore"`
	ResumeScore     float64   `json:"resumeScore" bson:"resumeScore"`
	BehaviorScore   float64   `json:"behaviorScore" bson:"behaviorScore"`
	Overall         float64   `json:"overall" bson:"overall"`
	Pass            bool      `json:"pass" bson:"pass"`
	Summary         string    `json:"summary" bson:"summary"`
	SkillHighlights []string  `json:"skillHighlights" bson:"skillHighlights"`
	Concerns        []string  `json:"concerns" bson:"concerns"`
	RedFlags        []string  `json:"redFlags" bson:"redFlags"`
	BiasCheck       BiasCheck `json:"biasCheck" bson:"biasCheck"`
}
