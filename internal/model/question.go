package model

// QuestionCategory classifies a generated interview question
type QuestionCategory string

const (
	CategoryExperience      QuestionCategory = "experience"
	CategorySkill           QuestionCategory = "skill"
	CategoryBehavioral      QuestionCategory = "behavioral"
	CategoryCultureAdd      QuestionCategory = "culture-add"
	CategoryProjectDeepDive QuestionCategory = "project-deep-dive"
)

// GeneratedQuestion is the question collaborator's answer for one turn
type GeneratedQuestion struct {
	Question      string           `json:"question" bson:"question"`
	Category      QuestionCategory `json:"category" bson:"category"`
	FollowupHints []string         `json:"followupHints" bson:"followupHints"`
	ShouldWrapUp  bool             `json:"shouldWrapUp" bson:"shouldWrapUp"` // end after this question
}

// TranscriptLine is a transcript entry as sent to the AI collaborators
type TranscriptLine struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// PreviousSignals is the behavior context sent with every non-initial question request
type PreviousSignals struct {
	AttentionScoreAvg float64 `json:"attentionScoreAvg"`
	SpeakingRatio     float64 `json:"speakingRatio"`
}

// QuestionRequest is the input to question generation
type QuestionRequest struct {
	JobTitle        string           `json:"jobTitle"`
	Company         string           `json:"company,omitempty"`
	JobDescription  string           `json:"jobDescription"`
	SkillsRequired  []string         `json:"skillsRequired"`
	Resume          Resume           `json:"resume"`
	TranscriptSoFar []TranscriptLine `json:"transcriptSoFar"`
	PreviousSignals *PreviousSignals `json:"previousSignals,omitempty"`
	MaxDepth        int              `json:"maxDepth"`
}
