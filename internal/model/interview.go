package model

import "time"

// Speaker identifies who produced a transcript entry
type Speaker string

const (
	SpeakerAgent     Speaker = "agent"
	SpeakerCandidate Speaker = "candidate"
)

// Message is one transcript entry
type Message struct {
	Speaker   Speaker   `json:"speaker" bson:"speaker"`
	Text      string    `json:"text" bson:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Experience is one position on a resume
type Experience struct {
	Title   string   `json:"title" bson:"title"`
	Company string   `json:"company" bson:"company"`
	Bullets []string `json:"bullets" bson:"bullets"`
}

// Resume is the candidate context sent to the AI collaborators
type Resume struct {
	Summary    string       `json:"summary" bson:"summary"`
	Skills     []string     `json:"skills" bson:"skills"`
	Experience []Experience `json:"experience" bson:"experience"`
}

// BehaviorSignals are the session-level behavior numbers the AI collaborators see
type BehaviorSignals struct {
	AttentionScoreAvg float64 `json:"attentionScoreAvg" bson:"attentionScoreAvg"` // 0-100
	SpeakingRatio     float64 `json:"speakingRatio" bson:"speakingRatio"`         // 0-1
	LookingAwayPctAvg float64 `json:"lookingAwayPctAvg" bson:"lookingAwayPctAvg"` // 0-100
	PausesCount       int     `json:"pausesCount" bson:"pausesCount"`
}

// BehaviorSignalsPatch is a partial update; nil fields keep their current value
type BehaviorSignalsPatch struct {
	AttentionScoreAvg *float64 `json:"attentionScoreAvg,omitempty"`
	SpeakingRatio     *float64 `json:"speakingRatio,omitempty"`
	LookingAwayPctAvg *float64 `json:"lookingAwayPctAvg,omitempty"`
	PausesCount       *int     `json:"pausesCount,omitempty"`
}

// Apply merges the non-nil fields of p into s
func (p BehaviorSignalsPatch) Apply(s *BehaviorSignals) {
	if p.AttentionScoreAvg != nil {
		s.AttentionScoreAvg = *p.AttentionScoreAvg
	}
	if p.SpeakingRatio != nil {
		s.SpeakingRatio = *p.SpeakingRatio
	}
	if p.LookingAwayPctAvg != nil {
		s.LookingAwayPctAvg = *p.LookingAwayPctAvg
	}
	if p.PausesCount != nil {
		s.PausesCount = *p.PausesCount
	}
}

// InterviewStatus is the lifecycle state of a session
type InterviewStatus string

const (
	StatusAwaitingQuestion InterviewStatus = "awaiting_question"
	StatusAwaitingAnswer   InterviewStatus = "awaiting_answer"
	StatusScoring          InterviewStatus = "scoring"
	StatusCompleted        InterviewStatus = "completed"
)

// InterviewSession is the persistent state of one interview
type InterviewSession struct {
	ID              string             `json:"id" bson:"_id"`
	JobID           string             `json:"jobId" bson:"jobId"`
	JobTitle        string             `json:"jobTitle" bson:"jobTitle"`
	Company         string             `json:"company,omitempty" bson:"company,omitempty"`
	JobDescription  string             `json:"jobDescription" bson:"jobDescription"`
	SkillsRequired  []string           `json:"skillsRequired" bson:"skillsRequired"`
	PassThreshold   float64            `json:"passThreshold" bson:"passThreshold"`
	CandidateName   string             `json:"candidateName,omitempty" bson:"candidateName,omitempty"`
	Resume          Resume             `json:"resume" bson:"resume"`
	Transcript      []Message          `json:"transcript" bson:"transcript"`
	BehaviorSignals BehaviorSignals    `json:"behaviorSignals" bson:"behaviorSignals"`
	LatestSummary   *SignalSummary     `json:"latestSummary,omitempty" bson:"latestSummary,omitempty"`
	CurrentQuestion *GeneratedQuestion `json:"currentQuestion,omitempty" bson:"currentQuestion,omitempty"`
	MaxDepth        int                `json:"maxDepth" bson:"maxDepth"`
	Status          InterviewStatus    `json:"status" bson:"status"`
	IsComplete      bool               `json:"isComplete" bson:"isComplete"`
	Score           *ScoreResult       `json:"score,omitempty" bson:"score,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
	CompletedAt     *time.Time         `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// StorageKey is the key a session is stored under in external stores
func (s *InterviewSession) StorageKey() string {
	return "interview-" + s.ID
}

// Clone returns a deep copy safe to hand to other goroutines
func (s *InterviewSession) Clone() *InterviewSession {
	c := *s
	c.SkillsRequired = append([]string(nil), s.SkillsRequired...)
	c.Resume = s.Resume.clone()
	c.Transcript = append([]Message(nil), s.Transcript...)
	if s.LatestSummary != nil {
		sum := *s.LatestSummary
		c.LatestSummary = &sum
	}
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		q.FollowupHints = append([]string(nil), s.CurrentQuestion.FollowupHints...)
		c.CurrentQuestion = &q
	}
	if s.Score != nil {
		sc := *s.Score
		sc.SkillHighlights = append([]string(nil), s.Score.SkillHighlights...)
		sc.Concerns = append([]string(nil), s.Score.Concerns...)
		sc.RedFlags = append([]string(nil), s.Score.RedFlags...)
		c.Score = &sc
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (r Resume) clone() Resume {
	c := Resume{Summary: r.Summary, Skills: append([]string(nil), r.Skills...)}
	for _, e := range r.Experience {
		e.Bullets = append([]string(nil), e.Bullets...)
		c.Experience = append(c.Experience, e)
	}
	return c
}

// StartInterviewRequest is the request body for starting an interview
type StartInterviewRequest struct {
	CandidateName string `json:"candidateName"`
	Resume        Resume `json:"resume"`
	MaxDepth      *int   `json:"maxDepth,omitempty"`
}

// StartInterviewResponse is returned after an interview is created
type StartInterviewResponse struct {
	SessionID string             `json:"sessionId"`
	Token     string             `json:"token"`
	Question  *GeneratedQuestion `json:"question,omitempty"`
	Session   *InterviewSession  `json:"session"`
}

// SubmitAnswerRequest is the request body for answering the current question
type SubmitAnswerRequest struct {
	Text        string `json:"text"`
	PausesCount *int   `json:"pausesCount,omitempty"` // pauses detected by the client while the candidate spoke
}

// TurnResponse is returned after a candidate answer
type TurnResponse struct {
	Question   *GeneratedQuestion `json:"question,omitempty"` // nil when the interview ended
	IsComplete bool               `json:"isComplete"`
	Score      *ScoreResult       `json:"score,omitempty"`
}
