// Package interview drives one interview session: turn-taking with the
// question generator, behavior signal updates and one-time final scoring.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"round1/internal/behavior"
	"round1/internal/model"
)

// DefaultMaxDepth is the number of questions asked when none is configured
const DefaultMaxDepth = 5

// QuestionGenerator produces the next question. A nil question or empty text
// means the generator has nothing more to ask.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, req *model.QuestionRequest) (*model.GeneratedQuestion, error)
}

// Scorer produces the final assessment of an interview
type Scorer interface {
	ScoreInterview(ctx context.Context, req *model.ScoreRequest) (*model.ScoreResult, error)
}

// Options tunes a Controller
type Options struct {
	CallTimeout          time.Duration // bound on each collaborator call, 0 disables
	Weights              model.ScoreWeights
	DefaultPassThreshold float64
	DefaultJobTitle      string
	Now                  func() time.Time
}

// Controller owns one InterviewSession. All methods are safe for concurrent
// use; at most one collaborator call runs at a time and overlapping
// requests fail fast with ErrBusy.
type Controller struct {
	mu        sync.Mutex
	busy      atomic.Bool
	session   *model.InterviewSession
	questions QuestionGenerator
	scorer    Scorer
	opts      Options
}

// NewSession creates the initial state of an interview for job. A negative
// maxDepth selects DefaultMaxDepth.
func NewSession(id string, job *model.Job, candidateName string, resume model.Resume, maxDepth int, now time.Time) *model.InterviewSession {
	if maxDepth < 0 {
		maxDepth = DefaultMaxDepth
	}
	s := &model.InterviewSession{
		ID:            id,
		CandidateName: candidateName,
		Resume:        resume,
		Transcript:    []model.Message{},
		MaxDepth:      maxDepth,
		Status:        model.StatusAwaitingQuestion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if job != nil {
		s.JobID = job.ID
		s.JobTitle = job.Title
		s.Company = job.Company
		s.JobDescription = job.Description
		s.SkillsRequired = append([]string(nil), job.SkillsRequired...)
		s.PassThreshold = job.PassThreshold
	}
	return s
}

// New wraps session, which may be freshly created or loaded from a store.
func New(session *model.InterviewSession, questions QuestionGenerator, scorer Scorer, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if session.Status == "" {
		session.Status = deriveStatus(session)
	}
	return &Controller{
		session:   session,
		questions: questions,
		scorer:    scorer,
		opts:      opts,
	}
}

func deriveStatus(s *model.InterviewSession) model.InterviewStatus {
	switch {
	case s.IsComplete:
		return model.StatusCompleted
	case len(s.Transcript) > 0 && s.Transcript[len(s.Transcript)-1].Speaker == model.SpeakerAgent:
		return model.StatusAwaitingAnswer
	}
	return model.StatusAwaitingQuestion
}

// ID returns the session id
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ID
}

// Status returns the lifecycle state
func (c *Controller) Status() model.InterviewStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Status
}

// IsComplete reports whether the interview has been scored
func (c *Controller) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.IsComplete
}

// Snapshot returns a deep copy of the session
func (c *Controller) Snapshot() *model.InterviewSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// BudgetExhausted reports whether maxDepth questions have been asked and answered
func (c *Controller) BudgetExhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budgetExhaustedLocked()
}

func (c *Controller) budgetExhaustedLocked() bool {
	return len(c.session.Transcript) >= 2*c.session.MaxDepth
}

// GenerateNextQuestion asks the generator for the next question and appends
// it to the transcript. It returns (nil, nil) when the interview has nothing
// more to ask: already complete, turn budget used up, the previous question
// carried the wrap-up signal, or the generator returned no question.
func (c *Controller) GenerateNextQuestion(ctx context.Context) (*model.GeneratedQuestion, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	switch {
	case c.session.IsComplete:
		c.mu.Unlock()
		return nil, nil
	case c.session.Status == model.StatusAwaitingAnswer:
		c.mu.Unlock()
		return nil, ErrAwaitingAnswer
	case c.budgetExhaustedLocked(), c.wrapUpPendingLocked():
		c.mu.Unlock()
		return nil, nil
	}
	req := c.questionRequestLocked()
	c.mu.Unlock()

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	q, err := c.questions.GenerateQuestion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuestionGeneration, err)
	}
	if q == nil || strings.TrimSpace(q.Question) == "" {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.opts.Now()
	c.session.Transcript = append(c.session.Transcript, model.Message{
		Speaker:   model.SpeakerAgent,
		Text:      q.Question,
		Timestamp: now,
	})
	asked := *q
	asked.FollowupHints = append([]string(nil), q.FollowupHints...)
	c.session.CurrentQuestion = &asked
	c.session.Status = model.StatusAwaitingAnswer
	c.session.UpdatedAt = now

	out := asked
	return &out, nil
}

// wrapUpPendingLocked is true once the question flagged as the last one has been answered
func (c *Controller) wrapUpPendingLocked() bool {
	q := c.session.CurrentQuestion
	return q != nil && q.ShouldWrapUp && c.session.Status == model.StatusAwaitingQuestion
}

func (c *Controller) questionRequestLocked() *model.QuestionRequest {
	s := c.session
	req := &model.QuestionRequest{
		JobTitle:        s.JobTitle,
		Company:         s.Company,
		JobDescription:  s.JobDescription,
		SkillsRequired:  append([]string(nil), s.SkillsRequired...),
		Resume:          s.Clone().Resume,
		TranscriptSoFar: transcriptLines(s.Transcript),
		MaxDepth:        s.MaxDepth,
	}
	if len(s.Transcript) > 0 {
		req.PreviousSignals = &model.PreviousSignals{
			AttentionScoreAvg: s.BehaviorSignals.AttentionScoreAvg,
			SpeakingRatio:     s.BehaviorSignals.SpeakingRatio,
		}
	}
	return req
}

// AddMessage appends a transcript entry. A candidate entry answers the
// current question and is rejected with ErrNoOpenQuestion when none is open,
// so only one of two racing answers is recorded.
func (c *Controller) AddMessage(speaker model.Speaker, text string) error {
	if speaker != model.SpeakerAgent && speaker != model.SpeakerCandidate {
		return fmt.Errorf("%w: %q", ErrInvalidSpeaker, speaker)
	}
	if c.busy.Load() {
		return ErrBusy
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.IsComplete {
		return ErrSessionComplete
	}
	if speaker == model.SpeakerCandidate && c.session.Status != model.StatusAwaitingAnswer {
		return ErrNoOpenQuestion
	}

	now := c.opts.Now()
	c.session.Transcript = append(c.session.Transcript, model.Message{
		Speaker:   speaker,
		Text:      text,
		Timestamp: now,
	})
	if speaker == model.SpeakerCandidate {
		c.session.Status = model.StatusAwaitingQuestion
	}
	c.session.UpdatedAt = now
	return nil
}

// UpdateBehaviorSignals merges the non-nil fields of patch into the session.
// Completed sessions are left untouched.
func (c *Controller) UpdateBehaviorSignals(patch model.BehaviorSignalsPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.IsComplete {
		return
	}
	patch.Apply(&c.session.BehaviorSignals)
	c.session.UpdatedAt = c.opts.Now()
}

// SetLatestSummary records the most recent behavior summary for scoring
func (c *Controller) SetLatestSummary(summary model.SignalSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.IsComplete {
		return
	}
	c.session.LatestSummary = &summary
}

// CompleteInterview scores the interview exactly once. Later calls return the
// cached result without contacting the scorer. On scorer failure the session
// remains incomplete.
func (c *Controller) CompleteInterview(ctx context.Context) (*model.ScoreResult, error) {
	if score := c.cachedScore(); score != nil {
		return score, nil
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	if c.session.Score != nil {
		c.mu.Unlock()
		return c.cachedScore(), nil
	}
	prev := c.session.Status
	c.session.Status = model.StatusScoring
	req := c.scoreRequestLocked()
	threshold := req.Job.Thresholds.Overall
	c.mu.Unlock()

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	result, err := c.scorer.ScoreInterview(ctx, req)
	if err == nil && result == nil {
		err = errors.New("empty result")
	}
	if err != nil {
		c.mu.Lock()
		c.session.Status = prev
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrScoring, err)
	}

	score := *result
	score.Pass = score.Overall >= threshold

	c.mu.Lock()
	now := c.opts.Now()
	c.session.Score = &score
	c.session.IsComplete = true
	c.session.Status = model.StatusCompleted
	c.session.CompletedAt = &now
	c.session.UpdatedAt = now
	c.mu.Unlock()

	return c.cachedScore(), nil
}

func (c *Controller) cachedScore() *model.ScoreResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Score == nil {
		return nil
	}
	return c.session.Clone().Score
}

func (c *Controller) scoreRequestLocked() *model.ScoreRequest {
	s := c.session

	title := s.JobTitle
	if title == "" {
		title = c.opts.DefaultJobTitle
	}
	threshold := s.PassThreshold
	if threshold <= 0 {
		threshold = c.opts.DefaultPassThreshold
	}

	b := model.ScoreBehavior{
		AttentionScoreAvg: s.BehaviorSignals.AttentionScoreAvg,
		SpeakingRatio:     s.BehaviorSignals.SpeakingRatio,
		LookingAwayPctAvg: s.BehaviorSignals.LookingAwayPctAvg,
		PausesCount:       s.BehaviorSignals.PausesCount,
		Lean:              model.LeanNeutral,
	}
	if sum := s.LatestSummary; sum != nil {
		b.BlinkRatePerMin = sum.BlinkRatePerMin
		b.HeadStability = sum.HeadStability
		b.Lean = sum.Lean
		b.FidgetScore = sum.FidgetScore
		b.BehaviorScore = behavior.BehaviorScore(*sum)
		b.DurationSec = sum.DurationSec
	}

	return &model.ScoreRequest{
		Job: model.ScoreJob{
			Title:          title,
			SkillsRequired: append([]string(nil), s.SkillsRequired...),
			Thresholds:     model.ScoreThresholds{Overall: threshold},
		},
		Resume:     s.Clone().Resume,
		Transcript: transcriptLines(s.Transcript),
		Behavior:   b,
		Weights:    c.opts.Weights,
	}
}

func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.CallTimeout)
}

func transcriptLines(msgs []model.Message) []model.TranscriptLine {
	out := make([]model.TranscriptLine, len(msgs))
	for i, m := range msgs {
		out[i] = model.TranscriptLine{Speaker: m.Speaker, Text: m.Text}
	}
	return out
}
