package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"round1/internal/cache"
	"round1/internal/config"
	"round1/internal/interview"
	"round1/internal/model"
	"round1/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("interview not found")
	ErrEmptyAnswer     = errors.New("answer text is required")
)

const defaultRankingLimit = 50

// InterviewService runs interviews: session creation, turns, scoring and
// the follow-up bookkeeping (persistence, ranking, reports, live events)
type InterviewService struct {
	jobRepo      repository.JobRepo
	sessionRepo  repository.SessionRepo
	sessionCache cache.SessionCache
	rankingCache cache.RankingCache
	questions    interview.QuestionGenerator
	scorer       interview.Scorer
	behaviorSvc  *BehaviorService
	reportSvc    *ReportService
	authSvc      *AuthService
	broadcaster  Broadcaster
	cfg          config.InterviewConfig
	log          *zap.Logger

	mu          sync.Mutex
	controllers map[string]*interview.Controller
	unpersisted map[string]struct{} // scored sessions whose completion is not saved yet
}

// NewInterviewService creates a new interview service and subscribes it to
// behavior summaries
func NewInterviewService(
	jobRepo repository.JobRepo,
	sessionRepo repository.SessionRepo,
	sessionCache cache.SessionCache,
	rankingCache cache.RankingCache,
	questions interview.QuestionGenerator,
	scorer interview.Scorer,
	behaviorSvc *BehaviorService,
	reportSvc *ReportService,
	authSvc *AuthService,
	cfg config.InterviewConfig,
	log *zap.Logger,
) *InterviewService {
	s := &InterviewService{
		jobRepo:      jobRepo,
		sessionRepo:  sessionRepo,
		sessionCache: sessionCache,
		rankingCache: rankingCache,
		questions:    questions,
		scorer:       scorer,
		behaviorSvc:  behaviorSvc,
		reportSvc:    reportSvc,
		authSvc:      authSvc,
		cfg:          cfg,
		log:          log.Named("interview"),
		controllers:  make(map[string]*interview.Controller),
		unpersisted:  make(map[string]struct{}),
	}
	behaviorSvc.SetSummaryListener(s.applySummary)
	behaviorSvc.SetSessionGate(s.ensureOpen)
	return s
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *InterviewService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *InterviewService) options() interview.Options {
	return interview.Options{
		CallTimeout: s.cfg.CallTimeout(),
		Weights: model.ScoreWeights{
			Interview: s.cfg.Weights.Interview,
			Resume:    s.cfg.Weights.Resume,
			Behavior:  s.cfg.Weights.Behavior,
		},
		DefaultPassThreshold: s.cfg.PassThreshold,
		DefaultJobTitle:      s.cfg.DefaultJobTitle,
	}
}

// Start creates an interview for jobID and asks the first question. A failed
// first question leaves the session waiting; NextQuestion retries it.
func (s *InterviewService) Start(ctx context.Context, jobID string, req *model.StartInterviewRequest) (*model.StartInterviewResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}

	depth := s.cfg.MaxDepth
	if job.MaxDepth > 0 {
		depth = job.MaxDepth
	}
	if req.MaxDepth != nil && *req.MaxDepth >= 0 {
		depth = *req.MaxDepth
	}

	session := interview.NewSession(uuid.NewString(), job, strings.TrimSpace(req.CandidateName), req.Resume, depth, time.Now())
	ctrl := interview.New(session, s.questions, s.scorer, s.options())

	s.mu.Lock()
	s.controllers[session.ID] = ctrl
	s.mu.Unlock()

	if err := s.save(ctx, ctrl); err != nil {
		return nil, err
	}

	token, err := s.authSvc.GenerateCandidateToken(session.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("interview started",
		zap.String("sessionId", session.ID),
		zap.String("jobId", jobID),
		zap.Int("maxDepth", depth))

	resp := &model.StartInterviewResponse{SessionID: session.ID, Token: token}
	turn, err := s.advance(ctx, ctrl)
	if err != nil {
		s.log.Warn("first question failed", zap.String("sessionId", session.ID), zap.Error(err))
	} else {
		resp.Question = turn.Question
	}
	resp.Session = ctrl.Snapshot()
	return resp, nil
}

// SubmitAnswer records the candidate's answer and moves to the next turn
func (s *InterviewService) SubmitAnswer(ctx context.Context, sessionID string, req *model.SubmitAnswerRequest) (*model.TurnResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyAnswer
	}

	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// AddMessage checks the session state under the controller lock; a second
	// concurrent answer gets ErrNoOpenQuestion.
	if err := ctrl.AddMessage(model.SpeakerCandidate, text); err != nil {
		return nil, err
	}

	snap := ctrl.Snapshot()
	ratio := speakingRatio(snap.Transcript)
	patch := model.BehaviorSignalsPatch{SpeakingRatio: &ratio}
	if req.PausesCount != nil && *req.PausesCount > 0 {
		pauses := snap.BehaviorSignals.PausesCount + *req.PausesCount
		patch.PausesCount = &pauses
	}
	ctrl.UpdateBehaviorSignals(patch)

	if err := s.save(ctx, ctrl); err != nil {
		return nil, err
	}
	s.broadcast(sessionID, EventTranscriptUpdate, snap.Transcript[len(snap.Transcript)-1], false)

	return s.advance(ctx, ctrl)
}

// NextQuestion retries question generation after a failed turn
func (s *InterviewService) NextQuestion(ctx context.Context, sessionID string) (*model.TurnResponse, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.advance(ctx, ctrl)
}

// advance asks for the next question, completing the interview when there is none
func (s *InterviewService) advance(ctx context.Context, ctrl *interview.Controller) (*model.TurnResponse, error) {
	q, err := ctrl.GenerateNextQuestion(ctx)
	if err != nil {
		return nil, err
	}
	if q != nil {
		if err := s.save(ctx, ctrl); err != nil {
			return nil, err
		}
		s.broadcast(ctrl.ID(), EventNextQuestion, q, true)
		return &model.TurnResponse{Question: q}, nil
	}

	score, err := s.finish(ctx, ctrl)
	if err != nil {
		return nil, err
	}
	return &model.TurnResponse{IsComplete: true, Score: score}, nil
}

// Complete ends the interview early and scores it. Repeated calls return the
// original score.
func (s *InterviewService) Complete(ctx context.Context, sessionID string) (*model.ScoreResult, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, ctrl)
}

// finish scores the session once and then persists it, updates the ranking,
// builds the report and notifies both sides. The bookkeeping is repeated by
// later calls until the completed session has been saved.
func (s *InterviewService) finish(ctx context.Context, ctrl *interview.Controller) (*model.ScoreResult, error) {
	wasComplete := ctrl.IsComplete()
	score, err := ctrl.CompleteInterview(ctx)
	if err != nil {
		s.log.Error("scoring failed", zap.String("sessionId", ctrl.ID()), zap.Error(err))
		return nil, err
	}
	if !wasComplete {
		s.markUnpersisted(ctrl.ID())
	}
	if !s.claimUnpersisted(ctrl.ID()) {
		return score, nil
	}

	if err := s.save(ctx, ctrl); err != nil {
		s.markUnpersisted(ctrl.ID())
		s.log.Error("failed to save completed interview", zap.String("sessionId", ctrl.ID()), zap.Error(err))
		return nil, err
	}
	snap := ctrl.Snapshot()

	if err := s.rankingCache.UpdateScore(ctx, snap.JobID, snap.ID, score.Overall); err != nil {
		s.log.Error("failed to update ranking", zap.String("sessionId", snap.ID), zap.Error(err))
	}
	if _, err := s.reportSvc.Generate(ctx, snap); err != nil {
		s.log.Error("failed to generate report", zap.String("sessionId", snap.ID), zap.Error(err))
	}

	s.log.Info("interview completed",
		zap.String("sessionId", snap.ID),
		zap.Float64("overall", score.Overall),
		zap.Bool("pass", score.Pass))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRecruiters(snap.ID, EventInterviewCompleted, score)
		s.broadcaster.BroadcastToCandidate(snap.ID, EventInterviewCompleted, map[string]bool{"isComplete": true})
	}
	s.behaviorSvc.Release(snap.ID)

	// Completed sessions reload from the store on demand.
	s.mu.Lock()
	delete(s.controllers, snap.ID)
	s.mu.Unlock()
	return score, nil
}

func (s *InterviewService) markUnpersisted(sessionID string) {
	s.mu.Lock()
	s.unpersisted[sessionID] = struct{}{}
	s.mu.Unlock()
}

// claimUnpersisted reports whether the caller should run the completion
// bookkeeping. Only one concurrent caller wins.
func (s *InterviewService) claimUnpersisted(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.unpersisted[sessionID]; !ok {
		return false
	}
	delete(s.unpersisted, sessionID)
	return true
}

// Get returns a snapshot of the session
func (s *InterviewService) Get(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return ctrl.Snapshot(), nil
}

// ListByJob returns all sessions of a job
func (s *InterviewService) ListByJob(ctx context.Context, jobID string) ([]*model.InterviewSession, error) {
	return s.sessionRepo.ListByJob(ctx, jobID)
}

// Ranking returns the best completed interviews of a job
func (s *InterviewService) Ranking(ctx context.Context, jobID string, limit int) ([]model.RankingEntry, error) {
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	return s.rankingCache.GetTop(ctx, jobID, limit)
}

// applySummary copies a fresh behavior summary into the session
func (s *InterviewService) applySummary(ctx context.Context, sessionID string, summary model.SignalSummary) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		s.log.Debug("summary for unknown session", zap.String("sessionId", sessionID), zap.Error(err))
		return
	}
	ctrl.UpdateBehaviorSignals(SignalsPatch(summary))
	ctrl.SetLatestSummary(summary)
}

// controller returns the live controller of a session, loading it from the
// cache or the database on first use
func (s *InterviewService) controller(ctx context.Context, sessionID string) (*interview.Controller, error) {
	s.mu.Lock()
	ctrl, ok := s.controllers[sessionID]
	s.mu.Unlock()
	if ok {
		return ctrl, nil
	}

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.controllers[sessionID]; ok {
		return existing, nil
	}
	ctrl = interview.New(session, s.questions, s.scorer, s.options())
	if !session.IsComplete {
		s.controllers[sessionID] = ctrl
	}
	return ctrl, nil
}

// load reads a stored session, preferring the cache
func (s *InterviewService) load(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	session, err := s.sessionCache.Get(ctx, sessionID)
	if err != nil {
		s.log.Warn("session cache read failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
	if session == nil {
		session, err = s.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ensureOpen rejects behavior data for unknown or completed sessions
func (s *InterviewService) ensureOpen(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	ctrl, ok := s.controllers[sessionID]
	s.mu.Unlock()
	if ok {
		if ctrl.IsComplete() {
			return interview.ErrSessionComplete
		}
		return nil
	}

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.IsComplete {
		return interview.ErrSessionComplete
	}
	return nil
}

// save writes the session to the database and refreshes the cache copy
func (s *InterviewService) save(ctx context.Context, ctrl *interview.Controller) error {
	snap := ctrl.Snapshot()
	if err := s.sessionRepo.Save(ctx, snap); err != nil {
		return err
	}
	if err := s.sessionCache.Set(ctx, snap); err != nil {
		s.log.Warn("session cache write failed", zap.String("sessionId", snap.ID), zap.Error(err))
	}
	return nil
}

func (s *InterviewService) broadcast(sessionID, msgType string, payload interface{}, toCandidate bool) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToRecruiters(sessionID, msgType, payload)
	if toCandidate {
		s.broadcaster.BroadcastToCandidate(sessionID, msgType, payload)
	}
}

// speakingRatio is the candidate's share of all transcript words
func speakingRatio(transcript []model.Message) float64 {
	var candidate, total int
	for _, m := range transcript {
		n := len(strings.Fields(m.Text))
		total += n
		if m.Speaker == model.SpeakerCandidate {
			candidate += n
		}
	}
	if total == 0 {
		return 0
	}
	return float64(candidate) / float64(total)
}
