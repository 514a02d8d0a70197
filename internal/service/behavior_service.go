package service

import (
	"context"
	"sync"
	"time"

	"round1/internal/behavior"
	"round1/internal/cache"
	"round1/internal/config"
	"round1/internal/model"
	"round1/internal/report"

	"go.uber.org/zap"
)

// LiveSignals is the current behavior state of a session
type LiveSignals struct {
	Summary   *model.SignalSummary     `json:"summary,omitempty"`
	Analytics *model.CombinedAnalytics `json:"analytics,omitempty"`
}

// SummaryListener is told about the whole-session summary after every ingest
type SummaryListener func(ctx context.Context, sessionID string, summary model.SignalSummary)

// SessionGate rejects behavior data for sessions that are unknown or finished
type SessionGate func(ctx context.Context, sessionID string) error

// sessionFrames is the in-memory behavior state of one session: the bounded
// live window plus running totals over the whole interview
type sessionFrames struct {
	mu         sync.Mutex
	window     *behavior.FrameBuffer
	totals     *behavior.Totals
	calibrator *behavior.LeanCalibrator
}

// BehaviorService turns webcam frames and snapshots into live behavior analytics
type BehaviorService struct {
	cfg         config.BehaviorConfig
	extractor   *behavior.Extractor
	aggregator  *behavior.Aggregator
	combiner    *behavior.Combiner
	classifier  ImpressionClassifier
	throttle    *SessionThrottle
	cache       cache.AnalyticsCache
	broadcaster Broadcaster
	listener    SummaryListener
	gate        SessionGate
	log         *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionFrames
}

// NewBehaviorService creates a new behavior service
func NewBehaviorService(cfg config.BehaviorConfig, classifier ImpressionClassifier, analyticsCache cache.AnalyticsCache, log *zap.Logger) *BehaviorService {
	return &BehaviorService{
		cfg:        cfg,
		extractor:  behavior.NewExtractor(cfg),
		aggregator: behavior.NewAggregator(cfg),
		combiner:   behavior.NewCombiner(cfg),
		classifier: classifier,
		throttle:   NewSessionThrottle(cfg.ClassifyInterval()),
		cache:      analyticsCache,
		log:        log.Named("behavior"),
		sessions:   make(map[string]*sessionFrames),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *BehaviorService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetSummaryListener registers the callback run after each aggregation
func (s *BehaviorService) SetSummaryListener(l SummaryListener) {
	s.listener = l
}

// SetSessionGate registers the check run before accepting frames or snapshots
func (s *BehaviorService) SetSessionGate(g SessionGate) {
	s.gate = g
}

func (s *BehaviorService) checkGate(ctx context.Context, sessionID string) error {
	if s.gate == nil {
		return nil
	}
	return s.gate(ctx, sessionID)
}

func (s *BehaviorService) session(sessionID string) *sessionFrames {
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, ok := s.sessions[sessionID]
	if !ok {
		sf = &sessionFrames{
			window:     behavior.NewFrameBuffer(s.cfg.WindowSamples),
			totals:     s.aggregator.NewTotals(),
			calibrator: behavior.NewLeanCalibrator(s.cfg.LeanCalibrationFrames),
		}
		s.sessions[sessionID] = sf
	}
	return sf
}

func (s *BehaviorService) lookup(sessionID string) (*sessionFrames, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, ok := s.sessions[sessionID]
	return sf, ok
}

// IngestFrames extracts one sample per frame into the session window and
// re-aggregates it. The returned and broadcast summary covers the window; the
// listener gets the summary of the whole session. The summary is nil when
// the window is still empty.
func (s *BehaviorService) IngestFrames(ctx context.Context, sessionID string, frames []model.FrameDetection) (*model.SignalSummary, error) {
	if err := s.checkGate(ctx, sessionID); err != nil {
		return nil, err
	}

	sf := s.session(sessionID)
	sf.mu.Lock()
	for _, f := range frames {
		sample := s.extractor.Extract(f)
		sf.calibrator.Apply(&sample)
		sf.window.Append(sample)
		sf.totals.Add(sample)
	}
	summary, ok := s.aggregator.Aggregate(sf.window.Snapshot())
	whole, _ := sf.totals.Summary()
	sf.mu.Unlock()
	if !ok {
		return nil, nil
	}

	if err := s.cache.SetSummary(ctx, sessionID, &summary); err != nil {
		return nil, err
	}
	if s.listener != nil {
		s.listener(ctx, sessionID, whole)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRecruiters(sessionID, EventSignalsUpdate, summary)
	}
	return &summary, nil
}

// SessionSummary summarizes every frame this instance received for the
// session, or nil when it holds none
func (s *BehaviorService) SessionSummary(sessionID string) *model.SignalSummary {
	sf, ok := s.lookup(sessionID)
	if !ok {
		return nil
	}
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if summary, ok := sf.totals.Summary(); ok {
		return &summary
	}
	return nil
}

// Classify labels a snapshot and combines it with the latest summary. When
// the classifier fails the last known analytics are returned instead.
func (s *BehaviorService) Classify(ctx context.Context, sessionID string, image []byte, timestampMS int64) (*model.CombinedAnalytics, error) {
	if err := s.checkGate(ctx, sessionID); err != nil {
		return nil, err
	}
	if !s.throttle.Allow(sessionID) {
		return nil, ErrThrottled
	}
	if timestampMS == 0 {
		timestampMS = time.Now().UnixMilli()
	}

	summary, err := s.currentSummary(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cl, err := s.classifier.Classify(ctx, image, timestampMS)
	if err != nil {
		s.log.Warn("classification failed, keeping last analytics",
			zap.String("sessionId", sessionID), zap.Error(err))
		last, cacheErr := s.cache.GetAnalytics(ctx, sessionID)
		if cacheErr != nil {
			return nil, cacheErr
		}
		if last != nil {
			return last, nil
		}
		signalsOnly := s.combiner.Combine(nil, summary)
		return &signalsOnly, nil
	}

	analytics := s.combiner.Combine(cl, summary)
	if err := s.cache.SetAnalytics(ctx, sessionID, &analytics); err != nil {
		return nil, err
	}
	if err := s.cache.PushClassification(ctx, sessionID, cl); err != nil {
		s.log.Error("failed to record classification", zap.String("sessionId", sessionID), zap.Error(err))
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRecruiters(sessionID, EventAnalyticsUpdate, map[string]interface{}{
			"analytics":      analytics,
			"classification": cl,
		})
	}
	return &analytics, nil
}

// currentSummary aggregates the in-memory window, falling back to the cached
// summary when this instance holds no frames for the session
func (s *BehaviorService) currentSummary(ctx context.Context, sessionID string) (*model.SignalSummary, error) {
	if sf, ok := s.lookup(sessionID); ok {
		if summary, ok := s.aggregator.Aggregate(sf.window.Snapshot()); ok {
			return &summary, nil
		}
	}
	return s.cache.GetSummary(ctx, sessionID)
}

// Live returns the current summary and analytics of a session
func (s *BehaviorService) Live(ctx context.Context, sessionID string) (*LiveSignals, error) {
	summary, err := s.currentSummary(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	analytics, err := s.cache.GetAnalytics(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &LiveSignals{Summary: summary, Analytics: analytics}, nil
}

// ReportGenerator returns a report generator seeded with the session's
// classification history
func (s *BehaviorService) ReportGenerator(ctx context.Context, sessionID string) (*report.Generator, error) {
	recent, err := s.cache.RecentClassifications(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	counts, err := s.cache.ClassificationCounts(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return report.NewGeneratorFrom(recent, counts), nil
}

// Release frees the in-memory state of a finished session
func (s *BehaviorService) Release(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	s.throttle.Forget(sessionID)
}

// SignalsPatch maps a window summary onto the session-level behavior signals
func SignalsPatch(summary model.SignalSummary) model.BehaviorSignalsPatch {
	attention := summary.EyeContactPct
	lookingAway := 100 - summary.EyeContactPct
	return model.BehaviorSignalsPatch{
		AttentionScoreAvg: &attention,
		LookingAwayPctAvg: &lookingAway,
	}
}
