package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"round1/internal/cache"
	"round1/internal/model"
)

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func newMemJobRepo(jobs ...*model.Job) *memJobRepo {
	r := &memJobRepo{jobs: make(map[string]*model.Job)}
	for _, j := range jobs {
		r.jobs[j.ID] = j
	}
	return r
}

func (r *memJobRepo) Create(_ context.Context, job *model.Job) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		job.ID = "job_test"
	}
	r.jobs[job.ID] = job
	return job.ID, nil
}

func (r *memJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id], nil
}

func (r *memJobRepo) GetByRecruiterID(_ context.Context, recruiterID string) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Job
	for _, j := range r.jobs {
		if j.RecruiterID == recruiterID {
			out = append(out, j)
		}
	}
	return out, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.InterviewSession
	saves    int

	failCompletedSaves int // saves of completed sessions that fail before one succeeds
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.InterviewSession)}
}

func (r *memSessionRepo) Save(_ context.Context, s *model.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.IsComplete && r.failCompletedSaves > 0 {
		r.failCompletedSaves--
		return errors.New("mongo: connection reset")
	}
	r.saves++
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id string) (*model.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (r *memSessionRepo) ListByJob(_ context.Context, jobID string) ([]*model.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.InterviewSession
	for _, s := range r.sessions {
		if s.JobID == jobID {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

type memSessionCache struct {
	mu       sync.Mutex
	sessions map[string]*model.InterviewSession
}

func newMemSessionCache() *memSessionCache {
	return &memSessionCache{sessions: make(map[string]*model.InterviewSession)}
}

func (c *memSessionCache) Set(_ context.Context, s *model.InterviewSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = s.Clone()
	return nil
}

func (c *memSessionCache) Get(_ context.Context, id string) (*model.InterviewSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[id]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (c *memSessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

type memRankingCache struct {
	mu     sync.Mutex
	scores map[string]map[string]float64
}

func newMemRankingCache() *memRankingCache {
	return &memRankingCache{scores: make(map[string]map[string]float64)}
}

func (c *memRankingCache) UpdateScore(_ context.Context, jobID, sessionID string, overall float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scores[jobID] == nil {
		c.scores[jobID] = make(map[string]float64)
	}
	c.scores[jobID][sessionID] = overall
	return nil
}

func (c *memRankingCache) GetTop(_ context.Context, jobID string, limit int) ([]model.RankingEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []model.RankingEntry{}
	for id, score := range c.scores[jobID] {
		out = append(out, model.RankingEntry{SessionID: id, Overall: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Overall > out[j].Overall })
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (c *memRankingCache) GetRank(ctx context.Context, jobID, sessionID string) (int64, error) {
	top, _ := c.GetTop(ctx, jobID, len(c.scores[jobID]))
	for _, e := range top {
		if e.SessionID == sessionID {
			return int64(e.Rank), nil
		}
	}
	return -1, nil
}

type memAnalyticsCache struct {
	mu        sync.Mutex
	summaries map[string]*model.SignalSummary
	analytics map[string]*model.CombinedAnalytics
	history   map[string][]model.ImpressionClassification
	counts    map[string]map[string]int
}

func newMemAnalyticsCache() *memAnalyticsCache {
	return &memAnalyticsCache{
		summaries: make(map[string]*model.SignalSummary),
		analytics: make(map[string]*model.CombinedAnalytics),
		history:   make(map[string][]model.ImpressionClassification),
		counts:    make(map[string]map[string]int),
	}
}

func (c *memAnalyticsCache) SetSummary(_ context.Context, id string, s *model.SignalSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *s
	c.summaries[id] = &cp
	return nil
}

func (c *memAnalyticsCache) GetSummary(_ context.Context, id string) (*model.SignalSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaries[id], nil
}

func (c *memAnalyticsCache) SetAnalytics(_ context.Context, id string, a *model.CombinedAnalytics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *a
	c.analytics[id] = &cp
	return nil
}

func (c *memAnalyticsCache) GetAnalytics(_ context.Context, id string) (*model.CombinedAnalytics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analytics[id], nil
}

func (c *memAnalyticsCache) PushClassification(_ context.Context, id string, cl *model.ImpressionClassification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := append(c.history[id], *cl)
	if len(h) > cache.RecentClassificationLimit {
		h = h[len(h)-cache.RecentClassificationLimit:]
	}
	c.history[id] = h
	if c.counts[id] == nil {
		c.counts[id] = make(map[string]int)
	}
	c.counts[id][cl.Top]++
	return nil
}

func (c *memAnalyticsCache) RecentClassifications(_ context.Context, id string) ([]model.ImpressionClassification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ImpressionClassification(nil), c.history[id]...), nil
}

func (c *memAnalyticsCache) ClassificationCounts(_ context.Context, id string) (map[string]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int)
	for k, v := range c.counts[id] {
		out[k] = v
	}
	return out, nil
}

type memReportRepo struct {
	mu      sync.Mutex
	reports map[string]*model.InterviewReport
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[string]*model.InterviewReport)}
}

func (r *memReportRepo) Save(_ context.Context, rep *model.InterviewReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[rep.SessionID] = rep
	return nil
}

func (r *memReportRepo) GetBySessionID(_ context.Context, id string) (*model.InterviewReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[id], nil
}

type sentEvent struct {
	sessionID string
	msgType   string
	candidate bool
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) BroadcastToRecruiters(sessionID, msgType string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{sessionID, msgType, false})
}

func (b *recordingBroadcaster) BroadcastToCandidate(sessionID, msgType string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{sessionID, msgType, true})
}

func (b *recordingBroadcaster) DisconnectSession(string) {}

func (b *recordingBroadcaster) count(msgType string, candidate bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.msgType == msgType && e.candidate == candidate {
			n++
		}
	}
	return n
}
