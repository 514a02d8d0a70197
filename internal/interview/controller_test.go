package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"round1/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	requests []*model.QuestionRequest
	err      error
	wrapAt   int           // question number that carries the wrap-up signal
	emptyAt  int           // question number returned as nil
	block    chan struct{} // when set, waits for close or ctx
	entered  chan struct{}
}

func (f *fakeGenerator) GenerateQuestion(ctx context.Context, req *model.QuestionRequest) (*model.GeneratedQuestion, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if n == f.emptyAt {
		return nil, nil
	}
	return &model.GeneratedQuestion{
		Question:     fmt.Sprintf("Question %d?", n),
		Category:     model.CategorySkill,
		ShouldWrapUp: n == f.wrapAt,
	}, nil
}

type fakeScorer struct {
	mu      sync.Mutex
	calls   int
	overall float64
	err     error
	last    *model.ScoreRequest
}

func (f *fakeScorer) ScoreInterview(_ context.Context, req *model.ScoreRequest) (*model.ScoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &model.ScoreResult{Overall: f.overall, Pass: true, Summary: "ok"}, nil
}

func testOptions() Options {
	return Options{
		CallTimeout:          time.Second,
		Weights:              model.ScoreWeights{Interview: 0.6, Resume: 0.2, Behavior: 0.2},
		DefaultPassThreshold: 70,
		DefaultJobTitle:      "Software Engineer",
	}
}

func newController(maxDepth int, gen *fakeGenerator, sc *fakeScorer) *Controller {
	job := &model.Job{ID: "job-1", Title: "Backend Engineer", Description: "Go services", SkillsRequired: []string{"go"}}
	s := NewSession("sess-1", job, "Ada", model.Resume{Summary: "engineer", Skills: []string{"go"}}, maxDepth, time.Now())
	return New(s, gen, sc, testOptions())
}

func runInterview(t *testing.T, c *Controller) int {
	t.Helper()
	ctx := context.Background()
	asked := 0
	for i := 0; i < 20; i++ {
		q, err := c.GenerateNextQuestion(ctx)
		require.NoError(t, err)
		if q == nil {
			return asked
		}
		asked++
		require.NoError(t, c.AddMessage(model.SpeakerCandidate, "answer"))
	}
	t.Fatal("interview did not terminate")
	return asked
}

func TestTurnBudget(t *testing.T) {
	gen := &fakeGenerator{}
	c := newController(3, gen, &fakeScorer{})

	assert.Equal(t, 3, runInterview(t, c))
	assert.Len(t, c.Snapshot().Transcript, 6)
	assert.True(t, c.BudgetExhausted())

	q, err := c.GenerateNextQuestion(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, q)
	assert.Equal(t, 3, gen.calls)
}

func TestDefaultMaxDepth(t *testing.T) {
	c := newController(-1, &fakeGenerator{}, &fakeScorer{})
	assert.Equal(t, DefaultMaxDepth, c.Snapshot().MaxDepth)
}

func TestPreviousSignalsOnlyAfterFirstTurn(t *testing.T) {
	gen := &fakeGenerator{}
	c := newController(2, gen, &fakeScorer{})
	attention := 82.0
	c.UpdateBehaviorSignals(model.BehaviorSignalsPatch{AttentionScoreAvg: &attention})

	runInterview(t, c)

	require.Len(t, gen.requests, 2)
	assert.Nil(t, gen.requests[0].PreviousSignals)
	assert.Empty(t, gen.requests[0].TranscriptSoFar)
	require.NotNil(t, gen.requests[1].PreviousSignals)
	assert.Equal(t, 82.0, gen.requests[1].PreviousSignals.AttentionScoreAvg)
	assert.Len(t, gen.requests[1].TranscriptSoFar, 2)
	assert.Equal(t, []string{"go"}, gen.requests[0].SkillsRequired)
}

func TestGenerateWhileAwaitingAnswer(t *testing.T) {
	c := newController(3, &fakeGenerator{}, &fakeScorer{})

	_, err := c.GenerateNextQuestion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusAwaitingAnswer, c.Status())

	_, err = c.GenerateNextQuestion(context.Background())
	assert.ErrorIs(t, err, ErrAwaitingAnswer)
}

func TestWrapUpSignalEndsAfterAnswer(t *testing.T) {
	gen := &fakeGenerator{wrapAt: 2}
	c := newController(5, gen, &fakeScorer{})

	assert.Equal(t, 2, runInterview(t, c))
	assert.Len(t, c.Snapshot().Transcript, 4)
	assert.Equal(t, 2, gen.calls)
}

func TestGeneratorReturnsNoQuestion(t *testing.T) {
	gen := &fakeGenerator{emptyAt: 1}
	c := newController(5, gen, &fakeScorer{})

	q, err := c.GenerateNextQuestion(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, q)
	assert.Empty(t, c.Snapshot().Transcript)
	assert.Equal(t, model.StatusAwaitingQuestion, c.Status())
}

func TestGeneratorFailureLeavesSessionUnchanged(t *testing.T) {
	boom := errors.New("upstream 503")
	gen := &fakeGenerator{err: boom}
	c := newController(5, gen, &fakeScorer{})

	q, err := c.GenerateNextQuestion(context.Background())
	assert.Nil(t, q)
	assert.ErrorIs(t, err, ErrQuestionGeneration)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.Snapshot().Transcript)

	gen.err = nil
	q, err = c.GenerateNextQuestion(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, q, "retry after failure")
}

func TestGeneratorTimeout(t *testing.T) {
	gen := &fakeGenerator{block: make(chan struct{})}
	c := newController(5, gen, &fakeScorer{})
	c.opts.CallTimeout = 20 * time.Millisecond

	_, err := c.GenerateNextQuestion(context.Background())
	assert.ErrorIs(t, err, ErrQuestionGeneration)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompleteInterviewOnce(t *testing.T) {
	sc := &fakeScorer{overall: 81}
	c := newController(2, &fakeGenerator{}, sc)
	runInterview(t, c)

	first, err := c.CompleteInterview(context.Background())
	require.NoError(t, err)
	second, err := c.CompleteInterview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sc.calls)
	assert.Equal(t, first, second)
	assert.True(t, first.Pass)
	assert.True(t, c.IsComplete())
	assert.Equal(t, model.StatusCompleted, c.Status())
	assert.NotNil(t, c.Snapshot().CompletedAt)
}

func TestCompleteInterviewRequest(t *testing.T) {
	sc := &fakeScorer{overall: 50}
	c := newController(1, &fakeGenerator{}, sc)
	runInterview(t, c)
	c.SetLatestSummary(model.SignalSummary{DurationSec: 90, EyeContactPct: 80, BlinkRatePerMin: 14, Lean: model.LeanForward})

	score, err := c.CompleteInterview(context.Background())
	require.NoError(t, err)

	assert.False(t, score.Pass, "pass is recomputed from the threshold")
	req := sc.last
	assert.Equal(t, "Backend Engineer", req.Job.Title)
	assert.Equal(t, 70.0, req.Job.Thresholds.Overall)
	assert.Equal(t, model.ScoreWeights{Interview: 0.6, Resume: 0.2, Behavior: 0.2}, req.Weights)
	assert.Equal(t, model.LeanForward, req.Behavior.Lean)
	assert.Equal(t, 90.0, req.Behavior.DurationSec)
	assert.InDelta(t, 81, req.Behavior.BehaviorScore, 1e-9)
	assert.Len(t, req.Transcript, 2)
}

func TestCompleteInterviewFailureIsRetryable(t *testing.T) {
	sc := &fakeScorer{err: errors.New("quota"), overall: 90}
	c := newController(1, &fakeGenerator{}, sc)
	runInterview(t, c)

	_, err := c.CompleteInterview(context.Background())
	assert.ErrorIs(t, err, ErrScoring)
	assert.False(t, c.IsComplete())
	assert.Equal(t, model.StatusAwaitingQuestion, c.Status())

	sc.err = nil
	score, err := c.CompleteInterview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 90.0, score.Overall)
	assert.Equal(t, 2, sc.calls)
}

func TestZeroDepthInterview(t *testing.T) {
	gen := &fakeGenerator{}
	sc := &fakeScorer{overall: 72}
	c := newController(0, gen, sc)

	q, err := c.GenerateNextQuestion(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, q)
	assert.Equal(t, 0, gen.calls)

	score, err := c.CompleteInterview(context.Background())
	require.NoError(t, err)
	assert.True(t, score.Pass)
	assert.Equal(t, 0.0, sc.last.Behavior.AttentionScoreAvg)
	assert.Equal(t, 0, sc.last.Behavior.PausesCount)
	assert.Equal(t, model.LeanNeutral, sc.last.Behavior.Lean)
	assert.Empty(t, sc.last.Transcript)
}

func TestMutationsAfterCompletion(t *testing.T) {
	c := newController(0, &fakeGenerator{}, &fakeScorer{overall: 80})
	_, err := c.CompleteInterview(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, c.AddMessage(model.SpeakerCandidate, "late"), ErrSessionComplete)
	q, err := c.GenerateNextQuestion(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, q)
}

func TestSignalsFrozenAfterCompletion(t *testing.T) {
	c := newController(0, &fakeGenerator{}, &fakeScorer{overall: 80})
	_, err := c.CompleteInterview(context.Background())
	require.NoError(t, err)
	before := c.Snapshot()

	attention := 12.0
	c.UpdateBehaviorSignals(model.BehaviorSignalsPatch{AttentionScoreAvg: &attention})
	c.SetLatestSummary(model.SignalSummary{SampleCount: 9})

	after := c.Snapshot()
	assert.Equal(t, before.BehaviorSignals, after.BehaviorSignals)
	assert.Equal(t, before.LatestSummary, after.LatestSummary)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestCandidateAnswerNeedsOpenQuestion(t *testing.T) {
	c := newController(3, &fakeGenerator{}, &fakeScorer{})
	assert.ErrorIs(t, c.AddMessage(model.SpeakerCandidate, "before any question"), ErrNoOpenQuestion)

	_, err := c.GenerateNextQuestion(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.AddMessage(model.SpeakerCandidate, "first"))
	assert.ErrorIs(t, c.AddMessage(model.SpeakerCandidate, "second"), ErrNoOpenQuestion)
	require.NoError(t, c.AddMessage(model.SpeakerAgent, "thanks"))

	var candidate int
	for _, m := range c.Snapshot().Transcript {
		if m.Speaker == model.SpeakerCandidate {
			candidate++
		}
	}
	assert.Equal(t, 1, candidate)
}

func TestRacingAnswersRecordOne(t *testing.T) {
	c := newController(3, &fakeGenerator{}, &fakeScorer{})
	_, err := c.GenerateNextQuestion(context.Background())
	require.NoError(t, err)

	const racers = 16
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- c.AddMessage(model.SpeakerCandidate, fmt.Sprintf("answer %d", i))
		}(i)
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, ErrNoOpenQuestion)
	}
	assert.Equal(t, 1, accepted)
	assert.Len(t, c.Snapshot().Transcript, 2)
}

func TestAddMessageRejectsUnknownSpeaker(t *testing.T) {
	c := newController(1, &fakeGenerator{}, &fakeScorer{})
	assert.ErrorIs(t, c.AddMessage("recruiter", "hi"), ErrInvalidSpeaker)
}

func TestUpdateBehaviorSignalsMerges(t *testing.T) {
	c := newController(1, &fakeGenerator{}, &fakeScorer{})
	attention, ratio, pauses := 64.0, 0.4, 3

	c.UpdateBehaviorSignals(model.BehaviorSignalsPatch{AttentionScoreAvg: &attention, PausesCount: &pauses})
	c.UpdateBehaviorSignals(model.BehaviorSignalsPatch{SpeakingRatio: &ratio})

	assert.Equal(t, model.BehaviorSignals{AttentionScoreAvg: 64, SpeakingRatio: 0.4, PausesCount: 3}, c.Snapshot().BehaviorSignals)
}

func TestConcurrentCallsAreRejected(t *testing.T) {
	gen := &fakeGenerator{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	sc := &fakeScorer{}
	c := newController(3, gen, sc)

	done := make(chan error, 1)
	go func() {
		_, err := c.GenerateNextQuestion(context.Background())
		done <- err
	}()
	<-gen.entered

	_, err := c.GenerateNextQuestion(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.CompleteInterview(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.AddMessage(model.SpeakerCandidate, "too early"), ErrBusy)
	assert.Equal(t, 0, sc.calls)

	close(gen.block)
	require.NoError(t, <-done)
	assert.Len(t, c.Snapshot().Transcript, 1)
}

func TestRestoreCompletedSession(t *testing.T) {
	s := NewSession("sess-2", nil, "", model.Resume{}, 2, time.Now())
	s.IsComplete = true
	s.Score = &model.ScoreResult{Overall: 77, Pass: true}
	s.Status = ""

	sc := &fakeScorer{}
	c := New(s, &fakeGenerator{}, sc, testOptions())

	assert.Equal(t, model.StatusCompleted, c.Status())
	score, err := c.CompleteInterview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 77.0, score.Overall)
	assert.Equal(t, 0, sc.calls)
}

func TestRestoreDerivesAwaitingAnswer(t *testing.T) {
	s := NewSession("sess-3", nil, "", model.Resume{}, 2, time.Now())
	s.Transcript = []model.Message{{Speaker: model.SpeakerAgent, Text: "Q?"}}
	s.Status = ""

	c := New(s, &fakeGenerator{}, &fakeScorer{}, testOptions())
	assert.Equal(t, model.StatusAwaitingAnswer, c.Status())
}
