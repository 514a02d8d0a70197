package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"round1/internal/config"
	"round1/internal/model"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrThrottled = errors.New("classification requested too soon")

// ImpressionClassifier labels a webcam snapshot with an impression class
type ImpressionClassifier interface {
	Classify(ctx context.Context, image []byte, timestampMS int64) (*model.ImpressionClassification, error)
}

// NewImpressionClassifier returns the hosted classifier when a real API key is
// configured and the simulated one otherwise
func NewImpressionClassifier(cfg config.ClassifierConfig, log *zap.Logger) ImpressionClassifier {
	if !cfg.IsEnabled() {
		log.Warn("classifier API key not set, using simulated impressions")
		return NewSimulatedClassifier()
	}
	return NewRoboflowClassifier(cfg)
}

// RoboflowClassifier calls a hosted Roboflow classification model
type RoboflowClassifier struct {
	config config.ClassifierConfig
	client *http.Client
}

// NewRoboflowClassifier creates a new hosted classifier client
func NewRoboflowClassifier(cfg config.ClassifierConfig) *RoboflowClassifier {
	return &RoboflowClassifier{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Classify posts the base64 image and returns the predicted classes
func (c *RoboflowClassifier) Classify(ctx context.Context, image []byte, timestampMS int64) (*model.ImpressionClassification, error) {
	q := url.Values{}
	q.Set("api_key", c.config.APIKey)
	q.Set("confidence", strconv.FormatFloat(float64(c.config.Confidence)/100, 'f', 2, 64))

	endpoint := c.config.Endpoint
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}

	body := strings.NewReader(base64.StdEncoding.EncodeToString(image))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+sep+q.Encode(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var result struct {
		Top         string          `json:"top"`
		Confidence  float64         `json:"confidence"`
		Predictions json.RawMessage `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}

	preds, err := decodePredictions(result.Predictions)
	if err != nil {
		return nil, err
	}

	top, conf := result.Top, result.Confidence
	if top == "" && len(preds) > 0 {
		top, conf = preds[0].Class, preds[0].Confidence
	}
	if top == "" {
		top = "unknown"
	}

	return &model.ImpressionClassification{
		Top:         top,
		Confidence:  conf,
		Predictions: preds,
		TimestampMS: timestampMS,
	}, nil
}

// decodePredictions accepts both the single-label list form and the
// multi-label map form, returning predictions by descending confidence
func decodePredictions(raw json.RawMessage) ([]model.Prediction, error) {
	preds := []model.Prediction{}
	if len(raw) == 0 || string(raw) == "null" {
		return preds, nil
	}

	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &preds); err != nil {
			return nil, fmt.Errorf("decode predictions: %w", err)
		}
	} else {
		var byClass map[string]struct {
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal(raw, &byClass); err != nil {
			return nil, fmt.Errorf("decode predictions: %w", err)
		}
		for class, p := range byClass {
			preds = append(preds, model.Prediction{Class: class, Confidence: p.Confidence})
		}
	}

	sort.SliceStable(preds, func(i, j int) bool {
		if preds[i].Confidence != preds[j].Confidence {
			return preds[i].Confidence > preds[j].Confidence
		}
		return preds[i].Class < preds[j].Class
	})
	return preds, nil
}

var simulatedClasses = []string{
	model.ClassProfessional,
	model.ClassEngaged,
	model.ClassDistracted,
	model.ClassTired,
	model.ClassConfident,
	model.ClassNervous,
}

// SimulatedClassifier produces plausible classifications without a model.
// Output depends only on the timestamp.
type SimulatedClassifier struct{}

// NewSimulatedClassifier creates a simulated classifier
func NewSimulatedClassifier() *SimulatedClassifier {
	return &SimulatedClassifier{}
}

// Classify picks a top class with confidence in [0.6, 0.9) and gives every
// other class a confidence below 0.4
func (c *SimulatedClassifier) Classify(ctx context.Context, image []byte, timestampMS int64) (*model.ImpressionClassification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(timestampMS))
	top := simulatedClasses[rng.Intn(len(simulatedClasses))]
	conf := 0.6 + rng.Float64()*0.3

	preds := make([]model.Prediction, 0, len(simulatedClasses))
	for _, cls := range simulatedClasses {
		p := model.Prediction{Class: cls, Confidence: rng.Float64() * 0.4}
		if cls == top {
			p.Confidence = conf
		}
		preds = append(preds, p)
	}

	return &model.ImpressionClassification{
		Top:         top,
		Confidence:  conf,
		Predictions: preds,
		TimestampMS: timestampMS,
	}, nil
}

// SessionThrottle spaces classifier calls per session
type SessionThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[string]*rate.Limiter
}

// NewSessionThrottle allows one call per interval for each session. A
// non-positive interval disables throttling.
func NewSessionThrottle(interval time.Duration) *SessionThrottle {
	return &SessionThrottle{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether sessionID may classify now
func (t *SessionThrottle) Allow(sessionID string) bool {
	if t.interval <= 0 {
		return true
	}
	t.mu.Lock()
	l, ok := t.limiters[sessionID]
	if !ok {
		l = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[sessionID] = l
	}
	t.mu.Unlock()
	return l.Allow()
}

// Forget drops the limiter of a finished session
func (t *SessionThrottle) Forget(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.limiters, sessionID)
}
