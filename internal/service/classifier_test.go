package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"round1/internal/config"
	"round1/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRoboflowClassify(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0}
	var gotBody, gotKey, gotConf, gotType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		gotKey = r.URL.Query().Get("api_key")
		gotConf = r.URL.Query().Get("confidence")
		gotType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"top":"engaged","confidence":0.81,"predictions":[{"class":"nervous","confidence":0.1},{"class":"engaged","confidence":0.81}]}`))
	}))
	defer srv.Close()

	c := NewRoboflowClassifier(config.ClassifierConfig{
		APIKey:     "rf-key",
		Endpoint:   srv.URL + "/impression/1",
		Confidence: 40,
		TimeoutMS:  5000,
	})

	res, err := c.Classify(context.Background(), image, 1234)
	require.NoError(t, err)

	assert.Equal(t, base64.StdEncoding.EncodeToString(image), gotBody)
	assert.Equal(t, "rf-key", gotKey)
	assert.Equal(t, "0.40", gotConf)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)

	assert.Equal(t, "engaged", res.Top)
	assert.Equal(t, 0.81, res.Confidence)
	assert.Equal(t, int64(1234), res.TimestampMS)
	require.Len(t, res.Predictions, 2)
	assert.Equal(t, "engaged", res.Predictions[0].Class)
}

func TestRoboflowClassifyMultiLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":{"tired":{"confidence":0.2},"professional":{"confidence":0.9}}}`))
	}))
	defer srv.Close()

	c := NewRoboflowClassifier(config.ClassifierConfig{APIKey: "rf-key", Endpoint: srv.URL})
	res, err := c.Classify(context.Background(), []byte("img"), 1)
	require.NoError(t, err)

	assert.Equal(t, "professional", res.Top)
	assert.Equal(t, 0.9, res.Confidence)
	assert.Equal(t, []model.Prediction{
		{Class: "professional", Confidence: 0.9},
		{Class: "tired", Confidence: 0.2},
	}, res.Predictions)
}

func TestRoboflowClassifyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewRoboflowClassifier(config.ClassifierConfig{APIKey: "rf-key", Endpoint: srv.URL})
	_, err := c.Classify(context.Background(), []byte("img"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSimulatedClassifier(t *testing.T) {
	c := NewSimulatedClassifier()
	ctx := context.Background()

	for ts := int64(0); ts < 200; ts += 7 {
		a, err := c.Classify(ctx, nil, ts)
		require.NoError(t, err)
		b, err := c.Classify(ctx, nil, ts)
		require.NoError(t, err)
		assert.Equal(t, a, b, "same timestamp must give the same result")

		assert.Contains(t, simulatedClasses, a.Top)
		assert.GreaterOrEqual(t, a.Confidence, 0.6)
		assert.Less(t, a.Confidence, 0.9)
		require.Len(t, a.Predictions, len(simulatedClasses))
		for _, p := range a.Predictions {
			if p.Class != a.Top {
				assert.Less(t, p.Confidence, 0.4)
			}
		}
	}
}

func TestNewImpressionClassifier(t *testing.T) {
	for _, key := range []string{"", "demo", "YOUR_API_KEY"} {
		assert.IsType(t, &SimulatedClassifier{}, NewImpressionClassifier(config.ClassifierConfig{APIKey: key}, zap.NewNop()))
	}
	assert.IsType(t, &RoboflowClassifier{}, NewImpressionClassifier(config.ClassifierConfig{APIKey: "real"}, zap.NewNop()))
}

func TestSessionThrottle(t *testing.T) {
	th := NewSessionThrottle(time.Hour)
	assert.True(t, th.Allow("a"))
	assert.False(t, th.Allow("a"))
	assert.True(t, th.Allow("b"), "sessions are throttled independently")

	th.Forget("a")
	assert.True(t, th.Allow("a"))

	off := NewSessionThrottle(0)
	assert.True(t, off.Allow("a"))
	assert.True(t, off.Allow("a"))
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, []byte, int64) (*model.ImpressionClassification, error) {
	return nil, errors.New("model unavailable")
}
