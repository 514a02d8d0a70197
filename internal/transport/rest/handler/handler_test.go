package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"round1/internal/config"
	"round1/internal/interview"
	"round1/internal/model"
	"round1/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrJobNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", service.ErrSessionNotFound), http.StatusNotFound},
		{service.ErrNotJobOwner, http.StatusForbidden},
		{service.ErrEmptyAnswer, http.StatusBadRequest},
		{service.ErrThrottled, http.StatusTooManyRequests},
		{interview.ErrBusy, http.StatusConflict},
		{interview.ErrSessionComplete, http.StatusConflict},
		{interview.ErrNoOpenQuestion, http.StatusConflict},
		{fmt.Errorf("%w: timeout", interview.ErrScoring), http.StatusBadGateway},
		{errors.New("mongo down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tc.err)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}

	rec := httptest.NewRecorder()
	writeServiceError(rec, errors.New("mongo down"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["error"])
}

func TestLogin(t *testing.T) {
	h := NewAuthHandler(service.NewAuthService(config.AuthConfig{
		RecruiterUsername: "admin",
		RecruiterPassword: "secret",
		JWTSecret:         "test-secret",
	}))

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"username":"admin","password":"secret"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.True(t, strings.HasPrefix(resp.RecruiterID, "recruiter_"))

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"username":"admin","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotRejectsBadImage(t *testing.T) {
	h := NewBehaviorHandler(nil)

	for _, body := range []string{`{"image":""}`, `{"image":"data:image/jpeg;base64,@@@"}`, `not json`} {
		rec := httptest.NewRecorder()
		h.Snapshot(rec, httptest.NewRequest(http.MethodPost, "/v1/interviews/s/snapshots", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}
