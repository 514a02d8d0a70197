package handler

import (
	"encoding/json"
	"net/http"

	"round1/internal/model"
	"round1/internal/service"
	"round1/internal/transport/rest/middleware"
)

// BehaviorHandler accepts webcam data over plain HTTP for clients without a WebSocket
type BehaviorHandler struct {
	behaviorSvc *service.BehaviorService
}

// NewBehaviorHandler creates a new behavior handler
func NewBehaviorHandler(behaviorSvc *service.BehaviorService) *BehaviorHandler {
	return &BehaviorHandler{behaviorSvc: behaviorSvc}
}

// Frames handles POST /v1/interviews/{id}/frames
func (h *BehaviorHandler) Frames(w http.ResponseWriter, r *http.Request) {
	var req model.FrameBatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.behaviorSvc.IngestFrames(r.Context(), middleware.GetSessionID(r.Context()), req.Frames)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &service.LiveSignals{Summary: summary})
}

// Snapshot handles POST /v1/interviews/{id}/snapshots
func (h *BehaviorHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	var req model.SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	image, err := req.DecodeImage()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analytics, err := h.behaviorSvc.Classify(r.Context(), middleware.GetSessionID(r.Context()), image, req.TimestampMS)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

// Signals handles GET /v1/interviews/{id}/signals
func (h *BehaviorHandler) Signals(w http.ResponseWriter, r *http.Request) {
	live, err := h.behaviorSvc.Live(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, live)
}
