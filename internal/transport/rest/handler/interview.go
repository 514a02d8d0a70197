package handler

import (
	"encoding/json"
	"net/http"

	"round1/internal/model"
	"round1/internal/service"
	"round1/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// InterviewHandler handles interview lifecycle endpoints
type InterviewHandler struct {
	interviewSvc *service.InterviewService
	jobSvc       *service.JobService
}

// NewInterviewHandler creates a new interview handler
func NewInterviewHandler(interviewSvc *service.InterviewService, jobSvc *service.JobService) *InterviewHandler {
	return &InterviewHandler{interviewSvc: interviewSvc, jobSvc: jobSvc}
}

// Start handles POST /v1/jobs/{id}/interviews
func (h *InterviewHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.interviewSvc.Start(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/interviews/{id} for the recruiter owning the job
func (h *InterviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.interviewSvc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if _, err := h.jobSvc.GetOwned(r.Context(), session.JobID, middleware.GetRecruiterID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// SubmitAnswer handles POST /v1/interviews/{id}/answers
func (h *InterviewHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.interviewSvc.SubmitAnswer(r.Context(), middleware.GetSessionID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// NextQuestion handles POST /v1/interviews/{id}/question, retrying a failed turn
func (h *InterviewHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	resp, err := h.interviewSvc.NextQuestion(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Complete handles POST /v1/interviews/{id}/complete
func (h *InterviewHandler) Complete(w http.ResponseWriter, r *http.Request) {
	score, err := h.interviewSvc.Complete(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.TurnResponse{IsComplete: true, Score: score})
}
