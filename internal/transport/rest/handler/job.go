package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"round1/internal/model"
	"round1/internal/service"
	"round1/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// JobHandler handles recruiter job endpoints
type JobHandler struct {
	jobSvc       *service.JobService
	interviewSvc *service.InterviewService
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobSvc *service.JobService, interviewSvc *service.InterviewService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc, interviewSvc: interviewSvc}
}

// Create handles POST /v1/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	recruiterID := middleware.GetRecruiterID(r.Context())
	if recruiterID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.jobSvc.Create(r.Context(), recruiterID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

// List handles GET /v1/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	recruiterID := middleware.GetRecruiterID(r.Context())
	if recruiterID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	jobs, err := h.jobSvc.GetByRecruiterID(r.Context(), recruiterID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}

	writeJSON(w, http.StatusOK, jobs)
}

// Get handles GET /v1/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobSvc.GetOwned(r.Context(), mux.Vars(r)["id"], middleware.GetRecruiterID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Interviews handles GET /v1/jobs/{id}/interviews
func (h *JobHandler) Interviews(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobSvc.GetOwned(r.Context(), mux.Vars(r)["id"], middleware.GetRecruiterID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	sessions, err := h.interviewSvc.ListByJob(r.Context(), job.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*model.InterviewSession{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

// Ranking handles GET /v1/jobs/{id}/ranking?limit=N
func (h *JobHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobSvc.GetOwned(r.Context(), mux.Vars(r)["id"], middleware.GetRecruiterID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.interviewSvc.Ranking(r.Context(), job.ID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
