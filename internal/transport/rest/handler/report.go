package handler

import (
	"net/http"

	"round1/internal/service"
	"round1/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// ReportHandler handles report endpoints
type ReportHandler struct {
	reportSvc    *service.ReportService
	interviewSvc *service.InterviewService
	jobSvc       *service.JobService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportSvc *service.ReportService, interviewSvc *service.InterviewService, jobSvc *service.JobService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, interviewSvc: interviewSvc, jobSvc: jobSvc}
}

// Get handles GET /v1/interviews/{id}/report
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	recruiterID := middleware.GetRecruiterID(r.Context())
	if recruiterID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	session, err := h.interviewSvc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if _, err := h.jobSvc.GetOwned(r.Context(), session.JobID, recruiterID); err != nil {
		writeServiceError(w, err)
		return
	}
	if !session.IsComplete {
		writeJSON(w, http.StatusOK, map[string]string{"status": "in_progress"})
		return
	}

	report, err := h.reportSvc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
