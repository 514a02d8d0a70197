package rest

import (
	"net/http"

	"round1/internal/service"
	"round1/internal/transport/rest/handler"
	"round1/internal/transport/rest/middleware"
	"round1/internal/transport/ws"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService        *service.AuthService
	JobService         *service.JobService
	InterviewService   *service.InterviewService
	BehaviorService    *service.BehaviorService
	ReportService      *service.ReportService
	WSHub              *ws.Hub
	Logger             *zap.Logger
	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	jobHandler := handler.NewJobHandler(c.JobService, c.InterviewService)
	interviewHandler := handler.NewInterviewHandler(c.InterviewService, c.JobService)
	behaviorHandler := handler.NewBehaviorHandler(c.BehaviorService)
	reportHandler := handler.NewReportHandler(c.ReportService, c.InterviewService, c.JobService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.InterviewService, c.BehaviorService, c.Logger)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS first so preflight requests never reach auth
	r.Use(corsMiddleware(c.CORSAllowedOrigins))
	r.Use(middleware.RequestLogger(c.Logger))

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/jobs/{id}/interviews", interviewHandler.Start).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/interviews/{id}/recruiter", wsHandler.RecruiterWS).Methods("GET")
	v1.HandleFunc("/ws/interviews/{id}/candidate", wsHandler.CandidateWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Recruiter routes
	recruiterRoutes := v1.NewRoute().Subrouter()
	recruiterRoutes.Use(authMW.RequireRecruiter)

	recruiterRoutes.HandleFunc("/jobs", jobHandler.Create).Methods("POST", "OPTIONS")
	recruiterRoutes.HandleFunc("/jobs", jobHandler.List).Methods("GET", "OPTIONS")
	recruiterRoutes.HandleFunc("/jobs/{id}", jobHandler.Get).Methods("GET", "OPTIONS")
	recruiterRoutes.HandleFunc("/jobs/{id}/interviews", jobHandler.Interviews).Methods("GET", "OPTIONS")
	recruiterRoutes.HandleFunc("/jobs/{id}/ranking", jobHandler.Ranking).Methods("GET", "OPTIONS")
	recruiterRoutes.HandleFunc("/interviews/{id}", interviewHandler.Get).Methods("GET", "OPTIONS")
	recruiterRoutes.HandleFunc("/interviews/{id}/report", reportHandler.Get).Methods("GET", "OPTIONS")

	// Candidate routes, bound to the session in the token
	candidateRoutes := v1.NewRoute().Subrouter()
	candidateRoutes.Use(authMW.RequireCandidate)

	candidateRoutes.HandleFunc("/interviews/{id}/answers", interviewHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	candidateRoutes.HandleFunc("/interviews/{id}/question", interviewHandler.NextQuestion).Methods("POST", "OPTIONS")
	candidateRoutes.HandleFunc("/interviews/{id}/complete", interviewHandler.Complete).Methods("POST", "OPTIONS")
	candidateRoutes.HandleFunc("/interviews/{id}/frames", behaviorHandler.Frames).Methods("POST", "OPTIONS")
	candidateRoutes.HandleFunc("/interviews/{id}/snapshots", behaviorHandler.Snapshot).Methods("POST", "OPTIONS")
	candidateRoutes.HandleFunc("/interviews/{id}/signals", behaviorHandler.Signals).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
