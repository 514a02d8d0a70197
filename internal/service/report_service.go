package service

import (
	"context"
	"errors"

	"round1/internal/model"
	"round1/internal/repository"

	"go.uber.org/zap"
)

var ErrReportNotFound = errors.New("report not found")

// ReportService builds and stores recruiter reports for finished interviews
type ReportService struct {
	reportRepo  repository.ReportRepo
	behaviorSvc *BehaviorService
	log         *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(reportRepo repository.ReportRepo, behaviorSvc *BehaviorService, log *zap.Logger) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		behaviorSvc: behaviorSvc,
		log:         log.Named("report"),
	}
}

// Generate builds the report for session and stores it. Behavior is summarized
// over the whole interview: from this instance's running totals, else the
// session's stored summary, else the last live window.
func (s *ReportService) Generate(ctx context.Context, session *model.InterviewSession) (*model.InterviewReport, error) {
	gen, err := s.behaviorSvc.ReportGenerator(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	live, err := s.behaviorSvc.Live(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	summary := s.behaviorSvc.SessionSummary(session.ID)
	if summary == nil {
		summary = session.LatestSummary
	}
	if summary == nil {
		summary = live.Summary
	}

	report := gen.Generate(session.ID, summary, live.Analytics)
	report.Score = session.Score

	if err := s.reportRepo.Save(ctx, report); err != nil {
		return nil, err
	}
	s.log.Info("report generated",
		zap.String("sessionId", session.ID),
		zap.Int("overall", report.OverallScore),
		zap.String("tier", string(report.Tier)))
	return report, nil
}

// Get retrieves a stored report
func (s *ReportService) Get(ctx context.Context, sessionID string) (*model.InterviewReport, error) {
	report, err := s.reportRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}
