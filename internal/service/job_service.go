package service

import (
	"context"
	"errors"
	"strings"

	"round1/internal/model"
	"round1/internal/repository"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrInvalidJob  = errors.New("job title and description are required")
	ErrNotJobOwner = errors.New("job belongs to another recruiter")
)

// JobService handles job CRUD operations
type JobService struct {
	jobRepo          repository.JobRepo
	defaultThreshold float64
}

// NewJobService creates a new job service
func NewJobService(jobRepo repository.JobRepo, defaultThreshold float64) *JobService {
	return &JobService{
		jobRepo:          jobRepo,
		defaultThreshold: defaultThreshold,
	}
}

// Create validates and stores a new job for recruiterID
func (s *JobService) Create(ctx context.Context, recruiterID string, req *model.CreateJobRequest) (*model.Job, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, ErrInvalidJob
	}
	threshold := req.PassThreshold
	if threshold <= 0 || threshold > 100 {
		threshold = s.defaultThreshold
	}

	job := &model.Job{
		RecruiterID:    recruiterID,
		Title:          strings.TrimSpace(req.Title),
		Company:        strings.TrimSpace(req.Company),
		Description:    req.Description,
		SkillsRequired: req.SkillsRequired,
		PassThreshold:  threshold,
		MaxDepth:       req.MaxDepth,
	}
	if _, err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetByID retrieves a job, ErrJobNotFound when missing
func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// GetOwned retrieves a job and checks it belongs to recruiterID
func (s *JobService) GetOwned(ctx context.Context, id, recruiterID string) (*model.Job, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, ErrNotJobOwner
	}
	return job, nil
}

// GetByRecruiterID retrieves all jobs for a recruiter
func (s *JobService) GetByRecruiterID(ctx context.Context, recruiterID string) ([]*model.Job, error) {
	return s.jobRepo.GetByRecruiterID(ctx, recruiterID)
}
