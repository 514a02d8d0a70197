package model

import "time"

// Job is a position candidates interview for
type Job struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	RecruiterID    string    `json:"recruiterId" bson:"recruiterId"`
	Title          string    `json:"title" bson:"title"`
	Company        string    `json:"company" bson:"company"`
	Description    string    `json:"description" bson:"description"`
	SkillsRequired []string  `json:"skillsRequired" bson:"skillsRequired"`
	PassThreshold  float64   `json:"passThreshold" bson:"passThreshold"` // overall score needed to pass
	MaxDepth       int       `json:"maxDepth" bson:"maxDepth"`           // 0 uses the server default
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CreateJobRequest is the request body for creating a job
type CreateJobRequest struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Description    string   `json:"description"`
	SkillsRequired []string `json:"skillsRequired"`
	PassThreshold  float64  `json:"passThreshold"`
	MaxDepth       int      `json:"maxDepth"`
}

// RankingEntry is one completed interview in a job's ranking
type RankingEntry struct {
	SessionID string  `json:"sessionId"`
	Overall   float64 `json:"overall"`
	Rank      int     `json:"rank"`
}
