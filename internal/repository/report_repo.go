package repository

import (
	"context"

	"round1/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepo handles MongoDB operations for interview reports
type ReportRepo interface {
	Save(ctx context.Context, report *model.InterviewReport) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.InterviewReport, error)
}

type reportRepo struct {
	reports *mongo.Collection
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		reports: db.Collection("interview_reports"),
	}
}

func (r *reportRepo) Save(ctx context.Context, report *model.InterviewReport) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.reports.ReplaceOne(ctx, bson.M{"_id": report.SessionID}, report, opts)
	return err
}

func (r *reportRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.InterviewReport, error) {
	var report model.InterviewReport
	err := r.reports.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
