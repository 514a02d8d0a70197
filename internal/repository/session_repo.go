package repository

import (
	"context"

	"round1/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionRepo handles MongoDB operations for interview sessions
type SessionRepo interface {
	Save(ctx context.Context, session *model.InterviewSession) error
	GetByID(ctx context.Context, id string) (*model.InterviewSession, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.InterviewSession, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("interview_sessions"),
	}
}

// Save upserts the full session document
func (r *sessionRepo) Save(ctx context.Context, session *model.InterviewSession) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, opts)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListByJob(ctx context.Context, jobID string) ([]*model.InterviewSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"jobId": jobID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.InterviewSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
