package repository

import (
	"context"
	"time"

	"round1/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JobRepo handles MongoDB operations for jobs
type JobRepo interface {
	Create(ctx context.Context, job *model.Job) (string, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	GetByRecruiterID(ctx context.Context, recruiterID string) ([]*model.Job, error)
}

type jobRepo struct {
	collection *mongo.Collection
}

// NewJobRepo creates a new job repository
func NewJobRepo(db *mongo.Database) JobRepo {
	return &jobRepo{
		collection: db.Collection("jobs"),
	}
}

func (r *jobRepo) Create(ctx context.Context, job *model.Job) (string, error) {
	if job.ID == "" {
		job.ID = "job_" + uuid.NewString()
	}
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt

	if _, err := r.collection.InsertOne(ctx, job); err != nil {
		return "", err
	}
	return job.ID, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) GetByRecruiterID(ctx context.Context, recruiterID string) ([]*model.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"recruiterId": recruiterID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []*model.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
