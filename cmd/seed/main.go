package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"round1/internal/config"
	"round1/internal/logging"
	"round1/internal/model"
	"round1/internal/repository"
	"round1/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var demoJobs = []model.Job{
	{
		ID:             "job_demo_frontend",
		Title:          "Frontend Engineer",
		Company:        "Acme Corp",
		Description:    "Build and maintain our customer dashboard in React and TypeScript.",
		SkillsRequired: []string{"JavaScript", "React", "CSS", "Testing"},
		PassThreshold:  70,
		MaxDepth:       5,
	},
	{
		ID:             "job_demo_backend",
		Title:          "Backend Engineer",
		Company:        "Acme Corp",
		Description:    "Design APIs and data pipelines for a high traffic Node.js platform.",
		SkillsRequired: []string{"Node.js", "Python", "SQL", "Docker"},
		PassThreshold:  75,
		MaxDepth:       6,
	},
	{
		ID:             "job_demo_pm",
		Title:          "Product Manager",
		Description:    "Own the roadmap for the hiring tools team and work closely with engineering.",
		SkillsRequired: []string{"Agile", "Communication", "Roadmapping"},
		PassThreshold:  65,
		MaxDepth:       4,
	},
}

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.Init(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(ctx)

	// Jobs belong to the configured recruiter so they show up after login.
	login, err := service.NewAuthService(cfg.Auth).Login(cfg.Auth.RecruiterUsername, cfg.Auth.RecruiterPassword)
	if err != nil {
		log.Fatal("failed to resolve recruiter", zap.Error(err))
	}

	jobRepo := repository.NewJobRepo(client.Database(cfg.Mongo.Database))
	for i := range demoJobs {
		job := demoJobs[i]
		job.RecruiterID = login.RecruiterID

		id, err := jobRepo.Create(ctx, &job)
		if mongo.IsDuplicateKeyError(err) {
			log.Info("job already seeded", zap.String("id", job.ID))
			continue
		}
		if err != nil {
			log.Fatal("failed to insert job", zap.String("id", job.ID), zap.Error(err))
		}
		log.Info("seeded job", zap.String("id", id), zap.String("title", job.Title))
	}
}
