package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"round1/internal/cache"
	"round1/internal/config"
	"round1/internal/logging"
	"round1/internal/repository"
	"round1/internal/service"
	"round1/internal/transport/rest"
	"round1/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

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

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	log.Info("AI config",
		zap.String("questionModel", cfg.AI.Models.Question),
		zap.String("scoringModel", cfg.AI.Models.Scoring),
		zap.Bool("gemini", cfg.AI.IsEnabled()),
		zap.Bool("roboflow", cfg.Classifier.IsEnabled()),
	)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("ping MongoDB: %w", err)
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	db := mongoClient.Database(cfg.Mongo.Database)

	rdb := redis.NewClient(&redis.Options{
		Addr:     strings.TrimPrefix(cfg.Redis.Addr, "redis://"),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping Redis: %w", err)
	}
	log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	wsHub := ws.NewHub(log)
	defer wsHub.Stop()

	// Repositories
	jobRepo := repository.NewJobRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	reportRepo := repository.NewReportRepo(db)

	// Caches
	sessionCache := cache.NewSessionCache(rdb)
	rankingCache := cache.NewRankingCache(rdb)
	analyticsCache := cache.NewAnalyticsCache(rdb)

	// Services
	authSvc := service.NewAuthService(cfg.Auth)
	jobSvc := service.NewJobService(jobRepo, cfg.Interview.PassThreshold)
	classifier := service.NewImpressionClassifier(cfg.Classifier, log)
	behaviorSvc := service.NewBehaviorService(cfg.Behavior, classifier, analyticsCache, log)
	reportSvc := service.NewReportService(reportRepo, behaviorSvc, log)
	questions, scorer := service.NewInterviewAI(cfg.AI, log)
	interviewSvc := service.NewInterviewService(
		jobRepo, sessionRepo, sessionCache, rankingCache,
		questions, scorer, behaviorSvc, reportSvc, authSvc,
		cfg.Interview, log,
	)

	// wsHub implements service.Broadcaster
	behaviorSvc.SetBroadcaster(wsHub)
	interviewSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:        authSvc,
		JobService:         jobSvc,
		InterviewService:   interviewSvc,
		BehaviorService:    behaviorSvc,
		ReportService:      reportSvc,
		WSHub:              wsHub,
		Logger:             log,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
