package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hireflow/interviewer/config"
	"github.com/hireflow/interviewer/internal/api/handlers"
	"github.com/hireflow/interviewer/internal/api/middleware"
	"github.com/hireflow/interviewer/internal/api/routes"
	"github.com/hireflow/interviewer/internal/cache"
	"github.com/hireflow/interviewer/internal/logger"
	"github.com/hireflow/interviewer/internal/metrics"
	"github.com/hireflow/interviewer/internal/providers/llm"
	"github.com/hireflow/interviewer/internal/providers/stt"
	mongorepo "github.com/hireflow/interviewer/internal/repositories/mongo"
	pgrepo "github.com/hireflow/interviewer/internal/repositories/postgres"
	"github.com/hireflow/interviewer/internal/services"
	"github.com/hireflow/interviewer/internal/storage"
	"github.com/hireflow/interviewer/internal/workers"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	cfg, err := config.LoadServer()
	if err != nil {
		log.WithError(err).Fatal("config error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	defer func() { _ = config.MongoClient.Disconnect(context.Background()) }()
	mdb := config.MongoDatabase(cfg.MongoDB)
	if err := config.EnsureMongoIndexes(mdb); err != nil {
		log.WithError(err).Fatal("MongoDB index error")
	}
	log.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	if err := config.Migrate(config.PostgresDB); err != nil {
		log.WithError(err).Fatal("PostgreSQL migrate error")
	}
	log.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	defer config.RedisClient.Close()
	log.Info("Redis connected")

	// Repositories
	sessionRepo := mongorepo.NewInterviewRepo(mdb)
	answerRepo := mongorepo.NewAnswerRepo(mdb)
	userRepo := pgrepo.NewUserRepo(config.PostgresDB)
	questionRepo := pgrepo.NewQuestionRepo(config.PostgresDB)
	resultRepo := pgrepo.NewResultRepo(config.PostgresDB)
	feedbackRepo := pgrepo.NewFeedbackRepo(config.PostgresDB)

	if err := questionRepo.SeedDefaults(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed default questions")
	}

	// Providers (optional outside GCP)
	var uploader storage.Uploader
	var downloader storage.Downloader
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			log.WithError(err).Fatal("GCS init error")
		}
		defer gcs.Close()
		uploader, downloader = gcs, gcs
	}

	var sttProvider stt.Provider
	var llmProvider llm.Provider
	if cfg.GCPProject != "" {
		speech, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.WithError(err).Fatal("Speech-to-Text init error")
		}
		defer speech.Close()
		sttProvider = speech

		gemini, err := llm.NewVertexGemini(ctx, cfg.GCPProject, cfg.GCPLocation, cfg.LLMModel)
		if err != nil {
			log.WithError(err).Warn("Vertex AI unavailable, answers will not get reviewer notes")
		} else {
			defer gemini.Close()
			llmProvider = gemini
		}
	}

	// Services
	questionSvc := services.NewQuestionService(questionRepo, cache.NewRedisCache(config.RedisClient, "hireflow:"), 10*time.Minute, log)
	interviewSvc := services.NewInterviewService(sessionRepo, answerRepo, resultRepo, feedbackRepo, questionSvc, nil)
	analysisSvc := services.NewAnalysisService(answerRepo, config.RedisClient, uploader, log)
	feedbackSvc := services.NewFeedbackService(feedbackRepo, resultRepo, nil)
	authSvc := services.NewAuthService(userRepo, services.AuthConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		TokenTTL: cfg.TokenTTL,
	}, log, nil)

	if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPass); err != nil {
		log.WithError(err).Fatal("failed to ensure admin account")
	}

	// Background workers
	if sttProvider != nil {
		pool := &workers.AnalysisWorkerPool{
			Redis:      config.RedisClient,
			Answers:    answerRepo,
			Questions:  questionSvc,
			NumWorkers: cfg.Workers,
			STT:        sttProvider,
			LLM:        llmProvider,
			Store:      downloader,
			Logger:     log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("failed to start analysis workers")
		}
		log.WithField("workers", cfg.Workers).Info("analysis workers started")
	} else {
		log.Warn("GCP_PROJECT not set, recordings are queued but not transcribed")
	}

	// Gin
	r := gin.New()
	r.Use(middleware.RequestLogger(log), metrics.Middleware(), gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      handlers.NewAuthHandler(authSvc),
		Interview: handlers.NewInterviewHandler(interviewSvc, questionSvc, analysisSvc, cfg.Language),
		Admin:     handlers.NewAdminHandler(feedbackSvc, interviewSvc),
		WS:        handlers.NewWSHandler(sessionRepo, config.RedisClient, cfg.Origins),
		JWTSecret: []byte(cfg.JWTSecret),
		JWTIssuer: cfg.JWTIssuer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("interview api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithFields(logrus.Fields{"error": err.Error()}).Error("graceful shutdown failed")
	}
}
