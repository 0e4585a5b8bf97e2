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

	"github.com/yoockh/floorscreen/config"
	"github.com/yoockh/floorscreen/internal/api/handlers"
	"github.com/yoockh/floorscreen/internal/api/middleware"
	"github.com/yoockh/floorscreen/internal/api/routes"
	"github.com/yoockh/floorscreen/internal/cache"
	"github.com/yoockh/floorscreen/internal/events"
	"github.com/yoockh/floorscreen/internal/interview"
	"github.com/yoockh/floorscreen/internal/logger"
	"github.com/yoockh/floorscreen/internal/metrics"
	"github.com/yoockh/floorscreen/internal/providers/llm"
	"github.com/yoockh/floorscreen/internal/providers/stt"
	"github.com/yoockh/floorscreen/internal/providers/tts"
	mongorepo "github.com/yoockh/floorscreen/internal/repositories/mongo"
	pgrepo "github.com/yoockh/floorscreen/internal/repositories/postgres"
	"github.com/yoockh/floorscreen/internal/services"
	"github.com/yoockh/floorscreen/internal/storage"
	"github.com/yoockh/floorscreen/internal/workers"
)

func main() {
	_ = godotenv.Load()
	log := logger.New("floorscreen")

	settings, err := config.LoadSettings()
	if err != nil {
		log.WithError(err).Fatal("invalid settings")
	}

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("MongoDB index error")
	}
	log.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	if err := config.MigratePostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL migration error")
	}
	log.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	log.Info("Redis connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := interview.DefaultCatalog()
	if err != nil {
		log.WithError(err).Fatal("question catalog error")
	}

	// Providers
	model, err := llm.New(ctx, settings.LLMProvider, llm.Config{
		ProjectID: settings.GCPProjectID,
		Location:  settings.GCPLocation,
		Model:     settings.LLMModel,
		APIKey:    settings.GeminiAPIKey,
	})
	if err != nil {
		log.WithError(err).Fatal("llm provider error")
	}
	defer model.Close()

	recognizer, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.WithError(err).Fatal("speech-to-text init error")
	}
	defer recognizer.Close()

	var speech tts.Provider
	if settings.TTSEnabled {
		g, err := tts.NewGoogleTTS(ctx, settings.TTSVoiceEN, settings.TTSVoiceES)
		if err != nil {
			log.WithError(err).Warn("text-to-speech disabled")
		} else {
			defer g.Close()
			speech = g
		}
	}

	var archiver storage.Archiver
	if settings.AudioBucket != "" {
		u, err := storage.NewGCSUploader(ctx, settings.AudioBucket)
		if err != nil {
			log.WithError(err).Warn("audio archiving disabled")
		} else {
			defer u.Close()
			archiver = u
		}
	}

	// Repositories
	db := config.MongoDatabase()
	sessions := mongorepo.NewSessionRepo(db)
	clips := mongorepo.NewClipRepo(db, settings.AudioTTL)
	candidates := pgrepo.NewCandidateRepo(config.PostgresDB)
	responses := pgrepo.NewResponseRepo(config.PostgresDB)

	publisher := events.NewRedisPublisher(config.RedisClient)
	queue := workers.NewStreamQueue(config.RedisClient, workers.DefaultCompletionStream)

	// Services
	interviews := services.NewInterviewService(services.InterviewDeps{
		Catalog:    catalog,
		Responder:  services.NewInterviewer(model),
		Extractor:  services.NewExtractor(model, log),
		Sessions:   sessions,
		Candidates: candidates,
		Responses:  responses,
		Speech:     speech,
		Cache:      cache.NewRedisCache(config.RedisClient, "floorscreen:"),
		Events:     publisher,
		Queue:      queue,
		ResumeTTL:  settings.ResumeCacheTTL,
		Logger:     log,
	})
	transcriber := services.NewTranscriptionService(recognizer, clips, archiver, log)
	candidateSvc := services.NewCandidateService(candidates, responses, sessions)

	// Background workers
	var pool *workers.CompletionWorkerPool
	if settings.CompletionWorkers > 0 {
		hostname, _ := os.Hostname()
		pool = &workers.CompletionWorkerPool{
			Redis:          config.RedisClient,
			Completer:      interviews,
			NumWorkers:     settings.CompletionWorkers,
			Logger:         log,
			ConsumerPrefix: hostname,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("completion workers error")
		}
	}

	reporter := workers.NewStaleSessionReporter(sessions, settings.StaleSessionAfter, settings.StaleSessionSchedule, log)
	if err := reporter.Start(ctx); err != nil {
		log.WithError(err).Fatal("stale session reporter error")
	}
	defer reporter.Stop()

	// Start Gin server
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Interview: handlers.NewInterviewHandler(interviews, transcriber),
		Candidate: handlers.NewCandidateHandler(candidateSvc),
		WS:        handlers.NewWSHandler(interviews, publisher, settings.AllowedOrigins, log),
		JWT: middleware.JWTConfig{
			Secret:   settings.JWTSecret,
			Issuer:   settings.JWTIssuer,
			Audience: settings.JWTAudience,
		},
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", settings.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown error")
	}
	if pool != nil {
		pool.Wait()
	}
	closeStores(shutdownCtx, log)
}

func closeStores(ctx context.Context, log *logrus.Logger) {
	if err := config.RedisClient.Close(); err != nil {
		log.WithError(err).Warn("redis close error")
	}
	if err := config.MongoClient.Disconnect(ctx); err != nil {
		log.WithError(err).Warn("mongo disconnect error")
	}
	if sqlDB, err := config.PostgresDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
