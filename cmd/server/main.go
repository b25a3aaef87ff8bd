package main

import (
	"context"
	"fmt"
	"os"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/batch"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/bus"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/db"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/handlers"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/middleware"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/repos"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/server"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/services"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/sse"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	lessonRepo := repos.NewLessonRepo(thePG, log)
	quizRepo := repos.NewQuizRepo(thePG, log)
	flashcardRepo := repos.NewFlashcardRepo(thePG, log)

	// SSE hub and cross-instance bus
	sseHub := sse.NewHub(log)
	var eventBus bus.Bus
	if os.Getenv("REDIS_ADDR") != "" {
		eventBus, err = bus.NewRedisBus(log)
		if err != nil {
			log.Fatal("Redis bus init failed", "error", err)
		}
		if err := eventBus.StartForwarder(context.Background(), func(m sse.Message) {
			sseHub.Broadcast(m)
		}); err != nil {
			log.Fatal("Redis forwarder init failed", "error", err)
		}
	} else {
		log.Info("REDIS_ADDR not set, running with in-process event hub only")
		eventBus = bus.NewNoopBus()
	}

	// Services
	log.Info("Setting up services...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Fatal("Could not init BucketService", "error", err)
	}

	var aiClient services.AIClient
	if os.Getenv("OPENAI_API_KEY") != "" {
		aiClient, err = services.NewAIClient(log)
		if err != nil {
			log.Fatal("Could not init AIClient", "error", err)
		}
	} else {
		log.Warn("OPENAI_API_KEY not set, lesson generation will use mock content")
	}

	var ttsService services.TTSService
	if os.Getenv("DEEPGRAM_API_KEY") != "" {
		ttsService, err = services.NewTTSService(log)
		if err != nil {
			log.Fatal("Could not init TTSService", "error", err)
		}
	} else {
		log.Warn("DEEPGRAM_API_KEY not set, audio synthesis disabled")
	}

	var speechService services.SpeechService
	speechService, err = services.NewSpeechService(log)
	if err != nil {
		log.Warn("Speech client unavailable, timestamp extraction disabled", "error", err)
		speechService = nil
	}

	audioService := services.NewAudioService(log, ttsService, bucketService, lessonRepo)
	lessonService := services.NewLessonService(log, aiClient, speechService, audioService, lessonRepo)
	quizService := services.NewQuizService(log, aiClient, quizRepo)
	flashcardService := services.NewFlashcardService(log, aiClient, flashcardRepo)
	authService, err := services.NewAuthService(log, userRepo, userTokenRepo)
	if err != nil {
		log.Fatal("Could not init AuthService", "error", err)
	}

	// Batch orchestrator
	sessionStore := batch.NewSessionStore()
	var audioPreparer batch.AudioPreparer
	if ttsService != nil {
		audioPreparer = audioService
	}
	orchestrator := batch.NewOrchestrator(log, lessonService, audioPreparer, sessionStore)

	// Handlers
	log.Info("Setting up handlers...")
	authHandler := handlers.NewAuthHandler(authService)
	lessonHandler := handlers.NewLessonHandler(log, lessonService, audioService, ttsService, orchestrator, sseHub, eventBus)
	quizHandler := handlers.NewQuizHandler(quizService)
	flashcardHandler := handlers.NewFlashcardHandler(flashcardService)
	sseHandler := handlers.NewSSEHandler(sseHub)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	staticDir := ""
	if os.Getenv("GCS_BUCKET_NAME") == "" {
		staticDir = utils.GetEnv("STATIC_DIR", "static", log)
	}
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		LessonHandler:    lessonHandler,
		QuizHandler:      quizHandler,
		FlashcardHandler: flashcardHandler,
		SSEHandler:       sseHandler,
		AllowedOrigins:   utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log),
		StaticDir:        staticDir,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
