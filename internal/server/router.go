package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/handlers"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/middleware"
)

type RouterConfig struct {
	AuthHandler      *handlers.AuthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	LessonHandler    *handlers.LessonHandler
	QuizHandler      *handlers.QuizHandler
	FlashcardHandler *handlers.FlashcardHandler
	SSEHandler       *handlers.SSEHandler

	// AllowedOrigins is comma-separated; empty falls back to local dev hosts.
	AllowedOrigins string
	// StaticDir, when set, serves stored audio assets at /static.
	StaticDir string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.StaticDir != "" {
		router.Static("/static", cfg.StaticDir)
	}

	api := router.Group("/api")

	// Auth
	api.POST("/auth/register", cfg.AuthHandler.Register)
	api.POST("/auth/login", cfg.AuthHandler.Login)
	api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
	api.POST("/auth/logout", cfg.AuthHandler.Logout)

	// The generation pipeline works anonymously; a valid token attaches
	// ownership to the created records.
	open := api.Group("/")
	open.Use(cfg.AuthMiddleware.OptionalAuth())
	{
		open.POST("/lessons/generate", cfg.LessonHandler.Generate)
		open.POST("/lessons/generate/batch", cfg.LessonHandler.GenerateBatch)
		open.GET("/lessons", cfg.LessonHandler.List)
		open.GET("/lessons/:id", cfg.LessonHandler.Get)
		open.POST("/lessons/:id/audio", cfg.LessonHandler.EnsureAudio)
		open.GET("/lessons/:id/audio/stream", cfg.LessonHandler.StreamAudio)
		open.GET("/lessons/:id/audio/manifest", cfg.LessonHandler.AudioManifest)
		open.POST("/lessons/:id/timestamps", cfg.LessonHandler.ExtractTimestamps)
		open.GET("/lessons/:id/quizzes", cfg.QuizHandler.ListByLesson)
		open.GET("/lessons/:id/flashcards", cfg.FlashcardHandler.ListByLesson)

		open.POST("/quizzes/generate", cfg.QuizHandler.Generate)
		open.GET("/quizzes/:id", cfg.QuizHandler.Get)

		open.POST("/flashcards/generate", cfg.FlashcardHandler.Generate)

		open.GET("/sse/stream", cfg.SSEHandler.Stream)
	}

	// Mutations on owned records require auth.
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.DELETE("/lessons/:id", cfg.LessonHandler.Delete)
		protected.DELETE("/quizzes/:id", cfg.QuizHandler.Delete)
		protected.GET("/flashcards/due", cfg.FlashcardHandler.ListDue)
		protected.POST("/flashcards/:id/review", cfg.FlashcardHandler.Review)
		protected.DELETE("/flashcards/:id", cfg.FlashcardHandler.Delete)
	}

	return router
}
