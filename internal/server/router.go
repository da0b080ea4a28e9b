package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GenyoNguyen/YouTubeLM/internal/handlers"
)

type RouterConfig struct {
	IngestionHandler    *handlers.IngestionHandler
	QAHandler           *handlers.QAHandler
	VideoSummaryHandler *handlers.VideoSummaryHandler
	QuizHandler         *handlers.QuizHandler
	SessionHandler      *handlers.SessionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Ingestion
		api.POST("/ingestion/video", cfg.IngestionHandler.Ingest)
		api.DELETE("/ingestion/video/:video_id", cfg.IngestionHandler.Remove)
		// QA
		api.POST("/qa/ask", cfg.QAHandler.Ask)
		api.POST("/qa/followup", cfg.QAHandler.Followup)
		api.GET("/qa/history/:session_id", cfg.QAHandler.History)
		// Summaries
		api.POST("/video-summary/summarize", cfg.VideoSummaryHandler.Summarize)
		api.GET("/video-summary/videos", cfg.VideoSummaryHandler.ListVideos)
		// Quiz
		api.POST("/quiz/generate", cfg.QuizHandler.Generate)
		api.GET("/quiz/session/:session_id", cfg.QuizHandler.GetBySession)
		// Sessions
		api.POST("/sessions", cfg.SessionHandler.Create)
		api.GET("/sessions", cfg.SessionHandler.List)
		api.GET("/sessions/:session_id", cfg.SessionHandler.Get)
		api.DELETE("/sessions/:session_id", cfg.SessionHandler.Delete)
	}

	return router
}
