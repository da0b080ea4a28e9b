package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/GenyoNguyen/YouTubeLM/internal/clients/cache"
	"github.com/GenyoNguyen/YouTubeLM/internal/clients/embedding"
	"github.com/GenyoNguyen/YouTubeLM/internal/clients/llm"
	"github.com/GenyoNguyen/YouTubeLM/internal/clients/qdrant"
	"github.com/GenyoNguyen/YouTubeLM/internal/clients/rerank"
	"github.com/GenyoNguyen/YouTubeLM/internal/db"
	"github.com/GenyoNguyen/YouTubeLM/internal/handlers"
	"github.com/GenyoNguyen/YouTubeLM/internal/ingestion"
	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/rag"
	"github.com/GenyoNguyen/YouTubeLM/internal/repos"
	"github.com/GenyoNguyen/YouTubeLM/internal/server"
	"github.com/GenyoNguyen/YouTubeLM/internal/services"
	"github.com/GenyoNguyen/YouTubeLM/internal/utils"
)

func main() {
	_ = godotenv.Load()

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
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	videoRepo := repos.NewVideoRepo(thePG, log)
	chunkRepo := repos.NewChunkRepo(thePG, log)
	sessionRepo := repos.NewChatSessionRepo(thePG, log)
	messageRepo := repos.NewChatMessageRepo(thePG, log)
	questionRepo := repos.NewQuizQuestionRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	qdrantCfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		log.Error("Could not resolve Qdrant config", "error", err)
		os.Exit(1)
	}
	vectorStore, err := qdrant.NewVectorStore(log, qdrantCfg)
	if err != nil {
		log.Error("Could not init Qdrant vector store", "error", err)
		os.Exit(1)
	}
	ensureCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := vectorStore.EnsureCollection(ensureCtx); err != nil {
		log.Error("Could not ensure Qdrant collection", "collection", qdrantCfg.Collection, "error", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	embedder, err := embedding.NewEmbedder(log, qdrantCfg.VectorDim)
	if err != nil {
		log.Error("Could not init embedder", "error", err)
		os.Exit(1)
	}
	llmClient, err := llm.NewClient(log)
	if err != nil {
		log.Error("Could not init LLM client", "error", err)
		os.Exit(1)
	}

	var reranker rag.Reranker
	if rerankerURL := os.Getenv("RERANKER_URL"); rerankerURL != "" {
		rerankClient, rerankErr := rerank.NewClient(log, rerankerURL)
		if rerankErr != nil {
			log.Warn("Could not init rerank client; retrieval keeps fused order", "error", rerankErr)
		} else {
			reranker = rag.NewReranker(log, rerankClient)
		}
	}

	var summaryCache cache.SummaryCache
	if os.Getenv("REDIS_ADDR") != "" {
		summaryCache, err = cache.NewSummaryCache(log)
		if err != nil {
			log.Warn("Could not init summary cache; summaries will not be cached", "error", err)
			summaryCache = nil
		}
	} else {
		log.Warn("REDIS_ADDR not set; summaries will not be cached")
	}

	// Downloader + transcriber
	audioDir := utils.GetEnv("AUDIO_DIR", "ingestion_data/audio", log)
	downloader, err := ingestion.NewDownloader(log, audioDir)
	if err != nil {
		log.Error("Could not init downloader", "error", err)
		os.Exit(1)
	}
	transcriber, err := ingestion.NewTranscriber(log)
	if err != nil {
		log.Error("Could not init transcriber", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	ingestSvc, err := ingestion.NewService(log, ingestion.ServiceDeps{
		DB:             thePG,
		VideoRepo:      videoRepo,
		ChunkRepo:      chunkRepo,
		Downloader:     downloader,
		Transcriber:    transcriber,
		Embedder:       embedder,
		Vectors:        vectorStore,
		Summaries:      summaryCache,
		WindowSeconds:  utils.GetEnvAsFloat("CHUNK_WINDOW_SECONDS", ingestion.DefaultChunkWindowSeconds, log),
		OverlapSeconds: utils.GetEnvAsFloat("CHUNK_OVERLAP_SECONDS", ingestion.DefaultChunkOverlapSeconds, log),
	})
	if err != nil {
		log.Error("Could not init ingestion service", "error", err)
		os.Exit(1)
	}

	retriever := rag.NewRetriever(log, chunkRepo, embedder, vectorStore)
	topK := utils.GetEnvAsInt("RETRIEVAL_TOP_K", 10, log)

	sessionSvc := services.NewSessionService(log, sessionRepo, messageRepo)
	qaSvc := services.NewQAService(log, sessionRepo, messageRepo, retriever, reranker, llmClient, topK)
	summarySvc := services.NewVideoSummaryService(log, videoRepo, chunkRepo, sessionRepo, messageRepo, llmClient, summaryCache, 0)
	quizSvc := services.NewQuizService(log, chunkRepo, sessionRepo, questionRepo, llmClient, 0)

	// Handlers
	log.Info("Setting up handlers from main...")
	ingestionHandler := handlers.NewIngestionHandler(log, ingestSvc)
	qaHandler := handlers.NewQAHandler(log, qaSvc, sessionSvc)
	summaryHandler := handlers.NewVideoSummaryHandler(log, summarySvc)
	quizHandler := handlers.NewQuizHandler(log, quizSvc)
	sessionHandler := handlers.NewSessionHandler(log, sessionSvc)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		IngestionHandler:    ingestionHandler,
		QAHandler:           qaHandler,
		VideoSummaryHandler: summaryHandler,
		QuizHandler:         quizHandler,
		SessionHandler:      sessionHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
