package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"admissionbot/config"
	"admissionbot/db"
	"admissionbot/handlers"
	"admissionbot/metrics"
	"admissionbot/models"
	"admissionbot/services"
	"admissionbot/services/agent"
	"admissionbot/services/catalog"
	"admissionbot/services/chat"
	"admissionbot/services/curriculum"
	"admissionbot/services/retrieval"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.AnthropicAPIKey == "" {
		log.Fatal("ANTHROPIC_API_KEY environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	courseCatalog := loadCatalog(ctx, cfg)

	docs, err := db.NewFileDocumentRepository(cfg.DocPaths).LoadDocuments(ctx)
	if err != nil {
		log.Fatalf("Failed to load program documents: %v", err)
	}

	backend, err := newRetrievalBackend(ctx, cfg, docs)
	if err != nil {
		log.Fatalf("Failed to initialize %s retrieval: %v", cfg.RetrievalBackend, err)
	}

	var oracle curriculum.Oracle
	if cfg.OpenAIAPIKey != "" {
		llmOracle, err := curriculum.NewOpenAIOracle(cfg.OpenAIAPIKey, cfg.OracleModel, cfg.OracleTemperature, cfg.OracleTimeout)
		if err != nil {
			log.Fatalf("Failed to initialize ranking oracle: %v", err)
		}
		oracle = llmOracle
	} else {
		log.Printf("[WARN] OPENAI_API_KEY is not set, study plans will use catalog order")
	}

	conversations, err := services.NewConversationService(services.ConversationOptions{
		Retention:      cfg.MemoryRetention,
		WindowSize:     cfg.MemoryWindow,
		ReturnMessages: cfg.MemoryReturnMessages,
	}, m)
	if err != nil {
		log.Fatalf("Failed to initialize conversation store: %v", err)
	}

	curriculumService := curriculum.NewService(courseCatalog, oracle, m)

	tools := []agent.AgentTool{
		agent.NewRetrieverTool(backend, cfg.RetrievalK),
		agent.NewCoursesRecommenderTool(curriculumService),
	}
	agentService := agent.NewService(cfg.AnthropicAPIKey, tools, agent.Options{
		Model:    cfg.AgentModel,
		MaxSteps: cfg.AgentMaxSteps,
	}, m)

	chatService := chat.NewService(agentService, conversations, m)
	commands := handlers.NewCommandRouter(chatService, conversations)

	router := mux.NewRouter()

	router.Use(handlers.RecoveryMiddleware)
	router.Use(handlers.CorsMiddleware)

	handlers.NewChatHandler(commands, conversations).RegisterRoutes(router)

	router.HandleFunc("/health", handlers.HealthCheckHandler).Methods("GET")
	router.Handle("/metrics", m.Handler()).Methods("GET")

	if cfg.MatrixEnabled() {
		gateway, err := handlers.NewMatrixGateway(cfg.MatrixHomeserver, cfg.MatrixUserID, cfg.MatrixAccessToken, commands)
		if err != nil {
			log.Fatalf("Failed to initialize matrix gateway: %v", err)
		}
		go func() {
			if err := gateway.Run(ctx, cfg.MatrixRooms); err != nil {
				log.Printf("[ERROR] Matrix gateway stopped: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[ERROR] Server shutdown failed: %v", err)
		}
	}()

	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed to start: %v", err)
	}

	log.Printf("[INFO] Server stopped")
}

// loadCatalog never fails: without courses the recommender tool reports that
// no courses were found and everything else keeps working.
func loadCatalog(ctx context.Context, cfg *config.Config) *catalog.Catalog {
	var repo db.CatalogRepository = db.NewFileCatalogRepository(cfg.CatalogPaths)

	if cfg.CatalogDatabaseURL != "" {
		pgRepo, err := db.NewPostgresCatalogRepository(cfg.CatalogDatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize catalog database: %v", err)
		}
		defer pgRepo.Close()
		repo = pgRepo
	}

	courseCatalog, err := catalog.Load(ctx, repo)
	if err != nil {
		log.Printf("[ERROR] Failed to load course catalog, continuing without courses: %v", err)
		return catalog.New(nil)
	}
	return courseCatalog
}

func newRetrievalBackend(ctx context.Context, cfg *config.Config, docs []models.Document) (retrieval.Backend, error) {
	switch cfg.RetrievalBackend {
	case config.RetrievalChromem, config.RetrievalPinecone:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for embedding search")
		}
		embedder, err := retrieval.NewOpenAIEmbedder(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, err
		}

		if cfg.RetrievalBackend == config.RetrievalPinecone {
			if cfg.PineconeAPIKey == "" {
				return nil, errors.New("PINECONE_API_KEY is required for pinecone retrieval")
			}
			return retrieval.NewPineconeBackend(cfg.PineconeAPIKey, cfg.PineconeIndexName, embedder)
		}
		return retrieval.NewChromemBackend(ctx, docs, retrieval.EmbeddingFunc(embedder), runtime.NumCPU())
	default:
		return retrieval.NewKeywordBackend(docs), nil
	}
}
