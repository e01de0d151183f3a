package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"

	"raglite/app/agent"
	"raglite/app/api"
	"raglite/app/middleware"
	"raglite/extract"
	"raglite/model"
	"raglite/store"
	"raglite/types"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    50 * 1024 * 1024,
}

type Server struct {
	cfg    types.Config
	logger *slog.Logger
	app    *fiber.App
	storer store.Storer
}

func NewServer(cfg types.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("error shutting down server", "error", err)
		}
	}
	if s.storer != nil {
		s.storer.Close()
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	storer, err := newStore(ctx, s.cfg)
	if err != nil {
		log.Fatal("error to initialize store: ", err)
		return
	}
	s.storer = storer

	embedder := model.NewOllamaEmbedder(s.cfg.EmbedURL, s.cfg.EmbedModel, s.cfg.EmbedTimeout)
	llm := agent.New(s.cfg.LLMURL, s.cfg.LLMModel, s.cfg.GenerateTimeout)
	wiki := extract.NewWikipediaClient(s.cfg.WikipediaAPIURL, 0)
	history := store.NewHistory()

	s.app = NewApp(s.cfg, storer, embedder, llm, wiki, history)

	if err := s.app.Listen(s.cfg.ServerAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
	}
}

// NewApp wires routes onto a fiber app. Split out so tests can drive
// the full HTTP surface in-process.
func NewApp(cfg types.Config, storer store.Storer, embedder model.EmbedderInterface, llm *agent.Agent, wiki *extract.WikipediaClient, history *store.History) *fiber.App {
	var (
		app             = fiber.New(config)
		checkHandler    = api.NewCheckHandler(storer, history)
		requestHandler  = api.NewRequestHandler(storer, embedder, llm, history, cfg)
		documentHandler = api.NewDocumentHandler(storer, embedder, wiki, cfg)
		historyHandler  = api.NewHistoryHandler(history)
		check           = app.Group("/check")
		apiv1           = app.Group("/api/v1")
	)

	app.Use(middleware.RequestLogger(slog.Default()))

	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1.Post("/documents", documentHandler.HandleUpload)
	apiv1.Post("/documents/wikipedia", documentHandler.HandleWikipedia)
	apiv1.Get("/documents", documentHandler.HandleList)
	apiv1.Delete("/documents", documentHandler.HandleClear)
	apiv1.Delete("/documents/:id", documentHandler.HandleDelete)

	apiv1.Post("/query", requestHandler.HandleQuery)
	apiv1.Post("/summarize", requestHandler.HandleSummarize)

	apiv1.Get("/history", historyHandler.HandleList)
	apiv1.Delete("/history", historyHandler.HandleClear)

	apiv1.Get("/status", checkHandler.HandleStatus)
	apiv1.Post("/maintenance/compact", documentHandler.HandleCompact)

	return app
}

func newStore(ctx context.Context, cfg types.Config) (store.Storer, error) {
	switch cfg.StoreBackend {
	case "postgres":
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			os.Getenv("PG_HOST"), os.Getenv("PG_PORT"), os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
		pool, err := store.NewPostgresStore(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("connect to Postgres: %w", err)
		}
		if err := pool.Init(ctx); err != nil {
			return nil, fmt.Errorf("create tables: %w", err)
		}
		return pool, nil
	case "flat", "":
		return store.NewFlatStore(cfg.IndexPath, cfg.MetadataPath), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
