package server

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"docqa/app/api"
	"docqa/app/middleware"
	"docqa/config"
	"docqa/loader"
	"docqa/model"
	"docqa/qa"
	"docqa/store"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	app    *fiber.App
	pg     *store.PostgresStore
}

func NewServer(cfg config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: newLogger(cfg),
	}
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("error shutting down server", "error", err)
		}
	}
	if s.pg != nil {
		s.pg.Close()
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()
	slog.SetDefault(s.logger)

	for _, dir := range []string{s.cfg.UploadDir, s.cfg.VectorStoreDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("error creating directory ", dir, ": ", err)
		}
	}

	pg, err := store.NewPostgresStore(ctx, s.cfg.PostgresURL)
	if err != nil {
		log.Fatal("error connecting to Postgres database: ", err)
	}
	s.pg = pg

	if err := pg.Init(ctx, s.cfg.EmbeddingDimensions); err != nil {
		log.Fatal("error creating tables: ", err)
	}

	embedder, generator, err := model.New(s.cfg)
	if err != nil {
		log.Fatal("error building model gateways: ", err)
	}

	var vectors store.VectorStorer
	switch s.cfg.VectorBackend {
	case "pgvector":
		vectors = store.NewPGVectorStore(pg.Pool(), embedder)
	default:
		vectors, err = store.NewFileStore(s.cfg.VectorStoreDir, embedder)
		if err != nil {
			log.Fatal("error creating file vector store: ", err)
		}
	}

	qaService := qa.NewService(s.cfg, vectors, generator, s.logger)

	var (
		app             = fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler})
		checkHandler    = api.NewCheckHandler()
		qaHandler       = api.NewQAHandler(qaService)
		documentHandler = api.NewDocumentHandler(pg, qaService, loader.ExtractText, s.cfg.UploadDir)
		check           = app.Group("/check")
		apiGroup        = app.Group("/api")
	)
	s.app = app

	app.Use(cors.New())
	app.Use(middleware.RequestLogger(s.logger))

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiGroup.Post("/documents/upload", documentHandler.HandleUpload)
	apiGroup.Get("/documents", documentHandler.HandleList)
	apiGroup.Get("/documents/:id", documentHandler.HandleGet)
	apiGroup.Post("/qa/ask", qaHandler.HandleAsk)

	s.logger.Info("server listening", "addr", s.cfg.ServerAddr, "vector_backend", s.cfg.VectorBackend, "provider", s.cfg.Provider)
	if err := app.Listen(s.cfg.ServerAddr); err != nil {
		s.logger.Error("error starting server", "error", err.Error())
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
