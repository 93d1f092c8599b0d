// File: internal/app/app.go
package app

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iyunix/go-medrag/internal/config"
	"github.com/iyunix/go-medrag/internal/handlers"
	"github.com/iyunix/go-medrag/internal/repository/document"
	"github.com/iyunix/go-medrag/internal/services"
	"github.com/iyunix/go-medrag/internal/services/ai"
	"github.com/iyunix/go-medrag/internal/services/entities"
	"github.com/iyunix/go-medrag/internal/services/extract"
	"github.com/iyunix/go-medrag/internal/services/labs"
	"github.com/iyunix/go-medrag/internal/services/retrieval"
	"github.com/iyunix/go-medrag/internal/services/textproc"
	"github.com/iyunix/go-medrag/internal/services/vectorstore"
)

const (
	nerTimeout = 30 * time.Second
	ocrTimeout = 2 * time.Minute
)

// Application aggregates the services shared by the server and the CLI.
type Application struct {
	Config    *config.Config
	Logger    services.Logger
	DB        *gorm.DB
	Documents *services.DocumentService
	Store     *vectorstore.Store
	Extractor *extract.Chain

	closers []func() error
}

// InitializeApplication opens storage and wires the ingestion and query pipeline.
func InitializeApplication(cfg *config.Config, logger services.Logger) (*Application, error) {
	a := &Application{Config: cfg, Logger: logger}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = db
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	if err := document.AutoMigrate(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	repo := document.NewDocumentRepository(db)

	provider, err := ai.NewOpenAIProvider(provideAIConfig(cfg), logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.EmbeddingAPIKey == "" || cfg.LLMAPIKey == "" {
		logger.Warn("OpenAI credentials not set; ingestion and answers are unavailable")
	}

	backend, err := a.provideBackend(cfg, db)
	if err != nil {
		a.Close()
		return nil, err
	}
	store, err := vectorstore.NewStore(provider, backend, provideVectorConfig(cfg), logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	orchestrator, err := retrieval.NewOrchestrator(store, repo, provider, provideRetrievalConfig(cfg), logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	comp, err := provideCompensator(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	chunker := textproc.NewChunker(textproc.WithChunkSize(cfg.ChunkSize), textproc.WithOverlap(cfg.ChunkOverlap))
	docs, err := services.NewDocumentService(repo, store, a.provideEntities(cfg, provider, logger), orchestrator, comp, chunker, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Documents = docs

	extractors := []extract.Extractor{extract.NewPlainText()}
	if cfg.OCREndpoint != "" {
		extractors = append(extractors, extract.NewHTTPExtractor(cfg.OCREndpoint, ocrTimeout))
	}
	a.Extractor = extract.NewChain(extractors...)

	logger.Info("application initialized",
		"vector_backend", cfg.VectorBackend,
		"ner", cfg.NEREndpoint != "",
		"ocr", cfg.OCREndpoint != "",
		"template_compensation", cfg.TemplateCompensation)
	return a, nil
}

// NewDocumentHandler builds the HTTP handler over the application's pipeline.
func (a *Application) NewDocumentHandler() (*handlers.DocumentHandler, error) {
	return handlers.NewDocumentHandler(a.Documents, a.Extractor, a.Logger)
}

// Close releases resources in reverse order of acquisition.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.Logger != nil {
			a.Logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func provideAIConfig(cfg *config.Config) *ai.Config {
	aiConfig := ai.DefaultConfig()
	aiConfig.EmbeddingKey = cfg.EmbeddingAPIKey
	aiConfig.EmbeddingBaseURL = cfg.EmbeddingBaseURL
	aiConfig.EmbeddingModel = cfg.EmbeddingModelName
	aiConfig.LLMKey = cfg.LLMAPIKey
	aiConfig.LLMBaseURL = cfg.LLMBaseURL
	aiConfig.EmbeddingTimeout = cfg.EmbeddingTimeout
	aiConfig.SynthesisTimeout = cfg.SynthesisTimeout
	return aiConfig
}

func provideVectorConfig(cfg *config.Config) *vectorstore.Config {
	vc := vectorstore.DefaultConfig()
	vc.Concurrency = cfg.EmbedConcurrency
	vc.APIKey = cfg.PineconeAPIKey
	vc.IndexHost = cfg.PineconeIndexHost
	vc.Namespace = cfg.PineconeNamespace
	return vc
}

func provideRetrievalConfig(cfg *config.Config) *retrieval.Config {
	rc := retrieval.DefaultConfig()
	rc.RetrievalTopK = cfg.RetrievalTopK
	rc.ChatModel = cfg.ChatModel
	rc.Timeout = cfg.SynthesisTimeout
	return rc
}

func (a *Application) provideBackend(cfg *config.Config, db *gorm.DB) (vectorstore.Backend, error) {
	switch cfg.VectorBackend {
	case "pinecone":
		backend, err := vectorstore.NewPineconeBackend(provideVectorConfig(cfg), a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, backend.Close)
		return backend, nil
	case "sqlite", "":
		backend := vectorstore.NewSQLBackend(db)
		if err := backend.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("migrate embeddings: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND %q", cfg.VectorBackend)
	}
}

func provideCompensator(cfg *config.Config, logger services.Logger) (*labs.Compensator, error) {
	table, err := labs.LoadCompensationTable(cfg.CompensationTablePath)
	if err != nil {
		return nil, fmt.Errorf("load compensation table: %w", err)
	}
	return labs.NewCompensator(table, cfg.TemplateCompensation, logger)
}

func (a *Application) provideEntities(cfg *config.Config, provider *ai.OpenAIProvider, logger services.Logger) *entities.Service {
	var local entities.Extractor
	if cfg.NEREndpoint != "" {
		handle := entities.NewModelHandle(entities.HTTPLoader(cfg.NEREndpoint, nerTimeout), logger)
		a.closers = append(a.closers, func() error {
			handle.Close()
			return nil
		})
		local = entities.NewLocalExtractor(handle)
	}
	generative := entities.NewGenerativeExtractor(provider, cfg.ChatModel, logger)
	return entities.NewService(local, generative, logger)
}
