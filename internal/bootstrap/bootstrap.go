package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/duihelp/leadgen/internal/config"
	"github.com/duihelp/leadgen/internal/core/ports"
	"github.com/duihelp/leadgen/internal/core/usecase"
	"github.com/duihelp/leadgen/internal/infrastructure/chunking"
	"github.com/duihelp/leadgen/internal/infrastructure/extractor"
	"github.com/duihelp/leadgen/internal/infrastructure/llm/gemini"
	"github.com/duihelp/leadgen/internal/infrastructure/llm/ollama"
	"github.com/duihelp/leadgen/internal/infrastructure/queue/nats"
	"github.com/duihelp/leadgen/internal/infrastructure/repository/postgres"
	"github.com/duihelp/leadgen/internal/infrastructure/resilience"
	"github.com/duihelp/leadgen/internal/infrastructure/storage/localfs"
	"github.com/duihelp/leadgen/internal/infrastructure/storage/s3"
)

// UpstreamObserver receives retry and circuit breaker events. Both metric
// registries implement it.
type UpstreamObserver interface {
	ObserveRetry(upstream, operation string)
	ObserveBreakerTransition(upstream, operation, to string)
}

type App struct {
	Config config.Config

	Queue         ports.MessageQueue
	Documents     ports.DocumentRepository
	Jurisdictions ports.JurisdictionRepository

	AskUC       ports.QuestionAnswerer
	SearchUC    ports.KnowledgeSearcher
	LeadUC      ports.LeadSubmitter
	DirectoryUC ports.JurisdictionDirectory
	IngestUC    ports.DocumentIngestor
	ProcessUC   ports.DocumentProcessor

	closers []func() error
}

// OpenDatabase connects to Postgres and applies the schema.
func OpenDatabase(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db, cfg.EmbeddingDimensions); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func New(ctx context.Context, cfg config.Config, observer UpstreamObserver) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{Config: cfg}
	if err := app.wire(ctx, observer); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context, observer UpstreamObserver) error {
	cfg := a.Config

	db, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, db.Close)

	executor := resilience.NewExecutor(resilienceConfig(cfg, observer))

	storage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSDocumentsSubject, nats.Options{
		LeadSubject:        cfg.NATSLeadsSubject,
		ResilienceExecutor: executor,
	})
	if err != nil {
		return fmt.Errorf("init message queue: %w", err)
	}
	a.closers = append(a.closers, func() error {
		queue.Close()
		return nil
	})

	embedder, generator, closeLLM, err := newLanguageModels(ctx, cfg, executor)
	if err != nil {
		return fmt.Errorf("init language model: %w", err)
	}
	a.closers = append(a.closers, closeLLM)

	documents := postgres.NewDocumentRepository(db)
	jurisdictions := postgres.NewJurisdictionRepository(db)
	leads := postgres.NewLeadRepository(db)
	store := postgres.NewKnowledgeStore(db, cfg.StoreTimeout())

	retriever := usecase.NewRetriever(embedder, store, cfg.RAGTopK, cfg.RAGSimilarityThreshold)

	a.Queue = queue
	a.Documents = documents
	a.Jurisdictions = jurisdictions

	a.AskUC = usecase.NewAskUseCase(retriever, usecase.NewSynthesizer(generator), jurisdictions)
	a.SearchUC = usecase.NewSearchUseCase(retriever, store, jurisdictions)
	a.LeadUC = usecase.NewLeadIntakeUseCase(jurisdictions, leads, queue)
	a.DirectoryUC = usecase.NewDirectoryUseCase(jurisdictions)
	a.IngestUC = usecase.NewIngestDocumentUseCase(documents, jurisdictions, storage, queue)
	a.ProcessUC = usecase.NewProcessDocumentUseCase(
		documents,
		extractor.New(storage),
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		store,
	)
	return nil
}

func resilienceConfig(cfg config.Config, observer UpstreamObserver) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.RetryMaxAttempts
	if backoff := cfg.RetryInitialBackoff(); backoff > 0 {
		rc.RetryInitialBackoff = backoff
	}
	rc.BreakerEnabled = cfg.BreakerEnabled
	if observer != nil {
		rc.OnRetry = observer.ObserveRetry
		rc.OnStateChange = observer.ObserveBreakerTransition
	}
	return rc
}

func newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch cfg.StorageType {
	case "s3":
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Prefix:    cfg.S3Prefix,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
	case "local":
		return localfs.New(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.StorageType)
	}
}

func newLanguageModels(
	ctx context.Context,
	cfg config.Config,
	executor *resilience.Executor,
) (ports.Embedder, ports.AnswerGenerator, func() error, error) {
	switch cfg.LLMProvider {
	case "gemini":
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiGenModel, cfg.GeminiEmbedModel, gemini.Options{
			EmbedTimeout:       cfg.EmbedTimeout(),
			GenerateTimeout:    cfg.SynthesisTimeout(),
			EmbedMaxChars:      cfg.EmbeddingMaxChars,
			Dimensions:         cfg.EmbeddingDimensions,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("llm_provider_selected", "provider", "gemini", "gen_model", cfg.GeminiGenModel, "embed_model", cfg.GeminiEmbedModel)
		return gemini.NewEmbedder(client), gemini.NewGenerator(client), client.Close, nil
	case "ollama":
		client := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
			EmbedTimeout:       cfg.EmbedTimeout(),
			GenerateTimeout:    cfg.SynthesisTimeout(),
			EmbedMaxChars:      cfg.EmbeddingMaxChars,
			Dimensions:         cfg.EmbeddingDimensions,
			ResilienceExecutor: executor,
		})
		slog.Info("llm_provider_selected", "provider", "ollama", "gen_model", cfg.OllamaGenModel, "embed_model", cfg.OllamaEmbedModel)
		return ollama.NewEmbedder(client), ollama.NewGenerator(client), func() error { return nil }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		slog.Warn("shutdown_close_failed", "error", err)
	}
}
