package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/duihelp/leadgen/internal/config"
)

type observerFake struct {
	retries     []string
	transitions []string
}

func (f *observerFake) ObserveRetry(upstream, operation string) {
	f.retries = append(f.retries, upstream+"/"+operation)
}

func (f *observerFake) ObserveBreakerTransition(upstream, operation, to string) {
	f.transitions = append(f.transitions, upstream+"/"+operation+"->"+to)
}

func TestResilienceConfigMapsSettingsAndHooks(t *testing.T) {
	observer := &observerFake{}
	rc := resilienceConfig(config.Config{
		RetryMaxAttempts:      2,
		RetryInitialBackoffMS: 250,
		BreakerEnabled:        false,
	}, observer)

	if rc.RetryMaxAttempts != 2 || rc.RetryInitialBackoff != 250*time.Millisecond || rc.BreakerEnabled {
		t.Fatalf("unexpected resilience config: %+v", rc)
	}
	rc.OnRetry("embedding", "gemini.embed")
	rc.OnStateChange("embedding", "gemini.embed", "open")
	if len(observer.retries) != 1 || observer.transitions[0] != "embedding/gemini.embed->open" {
		t.Fatalf("hooks not wired: %+v", observer)
	}
}

func TestResilienceConfigWithoutObserver(t *testing.T) {
	rc := resilienceConfig(config.Config{RetryMaxAttempts: 1}, nil)
	if rc.OnRetry != nil || rc.OnStateChange != nil {
		t.Fatalf("expected nil hooks without observer")
	}
	if rc.RetryInitialBackoff <= 0 {
		t.Fatalf("expected default backoff")
	}
}

func TestNewObjectStorageLocal(t *testing.T) {
	storage, err := newObjectStorage(context.Background(), config.Config{StorageType: "local", StoragePath: t.TempDir()})
	if err != nil || storage == nil {
		t.Fatalf("expected local storage, got %v", err)
	}
}

func TestNewObjectStorageRejectsUnknownType(t *testing.T) {
	if _, err := newObjectStorage(context.Background(), config.Config{StorageType: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown storage type")
	}
}

func TestNewLanguageModelsOllama(t *testing.T) {
	embedder, generator, closeFn, err := newLanguageModels(context.Background(), config.Config{
		LLMProvider:       "ollama",
		OllamaURL:         "http://localhost:11434",
		OllamaGenModel:    "llama3.1:8b",
		OllamaEmbedModel:  "nomic-embed-text",
		EmbeddingMaxChars: 8000,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embedder == nil || generator == nil || closeFn() != nil {
		t.Fatalf("expected ollama embedder and generator")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), config.Config{LLMProvider: "openai", StorageType: "local", EmbeddingDimensions: 768}, nil)
	if err == nil {
		t.Fatalf("expected config validation error")
	}
}
