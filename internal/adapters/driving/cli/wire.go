package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agora-labs/agora-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/agora-labs/agora-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/agora-labs/agora-cli/internal/adapters/driven/embedding/openai"
	"github.com/agora-labs/agora-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/agora-labs/agora-cli/internal/adapters/driven/llm/ollama"
	"github.com/agora-labs/agora-cli/internal/adapters/driven/storage/blob"
	indexstore "github.com/agora-labs/agora-cli/internal/adapters/driven/storage/index"
	"github.com/agora-labs/agora-cli/internal/adapters/driven/storage/sqlite"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
	"github.com/agora-labs/agora-cli/internal/core/services"
	"github.com/agora-labs/agora-cli/internal/corpus"
	"github.com/agora-labs/agora-cli/internal/extractors/pdf"
	"github.com/agora-labs/agora-cli/internal/extractors/text"
	"github.com/agora-labs/agora-cli/internal/logger"
)

// closers collects resources released by shutdown, in order.
var closers []func() error

// bootstrap assembles the adapter stack and injects the services.
func bootstrap() error {
	dir := dataDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".agora")
	}

	cfg, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore = cfg

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	metadata, err := sqlite.NewStore(dir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	closers = append(closers, metadata.Close)

	blobs, err := blob.NewStore(filepath.Join(dir, "blobs"))
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}

	index, err := indexstore.NewStore(filepath.Join(dir, "structured"))
	if err != nil {
		return fmt.Errorf("opening index store: %w", err)
	}

	cache := corpus.NewCache(corpus.NewLoader(index))
	if watcher, err := corpus.NewWatcher(cache, index.Root()); err != nil {
		logger.Warn("Index watcher unavailable: %v", err)
	} else {
		closers = append(closers, watcher.Close)
	}

	settings := services.ResolveSettings(cfg)

	embedder, err := buildEmbedder(cfg, settings)
	if err != nil {
		return err
	}
	closers = append(closers, embedder.Close)

	llm := buildLLM(cfg, settings)
	if llm != nil {
		closers = append(closers, llm.Close)
	}

	ingestService = services.NewIngestService(metadata, blobs, index, embedder, cache, pdf.New(), text.New())
	queryService = services.NewQueryService(cache, embedder, llm, prompts, settings)
	return nil
}

// buildEmbedder selects the embedding provider from config.
func buildEmbedder(cfg driven.ConfigStore, settings services.Settings) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set (or set embedding.provider to \"ollama\" in %s)", cfg.Path())
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: apiKey,
			Model:  settings.EmbeddingModel,
		})
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.ollama_model"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// buildLLM selects the answer model provider. A missing provider or
// key degrades to evidence-only answers instead of failing.
func buildLLM(cfg driven.ConfigStore, settings services.Settings) driven.LLMService {
	provider := cfg.GetString("llm.provider")
	if provider == "" {
		provider = "anthropic"
	}

	switch provider {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Warn("ANTHROPIC_API_KEY is not set; ask will return sources without a generated answer")
			return nil
		}
		svc, err := anthropic.NewLLMService(anthropic.Config{
			APIKey:      apiKey,
			Models:      settings.LLMModels,
			MaxTokens:   settings.LLMMaxTokens,
			Temperature: settings.LLMTemperature,
		})
		if err != nil {
			logger.Warn("Anthropic unavailable: %v", err)
			return nil
		}
		return svc
	case "ollama":
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL:     cfg.GetString("llm.base_url"),
			Model:       cfg.GetString("llm.ollama_model"),
			MaxTokens:   settings.LLMMaxTokens,
			Temperature: settings.LLMTemperature,
		})
	case "none":
		return nil
	default:
		logger.Warn("Unknown llm provider %q; ask will return sources only", provider)
		return nil
	}
}

// shutdown releases bootstrapped resources.
func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}
	closers = nil
}
