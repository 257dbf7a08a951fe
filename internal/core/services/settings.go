package services

import (
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
)

// Configuration keys recognised in the config file.
const (
	keyEmbeddingModel  = "embedding.model"
	keyTopK            = "retrieval.top_k"
	keyMinScore        = "retrieval.min_score"
	keyMaxContextChars = "retrieval.max_context_chars"
	keyLLMModel        = "llm.model"
	keyLLMFallbacks    = "llm.fallback_models"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyLLMTemperature  = "llm.temperature"
)

// Defaults applied when the config file omits a key.
const (
	DefaultEmbeddingModel  = "text-embedding-3-small"
	DefaultTopK            = 8
	DefaultMaxContextChars = 18000
	DefaultLLMModel        = "claude-3-5-sonnet-latest"
	DefaultLLMFallback     = "claude-3-5-haiku-latest"
	DefaultLLMMaxTokens    = 900
	DefaultLLMTemperature  = 0.2
)

// Settings holds the resolved, validated configuration for retrieval
// and answering. Values outside their accepted range are clamped rather
// than rejected, so a hand-edited config file cannot break the pipeline.
type Settings struct {
	EmbeddingModel  string
	TopK            int
	MinScore        float64
	MaxContextChars int
	LLMModels       []string
	LLMMaxTokens    int
	LLMTemperature  float64
}

// ResolveSettings reads settings from the config store, filling defaults
// and clamping out-of-range values.
func ResolveSettings(cfg driven.ConfigStore) Settings {
	s := Settings{
		EmbeddingModel:  DefaultEmbeddingModel,
		TopK:            DefaultTopK,
		MaxContextChars: DefaultMaxContextChars,
		LLMMaxTokens:    DefaultLLMMaxTokens,
		LLMTemperature:  DefaultLLMTemperature,
	}
	if cfg == nil {
		s.LLMModels = []string{DefaultLLMModel, DefaultLLMFallback}
		return s
	}

	if m := cfg.GetString(keyEmbeddingModel); m != "" {
		s.EmbeddingModel = m
	}
	if k := cfg.GetInt(keyTopK); k != 0 {
		s.TopK = k
	}
	s.TopK = clampInt(s.TopK, 1, 50)

	s.MinScore = clampFloat(cfg.GetFloat(keyMinScore), 0.0, 1.0)

	if c := cfg.GetInt(keyMaxContextChars); c != 0 {
		s.MaxContextChars = c
	}
	s.MaxContextChars = clampInt(s.MaxContextChars, 2000, 100000)

	primary := cfg.GetString(keyLLMModel)
	if primary == "" {
		primary = DefaultLLMModel
	}
	models := []string{primary}
	fallbacks := cfg.GetStringSlice(keyLLMFallbacks)
	if fallbacks == nil {
		fallbacks = []string{DefaultLLMFallback}
	}
	for _, m := range fallbacks {
		if m != "" {
			models = append(models, m)
		}
	}
	s.LLMModels = models

	if t := cfg.GetInt(keyLLMMaxTokens); t != 0 {
		s.LLMMaxTokens = t
	}
	s.LLMMaxTokens = clampInt(s.LLMMaxTokens, 128, 4000)

	if _, ok := cfg.Get(keyLLMTemperature); ok {
		s.LLMTemperature = cfg.GetFloat(keyLLMTemperature)
	}
	s.LLMTemperature = clampFloat(s.LLMTemperature, 0.0, 1.0)

	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
