package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig points at an OpenAI-compatible provider endpoint.
type LLMConfig struct {
	BaseURL     string `yaml:"base_url"`
	Key         string `yaml:"key"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// BoostConfig holds the heuristic score increments. Their exact values are
// tunables; only the direction (positive) matters for correctness.
type BoostConfig struct {
	Technical  float64 `yaml:"technical"`
	Wiring     float64 `yaml:"wiring"`
	Safety     float64 `yaml:"safety"`
	PartNumber float64 `yaml:"part_number"`
	Recency    float64 `yaml:"recency"`
}

// RAGConfig configures chunking, scoring and context assembly.
type RAGConfig struct {
	ChunkSize           int         `yaml:"chunk_size"`
	ChunkOverlap        int         `yaml:"chunk_overlap"`
	TopK                int         `yaml:"top_k"`
	SimilarityThreshold float64     `yaml:"similarity_threshold"`
	RecencyWindowMins   int         `yaml:"recency_window_mins"`
	MaxContextChars     int         `yaml:"max_context_chars"`
	Boosts              BoostConfig `yaml:"boosts"`
}

func (c RAGConfig) RecencyWindow() time.Duration {
	return time.Duration(c.RecencyWindowMins) * time.Minute
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type EmbeddingConfig struct {
	BaseURL     string `yaml:"base_url"`
	Key         string `yaml:"key"`
	Model       string `yaml:"model"`
	MaxChars    int    `yaml:"max_chars"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

func (c EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	RAG      RAGConfig       `yaml:"rag"`
	Embed    EmbeddingConfig `yaml:"embedding"`
	InferLLM LLMConfig       `yaml:"inference"`
}

// LoadConfig reads a yaml config from path. A missing file yields defaults so
// the service can run against local providers with no config at all.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		RAG: RAGConfig{
			ChunkSize:           1000,
			ChunkOverlap:        200,
			TopK:                5,
			SimilarityThreshold: 0.30,
			RecencyWindowMins:   10,
			MaxContextChars:     8000,
			Boosts: BoostConfig{
				Technical:  0.10,
				Wiring:     0.15,
				Safety:     0.10,
				PartNumber: 0.05,
				Recency:    0.05,
			},
		},
		Embed: EmbeddingConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "text-embedding-3-small",
			MaxChars:    8000,
			TimeoutSecs: 30,
		},
		InferLLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "openai/gpt-4o-mini",
			TimeoutSecs: 60,
		},
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = def.RAG.ChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = def.RAG.ChunkOverlap
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = def.RAG.TopK
	}
	if cfg.RAG.SimilarityThreshold == 0 {
		cfg.RAG.SimilarityThreshold = def.RAG.SimilarityThreshold
	}
	if cfg.RAG.RecencyWindowMins == 0 {
		cfg.RAG.RecencyWindowMins = def.RAG.RecencyWindowMins
	}
	if cfg.RAG.MaxContextChars == 0 {
		cfg.RAG.MaxContextChars = def.RAG.MaxContextChars
	}
	if cfg.RAG.Boosts == (BoostConfig{}) {
		cfg.RAG.Boosts = def.RAG.Boosts
	}
	if cfg.Embed.BaseURL == "" {
		cfg.Embed.BaseURL = def.Embed.BaseURL
	}
	if cfg.Embed.Model == "" {
		cfg.Embed.Model = def.Embed.Model
	}
	if cfg.Embed.MaxChars == 0 {
		cfg.Embed.MaxChars = def.Embed.MaxChars
	}
	if cfg.Embed.TimeoutSecs == 0 {
		cfg.Embed.TimeoutSecs = def.Embed.TimeoutSecs
	}
	if cfg.InferLLM.BaseURL == "" {
		cfg.InferLLM.BaseURL = def.InferLLM.BaseURL
	}
	if cfg.InferLLM.Model == "" {
		cfg.InferLLM.Model = def.InferLLM.Model
	}
	if cfg.InferLLM.TimeoutSecs == 0 {
		cfg.InferLLM.TimeoutSecs = def.InferLLM.TimeoutSecs
	}
}

// applyEnv lets credentials live outside the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.Embed.Key = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.InferLLM.Key = v
	}
	if v := os.Getenv("EMBEDDING_BASE_URL"); v != "" {
		cfg.Embed.BaseURL = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.InferLLM.BaseURL = v
	}
}
