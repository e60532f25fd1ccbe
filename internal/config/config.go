// Package config provides configuration loading for sweepd.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the sweepd daemon and CLI.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	LLM         LLMConfig         `koanf:"llm"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Knowledge   KnowledgeConfig   `koanf:"knowledge"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Datasets    DatasetsConfig    `koanf:"datasets"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// LLMConfig holds language model provider settings.
//
// Provider "auto" selects the OpenAI-compatible cloud endpoint when an API
// key is available (config or GROQ_API_KEY/OPENAI_API_KEY environment), and
// falls back to a local Ollama server otherwise.
type LLMConfig struct {
	Provider    string  `koanf:"provider"`
	APIKey      string  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	Model       string  `koanf:"model"`
	OllamaURL   string  `koanf:"ollama_url"`
	OllamaModel string  `koanf:"ollama_model"`
	Temperature float64 `koanf:"temperature"`
}

// EmbeddingsConfig holds settings for the embedding endpoint.
//
// The endpoint must be OpenAI-compatible. Ollama exposes one at
// http://localhost:11434/v1, which is the default.
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  string `koanf:"api_key"`
}

// VectorStoreConfig holds settings for the embedded vector store.
type VectorStoreConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
	Compress   bool   `koanf:"compress"`
}

// KnowledgeConfig holds settings for the strategy knowledge base.
type KnowledgeConfig struct {
	DocsDir      string `koanf:"docs_dir"`
	MarkdownDir  string `koanf:"markdown_dir"`
	ChunkSize    int    `koanf:"chunk_size"`
	ChunkOverlap int    `koanf:"chunk_overlap"`
	Watch        bool   `koanf:"watch"`
}

// RetrievalConfig holds settings for strategy context retrieval.
type RetrievalConfig struct {
	K        int `koanf:"k"`
	FetchK   int `koanf:"fetch_k"`
	MaxChars int `koanf:"max_chars"`
}

// DatasetsConfig holds dataset handling settings.
type DatasetsConfig struct {
	PreviewRows int `koanf:"preview_rows"`
	HeadRows    int `koanf:"head_rows"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	switch c.LLM.Provider {
	case "auto", "openai", "ollama":
	default:
		return fmt.Errorf("llm.provider must be auto, openai or ollama, got %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be in [0, 2], got %v", c.LLM.Temperature)
	}

	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("vectorstore.vector_size must be positive, got %d", c.VectorStore.VectorSize)
	}

	if c.Knowledge.ChunkSize <= 0 {
		return fmt.Errorf("knowledge.chunk_size must be positive, got %d", c.Knowledge.ChunkSize)
	}
	if c.Knowledge.ChunkOverlap < 0 || c.Knowledge.ChunkOverlap >= c.Knowledge.ChunkSize {
		return fmt.Errorf("knowledge.chunk_overlap must be in [0, chunk_size), got %d", c.Knowledge.ChunkOverlap)
	}

	if c.Retrieval.K <= 0 {
		return fmt.Errorf("retrieval.k must be positive, got %d", c.Retrieval.K)
	}
	if c.Retrieval.FetchK < c.Retrieval.K {
		return fmt.Errorf("retrieval.fetch_k must be >= retrieval.k, got %d", c.Retrieval.FetchK)
	}
	if c.Retrieval.MaxChars <= 0 {
		return fmt.Errorf("retrieval.max_chars must be positive, got %d", c.Retrieval.MaxChars)
	}

	if c.Datasets.PreviewRows <= 0 {
		return fmt.Errorf("datasets.preview_rows must be positive, got %d", c.Datasets.PreviewRows)
	}
	if c.Datasets.HeadRows <= 0 {
		return fmt.Errorf("datasets.head_rows must be positive, got %d", c.Datasets.HeadRows)
	}

	return nil
}
