package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ChunkerConfig configures how documents are split into chunks.
// Overlap and MinFraction are pointers so an explicit zero is
// distinguishable from unset; nil means the default.
type ChunkerConfig struct {
	ChunkSize   int      `yaml:"chunk_size"`
	Overlap     *int     `yaml:"overlap"`
	MinFraction *float64 `yaml:"min_fraction"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// LedgerConfig locates the knowledge ledger database.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// BackendConfig describes one language-model backend.
type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ModelsConfig configures the model gateway and generation defaults.
type ModelsConfig struct {
	Backends        map[string]BackendConfig `yaml:"backends"`
	DefaultBackends []string                 `yaml:"default_backends"`
	MaxTokens       int                      `yaml:"max_tokens"`
	Temperature     float32                  `yaml:"temperature"`
}

// RetrievalConfig holds query-side defaults.
type RetrievalConfig struct {
	TopK int    `yaml:"top_k"`
	Mode string `yaml:"mode"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	Models      ModelsConfig      `yaml:"models"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/edurag/config.yaml.
// If neither exists, it writes defaults to ~/.config/edurag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "edurag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Chunker:     ChunkerConfig{ChunkSize: 1400, Overlap: intPtr(200), MinFraction: floatPtr(0.3)},
		Embedder:    EmbedderConfig{Type: "hash", Dimension: 4096},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Ledger:      LedgerConfig{Path: "knowledge.db"},
		Models: ModelsConfig{
			Backends: map[string]BackendConfig{
				"mistral": {BaseURL: "http://localhost:11434/v1", Model: "mistral:latest", TimeoutSecs: 120},
				"llama3":  {BaseURL: "http://localhost:11434/v1", Model: "llama3:latest", TimeoutSecs: 120},
				"phi3":    {BaseURL: "http://localhost:11434/v1", Model: "phi3:latest", TimeoutSecs: 120},
			},
			DefaultBackends: []string{"mistral", "llama3", "phi3"},
			MaxTokens:       500,
			Temperature:     0.7,
		},
		Retrieval: RetrievalConfig{TopK: 4, Mode: "hybrid"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1400
	}
	if cfg.Chunker.Overlap == nil {
		cfg.Chunker.Overlap = intPtr(200)
	}
	if cfg.Chunker.MinFraction == nil {
		cfg.Chunker.MinFraction = floatPtr(0.3)
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hash"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 4096
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "knowledge.db"
	}
	if cfg.Models.MaxTokens == 0 {
		cfg.Models.MaxTokens = 500
	}
	if cfg.Models.Temperature == 0 {
		cfg.Models.Temperature = 0.7
	}
	if len(cfg.Models.DefaultBackends) == 0 {
		for name := range cfg.Models.Backends {
			cfg.Models.DefaultBackends = append(cfg.Models.DefaultBackends, name)
		}
		sort.Strings(cfg.Models.DefaultBackends)
	}
	for name, b := range cfg.Models.Backends {
		if b.TimeoutSecs == 0 {
			b.TimeoutSecs = 120
			cfg.Models.Backends[name] = b
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Retrieval.Mode == "" {
		cfg.Retrieval.Mode = "hybrid"
	}
}
