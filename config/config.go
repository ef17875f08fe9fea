package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	RAG         RAGConfig         `yaml:"rag"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Minio       MinioConfig       `yaml:"minio"`
	Auth        AuthConfig        `yaml:"auth"`
	Users       []User            `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RAGConfig holds the knobs for the ingestion and retrieval pipeline.
type RAGConfig struct {
	ChunkSize        int `yaml:"chunk_size"`
	ChunkOverlap     int `yaml:"chunk_overlap"`
	RetrievalK       int `yaml:"retrieval_k"`
	MetadataMaxChars int `yaml:"metadata_max_chars"`
}

// OpenAIConfig configures the OpenAI-compatible chat and embeddings backend.
type OpenAIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
	MaxRetries     int    `yaml:"max_retries"`
}

// VectorStoreConfig selects the vector index backend. The in-memory index is
// the default; qdrant is available for setups that already run one.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"` // memory, qdrant
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type MinioConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with all defaults applied; used when no config
// file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = envInt("CHUNK_SIZE", 1000)
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = envInt("CHUNK_OVERLAP", 200)
	}
	if cfg.RAG.RetrievalK == 0 {
		cfg.RAG.RetrievalK = envInt("RETRIEVAL_K", 3)
	}
	if cfg.RAG.MetadataMaxChars == 0 {
		cfg.RAG.MetadataMaxChars = envInt("METADATA_MAX_CHARS", 10000)
	}

	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = envStr("OPENAI_MODEL", "gpt-4o-mini")
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = envStr("EMBEDDING_MODEL", "text-embedding-3-small")
	}
	if cfg.OpenAI.TimeoutSecs == 0 {
		cfg.OpenAI.TimeoutSecs = 30
	}
	if cfg.OpenAI.MaxRetries == 0 {
		cfg.OpenAI.MaxRetries = 3
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "contracts"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}

	if cfg.Minio.Bucket == "" {
		cfg.Minio.Bucket = "contract-uploads"
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = envStr("JWT_SECRET", "")
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
