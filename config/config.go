// Package config loads all process configuration from environment variables
// once at startup. The resulting Config is passed into every component
// constructor; nothing else in the repo reads the environment.
package config

import (
	"os"
	"strconv"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// DefaultEmbeddingDimensions matches text-embedding-3-small. Ollama's
	// nomic-embed-text produces 768-wide vectors, so deployments on that
	// model set EMBEDDING_DIMENSIONS=768.
	DefaultEmbeddingDimensions = 1536
)

type Config struct {
	ServerAddr string

	// Model gateways. EmbeddingModel is the OpenAI embedding model;
	// OllamaEmbeddingModel is its counterpart when Provider is ollama.
	Provider             string // openai | ollama
	OpenAIAPIKey         string
	ModelName            string
	EmbeddingModel       string
	EmbeddingDimensions  int
	OllamaURL            string
	OllamaEmbeddingURL   string
	OllamaEmbeddingModel string

	// Storage.
	UploadDir      string
	VectorStoreDir string
	VectorBackend  string // file | pgvector
	PostgresURL    string

	// Chunking.
	ChunkSize    int
	ChunkOverlap int

	// Logging.
	LogLevel  string
	LogFormat string
}

// FromEnv builds a Config from the process environment, applying defaults
// for everything that is unset.
func FromEnv() Config {
	return Config{
		ServerAddr:           getenv("SERVER_ADDR", ":8000"),
		Provider:             getenv("MODEL_PROVIDER", "openai"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		ModelName:            getenv("MODEL_NAME", "gpt-4o-mini"),
		EmbeddingModel:       getenv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions:  getenvInt("EMBEDDING_DIMENSIONS", DefaultEmbeddingDimensions),
		OllamaURL:            getenv("OLLAMA_URL", "http://localhost:11434/api/generate"),
		OllamaEmbeddingURL:   getenv("OLLAMA_EMBEDDING_URL", "http://localhost:11434/api/embeddings"),
		OllamaEmbeddingModel: getenv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		UploadDir:            getenv("UPLOAD_DIR", "uploads"),
		VectorStoreDir:       getenv("VECTOR_STORE_DIR", "vector_store"),
		VectorBackend:        getenv("VECTOR_BACKEND", "file"),
		PostgresURL:          postgresURL(),
		ChunkSize:            getenvInt("CHUNK_SIZE", DefaultChunkSize),
		ChunkOverlap:         getenvInt("CHUNK_OVERLAP", DefaultChunkOverlap),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		LogFormat:            getenv("LOG_FORMAT", "text"),
	}
}

func postgresURL() string {
	host := getenv("PG_HOST", "localhost")
	port := getenv("PG_PORT", "5432")
	user := getenv("PG_USER", "postgres")
	pass := os.Getenv("PG_PASS")
	db := getenv("PG_DB_NAME", "docqa")
	return "host=" + host + " port=" + port + " user=" + user +
		" password=" + pass + " dbname=" + db + " sslmode=disable"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
