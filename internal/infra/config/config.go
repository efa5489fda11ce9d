package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env                    string
	Port                   string
	DBHost                 string
	DBPort                 string
	DBUser                 string
	DBPassword             string
	DBName                 string
	OpenAIBaseURL          string
	OpenAIAPIKey           string
	OpenAITimeout          time.Duration
	EmbeddingModel         string
	EmbeddingDimension     int
	ChatModel              string
	EmbedRequestsPerSecond int
	EmbedConcurrency       int
	CorpusDir              string
	WatchCorpus            bool
	RetrieveLimit          int
	MaxChunkSize           int
	ChunkOverlap           int
	OTelEnabled            bool
	OTLPEndpoint           string
}

func Load() *Config {
	// Best effort; a missing .env is fine in containers.
	_ = godotenv.Load()

	return &Config{
		Env:                    getEnv("ENV", "development"),
		Port:                   getEnv("PORT", "8000"),
		DBHost:                 getEnv("DB_HOST", "rag-db"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "rag_user"),
		DBPassword:             getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "rag_password"),
		DBName:                 getEnv("DB_NAME", "rag_db"),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:           getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
		OpenAITimeout:          time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second,
		EmbeddingModel:         getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
		EmbeddingDimension:     getEnvInt("EMBEDDING_DIMENSION", 1536),
		ChatModel:              getEnv("CHAT_MODEL", "gpt-3.5-turbo"),
		EmbedRequestsPerSecond: getEnvInt("EMBED_REQUESTS_PER_SECOND", 5),
		EmbedConcurrency:       getEnvInt("EMBED_CONCURRENCY", 4),
		CorpusDir:              getEnv("CORPUS_DIR", "./docs"),
		WatchCorpus:            getEnvBool("WATCH_CORPUS", false),
		RetrieveLimit:          getEnvInt("RETRIEVE_LIMIT", 5),
		MaxChunkSize:           getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap:           getEnvInt("CHUNK_OVERLAP", 100),
		OTelEnabled:            getEnvBool("OTEL_ENABLED", false),
		OTLPEndpoint:           getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// Docker/Kubernetes secrets mount the value as a file.
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
