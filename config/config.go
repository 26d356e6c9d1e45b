package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the server. Every field can be
// overridden through the environment; defaults follow the values the
// application has always shipped with.
type Config struct {
	Port         string
	DocumentsDir string

	OllamaURL       string
	EmbeddingModel  string
	GenerativeModel string
	GeminiAPIKey    string

	ChromaCollection string

	ChunkSize    int
	ChunkOverlap int

	MaxSources      int
	MaxContextChars int

	EnableAnswerCache bool
	CacheTTL          time.Duration

	WatchDocuments bool
}

// Load reads the optional .env file and assembles the configuration from the
// environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DocumentsDir:      getEnv("DOCUMENTS_DIR", "./documents"),
		OllamaURL:         getEnv("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text:v1.5"),
		GenerativeModel:   getEnv("GENERATIVE_MODEL", "gemini-2.5-flash"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		ChromaCollection:  getEnv("CHROMA_COLLECTION", "dokufrage-documents"),
		ChunkSize:         getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 100),
		MaxSources:        getEnvInt("MAX_SOURCES_IN_RESPONSE", 5),
		MaxContextChars:   getEnvInt("MAX_CONTEXT_CHARS", 48000),
		EnableAnswerCache: getEnvBool("ENABLE_RESPONSE_CACHE", true),
		CacheTTL:          time.Duration(getEnvInt("CACHE_EXPIRATION_SECONDS", 3600)) * time.Second,
		WatchDocuments:    getEnvBool("WATCH_DOCUMENTS", true),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("CONFIG WARN: %s=%q is not a number, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("CONFIG WARN: %s=%q is not a boolean, using default %v", key, v, fallback)
		return fallback
	}
	return b
}
