// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	Environment  string
	DatabasePath string
	JWTSecretKey string

	// Embedding and LLM endpoints are OpenAI-compatible and may point at different providers.
	EmbeddingAPIKey    string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	LLMAPIKey          string
	LLMBaseURL         string
	ChatModel          string
	EmbeddingTimeout   time.Duration
	SynthesisTimeout   time.Duration

	ChunkSize        int
	ChunkOverlap     int
	RetrievalTopK    int
	EmbedConcurrency int

	VectorBackend     string
	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string

	NEREndpoint string
	OCREndpoint string

	TemplateCompensation  bool
	CompensationTablePath string

	UploadRatePerMinute int
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "5001"),
		Environment:  env,
		DatabasePath: getEnv("DATABASE_PATH", "medrag.db"),
		JWTSecretKey: getEnv("JWT_SECRET_KEY", ""),

		EmbeddingAPIKey:  getEnv("OPENAI_API_KEY", ""),
		EmbeddingBaseURL: getEnv("OPENAI_BASE_URL", ""),
		// IMPORTANT: must match the model the stored vectors were built with.
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		ChatModel:          getEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingTimeout:   getEnvAsDuration("EMBEDDING_TIMEOUT", 30*time.Second),
		SynthesisTimeout:   getEnvAsDuration("SYNTHESIS_TIMEOUT", 90*time.Second),

		ChunkSize:        getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:     getEnvAsInt("CHUNK_OVERLAP", 200),
		RetrievalTopK:    getEnvAsInt("RAG_TOPK", 5),
		EmbedConcurrency: getEnvAsInt("EMBED_CONCURRENCY", 4),

		VectorBackend:     strings.ToLower(getEnv("VECTOR_BACKEND", "sqlite")),
		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		PineconeNamespace: getEnv("PINECONE_NAMESPACE", "medrag"),

		NEREndpoint: getEnv("NER_ENDPOINT", ""),
		OCREndpoint: getEnv("OCR_ENDPOINT", ""),

		TemplateCompensation:  getEnvAsBool("TEMPLATE_COMPENSATION", true),
		CompensationTablePath: getEnv("COMPENSATION_TABLE_PATH", ""),

		UploadRatePerMinute: getEnvAsInt("UPLOAD_RATE_PER_MINUTE", 20),
	}

	// LLM credentials default to the embedding ones when only one provider is used.
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = cfg.EmbeddingAPIKey
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = cfg.EmbeddingBaseURL
	}

	if strings.ToLower(env) == "production" {
		if missing := cfg.Missing(); len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// Missing lists the required variables that are unset for the selected backends.
func (c *Config) Missing() []string {
	missing := []string{}
	if c.JWTSecretKey == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if c.EmbeddingAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.VectorBackend == "pinecone" {
		if c.PineconeAPIKey == "" {
			missing = append(missing, "PINECONE_API_KEY")
		}
		if c.PineconeIndexHost == "" {
			missing = append(missing, "PINECONE_INDEX_HOST")
		}
	}
	return missing
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as bool. Using default value.", key)
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strValue)
	if err != nil || d <= 0 {
		log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
		return defaultValue
	}
	return d
}
