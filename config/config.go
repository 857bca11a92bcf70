// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type LLMConfig struct {
	Provider string
	Model    string
}

type EmbeddingConfig struct {
	Provider  string
	Model     string
	Dimension int
}

// RetrievalConfig names the vector store collections and the default number
// of chunks pulled per query.
type RetrievalConfig struct {
	K                     int
	RailwayCollection     string
	DoorControlCollection string
}

// AnswerConfig carries the display budget and the retry allowance for the
// generation loop. MaxChars is the enforced gate; MaxWords is only stated
// inside the prompt.
type AnswerConfig struct {
	MaxChars   int
	MaxWords   int
	MaxRetries int
}

type Config struct {
	PostgresDSN string
	Neo4jURI    string
	Neo4jUser   string
	Neo4jPass   string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	DataDir string

	LLM        LLMConfig
	Embeddings EmbeddingConfig
	Retrieval  RetrievalConfig
	Answer     AnswerConfig
}

func Load() Config {
	return Config{
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/rail-assist?sslmode=disable"),
		Neo4jURI:    getEnv("NEO4J_URI", "neo4j://localhost:7687"),
		Neo4jUser:   getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPass:   getEnv("NEO4J_PASSWORD", "password"),

		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		DataDir: getEnv("DATA_DIR", "./data"),

		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", ProviderOllama),
			Model:    getEnv("LLM_MODEL", "gemma3"),
		},
		Embeddings: EmbeddingConfig{
			Provider:  getEnv("EMBEDDINGS_PROVIDER", ProviderOllama),
			Model:     getEnv("EMBEDDINGS_MODEL", "nomic-embed-text"),
			Dimension: getEnvInt("EMBEDDINGS_DIMENSION", 768),
		},
		Retrieval: RetrievalConfig{
			K:                     getEnvInt("RETRIEVAL_K", 8),
			RailwayCollection:     getEnv("RAILWAY_COLLECTION", "railway_document_embeddings"),
			DoorControlCollection: getEnv("DOOR_CONTROL_COLLECTION", "door_control_embeddings"),
		},
		Answer: AnswerConfig{
			MaxChars:   getEnvInt("ANSWER_MAX_CHARS", 900),
			MaxWords:   getEnvInt("ANSWER_MAX_WORDS", 160),
			MaxRetries: getEnvInt("ANSWER_MAX_RETRIES", 2),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
