package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"admissionbot/models"

	"github.com/joho/godotenv"
)

const (
	RetrievalChromem  = "chromem"
	RetrievalPinecone = "pinecone"
	RetrievalKeyword  = "keyword"
)

type Config struct {
	Port string

	AnthropicAPIKey string
	OpenAIAPIKey    string

	PineconeAPIKey    string
	PineconeIndexName string

	CatalogPaths       []string
	CatalogDatabaseURL string
	DocPaths           []string

	MemoryRetention      models.RetentionPolicy
	MemoryWindow         int
	MemoryReturnMessages bool

	RetrievalBackend string
	RetrievalK       int

	AgentModel    string
	AgentMaxSteps int

	OracleModel       string
	OracleTemperature float64
	OracleTimeout     time.Duration

	MatrixHomeserver  string
	MatrixUserID      string
	MatrixAccessToken string
	MatrixRooms       []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] Failed to read .env file: %v", err)
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		AnthropicAPIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		PineconeAPIKey:       os.Getenv("PINECONE_API_KEY"),
		PineconeIndexName:    getEnv("PINECONE_INDEX_NAME", "admissions-docs-index"),
		CatalogPaths:         getList("CATALOG_PATHS", "data/chunks/ai_courses_chunks.json,data/chunks/ai_product_courses_chunks.json"),
		CatalogDatabaseURL:   os.Getenv("CATALOG_DATABASE_URL"),
		DocPaths:             getList("DOC_PATHS", "data/chunks/ai_chunks.json,data/chunks/ai_product_chunks.json"),
		MemoryRetention:      models.RetentionPolicy(strings.ToLower(getEnv("MEMORY_RETENTION", string(models.RetentionWindowed)))),
		MemoryWindow:         getInt("MEMORY_WINDOW", 10),
		MemoryReturnMessages: getBool("MEMORY_RETURN_MESSAGES", true),
		RetrievalBackend:     strings.ToLower(os.Getenv("RETRIEVAL_BACKEND")),
		RetrievalK:           getInt("RETRIEVAL_K", 3),
		AgentModel:           getEnv("AGENT_MODEL", "claude-sonnet-4-20250514"),
		AgentMaxSteps:        getInt("AGENT_MAX_STEPS", 5),
		OracleModel:          getEnv("ORACLE_MODEL", "gpt-4.1-nano"),
		OracleTemperature:    getFloat("ORACLE_TEMPERATURE", 0),
		OracleTimeout:        getDuration("ORACLE_TIMEOUT", 30*time.Second),
		MatrixHomeserver:     os.Getenv("MATRIX_HOMESERVER"),
		MatrixUserID:         os.Getenv("MATRIX_USER_ID"),
		MatrixAccessToken:    os.Getenv("MATRIX_ACCESS_TOKEN"),
		MatrixRooms:          getList("MATRIX_ROOMS", ""),
	}

	if cfg.RetrievalBackend == "" {
		cfg.RetrievalBackend = RetrievalKeyword
		if cfg.OpenAIAPIKey != "" {
			cfg.RetrievalBackend = RetrievalChromem
		}
	}

	return cfg
}

func (c *Config) Validate() error {
	switch c.MemoryRetention {
	case models.RetentionUnbounded:
	case models.RetentionWindowed:
		if c.MemoryWindow <= 0 {
			return fmt.Errorf("MEMORY_WINDOW must be a positive integer, got %d", c.MemoryWindow)
		}
	default:
		return fmt.Errorf("unsupported MEMORY_RETENTION %q (expected %q or %q)",
			c.MemoryRetention, models.RetentionUnbounded, models.RetentionWindowed)
	}

	switch c.RetrievalBackend {
	case RetrievalChromem, RetrievalPinecone, RetrievalKeyword:
	default:
		return fmt.Errorf("unsupported RETRIEVAL_BACKEND %q", c.RetrievalBackend)
	}

	if c.RetrievalK <= 0 {
		return fmt.Errorf("RETRIEVAL_K must be a positive integer, got %d", c.RetrievalK)
	}

	if c.AgentMaxSteps <= 0 {
		return fmt.Errorf("AGENT_MAX_STEPS must be a positive integer, got %d", c.AgentMaxSteps)
	}

	return nil
}

func (c *Config) MatrixEnabled() bool {
	return c.MatrixHomeserver != "" && c.MatrixUserID != "" && c.MatrixAccessToken != ""
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[WARN] Invalid integer for %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return value
}

func getFloat(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("[WARN] Invalid number for %s=%q, using %v", key, raw, fallback)
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("[WARN] Invalid boolean for %s=%q, using %v", key, raw, fallback)
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("[WARN] Invalid duration for %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return value
}
