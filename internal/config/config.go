package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "BlazeWallet"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultCollection     = "blaze"
	defaultModelTimeout   = 10 * time.Second
	defaultStoreTimeout   = 5 * time.Second
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultMinSimilarity  = 0.80
)

// Config captures application runtime configuration loaded from environment
// variables. A .env file is honored when present.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	// QdrantURL points at the vector store; empty in dev selects the
	// in-memory store.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// LivenessURL and FaceEmbedURL are the two model inference services.
	LivenessURL  string
	FaceEmbedURL string

	// DatabaseURL enables the Postgres transfer journal; empty selects the
	// in-memory journal.
	DatabaseURL string

	// RedisURL backs idempotency and login rate limiting; empty in dev
	// disables both.
	RedisURL string

	// MinSimilarity is the lowest cosine similarity accepted at login.
	MinSimilarity float64

	ModelTimeout   time.Duration
	StoreTimeout   time.Duration
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		QdrantURL:        os.Getenv("QDRANT_URL"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", defaultCollection),
		LivenessURL:      os.Getenv("LIVENESS_URL"),
		FaceEmbedURL:     os.Getenv("FACE_EMBED_URL"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MinSimilarity:    defaultMinSimilarity,
		ModelTimeout:     defaultModelTimeout,
		StoreTimeout:     defaultStoreTimeout,
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
	}

	if v := os.Getenv("MIN_SIMILARITY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return Config{}, fmt.Errorf("invalid MIN_SIMILARITY %q", v)
		}
		cfg.MinSimilarity = f
	}

	for _, d := range []struct {
		envVar string
		dst    *time.Duration
	}{
		{"MODEL_TIMEOUT", &cfg.ModelTimeout},
		{"STORE_TIMEOUT", &cfg.StoreTimeout},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
	} {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.dst = parsed
		}
	}

	if cfg.LivenessURL == "" {
		return Config{}, fmt.Errorf("LIVENESS_URL must be set")
	}
	if cfg.FaceEmbedURL == "" {
		return Config{}, fmt.Errorf("FACE_EMBED_URL must be set")
	}
	if !cfg.IsDev() {
		if cfg.QdrantURL == "" {
			return Config{}, fmt.Errorf("QDRANT_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a development environment, where the
// in-memory store/journal fallbacks are allowed.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
