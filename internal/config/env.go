package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort              = "8080"
	defaultBoltPath          = "./data/qemxa.db"
	defaultRateLimit         = "120-M"
	defaultGenerationTimeout = 60 * time.Second
	defaultPersistTimeout    = 10 * time.Second
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	storeDriver := strings.ToLower(os.Getenv("STORE_DRIVER"))
	if storeDriver == "" {
		storeDriver = StorePostgres
	}

	supabaseConnStr := os.Getenv("SUPABASE_CONNECTION_STRING")
	boltPath := os.Getenv("BOLT_PATH")

	switch storeDriver {
	case StorePostgres:
		if supabaseConnStr == "" {
			return nil, fmt.Errorf("SUPABASE_CONNECTION_STRING environment variable is required")
		}
	case StoreBolt:
		if boltPath == "" {
			boltPath = defaultBoltPath
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", storeDriver)
	}

	rateLimit := os.Getenv("RATE_LIMIT")
	if rateLimit == "" {
		rateLimit = defaultRateLimit
	}

	generationTimeout, err := durationEnv("GENERATION_TIMEOUT", defaultGenerationTimeout)
	if err != nil {
		return nil, err
	}

	persistTimeout, err := durationEnv("PERSIST_TIMEOUT", defaultPersistTimeout)
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment:        environment,
		Port:               port,
		StoreDriver:        storeDriver,
		SupabaseConnString: supabaseConnStr,
		BoltPath:           boltPath,
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          jwtSecret,
		AllowedOrigins:     splitList(os.Getenv("ALLOWED_ORIGINS")),
		RateLimit:          rateLimit,
		GenerationTimeout:  generationTimeout,
		PersistTimeout:     persistTimeout,
	}, nil
}

// parses a duration variable, "0" disables the timeout
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	if raw == "0" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}

func splitList(raw string) []string {
	var out []string

	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
