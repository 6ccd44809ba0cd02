package config

import "time"

// store drivers
const (
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
)

type Config struct {
	Environment string
	Port        string

	StoreDriver        string
	SupabaseConnString string
	BoltPath           string
	RedisURL           string

	JWTSecret      string
	AllowedOrigins []string
	RateLimit      string

	GenerationTimeout time.Duration
	PersistTimeout    time.Duration
}

// flags for the admin CLI subcommands
type Flags struct {
	UserID string
	Email  string
	Tier   string
	VIN    string
	Brand  string
	Model  string
	Year   int
}
