package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// DefaultTonBarrelRatio seeds settlements whose contract carries no
	// product density and whose creator supplies no ratio.
	DefaultTonBarrelRatio float64

	// BulkWorkers bounds the concurrency of bulk lifecycle operations.
	BulkWorkers int

	// RateLimit is a ulule/limiter formatted rate, e.g. "100-M".
	RateLimit string

	// CORSAllowedOrigins is a comma separated origin list; "*" allows all.
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("DEFAULT_TON_BARREL_RATIO", 7.33)
	viper.SetDefault("BULK_WORKERS", 4)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.DefaultTonBarrelRatio = viper.GetFloat64("DEFAULT_TON_BARREL_RATIO")
	if cfg.DefaultTonBarrelRatio <= 0 {
		log.Printf("Warning: DEFAULT_TON_BARREL_RATIO must be positive, got %v. Defaulting to 7.33.\n", cfg.DefaultTonBarrelRatio)
		cfg.DefaultTonBarrelRatio = 7.33
	}

	cfg.BulkWorkers = viper.GetInt("BULK_WORKERS")
	if cfg.BulkWorkers <= 0 {
		log.Printf("Warning: BULK_WORKERS must be positive, got %d. Defaulting to 4.\n", cfg.BulkWorkers)
		cfg.BulkWorkers = 4
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	origins := viper.GetString("CORS_ALLOWED_ORIGINS")
	for _, origin := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, trimmed)
		}
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	return cfg, nil
}
