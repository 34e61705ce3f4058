// Package config builds the typed application configuration from environment
// variables (optionally seeded from a .env file) so main stays lean.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	LogLevel     string
	Server       ServerConfig
	Ledger       LedgerConfig
	Redis        RedisConfig
	Auth         AuthConfig
	ContentStore ContentStoreConfig
	Explorer     ExplorerConfig
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LedgerConfig selects the ledger backend. Backend is "memory" or "postgres".
type LedgerConfig struct {
	Backend  string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig configures the optional snapshot cache. An empty URL disables it.
type RedisConfig struct {
	URL         string
	SnapshotTTL time.Duration
}

// AuthConfig configures registrar tokens for the write endpoints.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	// Authority names the registrar recorded on the bootstrap registry record.
	Authority string
}

// ContentStoreConfig configures the optional object store archive. An empty
// endpoint selects the no-op store.
type ContentStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// ExplorerConfig configures ledger explorer links on responses. An empty base
// URL disables them.
type ExplorerConfig struct {
	BaseURL string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SERVER_ADDR", ":8080")
	viper.SetDefault("SERVER_READ_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT_SECONDS", 30)
	viper.SetDefault("LEDGER_BACKEND", "memory")
	viper.SetDefault("LEDGER_PG_PORT", 5432)
	viper.SetDefault("LEDGER_PG_SSLMODE", "disable")
	viper.SetDefault("REDIS_SNAPSHOT_TTL_SECONDS", 15)
	viper.SetDefault("AUTH_ISSUER", "truthchain")
	viper.SetDefault("AUTH_AUTHORITY", "truthchain-registrar")
	viper.SetDefault("CONTENT_STORE_BUCKET", "truthchain-documents")

	cfg := &Config{
		LogLevel: viper.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Addr:         viper.GetString("SERVER_ADDR"),
			ReadTimeout:  time.Duration(viper.GetInt("SERVER_READ_TIMEOUT_SECONDS")) * time.Second,
			WriteTimeout: time.Duration(viper.GetInt("SERVER_WRITE_TIMEOUT_SECONDS")) * time.Second,
		},
		Ledger: LedgerConfig{
			Backend:  viper.GetString("LEDGER_BACKEND"),
			Host:     viper.GetString("LEDGER_PG_HOST"),
			Port:     viper.GetInt("LEDGER_PG_PORT"),
			User:     viper.GetString("LEDGER_PG_USER"),
			Password: viper.GetString("LEDGER_PG_PASSWORD"),
			Database: viper.GetString("LEDGER_PG_DATABASE"),
			SSLMode:  viper.GetString("LEDGER_PG_SSLMODE"),
		},
		Redis: RedisConfig{
			URL:         viper.GetString("REDIS_URL"),
			SnapshotTTL: time.Duration(viper.GetInt("REDIS_SNAPSHOT_TTL_SECONDS")) * time.Second,
		},
		Auth: AuthConfig{
			JWTSigningKey: viper.GetString("AUTH_JWT_SIGNING_KEY"),
			Issuer:        viper.GetString("AUTH_ISSUER"),
			Authority:     viper.GetString("AUTH_AUTHORITY"),
		},
		ContentStore: ContentStoreConfig{
			Endpoint:  viper.GetString("CONTENT_STORE_ENDPOINT"),
			AccessKey: viper.GetString("CONTENT_STORE_ACCESS_KEY"),
			SecretKey: viper.GetString("CONTENT_STORE_SECRET_KEY"),
			UseSSL:    viper.GetBool("CONTENT_STORE_USE_SSL"),
			Bucket:    viper.GetString("CONTENT_STORE_BUCKET"),
		},
		Explorer: ExplorerConfig{
			BaseURL: viper.GetString("EXPLORER_BASE_URL"),
		},
	}
	return cfg, nil
}
