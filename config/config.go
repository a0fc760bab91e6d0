package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PostgresURL    string
	MongoURL       string
	MongoDB        string
	DBType         string
	Port           string
	MigrationsPath string
	LogLevel       string

	// Postgres connection pool
	PGMaxOpenConns    int
	PGMaxIdleConns    int
	PGConnMaxLifetime time.Duration

	// Directory service (Redmine)
	RedmineURL    string
	RedmineAPIKey string

	// PDF rendering
	ChromePath string
	PDFTimeout time.Duration

	// Quote PDF archive (Cloudflare R2)
	R2Bucket          string
	R2AccountID       string
	R2PublicURL       string
	R2AccessKeyID     string
	R2SecretAccessKey string

	AuthEnabled   bool
	AdminEmail    string
	AdminPassword string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		MongoURL:       os.Getenv("MONGO_URL"),
		MongoDB:        getEnv("MONGO_DB", "upbilling"),
		DBType:         getEnv("DB_TYPE", "postgres"),
		Port:           getEnv("PORT", "8080"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://db/migrations"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		PGMaxOpenConns:    getInt("PG_MAX_OPEN_CONNS", 5),
		PGMaxIdleConns:    getInt("PG_MAX_IDLE_CONNS", 2),
		PGConnMaxLifetime: getDuration("PG_CONN_MAX_LIFETIME", 30*time.Minute),

		RedmineURL:    os.Getenv("REDMINE_URL"),
		RedmineAPIKey: os.Getenv("REDMINE_API_KEY"),

		ChromePath: os.Getenv("CHROME_PATH"),
		PDFTimeout: getDuration("PDF_TIMEOUT", 30*time.Second),

		R2Bucket:          os.Getenv("R2_BUCKET"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),

		AuthEnabled:   getBool("AUTH_ENABLED", false),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	return cfg
}

// ArchiveEnabled reports whether every R2 setting needed to archive PDFs is present.
func (c *Config) ArchiveEnabled() bool {
	return c.R2Bucket != "" && c.R2AccountID != "" && c.R2PublicURL != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid boolean for %s: %s", key, v)
		return def
	}
	return b
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid integer for %s: %s", key, v)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s: %s", key, v)
		return def
	}
	return d
}
