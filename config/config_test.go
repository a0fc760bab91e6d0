package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_TYPE", "")
	t.Setenv("PDF_TIMEOUT", "")
	t.Setenv("AUTH_ENABLED", "")
	t.Setenv("PG_MAX_OPEN_CONNS", "")
	t.Setenv("PG_CONN_MAX_LIFETIME", "")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, 30*time.Second, cfg.PDFTimeout)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, 5, cfg.PGMaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.PGConnMaxLifetime)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("REDMINE_URL", "https://projects.example.test")
	t.Setenv("REDMINE_API_KEY", "secret")
	t.Setenv("PDF_TIMEOUT", "5s")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("PG_MAX_OPEN_CONNS", "12")
	t.Setenv("PG_CONN_MAX_LIFETIME", "5m")

	cfg := LoadConfig()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "memory", cfg.DBType)
	assert.Equal(t, "https://projects.example.test", cfg.RedmineURL)
	assert.Equal(t, "secret", cfg.RedmineAPIKey)
	assert.Equal(t, 5*time.Second, cfg.PDFTimeout)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, 12, cfg.PGMaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.PGConnMaxLifetime)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PDF_TIMEOUT", "soon")
	t.Setenv("AUTH_ENABLED", "maybe")
	t.Setenv("PG_MAX_IDLE_CONNS", "few")

	cfg := LoadConfig()

	assert.Equal(t, 30*time.Second, cfg.PDFTimeout)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, 2, cfg.PGMaxIdleConns)
}

func TestArchiveEnabled(t *testing.T) {
	cfg := &Config{R2Bucket: "quotes", R2AccountID: "acc"}
	assert.False(t, cfg.ArchiveEnabled())

	cfg.R2PublicURL = "https://cdn.example.test"
	assert.True(t, cfg.ArchiveEnabled())
}
