// Package db opens and migrates the libsql database holding trading results.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/config"
	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/go-libsql"
)

// Connect opens the database described by cfg and verifies connectivity.
// file: URLs are embedded databases; anything else is a remote libsql/turso URL.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	if path, ok := embeddedPath(cfg.URL); ok {
		// Ensure database directory exists for embedded mode
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create database directory %s: %w", dir, err)
		}
	}

	logger.Info().Str("url", redact(cfg.URL)).Msg("connecting to libsql")

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql connection: %w", err)
	}

	if err := verify(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	configureConnectionPooling(db, cfg, logger)
	return db, nil
}

func buildDSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.URL == "" {
		return "", fmt.Errorf("database url is empty")
	}
	if strings.HasPrefix(cfg.URL, "file:") || cfg.AuthToken == "" {
		return cfg.URL, nil
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	q := u.Query()
	q.Set("authToken", cfg.AuthToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// embeddedPath extracts the filesystem path from a file: URL.
func embeddedPath(dbURL string) (string, bool) {
	if !strings.HasPrefix(dbURL, "file:") {
		return "", false
	}
	path := strings.TrimPrefix(dbURL, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return "", false
	}
	return path, true
}

func redact(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.RawQuery == "" {
		return dbURL
	}
	u.RawQuery = ""
	return u.String()
}

func verify(ctx context.Context, db *sql.DB) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("basic connectivity test failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("basic connectivity test failed: unexpected result %d", result)
	}
	return nil
}

// configureConnectionPooling sets up connection pooling parameters
func configureConnectionPooling(db *sql.DB, cfg config.DatabaseConfig, logger zerolog.Logger) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	db.SetMaxOpenConns(maxOpen)

	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 25
	}
	db.SetMaxIdleConns(maxIdle)

	idleTime := time.Duration(cfg.ConnMaxIdleSec) * time.Second
	if idleTime <= 0 {
		idleTime = 5 * time.Minute
	}
	db.SetConnMaxIdleTime(idleTime)

	lifeTime := time.Duration(cfg.ConnMaxLifeSec) * time.Second
	if lifeTime <= 0 {
		lifeTime = time.Hour
	}
	db.SetConnMaxLifetime(lifeTime)

	logger.Debug().
		Int("max_open", maxOpen).
		Int("max_idle", maxIdle).
		Dur("max_idle_time", idleTime).
		Dur("max_lifetime", lifeTime).
		Msg("connection pool configured")
}
