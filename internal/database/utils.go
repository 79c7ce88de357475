package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"contrib.go.opencensus.io/integrations/ocsql"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mailcanvas/mailcanvas/config"
)

// GetDSN returns the DSN for the application database
func GetDSN(cfg *config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}

// DriverName returns the sql driver to open, wrapped with ocsql when traced
func DriverName(traced bool) (string, error) {
	if !traced {
		return "postgres", nil
	}
	name, err := ocsql.Register("postgres", ocsql.WithAllTraceOptions())
	if err != nil {
		return "", fmt.Errorf("failed to register traced driver: %w", err)
	}
	return name, nil
}

// Connect opens the pool, applies the configured limits and checks the server
// is reachable
func Connect(ctx context.Context, cfg *config.DatabaseConfig, traced bool) (*sql.DB, error) {
	driverName, err := DriverName(traced)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, GetDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ConfigurePool(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// ConfigurePool applies pool settings. Zero values leave the driver default.
func ConfigurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)
	}
}
