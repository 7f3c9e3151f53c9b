// Package database opens the sqlx pool used by the store action.  The
// driver is go-sql-driver/mysql, which also serves MariaDB.
//
// Public entry points:
//
//	Open(dsn, password)                 – conservative pool sizes.
//	OpenWithOptions(dsn, password, o)   – explicit pool sizes.
//
// Both Ping before returning so bootstrap fails fast.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Options tunes the pool.
type Options struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultOptions returns 15 open, 5 idle, and a 30-minute lifetime.
func DefaultOptions() Options {
	return Options{MaxOpen: 15, MaxIdle: 5, MaxLifetime: 30 * time.Minute}
}

// Open is OpenWithOptions with DefaultOptions.
func Open(ctx context.Context, dsn, password string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, password, DefaultOptions())
}

// OpenWithOptions parses dsn, sets password when non-empty (it usually
// arrives from a `vault:` reference), and pings the server.
func OpenWithOptions(ctx context.Context, dsn, password string, o Options) (*sqlx.DB, error) {
	full, err := WithPassword(dsn, password)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", full)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)
	db.SetConnMaxLifetime(o.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return db, nil
}

// WithPassword returns dsn with its password replaced.  Timestamps are
// always parsed so submitted_at round-trips as time.Time.
func WithPassword(dsn, password string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("database dsn: %w", err)
	}
	if password != "" {
		cfg.Passwd = password
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
