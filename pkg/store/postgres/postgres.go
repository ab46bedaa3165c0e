// Package postgres implements a store over a single key-value table,
// used by hosted deployments that keep a durable mirror of device session
// state. Expiry is enforced at read time against the expires_at column.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS session_kv (
//	    key        TEXT PRIMARY KEY,
//	    value      BYTEA NOT NULL,
//	    expires_at TIMESTAMPTZ,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"

	_ "github.com/lib/pq"
)

// PostgresStore persists session keys in the session_kv table.
type PostgresStore struct {
	db   *sql.DB
	name string
}

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DefaultConfig returns a localhost configuration.
func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "session_db",
		SSLMode:  "disable",
	}
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(cfg Config) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &PostgresStore{db: db, name: "postgres"}, nil
}

// Get retrieves a live value by key.
func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	var value []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM session_kv
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`,
		key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, store.WrapError(err, p.name, "get")
	}
	return value, nil
}

// Set upserts a value under key. ttl of 0 stores without expiry.
func (p *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO session_kv (key, value, expires_at, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		key, value, expiresAt,
	)
	if err != nil {
		return store.WrapError(err, p.name, "set")
	}
	return nil
}

// Delete removes a key.
func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	_, err := p.db.ExecContext(ctx, `DELETE FROM session_kv WHERE key = $1`, key)
	if err != nil {
		return store.WrapError(err, p.name, "delete")
	}
	return nil
}

// Keys returns all live keys. Implements store.Keyer.
func (p *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT key FROM session_kv WHERE expires_at IS NULL OR expires_at > now()`)
	if err != nil {
		return nil, store.WrapError(err, p.name, "keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, store.WrapError(err, p.name, "keys")
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Name returns the store identifier.
func (p *PostgresStore) Name() string {
	return p.name
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
