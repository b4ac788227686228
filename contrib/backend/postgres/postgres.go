// Package postgres provides a PostgreSQL-backed action record store for
// deployments where the file-per-collection model is not enough.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/sweetpotato0/convodesk/backend"
	errorskg "github.com/sweetpotato0/convodesk/errors"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultConfig returns the local-development defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "convodesk",
		SSLMode: "disable",
	}
}

// ConfigFromEnv loads the configuration from POSTGRES_* environment
// variables, falling back to the defaults.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv("POSTGRES_SSLMODE"); v != "" {
		cfg.SSLMode = v
	}
	return cfg
}

// Store implements backend.Store on PostgreSQL. All kinds share one table
// with the kind as a column, so a single schema covers every collection.
type Store struct {
	db *sql.DB
}

// New connects to PostgreSQL and ensures the action_records table exists.
func New(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
	return NewFromDSN(dsn)
}

// NewFromDSN connects with a raw connection string.
func NewFromDSN(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return s, nil
}

func (s *Store) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS action_records (
		id VARCHAR(64) PRIMARY KEY,
		kind VARCHAR(32) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		session_id VARCHAR(255) NOT NULL,
		status VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		details JSONB
	);
	CREATE INDEX IF NOT EXISTS idx_action_records_kind ON action_records(kind);
	CREATE INDEX IF NOT EXISTS idx_action_records_created_at ON action_records(created_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save inserts or replaces a record in the kind's collection.
func (s *Store) Save(ctx context.Context, kind backend.Kind, rec backend.Record) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown record kind %q: %w", kind, errorskg.ErrInvalidInput)
	}
	if rec.ID == "" {
		return fmt.Errorf("record id cannot be empty: %w", errorskg.ErrInvalidInput)
	}

	details := []byte("{}")
	if len(rec.Details) > 0 {
		raw, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal record details: %w", err)
		}
		details = raw
	}

	query := `
	INSERT INTO action_records (id, kind, user_id, session_id, status, created_at, details)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		details = EXCLUDED.details
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, string(kind), rec.UserID, rec.SessionID, rec.Status, rec.CreatedAt, string(details))
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.ID, err)
	}
	return nil
}

// Load returns one record by ID.
func (s *Store) Load(ctx context.Context, kind backend.Kind, id string) (backend.Record, error) {
	query := `
	SELECT id, user_id, session_id, status, created_at, details
	FROM action_records
	WHERE id = $1 AND kind = $2
	`
	row := s.db.QueryRowContext(ctx, query, id, string(kind))

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return backend.Record{}, fmt.Errorf("record %s: %w", id, errorskg.ErrNotFound)
	}
	if err != nil {
		return backend.Record{}, fmt.Errorf("failed to load record %s: %w", id, err)
	}
	return rec, nil
}

// List returns every record of a kind, oldest first.
func (s *Store) List(ctx context.Context, kind backend.Kind) ([]backend.Record, error) {
	query := `
	SELECT id, user_id, session_id, status, created_at, details
	FROM action_records
	WHERE kind = $1
	ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}
	defer rows.Close()

	var out []backend.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", kind, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (backend.Record, error) {
	var (
		rec     backend.Record
		details []byte
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.SessionID, &rec.Status, &rec.CreatedAt, &details); err != nil {
		return backend.Record{}, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &rec.Details); err != nil {
			return backend.Record{}, fmt.Errorf("failed to decode record details: %w", err)
		}
	}
	return rec, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
