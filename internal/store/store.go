// internal/store/store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/api/schemas"
	"github.com/xkilldash9x/bugtrap/internal/config"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists captured messages to PostgreSQL, one row per message.
type Store struct {
	pool  DBPool
	table string
	log   *zap.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// New creates a store writing to table. The table name is quoted as an identifier.
func New(pool DBPool, table string, logger *zap.Logger) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
		log:   logger.Named("store"),
		now:   time.Now,
		newID: uuid.New,
	}, nil
}

// Connect opens a pool for cfg, verifies it and ensures the table exists. The
// returned function closes the pool.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := New(pool, cfg.Table, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

// EnsureSchema creates the messages table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id UUID PRIMARY KEY,
            kind TEXT NOT NULL,
            message JSONB NOT NULL,
            captured_at TIMESTAMPTZ NOT NULL
        );`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// PersistMessage inserts msg in its {"type","desc"} wire form and returns the row ID.
func (s *Store) PersistMessage(ctx context.Context, msg schemas.Message) (uuid.UUID, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode message: %w", err)
	}

	id := s.newID()
	query := fmt.Sprintf(`
        INSERT INTO %s (id, kind, message, captured_at)
        VALUES ($1, $2, $3, $4);`, s.table)
	// Store timestamps in UTC to prevent ambiguity.
	if _, err := s.pool.Exec(ctx, query, id, string(msg.Kind), string(body), s.now().UTC()); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return id, nil
}

// CountByKind returns how many messages of each kind are stored.
func (s *Store) CountByKind(ctx context.Context) (map[schemas.Kind]int, error) {
	query := fmt.Sprintf(`SELECT kind, COUNT(*) FROM %s GROUP BY kind;`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query message counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[schemas.Kind]int)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[schemas.Kind(kind)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return counts, nil
}
