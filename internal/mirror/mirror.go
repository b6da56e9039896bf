// Package mirror pushes the JSON face store into PostgreSQL with pgvector,
// so enrolled identities can be queried with SQL-side similarity search.
// The JSON document stays the source of truth; the mirror is one-way.
package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/faceid/internal/config"
	"github.com/kozaktomas/faceid/internal/facedb"
)

// Mirror manages the PostgreSQL connection for the face mirror.
type Mirror struct {
	db  *sql.DB
	dim int
}

// Connect opens a connection pool to the mirror database.
func Connect(cfg config.DatabaseConfig, dim int) (*Mirror, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Mirror{db: db, dim: dim}, nil
}

// Migrate creates the faces table and the vector extension if needed.
func (m *Mirror) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS faces (
				uid        TEXT PRIMARY KEY,
				name       TEXT NOT NULL UNIQUE,
				embedding  vector(%d) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				synced_at  TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, m.dim),
	}

	for _, stmt := range statements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	return nil
}

// Sync replaces the mirror contents with the given records inside one
// transaction. Returns the number of records written.
func (m *Mirror) Sync(ctx context.Context, records []facedb.Record) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM faces`); err != nil {
		return 0, fmt.Errorf("clear mirror: %w", err)
	}

	query := `
		INSERT INTO faces (uid, name, embedding, created_at)
		VALUES ($1, $2, $3, $4)
	`
	for _, r := range records {
		vec := pgvector.NewVector(r.Embedding)
		if _, err := tx.ExecContext(ctx, query, r.UID, r.Name, vec, r.CreatedAt); err != nil {
			return 0, fmt.Errorf("insert face %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sync: %w", err)
	}
	return len(records), nil
}

// Neighbor is one mirror-side similarity result.
type Neighbor struct {
	UID      string
	Name     string
	Distance float64
}

// Nearest returns up to limit identities ordered by cosine distance to the
// probe embedding.
func (m *Mirror) Nearest(ctx context.Context, probe []float32, limit int) ([]Neighbor, error) {
	query := `
		SELECT uid, name, embedding <=> $1 AS distance
		FROM faces
		ORDER BY distance
		LIMIT $2
	`

	rows, err := m.db.QueryContext(ctx, query, pgvector.NewVector(probe), limit)
	if err != nil {
		return nil, fmt.Errorf("query nearest faces: %w", err)
	}
	defer rows.Close()

	var out []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.UID, &n.Name, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return out, nil
}

// Count returns the number of mirrored faces.
func (m *Mirror) Count(ctx context.Context) (int, error) {
	var count int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faces`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count faces: %w", err)
	}
	return count, nil
}

// Close closes the connection pool.
func (m *Mirror) Close() error {
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
