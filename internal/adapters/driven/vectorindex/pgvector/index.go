// Package pgvector provides a persistent VectorIndex backed by PostgreSQL
// with the pgvector extension.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"sync"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/logger"
)

// Ensure Index implements the interfaces.
var (
	_ driven.VectorIndex           = (*Index)(nil)
	_ driven.IndexedDocumentLister = (*Index)(nil)
)

var collectionPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Index stores entries in one table per collection. Similarity is computed by
// the cosine distance operator; ties are broken by the serial id, which
// preserves insertion order.
type Index struct {
	db         *sql.DB
	ownsDB     bool
	table      string
	dimensions int

	mu    sync.Mutex
	count int
}

// Open connects to dsn and opens the collection, creating it if needed.
func Open(ctx context.Context, dsn, collection string, dimensions int) (*Index, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: pgvector backend requires a DSN", domain.ErrConfiguration)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	idx, err := New(ctx, db, collection, dimensions)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	idx.ownsDB = true
	return idx, nil
}

// New opens the collection on an existing connection pool.
func New(ctx context.Context, db *sql.DB, collection string, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be positive, got %d", domain.ErrConfiguration, dimensions)
	}
	if !collectionPattern.MatchString(collection) {
		return nil, fmt.Errorf("%w: invalid collection name %q", domain.ErrConfiguration, collection)
	}

	idx := &Index{db: db, table: collection, dimensions: dimensions}
	if err := idx.migrate(ctx); err != nil {
		return nil, err
	}
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM "+idx.table).Scan(&idx.count); err != nil {
		return nil, fmt.Errorf("count %s: %w", idx.table, err)
	}

	logger.Debug("pgvector: opened %s (dimensions=%d, entries=%d)", idx.table, dimensions, idx.count)
	return idx, nil
}

// migrate creates the extension and the collection table.
func (i *Index) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			text TEXT NOT NULL,
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			embedding vector(%d) NOT NULL
		)`, i.table, i.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_id_idx ON %s (document_id)`, i.table, i.table),
	}
	for _, stmt := range stmts {
		if _, err := i.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", i.table, err)
		}
	}

	var stored int
	err := i.db.QueryRowContext(ctx, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = $1::regclass AND attname = 'embedding'`, i.table).Scan(&stored)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", i.table, err)
	}
	if stored > 0 && stored != i.dimensions {
		return fmt.Errorf("%w: collection %s stores dimension %d, embedder produces %d",
			domain.ErrConfiguration, i.table, stored, i.dimensions)
	}
	return nil
}

// Add inserts entries in one transaction. Dimensions are checked before the
// transaction starts.
func (i *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if len(e.Vector) != i.dimensions {
			return fmt.Errorf("%w: entry %s has dimension %d, index expects %d",
				domain.ErrConfiguration, e.Chunk.ID(), len(e.Vector), i.dimensions)
		}
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (document_id, chunk_index, text, start_offset, end_offset, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`, i.table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		c := e.Chunk
		if _, err := stmt.ExecContext(ctx, c.DocumentID, c.Index, c.Text, c.StartOffset, c.EndOffset,
			pgvector.NewVector(toFloat32(e.Vector))); err != nil {
			return fmt.Errorf("insert %s: %w", c.ID(), err)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	i.count += len(entries)
	return nil
}

// Query returns the k nearest entries. NaN distances from zero vectors score 0.
func (i *Index) Query(ctx context.Context, vector []float64, k int) ([]domain.ScoredEntry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrValidation, k)
	}
	if len(vector) != i.dimensions {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrConfiguration, len(vector), i.dimensions)
	}

	var (
		rows *sql.Rows
		err  error
	)
	if isZero(vector) {
		rows, err = i.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT document_id, chunk_index, text, start_offset, end_offset, embedding, 0::float8
			FROM %s ORDER BY id LIMIT $1`, i.table), k)
	} else {
		rows, err = i.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT document_id, chunk_index, text, start_offset, end_offset, embedding,
				1 - (embedding <=> $1) AS score
			FROM %s ORDER BY embedding <=> $1, id LIMIT $2`, i.table),
			pgvector.NewVector(toFloat32(vector)), k)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", i.table, err)
	}
	defer rows.Close()

	var results []domain.ScoredEntry
	for rows.Next() {
		var (
			c     domain.Chunk
			vec   pgvector.Vector
			score float64
		)
		if err := rows.Scan(&c.DocumentID, &c.Index, &c.Text, &c.StartOffset, &c.EndOffset, &vec, &score); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if math.IsNaN(score) {
			score = 0
		}
		results = append(results, domain.ScoredEntry{
			Entry: domain.IndexEntry{Chunk: c, Vector: toFloat64(vec.Slice())},
			Score: score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}

// IndexedDocuments returns the IDs of documents with at least one stored entry.
func (i *Index) IndexedDocuments(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf(`SELECT DISTINCT document_id FROM %s`, i.table))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Len returns the number of entries written through this index plus those
// present when it was opened.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.count
}

// Dimensions returns the vector length this index accepts.
func (i *Index) Dimensions() int {
	return i.dimensions
}

// Clear removes every entry in the collection.
func (i *Index) Clear(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, err := i.db.ExecContext(ctx, "TRUNCATE "+i.table); err != nil {
		return fmt.Errorf("truncate %s: %w", i.table, err)
	}
	i.count = 0
	return nil
}

// Close releases the connection pool if the index opened it.
func (i *Index) Close() error {
	if i.ownsDB {
		return i.db.Close()
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for n, x := range v {
		out[n] = float32(x)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for n, x := range v {
		out[n] = float64(x)
	}
	return out
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
