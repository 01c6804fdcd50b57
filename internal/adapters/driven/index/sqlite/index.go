// Package sqlite provides a SQLite-backed vector index. Vectors are
// stored as little-endian float32 blobs and queries run a brute-force
// cosine scan, which is adequate for the corpus sizes a single node
// ingests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ragpipe/ragpipe/internal/core/domain"
	"github.com/ragpipe/ragpipe/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS index_meta (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	vector BLOB NOT NULL,
	text TEXT NOT NULL,
	source TEXT NOT NULL,
	title TEXT NOT NULL,
	ordinal INTEGER NOT NULL
);
`

// Index is a persistent vector index stored in a single SQLite file.
// Safe for concurrent use; the mutex guards the dimension, which Reset
// rewrites while other operations read it.
type Index struct {
	db   *sql.DB
	path string

	mu         sync.RWMutex
	dimensions int
}

// New opens (or creates) the index at path. If the file already holds a
// collection with a different vector dimension, New fails with
// domain.ErrDimensionMismatch rather than silently mixing sizes.
func New(path string, dimensions int) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: index path is empty", domain.ErrInvalidInput)
	}
	if dimensions <= 0 {
		dimensions = domain.DefaultVectorDimensions
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	// WAL mode for concurrent readers during ingestion.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}

	x := &Index{db: db, path: path, dimensions: dimensions}

	stored, err := x.storedDimensions()
	if err != nil {
		db.Close()
		return nil, err
	}
	switch {
	case stored == 0:
		if err := x.setDimensions(dimensions); err != nil {
			db.Close()
			return nil, err
		}
	case stored != dimensions:
		db.Close()
		return nil, fmt.Errorf("%w: index at %s holds %d-dimensional vectors, configured for %d",
			domain.ErrDimensionMismatch, path, stored, dimensions)
	}

	return x, nil
}

// Upsert inserts or fully replaces the entry for entry.ID.
func (x *Index) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: entry id is empty", domain.ErrInvalidInput)
	}
	if dims := x.Dimensions(); len(entry.Vector) != dims {
		return fmt.Errorf("%w: got %d, index expects %d",
			domain.ErrDimensionMismatch, len(entry.Vector), dims)
	}

	_, err := x.db.ExecContext(ctx, `
		INSERT INTO entries (id, vector, text, source, title, ordinal)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vector = excluded.vector,
			text = excluded.text,
			source = excluded.source,
			title = excluded.title,
			ordinal = excluded.ordinal
	`, entry.ID, float32SliceToBytes(entry.Vector),
		entry.Payload.Text, entry.Payload.Source, entry.Payload.Title, entry.Payload.Ordinal)

	if err != nil {
		return fmt.Errorf("saving entry: %w", err)
	}
	return nil
}

// Query returns up to topK entries ranked by cosine similarity,
// descending, with ties broken by ID lexical order.
func (x *Index) Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredEntry, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if dims := x.Dimensions(); len(vector) != dims {
		return nil, fmt.Errorf("%w: got %d, index expects %d",
			domain.ErrDimensionMismatch, len(vector), dims)
	}

	rows, err := x.db.QueryContext(ctx, `
		SELECT id, vector, text, source, title, ordinal FROM entries
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.IndexEntry
		var blob []byte
		if err := rows.Scan(&entry.ID, &blob, &entry.Payload.Text,
			&entry.Payload.Source, &entry.Payload.Title, &entry.Payload.Ordinal); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entry.Vector = bytesToFloat32Slice(blob)
		scored = append(scored, domain.ScoredEntry{
			Entry: entry,
			Score: cosine(vector, entry.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.ID < scored[j].Entry.ID
	})

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// Delete removes the entry for id. Deleting a missing id is a no-op.
func (x *Index) Delete(ctx context.Context, id string) error {
	_, err := x.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return nil
}

// Reset destroys all entries and re-creates the collection with the
// given dimension.
func (x *Index) Reset(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidInput, dimensions)
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (key, value) VALUES ('dimensions', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, dimensions); err != nil {
		return fmt.Errorf("storing dimensions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	x.mu.Lock()
	x.dimensions = dimensions
	x.mu.Unlock()
	return nil
}

// Dimensions returns the collection's configured vector size.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dimensions
}

// Path returns the database file path.
func (x *Index) Path() string {
	return x.path
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) storedDimensions() (int, error) {
	var dims int
	err := x.db.QueryRow("SELECT value FROM index_meta WHERE key = 'dimensions'").Scan(&dims)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading stored dimensions: %w", err)
	}
	return dims, nil
}

func (x *Index) setDimensions(dims int) error {
	_, err := x.db.Exec(`
		INSERT INTO index_meta (key, value) VALUES ('dimensions', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, dims)
	if err != nil {
		return fmt.Errorf("storing dimensions: %w", err)
	}
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
