// Package index builds an ephemeral per-document vector index. Each
// document gets its own in-memory SQLite database with a sqlite-vec
// virtual table that lives exactly as long as the extraction run, so
// nothing persists between documents and runs never see stale vectors.
package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/medevidence/rctx/paper"
)

func init() {
	sqlite_vec.Auto()
}

// Embedder produces vector embeddings for a batch of texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is one retrieved unit with its similarity score.
type Result struct {
	Unit  paper.Unit
	Score float64
}

// Index is an in-memory vector index over one document's retrieval units.
// Close must be called when the document's extraction is done.
type Index struct {
	db       *sql.DB
	units    []paper.Unit
	embedder Embedder
	dim      int
	logger   *slog.Logger
}

const embedBatchSize = 32

// Build embeds all units and loads them into a fresh in-memory index.
// Batches that fail are retried one text at a time so a single oversized
// unit doesn't lose its whole batch; units that still fail are dropped
// from the index. Build fails only when no unit could be embedded.
func Build(ctx context.Context, units []paper.Unit, embedder Embedder, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("index: no units to index")
	}

	kept := make([]paper.Unit, 0, len(units))
	vectors := make([][]float32, 0, len(units))

	for i := 0; i < len(units); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(units) {
			end = len(units)
		}
		texts := make([]string, end-i)
		for j := i; j < end; j++ {
			texts[j-i] = units[j].Text
		}

		embeddings, err := embedder.Embed(ctx, texts)
		if err != nil || len(embeddings) != len(texts) {
			logger.Warn("embedding batch failed, falling back to individual",
				"batch_start", i, "batch_end", end, "error", err)
			for j := i; j < end; j++ {
				single, serr := embedder.Embed(ctx, []string{units[j].Text})
				if serr != nil || len(single) == 0 || len(single[0]) == 0 {
					logger.Warn("embedding unit failed, dropping",
						"section", units[j].Meta.SectionTitle, "error", serr)
					continue
				}
				kept = append(kept, units[j])
				vectors = append(vectors, single[0])
			}
			continue
		}
		for j, vec := range embeddings {
			if len(vec) == 0 {
				continue
			}
			kept = append(kept, units[i+j])
			vectors = append(vectors, vec)
		}
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("index: embedding failed for every unit")
	}

	ix := &Index{
		units:    kept,
		embedder: embedder,
		dim:      len(vectors[0]),
		logger:   logger,
	}
	if err := ix.load(ctx, vectors); err != nil {
		return nil, err
	}

	logger.Debug("built document index", "units", len(kept), "dim", ix.dim)
	return ix, nil
}

func (ix *Index) load(ctx context.Context, vectors [][]float32) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("index: opening in-memory db: %w", err)
	}
	// A second connection would see a different empty :memory: database.
	db.SetMaxOpenConns(1)

	ddl := fmt.Sprintf(
		"CREATE VIRTUAL TABLE vec_units USING vec0(unit_id INTEGER PRIMARY KEY, embedding float[%d])",
		ix.dim)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return fmt.Errorf("index: creating vector table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return fmt.Errorf("index: beginning insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO vec_units (unit_id, embedding) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		db.Close()
		return fmt.Errorf("index: preparing insert: %w", err)
	}
	for i, vec := range vectors {
		if len(vec) != ix.dim {
			stmt.Close()
			tx.Rollback()
			db.Close()
			return fmt.Errorf("index: embedding dimension mismatch: got %d, want %d", len(vec), ix.dim)
		}
		if _, err := stmt.ExecContext(ctx, i, serializeFloat32(vec)); err != nil {
			stmt.Close()
			tx.Rollback()
			db.Close()
			return fmt.Errorf("index: inserting vector %d: %w", i, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		return fmt.Errorf("index: committing vectors: %w", err)
	}

	ix.db = db
	return nil
}

// Len returns the number of indexed units.
func (ix *Index) Len() int {
	return len(ix.units)
}

// Query embeds the query text and returns the k nearest units by vector
// distance, best first.
func (ix *Index) Query(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	embeddings, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("index: embedding query: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("index: empty query embedding")
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT unit_id, distance
		FROM vec_units
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance
	`, serializeFloat32(embeddings[0]), k)
	if err != nil {
		return nil, fmt.Errorf("index: vector search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var id int
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, fmt.Errorf("index: scanning result: %w", err)
		}
		if id < 0 || id >= len(ix.units) {
			continue
		}
		results = append(results, Result{
			Unit:  ix.units[id],
			Score: 1 - distance,
		})
	}
	return results, rows.Err()
}

// Close releases the in-memory database.
func (ix *Index) Close() error {
	if ix.db == nil {
		return nil
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
