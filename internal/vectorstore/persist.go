package vectorstore

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"docqa/internal/domain"
)

// The durable snapshot is one SQLite database holding the chunk rows with
// their vectors as blobs, plus a one-row meta table tagging the embedding
// backend and dimensionality that built the index. Rows and meta are written
// in one transaction so the index and its document store cannot diverge.
const schema = `
CREATE TABLE IF NOT EXISTS meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	embedder TEXT NOT NULL,
	dimension INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	title TEXT NOT NULL,
	source_kind TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	text TEXT NOT NULL,
	vector BLOB NOT NULL
);
`

type persister struct {
	db *sql.DB
}

func openPersister(path string) (*persister, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &persister{db: db}, nil
}

func (p *persister) close() error { return p.db.Close() }

// load reads the backend tag and every chunk row in insertion order.
func (p *persister) load() (tag string, dim int, chunks []domain.Chunk, vectors [][]float64, err error) {
	err = p.db.QueryRow(`SELECT embedder, dimension FROM meta WHERE id = 1`).Scan(&tag, &dim)
	if err == sql.ErrNoRows {
		return "", 0, nil, nil, nil
	}
	if err != nil {
		return "", 0, nil, nil, err
	}
	rows, err := p.db.Query(`SELECT chunk_id, document_id, title, source_kind, chunk_index, text, vector
		FROM chunks ORDER BY rowid`)
	if err != nil {
		return "", 0, nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Title, &c.SourceKind, &c.Index, &c.Text, &blob); err != nil {
			return "", 0, nil, nil, err
		}
		vec, err := blobToVector(blob)
		if err != nil {
			return "", 0, nil, nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		if len(vec) != dim {
			return "", 0, nil, nil, fmt.Errorf("chunk %s: vector dimension %d, meta says %d", c.ID, len(vec), dim)
		}
		chunks = append(chunks, c)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return "", 0, nil, nil, err
	}
	return tag, dim, chunks, vectors, nil
}

// save appends the given chunks and upserts the backend tag in one transaction.
func (p *persister) save(tag string, dim int, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch")
	}
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (id, embedder, dimension) VALUES (1, ?, ?)`, tag, dim); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO chunks
		(chunk_id, document_id, title, source_kind, chunk_index, text, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range chunks {
		if _, err := stmt.Exec(c.ID, c.DocumentID, c.Title, c.SourceKind, c.Index, c.Text, vectorToBlob(vectors[i])); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func vectorToBlob(vec []float64) []byte {
	blob := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

func blobToVector(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 8", len(blob))
	}
	vec := make([]float64, len(blob)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return vec, nil
}
