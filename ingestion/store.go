package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/fabfab/rail-assist/database"
	"github.com/fabfab/rail-assist/knowledge"
)

// PostgresStore persists documents and chunks in the pgvector-backed tables.
type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
}

func NewPostgresStore(pool *pgxpool.Pool, dimension int) *PostgresStore {
	return &PostgresStore{pool: pool, dimension: dimension}
}

func (s *PostgresStore) Prepare(ctx context.Context) error {
	return database.EnsureSchema(ctx, s.pool, s.dimension)
}

// SaveDocument upserts the document row and, when the content hash moved,
// rewrites its chunks inside one transaction. An unchanged document commits
// nothing beyond the lookup.
func (s *PostgresStore) SaveDocument(ctx context.Context, rec DocumentRecord, fragments []Fragment, vectors [][]float32) (docID uuid.UUID, changed bool, err error) {
	if len(vectors) != len(fragments) {
		return uuid.Nil, false, fmt.Errorf("embedding count mismatch: have %d fragments, %d embeddings", len(fragments), len(vectors))
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	docID, changed, err = upsertDocument(ctx, tx, rec)
	if err != nil {
		return uuid.Nil, false, err
	}

	if changed {
		if _, err = tx.Exec(ctx, "DELETE FROM rag_chunks WHERE document_id = $1", docID); err != nil {
			return uuid.Nil, false, fmt.Errorf("clear existing chunks: %w", err)
		}

		for idx, fragment := range fragments {
			vec := pgvector.NewVector(vectors[idx])
			if _, err = tx.Exec(ctx, `
				INSERT INTO rag_chunks (id, document_id, chunk_index, page, content, embedding, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			`, uuid.New(), docID, idx, fragment.Page, fragment.Text, vec); err != nil {
				return uuid.Nil, false, fmt.Errorf("insert chunk %d: %w", idx, err)
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, false, fmt.Errorf("commit transaction: %w", err)
	}

	return docID, changed, nil
}

// LoadChunks returns the stored chunk set for a document in index order.
func (s *PostgresStore) LoadChunks(ctx context.Context, docID uuid.UUID) ([]knowledge.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chunk_index, COALESCE(page, 0), content
		FROM rag_chunks
		WHERE document_id = $1
		ORDER BY chunk_index
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("query stored chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]knowledge.Chunk, 0)
	for rows.Next() {
		var chunk knowledge.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.Index, &chunk.Page, &chunk.Text); err != nil {
			return nil, fmt.Errorf("scan stored chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return chunks, nil
}

func upsertDocument(ctx context.Context, tx pgx.Tx, rec DocumentRecord) (uuid.UUID, bool, error) {
	var (
		docID        uuid.UUID
		existingHash string
	)

	err := tx.QueryRow(ctx, "SELECT id, sha256 FROM rag_documents WHERE source_path = $1", rec.Path).Scan(&docID, &existingHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			newID := uuid.New()
			_, execErr := tx.Exec(ctx, `
				INSERT INTO rag_documents (id, source_path, title, collection, document_type, sha256, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			`, newID, rec.Path, rec.Title, rec.Collection, rec.DocumentType, rec.SHA)
			if execErr != nil {
				return uuid.Nil, false, fmt.Errorf("insert document: %w", execErr)
			}
			return newID, true, nil
		}
		return uuid.Nil, false, fmt.Errorf("query document: %w", err)
	}

	if existingHash == rec.SHA {
		return docID, false, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE rag_documents
		SET title = $2,
		    collection = $3,
		    document_type = $4,
		    sha256 = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, docID, rec.Title, rec.Collection, rec.DocumentType, rec.SHA); err != nil {
		return uuid.Nil, false, fmt.Errorf("update document: %w", err)
	}

	return docID, true, nil
}

var _ Store = (*PostgresStore)(nil)
