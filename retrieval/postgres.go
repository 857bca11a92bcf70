package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresVectorStore serves similarity search from the pgvector-backed
// chunk table, scoped to a single collection per query.
type PostgresVectorStore struct {
	pool *pgxpool.Pool
}

func NewPostgresVectorStore(pool *pgxpool.Pool) *PostgresVectorStore {
	return &PostgresVectorStore{pool: pool}
}

func (s *PostgresVectorStore) SimilarChunks(ctx context.Context, collection string, embedding []float32, limit int) ([]Chunk, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is empty")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if limit <= 0 {
		limit = defaultK
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := limit * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT
            rc.id,
            rc.document_id,
            rd.title,
            rd.source_path,
            rd.collection,
            rd.document_type,
            COALESCE(rc.page, 0),
            rc.chunk_index,
            rc.content,
            (rc.embedding <-> $1::vector) AS distance
        FROM rag_chunks rc
        JOIN rag_documents rd ON rd.id = rc.document_id
        WHERE rd.collection = $2
        ORDER BY rc.embedding <-> $1::vector
        LIMIT $3
    `, pgvector.NewVector(embedding), collection, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	results := make([]Chunk, 0, limit)
	for rows.Next() {
		var item Chunk
		var distance float64
		if scanErr := rows.Scan(&item.ID, &item.DocumentID, &item.Title, &item.Path, &item.Collection, &item.DocumentType, &item.Page, &item.Index, &item.Content, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		item.Score = 1 / (1 + distance)
		results = append(results, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

var _ VectorStore = (*PostgresVectorStore)(nil)
