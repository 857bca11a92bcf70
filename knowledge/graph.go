// Package knowledge maintains the Neo4j catalog that mirrors ingested
// documents: which collection each document lives in, its chunks, and the
// page span they cover. The catalog exists for traceability; retrieval
// itself runs entirely against Postgres.
package knowledge

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Document struct {
	ID           string
	Path         string
	Title        string
	SHA          string
	Collection   string
	DocumentType string
	Chunks       []Chunk
}

type Chunk struct {
	ID    string
	Index int
	Page  int
	Text  string
}

// Insight summarizes what the catalog knows about one document.
type Insight struct {
	ChunkCount int
	Collection string
	FirstPage  int
	LastPage   int
}

// SyncDocument replaces the catalog entry for a document: the document node
// is upserted, its chunk nodes are rebuilt, and it is linked to its
// collection node.
func SyncDocument(ctx context.Context, driver neo4j.DriverWithContext, doc Document) error {
	if driver == nil {
		return fmt.Errorf("neo4j driver is nil")
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (d:Document {id: $id})
			SET d.path = $path,
			    d.title = $title,
			    d.sha256 = $sha,
			    d.document_type = $doc_type,
			    d.updated_at = datetime()
		`, map[string]any{
			"id":       doc.ID,
			"path":     doc.Path,
			"title":    doc.Title,
			"sha":      doc.SHA,
			"doc_type": doc.DocumentType,
		}); err != nil {
			return nil, fmt.Errorf("upsert document node: %w", err)
		}

		if _, err := tx.Run(ctx, `
			MATCH (d:Document {id: $id})-[r:IN_COLLECTION]->(:Collection)
			DELETE r
		`, map[string]any{"id": doc.ID}); err != nil {
			return nil, fmt.Errorf("remove stale collection relation: %w", err)
		}
		if _, err := tx.Run(ctx, `
			MATCH (d:Document {id: $id})
			MERGE (c:Collection {name: $collection})
			MERGE (d)-[:IN_COLLECTION]->(c)
		`, map[string]any{"id": doc.ID, "collection": doc.Collection}); err != nil {
			return nil, fmt.Errorf("upsert collection relation: %w", err)
		}

		if _, err := tx.Run(ctx, `
			MATCH (d:Document {id: $id})-[:HAS_CHUNK]->(c:Chunk)
			DETACH DELETE c
		`, map[string]any{"id": doc.ID}); err != nil {
			return nil, fmt.Errorf("clear existing chunk nodes: %w", err)
		}

		for _, chunk := range doc.Chunks {
			if _, err := tx.Run(ctx, `
				MATCH (d:Document {id: $doc_id})
				MERGE (c:Chunk {id: $chunk_id})
				SET c.index = $chunk_index,
				    c.page = $chunk_page,
				    c.text = $chunk_text
				MERGE (d)-[:HAS_CHUNK {order: $chunk_index}]->(c)
			`, map[string]any{
				"doc_id":      doc.ID,
				"chunk_id":    chunk.ID,
				"chunk_index": chunk.Index,
				"chunk_page":  chunk.Page,
				"chunk_text":  chunk.Text,
			}); err != nil {
				return nil, fmt.Errorf("upsert chunk node: %w", err)
			}
		}

		return nil, nil
	})
	if err != nil {
		return err
	}

	// Collections with no remaining documents are noise; drop them.
	if _, err := session.Run(ctx, `
		MATCH (c:Collection)
		WHERE NOT (c)<-[:IN_COLLECTION]-(:Document)
		DELETE c
	`, nil); err != nil {
		return fmt.Errorf("cleanup empty collections: %w", err)
	}

	return nil
}

// Purge removes every catalog node. Used by the clear command.
func Purge(ctx context.Context, driver neo4j.DriverWithContext) error {
	if driver == nil {
		return fmt.Errorf("neo4j driver is nil")
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	queries := []string{
		"MATCH (d:Document) DETACH DELETE d",
		"MATCH (c:Chunk) DETACH DELETE c",
		"MATCH (c:Collection) DETACH DELETE c",
	}

	for _, query := range queries {
		result, err := session.Run(ctx, query, nil)
		if err != nil {
			return err
		}
		if _, err := result.Consume(ctx); err != nil {
			return err
		}
	}
	return nil
}
