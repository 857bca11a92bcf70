package knowledge

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Catalog reads per-document insights back out of the graph.
type Catalog struct {
	driver neo4j.DriverWithContext
}

func NewCatalog(driver neo4j.DriverWithContext) *Catalog {
	return &Catalog{driver: driver}
}

// DocumentInsights returns chunk counts, collection membership and page
// spans for the given document IDs. Unknown IDs are simply absent from the
// result map.
func (c *Catalog) DocumentInsights(ctx context.Context, docIDs []string) (map[string]Insight, error) {
	if c.driver == nil {
		return nil, fmt.Errorf("neo4j driver is nil")
	}
	if len(docIDs) == 0 {
		return map[string]Insight{}, nil
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (d:Document)
		WHERE d.id IN $ids
		OPTIONAL MATCH (d)-[:HAS_CHUNK]->(ch:Chunk)
		OPTIONAL MATCH (d)-[:IN_COLLECTION]->(col:Collection)
		RETURN d.id AS id,
		       count(DISTINCT ch) AS chunkCount,
		       head(collect(DISTINCT col.name)) AS collection,
		       min(ch.page) AS firstPage,
		       max(ch.page) AS lastPage
	`, map[string]any{"ids": docIDs})
	if err != nil {
		return nil, fmt.Errorf("run catalog insights query: %w", err)
	}

	insights := make(map[string]Insight, len(docIDs))
	for result.Next(ctx) {
		record := result.Record()
		idVal, _ := record.Get("id")
		id, ok := idVal.(string)
		if !ok {
			continue
		}

		countVal, _ := record.Get("chunkCount")
		collectionVal, _ := record.Get("collection")
		firstVal, _ := record.Get("firstPage")
		lastVal, _ := record.Get("lastPage")

		insight := Insight{}
		if n, ok := toInt(countVal); ok {
			insight.ChunkCount = n
		}
		if s, ok := collectionVal.(string); ok {
			insight.Collection = s
		}
		if n, ok := toInt(firstVal); ok {
			insight.FirstPage = n
		}
		if n, ok := toInt(lastVal); ok {
			insight.LastPage = n
		}

		insights[id] = insight
	}

	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("catalog insights result error: %w", err)
	}

	return insights, nil
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
