// Package retrieval selects the supporting passages for a question: it
// embeds the query, searches the configured collections, and renders the
// ordered chunks into a context block for generation.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/fabfab/rail-assist/embeddings"
)

// Chunk is the atomic unit returned by similarity search. Chunks are owned
// by the document store; the pipeline only reads them.
type Chunk struct {
	ID           string
	DocumentID   string
	Title        string
	Path         string
	Collection   string
	DocumentType string
	Page         int
	Index        int
	Content      string
	Score        float64
}

// VectorStore is the sole read operation the retriever depends on. Results
// come back ordered by similarity, most relevant first.
type VectorStore interface {
	SimilarChunks(ctx context.Context, collection string, embedding []float32, limit int) ([]Chunk, error)
}

// Retriever embeds questions once and fans the search out over the
// collections the document type selects.
type Retriever struct {
	store    VectorStore
	embedder embeddings.Embedder
	selector Selector
	logger   *log.Logger
}

func NewRetriever(store VectorStore, embedder embeddings.Embedder, selector Selector, logger *log.Logger) *Retriever {
	if logger == nil {
		logger = log.Default()
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		selector: selector,
		logger:   logger,
	}
}

// Retrieve returns at most k chunks ordered by combined relevance. An empty
// result is a valid outcome, not an error; only store or embedder failures
// propagate.
func (r *Retriever) Retrieve(ctx context.Context, question, documentType string, k int) ([]Chunk, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("embedder is not configured")
	}
	if r.store == nil {
		return nil, fmt.Errorf("vector store is not configured")
	}
	if k <= 0 {
		k = defaultK
	}

	collections := r.selector.Collections(documentType)
	if len(collections) == 0 {
		return nil, fmt.Errorf("no collections mapped for document type %q", documentType)
	}

	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	query := vectors[0]

	pooled := make([]Chunk, 0, k*len(collections))
	for _, collection := range collections {
		chunks, err := r.store.SimilarChunks(ctx, collection, query, k)
		if err != nil {
			return nil, fmt.Errorf("search collection %s: %w", collection, err)
		}
		pooled = append(pooled, chunks...)
	}

	// A multi-collection query pools the per-collection results and re-ranks
	// them by similarity so the final order reflects combined relevance, not
	// source order.
	if len(collections) > 1 {
		sort.SliceStable(pooled, func(i, j int) bool {
			return pooled[i].Score > pooled[j].Score
		})
	}
	if len(pooled) > k {
		pooled = pooled[:k]
	}

	r.logger.Printf("retrieved %d chunks across %d collection(s) for document type %q", len(pooled), len(collections), documentType)
	return pooled, nil
}

// Assemble renders retrieved chunks into a single delimited context block.
// Each chunk keeps a 1-based ordinal label so a reader can trace which
// passage backs which claim. Empty input yields an empty string, which the
// caller must treat as "no grounding available".
func Assemble(chunks []Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = fmt.Sprintf("Document %d:\n%s", i+1, chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}

const defaultK = 8
