package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/fabfab/rail-assist/embeddings"
	"github.com/fabfab/rail-assist/knowledge"
	"github.com/fabfab/rail-assist/retrieval"
)

// DocumentRecord is the store-facing identity of a parsed document.
type DocumentRecord struct {
	Path         string
	Title        string
	Collection   string
	DocumentType string
	SHA          string
}

// Store persists documents and their embedded chunks. SaveDocument reports
// whether the content hash moved; LoadChunks returns the stored chunk set in
// index order regardless.
type Store interface {
	Prepare(ctx context.Context) error
	SaveDocument(ctx context.Context, rec DocumentRecord, fragments []Fragment, vectors [][]float32) (docID uuid.UUID, changed bool, err error)
	LoadChunks(ctx context.Context, docID uuid.UUID) ([]knowledge.Chunk, error)
}

// CatalogSync mirrors a stored document into the graph catalog.
type CatalogSync interface {
	SyncDocument(ctx context.Context, doc knowledge.Document) error
}

type graphCatalog struct {
	driver neo4j.DriverWithContext
}

func (g graphCatalog) SyncDocument(ctx context.Context, doc knowledge.Document) error {
	return knowledge.SyncDocument(ctx, g.driver, doc)
}

type Service struct {
	store    Store
	catalog  CatalogSync
	embedder embeddings.Embedder
	selector retrieval.Selector
	logger   *log.Logger
}

func NewService(pool *pgxpool.Pool, driver neo4j.DriverWithContext, embedder embeddings.Embedder, selector retrieval.Selector, logger *log.Logger, dimension int) *Service {
	return newService(NewPostgresStore(pool, dimension), graphCatalog{driver: driver}, embedder, selector, logger)
}

func newService(store Store, catalog CatalogSync, embedder embeddings.Embedder, selector retrieval.Selector, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		store:    store,
		catalog:  catalog,
		embedder: embedder,
		selector: selector,
		logger:   logger,
	}
}

// IngestDirectory walks dir for supported documents and indexes each one
// into the collection the document type selects. Per-file failures are
// logged and skipped so one bad PDF does not abort a batch, but a batch
// where every file failed returns an error.
func (s *Service) IngestDirectory(ctx context.Context, dir, documentType string) error {
	if s.embedder == nil {
		return fmt.Errorf("embedder not configured")
	}
	if err := s.store.Prepare(ctx); err != nil {
		return fmt.Errorf("prepare document store: %w", err)
	}

	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("data directory: %w", err)
	}

	entries := make([]string, 0)
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if DetectFormat(path) != FormatUnknown {
			entries = append(entries, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk data directory: %w", err)
	}

	if len(entries) == 0 {
		s.logger.Printf("no supported documents found in %s", dir)
		return nil
	}

	docType := retrieval.Normalize(documentType)
	collection := s.selector.Primary(docType)

	failed := 0
	for _, path := range entries {
		if err := s.ingestFile(ctx, dir, path, collection, docType); err != nil {
			failed++
			s.logger.Printf("ingest failed for %s: %v", path, err)
		}
	}

	if failed == len(entries) {
		return fmt.Errorf("all %d documents failed to ingest", failed)
	}
	if failed > 0 {
		s.logger.Printf("ingested %d of %d documents", len(entries)-failed, len(entries))
	}

	return nil
}

func (s *Service) ingestFile(ctx context.Context, root, path, collection, docType string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	relPath, relErr := filepath.Rel(root, path)
	if relErr != nil {
		relPath = path
	}
	relPath = filepath.ToSlash(relPath)

	parsed, err := Parse(path, data)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	fragments := ChunkPages(parsed.Pages, defaultChunkSize, defaultChunkOverlap)
	if len(fragments) == 0 {
		s.logger.Printf("skip empty document %s", path)
		return nil
	}

	texts := make([]string, len(fragments))
	for i, fragment := range fragments {
		texts[i] = fragment.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}

	hash := sha256.Sum256(data)
	rec := DocumentRecord{
		Path:         relPath,
		Title:        parsed.Title,
		Collection:   collection,
		DocumentType: docType,
		SHA:          hex.EncodeToString(hash[:]),
	}

	docID, changed, err := s.store.SaveDocument(ctx, rec, fragments, vectors)
	if err != nil {
		return err
	}

	// The catalog is synced on every pass, changed or not. The sync queries
	// are idempotent, and an unchanged document may still be missing from the
	// catalog if an earlier run committed the chunks and then failed to sync.
	chunks, err := s.store.LoadChunks(ctx, docID)
	if err != nil {
		return fmt.Errorf("load stored chunks: %w", err)
	}

	doc := knowledge.Document{
		ID:           docID.String(),
		Path:         rec.Path,
		Title:        rec.Title,
		SHA:          rec.SHA,
		Collection:   rec.Collection,
		DocumentType: rec.DocumentType,
		Chunks:       chunks,
	}
	if err := s.catalog.SyncDocument(ctx, doc); err != nil {
		return fmt.Errorf("sync document catalog: %w", err)
	}

	if changed {
		s.logger.Printf("ingested %s into %s (%d chunks)", relPath, collection, len(chunks))
	} else {
		s.logger.Printf("no content changes for %s; catalog refreshed", relPath)
	}
	return nil
}
