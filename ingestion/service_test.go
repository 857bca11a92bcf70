package ingestion

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/fabfab/rail-assist/config"
	"github.com/fabfab/rail-assist/knowledge"
	"github.com/fabfab/rail-assist/retrieval"
)

type stubDocStore struct {
	changed bool
	saveErr error
	chunks  []knowledge.Chunk
	loadErr error

	saveCalls int
	loadCalls int
}

func (s *stubDocStore) Prepare(ctx context.Context) error { return nil }

func (s *stubDocStore) SaveDocument(ctx context.Context, rec DocumentRecord, fragments []Fragment, vectors [][]float32) (uuid.UUID, bool, error) {
	s.saveCalls++
	if s.saveErr != nil {
		return uuid.Nil, false, s.saveErr
	}
	return uuid.MustParse("11111111-1111-1111-1111-111111111111"), s.changed, nil
}

func (s *stubDocStore) LoadChunks(ctx context.Context, docID uuid.UUID) ([]knowledge.Chunk, error) {
	s.loadCalls++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.chunks, nil
}

type stubCatalogSync struct {
	failPath string
	err      error

	calls int
	last  knowledge.Document
}

func (s *stubCatalogSync) SyncDocument(ctx context.Context, doc knowledge.Document) error {
	s.calls++
	s.last = doc
	if s.err != nil && (s.failPath == "" || s.failPath == doc.Path) {
		return s.err
	}
	return nil
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func testIngestService(store Store, catalog CatalogSync, embedder *stubEmbedder) *Service {
	selector := retrieval.NewSelector(config.RetrievalConfig{
		RailwayCollection:     "railway_document_embeddings",
		DoorControlCollection: "door_control_embeddings",
	})
	return newService(store, catalog, embedder, selector, log.New(io.Discard, "", 0))
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestIngestSyncsCatalogForUnchangedDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.md", "# Door Guide\n\nIsolate before servicing.")

	store := &stubDocStore{
		changed: false,
		chunks:  []knowledge.Chunk{{ID: "c1", Index: 0, Page: 0, Text: "Isolate before servicing."}},
	}
	catalog := &stubCatalogSync{}
	svc := testIngestService(store, catalog, &stubEmbedder{})

	if err := svc.IngestDirectory(context.Background(), dir, "door_control"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// An unchanged document must still reach the catalog: a previous run may
	// have committed the chunks and then failed to sync.
	if catalog.calls != 1 {
		t.Fatalf("expected one catalog sync, got %d", catalog.calls)
	}
	if store.loadCalls != 1 {
		t.Fatalf("expected the stored chunks to be loaded, got %d calls", store.loadCalls)
	}
	if len(catalog.last.Chunks) != 1 || catalog.last.Chunks[0].ID != "c1" {
		t.Fatalf("catalog received wrong chunk set: %+v", catalog.last.Chunks)
	}
	if catalog.last.Path != "guide.md" {
		t.Fatalf("catalog received wrong path: %q", catalog.last.Path)
	}
}

func TestIngestCatalogFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.md", "# Door Guide\n\nIsolate before servicing.")

	store := &stubDocStore{changed: true, chunks: []knowledge.Chunk{{ID: "c1"}}}
	catalog := &stubCatalogSync{err: errors.New("neo4j down")}
	svc := testIngestService(store, catalog, &stubEmbedder{})

	if err := svc.IngestDirectory(context.Background(), dir, "door_control"); err == nil {
		t.Fatal("expected error when the only document fails to sync")
	}
}

func TestIngestAllFilesFailingIsAnError(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "one.md", "# One\n\nBody.")
	writeDoc(t, dir, "two.md", "# Two\n\nBody.")

	store := &stubDocStore{}
	catalog := &stubCatalogSync{}
	svc := testIngestService(store, catalog, &stubEmbedder{err: errors.New("embedder down")})

	if err := svc.IngestDirectory(context.Background(), dir, "door_control"); err == nil {
		t.Fatal("expected error when every document fails")
	}
}

func TestIngestPartialFailureStillSucceeds(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "good.md", "# Good\n\nBody.")
	writeDoc(t, dir, "stuck.md", "# Stuck\n\nBody.")

	store := &stubDocStore{changed: true, chunks: []knowledge.Chunk{{ID: "c1"}}}
	catalog := &stubCatalogSync{failPath: "stuck.md", err: errors.New("neo4j hiccup")}
	svc := testIngestService(store, catalog, &stubEmbedder{})

	if err := svc.IngestDirectory(context.Background(), dir, "door_control"); err != nil {
		t.Fatalf("one failure out of two must not abort the batch: %v", err)
	}
	if catalog.calls != 2 {
		t.Fatalf("expected both documents to attempt a sync, got %d", catalog.calls)
	}
}

func TestIngestMissingDirectory(t *testing.T) {
	svc := testIngestService(&stubDocStore{}, &stubCatalogSync{}, &stubEmbedder{})
	if err := svc.IngestDirectory(context.Background(), "/does/not/exist", "door_control"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
