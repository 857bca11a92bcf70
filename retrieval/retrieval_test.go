package retrieval

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/fabfab/rail-assist/config"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

type stubStore struct {
	byCollection map[string][]Chunk
	err          error
}

func (s *stubStore) SimilarChunks(ctx context.Context, collection string, embedding []float32, limit int) ([]Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	chunks := s.byCollection[collection]
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

func testSelector() Selector {
	return NewSelector(config.RetrievalConfig{
		RailwayCollection:     "railway_document_embeddings",
		DoorControlCollection: "door_control_embeddings",
	})
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSelectorCollections(t *testing.T) {
	s := testSelector()

	cases := []struct {
		token string
		want  []string
	}{
		{"door_control", []string{"door_control_embeddings"}},
		{"door", []string{"door_control_embeddings"}},
		{"maintenance", []string{"door_control_embeddings"}},
		{"railway", []string{"railway_document_embeddings"}},
		{"", []string{"railway_document_embeddings"}},
		{"combined", []string{"railway_document_embeddings", "door_control_embeddings"}},
	}
	for _, tc := range cases {
		got := s.Collections(tc.token)
		if len(got) != len(tc.want) {
			t.Fatalf("token %q: expected %v, got %v", tc.token, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("token %q: expected %v, got %v", tc.token, tc.want, got)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	if Normalize(" Door ") != TypeDoorControl {
		t.Fatal("expected door to normalize to door_control")
	}
	if Normalize("anything-else") != TypeRailway {
		t.Fatal("expected unknown tokens to normalize to railway")
	}
}

func TestRetrievePoolsAndReRanksAcrossCollections(t *testing.T) {
	store := &stubStore{byCollection: map[string][]Chunk{
		"railway_document_embeddings": {
			{ID: "r1", Score: 0.9},
			{ID: "r2", Score: 0.3},
		},
		"door_control_embeddings": {
			{ID: "d1", Score: 0.7},
			{ID: "d2", Score: 0.5},
		},
	}}
	r := NewRetriever(store, &stubEmbedder{vectors: [][]float32{{0.1, 0.2}}}, testSelector(), testLogger())

	chunks, err := r.Retrieve(context.Background(), "question", "combined", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"r1", "d1", "d2"}
	if len(chunks) != len(wantOrder) {
		t.Fatalf("expected %d chunks, got %d", len(wantOrder), len(chunks))
	}
	for i, id := range wantOrder {
		if chunks[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, chunks[i].ID)
		}
	}
}

func TestRetrieveEmbedsQueryOnce(t *testing.T) {
	embedder := &stubEmbedder{vectors: [][]float32{{0.1}}}
	r := NewRetriever(&stubStore{byCollection: map[string][]Chunk{}}, embedder, testSelector(), testLogger())

	if _, err := r.Retrieve(context.Background(), "question", "combined", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected a single embed call, got %d", embedder.calls)
	}
}

func TestRetrieveEmptyResultIsNotAnError(t *testing.T) {
	r := NewRetriever(&stubStore{byCollection: map[string][]Chunk{}}, &stubEmbedder{vectors: [][]float32{{0.1}}}, testSelector(), testLogger())

	chunks, err := r.Retrieve(context.Background(), "question", "door_control", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestRetrievePropagatesStoreError(t *testing.T) {
	storeErr := errors.New("store unavailable")
	r := NewRetriever(&stubStore{err: storeErr}, &stubEmbedder{vectors: [][]float32{{0.1}}}, testSelector(), testLogger())

	if _, err := r.Retrieve(context.Background(), "question", "railway", 5); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestAssembleEmpty(t *testing.T) {
	if got := Assemble(nil); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestAssembleLabelsChunksInOrder(t *testing.T) {
	got := Assemble([]Chunk{
		{Content: "First passage."},
		{Content: "Second passage."},
	})
	want := "Document 1:\nFirst passage.\n\nDocument 2:\nSecond passage."
	if got != want {
		t.Fatalf("unexpected context:\n%q\nwant:\n%q", got, want)
	}
}
