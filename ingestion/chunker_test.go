package ingestion

import (
	"strings"
	"testing"
)

func TestChunkPagesEmptyInput(t *testing.T) {
	if got := ChunkPages(nil, 2000, 400); len(got) != 0 {
		t.Fatalf("expected no fragments, got %d", len(got))
	}
	if got := ChunkPages([]Page{{Number: 1, Text: "   \n\n  "}}, 2000, 400); len(got) != 0 {
		t.Fatalf("expected no fragments for blank page, got %d", len(got))
	}
}

func TestChunkPagesShortPageSingleFragment(t *testing.T) {
	fragments := ChunkPages([]Page{{Number: 3, Text: "Short paragraph."}}, 2000, 400)
	if len(fragments) != 1 {
		t.Fatalf("expected one fragment, got %d", len(fragments))
	}
	if fragments[0].Text != "Short paragraph." {
		t.Fatalf("unexpected fragment text: %q", fragments[0].Text)
	}
	if fragments[0].Page != 3 {
		t.Fatalf("expected page 3, got %d", fragments[0].Page)
	}
}

func TestChunkPagesSplitsLongPage(t *testing.T) {
	para := strings.Repeat("a", 300)
	text := strings.Join([]string{para, para, para, para, para}, "\n\n")

	fragments := ChunkPages([]Page{{Number: 1, Text: text}}, 700, 0)
	if len(fragments) < 2 {
		t.Fatalf("expected the page to split, got %d fragments", len(fragments))
	}
	for i, f := range fragments {
		if len(f.Text) > 700+2 {
			t.Fatalf("fragment %d is %d chars, over the target", i, len(f.Text))
		}
	}
}

func TestChunkPagesCarriesOverlap(t *testing.T) {
	first := "First paragraph " + strings.Repeat("x", 300)
	second := "Second paragraph " + strings.Repeat("y", 300)
	third := "Third paragraph " + strings.Repeat("z", 300)

	fragments := ChunkPages([]Page{{Number: 1, Text: first + "\n\n" + second + "\n\n" + third}}, 650, 400)
	if len(fragments) < 2 {
		t.Fatalf("expected at least two fragments, got %d", len(fragments))
	}

	// The paragraph that closed the first fragment must re-open the second.
	if !strings.HasSuffix(fragments[0].Text, second) {
		t.Fatalf("expected the first fragment to end with the second paragraph:\n%q", fragments[0].Text)
	}
	if !strings.HasPrefix(fragments[1].Text, second) {
		t.Fatalf("expected the overlap paragraph to seed the next fragment:\n%q", fragments[1].Text)
	}
}

func TestChunkPagesNeverSpansPages(t *testing.T) {
	fragments := ChunkPages([]Page{
		{Number: 1, Text: "Page one content."},
		{Number: 2, Text: "Page two content."},
	}, 2000, 400)

	if len(fragments) != 2 {
		t.Fatalf("expected one fragment per page, got %d", len(fragments))
	}
	if fragments[0].Page != 1 || fragments[1].Page != 2 {
		t.Fatalf("fragments carry wrong pages: %d, %d", fragments[0].Page, fragments[1].Page)
	}
	if strings.Contains(fragments[0].Text, "Page two") {
		t.Fatal("fragment must not mix content across pages")
	}
}
