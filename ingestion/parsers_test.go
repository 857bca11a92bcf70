package ingestion

import (
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path string
		want DocumentFormat
	}{
		{"docs/door_control.pdf", FormatPDF},
		{"docs/DOOR_CONTROL.PDF", FormatPDF},
		{"notes/readme.md", FormatMarkdown},
		{"notes/guide.markdown", FormatMarkdown},
		{"archive/data.docx", FormatUnknown},
		{"noextension", FormatUnknown},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.path); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.path, tc.want, got)
		}
	}
}

func TestParseRejectsUnsupportedFormat(t *testing.T) {
	if _, err := Parse("image.png", []byte("binary")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseMarkdownTitleAndPage(t *testing.T) {
	content := "# Door Engine Lubrication\n\nApply grease to the spindle.\r\nWipe excess.\n"
	doc, err := Parse("lubrication.md", []byte(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Door Engine Lubrication" {
		t.Fatalf("expected title from heading, got %q", doc.Title)
	}
	if len(doc.Pages) != 1 || doc.Pages[0].Number != 0 {
		t.Fatalf("expected a single page numbered 0, got %+v", doc.Pages)
	}
	if doc.Pages[0].Text == content {
		t.Fatal("expected line endings to be normalized")
	}
}

func TestParseMarkdownEmptyPayload(t *testing.T) {
	doc, err := Parse("empty.md", []byte("   \n  "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 0 {
		t.Fatalf("expected no pages for blank payload, got %d", len(doc.Pages))
	}
	if doc.Title != "empty.md" {
		t.Fatalf("expected filename fallback title, got %q", doc.Title)
	}
}

func TestExtractTitle(t *testing.T) {
	if got := ExtractTitle("intro text\n## Fault Codes\nbody", "fallback"); got != "Fault Codes" {
		t.Fatalf("expected heading title, got %q", got)
	}
	if got := ExtractTitle("no headings here", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
