package ingestion

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Page is a unit of parsed source text. PDF pages keep their 1-based page
// number; markdown documents parse to a single page numbered 0.
type Page struct {
	Number int
	Text   string
}

// ParsedDocument is the format-independent result of parsing a payload.
type ParsedDocument struct {
	Title string
	Pages []Page
}

// Parse dispatches on the detected format of the file at path.
func Parse(path string, data []byte) (*ParsedDocument, error) {
	switch DetectFormat(path) {
	case FormatPDF:
		return parsePDF(path, data)
	case FormatMarkdown:
		return parseMarkdown(path, data), nil
	default:
		return nil, fmt.Errorf("unsupported document format for %s", filepath.Base(path))
	}
}

// parsePDF extracts text page by page so chunks can carry the page they came
// from. Pages without extractable text are skipped.
func parsePDF(path string, data []byte) (*ParsedDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]Page, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from page %d: %w", i, err)
		}
		text = normalizePlainText(text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	title := ""
	if len(pages) > 0 {
		title = firstNonEmptyLine(pages[0].Text)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &ParsedDocument{Title: title, Pages: pages}, nil
}

func parseMarkdown(path string, data []byte) *ParsedDocument {
	content := normalizePlainText(string(data))
	title := ExtractTitle(content, filepath.Base(path))
	if strings.TrimSpace(content) == "" {
		return &ParsedDocument{Title: title}
	}
	return &ParsedDocument{
		Title: title,
		Pages: []Page{{Number: 0, Text: content}},
	}
}

// ExtractTitle returns the first markdown heading, or the fallback when the
// content has none.
func ExtractTitle(content, fallback string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	return fallback
}

func normalizePlainText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

func firstNonEmptyLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
