// Package ingestion parses maintenance documentation, chunks it, and
// persists chunks with their embeddings to the document store and catalog.
package ingestion

import (
	"path/filepath"
	"strings"
)

// DocumentFormat enumerates supported document payload formats.
type DocumentFormat string

const (
	// FormatUnknown represents an unsupported or undetected format.
	FormatUnknown DocumentFormat = ""
	// FormatPDF represents PDF documents, the primary corpus format.
	FormatPDF DocumentFormat = "pdf"
	// FormatMarkdown represents Markdown documents.
	FormatMarkdown DocumentFormat = "markdown"
)

// DetectFormat infers a document format from the provided path's extension.
func DetectFormat(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatUnknown
	}
}
