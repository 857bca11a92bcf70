package ingestion

import "strings"

const (
	defaultChunkSize    = 2000
	defaultChunkOverlap = 400
)

// Fragment is a chunk of source text ready for embedding, tagged with the
// page it came from.
type Fragment struct {
	Text string
	Page int
}

// ChunkPages splits each page into fragments of roughly target characters by
// packing paragraphs, carrying the tail paragraphs of one fragment into the
// next until the overlap budget is covered. Fragments never span pages.
func ChunkPages(pages []Page, target, overlap int) []Fragment {
	if target <= 0 {
		target = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	fragments := make([]Fragment, 0)
	for _, page := range pages {
		for _, text := range chunkText(page.Text, target, overlap) {
			fragments = append(fragments, Fragment{Text: text, Page: page.Number})
		}
	}
	return fragments
}

func chunkText(content string, target, overlap int) []string {
	paragraphs := splitParagraphs(content)
	if len(paragraphs) == 0 {
		return nil
	}

	chunks := make([]string, 0)
	current := make([]string, 0)
	currentLen := 0

	for _, p := range paragraphs {
		if currentLen+len(p) > target && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current, currentLen = carryOverlap(current, overlap)
		}
		current = append(current, p)
		currentLen += len(p)
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}

	return chunks
}

// carryOverlap keeps the trailing paragraphs of a finished chunk as the seed
// of the next one, up to the overlap budget.
func carryOverlap(current []string, overlap int) ([]string, int) {
	if overlap <= 0 {
		return nil, 0
	}

	kept := make([]string, 0)
	keptLen := 0
	for i := len(current) - 1; i >= 0; i-- {
		p := current[i]
		if keptLen+len(p) > overlap && keptLen > 0 {
			break
		}
		kept = append([]string{p}, kept...)
		keptLen += len(p)
	}
	return kept, keptLen
}

func splitParagraphs(content string) []string {
	raw := strings.Split(content, "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
