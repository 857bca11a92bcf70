// Package answer drives the adaptive answer pipeline: level classification,
// context retrieval, level-conditioned prompting, and the bounded retry loop
// that keeps the final answer inside the display budget.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fabfab/rail-assist/knowledge"
	"github.com/fabfab/rail-assist/level"
	"github.com/fabfab/rail-assist/llm"
	"github.com/fabfab/rail-assist/retrieval"
)

// NoInformationAnswer is the fixed terminal answer returned when retrieval
// finds nothing. The generation service is never called in that case.
const NoInformationAnswer = "I could not find relevant information in the available documents to answer your question."

// condensedNote is appended to the degraded fallback so a truncated answer
// is never indistinguishable from a naturally short one.
const condensedNote = "\n\n[Condensed to fit the display. The full answer is retained in the service logs.]"

// GenerationError reports a language-model failure. Transport failures are
// never retried; the error carries the attempt it surfaced on.
type GenerationError struct {
	Attempt int
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation attempt %d: %v", e.Attempt, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Retriever is the slice of the retrieval package the service depends on.
type Retriever interface {
	Retrieve(ctx context.Context, question, documentType string, k int) ([]retrieval.Chunk, error)
}

// Catalog annotates answer sources with document-level insight. It is
// optional and best-effort: catalog failures are logged, never surfaced.
type Catalog interface {
	DocumentInsights(ctx context.Context, docIDs []string) (map[string]knowledge.Insight, error)
}

// Source identifies a document that backed the answer.
type Source struct {
	DocumentID string
	Title      string
	Path       string
	Collection string
	Score      float64
	ChunkCount int
	FirstPage  int
	LastPage   int
}

// Result is what callers receive for a successful answer request.
type Result struct {
	Answer       string
	Level        level.Level
	Confidence   level.Confidence
	DocumentType string
	LengthChars  int
	AutoDetected bool
	Sources      []Source
}

// Service wires the pipeline together. It is stateless between requests;
// every dependency it holds is safe for concurrent use.
type Service struct {
	classifier *level.Classifier
	retriever  Retriever
	catalog    Catalog
	llm        llm.Client
	prompts    *PromptBuilder
	budget     Budget
	k          int
	logger     *log.Logger
}

func NewService(classifier *level.Classifier, retriever Retriever, catalog Catalog, llmClient llm.Client, budget Budget, k int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if k <= 0 {
		k = 8
	}
	return &Service{
		classifier: classifier,
		retriever:  retriever,
		catalog:    catalog,
		llm:        llmClient,
		prompts:    NewPromptBuilder(budget),
		budget:     budget.withDefaults(),
		k:          k,
		logger:     logger,
	}
}

// Classify exposes the level classifier for callers that want the verdict
// without generating an answer.
func (s *Service) Classify(question string) level.Result {
	return s.classifier.Classify(question)
}

// Answer runs the full pipeline. Pass an empty level to auto-detect from the
// question text; the result reports which level was used and whether it was
// detected.
func (s *Service) Answer(ctx context.Context, question, documentType string, lvl level.Level) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, fmt.Errorf("question cannot be empty")
	}
	if s.llm == nil {
		return Result{}, fmt.Errorf("llm client is not configured")
	}
	if s.retriever == nil {
		return Result{}, fmt.Errorf("retriever is not configured")
	}

	docType := retrieval.Normalize(documentType)

	autoDetected := false
	var confidence level.Confidence
	if lvl == "" {
		detected := s.classifier.Classify(question)
		lvl = detected.Level
		confidence = detected.Confidence
		autoDetected = true
		s.logger.Printf("auto-detected user level %s (%s confidence, score %.1f)", lvl, detected.Confidence, detected.Score)
	} else if !lvl.Valid() {
		return Result{}, fmt.Errorf("unknown user level %q", lvl)
	}

	chunks, err := s.retriever.Retrieve(ctx, question, docType, s.k)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve context: %w", err)
	}

	if len(chunks) == 0 {
		s.logger.Printf("no context found for question, returning no-information answer")
		return Result{
			Answer:       NoInformationAnswer,
			Level:        lvl,
			Confidence:   confidence,
			DocumentType: docType,
			LengthChars:  utf8.RuneCountInString(NoInformationAnswer),
			AutoDetected: autoDetected,
		}, nil
	}

	contextBlock := retrieval.Assemble(chunks)

	text, err := s.generate(ctx, question, lvl, contextBlock)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Answer:       text,
		Level:        lvl,
		Confidence:   confidence,
		DocumentType: docType,
		LengthChars:  utf8.RuneCountInString(text),
		AutoDetected: autoDetected,
		Sources:      s.sources(ctx, chunks),
	}, nil
}

// generate runs the bounded retry loop. Each retry summarizes the previous
// attempt's answer, so every pass works on strictly less raw material and
// converges toward the budget. Only size violations are retried; transport
// errors propagate immediately.
func (s *Service) generate(ctx context.Context, question string, lvl level.Level, contextBlock string) (string, error) {
	prompt := s.prompts.Build(question, lvl, contextBlock)
	attempts := s.budget.MaxRetries + 1

	var text string
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := s.llm.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
		if err != nil {
			return "", &GenerationError{Attempt: attempt, Err: err}
		}

		text = strings.TrimSpace(raw)
		if text == "" {
			return "", &GenerationError{Attempt: attempt, Err: errors.New("llm returned an empty completion")}
		}

		length := utf8.RuneCountInString(text)
		if length <= s.budget.MaxChars {
			return text, nil
		}

		if attempt < attempts {
			s.logger.Printf("attempt %d answer is %d chars, over the %d budget; requesting summarization", attempt, length, s.budget.MaxChars)
			prompt = s.prompts.BuildSummarization(text, question, lvl)
		}
	}

	s.logger.Printf("retry budget exhausted, condensing answer; full text follows\n%s", text)
	return s.condense(text), nil
}

// condense is the deterministic degraded fallback: the last answer is cut to
// the budget minus the annotation and the annotation is appended.
func (s *Service) condense(text string) string {
	keep := s.budget.MaxChars - utf8.RuneCountInString(condensedNote)
	if keep < 0 {
		keep = 0
	}

	runes := []rune(text)
	if len(runes) > keep {
		runes = runes[:keep]
	}

	return strings.TrimRight(string(runes), " \n\t") + condensedNote
}

// sources groups the retrieved chunks by document, keeps each document's
// best score, and annotates with catalog insight when available.
func (s *Service) sources(ctx context.Context, chunks []retrieval.Chunk) []Source {
	grouped := make(map[string]*Source, len(chunks))
	order := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		src, ok := grouped[chunk.DocumentID]
		if !ok {
			src = &Source{
				DocumentID: chunk.DocumentID,
				Title:      chunk.Title,
				Path:       chunk.Path,
				Collection: chunk.Collection,
				Score:      chunk.Score,
			}
			grouped[chunk.DocumentID] = src
			order = append(order, chunk.DocumentID)
		} else if chunk.Score > src.Score {
			src.Score = chunk.Score
		}
	}

	if s.catalog != nil {
		insights, err := s.catalog.DocumentInsights(ctx, order)
		if err != nil {
			s.logger.Printf("catalog insights error: %v", err)
		} else {
			for id, insight := range insights {
				if src, ok := grouped[id]; ok {
					src.ChunkCount = insight.ChunkCount
					src.FirstPage = insight.FirstPage
					src.LastPage = insight.LastPage
					if src.Collection == "" {
						src.Collection = insight.Collection
					}
				}
			}
		}
	}

	sources := make([]Source, 0, len(grouped))
	for _, id := range order {
		sources = append(sources, *grouped[id])
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Score > sources[j].Score
	})
	return sources
}
