package level

import (
	"sort"
	"strings"
	"unicode"
)

// Result reports a classification together with the evidence behind it, so
// callers can audit why a question landed on a level.
type Result struct {
	Level      Level      `json:"level"`
	Confidence Confidence `json:"confidence"`
	Score      float64    `json:"score"`

	ExpertTerms         []string `json:"expertTerms"`
	ExpertTermCount     int      `json:"expertTermCount"`
	BeginnerPhraseCount int      `json:"beginnerPhraseCount"`
	ExpertPhraseCount   int      `json:"expertPhraseCount"`
	WordCount           int      `json:"wordCount"`
}

// Classifier scores a question's lexical features against a taxonomy.
// It is stateless after construction and safe for concurrent use.
type Classifier struct {
	tax   Taxonomy
	terms map[string]struct{}
}

func NewClassifier(tax Taxonomy) *Classifier {
	terms := make(map[string]struct{}, len(tax.ExpertTerms))
	for _, term := range tax.ExpertTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			terms[term] = struct{}{}
		}
	}
	return &Classifier{tax: tax, terms: terms}
}

// Classify never fails: a blank or otherwise unscoreable question resolves
// to beginner with low confidence, the safe default.
func (c *Classifier) Classify(question string) Result {
	lowered := strings.ToLower(strings.TrimSpace(question))
	if lowered == "" {
		return Result{Level: Beginner, Confidence: ConfidenceLow}
	}

	tokens := tokenize(lowered)

	matched := make([]string, 0)
	for _, token := range tokens {
		if _, ok := c.terms[token]; ok {
			matched = append(matched, token)
		}
	}
	sort.Strings(matched)

	beginnerPhrases := countSubstrings(lowered, c.tax.BeginnerPhrases)
	expertPhrases := countSubstrings(lowered, c.tax.ExpertPhrases)
	wordCount := len(strings.Fields(question))

	score := c.tax.TermWeight*float64(len(matched)) +
		c.tax.ExpertPhraseWeight*float64(expertPhrases) -
		c.tax.BeginnerPhraseWeight*float64(beginnerPhrases) +
		c.tax.WordCountWeight*float64(wordCount)

	result := Result{
		Score:               score,
		ExpertTerms:         matched,
		ExpertTermCount:     len(matched),
		BeginnerPhraseCount: beginnerPhrases,
		ExpertPhraseCount:   expertPhrases,
		WordCount:           wordCount,
	}

	switch {
	case score >= c.tax.ExpertThreshold:
		result.Level = Expert
		result.Confidence = ConfidenceMedium
		if score >= c.tax.ExpertHighThreshold {
			result.Confidence = ConfidenceHigh
		}
	case score <= c.tax.BeginnerThreshold:
		result.Level = Beginner
		result.Confidence = ConfidenceMedium
		if score <= c.tax.BeginnerHighThreshold {
			result.Confidence = ConfidenceHigh
		}
	default:
		// Ambiguous band. Technical vocabulary with no beginner phrasing
		// tips toward expert; everything else defaults to beginner.
		result.Confidence = ConfidenceLow
		if len(matched) > 0 && beginnerPhrases == 0 {
			result.Level = Expert
		} else {
			result.Level = Beginner
		}
	}

	return result
}

// tokenize returns the distinct word tokens of an already-lowercased string.
// Splitting follows word boundaries; punctuation is discarded.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

func countSubstrings(s string, phrases []string) int {
	count := 0
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(s, phrase) {
			count++
		}
	}
	return count
}
