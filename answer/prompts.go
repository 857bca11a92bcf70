package answer

import (
	"fmt"
	"unicode/utf8"

	"github.com/fabfab/rail-assist/level"
)

// Budget is the display-size contract a final answer must satisfy. MaxChars
// is the enforced gate; MaxWords is stated inside the prompt so the model
// aims below it, but is never measured. MaxRetries bounds how many times an
// over-budget answer may be re-summarized.
type Budget struct {
	MaxChars   int
	MaxWords   int
	MaxRetries int
}

const (
	defaultMaxChars   = 900
	defaultMaxWords   = 160
	defaultMaxRetries = 2
)

func (b Budget) withDefaults() Budget {
	// A character budget that cannot hold anything beyond the truncation
	// annotation is unusable; the fallback would exceed it on its own.
	if b.MaxChars <= utf8.RuneCountInString(condensedNote) {
		b.MaxChars = defaultMaxChars
	}
	if b.MaxWords <= 0 {
		b.MaxWords = defaultMaxWords
	}
	if b.MaxRetries <= 0 {
		b.MaxRetries = defaultMaxRetries
	}
	return b
}

// PromptBuilder composes the level-conditioned instruction sets. The two
// levels differ in instruction content, not just tone: the beginner prompt
// mandates plain-language restatement of every technical term and explicit
// step ordering, the expert prompt mandates unexplained terminology and
// suppression of explanatory connectives. Building is pure: identical inputs
// produce byte-identical prompts.
type PromptBuilder struct {
	budget Budget
}

func NewPromptBuilder(budget Budget) *PromptBuilder {
	return &PromptBuilder{budget: budget.withDefaults()}
}

// Build composes the first-attempt prompt from the question, the level and
// the assembled context block.
func (p *PromptBuilder) Build(question string, lvl level.Level, context string) string {
	info := lvl.Describe()
	if lvl == level.Expert {
		return fmt.Sprintf(expertTemplate, info.Name, info.Description, context, question, info.Name, p.budget.MaxChars, p.budget.MaxWords)
	}
	return fmt.Sprintf(beginnerTemplate, info.Name, info.Description, context, question, info.Name, p.budget.MaxChars, p.budget.MaxWords)
}

// BuildSummarization composes the retry prompt. It hands the model the
// previous answer as the thing to compress, not the original context: the
// retry must preserve all informational content while cutting to the budget,
// which is what distinguishes summarizing from regenerating.
func (p *PromptBuilder) BuildSummarization(priorAnswer, question string, lvl level.Level) string {
	info := lvl.Describe()
	if lvl == level.Expert {
		return fmt.Sprintf(expertSummarizeTemplate, info.Name, question, priorAnswer, p.budget.MaxChars, p.budget.MaxWords)
	}
	return fmt.Sprintf(beginnerSummarizeTemplate, info.Name, question, priorAnswer, p.budget.MaxChars, p.budget.MaxWords)
}

const beginnerTemplate = `You are a railway maintenance trainer helping a %s (%s).

IMPORTANT: You MUST base your answer EXCLUSIVELY on the following document content. Do not add information that is not present in the provided context.

Document content:
%s

User question: %s

Instructions for %s response:
1. Use ONLY the information provided in the document content above
2. Explain technical concepts using simple, everyday language
3. When mentioning technical terms, ALWAYS explain what they mean in simple terms
4. Use clear, step-by-step explanations that someone new to the field can follow
5. Avoid jargon unless absolutely necessary, and when used, explain it
6. Use "you need to", "you should", "first", "then", "finally" for step-by-step guidance
7. Include all relevant safety precautions and explain WHY each step is important

DISPLAY REQUIREMENTS:
- Provide a COMPLETE answer that fits within %[6]d characters and %[7]d words
- Summarize and condense information while maintaining completeness
- Use bullet points or numbered lists for clarity
- Prioritize the most important information first
- DO NOT provide partial answers - ensure the response is complete and self-contained

IMPORTANT: Always respond in English, regardless of the language of the question.
IMPORTANT: If the document content does not contain information relevant to the question, say so clearly.
IMPORTANT: Do not start with phrases like "Okay, here's" or "Sure, here's". Start directly with the answer.
IMPORTANT: Every technical term must be accompanied by a simple explanation.
IMPORTANT: RESPONSE MUST FIT WITHIN %[6]d CHARACTERS ON A SINGLE SCREEN.

Please provide a beginner-friendly answer based on the document content:`

const expertTemplate = `You are a senior railway maintenance expert providing technical support for an %s (%s).

IMPORTANT: You MUST base your answer EXCLUSIVELY on the following document content. Do not add information that is not present in the provided context.

Document content:
%s

User question: %s

Instructions for %s response:
1. Use ONLY the information provided in the document content above
2. Use extensive domain-specific technical terminology and industry jargon
3. Assume the user has deep technical knowledge of railway systems and maintenance procedures
4. Provide precise technical specifications and professional terminology
5. Include technical terms like DCU, fault codes, circuit breakers, TDIC, etc. without explanation
6. Use abbreviated forms and technical shorthand where appropriate
7. Avoid explanatory phrases like "this means", "in other words", "essentially", "basically"

DISPLAY REQUIREMENTS:
- Provide a COMPLETE technical answer that fits within %[6]d characters and %[7]d words
- Summarize and condense technical information while maintaining completeness
- Use bullet points or numbered lists for technical procedures
- Prioritize critical technical information first
- DO NOT provide partial answers - ensure the response is complete and self-contained

IMPORTANT: Always respond in English, regardless of the language of the question.
IMPORTANT: If the document content does not contain information relevant to the question, say so clearly.
IMPORTANT: Do not start with phrases like "Based on the provided documentation" or "Sure, here's". Start directly with the answer.
IMPORTANT: Use maximum technical terminology without explanations.
IMPORTANT: RESPONSE MUST FIT WITHIN %[6]d CHARACTERS ON A SINGLE SCREEN.

Please provide a concise technical answer based on the document content:`

const beginnerSummarizeTemplate = `You are helping a %s with railway maintenance.

The previous response was too long for the display. Please provide a COMPLETE but CONCISE summary.

Original question: %s
Original response: %s

Create a complete summarized answer that:
1. Includes ALL essential information from the original response
2. Uses simple, clear language with explanations of technical terms
3. Fits within %[4]d characters and %[5]d words
4. Uses bullet points or numbered lists for clarity
5. Is complete and self-contained (no partial information)

IMPORTANT: Always respond in English.
IMPORTANT: Start directly with the answer, without any introductory phrase.

Provide the complete summarized answer:`

const expertSummarizeTemplate = `You are providing technical support for an %s.

The previous response was too long for the display. Please provide a COMPLETE but CONCISE technical summary.

Original question: %s
Original response: %s

Create a complete summarized answer that:
1. Includes ALL essential technical information from the original response
2. Uses technical terminology and professional language
3. Fits within %[4]d characters and %[5]d words
4. Uses bullet points or numbered lists for procedures
5. Is complete and self-contained (no partial information)
6. Uses abbreviations and technical shorthand

IMPORTANT: Always respond in English.
IMPORTANT: Start directly with the answer, without any introductory phrase.

Provide the complete technical summarized answer:`
