package answer

import (
	"strings"
	"testing"

	"github.com/fabfab/rail-assist/level"
)

func TestBudgetSmallerThanAnnotationFallsBack(t *testing.T) {
	// 40 runes cannot hold the truncation annotation, let alone an answer.
	b := Budget{MaxChars: 40}.withDefaults()
	if b.MaxChars != 900 {
		t.Fatalf("expected fallback to the default character budget, got %d", b.MaxChars)
	}

	b = Budget{MaxChars: 900}.withDefaults()
	if b.MaxChars != 900 {
		t.Fatalf("expected a usable budget to be kept, got %d", b.MaxChars)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	p := NewPromptBuilder(Budget{})

	first := p.Build("How do I reset the DCU?", level.Beginner, "Document 1:\nReset procedure.")
	second := p.Build("How do I reset the DCU?", level.Beginner, "Document 1:\nReset procedure.")
	if first != second {
		t.Fatal("expected byte-identical prompts for identical inputs")
	}
}

func TestBuildLevelsDifferInInstructionContent(t *testing.T) {
	p := NewPromptBuilder(Budget{})

	beginner := p.Build("question", level.Beginner, "context")
	expert := p.Build("question", level.Expert, "context")

	if !strings.Contains(beginner, "explain what they mean in simple terms") {
		t.Fatal("beginner prompt must mandate plain-language restatement of technical terms")
	}
	if !strings.Contains(beginner, `"first", "then", "finally"`) {
		t.Fatal("beginner prompt must mandate explicit step ordering")
	}
	if !strings.Contains(expert, "without explanation") {
		t.Fatal("expert prompt must leave terminology unexplained")
	}
	if !strings.Contains(expert, `"in other words"`) {
		t.Fatal("expert prompt must suppress explanatory connectives")
	}
	if strings.Contains(expert, "explain what they mean in simple terms") {
		t.Fatal("expert prompt must not carry the beginner instruction set")
	}
}

func TestBuildSharedConstraints(t *testing.T) {
	p := NewPromptBuilder(Budget{MaxChars: 900, MaxWords: 160})

	for _, lvl := range []level.Level{level.Beginner, level.Expert} {
		prompt := p.Build("question", lvl, "context")

		if !strings.Contains(prompt, "EXCLUSIVELY") {
			t.Fatalf("%s prompt must restrict the model to the supplied context", lvl)
		}
		if !strings.Contains(prompt, "Always respond in English") {
			t.Fatalf("%s prompt must force English output", lvl)
		}
		if !strings.Contains(prompt, "Do not start with phrases") {
			t.Fatalf("%s prompt must forbid stock preambles", lvl)
		}
		if strings.Count(prompt, "900") < 2 {
			t.Fatalf("%s prompt must state the character budget at least twice", lvl)
		}
		if !strings.Contains(prompt, "160 words") {
			t.Fatalf("%s prompt must state the word budget", lvl)
		}
	}
}

func TestBuildEmbedsQuestionAndContext(t *testing.T) {
	p := NewPromptBuilder(Budget{})

	prompt := p.Build("How do I isolate the door?", level.Beginner, "Document 1:\nIsolation steps.")
	if !strings.Contains(prompt, "How do I isolate the door?") {
		t.Fatal("prompt must embed the question")
	}
	if !strings.Contains(prompt, "Document 1:\nIsolation steps.") {
		t.Fatal("prompt must embed the context block")
	}
}

func TestBuildSummarizationCompressesPriorAnswer(t *testing.T) {
	p := NewPromptBuilder(Budget{MaxChars: 900, MaxWords: 160})

	prior := "A long prior answer about door engine lubrication."
	prompt := p.BuildSummarization(prior, "How do I lubricate the door engine?", level.Expert)

	if !strings.Contains(prompt, prior) {
		t.Fatal("summarization prompt must embed the prior answer")
	}
	if !strings.Contains(prompt, "How do I lubricate the door engine?") {
		t.Fatal("summarization prompt must embed the original question")
	}
	if !strings.Contains(prompt, "ALL essential") {
		t.Fatal("summarization prompt must demand information preservation")
	}
	if !strings.Contains(prompt, "900") {
		t.Fatal("summarization prompt must restate the character budget")
	}
	if strings.Contains(prompt, "Document content:") {
		t.Fatal("summarization prompt must not re-send the retrieval context")
	}
}
