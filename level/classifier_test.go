package level

import (
	"reflect"
	"testing"
)

func TestClassifySimpleDefinitionQuestion(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())

	result := c.Classify("What is a DCU?")
	if result.Level != Beginner {
		t.Fatalf("expected beginner, got %s (score %.2f)", result.Level, result.Score)
	}
	if result.Confidence == ConfidenceHigh {
		t.Fatalf("expected low or medium confidence, got %s", result.Confidence)
	}
	if result.ExpertTermCount != 1 {
		t.Fatalf("expected the dcu term to match, got %d terms: %v", result.ExpertTermCount, result.ExpertTerms)
	}
	if result.BeginnerPhraseCount == 0 {
		t.Fatal("expected 'what is' to count as a beginner phrase")
	}
}

func TestClassifyTechnicalQuestionHighConfidence(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())

	result := c.Classify("What are the technical specifications for DCU fault code diagnostics and calibration procedures?")
	if result.Level != Expert {
		t.Fatalf("expected expert, got %s (score %.2f)", result.Level, result.Score)
	}
	if result.Confidence != ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", result.Confidence)
	}
}

func TestClassifyMultipleTermsNoBeginnerPhrase(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())

	questions := []string{
		"DCU actuator calibration sequence",
		"Check solenoid continuity and relay resistance",
		"Fault diagnosis via TDIC diagnostic interface",
	}
	for _, q := range questions {
		result := c.Classify(q)
		if result.ExpertTermCount < 2 {
			t.Fatalf("test setup: %q matched only %d terms", q, result.ExpertTermCount)
		}
		if result.Level != Expert {
			t.Fatalf("expected expert for %q, got %s (score %.2f)", q, result.Level, result.Score)
		}
	}
}

func TestClassifyShortBeginnerQuestions(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())

	questions := []string{
		"How do I open it?",
		"Is it safe to touch?",
		"Can you help me please?",
	}
	for _, q := range questions {
		result := c.Classify(q)
		if result.ExpertTermCount != 0 {
			t.Fatalf("test setup: %q unexpectedly matched terms %v", q, result.ExpertTerms)
		}
		if result.Level != Beginner {
			t.Fatalf("expected beginner for %q, got %s (score %.2f)", q, result.Level, result.Score)
		}
	}
}

func TestClassifyAmbiguousDefaultsToBeginner(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())

	// No technical terms, no phrases, short: lands in the ambiguous band.
	result := c.Classify("Door will not close fully")
	if result.Level != Beginner {
		t.Fatalf("expected beginner default, got %s (score %.2f)", result.Level, result.Score)
	}
	if result.Confidence != ConfidenceLow {
		t.Fatalf("expected low confidence, got %s", result.Confidence)
	}
}

func TestClassifyBlankQuestionNeverFails(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())

	for _, q := range []string{"", "   ", "\n\t"} {
		result := c.Classify(q)
		if result.Level != Beginner || result.Confidence != ConfidenceLow {
			t.Fatalf("expected beginner/low for blank input, got %s/%s", result.Level, result.Confidence)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(DefaultTaxonomy())

	question := "How do I run the DCU calibration procedure safely?"
	first := c.Classify(question)
	second := c.Classify(question)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("classification is not deterministic: %+v vs %+v", first, second)
	}
}

func TestParseRejectsUnknownLevel(t *testing.T) {
	if _, err := Parse("wizard"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if lvl, err := Parse("expert"); err != nil || lvl != Expert {
		t.Fatalf("expected expert, got %v / %v", lvl, err)
	}
}
