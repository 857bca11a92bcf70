package level

// Taxonomy holds the vocabulary and the scoring policy the classifier runs
// on. The constants are a hand-tuned policy, not derived from labeled data;
// keeping them here lets deployments adjust the taxonomy without touching
// the classifier control flow.
type Taxonomy struct {
	// ExpertTerms are single-token component, mechanism and fault-diagnosis
	// nouns matched against the question's word tokens.
	ExpertTerms []string
	// BeginnerPhrases and ExpertPhrases are multi-word markers matched as
	// substrings of the lowercased question.
	BeginnerPhrases []string
	ExpertPhrases   []string

	TermWeight           float64
	ExpertPhraseWeight   float64
	BeginnerPhraseWeight float64
	WordCountWeight      float64

	// An overall score at or above ExpertThreshold classifies as expert,
	// at or below BeginnerThreshold as beginner. The high-confidence bounds
	// sit further out on each side.
	ExpertThreshold       float64
	ExpertHighThreshold   float64
	BeginnerThreshold     float64
	BeginnerHighThreshold float64
}

// DefaultTaxonomy covers railway door-control maintenance documentation.
// The thresholds are asymmetric: weak signal resolves to beginner, because
// over-explaining to an expert is a minor inconvenience while answering a
// novice in unexplained jargon is a usability failure.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		ExpertTerms: []string{
			"dcu", "tdic", "circuit", "breaker", "actuator", "solenoid", "relay",
			"proximity", "microswitch", "crank", "diagnostic", "calibration",
			"continuity", "resistance", "voltage", "current", "ohms",
			"bluetooth", "gfa", "stick", "firmware", "software", "app",
			"overload", "optimization", "display", "power", "maintenance", "procedure",
			"test", "operation", "sensor", "switch", "mechanism", "device",
			"component", "system", "performance", "analysis",
			"troubleshooting", "diagnosis",
		},
		BeginnerPhrases: []string{
			"what is", "how do i", "can you explain", "what does", "why does",
			"what happens if", "how to", "what should i do", "what are the steps",
			"can you help me", "i need help", "i don't understand",
			"what does this mean", "how does it work", "what is the difference",
			"when should i", "is it safe", "what tools do i need",
			"how long does it take",
		},
		ExpertPhrases: []string{
			"specifications", "parameters", "troubleshooting", "diagnostics",
			"calibration", "optimization", "integration", "configuration",
			"maintenance procedures", "technical requirements", "system analysis",
			"fault diagnosis", "performance metrics", "compliance standards",
			"best practices", "advanced", "professional", "technical",
		},

		TermWeight:           2,
		ExpertPhraseWeight:   1.5,
		BeginnerPhraseWeight: 1,
		WordCountWeight:      0.1,

		ExpertThreshold:       2,
		ExpertHighThreshold:   4,
		BeginnerThreshold:     -0.5,
		BeginnerHighThreshold: -1.5,
	}
}
