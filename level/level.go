// Package level infers the expertise level of an asker from the question
// text and describes the available levels.
package level

import "fmt"

// Level is the discrete expertise classification controlling answer depth
// and terminology policy.
type Level string

const (
	Beginner Level = "beginner"
	Expert   Level = "expert"
)

// Confidence bands for a classification.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Info describes a level for display purposes. The characteristics are shown
// to frontends and embedded in prompts; no logic depends on them.
type Info struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
}

var profiles = map[Level]Info{
	Beginner: {
		Name:        "Beginner",
		Description: "Novice users who need basic explanations and detailed steps",
		Characteristics: []string{
			"Need detailed background explanations",
			"Prefer step-by-step guidance",
			"Require safety reminders",
			"Prefer simple and understandable language",
			"Need more examples and analogies",
		},
	},
	Expert: {
		Name:        "Expert",
		Description: "Experienced professionals who need technical details and advanced information",
		Characteristics: []string{
			"Need technical specifications and parameters",
			"Prefer professional terminology",
			"Focus on advanced troubleshooting",
			"Need system integration information",
			"Focus on best practices and optimization",
		},
	},
}

// Profiles returns display metadata for every known level.
func Profiles() map[Level]Info {
	out := make(map[Level]Info, len(profiles))
	for k, v := range profiles {
		out[k] = v
	}
	return out
}

// Describe returns display metadata for a single level.
func (l Level) Describe() Info {
	return profiles[l]
}

func (l Level) Valid() bool {
	_, ok := profiles[l]
	return ok
}

// Parse validates a user-supplied level name. The empty string is not a
// level; callers treat it as "auto-detect".
func Parse(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown user level %q (expected %q or %q)", s, Beginner, Expert)
	}
	return l, nil
}
