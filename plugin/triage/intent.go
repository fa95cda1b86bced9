package triage

import "strings"

// Intent is the coarse classification of a free-text operator message.
type Intent int

const (
	// IntentUnknown means the message matched neither keyword; the state
	// machine re-prompts without changing state.
	IntentUnknown Intent = iota
	// IntentYes is an affirmative answer.
	IntentYes
	// IntentNo is a negative answer.
	IntentNo
)

// IntentClassifier maps free operator text to an Intent. It sits at the
// boundary so stricter NLU can be substituted without touching the state
// machine.
type IntentClassifier interface {
	Classify(text string) Intent
}

// KeywordClassifier is the default classifier: case-insensitive substring
// match on "yes" and "no", with "yes" checked first.
type KeywordClassifier struct{}

// Classify implements IntentClassifier.
func (KeywordClassifier) Classify(text string) Intent {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "yes") {
		return IntentYes
	}
	if strings.Contains(lower, "no") {
		return IntentNo
	}
	return IntentUnknown
}

var _ IntentClassifier = KeywordClassifier{}
