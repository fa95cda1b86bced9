package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"yes", IntentYes},
		{"Yes please", IntentYes},
		{"YES!", IntentYes},
		{"no", IntentNo},
		{"No thanks", IntentNo},
		{"absolutely not... no", IntentNo},
		{"yes, but no later than 5", IntentYes}, // yes wins when both appear
		{"maybe", IntentUnknown},
		{"", IntentUnknown},
		{"I'll check my calendar", IntentUnknown},
	}

	c := KeywordClassifier{}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.text), "text: %q", tt.text)
	}
}

func TestDecisionInstructions(t *testing.T) {
	assert.Contains(t, Decision{Kind: DecisionAccept}.Instruction(), "available at the time proposed")

	withTime := Decision{Kind: DecisionAcceptWithTime, Time: "3pm"}.Instruction()
	assert.Contains(t, withTime, "3pm")

	reschedule := Decision{Kind: DecisionReschedule, Time: "Friday"}.Instruction()
	assert.Contains(t, reschedule, "reschedule")
	assert.Contains(t, reschedule, "Friday")

	assert.Contains(t, Decision{Kind: DecisionDecline}.Instruction(), "decline")
	assert.Empty(t, Decision{}.Instruction())
}

func TestEmailNormalized(t *testing.T) {
	e := Email{From: "  ", Subject: " Hi ", Body: " body ", ProposedTime: " 3pm "}.Normalized()
	assert.Equal(t, "unknown", e.From)
	assert.Equal(t, "Hi", e.Subject)
	assert.Equal(t, "body", e.Body)
	assert.Equal(t, "3pm", e.ProposedTime)
	assert.True(t, e.HasProposedTime())

	assert.False(t, Email{}.Normalized().HasProposedTime())
}

func TestEmailExcerpt(t *testing.T) {
	e := Email{Body: "0123456789"}
	assert.Equal(t, "0123456789", e.Excerpt(20))
	assert.Equal(t, "01234...", e.Excerpt(5))
	assert.Equal(t, "0123456789", e.Excerpt(0))
}
