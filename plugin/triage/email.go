// Package triage implements the decision orchestration engine: the
// per-conversation approval state machine, the retrieval-augmented reply
// composer and the asynchronous memory write-back.
package triage

import "strings"

// Email is the immutable inbound message a decision dialogue is about.
type Email struct {
	From         string
	Subject      string
	Body         string
	ProposedTime string
	MessageID    string
}

// Normalized returns a copy with incomplete fields filled with their
// defaults. Malformed inbound events are repaired, not rejected.
func (e Email) Normalized() Email {
	e.From = strings.TrimSpace(e.From)
	if e.From == "" {
		e.From = "unknown"
	}
	e.Subject = strings.TrimSpace(e.Subject)
	e.Body = strings.TrimSpace(e.Body)
	e.ProposedTime = strings.TrimSpace(e.ProposedTime)
	return e
}

// HasProposedTime reports whether the email carried a recognizable meeting
// time. It drives the accept vs. awaiting_time branch.
func (e Email) HasProposedTime() bool {
	return e.ProposedTime != ""
}

// Excerpt returns the body truncated for operator prompts.
func (e Email) Excerpt(maxLen int) string {
	body := strings.TrimSpace(e.Body)
	if maxLen <= 0 || len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
