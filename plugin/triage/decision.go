package triage

import "fmt"

// DecisionKind is the operator's terminal choice for a meeting request.
type DecisionKind string

const (
	// DecisionAccept confirms availability at the time proposed in the email.
	DecisionAccept DecisionKind = "accept"
	// DecisionAcceptWithTime confirms availability at a time the operator supplied.
	DecisionAcceptWithTime DecisionKind = "accept_with_time"
	// DecisionReschedule declines the proposed time and asks to move the meeting.
	DecisionReschedule DecisionKind = "reschedule"
	// DecisionDecline declines the meeting outright.
	DecisionDecline DecisionKind = "decline"
)

// Decision is the transient value produced when a dialogue reaches a terminal
// state. It is consumed once, to build the instruction injected into the
// reply prompt.
type Decision struct {
	Kind DecisionKind
	Time string
}

// Instruction renders the decision as an unambiguous imperative sentence for
// the reply prompt.
func (d Decision) Instruction() string {
	switch d.Kind {
	case DecisionAccept:
		return "Confirm that the recipient is available at the time proposed in the email."
	case DecisionAcceptWithTime:
		return fmt.Sprintf("Confirm that the recipient is available and propose meeting at %s.", d.Time)
	case DecisionReschedule:
		return fmt.Sprintf("Politely state that the proposed time does not work and ask to reschedule the meeting to %s.", d.Time)
	case DecisionDecline:
		return "Politely state that the recipient is not available and decline the meeting request."
	default:
		return ""
	}
}
