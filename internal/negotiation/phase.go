// Package negotiation drives the turn-based conversation that takes a user
// from an interpreted task to a confirmed, executed strategy. One controller
// owns one session at a time; every turn is synchronous.
package negotiation

// Phase is the controller's position in the negotiation lifecycle.
type Phase string

const (
	PhaseInitial          Phase = "initial"
	PhaseRecommending     Phase = "recommending"
	PhaseAwaitingDecision Phase = "awaiting_decision"
	PhaseNegotiating      Phase = "negotiating"
	PhaseConfirmed        Phase = "confirmed"
	PhaseExecuting        Phase = "executing"
	PhaseComplete         Phase = "complete"
	PhaseCancelled        Phase = "cancelled"
	PhaseFailed           Phase = "failed"
)

// Terminal reports whether the phase ends the session. A new task utterance
// after a terminal phase starts a fresh session.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseComplete, PhaseCancelled, PhaseFailed:
		return true
	}
	return false
}
