// Package policy maps a final confidence score to the operator-visible
// handling action for the response.
package policy

// Action is the response-handling decision for a confidence level.
type Action string

const (
	ActionRespond               Action = "respond"
	ActionRespondWithDisclaimer Action = "respond_with_disclaimer"
	ActionAskClarification      Action = "ask_clarification"
	ActionEscalateToHuman       Action = "escalate_to_human"
)

// Band lower bounds, inclusive. This threshold table is a contract, not a
// tunable default: callers who need different bands must wrap DecideAction,
// not modify it.
const (
	respondThreshold    = 80
	disclaimerThreshold = 60
	clarifyThreshold    = 40
)

// Fixed messages attached to the non-respond actions.
const (
	disclaimerMessage = "Please note: this answer was generated automatically and may be incomplete. Let us know if anything looks off."
	clarifyMessage    = "Could you share a bit more detail about what you need? That will help us give you an accurate answer."
	escalateMessage   = "We're connecting you with a member of our team who can help with this."
)

// Decision pairs the chosen action with its fixed preamble, if the action
// carries one. Message is empty for ActionRespond.
type Decision struct {
	Action  Action `json:"action"`
	Message string `json:"message,omitempty"`
}

// DecideAction maps a 0-100 confidence to a handling decision. Strictness is
// monotone non-decreasing as confidence falls; escalation to a human is the
// deliberate worst case, not an exception.
func DecideAction(confidence int) Decision {
	switch {
	case confidence >= respondThreshold:
		return Decision{Action: ActionRespond}
	case confidence >= disclaimerThreshold:
		return Decision{Action: ActionRespondWithDisclaimer, Message: disclaimerMessage}
	case confidence >= clarifyThreshold:
		return Decision{Action: ActionAskClarification, Message: clarifyMessage}
	default:
		return Decision{Action: ActionEscalateToHuman, Message: escalateMessage}
	}
}
