package triage

import (
	"strings"

	"github.com/erazemk/garderoba/internal/model"
)

// Decision is the user's verdict on a presented suggestion.
type Decision string

// Decisions.
const (
	DecisionKeep      Decision = "KEEP"
	DecisionDonate    Decision = "DONATE"
	DecisionTransform Decision = "TRANSFORM"
	DecisionReserve   Decision = "RESERVE"
)

// SwipeThreshold is how far, in pixels, a card must be dragged to count as
// a decision.
const SwipeThreshold = 100

// ParseDecision parses a decision name, ignoring case.
func ParseDecision(s string) (Decision, bool) {
	d := Decision(strings.ToUpper(strings.TrimSpace(s)))
	return d, d.Valid()
}

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	switch d {
	case DecisionKeep, DecisionDonate, DecisionTransform, DecisionReserve:
		return true
	}
	return false
}

// ToStatus returns the status an item moves to under d. Keeping an item
// puts it in reserve.
func (d Decision) ToStatus() model.ItemStatus {
	switch d {
	case DecisionDonate:
		return model.ItemStatusDonated
	case DecisionTransform:
		return model.ItemStatusTransformed
	default:
		return model.ItemStatusReserved
	}
}

// DecisionFromSwipe maps a drag offset to a decision: far left donates, far
// right transforms and far up reserves. Horizontal swipes win over vertical
// ones. Anything shorter is no decision.
func DecisionFromSwipe(dx, dy float64) (Decision, bool) {
	switch {
	case dx < -SwipeThreshold:
		return DecisionDonate, true
	case dx > SwipeThreshold:
		return DecisionTransform, true
	case dy < -SwipeThreshold:
		return DecisionReserve, true
	}
	return "", false
}
