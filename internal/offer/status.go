// Package offer manages stored job offers: their decision lifecycle,
// persistence, evaluation against market data and negotiation prep.
//
// Valid status graph:
//
//	RECEIVED ──► NEGOTIATING ──► ACCEPTED
//	    │             │
//	    │             ├────────► DECLINED
//	    │             └────────► EXPIRED
//	    └──► ACCEPTED | DECLINED | EXPIRED
//
// ACCEPTED, DECLINED and EXPIRED are terminal states.
package offer

import "fmt"

// Status values mirror the offer_status column in PostgreSQL.
type Status string

const (
	StatusReceived    Status = "RECEIVED"
	StatusNegotiating Status = "NEGOTIATING"
	StatusAccepted    Status = "ACCEPTED"
	StatusDeclined    Status = "DECLINED"
	StatusExpired     Status = "EXPIRED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusReceived:    {StatusNegotiating, StatusAccepted, StatusDeclined, StatusExpired},
	StatusNegotiating: {StatusAccepted, StatusDeclined, StatusExpired},
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusReceived, StatusNegotiating, StatusAccepted, StatusDeclined, StatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown offer status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further decision can be made on an offer.
// Terminal offers are skipped by the nightly rescore.
func IsTerminal(s Status) bool {
	_, open := validTransitions[s]
	return !open
}

// OpenStatuses are the statuses the rescore job visits.
func OpenStatuses() []Status { return []Status{StatusReceived, StatusNegotiating} }
