package offer_test

import (
	"testing"

	"jobmate/offer-service/internal/offer"
)

var allStatuses = []offer.Status{
	offer.StatusReceived,
	offer.StatusNegotiating,
	offer.StatusAccepted,
	offer.StatusDeclined,
	offer.StatusExpired,
}

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_AllConstantsRoundTrip(t *testing.T) {
	for _, s := range allStatuses {
		got, err := offer.ParseStatus(string(s))
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_Invalid(t *testing.T) {
	for _, s := range []string{"", "UNKNOWN", "received", " RECEIVED", "ACCEPTED "} {
		if _, err := offer.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) expected error, got nil", s)
		}
	}
}

// ── IsTransitionAllowed ────────────────────────────────────────────────────

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	cases := []struct{ from, to offer.Status }{
		{offer.StatusReceived, offer.StatusNegotiating},
		{offer.StatusReceived, offer.StatusAccepted},
		{offer.StatusReceived, offer.StatusDeclined},
		{offer.StatusReceived, offer.StatusExpired},
		{offer.StatusNegotiating, offer.StatusAccepted},
		{offer.StatusNegotiating, offer.StatusDeclined},
		{offer.StatusNegotiating, offer.StatusExpired},
	}
	for _, c := range cases {
		if !offer.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

func TestIsTransitionAllowed_TerminalStatesHaveNoOutgoing(t *testing.T) {
	for _, from := range []offer.Status{offer.StatusAccepted, offer.StatusDeclined, offer.StatusExpired} {
		for _, to := range allStatuses {
			if offer.IsTransitionAllowed(from, to) {
				t.Errorf("IsTransitionAllowed(%s → %s) should be false for terminal state", from, to)
			}
		}
	}
}

func TestIsTransitionAllowed_SelfTransitions(t *testing.T) {
	for _, s := range allStatuses {
		if offer.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s → %s) self-transition should be false", s, s)
		}
	}
}

func TestIsTransitionAllowed_Backwards(t *testing.T) {
	if offer.IsTransitionAllowed(offer.StatusNegotiating, offer.StatusReceived) {
		t.Error("NEGOTIATING → RECEIVED should be false")
	}
}

func TestIsTransitionAllowed_UnknownSource(t *testing.T) {
	if offer.IsTransitionAllowed(offer.Status("BOGUS"), offer.StatusAccepted) {
		t.Error("unknown source status should not allow any transition")
	}
}

// ── IsTerminal ─────────────────────────────────────────────────────────────

func TestIsTerminal(t *testing.T) {
	want := map[offer.Status]bool{
		offer.StatusReceived:    false,
		offer.StatusNegotiating: false,
		offer.StatusAccepted:    true,
		offer.StatusDeclined:    true,
		offer.StatusExpired:     true,
	}
	for s, terminal := range want {
		if got := offer.IsTerminal(s); got != terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, got, terminal)
		}
	}
	for _, s := range offer.OpenStatuses() {
		if offer.IsTerminal(s) {
			t.Errorf("open status %s reported terminal", s)
		}
	}
}
