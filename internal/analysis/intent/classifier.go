package intent

import (
	"strings"

	"github.com/travelai/booking-chat/backend/internal/model/booking"
)

// rule fires when the text contains at least one keyword from every group.
type rule struct {
	signal booking.Signal
	groups [][]string
}

var offerWords = []string{"option", "available", "choose"}

// rules is evaluated top to bottom and the first match wins. Reordering it
// changes behavior: "confirmed flight options" must stay flights-offered.
var rules = []rule{
	{
		signal: booking.SignalFlightsOffered,
		groups: [][]string{{"flight", "air"}, offerWords},
	},
	{
		signal: booking.SignalHotelsOffered,
		groups: [][]string{{"hotel", "stay", "accommodation"}, offerWords},
	},
	{
		signal: booking.SignalPaymentRequested,
		groups: [][]string{{"payment", "pay", "credit card", "proceed to"}},
	},
	{
		signal: booking.SignalBookingConfirmable,
		groups: [][]string{{"confirm"}, {"book", "reservation"}},
	},
	{
		signal: booking.SignalBookingCompleted,
		groups: [][]string{{"success", "confirmed", "reference"}},
	},
}

// Classify maps an assistant utterance to exactly one booking signal using
// case-insensitive substring matching.
func Classify(utterance string) booking.Signal {
	normalized := strings.ToLower(utterance)
	if strings.TrimSpace(normalized) == "" {
		return booking.SignalNone
	}

	for _, r := range rules {
		if r.matches(normalized) {
			return r.signal
		}
	}
	return booking.SignalNone
}

func (r rule) matches(text string) bool {
	for _, group := range r.groups {
		if !containsAny(text, group) {
			return false
		}
	}
	return true
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
