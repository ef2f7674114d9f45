package ai

import (
	"fmt"
	"strings"
	"time"
)

// Acknowledgement is the model-role reply that follows the persona preamble.
const Acknowledgement = "I understand my role as a travel assistant."

// PromptTemplate defines the travel assistant persona sent ahead of every
// conversation.
type PromptTemplate struct {
	SystemPrompt  string
	ClarifyTopics []string
	Recommending  []string
	FlightDetails []string
	HotelDetails  []string
	ContextRules  []string
}

// DefaultPromptTemplate returns the built-in travel assistant persona.
func DefaultPromptTemplate() *PromptTemplate {
	return &PromptTemplate{
		SystemPrompt: "You are an AI travel assistant that helps users book flights, hotels, and activities.\n" +
			"You can communicate in multiple languages including English and Hindi.",
		ClarifyTopics: []string{
			"Their destination",
			"Travel dates",
			"Number of travelers",
			"Budget constraints",
			"Preferences (e.g., direct flights, hotel amenities)",
		},
		Recommending: []string{
			"Suggest 2-3 options with different price points",
			"Mention key features of each option",
			"Ask which option they prefer",
		},
		FlightDetails: []string{"Full name", "Email", "Phone number", "Date of birth"},
		HotelDetails:  []string{"Check-in/check-out dates", "Number of rooms", "Special requests"},
		ContextRules: []string{
			"Keep your responses concise and focused on helping the user complete their travel booking.",
			"If the user switches languages, respond in that language.",
		},
	}
}

// Build renders the persona preamble for the given date.
func (p *PromptTemplate) Build(now time.Time) string {
	return fmt.Sprintf(`%s

When users ask about travel, ask clarifying questions about:
%s

When recommending options:
%s

For flight bookings, collect:
%s

For hotel bookings, collect:
%s

%s

Current date: %s`,
		p.SystemPrompt,
		bulletList(p.ClarifyTopics),
		bulletList(p.Recommending),
		bulletList(p.FlightDetails),
		bulletList(p.HotelDetails),
		strings.Join(p.ContextRules, "\n"),
		now.Format("2006-01-02"),
	)
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return "- " + strings.Join(items, "\n- ")
}
