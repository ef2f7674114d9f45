package chat

import (
	"fmt"
	"strings"
)

// Language is the two-state display language tag of a session.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"

	Primary   = English
	Secondary = Hindi
)

// ParseLanguage accepts "en"/"hi" (case-insensitive) and the empty string,
// which resolves to the primary language.
func ParseLanguage(raw string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case "", English:
		return English, nil
	case Hindi:
		return Hindi, nil
	default:
		return "", fmt.Errorf("unsupported language %q", raw)
	}
}

// Toggle returns the other language.
func (l Language) Toggle() Language {
	if l == Hindi {
		return English
	}
	return Hindi
}

// DisplayName is the English name used in instructions to the generation service.
func (l Language) DisplayName() string {
	if l == Hindi {
		return "Hindi"
	}
	return "English"
}

// RecognitionTag is the BCP-47 tag handed to speech capture.
func (l Language) RecognitionTag() string {
	if l == Hindi {
		return "hi-IN"
	}
	return "en-US"
}

// Welcome is the assistant greeting that opens every session.
func (l Language) Welcome() string {
	if l == Hindi {
		return "नमस्ते! मैं आपको उड़ानें, होटल बुक करने और आपकी यात्रा की योजना बनाने में मदद कर सकता हूं। आज मैं आपकी कैसे सहायता कर सकता हूं?"
	}
	return "Hello! I can help you book flights, hotels, and plan your trip. How can I assist you today?"
}
