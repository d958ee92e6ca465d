package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// Informational phrasing that rules out booking intent even when a
// booking noun is present ("what is the interview process?").
var informational = []string{
	"what is", "what's", "how do", "how to", "how does",
	"explain", "tell me about", "docs", "documentation",
	"guide", "policy", "pricing", "price", "cost",
	"example", "sample", "tutorial", "booking.com",
}

var (
	bookingAction = regexp.MustCompile(`\b(book|schedule|reserve|arrange|set\s*up|setup|make|create|confirm|reschedule|add|put)\b`)
	bookingNoun   = regexp.MustCompile(`\b(appointment|interview|booking|meeting|slot)s?\b`)
	bookMe        = regexp.MustCompile(`\b(book|schedule|reserve)\s+me\b`)

	cancelPhrase = regexp.MustCompile(`\b(cancel|never\s*mind|nevermind|forget\s+(it|about\s+it)|stop|abort|don't\s+(book|bother)|no\s+longer\s+need)\b`)

	affirmative = regexp.MustCompile(`^(y|ya|yes|yeah|yep|yup|sure|ok|okay|correct|right|confirm(ed)?|book\s+it|go\s+ahead|sounds\s+good|looks\s+good|that's\s+(right|correct)|perfect|please\s+do)\b`)
	negative    = regexp.MustCompile(`^(n|no|nope|nah|not\s+quite|wrong|incorrect|that's\s+(wrong|not\s+right)|wait)\b`)
	hedge       = regexp.MustCompile(`\b(but|change|actually|instead|except|wrong)\b`)

	slotMentions = map[domain.SlotName]*regexp.Regexp{
		domain.SlotFullName: regexp.MustCompile(`\bname\b`),
		domain.SlotEmail:    regexp.MustCompile(`\b(e-?mail|address)\b`),
		domain.SlotDate:     regexp.MustCompile(`\b(date|day)\b`),
		domain.SlotTime:     regexp.MustCompile(`\b(time|hour)\b`),
	}

	questionStart = regexp.MustCompile(`^(who|what|when|where|why|how|which|is|are|does|do|can|could|should|will|would)\b`)
)

// IsBookingIntent reports whether a message asks to book an appointment.
// Informational questions about bookings are not booking intent.
func IsBookingIntent(msg string) bool {
	// Addresses such as name@example.com must not trip the informational list
	m := strings.ToLower(emailInText.ReplaceAllString(msg, " "))
	if strings.TrimSpace(m) == "" {
		return false
	}
	for _, p := range informational {
		if strings.Contains(m, p) {
			return false
		}
	}
	if bookingAction.MatchString(m) && bookingNoun.MatchString(m) {
		return true
	}
	return bookMe.MatchString(m)
}

// IsCancel reports whether the user abandons the booking in progress
func IsCancel(msg string) bool {
	return cancelPhrase.MatchString(strings.ToLower(msg))
}

// Confirmation is the user's answer to a booking summary
type Confirmation int

const (
	ConfirmUnknown Confirmation = iota
	ConfirmYes
	ConfirmNo
)

// ParseConfirmation classifies a reply to a confirmation prompt. A yes
// that also changes something ("yes but the time is 3pm") is not a yes.
func ParseConfirmation(msg string) Confirmation {
	m := strings.Trim(strings.ToLower(strings.TrimSpace(msg)), ".!")
	switch {
	case affirmative.MatchString(m):
		if hedge.MatchString(m) || len(mentionedSlots(m)) > 0 {
			return ConfirmUnknown
		}
		return ConfirmYes
	case negative.MatchString(m):
		return ConfirmNo
	default:
		return ConfirmUnknown
	}
}

// mentionedSlots returns the slots a message refers to by name, in prompt order
func mentionedSlots(msg string) []domain.SlotName {
	m := strings.ToLower(msg)
	var out []domain.SlotName
	for _, name := range domain.RequiredSlots {
		if slotMentions[name].MatchString(m) {
			out = append(out, name)
		}
	}
	return out
}

func looksLikeQuestion(msg string) bool {
	m := strings.ToLower(strings.TrimSpace(msg))
	return strings.HasSuffix(m, "?") || questionStart.MatchString(m)
}
