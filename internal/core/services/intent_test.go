package services

import (
	"reflect"
	"testing"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func TestIsBookingIntent(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"I want to book an interview for Sajeena Malla at sajeena@example.com for tomorrow at 2:30 PM", true},
		{"Can you schedule a meeting for me?", true},
		{"please book me in for friday", true},
		{"I'd like to set up an appointment", true},
		{"What is the interview process?", false},
		{"tell me about booking policy", false},
		{"how do I reschedule an interview?", false},
		{"what's in the onboarding guide", false},
		{"hello", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsBookingIntent(tt.msg); got != tt.want {
			t.Errorf("IsBookingIntent(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestIsCancel(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"cancel", true},
		{"Never mind", true},
		{"forget it", true},
		{"please stop", true},
		{"book it", false},
		{"yes", false},
	}

	for _, tt := range tests {
		if got := IsCancel(tt.msg); got != tt.want {
			t.Errorf("IsCancel(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestParseConfirmation(t *testing.T) {
	tests := []struct {
		msg  string
		want Confirmation
	}{
		{"yes", ConfirmYes},
		{"Yes, please!", ConfirmYes},
		{"yep looks good", ConfirmYes},
		{"ok.", ConfirmYes},
		{"go ahead", ConfirmYes},
		{"yes but change the time", ConfirmUnknown},
		{"yes, the email is wrong", ConfirmUnknown},
		{"no", ConfirmNo},
		{"No, the date is wrong", ConfirmNo},
		{"maybe", ConfirmUnknown},
		{"", ConfirmUnknown},
	}

	for _, tt := range tests {
		if got := ParseConfirmation(tt.msg); got != tt.want {
			t.Errorf("ParseConfirmation(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestMentionedSlots(t *testing.T) {
	got := mentionedSlots("The e-mail and the TIME are wrong")
	want := []domain.SlotName{domain.SlotEmail, domain.SlotTime}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mentionedSlots() = %v, want %v", got, want)
	}
	if got := mentionedSlots("looks fine"); len(got) != 0 {
		t.Errorf("mentionedSlots() = %v, want none", got)
	}
}

func TestLooksLikeQuestion(t *testing.T) {
	if !looksLikeQuestion("What does the handbook say about leave") {
		t.Error("expected question")
	}
	if !looksLikeQuestion("office hours?") {
		t.Error("expected question")
	}
	if looksLikeQuestion("Sajeena Malla") {
		t.Error("did not expect question")
	}
}
