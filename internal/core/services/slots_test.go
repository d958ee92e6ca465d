package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// Tuesday
var slotNow = time.Date(2025, 6, 10, 9, 15, 0, 0, time.UTC)

func TestResolveDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr error
	}{
		{raw: "tomorrow", want: "2025-06-11"},
		{raw: "Tomorrow!", want: "2025-06-11"},
		{raw: "today", want: "2025-06-10"},
		{raw: "the day after tomorrow", want: "2025-06-12"},
		{raw: "in 3 days", want: "2025-06-13"},
		{raw: "in a week", want: "2025-06-17"},
		{raw: "next Friday", want: "2025-06-13"},
		{raw: "on tuesday", want: "2025-06-17"},
		{raw: "2025-06-11", want: "2025-06-11"},
		{raw: "2025/6/20", want: "2025-06-20"},
		{raw: "June 11th, 2025", want: "2025-06-11"},
		{raw: "jun 30", want: "2025-06-30"},
		{raw: "11 June", want: "2025-06-11"},
		{raw: "the 5th of June", want: "2026-06-05"},
		{raw: "2025-06-09", wantErr: errDatePast},
		{raw: "June 1, 2025", wantErr: errDatePast},
		{raw: "2025-02-30", wantErr: errDateUnrecognized},
		{raw: "someday", wantErr: errDateUnrecognized},
		{raw: "", wantErr: errDateUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ResolveDate(tt.raw, slotNow)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveDate(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveDate(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ResolveDate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolveDate_UsesTurnClock(t *testing.T) {
	late := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)
	got, err := ResolveDate("tomorrow", late)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2026-01-01" {
		t.Errorf("got %q, want 2026-01-01", got)
	}
}

func TestResolveTime(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr error
	}{
		{raw: "2:30 PM", want: "14:30"},
		{raw: "2:30pm", want: "14:30"},
		{raw: "2 p.m.", want: "14:00"},
		{raw: "11am", want: "11:00"},
		{raw: "12am", want: "00:00"},
		{raw: "12:15 pm", want: "12:15"},
		{raw: "14:30", want: "14:30"},
		{raw: "09:00", want: "09:00"},
		{raw: "noon", want: "12:00"},
		{raw: "midnight", want: "00:00"},
		{raw: "15", want: "15:00"},
		{raw: "2:30", wantErr: errTimeAmbiguous},
		{raw: "3", wantErr: errTimeAmbiguous},
		{raw: "at 3 o'clock", wantErr: errTimeAmbiguous},
		{raw: "in the afternoon", wantErr: errTimeVague},
		{raw: "25:00", wantErr: errTimeUnrecognized},
		{raw: "13pm", wantErr: errTimeUnrecognized},
		{raw: "soon", wantErr: errTimeUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ResolveTime(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveTime(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveTime(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ResolveTime(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{"sajeena@example.com", "sajeena@example.com", true},
		{"Sajeena@Example.COM", "Sajeena@example.com", true},
		{"<a.b+tag@mail.co.uk>", "a.b+tag@mail.co.uk", true},
		{"a@b", "", false},
		{"not-an-email", "", false},
		{"two@@example.com", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, err := ValidateEmail(tt.raw)
		if tt.valid != (err == nil) {
			t.Errorf("ValidateEmail(%q) error = %v, want valid=%v", tt.raw, err, tt.valid)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateEmail(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{"Sajeena Malla", "Sajeena Malla", true},
		{"  Sajeena   Malla. ", "Sajeena Malla", true},
		{"José O'Neil-Smith", "José O'Neil-Smith", true},
		{"!!!", "", false},
		{"", "", false},
		{"bob@example.com", "", false},
		{"R2D2", "", false},
		{strings.Repeat("a", maxNameLength+1), "", false},
	}

	for _, tt := range tests {
		got, err := ValidateName(tt.raw)
		if tt.valid != (err == nil) {
			t.Errorf("ValidateName(%q) error = %v, want valid=%v", tt.raw, err, tt.valid)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestExtractSlots(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		pending []domain.SlotName
		want    map[domain.SlotName]string
	}{
		{
			name:    "full booking request",
			msg:     "I want to book an interview for Sajeena Malla at sajeena@example.com for tomorrow at 2:30 PM",
			pending: domain.RequiredSlots,
			want: map[domain.SlotName]string{
				domain.SlotFullName: "Sajeena Malla",
				domain.SlotEmail:    "sajeena@example.com",
				domain.SlotDate:     "tomorrow",
				domain.SlotTime:     "2:30 PM",
			},
		},
		{
			name:    "introduced name",
			msg:     "Hi, I am Sajeena Malla and my email is sajeena@example.com.",
			pending: domain.RequiredSlots,
			want: map[domain.SlotName]string{
				domain.SlotFullName: "Sajeena Malla",
				domain.SlotEmail:    "sajeena@example.com",
			},
		},
		{
			name:    "bare name when only the name is pending",
			msg:     "Sajeena Malla",
			pending: []domain.SlotName{domain.SlotFullName},
			want:    map[domain.SlotName]string{domain.SlotFullName: "Sajeena Malla"},
		},
		{
			name:    "bare name ignored when other slots are pending",
			msg:     "Sajeena Malla",
			pending: []domain.SlotName{domain.SlotFullName, domain.SlotDate},
			want:    map[domain.SlotName]string{},
		},
		{
			name:    "filler is not a name",
			msg:     "no thanks",
			pending: []domain.SlotName{domain.SlotFullName},
			want:    map[domain.SlotName]string{},
		},
		{
			name:    "bare hour when only the time is pending",
			msg:     "3",
			pending: []domain.SlotName{domain.SlotTime},
			want:    map[domain.SlotName]string{domain.SlotTime: "3"},
		},
		{
			name:    "date words are not a name",
			msg:     "Book it for Friday June 13th",
			pending: domain.RequiredSlots,
			want:    map[domain.SlotName]string{domain.SlotDate: "June 13th"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSlots(tt.msg, tt.pending)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractSlots() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("ExtractSlots()[%s] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestResolveSlot_UnknownSlot(t *testing.T) {
	if _, err := ResolveSlot("phone", "555", slotNow); err == nil {
		t.Error("expected error for unknown slot")
	}
}
