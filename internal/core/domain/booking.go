package domain

import "time"

// BookingState is the tool-call engine state for a session
type BookingState string

const (
	BookingStateIdle          BookingState = "IDLE"
	BookingStateAwaitingSlots BookingState = "AWAITING_SLOTS"
	BookingStateConfirming    BookingState = "CONFIRMING"
	BookingStateComplete      BookingState = "COMPLETE"
)

// SlotName identifies a required booking field
type SlotName string

const (
	SlotFullName SlotName = "name"
	SlotEmail    SlotName = "email"
	SlotDate     SlotName = "date"
	SlotTime     SlotName = "time"
)

// RequiredSlots lists booking fields in prompt order
var RequiredSlots = []SlotName{SlotFullName, SlotEmail, SlotDate, SlotTime}

// SlotStatus is the validation status of one slot
type SlotStatus string

const (
	SlotMissing SlotStatus = "missing"
	SlotValid   SlotStatus = "valid"
	SlotInvalid SlotStatus = "invalid"
)

// Slot holds a normalized value plus what the user actually said
type Slot struct {
	Value  string     `json:"value,omitempty"` // Normalized: date YYYY-MM-DD, time HH:MM
	Raw    string     `json:"raw,omitempty"`
	Status SlotStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// BookingDraft is the persisted, resumable booking state of a session
type BookingDraft struct {
	SessionID string             `json:"session_id"`
	State     BookingState       `json:"state"`
	Slots     map[SlotName]*Slot `json:"slots"`
	// AskedWhich is set after a bare "no" while confirming
	AskedWhich bool `json:"asked_which,omitempty"`
	// BookingID is reserved on the first confirmation attempt and reused
	// on retries so a create whose outcome was lost is not duplicated
	BookingID string    `json:"booking_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBookingDraft creates an idle draft with all slots missing
func NewBookingDraft(sessionID string, now time.Time) *BookingDraft {
	d := &BookingDraft{
		SessionID: sessionID,
		State:     BookingStateIdle,
		Slots:     make(map[SlotName]*Slot, len(RequiredSlots)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, name := range RequiredSlots {
		d.Slots[name] = &Slot{Status: SlotMissing}
	}
	return d
}

// Slot returns the slot, creating a missing one if absent
func (d *BookingDraft) Slot(name SlotName) *Slot {
	if d.Slots == nil {
		d.Slots = make(map[SlotName]*Slot, len(RequiredSlots))
	}
	s, ok := d.Slots[name]
	if !ok || s == nil {
		s = &Slot{Status: SlotMissing}
		d.Slots[name] = s
	}
	return s
}

// Pending returns missing or invalid slots in prompt order
func (d *BookingDraft) Pending() []SlotName {
	var out []SlotName
	for _, name := range RequiredSlots {
		if d.Slot(name).Status != SlotValid {
			out = append(out, name)
		}
	}
	return out
}

// Complete reports whether every required slot is valid
func (d *BookingDraft) Complete() bool {
	return len(d.Pending()) == 0
}

// Clone returns a deep copy so a turn can mutate without touching committed state
func (d *BookingDraft) Clone() *BookingDraft {
	if d == nil {
		return nil
	}
	c := *d
	c.Slots = make(map[SlotName]*Slot, len(d.Slots))
	for k, v := range d.Slots {
		if v == nil {
			continue
		}
		s := *v
		c.Slots[k] = &s
	}
	return &c
}

// Booking is a finalized, fully validated record. Immutable once created.
type Booking struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM, 24-hour
	CreatedAt time.Time `json:"created_at"`
}

// BookingFromDraft builds a booking from a complete draft
func BookingFromDraft(d *BookingDraft, now time.Time) *Booking {
	return &Booking{
		ID:        d.BookingID,
		SessionID: d.SessionID,
		Name:      d.Slot(SlotFullName).Value,
		Email:     d.Slot(SlotEmail).Value,
		Date:      d.Slot(SlotDate).Value,
		Time:      d.Slot(SlotTime).Value,
		CreatedAt: now,
	}
}
