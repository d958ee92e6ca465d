package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestNewBookingDraft(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	d := NewBookingDraft("s1", now)

	if d.State != BookingStateIdle {
		t.Errorf("expected IDLE, got %s", d.State)
	}
	if !reflect.DeepEqual(d.Pending(), RequiredSlots) {
		t.Errorf("expected all slots pending, got %v", d.Pending())
	}
	if d.Complete() {
		t.Error("new draft must not be complete")
	}
}

func TestBookingDraft_PendingOrder(t *testing.T) {
	d := NewBookingDraft("s1", time.Now())
	d.Slot(SlotFullName).Status = SlotValid
	d.Slot(SlotDate).Status = SlotInvalid

	want := []SlotName{SlotEmail, SlotDate, SlotTime}
	if got := d.Pending(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBookingDraft_SlotCreatesMissing(t *testing.T) {
	d := &BookingDraft{}
	s := d.Slot(SlotEmail)
	if s == nil || s.Status != SlotMissing {
		t.Fatalf("expected missing slot, got %+v", s)
	}
}

func TestBookingDraft_Clone(t *testing.T) {
	d := NewBookingDraft("s1", time.Now())
	d.Slot(SlotFullName).Value = "Sajeena"

	c := d.Clone()
	c.Slot(SlotFullName).Value = "Other"
	c.State = BookingStateConfirming

	if d.Slot(SlotFullName).Value != "Sajeena" {
		t.Error("clone must not share slots with the original")
	}
	if d.State != BookingStateIdle {
		t.Error("clone must not share state with the original")
	}
	var nilDraft *BookingDraft
	if nilDraft.Clone() != nil {
		t.Error("expected nil clone of nil draft")
	}
}

func TestBookingFromDraft(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	d := NewBookingDraft("s1", now)
	for name, v := range map[SlotName]string{
		SlotFullName: "Sajeena",
		SlotEmail:    "sajeena@example.com",
		SlotDate:     "2025-06-11",
		SlotTime:     "14:30",
	} {
		d.Slot(name).Value = v
		d.Slot(name).Status = SlotValid
	}

	if !d.Complete() {
		t.Fatal("expected complete draft")
	}
	b := BookingFromDraft(d, now)
	if b.Name != "Sajeena" || b.Email != "sajeena@example.com" || b.Date != "2025-06-11" || b.Time != "14:30" {
		t.Errorf("unexpected booking: %+v", b)
	}
	if b.SessionID != "s1" {
		t.Errorf("expected session s1, got %s", b.SessionID)
	}
}
