package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

const createBookingTool = "create_booking"

// Intents returned by the booking_turn schema
const (
	intentBooking  = "booking"
	intentQuestion = "question"
	intentOther    = "other"
)

var bookingTurnSchema = &domain.StructuredSchema{
	Name:        "booking_turn",
	Description: "Extract interview booking details stated in the user's latest message.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intent": map[string]any{
				"type":        "string",
				"enum":        []string{intentBooking, intentQuestion, intentOther},
				"description": "booking when the user books or supplies booking details, question when they ask about something else.",
			},
			"name":  map[string]any{"type": "string", "description": "Full name of the person to interview, as written."},
			"email": map[string]any{"type": "string", "description": "Email address, as written."},
			"date":  map[string]any{"type": "string", "description": "Requested date exactly as the user wrote it, e.g. tomorrow or June 11."},
			"time":  map[string]any{"type": "string", "description": "Requested time exactly as the user wrote it, e.g. 2:30 PM or 14:30."},
		},
		"required": []string{"intent"},
	},
}

var slotLabels = map[domain.SlotName]string{
	domain.SlotFullName: "name",
	domain.SlotEmail:    "email",
	domain.SlotDate:     "date",
	domain.SlotTime:     "time",
}

// TurnOutcome is the result of one booking engine turn. Nothing is
// committed by the engine itself; the caller persists Draft (or deletes
// the session draft when Discard is set) after the turn succeeds.
type TurnOutcome struct {
	// Handled is false when the message belongs to the retrieval path
	Handled   bool
	Reply     string
	Draft     *domain.BookingDraft
	Discard   bool
	BookingID string
	Created   bool
	ToolCall  *domain.ToolCall
}

// State returns the booking state after the turn
func (o *TurnOutcome) State() domain.BookingState {
	if o.Discard || o.Draft == nil {
		return domain.BookingStateIdle
	}
	return o.Draft.State
}

// BookingEngine runs the interview booking state machine:
// IDLE -> AWAITING_SLOTS -> CONFIRMING -> COMPLETE. It is stateless;
// everything it needs to resume lives in the session's BookingDraft.
type BookingEngine struct {
	orchestrator *Orchestrator
	bookings     driven.BookingStore
	cfg          domain.PipelineConfig
	logger       *slog.Logger
}

// NewBookingEngine creates a booking engine
func NewBookingEngine(orchestrator *Orchestrator, bookings driven.BookingStore, cfg domain.PipelineConfig, logger *slog.Logger) *BookingEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingEngine{
		orchestrator: orchestrator,
		bookings:     bookings,
		cfg:          cfg,
		logger:       logger,
	}
}

// Handle applies one user message to the session's draft.
// An error means a transient failure; the caller replies with an
// apology and must not commit anything for the turn.
func (e *BookingEngine) Handle(ctx context.Context, draft *domain.BookingDraft, msg string, history []domain.Message, backend string, now time.Time) (*TurnOutcome, error) {
	d := draft.Clone()

	switch d.State {
	case domain.BookingStateAwaitingSlots:
		if IsCancel(msg) {
			return cancelled(), nil
		}
		return e.collect(ctx, d, msg, history, backend, now, false)

	case domain.BookingStateConfirming:
		if IsCancel(msg) {
			return cancelled(), nil
		}
		return e.confirm(ctx, d, msg, history, backend, now)

	default:
		if !IsBookingIntent(msg) {
			return &TurnOutcome{Handled: false}, nil
		}
		fresh := domain.NewBookingDraft(d.SessionID, now)
		fresh.State = domain.BookingStateAwaitingSlots
		return e.collect(ctx, fresh, msg, history, backend, now, true)
	}
}

func cancelled() *TurnOutcome {
	return &TurnOutcome{
		Handled: true,
		Discard: true,
		Reply:   "Okay, I've cancelled the booking. Let me know if there's anything else I can help with.",
	}
}

// abandoned hands the turn to retrieval and drops the draft
func abandoned() *TurnOutcome {
	return &TurnOutcome{Handled: false, Discard: true}
}

// collect merges slot values from msg and either asks for what is still
// missing or moves to confirmation.
func (e *BookingEngine) collect(ctx context.Context, d *domain.BookingDraft, msg string, history []domain.Message, backend string, now time.Time, fresh bool) (*TurnOutcome, error) {
	ext, err := e.extract(ctx, d, msg, history, backend, now)
	if err != nil {
		return nil, err
	}
	if !fresh && len(ext.values) == 0 && ext.asksQuestion(msg) {
		return abandoned(), nil
	}

	notes := e.merge(d, ext.values, now)
	return e.advance(d, notes, now), nil
}

// advance moves a draft to CONFIRMING when every slot is valid and asks
// for the pending slots otherwise.
func (e *BookingEngine) advance(d *domain.BookingDraft, notes []string, now time.Time) *TurnOutcome {
	d.UpdatedAt = now
	d.AskedWhich = false

	var reply strings.Builder
	for _, n := range notes {
		reply.WriteString(n)
		reply.WriteString(" ")
	}

	if d.Complete() {
		d.State = domain.BookingStateConfirming
		reply.WriteString(summary(d))
	} else {
		d.State = domain.BookingStateAwaitingSlots
		reply.WriteString(askFor(d, now))
	}
	return &TurnOutcome{Handled: true, Reply: reply.String(), Draft: d}
}

// merge applies raw values to the draft. Valid values replace earlier
// ones; an invalid value never replaces a valid one.
func (e *BookingEngine) merge(d *domain.BookingDraft, values map[domain.SlotName]string, now time.Time) []string {
	var notes []string
	for _, name := range domain.RequiredSlots {
		raw := strings.TrimSpace(values[name])
		if raw == "" {
			continue
		}
		s := d.Slot(name)
		v, err := ResolveSlot(name, raw, now)
		if err == nil {
			*s = domain.Slot{Value: v, Raw: raw, Status: domain.SlotValid}
			continue
		}
		if s.Status == domain.SlotValid {
			notes = append(notes, fmt.Sprintf("I kept the %s as %s because %q didn't work: %s.",
				slotLabels[name], s.Value, raw, err.Error()))
			continue
		}
		*s = domain.Slot{Raw: raw, Status: domain.SlotInvalid, Reason: err.Error()}
	}
	return notes
}

// confirm handles the reply to a booking summary
func (e *BookingEngine) confirm(ctx context.Context, d *domain.BookingDraft, msg string, history []domain.Message, backend string, now time.Time) (*TurnOutcome, error) {
	answer := ParseConfirmation(msg)
	if answer == ConfirmYes {
		return e.persist(ctx, d, now), nil
	}

	mentioned := mentionedSlots(msg)
	ext, err := e.extract(ctx, d, msg, history, backend, now)
	if err != nil {
		return nil, err
	}

	if len(mentioned) == 0 && len(ext.values) == 0 {
		if answer == ConfirmNo {
			d.AskedWhich = true
			d.UpdatedAt = now
			return &TurnOutcome{
				Handled: true,
				Draft:   d,
				Reply:   "No problem. Which detail should I change: the name, email, date or time?",
			}, nil
		}
		if ext.asksQuestion(msg) {
			return abandoned(), nil
		}
		d.UpdatedAt = now
		return &TurnOutcome{
			Handled: true,
			Draft:   d,
			Reply:   "Sorry, I didn't catch that. Reply yes to book it, or tell me which detail to change.",
		}, nil
	}

	// A named field without a new value is collected again
	for _, name := range mentioned {
		if _, ok := ext.values[name]; !ok {
			*d.Slot(name) = domain.Slot{Status: domain.SlotMissing}
		}
	}
	notes := e.merge(d, ext.values, now)
	return e.advance(d, notes, now), nil
}

// persist creates the booking. The booking ID is reserved in the draft
// before the first attempt so a retry after an unknown outcome reuses it.
func (e *BookingEngine) persist(ctx context.Context, d *domain.BookingDraft, now time.Time) *TurnOutcome {
	if d.BookingID == "" {
		d.BookingID = domain.GenerateID()
	}
	d.UpdatedAt = now

	booking := domain.BookingFromDraft(d, now)
	var id string
	err := withTimeout(ctx, e.cfg.Timeouts.Persistence, func(ctx context.Context) error {
		var err error
		id, err = e.bookings.Create(ctx, booking)
		return err
	})

	switch {
	case err == nil:
		d.State = domain.BookingStateComplete
		e.logger.Info("booking created",
			"booking_id", id,
			"session_id", d.SessionID,
			"date", booking.Date,
			"time", booking.Time,
		)
		return &TurnOutcome{
			Handled:   true,
			Draft:     d,
			Created:   true,
			BookingID: id,
			ToolCall: &domain.ToolCall{
				Name: createBookingTool,
				Arguments: map[string]any{
					"booking_id": id,
					"name":       booking.Name,
					"email":      booking.Email,
					"date":       booking.Date,
					"time":       booking.Time,
				},
			},
			Reply: fmt.Sprintf("Your interview is booked for %s at %s. Booking ID: %s. A confirmation will be sent to %s.",
				humanDate(booking.Date), booking.Time, id, booking.Email),
		}

	case errors.Is(err, domain.ErrAlreadyExists):
		e.logger.Info("booking slot taken", "session_id", d.SessionID, "date", booking.Date, "time", booking.Time)
		*d.Slot(domain.SlotDate) = domain.Slot{Status: domain.SlotMissing}
		*d.Slot(domain.SlotTime) = domain.Slot{Status: domain.SlotMissing}
		d.BookingID = ""
		d.State = domain.BookingStateAwaitingSlots
		return &TurnOutcome{
			Handled: true,
			Draft:   d,
			Reply: fmt.Sprintf("Sorry, %s at %s is already taken. Which other date and time would suit you?",
				humanDate(booking.Date), booking.Time),
		}

	case domain.IsRetryable(err):
		e.logger.Warn("booking create failed, retry possible", "session_id", d.SessionID, "error", err)
		d.State = domain.BookingStateConfirming
		return &TurnOutcome{
			Handled: true,
			Draft:   d,
			Reply:   "I couldn't save your booking just now. Your details are kept; reply yes to try again.",
		}

	default:
		e.logger.Error("booking create failed", "session_id", d.SessionID, "error", err)
		return &TurnOutcome{
			Handled: true,
			Discard: true,
			Reply:   "I couldn't finalize the booking due to an internal error. Please start the booking again later.",
		}
	}
}

// extraction is what one turn said about the booking
type extraction struct {
	intent string // empty when the model declined or failed
	values map[domain.SlotName]string
}

// asksQuestion reports whether the turn is an unrelated question
func (x extraction) asksQuestion(msg string) bool {
	switch x.intent {
	case intentQuestion:
		return true
	case "":
		return looksLikeQuestion(msg) && !IsBookingIntent(msg)
	default:
		return false
	}
}

// extract asks the model for slot values and falls back to pattern
// extraction when it declines or fails permanently. Values the model
// missed are filled from patterns. Only transient failures are returned.
func (e *BookingEngine) extract(ctx context.Context, d *domain.BookingDraft, msg string, history []domain.Message, backend string, now time.Time) (extraction, error) {
	pending := d.Pending()
	fallback := ExtractSlots(msg, pending)

	if e.orchestrator == nil {
		return extraction{values: fallback}, nil
	}

	res, err := e.orchestrator.Generate(ctx, backend, &domain.GenerateRequest{
		Mode:        domain.ModeStructured,
		System:      extractionPrompt(pending, now),
		History:     lastMessages(history, e.cfg.Memory.PromptHistory),
		Prompt:      msg,
		Schema:      bookingTurnSchema,
		Temperature: 0,
	})
	if err != nil {
		if domain.IsTransient(err) {
			return extraction{}, err
		}
		e.logger.Warn("slot extraction failed, using patterns", "session_id", d.SessionID, "error", err)
		return extraction{values: fallback}, nil
	}
	if res.Declined {
		return extraction{values: fallback}, nil
	}

	x := extraction{intent: strings.ToLower(res.String("intent")), values: make(map[domain.SlotName]string)}
	for _, name := range domain.RequiredSlots {
		if v := res.String(string(name)); v != "" {
			x.values[name] = v
		} else if v := fallback[name]; v != "" {
			x.values[name] = v
		}
	}
	if x.intent != intentBooking && x.intent != intentQuestion && x.intent != intentOther {
		x.intent = ""
	}
	return x, nil
}

func extractionPrompt(pending []domain.SlotName, now time.Time) string {
	var b strings.Builder
	b.WriteString("You extract interview booking details from the user's latest message.\n")
	fmt.Fprintf(&b, "Today's date is %s (%s).\n", now.Format("2006-01-02"), now.Weekday())
	if len(pending) > 0 {
		labels := make([]string, len(pending))
		for i, p := range pending {
			labels[i] = slotLabels[p]
		}
		fmt.Fprintf(&b, "Details still needed: %s.\n", strings.Join(labels, ", "))
	}
	b.WriteString("Copy each detail exactly as the user wrote it, including relative dates such as \"tomorrow\" and times such as \"2:30 PM\". ")
	b.WriteString("Leave a field empty when the latest message does not state it. Never guess or invent values.\n")
	b.WriteString("Set intent to booking when the user is booking or giving booking details, question when they ask about something unrelated, otherwise other.")
	return b.String()
}

// askFor requests exactly the pending slots, explaining invalid ones
func askFor(d *domain.BookingDraft, now time.Time) string {
	pending := d.Pending()

	var b strings.Builder
	for _, name := range pending {
		s := d.Slot(name)
		if s.Status == domain.SlotInvalid {
			fmt.Fprintf(&b, "The %s you gave (%q) didn't work: %s. ", slotLabels[name], s.Raw, s.Reason)
		}
	}

	asks := make([]string, len(pending))
	for i, name := range pending {
		asks[i] = slotPrompt(name, now)
	}
	fmt.Fprintf(&b, "To book your interview, please tell me %s.", joinList(asks))
	return b.String()
}

func slotPrompt(name domain.SlotName, now time.Time) string {
	switch name {
	case domain.SlotFullName:
		return "your full name"
	case domain.SlotEmail:
		return "your email address"
	case domain.SlotDate:
		return fmt.Sprintf("the date you'd like (for example %s or \"next Monday\")", now.AddDate(0, 0, 7).Format("2006-01-02"))
	case domain.SlotTime:
		return "the time you'd like (for example 14:30 or 2:30 PM)"
	default:
		return string(name)
	}
}

func summary(d *domain.BookingDraft) string {
	return fmt.Sprintf("Here are your interview details:\n- Name: %s\n- Email: %s\n- Date: %s\n- Time: %s\nShall I book it? Reply yes to confirm, or tell me what to change.",
		d.Slot(domain.SlotFullName).Value,
		d.Slot(domain.SlotEmail).Value,
		humanDate(d.Slot(domain.SlotDate).Value),
		d.Slot(domain.SlotTime).Value,
	)
}

func humanDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("Monday, 2 January 2006")
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// lastMessages returns at most n of the most recent messages
func lastMessages(history []domain.Message, n int) []domain.Message {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}
