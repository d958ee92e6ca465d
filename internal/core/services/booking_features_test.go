package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/sercha-assist/internal/chunking"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// bookingWorld holds the state of one scenario
type bookingWorld struct {
	f       *chatFixture
	chat    driving.ChatService
	ingest  driving.IngestService
	session string
	last    *domain.ChatResponse
}

func (w *bookingWorld) newSession(id string) error {
	w.f = newChatFixture()
	w.chat = w.f.service()
	embedder := NewPooledEmbedder(w.f.services, nil, w.f.cfg.Timeouts)
	w.ingest = NewIngestService(IngestServiceConfig{
		Documents: mocks.NewMockDocumentStore(),
		Chunks:    mocks.NewMockChunkStore(),
		Lexical:   w.f.lexical,
		Vector:    w.f.vector,
		Extractor: mocks.MockTextExtractor{},
		Chunkers:  chunking.NewRegistry(chunking.NewFixed(w.f.cfg.Chunking)),
		Embedder:  embedder,
		Pipeline:  w.f.cfg,
	})
	w.session = id
	w.last = nil
	return nil
}

func (w *bookingWorld) uploadedDocument(filename, text string) error {
	resp, err := w.ingest.Ingest(context.Background(), &domain.IngestRequest{
		Documents: []domain.IngestDocument{{Filename: filename, Content: []byte(text)}},
	})
	if err != nil {
		return err
	}
	if resp.Succeeded != 1 {
		return fmt.Errorf("ingest failed: %s", resp.Results[0].Error)
	}
	return nil
}

func (w *bookingWorld) everySlotTaken() error {
	w.f.bookings.CreateFn = func(b *domain.Booking) (string, error) {
		return "", &domain.PersistenceError{Err: domain.ErrAlreadyExists}
	}
	return nil
}

func (w *bookingWorld) visitorSays(msg string) error {
	resp, err := w.chat.Chat(context.Background(), &domain.ChatRequest{SessionID: w.session, Message: msg})
	if err != nil {
		return err
	}
	if resp.Sources == nil {
		return fmt.Errorf("sources must never be null")
	}
	w.last = resp
	return nil
}

func (w *bookingWorld) stateIs(state string) error {
	if got := string(w.last.State); got != state {
		return fmt.Errorf("expected state %s, got %s (reply %q)", state, got, w.last.Reply)
	}
	return nil
}

func (w *bookingWorld) draftHas(date, clock string) error {
	draft, err := w.f.drafts.Load(context.Background(), w.session)
	if err != nil {
		return err
	}
	if got := draft.Slot(domain.SlotDate).Value; got != date {
		return fmt.Errorf("expected date %s, got %q", date, got)
	}
	if got := draft.Slot(domain.SlotTime).Value; got != clock {
		return fmt.Errorf("expected time %s, got %q", clock, got)
	}
	return nil
}

func (w *bookingWorld) noDraft() error {
	if _, err := w.f.drafts.Load(context.Background(), w.session); err == nil {
		return fmt.Errorf("expected no draft for %s", w.session)
	}
	return nil
}

func (w *bookingWorld) noBookingStored() error {
	if n := len(w.f.bookings.All()); n != 0 {
		return fmt.Errorf("expected no bookings, got %d", n)
	}
	if w.last.BookingCreated || w.last.BookingID != nil {
		return fmt.Errorf("reply reports a booking that was not stored")
	}
	return nil
}

func (w *bookingWorld) replyReportsBooking() error {
	if !w.last.BookingCreated || w.last.BookingID == nil || *w.last.BookingID == "" {
		return fmt.Errorf("expected a created booking, got %+v", w.last)
	}
	return nil
}

func (w *bookingWorld) bookingStored(count int, email, date, clock string) error {
	all := w.f.bookings.All()
	if len(all) != count {
		return fmt.Errorf("expected %d bookings, got %d", count, len(all))
	}
	b := all[0]
	if b.Email != email || b.Date != date || b.Time != clock {
		return fmt.Errorf("unexpected booking %+v", b)
	}
	if b.ID != *w.last.BookingID {
		return fmt.Errorf("stored booking %s does not match reply %s", b.ID, *w.last.BookingID)
	}
	return nil
}

func (w *bookingWorld) asksOnly(slot string) error {
	reply := strings.ToLower(w.last.Reply)
	if !strings.Contains(reply, slot) {
		return fmt.Errorf("expected reply to ask for %s: %q", slot, w.last.Reply)
	}
	for _, name := range domain.RequiredSlots {
		label := slotLabels[name]
		if label != slot && strings.Contains(reply, label) {
			return fmt.Errorf("reply should only ask for %s: %q", slot, w.last.Reply)
		}
	}
	return nil
}

func (w *bookingWorld) replyMentions(text string) error {
	if !strings.Contains(w.last.Reply, text) {
		return fmt.Errorf("expected reply to mention %q: %q", text, w.last.Reply)
	}
	return nil
}

func (w *bookingWorld) replyCites(filename string) error {
	for _, s := range w.last.Sources {
		if s.Filename == filename {
			return nil
		}
	}
	return fmt.Errorf("expected a source from %s, got %+v", filename, w.last.Sources)
}

func (w *bookingWorld) citesNothing() error {
	if len(w.last.Sources) != 0 {
		return fmt.Errorf("expected no sources, got %d", len(w.last.Sources))
	}
	return nil
}

func (w *bookingWorld) noInformationReply() error {
	if w.last.Reply != noContextReply {
		return fmt.Errorf("expected fallback reply, got %q", w.last.Reply)
	}
	return nil
}

func initializeBookingScenario(sc *godog.ScenarioContext) {
	w := &bookingWorld{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		*w = bookingWorld{}
		return ctx, nil
	})

	sc.Step(`^a new chat session "([^"]*)"$`, w.newSession)
	sc.Step(`^the uploaded document "([^"]*)" says "([^"]*)"$`, w.uploadedDocument)
	sc.Step(`^the booking store reports every slot as taken$`, w.everySlotTaken)
	sc.Step(`^the visitor says "([^"]*)"$`, w.visitorSays)
	sc.Step(`^the booking state is "([^"]*)"$`, w.stateIs)
	sc.Step(`^the draft has date "([^"]*)" and time "([^"]*)"$`, w.draftHas)
	sc.Step(`^there is no draft$`, w.noDraft)
	sc.Step(`^no booking is stored$`, w.noBookingStored)
	sc.Step(`^the reply reports a created booking$`, w.replyReportsBooking)
	sc.Step(`^(\d+) booking is stored for "([^"]*)" on "([^"]*)" at "([^"]*)"$`, w.bookingStored)
	sc.Step(`^the reply asks for the "([^"]*)" only$`, w.asksOnly)
	sc.Step(`^the reply mentions "([^"]*)"$`, w.replyMentions)
	sc.Step(`^the reply cites "([^"]*)"$`, w.replyCites)
	sc.Step(`^the reply cites nothing$`, w.citesNothing)
	sc.Step(`^the reply says no relevant information was found$`, w.noInformationReply)
}

func TestBookingFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "booking",
		ScenarioInitializer: initializeBookingScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
