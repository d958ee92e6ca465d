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
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

const (
	apologyReply   = "Sorry, I ran into a problem handling your message. Please try again."
	busyReply      = "Sorry, I'm still working on your previous message. Please try again in a moment."
	noContextReply = "I couldn't find any relevant information in the uploaded documents. Try rephrasing your question, or upload documents that cover it."
	emptyReply     = "I'm sorry, I could not generate a response."

	previewChars = 200
)

// ChatServiceConfig holds dependencies for the chat service
type ChatServiceConfig struct {
	Engine       *BookingEngine
	Orchestrator *Orchestrator
	Retriever    *Retriever
	Reranker     *RerankStage // Optional
	Memory       driven.ConversationStore
	Drafts       driven.BookingStateStore
	Locker       *SessionLocker
	Pipeline     domain.PipelineConfig
	Logger       *slog.Logger
	Now          func() time.Time // Defaults to time.Now
}

// chatService runs one turn per call: the booking engine gets the first
// look at every message and anything it does not handle is answered
// from retrieved context.
type chatService struct {
	engine       *BookingEngine
	orchestrator *Orchestrator
	retriever    *Retriever
	reranker     *RerankStage
	memory       driven.ConversationStore
	drafts       driven.BookingStateStore
	locker       *SessionLocker
	cfg          domain.PipelineConfig
	logger       *slog.Logger
	now          func() time.Time
}

// NewChatService creates a new ChatService
func NewChatService(cfg ChatServiceConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	locker := cfg.Locker
	if locker == nil {
		locker = NewSessionLocker(nil, cfg.Pipeline.Timeouts.LockWait, cfg.Pipeline.Timeouts.Turn, logger)
	}
	return &chatService{
		engine:       cfg.Engine,
		orchestrator: cfg.Orchestrator,
		retriever:    cfg.Retriever,
		reranker:     cfg.Reranker,
		memory:       cfg.Memory,
		drafts:       cfg.Drafts,
		locker:       locker,
		cfg:          cfg.Pipeline,
		logger:       logger,
		now:          now,
	}
}

// Chat processes one turn for a session
func (s *chatService) Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	msg := strings.TrimSpace(req.Message)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}
	if msg == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	backend := strings.TrimSpace(req.Model)
	if backend != "" && !s.orchestrator.HasBackend(backend) {
		return nil, fmt.Errorf("%w: unknown model %q", domain.ErrInvalidInput, backend)
	}

	if s.cfg.Timeouts.Turn > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeouts.Turn)
		defer cancel()
	}

	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		s.logger.Warn("session lock not acquired", "session_id", sessionID, "error", err)
		return reply(busyReply, domain.BookingStateIdle), nil
	}
	defer unlock()

	start := s.now()
	logger := s.logger.With("session_id", sessionID)

	history, err := s.memory.History(ctx, sessionID, s.cfg.Memory.PromptHistory)
	if err != nil {
		logger.Warn("conversation history unavailable", "error", err)
		history = nil
	}

	draft, err := s.loadDraft(ctx, sessionID, start)
	if err != nil {
		logger.Error("failed to load booking state", "error", err)
		return reply(apologyReply, domain.BookingStateIdle), nil
	}

	outcome, err := s.engine.Handle(ctx, draft, msg, history, backend, start)
	if err != nil {
		logger.Warn("booking turn failed", "state", draft.State, "error", err)
		return reply(apologyReply, draft.State), nil
	}

	var resp *domain.ChatResponse
	if outcome.Handled {
		resp = reply(outcome.Reply, outcome.State())
		if outcome.Created {
			id := outcome.BookingID
			resp.BookingCreated = true
			resp.BookingID = &id
		}
	} else {
		text, sources, err := s.answer(ctx, msg, history, backend, start)
		if err != nil {
			logger.Warn("answer failed", "error", err)
			return reply(apologyReply, draft.State), nil
		}
		state := draft.State
		if outcome.Discard {
			state = domain.BookingStateIdle
		}
		resp = reply(text, state)
		resp.Sources = sources
	}

	if err := s.commit(ctx, sessionID, outcome); err != nil {
		logger.Error("failed to save booking state", "error", err)
		if !outcome.Created {
			return reply(apologyReply, draft.State), nil
		}
	}

	assistant := domain.NewMessage(domain.RoleAssistant, resp.Reply, s.now())
	assistant.ToolCall = outcome.ToolCall
	if err := s.memory.Append(ctx, sessionID, domain.NewMessage(domain.RoleUser, msg, start), assistant); err != nil {
		logger.Warn("failed to append conversation history", "error", err)
	}

	logger.Info("chat turn completed",
		"state", resp.State,
		"booking_turn", outcome.Handled,
		"sources", len(resp.Sources),
		"booking_created", resp.BookingCreated,
		"duration", s.now().Sub(start),
	)
	return resp, nil
}

// History returns up to limit most recent messages of a session
func (s *chatService) History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > s.cfg.Memory.Window {
		limit = s.cfg.Memory.Window
	}
	return s.memory.History(ctx, sessionID, limit)
}

func (s *chatService) loadDraft(ctx context.Context, sessionID string, now time.Time) (*domain.BookingDraft, error) {
	var draft *domain.BookingDraft
	err := withTimeout(ctx, s.cfg.Timeouts.Persistence, func(ctx context.Context) error {
		var err error
		draft, err = s.drafts.Load(ctx, sessionID)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewBookingDraft(sessionID, now), nil
	}
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// commit persists the booking state produced by the turn
func (s *chatService) commit(ctx context.Context, sessionID string, outcome *TurnOutcome) error {
	return withTimeout(ctx, s.cfg.Timeouts.Persistence, func(ctx context.Context) error {
		switch {
		case outcome.Discard:
			return s.drafts.Delete(ctx, sessionID)
		case outcome.Draft != nil:
			return s.drafts.Save(ctx, outcome.Draft)
		default:
			return nil
		}
	})
}

// answer retrieves, reranks and generates a grounded reply
func (s *chatService) answer(ctx context.Context, msg string, history []domain.Message, backend string, now time.Time) (string, []domain.SourceChunk, error) {
	topK := s.cfg.Retrieval.TopK
	fanOut := topK
	if s.cfg.Retrieval.RerankCandidates > fanOut {
		fanOut = s.cfg.Retrieval.RerankCandidates
	}

	retrieval, err := s.retriever.Search(ctx, msg, fanOut)
	if err != nil {
		return "", nil, err
	}
	results := s.reranker.rerankOrFused(ctx, retrieval.Query, retrieval.Results)
	if len(results) > topK {
		results = results[:topK]
	}
	if len(results) == 0 {
		return noContextReply, []domain.SourceChunk{}, nil
	}

	contextText, used := buildContext(results, s.cfg.Retrieval.MaxContextChars)
	results = results[:used]

	res, err := s.orchestrator.Generate(ctx, backend, &domain.GenerateRequest{
		Mode:        domain.ModeText,
		System:      groundedPrompt(now),
		History:     history,
		Prompt:      msg,
		Context:     contextText,
		Temperature: 0.2,
	})
	if err != nil {
		return "", nil, err
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		text = emptyReply
	}
	return text, toSources(results), nil
}

func groundedPrompt(now time.Time) string {
	return "You are a helpful assistant answering questions about the user's uploaded documents.\n" +
		"Only answer from the provided Context. If the answer isn't there, say you don't know and suggest uploading relevant documents.\n" +
		"If the user hints at scheduling an interview, answer the question and then ask whether they would like to book one.\n" +
		fmt.Sprintf("Today's date is %s.", now.Format("2006-01-02"))
}

// buildContext joins chunk texts up to maxChars. The last chunk that
// fits partially is truncated; the count of chunks used is returned.
func buildContext(results []*domain.SearchResult, maxChars int) (string, int) {
	const sep = "\n\n"
	var b strings.Builder
	used := 0
	for _, r := range results {
		if used > 0 {
			if b.Len()+len(sep) >= maxChars {
				break
			}
			b.WriteString(sep)
		}
		room := maxChars - b.Len()
		content := r.Chunk.Content
		if len(content) > room {
			content = truncateRunes(content, room)
		}
		b.WriteString(content)
		used++
		if b.Len() >= maxChars {
			break
		}
	}
	return b.String(), used
}

// truncateRunes cuts s to at most n bytes without splitting a rune
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func toSources(results []*domain.SearchResult) []domain.SourceChunk {
	out := make([]domain.SourceChunk, len(results))
	for i, r := range results {
		out[i] = domain.SourceChunk{
			ChunkID:     r.Chunk.ID,
			DocumentID:  r.Chunk.DocumentID,
			Filename:    r.Chunk.Filename,
			Position:    r.Chunk.Position,
			TextPreview: preview(r.Chunk.Content),
			FusedScore:  r.FusedScore,
			RerankScore: r.RerankScore,
		}
	}
	return out
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewChars {
		return s
	}
	return string(runes[:previewChars]) + "..."
}

func reply(text string, state domain.BookingState) *domain.ChatResponse {
	if state == "" {
		state = domain.BookingStateIdle
	}
	return &domain.ChatResponse{
		Reply:   text,
		Sources: []domain.SourceChunk{},
		State:   state,
	}
}
