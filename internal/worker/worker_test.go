package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// mockTaskQueue implements driven.TaskQueue for testing
type mockTaskQueue struct {
	mu           sync.Mutex
	tasks        []*domain.Task
	acked        []string
	nacked       []string
	dequeueDelay time.Duration
	dequeueFn    func() (*domain.Task, error)
	pingFn       func() error
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{
		tasks:        make([]*domain.Task, 0),
		dequeueDelay: 5 * time.Millisecond,
	}
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	if m.dequeueFn != nil {
		return m.dequeueFn()
	}
	m.mu.Lock()
	if len(m.tasks) > 0 {
		task := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.mu.Unlock()
		task.MarkProcessing()
		return task, nil
	}
	m.mu.Unlock()

	// Emulate a blocking read on an empty queue
	select {
	case <-time.After(m.dequeueDelay):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *mockTaskQueue) Ack(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, taskID)
	return nil
}

func (m *mockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nacked = append(m.nacked, taskID)
	return nil
}

func (m *mockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &driven.QueueStats{
		PendingCount: int64(len(m.tasks)),
	}, nil
}

func (m *mockTaskQueue) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn()
	}
	return nil
}

func (m *mockTaskQueue) Close() error {
	return nil
}

func (m *mockTaskQueue) results() (acked, nacked []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...), append([]string(nil), m.nacked...)
}

// mockIndexer records Reindex calls
type mockIndexer struct {
	mu        sync.Mutex
	reindexed []string
	reindexFn func(documentID string) error
}

func (m *mockIndexer) Ingest(ctx context.Context, req *domain.IngestRequest) (*domain.IngestResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *mockIndexer) Reindex(ctx context.Context, documentID string) error {
	m.mu.Lock()
	m.reindexed = append(m.reindexed, documentID)
	m.mu.Unlock()
	if m.reindexFn != nil {
		return m.reindexFn(documentID)
	}
	return nil
}

func TestNewWorker(t *testing.T) {
	queue := newMockTaskQueue()
	logger := slog.Default()

	w := NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Indexer:        &mockIndexer{},
		Logger:         logger,
		Concurrency:    2,
		DequeueTimeout: 5,
	})

	if w == nil {
		t.Fatal("expected non-nil worker")
	}
	if w.concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected dequeue timeout 5, got %d", w.dequeueTimeout)
	}
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{
		TaskQueue:      newMockTaskQueue(),
		Concurrency:    0, // Should default to 1
		DequeueTimeout: 0, // Should default to 5
	})

	if w.concurrency != 1 {
		t.Errorf("expected default concurrency 1, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected default dequeue timeout 5, got %d", w.dequeueTimeout)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWorker_StartStop(t *testing.T) {
	queue := newMockTaskQueue()

	w := NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Indexer:        &mockIndexer{},
		Concurrency:    1,
		DequeueTimeout: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	if !w.Health(ctx).Running {
		t.Error("expected worker to be running")
	}

	// Start again should be no-op
	if err := w.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	w.Stop()
	if w.Health(ctx).Running {
		t.Error("expected worker to be stopped")
	}

	// Stop again should be no-op
	w.Stop()
}

func TestWorker_ProcessesIndexTasks(t *testing.T) {
	queue := newMockTaskQueue()
	indexer := &mockIndexer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		_ = queue.Enqueue(ctx, domain.NewIndexDocumentTask(fmt.Sprintf("doc-%d", i)))
	}

	w := NewWorker(WorkerConfig{TaskQueue: queue, Indexer: indexer, Concurrency: 2})
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if acked, _ := queue.results(); len(acked) == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	acked, nacked := queue.results()
	if len(acked) != 3 {
		t.Errorf("expected 3 acked tasks, got %d", len(acked))
	}
	if len(nacked) != 0 {
		t.Errorf("expected no nacks, got %d", len(nacked))
	}
	indexer.mu.Lock()
	defer indexer.mu.Unlock()
	if len(indexer.reindexed) != 3 {
		t.Errorf("expected 3 reindex calls, got %d", len(indexer.reindexed))
	}
}

func TestWorker_ProcessTask(t *testing.T) {
	tests := []struct {
		name      string
		task      *domain.Task
		reindexFn func(string) error
		wantAck   bool
	}{
		{
			name:    "success",
			task:    domain.NewIndexDocumentTask("doc-1"),
			wantAck: true,
		},
		{
			name:      "transient failure is nacked",
			task:      domain.NewIndexDocumentTask("doc-1"),
			reindexFn: func(string) error { return domain.ErrIndexUnavailable },
			wantAck:   false,
		},
		{
			name:      "deleted document is dropped",
			task:      domain.NewIndexDocumentTask("doc-1"),
			reindexFn: func(string) error { return fmt.Errorf("failed to get document: %w", domain.ErrNotFound) },
			wantAck:   true,
		},
		{
			name:    "missing document id",
			task:    domain.NewTask(domain.TaskTypeIndexDocument, nil),
			wantAck: false,
		},
		{
			name:    "unknown type",
			task:    &domain.Task{ID: "task-123", Type: domain.TaskType("unknown_type")},
			wantAck: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := newMockTaskQueue()
			w := NewWorker(WorkerConfig{
				TaskQueue: queue,
				Indexer:   &mockIndexer{reindexFn: tt.reindexFn},
			})

			w.processTask(context.Background(), tt.task, slog.Default())

			acked, nacked := queue.results()
			if tt.wantAck && (len(acked) != 1 || len(nacked) != 0) {
				t.Errorf("expected ack, got acked=%v nacked=%v", acked, nacked)
			}
			if !tt.wantAck && (len(nacked) != 1 || len(acked) != 0) {
				t.Errorf("expected nack, got acked=%v nacked=%v", acked, nacked)
			}
		})
	}
}

func TestWorker_DequeueErrorBacksOff(t *testing.T) {
	queue := newMockTaskQueue()
	var calls int
	var mu sync.Mutex
	queue.dequeueFn = func() (*domain.Task, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, errors.New("redis down")
	}

	w := NewWorker(WorkerConfig{TaskQueue: queue, Indexer: &mockIndexer{}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = w.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	if calls > 2 {
		t.Errorf("expected back-off between failed dequeues, got %d calls", calls)
	}
}

func TestWorker_Health_QueueError(t *testing.T) {
	queue := newMockTaskQueue()
	queue.pingFn = func() error {
		return errors.New("connection failed")
	}

	w := NewWorker(WorkerConfig{TaskQueue: queue, Concurrency: 1})

	health := w.Health(context.Background())
	if health.QueueHealth {
		t.Error("expected queue to be unhealthy")
	}
	if health.Error != "connection failed" {
		t.Errorf("expected error message, got %q", health.Error)
	}
}
