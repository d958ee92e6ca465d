package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// LexicalRefresher rebuilds the in-memory lexical index from the chunk
// store on an interval, so chunks written by other instances become
// searchable here.
type LexicalRefresher struct {
	chunks  driven.ChunkStore
	lexical driven.LexicalIndex
	logger  *slog.Logger

	// Internal state
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration
}

// LexicalRefresherConfig holds configuration for the refresher.
type LexicalRefresherConfig struct {
	Chunks   driven.ChunkStore
	Lexical  driven.LexicalIndex
	Logger   *slog.Logger
	Interval time.Duration // How often to rebuild (default: 1m)
}

// NewLexicalRefresher creates a new refresher.
func NewLexicalRefresher(cfg LexicalRefresherConfig) *LexicalRefresher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &LexicalRefresher{
		chunks:   cfg.Chunks,
		lexical:  cfg.Lexical,
		logger:   logger,
		interval: interval,
	}
}

// Refresh replaces the index contents with every stored chunk.
// The swap is atomic for readers; a failed load leaves the index as is.
func (r *LexicalRefresher) Refresh(ctx context.Context) error {
	start := time.Now()
	chunks, err := r.chunks.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}
	if err := r.lexical.Replace(ctx, chunks); err != nil {
		return fmt.Errorf("failed to rebuild lexical index: %w", err)
	}
	r.logger.Debug("lexical index refreshed", "chunks", len(chunks), "duration", time.Since(start))
	return nil
}

// Start begins the refresh loop.
// It runs until Stop is called or context is cancelled.
func (r *LexicalRefresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	r.logger.Info("lexical refresher starting", "interval", r.interval)

	go r.run(ctx)
}

// Stop stops the loop and waits for it to exit.
func (r *LexicalRefresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	close(r.stopCh)
	r.mu.Unlock()

	<-r.doneCh

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	r.logger.Info("lexical refresher stopped")
}

func (r *LexicalRefresher) run(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Warn("lexical refresh failed", "error", err)
			}
		}
	}
}
