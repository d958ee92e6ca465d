package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

const lockPollInterval = 50 * time.Millisecond

// SessionLocker serializes turns of the same session. Turns wait in
// arrival order on a per-session slot in this process; when a
// distributed lock is configured the turn also holds "session:<id>"
// so other instances are excluded.
type SessionLocker struct {
	mu       sync.Mutex
	sessions map[string]*sessionSlot

	distributed driven.DistributedLock
	wait        time.Duration
	ttl         time.Duration
	logger      *slog.Logger
}

type sessionSlot struct {
	ch   chan struct{}
	refs int
}

// NewSessionLocker creates a locker. wait bounds how long a turn queues
// for the lock; ttl is how long a distributed lock survives a crashed holder.
func NewSessionLocker(distributed driven.DistributedLock, wait, ttl time.Duration, logger *slog.Logger) *SessionLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionLocker{
		sessions:    make(map[string]*sessionSlot),
		distributed: distributed,
		wait:        wait,
		ttl:         ttl,
		logger:      logger,
	}
}

// Lock acquires the session. It returns domain.ErrSessionBusy when the
// wait expires and the returned func releases the lock.
func (l *SessionLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	slot := l.ref(sessionID)
	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(sessionID)
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionBusy, sessionID)
	}

	if l.distributed != nil {
		if err := l.acquireDistributed(ctx, sessionID); err != nil {
			<-slot.ch
			l.unref(sessionID)
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if l.distributed != nil {
				// Released even when the turn's context is already done
				rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := l.distributed.Release(rctx, lockName(sessionID)); err != nil {
					l.logger.Warn("failed to release session lock", "session_id", sessionID, "error", err)
				}
				cancel()
			}
			<-slot.ch
			l.unref(sessionID)
		})
	}, nil
}

func (l *SessionLocker) acquireDistributed(ctx context.Context, sessionID string) error {
	name := lockName(sessionID)
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.distributed.Acquire(ctx, name, l.ttl)
		if err != nil {
			l.logger.Warn("session lock backend error", "session_id", sessionID, "error", err)
		} else if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", domain.ErrSessionBusy, sessionID)
		case <-ticker.C:
		}
	}
}

func (l *SessionLocker) ref(sessionID string) *sessionSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[sessionID]
	if !ok {
		s = &sessionSlot{ch: make(chan struct{}, 1)}
		l.sessions[sessionID] = s
	}
	s.refs++
	return s
}

func (l *SessionLocker) unref(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[sessionID]
	if !ok {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(l.sessions, sessionID)
	}
}

// active returns the number of sessions with a holder or waiter
func (l *SessionLocker) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

func lockName(sessionID string) string {
	return "session:" + sessionID
}
