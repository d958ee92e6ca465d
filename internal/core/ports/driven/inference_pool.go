package driven

import "context"

// InferencePool runs blocking model calls (embedding, reranking) on a
// bounded set of workers, off the request-dispatch path.
type InferencePool interface {
	// Submit runs fn on a pool worker and waits for its result.
	// Returns domain.ErrPoolSaturated without running fn when the
	// workers and the wait queue are all taken.
	Submit(ctx context.Context, fn func(ctx context.Context) error) error
}
