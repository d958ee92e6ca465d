package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/runtime"
)

// Orchestrator dispatches generation requests to the backend the
// caller names. It bounds each call with a timeout and retries once
// on transient failures; a declined structured answer is returned as a
// result, not an error.
type Orchestrator struct {
	services *runtime.Services
	timeout  time.Duration
	backoff  time.Duration
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator over the backends registered in services
func NewOrchestrator(services *runtime.Services, timeouts domain.TimeoutConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		services: services,
		timeout:  timeouts.LLM,
		backoff:  timeouts.RetryBackoff,
		logger:   logger,
	}
}

// HasBackend reports whether name (or the default when empty) is registered
func (o *Orchestrator) HasBackend(name string) bool {
	_, err := o.services.LLMBackend(name)
	return err == nil
}

// Generate runs req on the named backend; empty selects the default.
// Errors are domain.ErrUnknownBackend or a *domain.InferenceError.
func (o *Orchestrator) Generate(ctx context.Context, backend string, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	b, err := o.services.LLMBackend(backend)
	if err != nil {
		return nil, err
	}

	if req.Mode == domain.ModeStructured && req.Schema == nil {
		return nil, &domain.InferenceError{Op: "generate", Backend: b.Name(), Err: errors.New("structured mode requires a schema")}
	}

	start := time.Now()
	var result *domain.GenerateResult
	err = retryOnce(ctx, o.timeout, o.backoff, func(ctx context.Context) error {
		var err error
		result, err = b.Generate(ctx, req)
		return err
	})
	if err != nil {
		var ie *domain.InferenceError
		if !errors.As(err, &ie) {
			err = domain.NewInferenceError("generate", b.Name(), err)
		}
		o.logger.Warn("generation failed",
			"backend", b.Name(),
			"mode", req.Mode,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, err
	}
	if result == nil {
		return nil, &domain.InferenceError{Op: "generate", Backend: b.Name(), Err: errors.New("empty result")}
	}
	if result.Backend == "" {
		result.Backend = b.Name()
	}

	o.logger.Debug("generation completed",
		"backend", result.Backend,
		"model", result.Model,
		"mode", req.Mode,
		"declined", result.Declined,
		"duration", time.Since(start),
	)
	return result, nil
}
