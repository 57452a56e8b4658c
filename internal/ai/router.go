package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNoProvider is returned when nothing is registered.
var ErrNoProvider = errors.New("no AI provider configured")

const defaultAttemptTimeout = 30 * time.Second

// Router tries providers in registration order until one succeeds. Each
// attempt runs under its own timeout so a hung backend cannot stall the chain.
type Router struct {
	providers map[string]Provider
	fallback  []string // ordered fallback chain
	timeout   time.Duration
	mu        sync.RWMutex
}

// NewRouter creates a new AI router. A non-positive timeout selects 30s per attempt.
func NewRouter(timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	return &Router{
		providers: make(map[string]Provider),
		timeout:   timeout,
	}
}

// Register adds a provider to the end of the fallback chain. Registering a
// name again replaces the provider and keeps its position.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; !exists {
		r.fallback = append(r.fallback, name)
	}
	r.providers[name] = provider
}

// Complete routes a request through the fallback chain. Nothing is retried
// once every provider has been tried.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.fallback) == 0 {
		return CompletionResponse{}, ErrNoProvider
	}

	var errs []error
	for _, name := range r.fallback {
		if err := ctx.Err(); err != nil {
			return CompletionResponse{}, err
		}

		resp, err := r.attempt(ctx, r.providers[name], req)
		if err != nil {
			slog.Warn("AI provider failed, trying next",
				"provider", name,
				"purpose", req.Purpose,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		slog.Debug("AI request completed",
			"provider", name,
			"purpose", req.Purpose,
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)
		return resp, nil
	}

	return CompletionResponse{}, fmt.Errorf("all AI providers failed: %w", errors.Join(errs...))
}

func (r *Router) attempt(ctx context.Context, p Provider, req CompletionRequest) (CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return p.Complete(ctx, req)
}

// HealthCheck succeeds when at least one provider is healthy.
func (r *Router) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.fallback) == 0 {
		return ErrNoProvider
	}
	var errs []error
	for _, name := range r.fallback {
		err := r.providers[name].HealthCheck(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(errs...)
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}
