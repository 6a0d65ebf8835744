// Package provider implements ordered fallback across interchangeable
// implementations of one external capability.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrNoProviders is returned when a chain has nothing to try.
var ErrNoProviders = errors.New("provider: no providers configured")

// Named is implemented by every capability adapter.
type Named interface {
	// Name identifies the provider in logs and aggregated errors.
	Name() string
}

// Failure records why one provider failed.
type Failure struct {
	Provider string
	Err      error
}

// AllProvidersFailedError is returned when every provider of a chain failed.
// Its message names each provider with its failure reason.
type AllProvidersFailedError struct {
	Capability string
	Failures   []Failure
}

func (e *AllProvidersFailedError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("all %s providers failed: %v", e.Capability, ErrNoProviders)
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Provider, f.Err)
	}
	return fmt.Sprintf("all %s providers failed: %s", e.Capability, strings.Join(parts, "; "))
}

// Unwrap exposes every per-provider cause to errors.Is and errors.As.
func (e *AllProvidersFailedError) Unwrap() []error {
	if len(e.Failures) == 0 {
		return []error{ErrNoProviders}
	}
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Chain is an ordered list of providers for one capability.
// Each provider is attempted once; the first success wins.
type Chain[P Named] struct {
	capability string
	providers  []P
	logger     *slog.Logger
}

// NewChain creates a chain for capability trying providers in the given order.
func NewChain[P Named](capability string, logger *slog.Logger, providers ...P) *Chain[P] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain[P]{
		capability: capability,
		providers:  append([]P(nil), providers...),
		logger:     logger,
	}
}

// Capability returns the capability name.
func (c *Chain[P]) Capability() string {
	return c.capability
}

// Providers returns the provider names in attempt order.
func (c *Chain[P]) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of providers.
func (c *Chain[P]) Len() int {
	return len(c.providers)
}

// Execute calls fn with each provider in order and returns the first
// successful result. When all fail it returns *AllProvidersFailedError.
// A cancelled context stops the chain immediately.
func Execute[P Named, Out any](ctx context.Context, c *Chain[P], fn func(context.Context, P) (Out, error)) (Out, error) {
	var zero Out
	failures := make([]Failure, 0, len(c.providers))

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: %w", c.capability, err)
		}

		start := time.Now()
		out, err := fn(ctx, p)
		if err == nil {
			c.logger.Info("provider succeeded",
				slog.String("capability", c.capability),
				slog.String("provider", p.Name()),
				slog.Duration("duration", time.Since(start)),
			)
			return out, nil
		}

		c.logger.Warn("provider failed",
			slog.String("capability", c.capability),
			slog.String("provider", p.Name()),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		failures = append(failures, Failure{Provider: p.Name(), Err: err})
	}

	return zero, &AllProvidersFailedError{Capability: c.capability, Failures: failures}
}
