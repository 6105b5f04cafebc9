package completion

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/logging"
	"github.com/sethvargo/go-retry"
)

// DefaultModels is the fallback order, cheapest first.
var DefaultModels = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-pro"}

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Result is a generated reply and the model that produced it.
type Result struct {
	Text  string
	Model string
}

// UnavailableError reports that every model failed. It matches
// common.ErrorUpstreamUnavailable and carries the last failure for the
// client.
type UnavailableError struct {
	Last error
}

func (e *UnavailableError) Error() string {
	msg := "Unknown error"
	if e.Last != nil {
		msg = e.Last.Error()
	}
	return fmt.Sprintf("All Gemini models are currently unavailable. Last error: %s. Please try again in a few moments.", msg)
}

func (e *UnavailableError) Unwrap() error {
	return common.ErrorUpstreamUnavailable
}

// Gateway tries models in order. Transient API errors are retried on the same
// model with a linearly growing delay; other errors and exhausted retries move
// on to the next model.
type Gateway struct {
	client     Client
	models     []string
	maxRetries uint64
	retryDelay time.Duration
	budget     time.Duration
	logger     logging.Logger
}

type Option func(*Gateway)

func WithModels(models []string) Option {
	return func(g *Gateway) {
		if len(models) > 0 {
			g.models = models
		}
	}
}

func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(g *Gateway) {
		if maxRetries >= 0 {
			g.maxRetries = uint64(maxRetries)
		}
		if delay >= 0 {
			g.retryDelay = delay
		}
	}
}

// WithBudget bounds a whole Complete call, retries and fallbacks included.
// When it runs out the call fails as if every model were unavailable.
func WithBudget(d time.Duration) Option {
	return func(g *Gateway) {
		g.budget = d
	}
}

func WithLogger(l logging.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

func NewGateway(client Client, opts ...Option) *Gateway {
	g := &Gateway{
		client:     client,
		models:     DefaultModels,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     logging.Nop{},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// linearBackoff waits base, 2*base, 3*base, ...
func linearBackoff(base time.Duration) retry.Backoff {
	var attempt uint64
	return retry.BackoffFunc(func() (time.Duration, bool) {
		n := atomic.AddUint64(&attempt, 1)
		return time.Duration(n) * base, false
	})
}

func (g *Gateway) Complete(ctx context.Context, prompt string) (*Result, error) {
	parent := ctx
	if g.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.budget)
		defer cancel()
	}

	var lastErr error

	for _, model := range g.models {
		if err := parent.Err(); err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			break
		}

		text, err := g.try(ctx, model, prompt)
		if err == nil {
			g.logger.Info(ctx, "completion succeeded", "model", model)
			return &Result{Text: text, Model: model}, nil
		}
		if ctxErr := parent.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("gave up after %s: %w", g.budget, err)
		}

		g.logger.Warn(ctx, "model failed", "model", model, "error", err.Error())
		lastErr = err
	}

	if ctx.Err() != nil {
		g.logger.Error(parent, "completion budget exhausted", "budget", g.budget.String(), "error", errString(lastErr))
	} else {
		g.logger.Error(ctx, "all models failed", "error", errString(lastErr))
	}
	return nil, &UnavailableError{Last: lastErr}
}

func (g *Gateway) try(ctx context.Context, model, prompt string) (string, error) {
	var text string
	attempt := 0

	b := retry.WithMaxRetries(g.maxRetries, linearBackoff(g.retryDelay))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		var err error
		text, err = g.client.Generate(ctx, model, prompt)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Transient() {
			g.logger.Debug(ctx, "model busy, retrying", "model", model, "attempt", attempt, "status", apiErr.Status)
			return retry.RetryableError(err)
		}
		return err
	})
	return text, err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
