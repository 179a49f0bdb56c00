package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lettera/lettera/pkg/provider"
)

// DefaultTimeout bounds a single provider attempt when no per-provider
// timeout is configured.
const DefaultTimeout = 15 * time.Second

// Status classifies the outcome of a single provider attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

// Attempt records one provider invocation. Appended in call order and never
// mutated afterwards, so the log stays usable for diagnostics even when a
// later provider succeeds.
type Attempt struct {
	Provider string        `json:"provider"`
	Status   Status        `json:"status"`
	Latency  time.Duration `json:"-"`
	Detail   string        `json:"detail,omitempty"`
}

// MarshalJSON emits latency as integer milliseconds, which is what the
// latency_ms name promises to API clients.
func (a Attempt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Provider string `json:"provider"`
		Status   Status `json:"status"`
		Latency  int64  `json:"latency_ms"`
		Detail   string `json:"detail,omitempty"`
	}{
		Provider: a.Provider,
		Status:   a.Status,
		Latency:  a.Latency.Milliseconds(),
		Detail:   a.Detail,
	})
}

// Provider pairs a named completer with its own timeout budget.
type Provider struct {
	Name      string
	Timeout   time.Duration
	Completer provider.Completer
}

type Result struct {
	Completion *provider.Completion

	Provider string
	Attempts []Attempt
}

// ExhaustedError is returned when every configured provider failed. It
// carries the full attempt log.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	names := make([]string, len(e.Attempts))

	for i, a := range e.Attempts {
		names[i] = fmt.Sprintf("%s (%s)", a.Provider, a.Status)
	}

	return "all providers failed: " + strings.Join(names, ", ")
}

// StreamError is returned when a provider failed after it already delivered
// stream deltas to the caller. The chain cannot switch providers at that
// point without the caller seeing output from two different models.
type StreamError struct {
	Provider string
	Attempts []Attempt

	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("provider %s failed mid-stream: %v", e.Provider, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Completer tries providers strictly in order and returns the first
// successful completion. Failed attempts advance to the next provider
// instead of retrying the same one; within a single request's latency
// budget a different provider is more likely to succeed than a retry.
type Completer struct {
	providers []Provider
}

func New(providers ...Provider) (*Completer, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	for i := range providers {
		if providers[i].Completer == nil {
			return nil, fmt.Errorf("provider %q has no completer", providers[i].Name)
		}

		if providers[i].Timeout <= 0 {
			providers[i].Timeout = DefaultTimeout
		}
	}

	return &Completer{
		providers: providers,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) (*Result, error) {
	if options == nil {
		options = new(provider.CompleteOptions)
	}

	attempts := make([]Attempt, 0, len(c.providers))

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var delivered bool

		opts := *options

		if options.Stream != nil {
			handler := options.Stream

			opts.Stream = func(ctx context.Context, completion provider.Completion) error {
				delivered = true
				return handler(ctx, completion)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)

		start := time.Now()
		completion, err := p.Completer.Complete(attemptCtx, messages, &opts)
		latency := time.Since(start)

		cancel()

		if err == nil {
			attempts = append(attempts, Attempt{
				Provider: p.Name,
				Status:   StatusSuccess,
				Latency:  latency,
			})

			return &Result{
				Completion: completion,

				Provider: p.Name,
				Attempts: attempts,
			}, nil
		}

		status := StatusError

		if isTimeout(err) {
			status = StatusTimeout
		}

		attempts = append(attempts, Attempt{
			Provider: p.Name,
			Status:   status,
			Latency:  latency,
			Detail:   err.Error(),
		})

		// the caller went away, trying further providers is pointless
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if delivered {
			return nil, &StreamError{
				Provider: p.Name,
				Attempts: attempts,

				Err: err,
			}
		}
	}

	return nil, &ExhaustedError{Attempts: attempts}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var nerr net.Error

	return errors.As(err, &nerr) && nerr.Timeout()
}
