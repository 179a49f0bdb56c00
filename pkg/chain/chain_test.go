package chain

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lettera/lettera/pkg/provider"
)

type mockCompleter struct {
	delay    time.Duration
	err      error
	response string
	deltas   []string
	calls    atomic.Int64
}

func (m *mockCompleter) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) (*provider.Completion, error) {
	m.calls.Add(1)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if options != nil && options.Stream != nil {
		for _, d := range m.deltas {
			delta := provider.Completion{
				Message: &provider.Message{
					Role:    provider.MessageRoleAssistant,
					Content: d,
				},
			}

			if err := options.Stream(ctx, delta); err != nil {
				return nil, err
			}
		}
	}

	if m.err != nil {
		return nil, m.err
	}

	return &provider.Completion{
		ID:    "test",
		Model: "mock",

		Message: &provider.Message{
			Role:    provider.MessageRoleAssistant,
			Content: m.response,
		},
	}, nil
}

func TestAttemptJSON(t *testing.T) {
	attempt := Attempt{
		Provider: "a",
		Status:   StatusTimeout,
		Latency:  1500 * time.Millisecond,
		Detail:   "deadline exceeded",
	}

	data, err := json.Marshal(attempt)

	if err != nil {
		t.Fatal(err)
	}

	want := `{"provider":"a","status":"timeout","latency_ms":1500,"detail":"deadline exceeded"}`

	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestNew(t *testing.T) {
	t.Run("requires at least one provider", func(t *testing.T) {
		_, err := New()
		if err == nil {
			t.Error("expected error for empty providers")
		}
	})

	t.Run("requires a completer per provider", func(t *testing.T) {
		_, err := New(Provider{Name: "a"})
		if err == nil {
			t.Error("expected error for nil completer")
		}
	})
}

func TestCompleteFirstSuccess(t *testing.T) {
	first := &mockCompleter{response: "hello"}
	second := &mockCompleter{response: "unused"}

	c, err := New(
		Provider{Name: "a", Completer: first},
		Provider{Name: "b", Completer: second},
	)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := c.Complete(context.Background(), []provider.Message{provider.UserMessage("test")}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Provider != "a" {
		t.Errorf("expected provider 'a', got %q", result.Provider)
	}

	if len(result.Attempts) != 1 {
		t.Fatalf("expected exactly one attempt, got %d", len(result.Attempts))
	}

	if result.Attempts[0].Status != StatusSuccess {
		t.Errorf("expected success status, got %q", result.Attempts[0].Status)
	}

	if second.calls.Load() != 0 {
		t.Error("second provider must not be tried after first success")
	}
}

func TestCompleteFallback(t *testing.T) {
	failing := &mockCompleter{err: errors.New("rate limited")}
	working := &mockCompleter{response: "ok"}

	c, _ := New(
		Provider{Name: "a", Completer: failing},
		Provider{Name: "b", Completer: working},
	)

	result, err := c.Complete(context.Background(), []provider.Message{provider.UserMessage("test")}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Provider != "b" {
		t.Errorf("expected provider 'b', got %q", result.Provider)
	}

	if len(result.Attempts) != 2 {
		t.Fatalf("expected two attempts, got %d", len(result.Attempts))
	}

	if result.Attempts[0].Provider != "a" || result.Attempts[0].Status != StatusError {
		t.Errorf("unexpected first attempt: %+v", result.Attempts[0])
	}

	if result.Attempts[1].Provider != "b" || result.Attempts[1].Status != StatusSuccess {
		t.Errorf("unexpected second attempt: %+v", result.Attempts[1])
	}
}

func TestCompleteTimeoutAdvances(t *testing.T) {
	hanging := &mockCompleter{delay: time.Second, response: "late"}
	working := &mockCompleter{response: "ok"}

	c, _ := New(
		Provider{Name: "a", Timeout: time.Millisecond, Completer: hanging},
		Provider{Name: "b", Completer: working},
	)

	result, err := c.Complete(context.Background(), []provider.Message{provider.UserMessage("test")}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Provider != "b" {
		t.Errorf("expected provider 'b', got %q", result.Provider)
	}

	if result.Attempts[0].Status != StatusTimeout {
		t.Errorf("expected timeout status for first attempt, got %q", result.Attempts[0].Status)
	}

	if result.Completion.Message.Content != "ok" {
		t.Errorf("expected answer from second provider, got %q", result.Completion.Message.Content)
	}
}

func TestCompleteExhausted(t *testing.T) {
	c, _ := New(
		Provider{Name: "a", Completer: &mockCompleter{err: errors.New("boom")}},
		Provider{Name: "b", Completer: &mockCompleter{err: errors.New("boom")}},
		Provider{Name: "c", Completer: &mockCompleter{err: errors.New("boom")}},
	)

	_, err := c.Complete(context.Background(), []provider.Message{provider.UserMessage("test")}, nil)

	var exhausted *ExhaustedError

	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}

	if len(exhausted.Attempts) != 3 {
		t.Errorf("expected attempt log for all 3 providers, got %d", len(exhausted.Attempts))
	}

	for i, name := range []string{"a", "b", "c"} {
		if exhausted.Attempts[i].Provider != name {
			t.Errorf("attempt %d: expected provider %q, got %q", i, name, exhausted.Attempts[i].Provider)
		}
	}
}

func TestCompleteStreamFailover(t *testing.T) {
	t.Run("advances when no delta was delivered", func(t *testing.T) {
		failing := &mockCompleter{err: errors.New("boom")}
		working := &mockCompleter{response: "ok", deltas: []string{"o", "k"}}

		c, _ := New(
			Provider{Name: "a", Completer: failing},
			Provider{Name: "b", Completer: working},
		)

		var received string

		options := &provider.CompleteOptions{
			Stream: func(ctx context.Context, completion provider.Completion) error {
				received += completion.Message.Content
				return nil
			},
		}

		result, err := c.Complete(context.Background(), []provider.Message{provider.UserMessage("test")}, options)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Provider != "b" {
			t.Errorf("expected provider 'b', got %q", result.Provider)
		}

		if received != "ok" {
			t.Errorf("expected streamed 'ok', got %q", received)
		}
	})

	t.Run("stops when deltas were already delivered", func(t *testing.T) {
		partial := &mockCompleter{err: errors.New("connection reset"), deltas: []string{"par", "tial"}}
		working := &mockCompleter{response: "ok"}

		c, _ := New(
			Provider{Name: "a", Completer: partial},
			Provider{Name: "b", Completer: working},
		)

		options := &provider.CompleteOptions{
			Stream: func(ctx context.Context, completion provider.Completion) error {
				return nil
			},
		}

		_, err := c.Complete(context.Background(), []provider.Message{provider.UserMessage("test")}, options)

		var streamErr *StreamError

		if !errors.As(err, &streamErr) {
			t.Fatalf("expected StreamError, got %v", err)
		}

		if streamErr.Provider != "a" {
			t.Errorf("expected failing provider 'a', got %q", streamErr.Provider)
		}

		if working.calls.Load() != 0 {
			t.Error("chain must not advance after deltas were delivered")
		}
	})
}

func TestCompleteContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := New(Provider{Name: "a", Completer: &mockCompleter{response: "ok"}})

	_, err := c.Complete(ctx, []provider.Message{provider.UserMessage("test")}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
