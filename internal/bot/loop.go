package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akoszegi/paintbot/internal/inference"
	"github.com/akoszegi/paintbot/internal/model"
	"github.com/akoszegi/paintbot/internal/telegram"
)

// Transport is the chat platform side of the loop: fetching new prompts and
// delivering replies.
type Transport interface {
	FetchNewMessages(ctx context.Context, cursor int64) ([]model.InboundMessage, int64, error)
	DeliverText(ctx context.Context, chatID int64, text string) error
	DeliverImage(ctx context.Context, chatID int64, image []byte, caption string) error
}

// Generator classifies a prompt into an image, a quota notice, or a failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) inference.Outcome
}

// Loop owns the polling cursor and drives the fetch -> generate -> deliver
// cycle. Messages are dispatched strictly in arrival order, one at a time;
// the cursor advances past each message right after its dispatch attempt.
type Loop struct {
	transport Transport
	generator Generator
	interval  time.Duration
	backoff   time.Duration

	cursor atomic.Int64

	onDelivered func(ctx context.Context, rec model.DeliveryRecord)

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	errMu   sync.Mutex
	lastErr error
}

func New(transport Transport, generator Generator, interval, backoff time.Duration) (*Loop, error) {
	if transport == nil {
		return nil, errors.New("transport must not be nil")
	}
	if generator == nil {
		return nil, errors.New("generator must not be nil")
	}
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if backoff <= 0 {
		return nil, errors.New("backoff must be > 0")
	}
	return &Loop{
		transport: transport,
		generator: generator,
		interval:  interval,
		backoff:   backoff,
		done:      make(chan struct{}),
	}, nil
}

// WithHooks registers a callback invoked after every dispatch attempt.
func (l *Loop) WithHooks(onDelivered func(ctx context.Context, rec model.DeliveryRecord)) *Loop {
	l.onDelivered = onDelivered
	return l
}

// WithCursor sets the starting cursor. Useful for tests; in production the
// zero cursor lets the platform decide the backlog on first fetch.
func (l *Loop) WithCursor(cursor int64) *Loop {
	l.cursor.Store(cursor)
	return l
}

// Cursor returns the current polling cursor.
func (l *Loop) Cursor() int64 {
	return l.cursor.Load()
}

// Run drives the polling cycle until ctx is canceled or the platform rejects
// our credentials. Transient fetch failures are retried after a backoff
// without touching the cursor; credential rejections are fatal.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("bot loop running", "interval", l.interval.String(), "cursor", l.cursor.Load())

	for {
		msgs, next, err := l.transport.FetchNewMessages(ctx, l.cursor.Load())
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("bot loop stopping", "reason", "context canceled")
				return nil
			}
			if telegram.IsAuthError(err) {
				slog.Error("chat platform rejected credentials", "error", err)
				return fmt.Errorf("fetch: %w", err)
			}
			if telegram.IsTimeout(err) {
				slog.Debug("poll window refreshed", "error", err)
			} else {
				slog.Warn("fetch failed, backing off", "error", err, "backoff", l.backoff.String())
			}
			if !l.sleep(ctx, l.backoff) {
				return nil
			}
			continue
		}

		if len(msgs) == 0 {
			slog.Debug("no new messages")
			l.cursor.Store(next)
			if !l.sleep(ctx, l.interval) {
				return nil
			}
			continue
		}

		slog.Info("updates received", "count", len(msgs))

		for _, m := range msgs {
			err := l.dispatchOne(ctx, m)
			l.cursor.Store(m.UpdateID + 1)
			if err != nil {
				return err
			}
		}
		// Updates skipped by the transport (non-text, bot senders) still get
		// acknowledged via the fetch's cursor.
		l.cursor.Store(next)

		if !l.sleep(ctx, l.interval) {
			return nil
		}
	}
}

// Start launches Run on a goroutine. Returns false when already running.
func (l *Loop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running.Store(true)

	go func() {
		defer close(l.done)
		defer l.running.Store(false)

		err := l.Run(ctx)
		l.setErr(err)
		if err != nil {
			slog.Error("bot loop terminated", "error", err)
		}
	}()

	return true
}

// Stop cancels the running loop and waits for it to exit. Returns false when
// not running.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running.Load() {
		return false
	}

	l.cancel()
	<-l.done
	l.running.Store(false)

	slog.Info("bot loop stopped")
	return true
}

func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Done is closed when a started loop exits, whether stopped or failed.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Err reports the error a started loop exited with, if any.
func (l *Loop) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.lastErr
}

func (l *Loop) setErr(err error) {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	l.lastErr = err
}

// sleep pauses for d, returning false when ctx is canceled first.
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
