package retryclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/llmgate/promptcoder/models"
)

const (
	DefaultMaxRetries     = 3
	DefaultInitialDelay   = time.Second
	DefaultAttemptTimeout = 60 * time.Second
)

// Transport performs one completion attempt against a remote provider.
// Failures should be returned as *TransportError.
type Transport interface {
	Complete(ctx context.Context, request models.CompletionRequest) (string, error)
	Name() string
}

// Breaker is the circuit breaker contract the client depends on.
type Breaker interface {
	CanAttemptRequest() bool
	RecordSuccess()
	RecordFailure()
}

// Recorder receives attempt metrics.
type Recorder interface {
	RecordCounter(metricName string, labels map[string]string, value float64)
	RecordTimer(metricName string, labels map[string]string, duration time.Duration)
}

type Config struct {
	MaxRetries     int
	InitialDelay   time.Duration
	AttemptTimeout time.Duration
}

// RetryingClient wraps a Transport with bounded retries, exponential backoff
// and a shared circuit breaker. Only a logical call that fails outright (all
// retries exhausted, or a client error) counts against the breaker.
type RetryingClient struct {
	transport      Transport
	breaker        Breaker
	recorder       Recorder
	maxRetries     int
	initialDelay   time.Duration
	attemptTimeout time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewRetryingClient(transport Transport, breaker Breaker, config Config) *RetryingClient {
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = DefaultInitialDelay
	}
	return &RetryingClient{
		transport:      transport,
		breaker:        breaker,
		maxRetries:     config.MaxRetries,
		initialDelay:   config.InitialDelay,
		attemptTimeout: config.AttemptTimeout,
		sleep:          sleepContext,
	}
}

func (c *RetryingClient) WithRecorder(recorder Recorder) *RetryingClient {
	c.recorder = recorder
	return c
}

func (c *RetryingClient) Provider() string {
	return c.transport.Name()
}

// Call sends request through the transport. Cancelling ctx aborts the
// in-flight attempt or pending backoff and returns ctx.Err() without touching
// the breaker.
func (c *RetryingClient) Call(ctx context.Context, request models.CompletionRequest) (string, error) {
	if !c.breaker.CanAttemptRequest() {
		c.count("completion_calls_total", "circuit_open")
		openErr := &CircuitOpenError{}
		if b, ok := c.breaker.(interface{ RetryAfter() time.Duration }); ok {
			openErr.RetryAfter = b.RetryAfter()
		}
		return "", openErr
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		start := time.Now()
		text, err := c.attempt(ctx, request)
		c.observe("completion_attempt_duration_seconds", time.Since(start))

		if err == nil {
			c.breaker.RecordSuccess()
			c.count("completion_calls_total", "success")
			return text, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.count("completion_calls_total", "canceled")
			return "", ctxErr
		}

		lastErr = err
		kind := KindOf(err)
		slog.Warn("completion attempt failed",
			"provider", c.transport.Name(),
			"attempt", attempt+1,
			"kind", kind.String(),
			"error", err)
		c.countAttemptFailure(kind)

		if kind == ClientError {
			c.breaker.RecordFailure()
			c.count("completion_calls_total", "client_error")
			return "", &ClientRequestError{Err: err}
		}

		if attempt < c.maxRetries-1 {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				c.count("completion_calls_total", "canceled")
				return "", err
			}
		}
	}

	c.breaker.RecordFailure()
	c.count("completion_calls_total", "exhausted")
	return "", &ExhaustedRetriesError{Provider: c.transport.Name(), Attempts: c.maxRetries, Err: lastErr}
}

func (c *RetryingClient) attempt(ctx context.Context, request models.CompletionRequest) (string, error) {
	if c.attemptTimeout <= 0 {
		return c.transport.Complete(ctx, request)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	text, err := c.transport.Complete(attemptCtx, request)
	if err != nil && ctx.Err() == nil && attemptCtx.Err() != nil {
		return "", NewTransportError(NetworkError, 0, fmt.Errorf("attempt timed out after %s: %w", c.attemptTimeout, err))
	}
	return text, err
}

// backoff returns initialDelay * 2^attempt.
func (c *RetryingClient) backoff(attempt int) time.Duration {
	return c.initialDelay * time.Duration(1<<attempt)
}

func (c *RetryingClient) count(metricName, outcome string) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordCounter(metricName, map[string]string{"provider": c.transport.Name(), "outcome": outcome}, 1)
}

func (c *RetryingClient) countAttemptFailure(kind ErrorKind) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordCounter("completion_attempt_failures_total", map[string]string{"provider": c.transport.Name(), "kind": kind.String()}, 1)
}

func (c *RetryingClient) observe(metricName string, d time.Duration) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordTimer(metricName, map[string]string{"provider": c.transport.Name()}, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
