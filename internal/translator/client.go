package translator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Options tune batching and retries.
type Options struct {
	// BatchSize bounds the number of texts per request.
	BatchSize int
	// MaxRetries is the number of attempts per batch, the first included.
	MaxRetries int
	// BackoffBase is the delay before the first retry; it doubles on every
	// further retry.
	BackoffBase time.Duration
	// BatchDelay is the pause between successive batches.
	BatchDelay time.Duration
}

// Client sends texts to an Engine in batches. It is not safe for concurrent
// use.
type Client struct {
	engine Engine
	opts   Options
	sleep  SleepFunc
	logger *zap.Logger

	// sent is set once the first batch went out; every later batch waits
	// BatchDelay first.
	sent bool
}

// Option configures a Client.
type Option func(*Client)

// WithSleep replaces the wait used for backoff and batch pauses.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithLogger sets the client's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient returns a Client for engine.
func NewClient(engine Engine, opts Options, options ...Option) *Client {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	c := &Client{
		engine: engine,
		opts:   opts,
		sleep:  Sleep,
		logger: zap.NewNop(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Name returns the engine's name.
func (c *Client) Name() string {
	return c.engine.Name()
}

// TranslateTexts translates texts from sourceLang to targetLang, preserving
// order. When a batch fails on every attempt the translations of the batches
// before it are returned together with a *BatchError; the caller treats the
// missing tail as untranslated.
func (c *Client) TranslateTexts(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([]string, 0, len(texts))
	for batch, start := 0, 0; start < len(texts); batch, start = batch+1, start+c.opts.BatchSize {
		end := min(start+c.opts.BatchSize, len(texts))

		if c.sent {
			if err := c.sleep(ctx, c.opts.BatchDelay); err != nil {
				return results, &BatchError{Batch: batch, Offset: start, Err: err}
			}
		}
		c.sent = true

		req := BatchRequest{Lines: texts[start:end], SourceLang: sourceLang, TargetLang: targetLang}
		out, attempts, err := c.translateBatch(ctx, req)
		if err != nil {
			c.logger.Error("batch failed",
				zap.String("engine", c.engine.Name()),
				zap.Int("batch", batch),
				zap.Int("size", end-start),
				zap.Int("attempts", attempts),
				zap.Error(err))
			return results, &BatchError{Batch: batch, Offset: start, Attempts: attempts, Err: err}
		}
		results = append(results, out...)
	}
	return results, nil
}

// translateBatch sends one batch, retrying failed requests and misaligned
// responses. It returns the number of attempts made.
func (c *Client) translateBatch(ctx context.Context, req BatchRequest) ([]string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, backoff(c.opts.BackoffBase, attempt-1)); err != nil {
				return nil, attempt - 1, err
			}
		}

		out, err := c.engine.TranslateBatch(ctx, req)
		if err == nil && len(out) != len(req.Lines) {
			err = &AlignmentError{Want: len(req.Lines), Got: len(out)}
		}
		if err == nil {
			return out, attempt, nil
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, attempt, err
		}

		lastErr = err
		c.logger.Warn("batch attempt failed",
			zap.String("engine", c.engine.Name()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.opts.MaxRetries),
			zap.Error(err))
	}
	return nil, c.opts.MaxRetries, lastErr
}
