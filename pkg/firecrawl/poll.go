package firecrawl

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 20 * time.Second
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval time.Duration
	timeout  time.Duration
}

// WithPollInterval overrides the fixed poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithPollTimeout overrides the default timeout (applied only if the parent
// context has no deadline).
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// PollExtract polls GetExtractStatus at a fixed interval until the job
// completes, fails, or the deadline passes. Extract jobs finish in seconds,
// so the deadline is short: a slow job is treated as a failed tier and the
// pipeline moves on.
func PollExtract(ctx context.Context, client Client, id string, opts ...PollOption) (*ExtractStatusResponse, error) {
	cfg := pollConfig{interval: defaultPollInterval, timeout: defaultPollTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	for {
		status, err := client.GetExtractStatus(ctx, id)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("firecrawl: poll extract %s", id))
		}

		switch status.Status {
		case "completed":
			return status, nil
		case "failed":
			return nil, eris.Errorf("firecrawl: extract %s failed: %s", id, status.Error)
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("firecrawl: poll extract %s timed out", id))
		case <-time.After(cfg.interval):
		}
	}
}
