package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/sheetbooks/internal/common"
)

// Dialer opens a new Store.
type Dialer func(ctx context.Context) (Store, error)

// Dial returns a Dialer that builds a Google Sheets client and checks the
// spreadsheet is reachable before handing it out.
func Dial(config Config, logger *slog.Logger) Dialer {
	return func(ctx context.Context) (Store, error) {
		client, err := NewClient(ctx, config, logger)
		if err != nil {
			// Bad credentials do not improve with retries.
			return nil, &common.RetryableError{Err: err, Retryable: false}
		}
		if _, err := client.ListWorksheets(ctx); err != nil {
			return nil, fmt.Errorf("unable to access spreadsheet %s: %w", config.SpreadsheetID, err)
		}
		return client, nil
	}
}

// StaticDialer always hands out the same store.
func StaticDialer(store Store) Dialer {
	return func(context.Context) (Store, error) {
		return store, nil
	}
}

// Connector owns the session's store handle. A successful connection is
// reused until a reconnect is forced; a failed one is never cached.
type Connector struct {
	store  Store
	dial   Dialer
	logger *slog.Logger
	retry  common.RetryOptions
	mu     sync.Mutex
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithDialRetry overrides the dial retry policy.
func WithDialRetry(opts common.RetryOptions) ConnectorOption {
	return func(c *Connector) { c.retry = opts }
}

// WithConnectorLogger sets the logger.
func WithConnectorLogger(logger *slog.Logger) ConnectorOption {
	return func(c *Connector) { c.logger = logger }
}

// NewConnector creates a connector. Dialing is attempted twice with a short
// jittered backoff unless overridden.
func NewConnector(dial Dialer, opts ...ConnectorOption) *Connector {
	c := &Connector{
		dial:   dial,
		logger: slog.Default(),
		retry: common.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
			Jitter:       0.5,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect returns the session store, dialing when there is none yet or when
// force is set. Failures wrap common.ErrConnection.
func (c *Connector) Connect(ctx context.Context, force bool) (Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil && !force {
		return c.store, nil
	}
	c.store = nil

	var store Store
	err := common.WithRetry(ctx, func() error {
		var dialErr error
		store, dialErr = c.dial(ctx)
		return dialErr
	}, c.retry)
	if err != nil {
		c.logger.Warn("Failed to connect to remote table store", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrConnection, err)
	}

	c.store = store
	c.logger.Debug("Connected to remote table store", "forced", force)
	return store, nil
}

// Connected reports whether a handle is currently held.
func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store != nil
}

// Reset drops the held handle so the next Connect dials again.
func (c *Connector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = nil
}
