package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 5
)

// Config captures the settings required to reach the order subsystem's database.
type Config struct {
	URI        string
	Database   string
	Timeout    time.Duration
	MaxRetries uint64
}

// Connect establishes a MongoDB client and verifies connectivity with a ping,
// retrying with exponential backoff while the server is unreachable. It
// returns both the client and the selected database.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}

	var client *mongo.Client
	attempt := func() error {
		connectCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		c, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("mongo connect: %w", err))
		}
		if err := c.Ping(connectCtx, nil); err != nil {
			_ = c.Disconnect(context.Background())
			return fmt.Errorf("mongo ping: %w", err)
		}
		client = c
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("mongo not reachable yet")
	}
	if err := backoff.RetryNotify(attempt, policy, notify); err != nil {
		return nil, nil, err
	}

	return client, client.Database(cfg.Database), nil
}
