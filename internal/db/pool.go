package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns        = 10
	defaultMinConns        = 2
	defaultConnectAttempts = 5

	retryInterval = 2 * time.Second
)

// Options sizes the connection pool and bounds the startup retry loop.
// Zero values fall back to the defaults above.
type Options struct {
	MaxConns        int32
	MinConns        int32
	ConnectAttempts int
}

// buildConfig parses the database URL and applies the pool sizing knobs.
func buildConfig(databaseURL string, opts Options) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if opts.MaxConns <= 0 {
		opts.MaxConns = defaultMaxConns
	}
	if opts.MinConns <= 0 {
		opts.MinConns = defaultMinConns
	}
	if opts.MinConns > opts.MaxConns {
		opts.MinConns = opts.MaxConns
	}

	config.MaxConns = opts.MaxConns
	config.MinConns = opts.MinConns
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute
	return config, nil
}

func NewPool(ctx context.Context, databaseURL string, opts Options) (*pgxpool.Pool, error) {
	config, err := buildConfig(databaseURL, opts)
	if err != nil {
		return nil, err
	}

	attempts := opts.ConnectAttempts
	if attempts <= 0 {
		attempts = defaultConnectAttempts
	}

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				log.Println("database connected")
				return pool, nil
			} else {
				pool.Close()
				err = pingErr
			}
		}

		log.Printf("database connection attempt %d/%d failed: %v", attempt, attempts, err)
		if attempt < attempts {
			time.Sleep(retryInterval)
		}
	}

	return nil, fmt.Errorf("database connection failed after %d attempts: %w", attempts, err)
}
