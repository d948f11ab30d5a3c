package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often a transient connection failure is retried.
// Attempts counts the first try. A non-positive Delay means
// DefaultRetryPolicy.Delay.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy: three attempts, one second apart.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: time.Second}

// transientCodes are SQLSTATE codes that usually clear up on reconnect:
// connection exceptions (class 08), too_many_connections and cannot_connect_now.
var transientCodes = map[string]struct{}{
	"08000": {},
	"08001": {},
	"08003": {},
	"08004": {},
	"08006": {},
	"53300": {},
	"57P03": {},
}

// IsTransient reports whether err is a connectivity failure worth retrying.
// A server-side error with any other SQLSTATE is never transient, even when
// it arrived while connecting.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := transientCodes[pgErr.Code]
		return ok
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// WithRetry runs fn and retries it with a constant delay while it fails with a
// transient error. Any other error is returned immediately.
func WithRetry(ctx context.Context, p RetryPolicy, l logging.Logger, fn func(ctx context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Delay <= 0 {
		p.Delay = DefaultRetryPolicy.Delay
	}
	backoff := retry.WithMaxRetries(uint64(p.Attempts-1), retry.NewConstant(p.Delay))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt < p.Attempts {
			l.Warn(ctx, "transient database error, retrying", "attempt", attempt, "error", err)
		} else {
			l.Error(ctx, "database unreachable", "attempts", attempt, "error", err)
		}
		return retry.RetryableError(err)
	})
}

// Open opens a database handle and pings it under WithRetry.
func Open(ctx context.Context, driver, dsn string, p RetryPolicy, l logging.Logger) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := WithRetry(ctx, p, l, db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}
