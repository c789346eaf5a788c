package database

import (
	"context"
	"database/sql/driver"
	"math/rand"
	"strings"
	"time"
)

// busyMarkers are the fragments SQLite drivers put in BUSY and LOCKED errors.
// modernc reports e.g. "database is locked (5) (SQLITE_BUSY)".
var busyMarkers = []string{
	"database is locked",
	"database table is locked",
	"SQLITE_BUSY",
	"SQLITE_LOCKED",
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range busyMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// retryPolicy retries statements that fail because another process holds the
// write lock, e.g. cmd/seed writing while the API serves requests. Within one
// process the pool has a single connection, so contention only comes from
// outside.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func newRetryPolicy(maxRetries int) retryPolicy {
	return retryPolicy{
		maxRetries: maxRetries,
		baseDelay:  50 * time.Millisecond,
		maxDelay:   2 * time.Second,
	}
}

// delay is the exponential backoff before the given retry, with up to 25%
// jitter.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.baseDelay << attempt
	if d <= 0 || d > p.maxDelay {
		d = p.maxDelay
	}
	if quarter := int64(d / 4); quarter > 0 {
		d += time.Duration(rand.Int63n(quarter))
	}
	return d
}

func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if !isBusyError(err) || attempt >= p.maxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}
}

// retryConnector hands out connections whose statements go through a
// retryPolicy.
type retryConnector struct {
	driver.Connector
	policy retryPolicy
}

func (rc *retryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := rc.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &retryConn{Conn: conn, policy: rc.policy}, nil
}

// retryConn covers the context-aware paths database/sql uses. The legacy
// Prepare and Begin pass straight through.
type retryConn struct {
	driver.Conn
	policy retryPolicy
}

func (c *retryConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	beginner, ok := c.Conn.(driver.ConnBeginTx)
	if !ok {
		return c.Conn.Begin() //nolint:staticcheck
	}
	var tx driver.Tx
	err := c.policy.do(ctx, func() (err error) {
		tx, err = beginner.BeginTx(ctx, opts)
		return err
	})
	return tx, err
}

func (c *retryConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var stmt driver.Stmt
	var err error
	if preparer, ok := c.Conn.(driver.ConnPrepareContext); ok {
		stmt, err = preparer.PrepareContext(ctx, query)
	} else {
		stmt, err = c.Conn.Prepare(query)
	}
	if err != nil {
		return nil, err
	}
	return &retryStmt{Stmt: stmt, policy: c.policy}, nil
}

func (c *retryConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	execer, ok := c.Conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var result driver.Result
	err := c.policy.do(ctx, func() (err error) {
		result, err = execer.ExecContext(ctx, query, args)
		return err
	})
	return result, err
}

func (c *retryConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	queryer, ok := c.Conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var rows driver.Rows
	err := c.policy.do(ctx, func() (err error) {
		rows, err = queryer.QueryContext(ctx, query, args)
		return err
	})
	return rows, err
}

func (c *retryConn) Ping(ctx context.Context) error {
	if pinger, ok := c.Conn.(driver.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

func (c *retryConn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.Conn.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}

func (c *retryConn) IsValid() bool {
	if validator, ok := c.Conn.(driver.Validator); ok {
		return validator.IsValid()
	}
	return true
}

// retryStmt is a prepared statement run through the policy.
type retryStmt struct {
	driver.Stmt
	policy retryPolicy
}

func (s *retryStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	var result driver.Result
	err := s.policy.do(ctx, func() (err error) {
		if execer, ok := s.Stmt.(driver.StmtExecContext); ok {
			result, err = execer.ExecContext(ctx, args)
		} else {
			result, err = s.Stmt.Exec(values(args)) //nolint:staticcheck
		}
		return err
	})
	return result, err
}

func (s *retryStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	var rows driver.Rows
	err := s.policy.do(ctx, func() (err error) {
		if queryer, ok := s.Stmt.(driver.StmtQueryContext); ok {
			rows, err = queryer.QueryContext(ctx, args)
		} else {
			rows, err = s.Stmt.Query(values(args)) //nolint:staticcheck
		}
		return err
	})
	return rows, err
}

func values(args []driver.NamedValue) []driver.Value {
	vals := make([]driver.Value, len(args))
	for i, arg := range args {
		vals[i] = arg.Value
	}
	return vals
}
