// Package session is the execution facade: it sends checked statements
// over a pgx connection and decodes rows into caller-chosen types. The
// session owns no pooling and never retries; a statement either fully
// executes and decodes or the call reports the collaborator's failure
// unchanged. Parameter encoding and row decoding are pgx's codec
// concern.
package session

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/quelgo/quel/catalog"
)

// Statement is what the facade requires from the builder layers: the
// rendered SQL text and the declared parameter types. Both query and
// ddl statements satisfy it.
type Statement interface {
	SQL() string
	Params() []catalog.Type
}

// Session wraps one logical connection. It is exclusively owned by the
// caller for the duration of each call; wrap multiple sessions for
// pooling.
type Session struct {
	conn *pgx.Conn
}

// New wraps a pgx connection.
func New(conn *pgx.Conn) *Session {
	return &Session{conn: conn}
}

func checkArgs(st Statement, args []any) error {
	if len(args) != len(st.Params()) {
		return fmt.Errorf("session: statement declares %d parameters, got %d arguments", len(st.Params()), len(args))
	}
	return nil
}

// Exec runs a statement that returns no rows.
func (s *Session) Exec(ctx context.Context, st Statement, args ...any) error {
	if err := checkArgs(st, args); err != nil {
		return err
	}
	if _, err := s.conn.Exec(ctx, st.SQL(), args...); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return nil
}

// Query runs a statement and returns its rows for manual scanning. The
// caller must close the rows.
func (s *Session) Query(ctx context.Context, st Statement, args ...any) (pgx.Rows, error) {
	if err := checkArgs(st, args); err != nil {
		return nil, err
	}
	rows, err := s.conn.Query(ctx, st.SQL(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying statement: %w", err)
	}
	return rows, nil
}

// Collect runs a statement and decodes every row with rowTo, e.g.
// pgx.RowToStructByName.
func Collect[T any](ctx context.Context, s *Session, st Statement, rowTo pgx.RowToFunc[T], args ...any) ([]T, error) {
	rows, err := s.Query(ctx, st, args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, rowTo)
	if err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	return out, nil
}

// CollectOne runs a statement expected to produce exactly one row.
func CollectOne[T any](ctx context.Context, s *Session, st Statement, rowTo pgx.RowToFunc[T], args ...any) (T, error) {
	var zero T
	rows, err := s.Query(ctx, st, args...)
	if err != nil {
		return zero, err
	}
	out, err := pgx.CollectExactlyOneRow(rows, rowTo)
	if err != nil {
		return zero, fmt.Errorf("decoding row: %w", err)
	}
	return out, nil
}

func prepName(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return fmt.Sprintf("quel_%x", sum[:8])
}

// ExecPrepared prepares the statement once, executes it sequentially
// for each argument set in order, and deallocates the handle on every
// exit path, including failure partway through the sequence.
func (s *Session) ExecPrepared(ctx context.Context, st Statement, argSets [][]any) (err error) {
	name := prepName(st.SQL())
	if _, err := s.conn.Prepare(ctx, name, st.SQL()); err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		if derr := s.conn.Deallocate(ctx, name); derr != nil && err == nil {
			err = fmt.Errorf("deallocating statement: %w", derr)
		}
	}()
	for i, args := range argSets {
		if err := checkArgs(st, args); err != nil {
			return fmt.Errorf("argument set %d: %w", i, err)
		}
		if _, err := s.conn.Exec(ctx, name, args...); err != nil {
			return fmt.Errorf("executing argument set %d: %w", i, err)
		}
	}
	return nil
}
