package sql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
	"github.com/bsv-blockchain/teranode-blockstore/util/usql"
	"github.com/google/uuid"
)

// querier is satisfied by both a pinned connection and an open transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// pendingState collects what a transaction changes outside the database. It is applied to
// the store only once the transaction commits.
type pendingState struct {
	chainHead    *model.StoredBlock
	verifiedHead *model.StoredBlock
	headers      []*model.StoredBlock
}

// Session is a unit of work on one database connection. It owns at most one batch write at a
// time; outside a batch every mutation commits on its own.
type Session struct {
	store *Store
	id    uuid.UUID

	mu        sync.Mutex
	conn      *usql.Conn
	tx        *usql.Tx
	batch     bool
	pending   *pendingState
	savepoint uint64
	closed    bool
}

// ID identifies the session in log lines.
func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) GetParams() *chaincfg.Params {
	return s.store.params
}

// Close releases the session's connection, rolling back an open batch. It does not close the
// store.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	err := s.release()

	s.store.unregister(s)

	return err
}

// release must be called with mu held.
func (s *Session) release() error {
	if s.closed {
		return nil
	}

	s.closed = true

	var errs []error

	if s.tx != nil {
		s.store.logger.Warnf("[BlockStore][%s] rolling back open batch write while closing session", s.id)

		if err := s.tx.Rollback(); err != nil {
			errs = append(errs, s.store.sqlError(err, "failed to roll back open batch"))
		}

		s.resetTx()
	}

	if err := s.conn.Close(); err != nil {
		errs = append(errs, s.store.sqlError(err, "failed to release database connection"))
	}

	return errors.Join(errs...)
}

// lock acquires the session for one operation. The caller must unlock mu.
func (s *Session) lock() error {
	s.mu.Lock()

	if s.closed || s.store.closed.Load() {
		s.mu.Unlock()
		return errors.NewStoreClosedError("block store is closed")
	}

	return nil
}

func (s *Session) querier() querier {
	if s.tx != nil {
		return s.tx
	}

	return s.conn
}

// inTx runs fn inside the open batch, or inside a transaction of its own when no batch is open.
// A transaction of its own is committed when fn succeeds and its pending state published.
func (s *Session) inTx(ctx context.Context, fn func(q querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}

	// the transaction outlives the per statement timeout, it must not be rolled back by it
	tx, err := s.conn.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return s.store.sqlError(err, "failed to begin transaction")
	}

	s.tx = tx
	s.pending = &pendingState{}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.store.logger.Errorf("[BlockStore] failed to roll back transaction: %v", rbErr)
		}

		s.resetTx()

		return err
	}

	pending := s.pending

	s.resetTx()

	if err = tx.Commit(); err != nil {
		return s.store.sqlError(err, "failed to commit transaction")
	}

	s.store.publish(pending)

	return nil
}

func (s *Session) resetTx() {
	s.tx = nil
	s.batch = false
	s.pending = nil
	s.savepoint = 0
}

// execInsert runs an insert under a savepoint and reports whether it hit an existing key. The
// savepoint keeps a duplicate key from aborting the enclosing transaction.
func (s *Session) execInsert(ctx context.Context, q querier, query string, args ...interface{}) (bool, error) {
	s.savepoint++
	name := fmt.Sprintf("sp_%d", s.savepoint)

	if _, err := q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return false, err
	}

	duplicate := false

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		if !s.store.dialect.IsDuplicateKeyError(err) {
			return false, err
		}

		if _, err = q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
			return false, err
		}

		duplicate = true
	}

	if _, err := q.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return false, err
	}

	return duplicate, nil
}

// currentHeads returns the heads as this session sees them, including changes made by its
// own uncommitted transaction.
func (s *Session) currentHeads() chainHeads {
	heads := *s.store.heads.Load()

	if s.pending != nil {
		if s.pending.chainHead != nil {
			heads.chainHead = s.pending.chainHead
		}

		if s.pending.verifiedHead != nil {
			heads.verifiedHead = s.pending.verifiedHead
		}
	}

	return heads
}

func nullableBytes(b []byte) interface{} {
	if b == nil {
		return nil
	}

	return b
}

func nullableString(str string) interface{} {
	if str == "" {
		return nil
	}

	return str
}
