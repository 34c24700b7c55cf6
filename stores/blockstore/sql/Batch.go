package sql

import (
	"context"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
)

// BeginDatabaseBatchWrite opens a batch on the default session. Every mutation made through the
// Store until the batch is committed or aborted becomes part of it.
func (s *Store) BeginDatabaseBatchWrite(ctx context.Context) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.BeginDatabaseBatchWrite(ctx)
}

func (s *Store) CommitDatabaseBatchWrite(ctx context.Context) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.CommitDatabaseBatchWrite(ctx)
}

func (s *Store) AbortDatabaseBatchWrite(ctx context.Context) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.AbortDatabaseBatchWrite(ctx)
}

// BeginDatabaseBatchWrite opens a transaction that every following mutation on the session joins.
// Batches do not nest.
func (s *Session) BeginDatabaseBatchWrite(ctx context.Context) (err error) {
	ctx, deferFn := s.store.startOperation(ctx, "BeginDatabaseBatchWrite", &err, nil)
	defer deferFn()

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.batch {
		return errors.NewInvariantViolationError("a batch write is already in progress")
	}

	tx, err := s.conn.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return s.store.sqlError(err, "failed to begin batch write")
	}

	s.tx = tx
	s.batch = true
	s.pending = &pendingState{}

	prometheusBlockStoreBatch.WithLabelValues("begin").Inc()
	s.store.logger.Debugf("[BlockStore][%s] batch write started", s.id)

	return nil
}

// CommitDatabaseBatchWrite commits the open batch and publishes the chain heads it set.
func (s *Session) CommitDatabaseBatchWrite(ctx context.Context) (err error) {
	_, deferFn := s.store.startOperation(ctx, "CommitDatabaseBatchWrite", &err, nil)
	defer deferFn()

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if !s.batch {
		return errors.NewInvariantViolationError("no batch write in progress")
	}

	tx := s.tx
	pending := s.pending

	s.resetTx()

	if err = tx.Commit(); err != nil {
		return s.store.sqlError(err, "failed to commit batch write")
	}

	s.store.publish(pending)

	prometheusBlockStoreBatch.WithLabelValues("commit").Inc()
	s.store.logger.Debugf("[BlockStore][%s] batch write committed", s.id)

	return nil
}

// AbortDatabaseBatchWrite rolls back the open batch. Aborting without a batch only logs a warning.
func (s *Session) AbortDatabaseBatchWrite(ctx context.Context) (err error) {
	_, deferFn := s.store.startOperation(ctx, "AbortDatabaseBatchWrite", &err, nil)
	defer deferFn()

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if !s.batch {
		s.store.logger.Warnf("[BlockStore][%s] abort requested without a batch write in progress", s.id)
		return nil
	}

	tx := s.tx

	s.resetTx()

	if err = tx.Rollback(); err != nil {
		return s.store.sqlError(err, "failed to abort batch write")
	}

	prometheusBlockStoreBatch.WithLabelValues("abort").Inc()
	s.store.logger.Debugf("[BlockStore][%s] batch write aborted", s.id)

	return nil
}
