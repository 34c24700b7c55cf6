package sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
)

// TableSize is the row count and approximate payload size of one table.
type TableSize struct {
	Table string
	Rows  int64
	Bytes int64
}

func (t TableSize) String() string {
	return fmt.Sprintf("%s: %d rows, %d bytes", t.Table, t.Rows, t.Bytes)
}

var tableSizeQueries = []struct {
	table string
	query string
}{
	{"settings", `SELECT COUNT(*), COALESCE(SUM(LENGTH(name) + COALESCE(LENGTH(value), 0)), 0) FROM settings`},
	{"headers", `SELECT COUNT(*), COALESCE(SUM(LENGTH(hash) + LENGTH(chainwork) + LENGTH(header) + 5), 0) FROM headers`},
	{"undoableblocks", `SELECT COUNT(*), COALESCE(SUM(LENGTH(hash) + 4 + COALESCE(LENGTH(txoutchanges), 0) + COALESCE(LENGTH(transactions), 0)), 0) FROM undoableblocks`},
	{"openoutputs", `SELECT COUNT(*), COALESCE(SUM(LENGTH(hash) + 16 + LENGTH(scriptbytes) + COALESCE(LENGTH(toaddress), 0) + 3), 0) FROM openoutputs`},
}

// DumpSizes reports the size of each table.
func (s *Store) DumpSizes(ctx context.Context) ([]TableSize, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.DumpSizes(ctx)
}

// ResetStore drops every table and recreates the store with only the genesis block.
func (s *Store) ResetStore(ctx context.Context) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.ResetStore(ctx)
}

// DeleteStore drops every table. The store is unusable afterwards and should be closed.
func (s *Store) DeleteStore(ctx context.Context) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.DeleteStore(ctx)
}

func (s *Session) DumpSizes(ctx context.Context) (sizes []TableSize, err error) {
	ctx, deferFn := s.store.startOperation(ctx, "DumpSizes", &err, nil)
	defer deferFn()

	if err = s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	sizes = make([]TableSize, 0, len(tableSizeQueries))

	for _, tq := range tableSizeQueries {
		size := TableSize{Table: tq.table}

		if err = s.querier().QueryRowContext(ctx, tq.query).Scan(&size.Rows, &size.Bytes); err != nil {
			return nil, s.store.sqlError(err, "failed to size table %s", tq.table)
		}

		sizes = append(sizes, size)
	}

	parts := make([]string, 0, len(sizes))
	for _, size := range sizes {
		parts = append(parts, size.String())
	}

	s.store.logger.Infof("[BlockStore] table sizes: %s", strings.Join(parts, ", "))

	return sizes, nil
}

func (s *Session) ResetStore(ctx context.Context) (err error) {
	ctx, deferFn := s.store.startOperation(ctx, "ResetStore", &err, nil)
	defer deferFn()

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.tx != nil {
		return errors.NewInvariantViolationError("cannot reset the store while a batch write is in progress")
	}

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	if err = s.dropTables(ctx); err != nil {
		return err
	}

	s.store.clearHeaderCache()

	s.store.logger.Warnf("[BlockStore] store reset, recreating from genesis")

	return s.createNewStore(ctx)
}

func (s *Session) DeleteStore(ctx context.Context) (err error) {
	ctx, deferFn := s.store.startOperation(ctx, "DeleteStore", &err, nil)
	defer deferFn()

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.tx != nil {
		return errors.NewInvariantViolationError("cannot delete the store while a batch write is in progress")
	}

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	if err = s.dropTables(ctx); err != nil {
		return err
	}

	s.store.clearHeaderCache()

	s.store.logger.Warnf("[BlockStore] store deleted")

	return nil
}
