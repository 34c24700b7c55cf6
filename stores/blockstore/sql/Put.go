package sql

import (
	"context"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
)

// Put stores block. Storing a header that is already present is a no-op.
func (s *Store) Put(ctx context.Context, block *model.StoredBlock) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.Put(ctx, block)
}

// PutUndoable stores block together with the data needed to undo it.
func (s *Store) PutUndoable(ctx context.Context, block *model.StoredBlock, undoable *model.StoredUndoableBlock) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.PutUndoable(ctx, block, undoable)
}

func (s *Session) Put(ctx context.Context, block *model.StoredBlock) (err error) {
	ctx, deferFn := s.store.startOperation(ctx, "Put", &err, prometheusBlockStorePut)
	defer deferFn()

	if block == nil || block.Header == nil {
		return errors.NewInvalidArgumentError("cannot store a nil block")
	}

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	return s.inTx(ctx, func(q querier) error {
		return s.putHeader(ctx, q, block, false)
	})
}

// PutUndoable stores block flagged as once undoable and its undo data. Undo data stored earlier
// for the same block is replaced.
func (s *Session) PutUndoable(ctx context.Context, block *model.StoredBlock, undoable *model.StoredUndoableBlock) (err error) {
	ctx, deferFn := s.store.startOperation(ctx, "PutUndoable", &err, prometheusBlockStorePut)
	defer deferFn()

	if block == nil || block.Header == nil || undoable == nil {
		return errors.NewInvalidArgumentError("cannot store a nil block")
	}

	if err = undoable.Validate(); err != nil {
		return err
	}

	if !undoable.Hash.IsEqual(block.Hash()) {
		return errors.NewInvalidArgumentError("undo data for %s does not belong to block %s", undoable.Hash, block.Hash())
	}

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	return s.inTx(ctx, func(q querier) error {
		if err := s.putHeader(ctx, q, block, true); err != nil {
			return err
		}

		return s.putUndo(ctx, q, block.Height, undoable)
	})
}

// putHeader inserts the header row. A duplicate keeps the existing row, only raising the
// wasundoable flag when wasUndoable is set.
func (s *Session) putHeader(ctx context.Context, q querier, block *model.StoredBlock, wasUndoable bool) error {
	hash := block.Hash()

	duplicate, err := s.execInsert(ctx, q, `
		INSERT INTO headers (hash, chainwork, height, header, wasundoable)
		VALUES ($1, $2, $3, $4, $5)`,
		headerKey(hash), block.ChainWorkBytes(), block.Height, block.Header.Bytes(), wasUndoable,
	)
	if err != nil {
		return s.store.sqlError(err, "failed to insert header %s", hash)
	}

	if !duplicate {
		s.pending.headers = append(s.pending.headers, block.Clone())
		return nil
	}

	if !wasUndoable {
		return nil
	}

	if _, err = q.ExecContext(ctx, `UPDATE headers SET wasundoable = $2 WHERE hash = $1`, headerKey(hash), true); err != nil {
		return s.store.sqlError(err, "failed to update header %s", hash)
	}

	return nil
}

func (s *Session) putUndo(ctx context.Context, q querier, height uint32, undoable *model.StoredUndoableBlock) error {
	var txOutChanges, transactions []byte

	switch payload := undoable.Payload.(type) {
	case *model.TransactionOutputChanges:
		txOutChanges = payload.Bytes()
	case model.TransactionList:
		transactions = payload.Bytes()
	}

	key := headerKey(&undoable.Hash)

	duplicate, err := s.execInsert(ctx, q, `
		INSERT INTO undoableblocks (hash, height, txoutchanges, transactions)
		VALUES ($1, $2, $3, $4)`,
		key, height, nullableBytes(txOutChanges), nullableBytes(transactions),
	)
	if err != nil {
		return s.store.sqlError(err, "failed to insert undo data for %s", undoable.Hash)
	}

	if !duplicate {
		return nil
	}

	if _, err = q.ExecContext(ctx, `
		UPDATE undoableblocks SET txoutchanges = $2, transactions = $3
		WHERE hash = $1`,
		key, nullableBytes(txOutChanges), nullableBytes(transactions),
	); err != nil {
		return s.store.sqlError(err, "failed to update undo data for %s", undoable.Hash)
	}

	return nil
}
