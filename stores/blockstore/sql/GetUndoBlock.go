package sql

import (
	"context"
	"database/sql"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
)

// GetUndoBlock returns the undo data of the block with the given hash, or nil when none is
// kept for it.
func (s *Store) GetUndoBlock(ctx context.Context, hash *chainhash.Hash) (*model.StoredUndoableBlock, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.GetUndoBlock(ctx, hash)
}

func (s *Session) GetUndoBlock(ctx context.Context, hash *chainhash.Hash) (undoable *model.StoredUndoableBlock, err error) {
	ctx, deferFn := s.store.startOperation(ctx, "GetUndoBlock", &err, prometheusBlockStoreUndoGet)
	defer deferFn()

	if err = s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	var txOutChanges, transactions []byte

	err = s.querier().QueryRowContext(ctx, `
		SELECT txoutchanges, transactions FROM undoableblocks
		WHERE hash = $1`,
		headerKey(hash),
	).Scan(&txOutChanges, &transactions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, s.store.sqlError(err, "failed to read undo data for %s", hash)
	}

	return decodeUndoPayload(hash, txOutChanges, transactions)
}

// decodeUndoPayload rebuilds the undo data from whichever of the two columns is set. Exactly one
// of them must be.
func decodeUndoPayload(hash *chainhash.Hash, txOutChanges, transactions []byte) (*model.StoredUndoableBlock, error) {
	switch {
	case txOutChanges != nil && transactions != nil:
		return nil, errors.NewStorageCorruptionError("undo data for %s holds both output changes and transactions", hash)

	case txOutChanges != nil:
		changes, err := model.NewTransactionOutputChangesFromBytes(txOutChanges)
		if err != nil {
			return nil, errors.NewStorageCorruptionError("undo output changes for %s could not be parsed", hash, err)
		}

		return model.NewStoredUndoableBlockFromChanges(hash, changes), nil

	case transactions != nil:
		txs, err := model.NewTransactionListFromBytes(transactions)
		if err != nil {
			return nil, errors.NewStorageCorruptionError("undo transactions for %s could not be parsed", hash, err)
		}

		return model.NewStoredUndoableBlockFromTransactions(hash, txs), nil

	default:
		return nil, errors.NewStorageCorruptionError("undo data for %s holds neither output changes nor transactions", hash)
	}
}
