package sql

import (
	"context"
	"database/sql"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
)

// Get returns the stored block with the given hash, or nil when it is not stored.
func (s *Store) Get(ctx context.Context, hash *chainhash.Hash) (*model.StoredBlock, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.Get(ctx, hash)
}

// GetOnceUndoableStoredBlock returns the stored block with the given hash only when it was
// stored with undo data, or nil otherwise.
func (s *Store) GetOnceUndoableStoredBlock(ctx context.Context, hash *chainhash.Hash) (*model.StoredBlock, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.GetOnceUndoableStoredBlock(ctx, hash)
}

func (s *Session) Get(ctx context.Context, hash *chainhash.Hash) (block *model.StoredBlock, err error) {
	ctx, deferFn := s.store.startOperation(ctx, "Get", &err, prometheusBlockStoreGet)
	defer deferFn()

	if err = s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	heads := s.currentHeads()

	for _, head := range []*model.StoredBlock{heads.chainHead, heads.verifiedHead} {
		if head != nil && head.Hash().IsEqual(hash) {
			return head.Clone(), nil
		}
	}

	// rows written by an open transaction are not in the cache yet, but neither can a cached
	// header have been removed by one
	if cached := s.store.cachedHeader(hash); cached != nil {
		return cached.Clone(), nil
	}

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	block, err = s.getHeader(ctx, s.querier(), hash, false)
	if err != nil || block == nil {
		return nil, err
	}

	if s.tx == nil {
		s.store.cacheHeader(block.Clone())
	}

	return block, nil
}

func (s *Session) GetOnceUndoableStoredBlock(ctx context.Context, hash *chainhash.Hash) (block *model.StoredBlock, err error) {
	ctx, deferFn := s.store.startOperation(ctx, "GetOnceUndoableStoredBlock", &err, prometheusBlockStoreGet)
	defer deferFn()

	if err = s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	return s.getHeader(ctx, s.querier(), hash, true)
}

func (s *Session) getHeader(ctx context.Context, q querier, hash *chainhash.Hash, onceUndoableOnly bool) (*model.StoredBlock, error) {
	var (
		chainWork   []byte
		height      uint32
		headerBytes []byte
		row         *sql.Row
	)

	if onceUndoableOnly {
		row = q.QueryRowContext(ctx, `
			SELECT chainwork, height, header FROM headers
			WHERE hash = $1 AND wasundoable = $2`,
			headerKey(hash), true,
		)
	} else {
		row = q.QueryRowContext(ctx, `
			SELECT chainwork, height, header FROM headers
			WHERE hash = $1`,
			headerKey(hash),
		)
	}

	if err := row.Scan(&chainWork, &height, &headerBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, s.store.sqlError(err, "failed to read header %s", hash)
	}

	header, err := model.NewBlockHeaderFromBytes(headerBytes)
	if err != nil {
		return nil, errors.NewStorageCorruptionError("stored header %s could not be parsed", hash, err)
	}

	if !header.Hash().IsEqual(hash) {
		return nil, errors.NewStorageCorruptionError("stored header for %s hashes to %s", hash, header.Hash())
	}

	return model.NewStoredBlock(header, new(big.Int).SetBytes(chainWork), height), nil
}
