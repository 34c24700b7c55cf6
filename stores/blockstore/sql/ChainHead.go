package sql

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
)

func (s *Store) GetChainHead(ctx context.Context) (*model.StoredBlock, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.GetChainHead(ctx)
}

func (s *Store) SetChainHead(ctx context.Context, head *model.StoredBlock) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.SetChainHead(ctx, head)
}

func (s *Store) GetVerifiedChainHead(ctx context.Context) (*model.StoredBlock, error) {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.GetVerifiedChainHead(ctx)
}

// SetVerifiedChainHead moves the verified chain head, advancing the chain head along with it when
// head is higher, and prunes undo data that fell out of the retention window.
func (s *Store) SetVerifiedChainHead(ctx context.Context, head *model.StoredBlock) error {
	session, err := s.DefaultSession(ctx)
	if err != nil {
		return err
	}

	return session.SetVerifiedChainHead(ctx, head)
}

func (s *Session) GetChainHead(_ context.Context) (*model.StoredBlock, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.currentHeads().chainHead.Clone(), nil
}

func (s *Session) GetVerifiedChainHead(_ context.Context) (*model.StoredBlock, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.currentHeads().verifiedHead.Clone(), nil
}

func (s *Session) SetChainHead(ctx context.Context, head *model.StoredBlock) (err error) {
	ctx, deferFn := s.store.startOperation(ctx, "SetChainHead", &err, nil)
	defer deferFn()

	if head == nil || head.Header == nil {
		return errors.NewInvalidArgumentError("chain head must not be nil")
	}

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	return s.inTx(ctx, func(q querier) error {
		hash := head.Hash()

		if err := s.requireStored(ctx, q, hash); err != nil {
			return err
		}

		if err := s.updateSetting(ctx, q, settingChainHead, hash[:]); err != nil {
			return err
		}

		s.pending.chainHead = head.Clone()

		return nil
	})
}

func (s *Session) SetVerifiedChainHead(ctx context.Context, head *model.StoredBlock) (err error) {
	ctx, deferFn := s.store.startOperation(ctx, "SetVerifiedChainHead", &err, nil)
	defer deferFn()

	if head == nil || head.Header == nil {
		return errors.NewInvalidArgumentError("verified chain head must not be nil")
	}

	if err = s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	ctx, cancel := s.store.withTimeout(ctx)
	defer cancel()

	return s.inTx(ctx, func(q querier) error {
		hash := head.Hash()

		if err := s.requireStored(ctx, q, hash); err != nil {
			return err
		}

		if err := s.updateSetting(ctx, q, settingVerifiedChainHead, hash[:]); err != nil {
			return err
		}

		s.pending.verifiedHead = head.Clone()

		if chainHead := s.currentHeads().chainHead; chainHead == nil || chainHead.Height < head.Height {
			if err := s.updateSetting(ctx, q, settingChainHead, hash[:]); err != nil {
				return err
			}

			s.pending.chainHead = head.Clone()
		}

		return s.prune(ctx, q, head.Height)
	})
}

// requireStored fails unless the header of hash is visible to q, so a head setting can never point
// at a block a later open could not load.
func (s *Session) requireStored(ctx context.Context, q querier, hash *chainhash.Hash) error {
	stored, err := s.getHeader(ctx, q, hash, false)
	if err != nil {
		return err
	}

	if stored == nil {
		return errors.NewInvariantViolationError("head %s is not a stored block", hash)
	}

	return nil
}

// prune drops the undo data of every block more than FullStoreDepth blocks below height and
// clears their once undoable flag.
func (s *Session) prune(ctx context.Context, q querier, height uint32) error {
	depth := s.store.opts.FullStoreDepth
	if height < depth {
		return nil
	}

	cutoff := height - depth

	if _, err := q.ExecContext(ctx, `
		UPDATE headers SET wasundoable = $2
		WHERE hash IN (SELECT hash FROM undoableblocks WHERE height <= $1)`,
		cutoff, false,
	); err != nil {
		return s.store.sqlError(err, "failed to clear undoable flag below height %d", cutoff)
	}

	res, err := q.ExecContext(ctx, `DELETE FROM undoableblocks WHERE height <= $1`, cutoff)
	if err != nil {
		return s.store.sqlError(err, "failed to prune undo data below height %d", cutoff)
	}

	prometheusBlockStorePrune.Inc()

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.store.logger.Debugf("[BlockStore] pruned undo data of %d blocks at or below height %d", n, cutoff)
	}

	return nil
}
