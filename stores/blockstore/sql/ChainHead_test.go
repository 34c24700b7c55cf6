package sql

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
	"github.com/bsv-blockchain/teranode-blockstore/stores/blockstore/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putUndoableChain(t *testing.T, s *Store, chain []*model.StoredBlock) {
	t.Helper()

	for _, block := range chain {
		undo := model.NewStoredUndoableBlockFromChanges(block.Hash(), model.NewTransactionOutputChanges(nil, nil))
		require.NoError(t, s.PutUndoable(context.Background(), block, undo))
	}
}

func TestSetChainHead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	chain := buildChain(t, s, 2)

	require.NoError(t, s.Put(ctx, chain[0]))
	require.NoError(t, s.SetChainHead(ctx, chain[0]))

	head, err := s.GetChainHead(ctx)
	require.NoError(t, err)
	assert.True(t, chain[0].Equal(head))

	// the verified head is untouched
	verified, err := s.GetVerifiedChainHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), verified.Height)

	// other sessions see the new head
	session, err := s.NewSession(ctx)
	require.NoError(t, err)

	defer func() {
		_ = session.Close()
	}()

	head, err = session.GetChainHead(ctx)
	require.NoError(t, err)
	assert.True(t, chain[0].Equal(head))

	var value []byte
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = $1`, settingChainHead).Scan(&value))
	assert.Equal(t, chain[0].Hash()[:], value)
}

func TestSetVerifiedChainHead(t *testing.T) {
	ctx := context.Background()

	t.Run("advances the chain head", func(t *testing.T) {
		s := newTestStore(t)
		chain := buildChain(t, s, 3)
		putUndoableChain(t, s, chain)

		require.NoError(t, s.SetVerifiedChainHead(ctx, chain[2]))

		head, err := s.GetChainHead(ctx)
		require.NoError(t, err)
		assert.True(t, chain[2].Equal(head))

		verified, err := s.GetVerifiedChainHead(ctx)
		require.NoError(t, err)
		assert.True(t, chain[2].Equal(verified))
	})

	t.Run("keeps a higher chain head", func(t *testing.T) {
		s := newTestStore(t)
		chain := buildChain(t, s, 3)
		putUndoableChain(t, s, chain)

		require.NoError(t, s.SetChainHead(ctx, chain[2]))
		require.NoError(t, s.SetVerifiedChainHead(ctx, chain[0]))

		head, err := s.GetChainHead(ctx)
		require.NoError(t, err)
		assert.True(t, chain[2].Equal(head))

		verified, err := s.GetVerifiedChainHead(ctx)
		require.NoError(t, err)
		assert.True(t, chain[0].Equal(verified))
	})

	t.Run("prunes undo data below the retention depth", func(t *testing.T) {
		s := newTestStore(t, options.WithFullStoreDepth(2))
		chain := buildChain(t, s, 5)
		putUndoableChain(t, s, chain)

		// heights 1 to 5, the cutoff is 5 - 2 = 3
		require.NoError(t, s.SetVerifiedChainHead(ctx, chain[4]))

		genesis, err := model.GenesisStoredBlock(s.GetParams())
		require.NoError(t, err)

		for _, block := range []*model.StoredBlock{genesis, chain[0], chain[1], chain[2]} {
			undo, err := s.GetUndoBlock(ctx, block.Hash())
			require.NoError(t, err)
			assert.Nil(t, undo, "undo data at height %d should be pruned", block.Height)

			once, err := s.GetOnceUndoableStoredBlock(ctx, block.Hash())
			require.NoError(t, err)
			assert.Nil(t, once, "block at height %d should no longer be once undoable", block.Height)

			stored, err := s.Get(ctx, block.Hash())
			require.NoError(t, err)
			assert.True(t, block.Equal(stored), "header at height %d should be kept", block.Height)
		}

		for _, block := range chain[3:] {
			undo, err := s.GetUndoBlock(ctx, block.Hash())
			require.NoError(t, err)
			assert.NotNil(t, undo, "undo data at height %d should be kept", block.Height)

			once, err := s.GetOnceUndoableStoredBlock(ctx, block.Hash())
			require.NoError(t, err)
			assert.NotNil(t, once)
		}
	})

	t.Run("nothing is pruned within the depth", func(t *testing.T) {
		s := newTestStore(t, options.WithFullStoreDepth(10))
		chain := buildChain(t, s, 3)
		putUndoableChain(t, s, chain)

		require.NoError(t, s.SetVerifiedChainHead(ctx, chain[2]))

		var count int
		require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM undoableblocks`).Scan(&count))
		assert.Equal(t, 4, count)
	})
}

func TestSetChainHead_UnstoredBlock(t *testing.T) {
	ctx := context.Background()
	dataFolder := t.TempDir()

	s := openFileTestStore(t, dataFolder, "heads")
	chain := buildChain(t, s, 2)

	require.NoError(t, s.Put(ctx, chain[0]))
	require.NoError(t, s.SetChainHead(ctx, chain[0]))

	err := s.SetChainHead(ctx, chain[1])
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvariantViolation))

	err = s.SetVerifiedChainHead(ctx, chain[1])
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvariantViolation))

	head, err := s.GetChainHead(ctx)
	require.NoError(t, err)
	assert.True(t, chain[0].Equal(head))

	verified, err := s.GetVerifiedChainHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), verified.Height)

	require.NoError(t, s.Close())

	reopened := openFileTestStore(t, dataFolder, "heads")

	head, err = reopened.GetChainHead(ctx)
	require.NoError(t, err)
	assert.True(t, chain[0].Equal(head))
}

func TestSetChainHead_StoredInSameBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	chain := buildChain(t, s, 1)

	require.NoError(t, s.BeginDatabaseBatchWrite(ctx))

	err := s.SetVerifiedChainHead(ctx, chain[0])
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvariantViolation))

	// a failed statement leaves the batch usable
	require.NoError(t, s.Put(ctx, chain[0]))
	require.NoError(t, s.SetVerifiedChainHead(ctx, chain[0]))
	require.NoError(t, s.CommitDatabaseBatchWrite(ctx))

	verified, err := s.GetVerifiedChainHead(ctx)
	require.NoError(t, err)
	assert.True(t, chain[0].Equal(verified))
}
