package sql

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("commit publishes heads to other sessions", func(t *testing.T) {
		s := newTestStore(t)
		chain := buildChain(t, s, 2)

		other, err := s.NewSession(ctx)
		require.NoError(t, err)

		defer func() {
			_ = other.Close()
		}()

		require.NoError(t, s.BeginDatabaseBatchWrite(ctx))
		require.NoError(t, s.Put(ctx, chain[0]))
		require.NoError(t, s.Put(ctx, chain[1]))
		require.NoError(t, s.SetChainHead(ctx, chain[1]))

		// the batch sees its own head, other sessions do not
		head, err := s.GetChainHead(ctx)
		require.NoError(t, err)
		assert.True(t, chain[1].Equal(head))

		head, err = other.GetChainHead(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), head.Height)

		require.NoError(t, s.CommitDatabaseBatchWrite(ctx))

		head, err = other.GetChainHead(ctx)
		require.NoError(t, err)
		assert.True(t, chain[1].Equal(head))

		stored, err := other.Get(ctx, chain[0].Hash())
		require.NoError(t, err)
		assert.True(t, chain[0].Equal(stored))
	})

	t.Run("abort discards every change", func(t *testing.T) {
		s := newTestStore(t)
		chain := buildChain(t, s, 1)
		utxo := testUTXO(t, 1, 0, 1000)

		require.NoError(t, s.BeginDatabaseBatchWrite(ctx))
		require.NoError(t, s.Put(ctx, chain[0]))
		require.NoError(t, s.AddUnspentTransactionOutput(ctx, utxo))
		require.NoError(t, s.SetVerifiedChainHead(ctx, chain[0]))
		require.NoError(t, s.AbortDatabaseBatchWrite(ctx))

		fresh, err := s.NewSession(ctx)
		require.NoError(t, err)

		defer func() {
			_ = fresh.Close()
		}()

		stored, err := fresh.Get(ctx, chain[0].Hash())
		require.NoError(t, err)
		assert.Nil(t, stored)

		output, err := fresh.GetTransactionOutput(ctx, &utxo.Hash, utxo.Index)
		require.NoError(t, err)
		assert.Nil(t, output)

		head, err := fresh.GetChainHead(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), head.Height)

		verified, err := s.GetVerifiedChainHead(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), verified.Height)

		stored, err = s.Get(ctx, chain[0].Hash())
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("duplicates inside a batch do not abort it", func(t *testing.T) {
		s := newTestStore(t)
		chain := buildChain(t, s, 1)
		utxo := testUTXO(t, 2, 0, 1000)

		require.NoError(t, s.BeginDatabaseBatchWrite(ctx))
		require.NoError(t, s.Put(ctx, chain[0]))
		require.NoError(t, s.Put(ctx, chain[0]))
		require.NoError(t, s.AddUnspentTransactionOutput(ctx, utxo))
		require.NoError(t, s.AddUnspentTransactionOutput(ctx, utxo))
		require.NoError(t, s.CommitDatabaseBatchWrite(ctx))

		stored, err := s.Get(ctx, chain[0].Hash())
		require.NoError(t, err)
		assert.True(t, chain[0].Equal(stored))

		output, err := s.GetTransactionOutput(ctx, &utxo.Hash, utxo.Index)
		require.NoError(t, err)
		assert.True(t, utxo.Equal(output))
	})

	t.Run("failed operation inside a batch keeps the batch open", func(t *testing.T) {
		s := newTestStore(t)
		chain := buildChain(t, s, 1)

		require.NoError(t, s.BeginDatabaseBatchWrite(ctx))
		require.NoError(t, s.Put(ctx, chain[0]))

		err := s.RemoveUnspentTransactionOutput(ctx, testUTXO(t, 3, 0, 1000))
		require.Error(t, err)

		require.NoError(t, s.CommitDatabaseBatchWrite(ctx))

		stored, err := s.Get(ctx, chain[0].Hash())
		require.NoError(t, err)
		assert.NotNil(t, stored)
	})

	t.Run("batches do not nest", func(t *testing.T) {
		s := newTestStore(t)

		require.NoError(t, s.BeginDatabaseBatchWrite(ctx))

		err := s.BeginDatabaseBatchWrite(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvariantViolation))

		require.NoError(t, s.AbortDatabaseBatchWrite(ctx))
	})

	t.Run("commit and abort without a batch", func(t *testing.T) {
		s := newTestStore(t)

		require.NoError(t, s.AbortDatabaseBatchWrite(ctx))

		err := s.CommitDatabaseBatchWrite(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvariantViolation))
	})

	t.Run("closing the store rolls back an open batch", func(t *testing.T) {
		s := newTestStore(t)
		chain := buildChain(t, s, 1)

		require.NoError(t, s.BeginDatabaseBatchWrite(ctx))
		require.NoError(t, s.Put(ctx, chain[0]))
		require.NoError(t, s.Close())

		err := s.CommitDatabaseBatchWrite(ctx)
		require.Error(t, err)
		assert.True(t, errors.IsStoreClosed(err))
	})
}
