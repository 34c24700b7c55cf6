package sql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpSizes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	chain := buildChain(t, s, 2)

	putUndoableChain(t, s, chain)
	require.NoError(t, s.AddUnspentTransactionOutput(ctx, testUTXO(t, 1, 0, 1000)))

	sizes, err := s.DumpSizes(ctx)
	require.NoError(t, err)
	require.Len(t, sizes, 4)

	rows := map[string]int64{}

	for _, size := range sizes {
		rows[size.Table] = size.Rows
		assert.Positive(t, size.Bytes, size.Table)
	}

	assert.Equal(t, int64(3), rows["settings"])
	assert.Equal(t, int64(3), rows["headers"])
	assert.Equal(t, int64(3), rows["undoableblocks"])
	assert.Equal(t, int64(1), rows["openoutputs"])
}

func TestResetStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	chain := buildChain(t, s, 2)

	putUndoableChain(t, s, chain)
	require.NoError(t, s.SetVerifiedChainHead(ctx, chain[1]))

	require.NoError(t, s.ResetStore(ctx))

	head, err := s.GetChainHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), head.Height)

	verified, err := s.GetVerifiedChainHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), verified.Height)

	stored, err := s.Get(ctx, chain[0].Hash())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.DeleteStore(ctx))

	_, err := s.DumpSizes(ctx)
	require.Error(t, err)
}
