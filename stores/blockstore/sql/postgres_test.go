package sql

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/bsv-blockchain/teranode-blockstore/model"
	"github.com/bsv-blockchain/teranode-blockstore/stores/blockstore/options"
	"github.com/bsv-blockchain/teranode-blockstore/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *url.URL {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:13",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dbURL, err := url.Parse(connStr)
	require.NoError(t, err)

	return dbURL
}

func TestStore_Postgres(t *testing.T) {
	ctx := context.Background()
	dbURL := startPostgres(t)

	s, err := New(ctx, ulogger.TestLogger{}, testSettings(), dbURL,
		options.WithSchemaName("blockstore"),
		options.WithFullStoreDepth(2),
	)
	require.NoError(t, err)

	chain := buildChain(t, s, 4)
	putUndoableChain(t, s, chain)

	utxo := testUTXO(t, 7, 0, 5000)

	require.NoError(t, s.BeginDatabaseBatchWrite(ctx))
	require.NoError(t, s.AddUnspentTransactionOutput(ctx, utxo))
	require.NoError(t, s.SetVerifiedChainHead(ctx, chain[3]))
	require.NoError(t, s.CommitDatabaseBatchWrite(ctx))

	// duplicate inserts inside a transaction must not poison it
	require.NoError(t, s.Put(ctx, chain[0]))
	require.NoError(t, s.AddUnspentTransactionOutput(ctx, utxo))

	balance, err := s.CalculateBalanceForAddress(ctx, model.AddressFromScript(utxo.Script, s.GetParams()))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance.Int64())

	// undo data at or below height 4 - 2 is pruned
	undo, err := s.GetUndoBlock(ctx, chain[1].Hash())
	require.NoError(t, err)
	assert.Nil(t, undo)

	undo, err = s.GetUndoBlock(ctx, chain[3].Hash())
	require.NoError(t, err)
	require.NotNil(t, undo)

	require.NoError(t, s.Close())

	// reopening the same schema loads the persisted heads
	reopened, err := New(ctx, ulogger.TestLogger{}, testSettings(), dbURL, options.WithSchemaName("blockstore"))
	require.NoError(t, err)

	defer func() {
		_ = reopened.Close()
	}()

	head, err := reopened.GetChainHead(ctx)
	require.NoError(t, err)
	assert.True(t, chain[3].Equal(head))

	stored, err := reopened.GetTransactionOutput(ctx, &utxo.Hash, utxo.Index)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, utxo.Equal(stored))
}
