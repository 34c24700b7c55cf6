package sql

import (
	"context"
	"net/url"
	"testing"

	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
	"github.com/bsv-blockchain/teranode-blockstore/settings"
	"github.com/bsv-blockchain/teranode-blockstore/stores/blockstore/options"
	"github.com/bsv-blockchain/teranode-blockstore/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() *settings.Settings {
	tSettings := settings.NewSettings()
	tSettings.ChainCfgParams = &chaincfg.RegressionNetParams

	return tSettings
}

func newTestStore(t *testing.T, opts ...options.StoreOption) *Store {
	t.Helper()

	storeURL, err := url.Parse("sqlitememory:///")
	require.NoError(t, err)

	s, err := New(context.Background(), ulogger.TestLogger{}, testSettings(), storeURL, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// openFileTestStore opens the sqlite file name in dataFolder, so a test can close a store and
// open it again.
func openFileTestStore(t *testing.T, dataFolder, name string, opts ...options.StoreOption) *Store {
	t.Helper()

	tSettings := testSettings()
	tSettings.DataFolder = dataFolder

	storeURL, err := url.Parse("sqlite:///" + name)
	require.NoError(t, err)

	s, err := New(context.Background(), ulogger.TestLogger{}, tSettings, storeURL, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// buildChain returns n blocks on top of the store's genesis block.
func buildChain(t *testing.T, s *Store, n int) []*model.StoredBlock {
	t.Helper()

	genesis, err := model.GenesisStoredBlock(s.GetParams())
	require.NoError(t, err)

	chain := make([]*model.StoredBlock, 0, n)
	prev := genesis

	for i := 0; i < n; i++ {
		next := model.TestNextBlock(prev, uint32(i)) //nolint:gosec // test data
		require.NotNil(t, next)

		chain = append(chain, next)
		prev = next
	}

	return chain
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("new store is seeded with genesis", func(t *testing.T) {
		s := newTestStore(t)

		genesis, err := model.GenesisStoredBlock(&chaincfg.RegressionNetParams)
		require.NoError(t, err)

		head, err := s.GetChainHead(ctx)
		require.NoError(t, err)
		assert.True(t, genesis.Equal(head))
		assert.Equal(t, uint32(0), head.Height)
		assert.Equal(t, chaincfg.RegressionNetParams.GenesisHash.String(), head.Hash().String())

		verified, err := s.GetVerifiedChainHead(ctx)
		require.NoError(t, err)
		assert.True(t, genesis.Equal(verified))

		once, err := s.GetOnceUndoableStoredBlock(ctx, genesis.Hash())
		require.NoError(t, err)
		assert.True(t, genesis.Equal(once))

		undo, err := s.GetUndoBlock(ctx, genesis.Hash())
		require.NoError(t, err)
		require.NotNil(t, undo)
		assert.NotNil(t, undo.Transactions())
		assert.Empty(t, undo.Transactions())
	})

	t.Run("existing tables are reused", func(t *testing.T) {
		s := newTestStore(t)
		chain := buildChain(t, s, 2)

		require.NoError(t, s.Put(ctx, chain[0]))
		require.NoError(t, s.Put(ctx, chain[1]))
		require.NoError(t, s.SetChainHead(ctx, chain[1]))

		reopened, err := newStore(ctx, ulogger.TestLogger{}, testSettings(), s.db, s.engine, s.dialect, s.opts)
		require.NoError(t, err)

		head, err := reopened.GetChainHead(ctx)
		require.NoError(t, err)
		assert.True(t, chain[1].Equal(head))

		verified, err := reopened.GetVerifiedChainHead(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), verified.Height)

		block, err := reopened.Get(ctx, chain[0].Hash())
		require.NoError(t, err)
		assert.True(t, chain[0].Equal(block))
	})

	t.Run("unsupported schema version", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.db.ExecContext(ctx, `UPDATE settings SET value = $1 WHERE name = $2`, []byte("02"), settingVersion)
		require.NoError(t, err)

		_, err = newStore(ctx, ulogger.TestLogger{}, testSettings(), s.db, s.engine, s.dialect, s.opts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConfiguration))
	})

	t.Run("missing chain head setting", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE name = $1`, settingChainHead)
		require.NoError(t, err)

		_, err = newStore(ctx, ulogger.TestLogger{}, testSettings(), s.db, s.engine, s.dialect, s.opts)
		require.Error(t, err)
		assert.True(t, errors.IsCorruption(err))
	})

	t.Run("chain head pointing at a missing header", func(t *testing.T) {
		s := newTestStore(t)
		chain := buildChain(t, s, 1)
		hash := chain[0].Hash()

		_, err := s.db.ExecContext(ctx, `UPDATE settings SET value = $1 WHERE name = $2`, hash[:], settingChainHead)
		require.NoError(t, err)

		_, err = newStore(ctx, ulogger.TestLogger{}, testSettings(), s.db, s.engine, s.dialect, s.opts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvariantViolation))
	})

	t.Run("unknown scheme", func(t *testing.T) {
		storeURL, err := url.Parse("mysql:///blocks")
		require.NoError(t, err)

		_, err = New(ctx, ulogger.TestLogger{}, testSettings(), storeURL)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConfiguration))
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	storeURL, err := url.Parse("sqlitememory:///")
	require.NoError(t, err)

	s, err := New(ctx, ulogger.TestLogger{}, testSettings(), storeURL)
	require.NoError(t, err)

	session, err := s.NewSession(ctx)
	require.NoError(t, err)

	genesis, err := s.GetChainHead(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Get(ctx, genesis.Hash())
	assert.True(t, errors.IsStoreClosed(err))

	err = s.Put(ctx, genesis)
	assert.True(t, errors.IsStoreClosed(err))

	_, err = s.GetChainHead(ctx)
	assert.True(t, errors.IsStoreClosed(err))

	_, err = session.GetVerifiedChainHead(ctx)
	assert.True(t, errors.IsStoreClosed(err))

	_, err = s.NewSession(ctx)
	assert.True(t, errors.IsStoreClosed(err))

	assert.NoError(t, session.Close())
}

func TestHeaderKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	genesis, err := model.GenesisStoredBlock(s.GetParams())
	require.NoError(t, err)

	// the regtest genesis hash carries no proof of work, the truncated bytes are not zero
	assert.NotEqual(t, make([]byte, 4), genesis.Hash()[28:])
	assert.Len(t, headerKey(genesis.Hash()), 28)

	session, err := s.DefaultSession(ctx)
	require.NoError(t, err)

	stored, err := session.getHeader(ctx, s.db, genesis.Hash(), false)
	require.NoError(t, err)
	assert.True(t, genesis.Equal(stored))

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM headers WHERE hash = $1`, headerKey(genesis.Hash())).Scan(&count))
	assert.Equal(t, 1, count)
}
