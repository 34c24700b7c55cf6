package blockstore

import (
	"context"
	"net/url"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/settings"
	"github.com/bsv-blockchain/teranode-blockstore/stores/blockstore/memory"
	"github.com/bsv-blockchain/teranode-blockstore/stores/blockstore/options"
	"github.com/bsv-blockchain/teranode-blockstore/stores/blockstore/sql"
	"github.com/bsv-blockchain/teranode-blockstore/ulogger"
)

var (
	_ BlockStore           = (*memory.Store)(nil)
	_ FullPrunedBlockStore = (*sql.Store)(nil)
	_ FullPrunedBlockStore = (*sql.Session)(nil)
	_ UTXOProvider         = (*sql.Store)(nil)
	_ UTXOProvider         = (*sql.Session)(nil)
)

// NewStore opens the block store named by storeURL. The scheme selects the engine: memory for
// the bounded header store, postgres, sqlite or sqlitememory for the full pruned store.
func NewStore(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL,
	opts ...options.StoreOption) (BlockStore, error) {
	if storeURL == nil {
		return nil, errors.NewConfigurationError("no block store URL configured")
	}

	switch storeURL.Scheme {
	case "memory":
		store, err := memory.New(logger, tSettings, opts...)
		if err != nil {
			return nil, err
		}

		return store, nil

	case "postgres", "sqlite", "sqlitememory":
		store, err := sql.New(ctx, logger, tSettings, storeURL, opts...)
		if err != nil {
			return nil, err
		}

		return store, nil
	}

	return nil, errors.NewConfigurationError("unknown block store scheme: %s", storeURL.Scheme)
}

// NewFullPrunedStore is NewStore restricted to engines that keep undo data and unspent outputs.
func NewFullPrunedStore(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL,
	opts ...options.StoreOption) (FullPrunedBlockStore, error) {
	store, err := NewStore(ctx, logger, tSettings, storeURL, opts...)
	if err != nil {
		return nil, err
	}

	fullStore, ok := store.(FullPrunedBlockStore)
	if !ok {
		_ = store.Close()
		return nil, errors.NewConfigurationError("block store scheme %s does not keep unspent outputs", storeURL.Scheme)
	}

	return fullStore, nil
}
