// Package memory implements a header only block store held in a bounded in-memory cache.
package memory

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/model"
	"github.com/bsv-blockchain/teranode-blockstore/settings"
	"github.com/bsv-blockchain/teranode-blockstore/stores/blockstore/options"
	"github.com/bsv-blockchain/teranode-blockstore/ulogger"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/atomic"
)

// Store keeps at most Capacity headers. Once full, storing a new header evicts the one that was
// stored first. Reads and repeated puts of a held header do not change its place. The chain head
// is always retained.
type Store struct {
	logger    ulogger.Logger
	params    *chaincfg.Params
	// blocks is only read with Peek, which keeps the eviction order the insertion order
	blocks    *lru.Cache[chainhash.Hash, *atomic.Pointer[model.StoredBlock]]
	chainHead *atomic.Pointer[model.StoredBlock]
	closed    *atomic.Bool
}

// New creates a store seeded with the genesis block of the configured network.
func New(logger ulogger.Logger, tSettings *settings.Settings, opts ...options.StoreOption) (*Store, error) {
	storeOptions, err := options.NewStoreOptions(tSettings, opts...)
	if err != nil {
		return nil, err
	}

	if tSettings.ChainCfgParams == nil {
		return nil, errors.NewConfigurationError("no chain parameters configured")
	}

	genesis, err := model.GenesisStoredBlock(tSettings.ChainCfgParams)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to build genesis block for %s", tSettings.ChainCfgParams.Name, err)
	}

	blocks, err := lru.New[chainhash.Hash, *atomic.Pointer[model.StoredBlock]](storeOptions.Capacity)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to create memory block store", err)
	}

	s := &Store{
		logger:    logger,
		params:    tSettings.ChainCfgParams,
		blocks:    blocks,
		chainHead: atomic.NewPointer(genesis),
		closed:    atomic.NewBool(false),
	}

	s.store(genesis)

	logger.Infof("[MemoryBlockStore] created with capacity %d on %s", storeOptions.Capacity, s.params.Name)

	return s, nil
}

func (s *Store) Put(_ context.Context, block *model.StoredBlock) error {
	if s.closed.Load() {
		return errors.NewStoreClosedError("memory block store is closed")
	}

	if block == nil || block.Header == nil {
		return errors.NewInvalidArgumentError("cannot store a nil block")
	}

	s.store(block)

	return nil
}

// store replaces the value of a held header in place, so it keeps its place in the eviction order.
func (s *Store) store(block *model.StoredBlock) {
	value := block.Clone()

	if previous, found, _ := s.blocks.PeekOrAdd(*block.Hash(), atomic.NewPointer(value)); found {
		previous.Store(value)
	}
}

// Get returns the block with the given hash, or nil when it is not held.
func (s *Store) Get(_ context.Context, hash *chainhash.Hash) (*model.StoredBlock, error) {
	if s.closed.Load() {
		return nil, errors.NewStoreClosedError("memory block store is closed")
	}

	if head := s.chainHead.Load(); head.Hash().IsEqual(hash) {
		return head.Clone(), nil
	}

	value, found := s.blocks.Peek(*hash)
	if !found {
		return nil, nil
	}

	return value.Load().Clone(), nil
}

func (s *Store) GetChainHead(_ context.Context) (*model.StoredBlock, error) {
	if s.closed.Load() {
		return nil, errors.NewStoreClosedError("memory block store is closed")
	}

	return s.chainHead.Load().Clone(), nil
}

func (s *Store) SetChainHead(_ context.Context, head *model.StoredBlock) error {
	if s.closed.Load() {
		return errors.NewStoreClosedError("memory block store is closed")
	}

	if head == nil || head.Header == nil {
		return errors.NewInvalidArgumentError("chain head must not be nil")
	}

	s.chainHead.Store(head.Clone())

	return nil
}

func (s *Store) GetParams() *chaincfg.Params {
	return s.params
}

// Len returns the number of headers currently held.
func (s *Store) Len() int {
	return s.blocks.Len()
}

// Close discards every header. Subsequent calls fail with a store closed error.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.blocks.Purge()

	return nil
}
