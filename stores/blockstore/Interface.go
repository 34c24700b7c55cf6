// Package blockstore defines the persistence contract for block headers, undo data and the
// unspent output set, and a factory selecting an implementation from a store URL.
package blockstore

import (
	"context"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/teranode-blockstore/model"
)

// BlockStore persists headers and tracks the chain head. Lookups of things that are not stored
// return nil without an error. Returned blocks are copies the caller may keep.
type BlockStore interface {
	Put(ctx context.Context, block *model.StoredBlock) error
	Get(ctx context.Context, hash *chainhash.Hash) (*model.StoredBlock, error)
	GetChainHead(ctx context.Context) (*model.StoredBlock, error)
	SetChainHead(ctx context.Context, head *model.StoredBlock) error
	GetParams() *chaincfg.Params
	Close() error
}

// FullPrunedBlockStore adds the unspent output set, undo data for the most recent blocks and
// batched writes.
type FullPrunedBlockStore interface {
	BlockStore

	PutUndoable(ctx context.Context, block *model.StoredBlock, undoable *model.StoredUndoableBlock) error
	GetOnceUndoableStoredBlock(ctx context.Context, hash *chainhash.Hash) (*model.StoredBlock, error)
	GetUndoBlock(ctx context.Context, hash *chainhash.Hash) (*model.StoredUndoableBlock, error)

	GetTransactionOutput(ctx context.Context, hash *chainhash.Hash, index uint32) (*model.UTXO, error)
	AddUnspentTransactionOutput(ctx context.Context, utxo *model.UTXO) error
	RemoveUnspentTransactionOutput(ctx context.Context, utxo *model.UTXO) error
	HasUnspentOutputs(ctx context.Context, hash *chainhash.Hash, numOutputs int) (bool, error)

	GetVerifiedChainHead(ctx context.Context) (*model.StoredBlock, error)
	// SetVerifiedChainHead also moves the chain head when head is higher, and prunes undo data
	// older than the configured depth.
	SetVerifiedChainHead(ctx context.Context, head *model.StoredBlock) error

	BeginDatabaseBatchWrite(ctx context.Context) error
	CommitDatabaseBatchWrite(ctx context.Context) error
	AbortDatabaseBatchWrite(ctx context.Context) error
}

// UTXOProvider answers wallet style queries over the unspent output set.
type UTXOProvider interface {
	GetOpenTransactionOutputs(ctx context.Context, addresses []string) ([]*model.UTXO, error)
	CalculateBalanceForAddress(ctx context.Context, address string) (*big.Int, error)
	GetChainHead(ctx context.Context) (*model.StoredBlock, error)
	GetParams() *chaincfg.Params
}
