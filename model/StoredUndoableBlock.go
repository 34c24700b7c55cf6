package model

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
)

// UndoPayload is the data kept to reverse a block. It is either the block's
// *TransactionOutputChanges or, before those have been computed, its TransactionList.
type UndoPayload interface {
	Bytes() []byte
	isUndoPayload()
}

// TransactionList is the full list of transactions of a block.
type TransactionList []*bt.Tx

func (tl TransactionList) isUndoPayload() {}

// Bytes encodes the list as a 4 byte little endian count followed by the transactions in
// their network encoding.
func (tl TransactionList) Bytes() []byte {
	buf := &bytes.Buffer{}

	var count [4]byte

	binary.LittleEndian.PutUint32(count[:], uint32(len(tl))) //nolint:gosec // list length is bounded by block size
	buf.Write(count[:])

	for _, tx := range tl {
		buf.Write(tx.Bytes())
	}

	return buf.Bytes()
}

func NewTransactionListFromBytes(b []byte) (TransactionList, error) {
	r := bytes.NewReader(b)

	var count [4]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		return nil, errors.NewProcessingError("failed to read transaction count", err)
	}

	n := binary.LittleEndian.Uint32(count[:])

	// no transaction encodes in fewer than 10 bytes
	if uint64(n)*10 > uint64(r.Len()) {
		return nil, errors.NewProcessingError("transaction count %d exceeds the %d bytes left", n, r.Len())
	}

	txs := make(TransactionList, 0, n)

	for i := uint32(0); i < n; i++ {
		tx := &bt.Tx{}
		if _, err := tx.ReadFrom(r); err != nil {
			return nil, errors.NewProcessingError("failed to read transaction %d of %d", i, n, err)
		}

		txs = append(txs, tx)
	}

	if r.Len() != 0 {
		return nil, errors.NewProcessingError("%d trailing bytes after transaction list", r.Len())
	}

	return txs, nil
}

// StoredUndoableBlock associates a block hash with the payload needed to undo it.
type StoredUndoableBlock struct {
	Hash    chainhash.Hash
	Payload UndoPayload
}

func NewStoredUndoableBlockFromChanges(hash *chainhash.Hash, changes *TransactionOutputChanges) *StoredUndoableBlock {
	return &StoredUndoableBlock{Hash: *hash, Payload: changes}
}

func NewStoredUndoableBlockFromTransactions(hash *chainhash.Hash, txs TransactionList) *StoredUndoableBlock {
	if txs == nil {
		txs = TransactionList{}
	}

	return &StoredUndoableBlock{Hash: *hash, Payload: txs}
}

// TxOutChanges returns the delta payload, or nil when the block holds its full transaction list.
func (b *StoredUndoableBlock) TxOutChanges() *TransactionOutputChanges {
	changes, _ := b.Payload.(*TransactionOutputChanges)
	return changes
}

// Transactions returns the full transaction list, or nil when the block holds a delta.
func (b *StoredUndoableBlock) Transactions() TransactionList {
	txs, _ := b.Payload.(TransactionList)
	return txs
}

// Validate checks that exactly one payload form is present.
func (b *StoredUndoableBlock) Validate() error {
	switch p := b.Payload.(type) {
	case *TransactionOutputChanges:
		if p == nil {
			return errors.NewInvalidArgumentError("undoable block %s has a nil output changes payload", b.Hash)
		}
	case TransactionList:
		if p == nil {
			return errors.NewInvalidArgumentError("undoable block %s has a nil transaction list payload", b.Hash)
		}
	default:
		return errors.NewInvalidArgumentError("undoable block %s has no payload", b.Hash)
	}

	return nil
}
