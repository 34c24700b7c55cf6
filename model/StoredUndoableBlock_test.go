package model

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionList_RoundTrip(t *testing.T) {
	tx1, err := TestTransaction(1000, 1)
	require.NoError(t, err)

	tx2, err := TestTransaction(2000, 2)
	require.NoError(t, err)

	txs := TransactionList{tx1, tx2}

	decoded, err := NewTransactionListFromBytes(txs.Bytes())
	require.NoError(t, err)

	require.Len(t, decoded, 2)
	assert.Equal(t, tx1.TxID(), decoded[0].TxID())
	assert.Equal(t, tx2.TxID(), decoded[1].TxID())

	empty, err := NewTransactionListFromBytes(TransactionList{}.Bytes())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTransactionList_Corrupt(t *testing.T) {
	tx, err := TestTransaction(1000, 1)
	require.NoError(t, err)

	b := TransactionList{tx}.Bytes()

	_, err = NewTransactionListFromBytes(b[:len(b)-3])
	require.Error(t, err)

	_, err = NewTransactionListFromBytes([]byte{0xff, 0xff, 0xff, 0x00})
	require.Error(t, err)

	_, err = NewTransactionListFromBytes([]byte{0x01})
	require.Error(t, err)
}

func TestStoredUndoableBlock_Payloads(t *testing.T) {
	hash := chainhash.DoubleHashH([]byte("block"))

	changes := NewTransactionOutputChanges(nil, nil)
	delta := NewStoredUndoableBlockFromChanges(&hash, changes)

	require.NoError(t, delta.Validate())
	assert.Same(t, changes, delta.TxOutChanges())
	assert.Nil(t, delta.Transactions())

	full := NewStoredUndoableBlockFromTransactions(&hash, nil)

	require.NoError(t, full.Validate())
	assert.Nil(t, full.TxOutChanges())
	assert.NotNil(t, full.Transactions())

	require.Error(t, (&StoredUndoableBlock{Hash: hash}).Validate())
	require.Error(t, NewStoredUndoableBlockFromChanges(&hash, nil).Validate())
}
