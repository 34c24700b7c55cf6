package model

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
)

// TransactionOutputChanges is the effect connecting one block had on the UTXO set. TxOutsSpent may
// contain outputs that were created and spent inside the same block.
type TransactionOutputChanges struct {
	TxOutsCreated []*UTXO
	TxOutsSpent   []*UTXO
}

func NewTransactionOutputChanges(created, spent []*UTXO) *TransactionOutputChanges {
	return &TransactionOutputChanges{
		TxOutsCreated: created,
		TxOutsSpent:   spent,
	}
}

// NewTransactionOutputChangesFromBytes decodes the layout written by Bytes.
func NewTransactionOutputChangesFromBytes(b []byte) (*TransactionOutputChanges, error) {
	r := bytes.NewReader(b)

	created, err := readUTXOList(r)
	if err != nil {
		return nil, errors.NewProcessingError("failed to read created outputs", err)
	}

	spent, err := readUTXOList(r)
	if err != nil {
		return nil, errors.NewProcessingError("failed to read spent outputs", err)
	}

	if r.Len() != 0 {
		return nil, errors.NewProcessingError("%d trailing bytes after transaction output changes", r.Len())
	}

	return NewTransactionOutputChanges(created, spent), nil
}

// Bytes encodes the created list followed by the spent list, each as a 4 byte little endian
// count followed by the UTXOs.
func (c *TransactionOutputChanges) Bytes() []byte {
	buf := &bytes.Buffer{}
	_, _ = c.WriteTo(buf)

	return buf.Bytes()
}

func (c *TransactionOutputChanges) WriteTo(w io.Writer) (int64, error) {
	n, err := writeUTXOList(w, c.TxOutsCreated)
	if err != nil {
		return n, err
	}

	m, err := writeUTXOList(w, c.TxOutsSpent)

	return n + m, err
}

func (c *TransactionOutputChanges) Equal(other *TransactionOutputChanges) bool {
	if c == nil || other == nil {
		return c == other
	}

	return utxoListEqual(c.TxOutsCreated, other.TxOutsCreated) && utxoListEqual(c.TxOutsSpent, other.TxOutsSpent)
}

func (c *TransactionOutputChanges) isUndoPayload() {}

func writeUTXOList(w io.Writer, utxos []*UTXO) (int64, error) {
	var count [4]byte

	binary.LittleEndian.PutUint32(count[:], uint32(len(utxos))) //nolint:gosec // list length is bounded by block size

	n, err := w.Write(count[:])
	total := int64(n)

	if err != nil {
		return total, err
	}

	for _, u := range utxos {
		m, err := u.WriteTo(w)
		total += m

		if err != nil {
			return total, err
		}
	}

	return total, nil
}

func readUTXOList(r *bytes.Reader) ([]*UTXO, error) {
	var count [4]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		return nil, errors.NewProcessingError("failed to read utxo count", err)
	}

	n := binary.LittleEndian.Uint32(count[:])

	// every utxo takes at least utxoFixedSize bytes, a larger count can only come from corrupt input
	if uint64(n)*utxoFixedSize > uint64(r.Len()) {
		return nil, errors.NewProcessingError("utxo count %d exceeds the %d bytes left", n, r.Len())
	}

	utxos := make([]*UTXO, 0, n)

	for i := uint32(0); i < n; i++ {
		u, err := readUTXO(r)
		if err != nil {
			return nil, errors.NewProcessingError("failed to read utxo %d of %d", i, n, err)
		}

		utxos = append(utxos, u)
	}

	return utxos, nil
}

func utxoListEqual(a, b []*UTXO) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}
