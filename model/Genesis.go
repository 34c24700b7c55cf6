package model

import (
	"bytes"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/go-wire"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
)

// GenesisBlock decodes the genesis header and transactions of the given network.
func GenesisBlock(params *chaincfg.Params) (*BlockHeader, TransactionList, error) {
	if params == nil || params.GenesisBlock == nil {
		return nil, nil, errors.NewConfigurationError("chain params have no genesis block")
	}

	var buf bytes.Buffer
	if err := params.GenesisBlock.Serialize(&buf); err != nil {
		return nil, nil, errors.NewProcessingError("failed to serialize %s genesis block", params.Name, err)
	}

	b := buf.Bytes()
	if len(b) < BlockHeaderSize {
		return nil, nil, errors.NewProcessingError("%s genesis block is only %d bytes", params.Name, len(b))
	}

	header, err := NewBlockHeaderFromBytes(b[:BlockHeaderSize])
	if err != nil {
		return nil, nil, err
	}

	r := bytes.NewReader(b[BlockHeaderSize:])

	txCount, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, nil, errors.NewProcessingError("failed to read %s genesis transaction count", params.Name, err)
	}

	txs := make(TransactionList, 0, txCount)

	for i := uint64(0); i < txCount; i++ {
		tx := &bt.Tx{}
		if _, err = tx.ReadFrom(r); err != nil {
			return nil, nil, errors.NewProcessingError("failed to read %s genesis transaction %d", params.Name, i, err)
		}

		txs = append(txs, tx)
	}

	return header, txs, nil
}

// GenesisHeader decodes only the 80 byte genesis header of the given network.
func GenesisHeader(params *chaincfg.Params) (*BlockHeader, error) {
	if params == nil || params.GenesisBlock == nil {
		return nil, errors.NewConfigurationError("chain params have no genesis block")
	}

	var buf bytes.Buffer
	if err := params.GenesisBlock.Header.Serialize(&buf); err != nil {
		return nil, errors.NewProcessingError("failed to serialize %s genesis header", params.Name, err)
	}

	return NewBlockHeaderFromBytes(buf.Bytes())
}

// GenesisStoredBlock returns the genesis header at height 0 carrying only its own work.
func GenesisStoredBlock(params *chaincfg.Params) (*StoredBlock, error) {
	header, err := GenesisHeader(params)
	if err != nil {
		return nil, err
	}

	return NewStoredBlock(header, header.Work(), 0), nil
}
