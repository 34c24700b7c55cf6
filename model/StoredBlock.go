package model

import (
	"fmt"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
)

// ChainWorkSize is the fixed width used when chain work has to be rendered as a 32 byte big endian number.
const ChainWorkSize = 32

// StoredBlock is a block header together with the cumulative chain work up to and including
// it, and its height. Values are never mutated once handed out by a store.
type StoredBlock struct {
	Header    *BlockHeader
	ChainWork *big.Int
	Height    uint32
}

func NewStoredBlock(header *BlockHeader, chainWork *big.Int, height uint32) *StoredBlock {
	return &StoredBlock{
		Header:    header,
		ChainWork: chainWork,
		Height:    height,
	}
}

func (sb *StoredBlock) Hash() *chainhash.Hash {
	return sb.Header.Hash()
}

// Build creates the StoredBlock for header when it is connected on top of sb.
func (sb *StoredBlock) Build(header *BlockHeader) (*StoredBlock, error) {
	if header.HashPrevBlock == nil || !header.HashPrevBlock.IsEqual(sb.Hash()) {
		return nil, errors.NewInvalidArgumentError("header %s does not connect to %s", header.Hash(), sb.Hash())
	}

	chainWork := new(big.Int).Add(sb.ChainWork, header.Work())

	return NewStoredBlock(header, chainWork, sb.Height+1), nil
}

// MoreWorkThan reports whether sb carries strictly more cumulative work than other.
func (sb *StoredBlock) MoreWorkThan(other *StoredBlock) bool {
	return sb.ChainWork.Cmp(other.ChainWork) > 0
}

// Clone returns a deep copy, so stores never share mutable state with callers.
func (sb *StoredBlock) Clone() *StoredBlock {
	if sb == nil {
		return nil
	}

	header := *sb.Header

	if sb.Header.HashPrevBlock != nil {
		prev := *sb.Header.HashPrevBlock
		header.HashPrevBlock = &prev
	}

	if sb.Header.HashMerkleRoot != nil {
		merkleRoot := *sb.Header.HashMerkleRoot
		header.HashMerkleRoot = &merkleRoot
	}

	return NewStoredBlock(&header, new(big.Int).Set(sb.ChainWork), sb.Height)
}

func (sb *StoredBlock) Equal(other *StoredBlock) bool {
	if sb == nil || other == nil {
		return sb == other
	}

	return sb.Height == other.Height &&
		sb.ChainWork.Cmp(other.ChainWork) == 0 &&
		string(sb.Header.Bytes()) == string(other.Header.Bytes())
}

// ChainWorkBytes renders the chain work as an unsigned big endian number, left padded to ChainWorkSize.
func (sb *StoredBlock) ChainWorkBytes() []byte {
	b := sb.ChainWork.Bytes()
	if len(b) >= ChainWorkSize {
		return b
	}

	padded := make([]byte, ChainWorkSize)
	copy(padded[ChainWorkSize-len(b):], b)

	return padded
}

func (sb *StoredBlock) String() string {
	return fmt.Sprintf("Block %s at height %d, chain work %s", sb.Hash(), sb.Height, sb.ChainWork)
}
