package model

import (
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Fixtures shared by the store test suites. They live here rather than in a _test.go file so
// that the store packages can import them.

// Block1Header is regtest block 1, mined on top of the regtest genesis block.
const Block1Header = "0000002006226e46111a0b59caaf126043eb5bbf28c34f3a5e332a1fc7b2b73cf188910f1633819a69afbd7ce1f1a01c3b786fcbb023274f3b15172b24feadd4c80e6c6a8b491267ffff7f2004000000"

// Block1Hash is the hash of Block1Header.
const Block1Hash = "4c74e0128fef1a01469380c05b215afaf4cfe51183461f4a7996a84295b6925a"

// CoinbaseHex is a mainnet coinbase transaction with three pay to public key hash outputs.
const CoinbaseHex = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff1703fb03002f6d322d75732f0cb6d7d459fb411ef3ac6d65ffffffff03ac505763000000001976a914c362d5af234dd4e1f2a1bfbcab90036d38b0aa9f88acaa505763000000001976a9143c22b6d9ba7b50b6d6e615c69d11ecb2ba3db14588acaa505763000000001976a914b7177c7deb43f3869eabc25cfd9f618215f34d5588ac00000000"

// TestP2PKHScript returns a pay to public key hash script whose hash is twenty copies of seed.
func TestP2PKHScript(seed byte) *bscript.Script {
	s := make([]byte, 0, 25)
	s = append(s, bscript.OpDUP, bscript.OpHASH160, 0x14)

	for i := 0; i < 20; i++ {
		s = append(s, seed)
	}

	s = append(s, bscript.OpEQUALVERIFY, bscript.OpCHECKSIG)

	script := bscript.Script(s)

	return &script
}

// TestNextBlock builds a synthetic header on top of prev. The header does not meet its target;
// stores never validate proof of work.
func TestNextBlock(prev *StoredBlock, nonce uint32) *StoredBlock {
	var merkleRoot chainhash.Hash

	binary.LittleEndian.PutUint32(merkleRoot[:], prev.Height+1)
	binary.LittleEndian.PutUint32(merkleRoot[4:], nonce)

	header := &BlockHeader{
		Version:        0x20000000,
		HashPrevBlock:  prev.Hash(),
		HashMerkleRoot: &merkleRoot,
		Timestamp:      prev.Header.Timestamp + 600,
		Bits:           prev.Header.Bits,
		Nonce:          nonce,
	}

	next, _ := prev.Build(header)

	return next
}

// TestTransaction returns a transaction spending a fixed outpoint into a single output.
func TestTransaction(value uint64, seed byte) (*bt.Tx, error) {
	tx := bt.NewTx()

	if err := tx.From(
		"3e8f9e1cbd3a1a0d8ce8c6c2f1a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4",
		uint32(seed),
		"76a914c362d5af234dd4e1f2a1bfbcab90036d38b0aa9f88ac",
		value+1000,
	); err != nil {
		return nil, err
	}

	tx.AddOutput(&bt.Output{
		Satoshis:      value,
		LockingScript: TestP2PKHScript(seed),
	})

	return tx, nil
}
