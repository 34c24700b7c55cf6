package model

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/teranode-blockstore/errors"
)

// utxoFixedSize is the encoded size of a UTXO with an empty script.
const utxoFixedSize = 8 + 4 + chainhash.HashSize + 4 + 4 + 1

// UTXO is one unspent transaction output. Hash and Index form its unique key.
type UTXO struct {
	Hash     chainhash.Hash
	Index    uint32
	Value    uint64
	Script   *bscript.Script
	Height   uint32
	Coinbase bool

	// Address is a cached rendering of the script's destination, "" when it has none.
	Address string
}

func NewUTXO(hash *chainhash.Hash, index uint32, value uint64, height uint32, coinbase bool, script *bscript.Script, address string) *UTXO {
	if script == nil {
		script = &bscript.Script{}
	}

	return &UTXO{
		Hash:     *hash,
		Index:    index,
		Value:    value,
		Script:   script,
		Height:   height,
		Coinbase: coinbase,
		Address:  address,
	}
}

// NewUTXOFromBytes decodes a single UTXO, failing if b holds anything beyond it.
func NewUTXOFromBytes(b []byte) (*UTXO, error) {
	r := bytes.NewReader(b)

	u, err := readUTXO(r)
	if err != nil {
		return nil, err
	}

	if r.Len() != 0 {
		return nil, errors.NewProcessingError("%d trailing bytes after utxo", r.Len())
	}

	return u, nil
}

func (u *UTXO) ScriptType() ScriptType {
	return ScriptTypeOf(u.Script)
}

// DeriveAddress fills in Address from the locking script when it was not supplied.
func (u *UTXO) DeriveAddress(params *chaincfg.Params) string {
	if u.Address == "" {
		u.Address = AddressFromScript(u.Script, params)
	}

	return u.Address
}

func (u *UTXO) ScriptBytes() []byte {
	if u.Script == nil {
		return []byte{}
	}

	return *u.Script
}

// Bytes encodes u as: value (8, LE), script length (4, LE), script, tx hash (32),
// output index (4, LE), height (4, LE), coinbase flag (1).
func (u *UTXO) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, utxoFixedSize+len(u.ScriptBytes())))
	_, _ = u.WriteTo(buf)

	return buf.Bytes()
}

func (u *UTXO) WriteTo(w io.Writer) (int64, error) {
	script := u.ScriptBytes()

	b := make([]byte, utxoFixedSize+len(script))
	pos := 0

	binary.LittleEndian.PutUint64(b[pos:], u.Value)
	pos += 8

	binary.LittleEndian.PutUint32(b[pos:], uint32(len(script))) //nolint:gosec // scripts are far below 4GB
	pos += 4

	pos += copy(b[pos:], script)
	pos += copy(b[pos:], u.Hash[:])

	binary.LittleEndian.PutUint32(b[pos:], u.Index)
	pos += 4

	binary.LittleEndian.PutUint32(b[pos:], u.Height)
	pos += 4

	if u.Coinbase {
		b[pos] = 1
	}

	n, err := w.Write(b)

	return int64(n), err
}

func readUTXO(r *bytes.Reader) (*UTXO, error) {
	if r.Len() < utxoFixedSize {
		return nil, errors.NewProcessingError("utxo needs at least %d bytes, %d left", utxoFixedSize, r.Len())
	}

	var fixed [12]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, errors.NewProcessingError("failed to read utxo value", err)
	}

	value := binary.LittleEndian.Uint64(fixed[0:8])
	scriptLen := binary.LittleEndian.Uint32(fixed[8:12])

	// the remaining fixed fields follow the script
	if uint64(scriptLen)+uint64(utxoFixedSize-12) > uint64(r.Len()) {
		return nil, errors.NewProcessingError("utxo script length %d exceeds the %d bytes left", scriptLen, r.Len())
	}

	script := make([]byte, scriptLen)
	if _, err := io.ReadFull(r, script); err != nil {
		return nil, errors.NewProcessingError("failed to read utxo script", err)
	}

	var tail [chainhash.HashSize + 9]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, errors.NewProcessingError("failed to read utxo outpoint", err)
	}

	u := &UTXO{
		Value:  value,
		Index:  binary.LittleEndian.Uint32(tail[32:36]),
		Height: binary.LittleEndian.Uint32(tail[36:40]),
	}

	copy(u.Hash[:], tail[:32])

	switch tail[40] {
	case 0:
	case 1:
		u.Coinbase = true
	default:
		return nil, errors.NewProcessingError("invalid utxo coinbase flag %d", tail[40])
	}

	s := bscript.Script(script)
	u.Script = &s

	return u, nil
}

// Equal compares everything that is persisted in the binary encoding. The cached address is derived
// data and is not compared.
func (u *UTXO) Equal(other *UTXO) bool {
	if u == nil || other == nil {
		return u == other
	}

	return u.Hash == other.Hash &&
		u.Index == other.Index &&
		u.Value == other.Value &&
		u.Height == other.Height &&
		u.Coinbase == other.Coinbase &&
		bytes.Equal(u.ScriptBytes(), other.ScriptBytes())
}

func (u *UTXO) String() string {
	return fmt.Sprintf("%s:%d value %d height %d coinbase %t", u.Hash, u.Index, u.Value, u.Height, u.Coinbase)
}
