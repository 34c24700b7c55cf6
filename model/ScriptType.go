package model

import (
	"crypto/sha256"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-chaincfg"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // address hashing needs hash160
)

// ScriptType classifies a locking script. The numeric values are persisted in the
// addresstargetable column and must not change.
type ScriptType int

const (
	ScriptTypeNoKey    ScriptType = 0
	ScriptTypeP2PKH    ScriptType = 1
	ScriptTypeP2PK     ScriptType = 2
	ScriptTypeP2SH     ScriptType = 3
	ScriptTypeMultisig ScriptType = 4
	ScriptTypeData     ScriptType = 5
)

var scriptTypeNames = map[ScriptType]string{
	ScriptTypeNoKey:    "nonstandard",
	ScriptTypeP2PKH:    "p2pkh",
	ScriptTypeP2PK:     "p2pk",
	ScriptTypeP2SH:     "p2sh",
	ScriptTypeMultisig: "multisig",
	ScriptTypeData:     "data",
}

func (st ScriptType) String() string {
	if name, ok := scriptTypeNames[st]; ok {
		return name
	}

	return "unknown"
}

func ScriptTypeOf(script *bscript.Script) ScriptType {
	if script == nil || len(*script) == 0 {
		return ScriptTypeNoKey
	}

	switch {
	case script.IsP2PKH():
		return ScriptTypeP2PKH
	case script.IsP2PK():
		return ScriptTypeP2PK
	case script.IsP2SH():
		return ScriptTypeP2SH
	case script.IsMultiSigOut():
		return ScriptTypeMultisig
	case script.IsData():
		return ScriptTypeData
	default:
		return ScriptTypeNoKey
	}
}

// AddressFromScript derives the base58 address paying to script. Only pay to public key hash
// and pay to public key outputs map onto an address; every other script returns "".
func AddressFromScript(script *bscript.Script, params *chaincfg.Params) string {
	var pubKeyHash []byte

	switch ScriptTypeOf(script) {
	case ScriptTypeP2PKH:
		// OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG
		pubKeyHash = (*script)[3:23]
	case ScriptTypeP2PK:
		// <push> <pubkey> OP_CHECKSIG
		pubKey := (*script)[1 : len(*script)-1]
		pubKeyHash = hash160(pubKey)
	default:
		return ""
	}

	mainnet := params == nil || params.Name == chaincfg.MainNetParams.Name

	address, err := bscript.NewAddressFromPublicKeyHash(pubKeyHash, mainnet)
	if err != nil {
		return ""
	}

	return address.AddressString
}

func hash160(b []byte) []byte {
	sha := sha256.Sum256(b)

	h := ripemd160.New()
	_, _ = h.Write(sha[:])

	return h.Sum(nil)
}
