package errors

import "strconv"

// ERR is the numeric code carried by every *Error.
type ERR int32

const (
	ERR_UNKNOWN             ERR = 0
	ERR_INVALID_ARGUMENT    ERR = 1
	ERR_NOT_FOUND           ERR = 3
	ERR_PROCESSING          ERR = 4
	ERR_CONFIGURATION       ERR = 5
	ERR_CONTEXT_CANCELED    ERR = 7
	ERR_ERROR               ERR = 9
	ERR_BLOCK_NOT_FOUND     ERR = 10
	ERR_BLOCK_EXISTS        ERR = 12
	ERR_TX_INVALID          ERR = 31
	ERR_UTXO_NOT_FOUND      ERR = 36
	ERR_UTXO_EXISTS         ERR = 37
	ERR_STORAGE_UNAVAILABLE ERR = 59
	ERR_STORAGE_ERROR       ERR = 61
	ERR_STORAGE_CORRUPTION  ERR = 62
	ERR_STORE_CLOSED        ERR = 63
	ERR_INVARIANT_VIOLATION ERR = 64
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	3:  "NOT_FOUND",
	4:  "PROCESSING",
	5:  "CONFIGURATION",
	7:  "CONTEXT_CANCELED",
	9:  "ERROR",
	10: "BLOCK_NOT_FOUND",
	12: "BLOCK_EXISTS",
	31: "TX_INVALID",
	36: "UTXO_NOT_FOUND",
	37: "UTXO_EXISTS",
	59: "STORAGE_UNAVAILABLE",
	61: "STORAGE_ERROR",
	62: "STORAGE_CORRUPTION",
	63: "STORE_CLOSED",
	64: "INVARIANT_VIOLATION",
}

func (x ERR) String() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return strconv.Itoa(int(x))
}
