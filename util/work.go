package util

import (
	"math/big"
)

var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// CalculateTarget expands the compact nBits representation into the full 256 bit target.
func CalculateTarget(bits uint32) *big.Int {
	exponent := bits >> 24
	mantissa := bits & 0x007fffff

	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		return big.NewInt(int64(mantissa))
	}

	target := big.NewInt(int64(mantissa))
	target.Lsh(target, uint(8*(exponent-3)))

	// sign bit set means a negative target, which no valid header carries
	if bits&0x00800000 != 0 {
		target.Neg(target)
	}

	return target
}

// CalculateWork returns the work represented by a single header with the given nBits,
// 2^256 / (target + 1).
func CalculateWork(bits uint32) *big.Int {
	target := CalculateTarget(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}

	return new(big.Int).Div(oneLsh256, new(big.Int).Add(target, big.NewInt(1)))
}

// CalculateChainWork adds the work of a header with the given nBits to prevWork.
func CalculateChainWork(prevWork *big.Int, bits uint32) *big.Int {
	work := CalculateWork(bits)
	if prevWork == nil {
		return work
	}

	return work.Add(work, prevWork)
}
