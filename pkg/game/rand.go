package game

import (
	"crypto/rand"
	"encoding/binary"
)

// Rand yields uniform floats for the bypass draw. The production source must
// not be predictable from the request; tests substitute a deterministic stub.
type Rand interface {
	Float64() float64
}

// CryptoRand draws from the operating system's entropy source.
type CryptoRand struct{}

// NewCryptoRand returns the production randomness source.
func NewCryptoRand() CryptoRand {
	return CryptoRand{}
}

// Float64 returns a uniform value in [0,1) with 53 bits of precision.
func (CryptoRand) Float64() float64 {
	var buf [8]byte
	rand.Read(buf[:]) // never fails on supported platforms
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}
