package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// RNG is the single random sequence a combat draws from: shuffles, brute-force
// rolls, ability selection and encryption targets. *rand.Rand satisfies it.
type RNG interface {
	Intn(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// NewRNG returns a seeded generator. A zero seed draws a fresh seed from crypto/rand.
func NewRNG(seed int64) RNG {
	if seed == 0 {
		seed = newSeed()
	}
	return rand.New(rand.NewSource(seed))
}

func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
