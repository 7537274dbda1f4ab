// Package experiment assigns listings to experiment arms and simulates the
// treatment effect on booking rate, price, bookings and revenue.
package experiment

import "math/rand/v2"

// Source yields uniform draws in [0, 1). Every random decision of a run flows
// through one Source, so the run is reproducible from its seed.
type Source interface {
	Float64() float64
}

// DefaultSeed is the seed used when the configuration does not set one.
const DefaultSeed uint64 = 42

// NewSource returns a PCG generator seeded with seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed))
}
