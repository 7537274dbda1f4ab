package experiment

import (
	"fmt"
	"log"

	"abprep/internal/listing"
)

// Group is the experiment arm.
type Group = listing.Group

const (
	GroupA = listing.GroupA
	GroupB = listing.GroupB
)

// Policy holds the fixed simulation parameters.
type Policy struct {
	Seed      uint64
	SplitB    float64 // probability of arm B
	RateLow   float64 // baseline booking rate lower bound (inclusive)
	RateHigh  float64 // baseline booking rate upper bound (exclusive)
	RateLift  float64 // booking rate multiplier for B
	PriceLift float64 // price multiplier for B
}

// DefaultPolicy is the 50/50 split with a +10% booking rate and +5% price
// treatment.
func DefaultPolicy() Policy {
	return Policy{
		Seed:      DefaultSeed,
		SplitB:    0.5,
		RateLow:   0.10,
		RateHigh:  0.40,
		RateLift:  1.10,
		PriceLift: 1.05,
	}
}

// Validate checks the parameters are usable.
func (p Policy) Validate() error {
	switch {
	case p.SplitB < 0 || p.SplitB > 1:
		return fmt.Errorf("experiment: split %v out of [0,1]", p.SplitB)
	case p.RateLow < 0 || p.RateHigh < p.RateLow:
		return fmt.Errorf("experiment: invalid rate range [%v, %v)", p.RateLow, p.RateHigh)
	case p.RateLift <= 0 || p.PriceLift <= 0:
		return fmt.Errorf("experiment: lifts must be positive (rate=%v price=%v)", p.RateLift, p.PriceLift)
	}
	return nil
}

// Counts is the number of listings per arm.
type Counts struct {
	A, B int
}

// Simulator applies a Policy to a slice of listings.
type Simulator struct {
	Policy Policy
}

// NewSimulator returns a Simulator for p.
func NewSimulator(p Policy) *Simulator { return &Simulator{Policy: p} }

// Run assigns every listing to an arm and derives booking_rate, bookings and
// revenue in place, using src for every draw.
//
// Draw order is fixed: first one draw per listing in row order for the arm
// (u < 1-SplitB is A), then one draw per listing in row order for the base
// booking rate. An empty slice consumes no draws. Treated listings are
// re-tiered on their uplifted price.
func (s *Simulator) Run(ls []*listing.Listing, src Source) (Counts, error) {
	if err := s.Policy.Validate(); err != nil {
		return Counts{}, err
	}
	if len(ls) == 0 {
		return Counts{}, nil
	}
	p := s.Policy

	var c Counts
	cutA := 1 - p.SplitB
	for _, l := range ls {
		if src.Float64() < cutA {
			l.Group = GroupA
			c.A++
		} else {
			l.Group = GroupB
			c.B++
		}
	}

	span := p.RateHigh - p.RateLow
	for _, l := range ls {
		l.BookingRate = p.RateLow + span*src.Float64()
	}

	for _, l := range ls {
		if l.Group == GroupB {
			l.BookingRate *= p.RateLift
			l.Price *= p.PriceLift
			l.PriceTier = listing.TierFor(l.Price)
		}
		l.Bookings = Bookings(l.BookingRate, l.Availability365)
		l.Revenue = float64(l.Bookings) * l.Price
	}

	log.Printf("experiment: assigned group A (control)=%d group B (treatment)=%d seed=%d", c.A, c.B, p.Seed)
	return c, nil
}

// Bookings is floor(rate * availability) for non-negative inputs.
func Bookings(rate float64, availability int) int {
	return int(rate * float64(availability))
}
