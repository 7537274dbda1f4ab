package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abprep/internal/listing"
)

// fixedSource replays a scripted sequence of draws.
type fixedSource struct {
	draws []float64
	n     int
}

func (f *fixedSource) Float64() float64 {
	v := f.draws[f.n]
	f.n++
	return v
}

func sample(prices ...float64) []*listing.Listing {
	out := make([]*listing.Listing, len(prices))
	for i, p := range prices {
		out[i] = &listing.Listing{ID: string(rune('a' + i)), Price: p, Availability365: 365, PriceTier: listing.TierFor(p)}
	}
	return out
}

func TestRunDrawOrderAndTreatment(t *testing.T) {
	t.Parallel()

	ls := sample(100, 100, 200)
	// Arms: A, B, A; then base-rate draws.
	src := &fixedSource{draws: []float64{0.1, 0.7, 0.49, 0.0, 0.5, 0.99}}
	c, err := NewSimulator(DefaultPolicy()).Run(ls, src)
	require.NoError(t, err)
	assert.Equal(t, Counts{A: 2, B: 1}, c)
	assert.Equal(t, 6, src.n, "exactly two draws per listing")

	assert.Equal(t, GroupA, ls[0].Group)
	assert.Equal(t, GroupB, ls[1].Group)
	assert.Equal(t, GroupA, ls[2].Group)

	assert.InDelta(t, 0.10, ls[0].BookingRate, 1e-12)
	assert.InDelta(t, (0.10+0.30*0.5)*1.10, ls[1].BookingRate, 1e-12)
	assert.InDelta(t, 0.10+0.30*0.99, ls[2].BookingRate, 1e-12)

	assert.Equal(t, 100.0, ls[0].Price, "control price untouched")
	assert.InDelta(t, 105.0, ls[1].Price, 1e-9)
	assert.Equal(t, listing.MidRange, ls[1].PriceTier)
}

func TestRunRetiersTreatedPrice(t *testing.T) {
	t.Parallel()

	// 98 -> 102.9, 195 -> 204.75, 480 -> 504: each crosses a tier edge.
	ls := sample(98, 98, 195, 195, 480, 480)
	draws := []float64{0.1, 0.9, 0.1, 0.9, 0.1, 0.9, 0, 0, 0, 0, 0, 0}
	_, err := NewSimulator(DefaultPolicy()).Run(ls, &fixedSource{draws: draws})
	require.NoError(t, err)

	want := []listing.PriceTier{
		listing.Budget, listing.MidRange,
		listing.MidRange, listing.Premium,
		listing.Premium, listing.Luxury,
	}
	for i, l := range ls {
		assert.Equal(t, listing.TierFor(l.Price), l.PriceTier, "listing %s price %v", l.ID, l.Price)
		assert.Equal(t, want[i], l.PriceTier, "listing %s group %s", l.ID, l.Group)
	}
}

func TestRunDerivedIdentities(t *testing.T) {
	t.Parallel()

	ls := sample(50, 80, 90, 120, 250, 600)
	_, err := NewSimulator(DefaultPolicy()).Run(ls, NewSource(DefaultSeed))
	require.NoError(t, err)

	for _, l := range ls {
		require.True(t, l.Group.Valid())
		if l.Group == GroupA {
			assert.GreaterOrEqual(t, l.BookingRate, 0.10)
			assert.Less(t, l.BookingRate, 0.40)
		} else {
			assert.GreaterOrEqual(t, l.BookingRate, 0.11)
			assert.Less(t, l.BookingRate, 0.44+1e-12)
		}
		assert.Equal(t, int(l.BookingRate*float64(l.Availability365)), l.Bookings)
		assert.Equal(t, float64(l.Bookings)*l.Price, l.Revenue)
	}
}

func TestRunReproducible(t *testing.T) {
	t.Parallel()

	a := sample(50, 80, 90, 120, 250, 600, 75, 310)
	b := sample(50, 80, 90, 120, 250, 600, 75, 310)
	_, err := NewSimulator(DefaultPolicy()).Run(a, NewSource(7))
	require.NoError(t, err)
	_, err = NewSimulator(DefaultPolicy()).Run(b, NewSource(7))
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].Group, b[i].Group)
		assert.Equal(t, a[i].BookingRate, b[i].BookingRate)
		assert.Equal(t, a[i].Revenue, b[i].Revenue)
	}
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	src := &fixedSource{}
	c, err := NewSimulator(DefaultPolicy()).Run(nil, src)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, c)
	assert.Zero(t, src.n)
}

func TestBookingsAndRevenueExample(t *testing.T) {
	t.Parallel()

	// availability 365, rate 0.22, price 105
	b := Bookings(0.22, 365)
	assert.Equal(t, 80, b)
	assert.Equal(t, 8400.0, float64(b)*105)
}

func TestPolicyValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultPolicy().Validate())

	bad := DefaultPolicy()
	bad.SplitB = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultPolicy()
	bad.RateHigh = 0.01
	assert.Error(t, bad.Validate())

	bad = DefaultPolicy()
	bad.PriceLift = 0
	_, err := NewSimulator(bad).Run(sample(10), &fixedSource{})
	assert.Error(t, err)
}
