// Package analysis aggregates the experiment output into per-arm metrics,
// relative lifts and the breakdowns used by reporting.
package analysis

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"abprep/internal/listing"
)

// ErrUndefinedLift is returned by Lift when an arm is empty or the control
// mean is zero.
var ErrUndefinedLift = errors.New("analysis: lift undefined")

// Metric selects the per-listing value a lift is computed over.
type Metric int

const (
	BookingRate Metric = iota
	Revenue
	Price
)

func (m Metric) String() string {
	switch m {
	case BookingRate:
		return "booking_rate"
	case Revenue:
		return "revenue"
	case Price:
		return "price"
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// Metrics lists every Metric in report order.
func Metrics() []Metric { return []Metric{BookingRate, Revenue, Price} }

// GroupStats is the per-arm aggregate. Means are zero when Count is zero.
type GroupStats struct {
	Group           listing.Group
	Count           int
	MeanBookingRate float64
	MeanRevenue     float64
	MeanPrice       float64
	MeanBookings    float64
}

func (g GroupStats) mean(m Metric) float64 {
	switch m {
	case BookingRate:
		return g.MeanBookingRate
	case Revenue:
		return g.MeanRevenue
	default:
		return g.MeanPrice
	}
}

// NeighborhoodStats is the listing count and mean revenue of one neighborhood.
type NeighborhoodStats struct {
	Name        string
	Count       int
	MeanRevenue float64
}

// TierStats is the listing count and summed revenue of one price tier.
type TierStats struct {
	Tier    listing.PriceTier
	Count   int
	Revenue float64
}

// RoomTypeStats counts listings of one room type, overall and per arm.
type RoomTypeStats struct {
	RoomType string
	Count    int
	A, B     int
}

// Summary is the full aggregate of one run.
type Summary struct {
	Total        int
	MeanPrice    float64
	MeanBookings float64

	A, B GroupStats

	// Neighborhoods is ranked by mean revenue descending, ties by name.
	// Listings without a neighborhood are not counted.
	Neighborhoods []NeighborhoodStats
	// Tiers holds all four tiers ranked by summed revenue descending.
	Tiers []TierStats
	// RoomTypes is ranked by count descending, ties by name.
	RoomTypes []RoomTypeStats
}

// Summarize aggregates ls. It does not modify the listings.
func Summarize(ls []*listing.Listing) Summary {
	s := Summary{Total: len(ls)}

	var prices, bookings []float64
	arms := map[listing.Group]*armAcc{
		listing.GroupA: {},
		listing.GroupB: {},
	}
	hoods := map[string]*NeighborhoodStats{}
	hoodRevenue := map[string][]float64{}
	tiers := map[listing.PriceTier]*TierStats{}
	tierRevenue := map[listing.PriceTier][]float64{}
	for _, t := range listing.Tiers() {
		tiers[t] = &TierStats{Tier: t}
	}
	rooms := map[string]*RoomTypeStats{}

	for _, l := range ls {
		prices = append(prices, l.Price)
		bookings = append(bookings, float64(l.Bookings))

		if a, ok := arms[l.Group]; ok {
			a.add(l)
		}

		if l.Neighborhood != "" {
			h, ok := hoods[l.Neighborhood]
			if !ok {
				h = &NeighborhoodStats{Name: l.Neighborhood}
				hoods[l.Neighborhood] = h
			}
			h.Count++
			hoodRevenue[l.Neighborhood] = append(hoodRevenue[l.Neighborhood], l.Revenue)
		}

		if ts, ok := tiers[l.PriceTier]; ok {
			ts.Count++
			tierRevenue[l.PriceTier] = append(tierRevenue[l.PriceTier], l.Revenue)
		}

		r, ok := rooms[l.RoomType]
		if !ok {
			r = &RoomTypeStats{RoomType: l.RoomType}
			rooms[l.RoomType] = r
		}
		r.Count++
		switch l.Group {
		case listing.GroupA:
			r.A++
		case listing.GroupB:
			r.B++
		}
	}

	s.MeanPrice = mean(prices)
	s.MeanBookings = mean(bookings)
	s.A = arms[listing.GroupA].stats(listing.GroupA)
	s.B = arms[listing.GroupB].stats(listing.GroupB)

	for name, h := range hoods {
		h.MeanRevenue = mean(hoodRevenue[name])
		s.Neighborhoods = append(s.Neighborhoods, *h)
	}
	sort.Slice(s.Neighborhoods, func(i, j int) bool {
		a, b := s.Neighborhoods[i], s.Neighborhoods[j]
		if a.MeanRevenue != b.MeanRevenue {
			return a.MeanRevenue > b.MeanRevenue
		}
		return a.Name < b.Name
	})

	for _, t := range listing.Tiers() {
		ts := tiers[t]
		if rev := tierRevenue[t]; len(rev) > 0 {
			ts.Revenue = floats.Sum(rev)
		}
		s.Tiers = append(s.Tiers, *ts)
	}
	sort.SliceStable(s.Tiers, func(i, j int) bool { return s.Tiers[i].Revenue > s.Tiers[j].Revenue })

	for _, r := range rooms {
		s.RoomTypes = append(s.RoomTypes, *r)
	}
	sort.Slice(s.RoomTypes, func(i, j int) bool {
		a, b := s.RoomTypes[i], s.RoomTypes[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.RoomType < b.RoomType
	})

	return s
}

// Group returns the aggregate for g.
func (s Summary) Group(g listing.Group) GroupStats {
	if g == listing.GroupB {
		return s.B
	}
	return s.A
}

// Lift returns (mean_B - mean_A) / mean_A * 100 for m. It returns
// ErrUndefinedLift when either arm is empty or mean_A is zero.
func (s Summary) Lift(m Metric) (float64, error) {
	if s.A.Count == 0 || s.B.Count == 0 {
		return 0, fmt.Errorf("%w: %s: empty group (A=%d B=%d)", ErrUndefinedLift, m, s.A.Count, s.B.Count)
	}
	a := s.A.mean(m)
	if a == 0 {
		return 0, fmt.Errorf("%w: %s: control mean is zero", ErrUndefinedLift, m)
	}
	return (s.B.mean(m) - a) / a * 100, nil
}

// TopNeighborhoods returns at most n neighborhoods by mean revenue.
func (s Summary) TopNeighborhoods(n int) []NeighborhoodStats {
	if n < 0 {
		n = 0
	}
	if n > len(s.Neighborhoods) {
		n = len(s.Neighborhoods)
	}
	return s.Neighborhoods[:n]
}

type armAcc struct {
	rates, revenue, prices, bookings []float64
}

func (a *armAcc) add(l *listing.Listing) {
	a.rates = append(a.rates, l.BookingRate)
	a.revenue = append(a.revenue, l.Revenue)
	a.prices = append(a.prices, l.Price)
	a.bookings = append(a.bookings, float64(l.Bookings))
}

func (a *armAcc) stats(g listing.Group) GroupStats {
	return GroupStats{
		Group:           g,
		Count:           len(a.rates),
		MeanBookingRate: mean(a.rates),
		MeanRevenue:     mean(a.revenue),
		MeanPrice:       mean(a.prices),
		MeanBookings:    mean(a.bookings),
	}
}

// mean is stat.Mean with a zero result for an empty sample.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
