// Package listing holds the typed listing row produced by the imputation stage
// and consumed by the experiment, aggregation and persistence stages.
package listing

// Group is the experiment arm a listing is assigned to.
type Group string

const (
	GroupA Group = "A" // control
	GroupB Group = "B" // treatment
)

// Valid reports whether g is one of the two arms.
func (g Group) Valid() bool { return g == GroupA || g == GroupB }

// PriceTier is the price bucket label.
type PriceTier string

const (
	Budget   PriceTier = "Budget"
	MidRange PriceTier = "Mid-range"
	Premium  PriceTier = "Premium"
	Luxury   PriceTier = "Luxury"
)

// Tiers lists every tier from cheapest to most expensive.
func Tiers() []PriceTier { return []PriceTier{Budget, MidRange, Premium, Luxury} }

// TierFor buckets a price with right-open bins: [0,100) Budget,
// [100,200) Mid-range, [200,500) Premium, [500,inf) Luxury.
func TierFor(price float64) PriceTier {
	switch {
	case price < 100:
		return Budget
	case price < 200:
		return MidRange
	case price < 500:
		return Premium
	default:
		return Luxury
	}
}

// Listing is one cleaned listing. Text fields are "" when the source value was
// missing; numeric fields always hold a value after imputation.
type Listing struct {
	ID                string
	HostID            string
	Name              string
	Neighborhood      string
	NeighborhoodGroup string
	RoomType          string

	Price           float64
	MinimumNights   int
	NumberOfReviews int
	ReviewsPerMonth float64
	Availability365 int
	InstantBookable bool

	PriceTier  PriceTier
	HasReviews bool

	// Set by the experiment stage.
	Group       Group
	BookingRate float64
	Bookings    int
	Revenue     float64
}
