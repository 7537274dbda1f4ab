package listing

import "abprep/internal/ddl"

// Column names of a persisted listing, in output order.
const (
	ColListingID         = "listing_id"
	ColHostID            = "host_id"
	ColName              = "name"
	ColNeighborhood      = "neighborhood"
	ColNeighborhoodGroup = "neighborhood_group"
	ColRoomType          = "room_type"
	ColPrice             = "price"
	ColMinimumNights     = "minimum_nights"
	ColNumberOfReviews   = "number_of_reviews"
	ColReviewsPerMonth   = "reviews_per_month"
	ColAvailability365   = "availability_365"
	ColInstantBookable   = "instant_bookable"
	ColPriceTier         = "price_tier"
	ColHasReviews        = "has_reviews"
	ColABGroup           = "ab_group"
	ColBookingRate       = "booking_rate"
	ColBookings          = "bookings"
	ColRevenue           = "revenue"
)

var tableColumns = []ddl.ColumnDef{
	{Name: ColListingID, Kind: ddl.KindText, Nullable: true},
	{Name: ColHostID, Kind: ddl.KindText, Nullable: true},
	{Name: ColName, Kind: ddl.KindText, Nullable: true},
	{Name: ColNeighborhood, Kind: ddl.KindText, Nullable: true},
	{Name: ColNeighborhoodGroup, Kind: ddl.KindText, Nullable: true},
	{Name: ColRoomType, Kind: ddl.KindText},
	{Name: ColPrice, Kind: ddl.KindFloat},
	{Name: ColMinimumNights, Kind: ddl.KindInt},
	{Name: ColNumberOfReviews, Kind: ddl.KindInt},
	{Name: ColReviewsPerMonth, Kind: ddl.KindFloat},
	{Name: ColAvailability365, Kind: ddl.KindInt},
	{Name: ColInstantBookable, Kind: ddl.KindBool},
	{Name: ColPriceTier, Kind: ddl.KindText},
	{Name: ColHasReviews, Kind: ddl.KindBool},
	{Name: ColABGroup, Kind: ddl.KindText},
	{Name: ColBookingRate, Kind: ddl.KindFloat},
	{Name: ColBookings, Kind: ddl.KindInt},
	{Name: ColRevenue, Kind: ddl.KindFloat},
}

// Columns returns the output column names in order.
func Columns() []string {
	out := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		out[i] = c.Name
	}
	return out
}

// TableDef returns the relational definition of the listings table named fqn.
// listing_id is not a primary key: a single missing id may survive cleaning.
func TableDef(fqn string) ddl.TableDef {
	cols := make([]ddl.ColumnDef, len(tableColumns))
	copy(cols, tableColumns)
	return ddl.TableDef{FQN: fqn, Columns: cols}
}

// Row returns l's values in Columns order. Missing text becomes nil, integers
// are int64 and flags are bool.
func (l *Listing) Row() []any {
	return []any{
		nullable(l.ID),
		nullable(l.HostID),
		nullable(l.Name),
		nullable(l.Neighborhood),
		nullable(l.NeighborhoodGroup),
		l.RoomType,
		l.Price,
		int64(l.MinimumNights),
		int64(l.NumberOfReviews),
		l.ReviewsPerMonth,
		int64(l.Availability365),
		l.InstantBookable,
		string(l.PriceTier),
		l.HasReviews,
		string(l.Group),
		l.BookingRate,
		int64(l.Bookings),
		l.Revenue,
	}
}

// Rows materializes the snapshot shared by every sink.
func Rows(ls []*Listing) [][]any {
	out := make([][]any, len(ls))
	for i, l := range ls {
		out[i] = l.Row()
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
