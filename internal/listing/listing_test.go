package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abprep/pkg/records"
)

func TestTierFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		price float64
		want  PriceTier
	}{
		{0.01, Budget},
		{50, Budget},
		{99.99, Budget},
		{100, MidRange},
		{199.99, MidRange},
		{200, Premium},
		{499.99, Premium},
		{500, Luxury},
		{10000, Luxury},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TierFor(c.price), "price %v", c.price)
	}
}

func TestFromRecordsImputesDefaults(t *testing.T) {
	t.Parallel()

	recs := []records.Record{
		{
			"listing_id": "1", "room_type": "Private room", "price": 120.0,
			"minimum_nights": nil, "number_of_reviews": nil,
			"reviews_per_month": nil, "availability_365": nil,
		},
		{"listing_id": "2", "room_type": "Entire home/apt", "price": 50.0},
	}
	got := FromRecords(recs, DefaultImputation())
	require.Len(t, got, 2)

	for _, l := range got {
		assert.Equal(t, 1, l.MinimumNights)
		assert.Equal(t, 0, l.NumberOfReviews)
		assert.Equal(t, 0.0, l.ReviewsPerMonth)
		assert.Equal(t, 365, l.Availability365)
		assert.False(t, l.InstantBookable)
		assert.False(t, l.HasReviews)
	}
	assert.Equal(t, MidRange, got[0].PriceTier)
	assert.Equal(t, Budget, got[1].PriceTier)
	assert.Equal(t, "1", got[0].ID)
}

func TestFromRecordsParsesValues(t *testing.T) {
	t.Parallel()

	recs := []records.Record{{
		"listing_id":         "1001",
		"host_id":            "77",
		"name":               "Cozy room",
		"neighborhood":       "Kensington",
		"neighborhood_group": "Brooklyn",
		"room_type":          "Private room",
		"price":              966.0,
		"minimum_nights":     "10",
		"number_of_reviews":  "9.0",
		"reviews_per_month":  "0.21",
		"availability_365":   "286",
		"instant_bookable":   "TRUE",
	}}
	l := FromRecords(recs, DefaultImputation())[0]

	assert.Equal(t, "77", l.HostID)
	assert.Equal(t, "Brooklyn", l.NeighborhoodGroup)
	assert.Equal(t, 10, l.MinimumNights)
	assert.Equal(t, 9, l.NumberOfReviews)
	assert.InDelta(t, 0.21, l.ReviewsPerMonth, 1e-12)
	assert.Equal(t, 286, l.Availability365)
	assert.True(t, l.InstantBookable)
	assert.True(t, l.HasReviews)
	assert.Equal(t, Luxury, l.PriceTier)
}

func TestFromRecordsOutOfDomainIsImputed(t *testing.T) {
	t.Parallel()

	recs := []records.Record{{
		"listing_id": "1", "room_type": "Shared room", "price": 40.0,
		"minimum_nights": "-3", "number_of_reviews": "lots",
		"reviews_per_month": "-1", "availability_365": "400",
	}}
	l := FromRecords(recs, DefaultImputation())[0]

	assert.Equal(t, 1, l.MinimumNights)
	assert.Equal(t, 0, l.NumberOfReviews)
	assert.Equal(t, 0.0, l.ReviewsPerMonth)
	assert.Equal(t, 365, l.Availability365)
}

func TestIsTruthy(t *testing.T) {
	t.Parallel()

	for _, v := range []any{"t", "T", "true", "True", "1", "yes", "Y", " y ", true, 1, 1.0} {
		assert.True(t, IsTruthy(v), "%#v", v)
	}
	for _, v := range []any{"f", "false", "0", "no", "n", "maybe", "", nil, false, 0, 2.0} {
		assert.False(t, IsTruthy(v), "%#v", v)
	}
}

func TestRowsMatchColumns(t *testing.T) {
	t.Parallel()

	l := &Listing{
		ID: "1", RoomType: "Private room", Price: 105,
		MinimumNights: 1, Availability365: 365,
		PriceTier: MidRange, Group: GroupB, BookingRate: 0.22, Bookings: 80, Revenue: 8400,
	}
	rows := Rows([]*Listing{l})
	require.Len(t, rows, 1)
	require.Len(t, rows[0], len(Columns()))

	byName := map[string]any{}
	for i, c := range Columns() {
		byName[c] = rows[0][i]
	}
	assert.Equal(t, "1", byName[ColListingID])
	assert.Nil(t, byName[ColHostID])
	assert.Equal(t, "Mid-range", byName[ColPriceTier])
	assert.Equal(t, "B", byName[ColABGroup])
	assert.Equal(t, int64(80), byName[ColBookings])
	assert.Equal(t, 8400.0, byName[ColRevenue])
	assert.Equal(t, false, byName[ColInstantBookable])
}

func TestTableDef(t *testing.T) {
	t.Parallel()

	def := TableDef("listings")
	assert.Equal(t, "listings", def.FQN)
	assert.Equal(t, Columns(), def.ColumnNames())
	assert.Equal(t, ColListingID, Columns()[0])
	assert.Equal(t, ColRevenue, Columns()[len(Columns())-1])
}
