// Package schema defines the canonical listing columns and the mapping from
// source headers onto them.
package schema

// Field enumerates the canonical input columns understood by the pipeline.
type Field int

const (
	ListingID Field = iota
	Name
	HostID
	Neighborhood
	NeighborhoodGroup
	RoomType
	Price
	MinimumNights
	NumberOfReviews
	ReviewsPerMonth
	Availability365
	InstantBookable

	fieldCount
)

var fieldNames = [fieldCount]string{
	ListingID:         "listing_id",
	Name:              "name",
	HostID:            "host_id",
	Neighborhood:      "neighborhood",
	NeighborhoodGroup: "neighborhood_group",
	RoomType:          "room_type",
	Price:             "price",
	MinimumNights:     "minimum_nights",
	NumberOfReviews:   "number_of_reviews",
	ReviewsPerMonth:   "reviews_per_month",
	Availability365:   "availability_365",
	InstantBookable:   "instant_bookable",
}

// String returns the canonical column name.
func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldNames[f]
}

// Valid reports whether f is one of the enumerated fields.
func (f Field) Valid() bool { return f >= 0 && f < fieldCount }

// Fields returns every canonical input field in declaration order.
func Fields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

// Lookup resolves a canonical column name to its Field.
func Lookup(name string) (Field, bool) {
	for f := Field(0); f < fieldCount; f++ {
		if fieldNames[f] == name {
			return f, true
		}
	}
	return 0, false
}

// Mandatory lists the columns whose total absence from the input header is a
// fatal schema error.
func Mandatory() []Field {
	return []Field{ListingID, Price, RoomType}
}

// RequiredPerRow lists the fields a row must carry to survive normalization.
func RequiredPerRow() []Field {
	return []Field{Price, RoomType}
}
