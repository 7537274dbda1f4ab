package listing

import (
	"math"
	"strconv"
	"strings"

	"abprep/internal/schema"
	"abprep/pkg/records"
)

// Defaults are the values substituted for missing numeric fields.
type Defaults struct {
	MinimumNights   int
	NumberOfReviews int
	ReviewsPerMonth float64
	Availability365 int
}

// DefaultImputation returns the standard fill values.
func DefaultImputation() Defaults {
	return Defaults{
		MinimumNights:   1,
		NumberOfReviews: 0,
		ReviewsPerMonth: 0,
		Availability365: 365,
	}
}

var truthy = map[string]struct{}{
	"t": {}, "true": {}, "1": {}, "yes": {}, "y": {},
}

// FromRecords materializes listings in record order, filling missing or
// out-of-domain numeric values from d and deriving price_tier and has_reviews.
// It never drops a record. Records are expected to carry a float64 price.
func FromRecords(recs []records.Record, d Defaults) []*Listing {
	out := make([]*Listing, 0, len(recs))
	for _, r := range recs {
		l := &Listing{
			ID:                text(r, schema.ListingID),
			HostID:            text(r, schema.HostID),
			Name:              text(r, schema.Name),
			Neighborhood:      text(r, schema.Neighborhood),
			NeighborhoodGroup: text(r, schema.NeighborhoodGroup),
			RoomType:          text(r, schema.RoomType),
			Price:             floatField(r, schema.Price, 0),
		}

		l.MinimumNights = count(r, schema.MinimumNights, d.MinimumNights, math.MaxInt)
		l.NumberOfReviews = count(r, schema.NumberOfReviews, d.NumberOfReviews, math.MaxInt)
		l.Availability365 = count(r, schema.Availability365, d.Availability365, 365)
		if rpm := floatField(r, schema.ReviewsPerMonth, d.ReviewsPerMonth); rpm >= 0 {
			l.ReviewsPerMonth = rpm
		} else {
			l.ReviewsPerMonth = d.ReviewsPerMonth
		}
		l.InstantBookable = IsTruthy(r[schema.InstantBookable.String()])

		l.PriceTier = TierFor(l.Price)
		l.HasReviews = l.NumberOfReviews > 0
		out = append(out, l)
	}
	return out
}

// IsTruthy reports whether a raw instant_bookable value means true. Only the
// case-insensitive markers t, true, 1, yes and y count; everything else,
// including missing values, is false.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t == 1
	case float64:
		return t == 1
	case string:
		_, ok := truthy[strings.ToLower(strings.TrimSpace(t))]
		return ok
	}
	return false
}

func text(r records.Record, f schema.Field) string {
	switch t := r[f.String()].(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func number(r records.Record, f schema.Field) (float64, bool) {
	switch t := r[f.String()].(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func floatField(r records.Record, f schema.Field, def float64) float64 {
	if v, ok := number(r, f); ok {
		return v
	}
	return def
}

// count reads a non-negative integer field no larger than limit. Fractional
// values truncate toward zero; anything else falls back to def.
func count(r records.Record, f schema.Field, def, limit int) int {
	v, ok := number(r, f)
	if !ok || v < 0 || v > float64(limit) {
		return def
	}
	return int(v)
}
