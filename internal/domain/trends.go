package domain

import (
	"fmt"
	"time"
)

// TrendPeriod selects the historical window a trend series covers.
type TrendPeriod string

// Supported trend periods.
const (
	PeriodWeek    TrendPeriod = "week"
	PeriodMonth   TrendPeriod = "month"
	PeriodQuarter TrendPeriod = "quarter"
	PeriodYear    TrendPeriod = "year"
)

// Bucketing returns the date-histogram calendar interval and lookback window
// for the period. ok is false for an unknown period.
func (p TrendPeriod) Bucketing() (interval string, lookback time.Duration, ok bool) {
	const day = 24 * time.Hour
	switch p {
	case PeriodWeek:
		return "day", 7 * day, true
	case PeriodMonth:
		return "day", 30 * day, true
	case PeriodQuarter:
		return "week", 90 * day, true
	case PeriodYear:
		return "month", 365 * day, true
	default:
		return "", 0, false
	}
}

// TrendsRequest selects the slice and period a trend series is computed over.
type TrendsRequest struct {
	Country      string      `json:"country"`
	City         string      `json:"city,omitempty"`
	Period       TrendPeriod `json:"period"`
	PropertyType string      `json:"property_type,omitempty"`
	ListingType  string      `json:"listing_type,omitempty"`
}

// Validate rejects a request without a country or with an unknown period.
func (r *TrendsRequest) Validate() error {
	if r.Country == "" {
		return &ValidationError{Field: "country", Message: "is required"}
	}
	if _, _, ok := r.Period.Bucketing(); !ok {
		return &ValidationError{
			Field:   "period",
			Message: fmt.Sprintf("unknown period %q", string(r.Period)),
		}
	}
	return nil
}

// TrendPoint is one bucket in a trend series. Buckets with no matching
// listings still appear, with zero values, so the series is continuous.
type TrendPoint struct {
	Date         time.Time `json:"date"`
	AveragePrice float64   `json:"average_price"`
	ListingCount int64     `json:"listing_count"`
}

// TrendSeries is a time-bucketed historical series for a market slice.
// ChangePercentage compares the latest bucket against the average of the
// preceding buckets; it is defined as zero when that baseline is zero.
type TrendSeries struct {
	Period           TrendPeriod  `json:"period"`
	Points           []TrendPoint `json:"points"`
	ChangePercentage float64      `json:"change_percentage"`
}
