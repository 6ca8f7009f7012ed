package domain

// AnalyticsRequest selects the market slice an analytics report is computed
// over. Country is required; the remaining dimensions are optional.
type AnalyticsRequest struct {
	Country      string `json:"country"`
	City         string `json:"city,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	ListingType  string `json:"listing_type,omitempty"`
}

// Validate rejects a request without a country.
func (r *AnalyticsRequest) Validate() error {
	if r.Country == "" {
		return &ValidationError{Field: "country", Message: "is required"}
	}
	return nil
}

// AnalyticsReport is a point-in-time market statistics snapshot for a slice.
// All numeric fields are zero-valued when the slice matches no listings.
type AnalyticsReport struct {
	Country             string         `json:"country"`
	City                string         `json:"city,omitempty"`
	AveragePrice        float64        `json:"average_price"`
	MedianPrice         float64        `json:"median_price"`
	PricePerArea        float64        `json:"price_per_area"`
	ListingCount        int64          `json:"listing_count"`
	AverageDaysOnMarket float64        `json:"average_days_on_market"`
	PriceDistribution   []FacetBucket  `json:"price_distribution"`
	PopularFeatures     []FeatureCount `json:"popular_features"`
}

// FeatureCount is one entry in the popular-feature ranking.
type FeatureCount struct {
	Feature    string  `json:"feature"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}
