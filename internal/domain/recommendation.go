package domain

import "time"

// UserPreferences are the stored, explicit preferences of a user.
type UserPreferences struct {
	PropertyTypes []string `json:"property_types,omitempty"`
	PriceMin      *float64 `json:"price_min,omitempty"`
	PriceMax      *float64 `json:"price_max,omitempty"`
}

// SavedSearch is one of the user's most recent search criteria, newest first.
type SavedSearch struct {
	PropertyType string    `json:"property_type,omitempty"`
	ListingType  string    `json:"listing_type,omitempty"`
	City         string    `json:"city,omitempty"`
	RanAt        time.Time `json:"ran_at"`
}

// UserProfile is the denormalized view of a user consumed by the
// recommendation engine.
type UserProfile struct {
	UserID         string             `json:"user_id"`
	Preferences    UserPreferences    `json:"preferences"`
	Favorites      []PropertyDocument `json:"favorites"`
	RecentSearches []SavedSearch      `json:"recent_searches"`
}

// Recommendation is a ranked, personalized listing suggestion.
type Recommendation struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	PropertyType string  `json:"property_type"`
	ListingType  string  `json:"listing_type"`
	City         string  `json:"city"`
	Country      string  `json:"country"`
	ImageURL     string  `json:"image_url,omitempty"`
	Score        float64 `json:"score"`
	MatchReason  string  `json:"match_reason"`
}
