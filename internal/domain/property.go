// Package domain holds the data model for the property search subsystem.
package domain

import (
	"errors"
	"time"
)

// Sentinel errors for canonical store lookups.
var (
	// ErrPropertyNotFound is returned when no canonical property exists for an id.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrUserNotFound is returned when no user profile exists for an id.
	ErrUserNotFound = errors.New("user not found")
)

// Property status values. Only eligible statuses are ever present in the
// search index.
const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusSold     = "sold"
	StatusArchived = "archived"
)

// EligibleStatuses returns the property statuses that qualify for indexing
// and search.
func EligibleStatuses() []string {
	return []string{StatusActive, StatusPending}
}

// IsEligible reports whether a property in the given status belongs in the
// search index.
func IsEligible(status string) bool {
	return status == StatusActive || status == StatusPending
}

// PropertyDocument is the flattened, denormalized view of a canonical
// property as stored in the search index. Its ID equals the canonical
// property id and is never reused for a different entity.
type PropertyDocument struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        float64         `json:"price"`
	Currency     string          `json:"currency"`
	PropertyType string          `json:"property_type"`
	ListingType  string          `json:"listing_type"`
	Status       string          `json:"status"`
	Bedrooms     *int            `json:"bedrooms,omitempty"`
	Bathrooms    *int            `json:"bathrooms,omitempty"`
	FloorArea    *float64        `json:"floor_area,omitempty"`
	Address      Address         `json:"address"`
	Location     *GeoPoint       `json:"location,omitempty"`
	Features     map[string]bool `json:"features,omitempty"`
	Amenities    []string        `json:"amenities,omitempty"`
	Images       []Image         `json:"images,omitempty"`
	Owner        OwnerSummary    `json:"owner"`
	ViewCount    int64           `json:"view_count"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	PublishedAt  *time.Time      `json:"published_at,omitempty"`
}

// Address is the structured postal address of a property.
type Address struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	County   string `json:"county,omitempty"`
	Country  string `json:"country"`
}

// GeoPoint is a WGS84 coordinate, serialized in the lat/lon object form the
// index engine expects for geo_point fields.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Image is a property photo. Images are ordered; exactly one carries IsMain.
type Image struct {
	URL    string `json:"url"`
	IsMain bool   `json:"is_main"`
}

// OwnerSummary is the denormalized owner snippet carried on each document.
type OwnerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MainImage returns the URL of the image flagged as main, or the first image
// if none carries the flag, or "" when the property has no images.
func (p *PropertyDocument) MainImage() string {
	for _, img := range p.Images {
		if img.IsMain {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}
