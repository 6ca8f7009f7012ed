package domain

import (
	"errors"
	"fmt"
)

// ValidationError describes a malformed search request. It is rejected
// before any query reaches the document store and is recoverable by the
// caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Sort field values accepted by SearchRequest.
const (
	SortRelevance = "relevance"
	SortPrice     = "price"
	SortBedrooms  = "bedrooms"
	SortFloorArea = "floor_area"
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
	SortViewCount = "view_count"
)

// SearchRequest represents a property search query.
type SearchRequest struct {
	Query      string      `json:"query"`
	Filters    *Filters    `json:"filters,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Sort       *Sort       `json:"sort,omitempty"`
}

// Filters holds search filter criteria. All populated filters combine
// conjunctively; multiple values within one enumeration combine as OR.
type Filters struct {
	PropertyTypes []string        `json:"property_types,omitempty"`
	ListingTypes  []string        `json:"listing_types,omitempty"`
	City          string          `json:"city,omitempty"`
	Country       string          `json:"country,omitempty"`
	PriceMin      *float64        `json:"price_min,omitempty"`
	PriceMax      *float64        `json:"price_max,omitempty"`
	BedroomsMin   *int            `json:"bedrooms_min,omitempty"`
	BedroomsMax   *int            `json:"bedrooms_max,omitempty"`
	BathroomsMin  *int            `json:"bathrooms_min,omitempty"`
	BathroomsMax  *int            `json:"bathrooms_max,omitempty"`
	FloorAreaMin  *float64        `json:"floor_area_min,omitempty"`
	FloorAreaMax  *float64        `json:"floor_area_max,omitempty"`
	Center        *GeoPoint       `json:"center,omitempty"`
	RadiusKm      float64         `json:"radius_km,omitempty"`
	Features      map[string]bool `json:"features,omitempty"`
	Amenities     []string        `json:"amenities,omitempty"`
}

// HasGeo reports whether the geo-distance filter is active. It requires both
// a center point and a positive radius; a partial geo filter is ignored.
func (f *Filters) HasGeo() bool {
	return f != nil && f.Center != nil && f.RadiusKm > 0
}

// Pagination holds pagination parameters.
type Pagination struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Sort holds sorting parameters.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order"` // asc, desc
}

// Validate checks the request, fills defaults, and rejects malformed input
// before it reaches the document store.
func (req *SearchRequest) Validate(maxPageSize, defaultPageSize, maxQueryLength int) error {
	if len(req.Query) > maxQueryLength {
		return &ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("length exceeds maximum of %d characters", maxQueryLength),
		}
	}

	if req.Pagination == nil {
		req.Pagination = &Pagination{Page: 1, Size: defaultPageSize}
	} else {
		if req.Pagination.Page < 1 {
			return &ValidationError{Field: "pagination.page", Message: "must be at least 1"}
		}
		if req.Pagination.Size == 0 {
			req.Pagination.Size = defaultPageSize
		}
		if req.Pagination.Size < 1 || req.Pagination.Size > maxPageSize {
			return &ValidationError{
				Field:   "pagination.size",
				Message: fmt.Sprintf("must be between 1 and %d", maxPageSize),
			}
		}
	}

	if req.Filters == nil {
		req.Filters = &Filters{}
	} else if err := req.Filters.validate(); err != nil {
		return err
	}

	// Default sort is most-recently-updated first.
	if req.Sort == nil {
		req.Sort = &Sort{Field: SortUpdatedAt, Order: "desc"}
	} else {
		validFields := map[string]bool{
			SortRelevance: true,
			SortPrice:     true,
			SortBedrooms:  true,
			SortFloorArea: true,
			SortCreatedAt: true,
			SortUpdatedAt: true,
			SortViewCount: true,
		}
		if !validFields[req.Sort.Field] {
			return &ValidationError{
				Field:   "sort.field",
				Message: fmt.Sprintf("unknown field %q", req.Sort.Field),
			}
		}
		if req.Sort.Order != "asc" && req.Sort.Order != "desc" {
			req.Sort.Order = "desc"
		}
	}

	return nil
}

// validate rejects inconsistent range bounds.
func (f *Filters) validate() error {
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return &ValidationError{Field: "filters.price", Message: "min exceeds max"}
	}
	if f.BedroomsMin != nil && f.BedroomsMax != nil && *f.BedroomsMin > *f.BedroomsMax {
		return &ValidationError{Field: "filters.bedrooms", Message: "min exceeds max"}
	}
	if f.BathroomsMin != nil && f.BathroomsMax != nil && *f.BathroomsMin > *f.BathroomsMax {
		return &ValidationError{Field: "filters.bathrooms", Message: "min exceeds max"}
	}
	if f.FloorAreaMin != nil && f.FloorAreaMax != nil && *f.FloorAreaMin > *f.FloorAreaMax {
		return &ValidationError{Field: "filters.floor_area", Message: "min exceeds max"}
	}
	if f.RadiusKm < 0 {
		return &ValidationError{Field: "filters.radius_km", Message: "must not be negative"}
	}
	return nil
}

// SearchResponse represents a paginated search result.
type SearchResponse struct {
	TotalHits   int64          `json:"total_hits"`
	TotalPages  int            `json:"total_pages"`
	CurrentPage int            `json:"current_page"`
	PageSize    int            `json:"page_size"`
	TookMs      int64          `json:"took_ms"`
	Hits        []*PropertyHit `json:"hits"`
	Facets      *Facets        `json:"facets,omitempty"`
}

// PropertyHit is a single search result: the indexed document plus its
// relevance score.
type PropertyHit struct {
	PropertyDocument
	Score float64 `json:"score"`
}

// Facets holds the aggregation buckets attached to every search response to
// drive UI filters.
type Facets struct {
	PropertyTypes []FacetBucket    `json:"property_types,omitempty"`
	ListingTypes  []FacetBucket    `json:"listing_types,omitempty"`
	PriceRanges   []FacetBucket    `json:"price_ranges,omitempty"`
	Cities        []FacetBucket    `json:"cities,omitempty"`
	Countries     []FacetBucket    `json:"countries,omitempty"`
	Amenities     []FacetBucket    `json:"amenities,omitempty"`
	Features      map[string]int64 `json:"features,omitempty"`
}

// FacetBucket represents a single facet bucket.
type FacetBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// SuggestResponse holds autocomplete suggestions.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}
