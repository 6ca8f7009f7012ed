package elasticsearch

import (
	"fmt"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
)

// QueryBuilder builds Elasticsearch queries from property search requests.
type QueryBuilder struct {
	boost  config.BoostConfig
	facets config.FacetsConfig
}

// NewQueryBuilder creates a new query builder.
func NewQueryBuilder(boost config.BoostConfig, facets config.FacetsConfig) *QueryBuilder {
	return &QueryBuilder{
		boost:  boost,
		facets: facets,
	}
}

// Build constructs the complete Elasticsearch query. Facet aggregations are
// always attached.
func (qb *QueryBuilder) Build(req *domain.SearchRequest) map[string]any {
	return map[string]any{
		"query":            qb.buildBoolQuery(req),
		"from":             (req.Pagination.Page - 1) * req.Pagination.Size,
		"size":             req.Pagination.Size,
		"sort":             qb.buildSort(req.Sort),
		"aggs":             qb.BuildAggregations(),
		"track_total_hits": true,
	}
}

// buildBoolQuery constructs the bool query with must, filter, and should
// clauses. The eligibility filter is always present.
func (qb *QueryBuilder) buildBoolQuery(req *domain.SearchRequest) map[string]any {
	boolQuery := map[string]any{
		"filter": qb.buildFilters(req.Filters),
	}

	if req.Query != "" {
		boolQuery["must"] = []any{qb.buildMultiMatchQuery(req.Query)}
		// Lift well-viewed listings within equally relevant text matches.
		boolQuery["should"] = []any{viewCountBoost()}
	}

	return map[string]any{"bool": boolQuery}
}

// buildMultiMatchQuery creates a weighted fuzzy multi-match over title,
// description, and address fields.
func (qb *QueryBuilder) buildMultiMatchQuery(query string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query": query,
			"fields": []string{
				fmt.Sprintf("title^%.1f", qb.boost.Title),
				fmt.Sprintf("description^%.1f", qb.boost.Description),
				fmt.Sprintf("address.street^%.1f", qb.boost.Address),
				fmt.Sprintf("address.city^%.1f", qb.boost.Address),
				fmt.Sprintf("address.postcode^%.1f", qb.boost.Address),
			},
			"type":      "best_fields",
			"operator":  "or",
			"fuzziness": "AUTO",
		},
	}
}

// viewCountBoost returns a function_score should clause rewarding listings
// with many views, matching the log1p quality boost used elsewhere.
func viewCountBoost() map[string]any {
	return map[string]any{
		"function_score": map[string]any{
			"field_value_factor": map[string]any{
				"field":    "view_count",
				"factor":   0.05,
				"modifier": "log1p",
				"missing":  0,
			},
		},
	}
}

// buildFilters constructs filter clauses. The mandatory eligibility filter
// comes first; everything else is conjunctive.
func (qb *QueryBuilder) buildFilters(filters *domain.Filters) []any {
	result := []any{
		map[string]any{
			"terms": map[string]any{"status": domain.EligibleStatuses()},
		},
	}

	if filters == nil {
		return result
	}

	if len(filters.PropertyTypes) > 0 {
		result = append(result, map[string]any{
			"terms": map[string]any{"property_type": filters.PropertyTypes},
		})
	}
	if len(filters.ListingTypes) > 0 {
		result = append(result, map[string]any{
			"terms": map[string]any{"listing_type": filters.ListingTypes},
		})
	}
	if filters.City != "" {
		result = append(result, map[string]any{
			"term": map[string]any{"address.city.keyword": filters.City},
		})
	}
	if filters.Country != "" {
		result = append(result, map[string]any{
			"term": map[string]any{"address.country.keyword": filters.Country},
		})
	}

	if r := rangeClause(filters.PriceMin, filters.PriceMax); r != nil {
		result = append(result, map[string]any{"range": map[string]any{"price": r}})
	}
	if r := intRangeClause(filters.BedroomsMin, filters.BedroomsMax); r != nil {
		result = append(result, map[string]any{"range": map[string]any{"bedrooms": r}})
	}
	if r := intRangeClause(filters.BathroomsMin, filters.BathroomsMax); r != nil {
		result = append(result, map[string]any{"range": map[string]any{"bathrooms": r}})
	}
	if r := rangeClause(filters.FloorAreaMin, filters.FloorAreaMax); r != nil {
		result = append(result, map[string]any{"range": map[string]any{"floor_area": r}})
	}

	if filters.HasGeo() {
		result = append(result, map[string]any{
			"geo_distance": map[string]any{
				"distance": fmt.Sprintf("%gkm", filters.RadiusKm),
				"location": map[string]any{
					"lat": filters.Center.Lat,
					"lon": filters.Center.Lon,
				},
			},
		})
	}

	for name, value := range filters.Features {
		result = append(result, map[string]any{
			"term": map[string]any{"features." + name: value},
		})
	}
	if len(filters.Amenities) > 0 {
		// Each requested amenity must be present.
		for _, amenity := range filters.Amenities {
			result = append(result, map[string]any{
				"term": map[string]any{"amenities": amenity},
			})
		}
	}

	return result
}

// rangeClause builds an inclusive range body; nil when both bounds are absent.
func rangeClause(minVal, maxVal *float64) map[string]any {
	if minVal == nil && maxVal == nil {
		return nil
	}
	r := map[string]any{}
	if minVal != nil {
		r["gte"] = *minVal
	}
	if maxVal != nil {
		r["lte"] = *maxVal
	}
	return r
}

func intRangeClause(minVal, maxVal *int) map[string]any {
	if minVal == nil && maxVal == nil {
		return nil
	}
	r := map[string]any{}
	if minVal != nil {
		r["gte"] = *minVal
	}
	if maxVal != nil {
		r["lte"] = *maxVal
	}
	return r
}

// buildSort constructs sort criteria. Relevance sorts purely by score;
// field sorts carry a secondary score tiebreak.
func (qb *QueryBuilder) buildSort(sort *domain.Sort) []any {
	if sort.Field == domain.SortRelevance {
		return []any{
			map[string]any{"_score": map[string]any{"order": sort.Order}},
		}
	}

	return []any{
		map[string]any{sort.Field: map[string]any{"order": sort.Order}},
		map[string]any{"_score": map[string]any{"order": "desc"}},
	}
}

// BuildAggregations constructs the facet aggregations attached to every
// search: enumeration term counts, the fixed-edge price histogram, capped
// top-N city/country/amenity buckets, and per-feature boolean counts.
func (qb *QueryBuilder) BuildAggregations() map[string]any {
	aggs := map[string]any{
		"property_types": map[string]any{
			"terms": map[string]any{
				"field": "property_type",
				"size":  qb.facets.TermSize,
			},
		},
		"listing_types": map[string]any{
			"terms": map[string]any{
				"field": "listing_type",
				"size":  qb.facets.TermSize,
			},
		},
		"price_ranges": map[string]any{
			"range": map[string]any{
				"field":  "price",
				"ranges": PriceRanges(qb.facets.PriceBands),
			},
		},
		"cities": map[string]any{
			"terms": map[string]any{
				"field": "address.city.keyword",
				"size":  qb.facets.TermSize,
			},
		},
		"countries": map[string]any{
			"terms": map[string]any{
				"field": "address.country.keyword",
				"size":  qb.facets.TermSize,
			},
		},
		"amenities": map[string]any{
			"terms": map[string]any{
				"field": "amenities",
				"size":  qb.facets.TermSize,
			},
		},
	}

	for _, feature := range qb.facets.TrackedFeatures {
		aggs["feature_"+feature] = map[string]any{
			"filter": map[string]any{
				"term": map[string]any{"features." + feature: true},
			},
		}
	}

	return aggs
}

// PriceRanges converts the configured histogram edges into keyed range-agg
// buckets: one open bucket below the first edge, one above the last, and
// half-open buckets between consecutive edges.
func PriceRanges(bands []float64) []map[string]any {
	ranges := make([]map[string]any, 0, len(bands)+1)
	for i, edge := range bands {
		r := map[string]any{"to": edge}
		if i == 0 {
			r["key"] = fmt.Sprintf("0-%.0f", edge)
		} else {
			r["from"] = bands[i-1]
			r["key"] = fmt.Sprintf("%.0f-%.0f", bands[i-1], edge)
		}
		ranges = append(ranges, r)
	}
	if len(bands) > 0 {
		last := bands[len(bands)-1]
		ranges = append(ranges, map[string]any{
			"from": last,
			"key":  fmt.Sprintf("%.0f+", last),
		})
	}
	return ranges
}
