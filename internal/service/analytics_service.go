package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/elasticsearch"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
)

// Painless scripts for derived per-document metrics. Listings without a
// usable floor area contribute price/1; listings without a publication date
// contribute 0 days on market.
const (
	pricePerAreaScript = "double area = doc['floor_area'].size() == 0 ? 0 : doc['floor_area'].value; " +
		"return doc['price'].value / (area <= 0 ? 1 : area);"
	daysOnMarketScript = "doc['published_at'].size() == 0 ? 0 : " +
		"(params.now - doc['published_at'].value.toInstant().toEpochMilli()) / 86400000.0"
)

// AnalyticsService computes point-in-time market statistics for a location
// slice. All statistics are produced by a single aggregation-only query; no
// documents are fetched.
type AnalyticsService struct {
	esClient SearchESClient
	config   *config.Config
	logger   logger.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(esClient SearchESClient, cfg *config.Config, log logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		esClient: esClient,
		config:   cfg,
		logger:   log,
	}
}

// GetMarketReport computes average, median, price-per-area, days-on-market,
// the price distribution, and the popular-feature ranking for the requested
// slice. An empty slice yields a zero-valued report, not an error.
func (s *AnalyticsService) GetMarketReport(ctx context.Context, req *domain.AnalyticsRequest) (*domain.AnalyticsReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := s.buildAnalyticsQuery(req)

	res, err := s.esClient.Search(ctx, s.config.Elasticsearch.PropertyIndex, query)
	if err != nil {
		s.logger.Error("Analytics query failed",
			logger.Error(err),
			logger.String("country", req.Country),
			logger.String("city", req.City),
		)
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	report, err := s.parseAnalyticsResponse(res.Body, req)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Market report computed",
		logger.String("country", req.Country),
		logger.String("city", req.City),
		logger.Int64("listing_count", report.ListingCount),
	)
	return report, nil
}

// buildAnalyticsQuery builds the aggregation-only query for a slice. The
// eligibility filter is applied unconditionally, matching search behavior.
func (s *AnalyticsService) buildAnalyticsQuery(req *domain.AnalyticsRequest) map[string]any {
	filters := []any{
		map[string]any{"terms": map[string]any{"status": domain.EligibleStatuses()}},
		map[string]any{"term": map[string]any{"address.country.keyword": req.Country}},
	}
	if req.City != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"address.city.keyword": req.City}})
	}
	if req.PropertyType != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"property_type": req.PropertyType}})
	}
	if req.ListingType != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"listing_type": req.ListingType}})
	}

	aggs := map[string]any{
		"avg_price": map[string]any{
			"avg": map[string]any{"field": "price"},
		},
		"median_price": map[string]any{
			"percentiles": map[string]any{
				"field":    "price",
				"percents": []float64{50},
			},
		},
		"price_per_area": map[string]any{
			"avg": map[string]any{
				"script": map[string]any{
					"source": pricePerAreaScript,
				},
			},
		},
		"days_on_market": map[string]any{
			"avg": map[string]any{
				"script": map[string]any{
					"source": daysOnMarketScript,
					"params": map[string]any{"now": time.Now().UnixMilli()},
				},
			},
		},
		"price_distribution": map[string]any{
			"range": map[string]any{
				"field":  "price",
				"ranges": elasticsearch.PriceRanges(s.config.Facets.PriceBands),
			},
		},
	}
	for _, feature := range s.config.Facets.TrackedFeatures {
		aggs["feature_"+feature] = map[string]any{
			"filter": map[string]any{
				"term": map[string]any{"features." + feature: true},
			},
		}
	}

	return map[string]any{
		"size": 0,
		"query": map[string]any{
			"bool": map[string]any{"filter": filters},
		},
		"aggs":             aggs,
		"track_total_hits": true,
	}
}

// metricValue is a single-value metric aggregation result. Value is null when
// the aggregation saw no documents.
type metricValue struct {
	Value *float64 `json:"value"`
}

func (m metricValue) orZero() float64 {
	if m.Value == nil {
		return 0
	}
	return *m.Value
}

// parseAnalyticsResponse maps the aggregation results into a report,
// zero-filling every metric the query produced null for.
func (s *AnalyticsService) parseAnalyticsResponse(body io.Reader, req *domain.AnalyticsRequest) (*domain.AnalyticsReport, error) {
	var esResponse struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
		} `json:"hits"`
		Aggregations map[string]json.RawMessage `json:"aggregations"`
	}
	if err := json.NewDecoder(body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode analytics response: %w", err)
	}

	report := &domain.AnalyticsReport{
		Country:      req.Country,
		City:         req.City,
		ListingCount: esResponse.Hits.Total.Value,
	}

	report.AveragePrice = decodeMetric(esResponse.Aggregations["avg_price"])
	report.PricePerArea = decodeMetric(esResponse.Aggregations["price_per_area"])
	report.AverageDaysOnMarket = decodeMetric(esResponse.Aggregations["days_on_market"])
	report.MedianPrice = decodePercentile(esResponse.Aggregations["median_price"], "50.0")

	if raw, ok := esResponse.Aggregations["price_distribution"]; ok {
		var agg aggregation
		if err := json.Unmarshal(raw, &agg); err != nil {
			return nil, fmt.Errorf("failed to decode price distribution: %w", err)
		}
		report.PriceDistribution = bucketsToFacets(agg)
	}

	report.PopularFeatures = s.parseFeatureCounts(esResponse.Aggregations, report.ListingCount)

	return report, nil
}

func decodeMetric(raw json.RawMessage) float64 {
	if raw == nil {
		return 0
	}
	var m metricValue
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0
	}
	return m.orZero()
}

func decodePercentile(raw json.RawMessage, key string) float64 {
	if raw == nil {
		return 0
	}
	var p struct {
		Values map[string]*float64 `json:"values"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0
	}
	if v, ok := p.Values[key]; ok && v != nil {
		return *v
	}
	return 0
}

// parseFeatureCounts ranks tracked features by prevalence. Percentages are
// relative to the slice listing count; a zero-listing slice yields zero
// percentages.
func (s *AnalyticsService) parseFeatureCounts(aggs map[string]json.RawMessage, total int64) []domain.FeatureCount {
	counts := make([]domain.FeatureCount, 0, len(s.config.Facets.TrackedFeatures))
	for _, feature := range s.config.Facets.TrackedFeatures {
		raw, ok := aggs["feature_"+feature]
		if !ok {
			continue
		}
		var agg aggregation
		if err := json.Unmarshal(raw, &agg); err != nil {
			continue
		}
		fc := domain.FeatureCount{Feature: feature, Count: agg.DocCount}
		if total > 0 {
			fc.Percentage = float64(agg.DocCount) / float64(total) * 100
		}
		counts = append(counts, fc)
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}
