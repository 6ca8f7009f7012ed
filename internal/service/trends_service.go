package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
)

// TrendsService computes time-bucketed price and volume series for a market
// slice. Buckets are anchored on publication date.
type TrendsService struct {
	esClient SearchESClient
	config   *config.Config
	logger   logger.Logger
	now      func() time.Time
}

// NewTrendsService creates a new trends service.
func NewTrendsService(esClient SearchESClient, cfg *config.Config, log logger.Logger) *TrendsService {
	return &TrendsService{
		esClient: esClient,
		config:   cfg,
		logger:   log,
		now:      time.Now,
	}
}

// GetPriceTrends computes the trend series for a slice over the requested
// period. Empty buckets appear with zero values so the series is continuous
// over the whole lookback window.
func (s *TrendsService) GetPriceTrends(ctx context.Context, req *domain.TrendsRequest) (*domain.TrendSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	interval, lookback, _ := req.Period.Bucketing()
	end := s.now().UTC()
	start := end.Add(-lookback)

	query := s.buildTrendsQuery(req, interval, start, end)

	res, err := s.esClient.Search(ctx, s.config.Elasticsearch.PropertyIndex, query)
	if err != nil {
		s.logger.Error("Trends query failed",
			logger.Error(err),
			logger.String("country", req.Country),
			logger.String("period", string(req.Period)),
		)
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	points, err := parseTrendsResponse(res.Body)
	if err != nil {
		return nil, err
	}

	series := &domain.TrendSeries{
		Period:           req.Period,
		Points:           points,
		ChangePercentage: changePercentage(points),
	}

	s.logger.Debug("Trend series computed",
		logger.String("country", req.Country),
		logger.String("period", string(req.Period)),
		logger.Int("points", len(series.Points)),
	)
	return series, nil
}

func (s *TrendsService) buildTrendsQuery(req *domain.TrendsRequest, interval string, start, end time.Time) map[string]any {
	filters := []any{
		map[string]any{"terms": map[string]any{"status": domain.EligibleStatuses()}},
		map[string]any{"term": map[string]any{"address.country.keyword": req.Country}},
		map[string]any{"range": map[string]any{
			"published_at": map[string]any{
				"gte": start.UnixMilli(),
				"lte": end.UnixMilli(),
			},
		}},
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

	return map[string]any{
		"size": 0,
		"query": map[string]any{
			"bool": map[string]any{"filter": filters},
		},
		"aggs": map[string]any{
			"price_over_time": map[string]any{
				"date_histogram": map[string]any{
					"field":             "published_at",
					"calendar_interval": interval,
					"min_doc_count":     0,
					"extended_bounds": map[string]any{
						"min": start.UnixMilli(),
						"max": end.UnixMilli(),
					},
				},
				"aggs": map[string]any{
					"avg_price": map[string]any{
						"avg": map[string]any{"field": "price"},
					},
				},
			},
		},
	}
}

func parseTrendsResponse(body io.Reader) ([]domain.TrendPoint, error) {
	var esResponse struct {
		Aggregations struct {
			PriceOverTime struct {
				Buckets []struct {
					Key      int64       `json:"key"`
					DocCount int64       `json:"doc_count"`
					AvgPrice metricValue `json:"avg_price"`
				} `json:"buckets"`
			} `json:"price_over_time"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode trends response: %w", err)
	}

	buckets := esResponse.Aggregations.PriceOverTime.Buckets
	points := make([]domain.TrendPoint, 0, len(buckets))
	for _, bucket := range buckets {
		points = append(points, domain.TrendPoint{
			Date:         time.UnixMilli(bucket.Key).UTC(),
			AveragePrice: bucket.AvgPrice.orZero(),
			ListingCount: bucket.DocCount,
		})
	}
	return points, nil
}

// changePercentage compares the latest non-empty bucket against the mean
// average price of the earlier non-empty buckets. It is zero when either the
// baseline or the latest bucket is missing.
func changePercentage(points []domain.TrendPoint) float64 {
	latest := -1
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].ListingCount > 0 {
			latest = i
			break
		}
	}
	if latest <= 0 {
		return 0
	}

	var sum float64
	var n int
	for i := 0; i < latest; i++ {
		if points[i].ListingCount > 0 {
			sum += points[i].AveragePrice
			n++
		}
	}
	if n == 0 {
		return 0
	}

	baseline := sum / float64(n)
	if baseline == 0 {
		return 0
	}
	return (points[latest].AveragePrice - baseline) / baseline * 100
}
