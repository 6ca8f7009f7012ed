package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/elasticsearch"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/metrics"
)

const (
	suggestMaxSize   = 15
	suggestReturn    = 10
	suggestMinLength = 2
)

// SearchService executes property searches against the document store.
type SearchService struct {
	esClient     SearchESClient
	store        PropertyStore
	queryBuilder *elasticsearch.QueryBuilder
	config       *config.Config
	logger       logger.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(
	esClient SearchESClient,
	store PropertyStore,
	cfg *config.Config,
	log logger.Logger,
) *SearchService {
	return &SearchService{
		esClient:     esClient,
		store:        store,
		queryBuilder: elasticsearch.NewQueryBuilder(cfg.Elasticsearch.TextBoost, cfg.Facets),
		config:       cfg,
		logger:       log,
	}
}

// Search validates the request, executes it, and parses hits and facet
// aggregations into a typed response. Store errors propagate unchanged.
func (s *SearchService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	startTime := time.Now()

	if err := req.Validate(s.config.Service.MaxPageSize, s.config.Service.DefaultPageSize, s.config.Service.MaxQueryLength); err != nil {
		s.logger.Warn("Invalid search request",
			logger.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("Executing search",
		logger.String("query", req.Query),
		logger.Int("page", req.Pagination.Page),
		logger.Int("size", req.Pagination.Size),
	)

	esQuery := s.queryBuilder.Build(req)

	res, err := s.esClient.Search(ctx, s.config.Elasticsearch.PropertyIndex, esQuery)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		s.logger.Error("Search execution failed",
			logger.Error(err),
			logger.String("query", req.Query),
		)
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	response, err := s.parseSearchResponse(res.Body, req)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		s.logger.Error("Failed to parse search response",
			logger.Error(err),
		)
		return nil, err
	}

	response.TookMs = time.Since(startTime).Milliseconds()
	metrics.SearchesTotal.WithLabelValues("ok").Inc()
	metrics.SearchDuration.Observe(time.Since(startTime).Seconds())

	s.logger.Info("Search completed",
		logger.String("query", req.Query),
		logger.Int64("total_hits", response.TotalHits),
		logger.Int64("took_ms", response.TookMs),
	)

	return response, nil
}

// Suggest returns autocomplete suggestions based on title prefix match.
// Failures degrade to an empty suggestion list; suggestions are best-effort.
func (s *SearchService) Suggest(ctx context.Context, q string) (*domain.SuggestResponse, error) {
	q = strings.TrimSpace(q)
	if len(q) < suggestMinLength {
		return &domain.SuggestResponse{Suggestions: []string{}}, nil
	}

	esQuery := map[string]any{
		"size":    suggestMaxSize,
		"_source": []string{"title"},
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"terms": map[string]any{"status": domain.EligibleStatuses()}},
				},
				"must": []any{
					map[string]any{
						"match_phrase_prefix": map[string]any{
							"title": map[string]any{
								"query": q,
								"slop":  0,
							},
						},
					},
				},
			},
		},
	}

	res, err := s.esClient.Search(ctx, s.config.Elasticsearch.PropertyIndex, esQuery)
	if err != nil {
		s.logger.Warn("Suggest execution failed",
			logger.Error(err),
			logger.String("query", q),
		)
		return &domain.SuggestResponse{Suggestions: []string{}}, nil
	}
	defer func() {
		_ = res.Body.Close()
	}()

	suggestions, parseErr := parseSuggestResponse(res.Body)
	if parseErr != nil {
		return &domain.SuggestResponse{Suggestions: []string{}}, nil
	}

	return &domain.SuggestResponse{Suggestions: suggestions}, nil
}

// parseSuggestResponse extracts unique title strings from a minimal search
// response.
func parseSuggestResponse(body io.Reader) ([]string, error) {
	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source struct {
					Title string `json:"title"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("decode suggest response: %w", err)
	}

	seen := make(map[string]struct{}, suggestReturn)
	out := make([]string, 0, suggestReturn)
	for _, hit := range esResponse.Hits.Hits {
		t := strings.TrimSpace(hit.Source.Title)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) >= suggestReturn {
			break
		}
	}
	return out, nil
}

// aggregationBucket represents a single bucket in a terms or range
// aggregation.
type aggregationBucket struct {
	Key      any   `json:"key"`
	DocCount int64 `json:"doc_count"`
}

// aggregation represents an aggregation result. Terms and range aggregations
// carry Buckets; filter aggregations carry a bare DocCount.
type aggregation struct {
	Buckets  []aggregationBucket `json:"buckets"`
	DocCount int64               `json:"doc_count"`
}

// parseSearchResponse parses the Elasticsearch response into typed hits and
// facets.
func (s *SearchService) parseSearchResponse(body io.Reader, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	var esResponse struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string                  `json:"_id"`
				Score  float64                 `json:"_score"`
				Source domain.PropertyDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
		Aggregations map[string]aggregation `json:"aggregations,omitempty"`
	}

	if err := json.NewDecoder(body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode elasticsearch response: %w", err)
	}

	response := &domain.SearchResponse{
		TotalHits:   esResponse.Hits.Total.Value,
		CurrentPage: req.Pagination.Page,
		PageSize:    req.Pagination.Size,
		Hits:        make([]*domain.PropertyHit, 0, len(esResponse.Hits.Hits)),
	}
	response.TotalPages = int(math.Ceil(float64(response.TotalHits) / float64(response.PageSize)))

	for i := range esResponse.Hits.Hits {
		hit := &esResponse.Hits.Hits[i]
		if hit.Source.ID == "" {
			hit.Source.ID = hit.ID
		}
		response.Hits = append(response.Hits, &domain.PropertyHit{
			PropertyDocument: hit.Source,
			Score:            hit.Score,
		})
	}

	if len(esResponse.Aggregations) > 0 {
		response.Facets = s.parseFacets(esResponse.Aggregations)
	}

	return response, nil
}

// parseFacets maps aggregation buckets into keyed facet counts.
func (s *SearchService) parseFacets(aggs map[string]aggregation) *domain.Facets {
	facets := &domain.Facets{
		PropertyTypes: bucketsToFacets(aggs["property_types"]),
		ListingTypes:  bucketsToFacets(aggs["listing_types"]),
		PriceRanges:   bucketsToFacets(aggs["price_ranges"]),
		Cities:        bucketsToFacets(aggs["cities"]),
		Countries:     bucketsToFacets(aggs["countries"]),
		Amenities:     bucketsToFacets(aggs["amenities"]),
		Features:      make(map[string]int64, len(s.config.Facets.TrackedFeatures)),
	}

	for _, feature := range s.config.Facets.TrackedFeatures {
		if agg, ok := aggs["feature_"+feature]; ok {
			facets.Features[feature] = agg.DocCount
		}
	}

	return facets
}

func bucketsToFacets(agg aggregation) []domain.FacetBucket {
	if len(agg.Buckets) == 0 {
		return nil
	}
	out := make([]domain.FacetBucket, 0, len(agg.Buckets))
	for _, bucket := range agg.Buckets {
		out = append(out, domain.FacetBucket{
			Key:   fmt.Sprint(bucket.Key),
			Count: bucket.DocCount,
		})
	}
	return out
}

// HealthStatus reports service health and dependency status.
type HealthStatus struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// HealthCheck checks the health of the service and its dependencies.
func (s *SearchService) HealthCheck(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Version:      s.config.Service.Version,
		Dependencies: make(map[string]string),
	}

	if err := s.esClient.HealthCheck(ctx); err != nil {
		status.Status = "unhealthy"
		status.Dependencies["elasticsearch"] = "unhealthy: " + err.Error()
	} else {
		status.Dependencies["elasticsearch"] = "healthy"
	}

	if err := s.store.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Dependencies["postgres"] = "unhealthy: " + err.Error()
	} else {
		status.Dependencies["postgres"] = "healthy"
	}

	return status
}
