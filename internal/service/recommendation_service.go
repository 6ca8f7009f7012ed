package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/metrics"
)

// Match reasons reported to clients.
const (
	reasonFavoriteCity  = "in a city you favorited"
	reasonPreferredType = "matches your preferred property type"
	reasonRecentSearch  = "similar to your recent searches"
	reasonSharedFeature = "has features you like"
	reasonPopular       = "popular listing"
)

// RecommendationService produces personalized listing suggestions from a
// user's preferences, favorites, and recent searches. Already-favorited
// listings are hard-excluded; taste signals only boost, never filter.
type RecommendationService struct {
	esClient SearchESClient
	store    PropertyStore
	config   *config.Config
	logger   logger.Logger
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(esClient SearchESClient, store PropertyStore, cfg *config.Config, log logger.Logger) *RecommendationService {
	return &RecommendationService{
		esClient: esClient,
		store:    store,
		config:   cfg,
		logger:   log,
	}
}

// profileSignals is the flattened taste profile a query and its match
// reasons are derived from.
type profileSignals struct {
	favoriteIDs        []string
	typePrefs          map[string]bool
	commonFeatures     map[string]bool
	favoriteCities     map[string]bool
	searchTypes        map[string]bool
	searchListingTypes map[string]bool
	searchCities       map[string]bool
	priceMin           *float64
	priceMax           *float64
}

// GetRecommendations returns up to limit ranked suggestions for a user. A
// non-positive limit falls back to the configured default; limits above the
// configured maximum are clamped.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID string, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 {
		limit = s.config.Recommend.DefaultLimit
	}
	if limit > s.config.Recommend.MaxLimit {
		limit = s.config.Recommend.MaxLimit
	}

	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	signals := s.extractSignals(profile)
	query := s.buildRecommendationQuery(signals, limit)

	res, err := s.esClient.Search(ctx, s.config.Elasticsearch.PropertyIndex, query)
	if err != nil {
		s.logger.Error("Recommendation query failed",
			logger.Error(err),
			logger.String("user_id", userID),
		)
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	recommendations, err := s.parseRecommendationResponse(res.Body, signals)
	if err != nil {
		return nil, err
	}

	metrics.RecommendationsServed.Inc()
	s.logger.Info("Recommendations served",
		logger.String("user_id", userID),
		logger.Int("count", len(recommendations)),
	)
	return recommendations, nil
}

// extractSignals flattens a profile into query signals. Features shared by at
// least the configured share of favorites count as common; recent searches
// are considered newest-first up to the configured cap.
func (s *RecommendationService) extractSignals(profile *domain.UserProfile) *profileSignals {
	signals := &profileSignals{
		favoriteIDs:        make([]string, 0, len(profile.Favorites)),
		typePrefs:          make(map[string]bool),
		commonFeatures:     make(map[string]bool),
		favoriteCities:     make(map[string]bool),
		searchTypes:        make(map[string]bool),
		searchListingTypes: make(map[string]bool),
		searchCities:       make(map[string]bool),
		priceMin:           profile.Preferences.PriceMin,
		priceMax:           profile.Preferences.PriceMax,
	}

	for _, t := range profile.Preferences.PropertyTypes {
		signals.typePrefs[t] = true
	}

	featureHits := make(map[string]int)
	for i := range profile.Favorites {
		fav := &profile.Favorites[i]
		signals.favoriteIDs = append(signals.favoriteIDs, fav.ID)
		if fav.Address.City != "" {
			signals.favoriteCities[fav.Address.City] = true
		}
		for feature, present := range fav.Features {
			if present {
				featureHits[feature]++
			}
		}
	}
	if n := len(profile.Favorites); n > 0 {
		threshold := s.config.Recommend.FeatureShare * float64(n)
		for feature, hits := range featureHits {
			if float64(hits) >= threshold {
				signals.commonFeatures[feature] = true
			}
		}
	}

	searches := profile.RecentSearches
	if n := s.config.Recommend.MaxRecentSearches; len(searches) > n {
		searches = searches[:n]
	}
	for _, search := range searches {
		if search.PropertyType != "" {
			signals.searchTypes[search.PropertyType] = true
		}
		if search.ListingType != "" {
			signals.searchListingTypes[search.ListingType] = true
		}
		if search.City != "" {
			signals.searchCities[search.City] = true
		}
	}

	return signals
}

// buildRecommendationQuery assembles the taste query. Eligibility and the
// user's price bounds filter; everything else contributes should clauses so a
// sparse profile still returns results.
func (s *RecommendationService) buildRecommendationQuery(signals *profileSignals, limit int) map[string]any {
	boolQuery := map[string]any{
		"filter": []any{
			map[string]any{"terms": map[string]any{"status": domain.EligibleStatuses()}},
		},
	}

	if signals.priceMin != nil || signals.priceMax != nil {
		bounds := map[string]any{}
		if signals.priceMin != nil {
			bounds["gte"] = *signals.priceMin
		}
		if signals.priceMax != nil {
			bounds["lte"] = *signals.priceMax
		}
		boolQuery["filter"] = append(boolQuery["filter"].([]any),
			map[string]any{"range": map[string]any{"price": bounds}})
	}

	if len(signals.favoriteIDs) > 0 {
		boolQuery["must_not"] = []any{
			map[string]any{"ids": map[string]any{"values": signals.favoriteIDs}},
		}
	}

	cfg := s.config.Recommend
	should := []any{}
	if len(signals.typePrefs) > 0 {
		should = append(should, map[string]any{
			"terms": map[string]any{
				"property_type": sortedKeys(signals.typePrefs),
				"boost":         cfg.TypeBoost,
			},
		})
	}
	for _, feature := range sortedKeys(signals.commonFeatures) {
		should = append(should, map[string]any{
			"term": map[string]any{
				"features." + feature: map[string]any{
					"value": true,
					"boost": cfg.FeatureBoost,
				},
			},
		})
	}
	for _, city := range sortedKeys(mergeSets(signals.favoriteCities, signals.searchCities)) {
		should = append(should, map[string]any{
			"term": map[string]any{
				"address.city.keyword": map[string]any{
					"value": city,
					"boost": cfg.CityBoost,
				},
			},
		})
	}
	if searchTypes := subtractSet(signals.searchTypes, signals.typePrefs); len(searchTypes) > 0 {
		should = append(should, map[string]any{
			"terms": map[string]any{
				"property_type": sortedKeys(searchTypes),
				"boost":         cfg.SearchBoost,
			},
		})
	}
	if len(signals.searchListingTypes) > 0 {
		should = append(should, map[string]any{
			"terms": map[string]any{
				"listing_type": sortedKeys(signals.searchListingTypes),
				"boost":        cfg.SearchBoost,
			},
		})
	}
	if len(should) > 0 {
		boolQuery["should"] = should
	}

	return map[string]any{
		"size":  limit,
		"query": map[string]any{"bool": boolQuery},
		"sort": []any{
			map[string]any{"_score": map[string]any{"order": "desc"}},
			map[string]any{"view_count": map[string]any{"order": "desc"}},
		},
	}
}

func (s *RecommendationService) parseRecommendationResponse(body io.Reader, signals *profileSignals) ([]domain.Recommendation, error) {
	var esResponse struct {
		Hits struct {
			Hits []struct {
				ID     string                  `json:"_id"`
				Score  float64                 `json:"_score"`
				Source domain.PropertyDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation response: %w", err)
	}

	recommendations := make([]domain.Recommendation, 0, len(esResponse.Hits.Hits))
	for i := range esResponse.Hits.Hits {
		hit := &esResponse.Hits.Hits[i]
		doc := &hit.Source
		if doc.ID == "" {
			doc.ID = hit.ID
		}
		recommendations = append(recommendations, domain.Recommendation{
			ID:           doc.ID,
			Title:        doc.Title,
			Price:        doc.Price,
			Currency:     doc.Currency,
			PropertyType: doc.PropertyType,
			ListingType:  doc.ListingType,
			City:         doc.Address.City,
			Country:      doc.Address.Country,
			ImageURL:     doc.MainImage(),
			Score:        hit.Score,
			MatchReason:  s.matchReason(doc, signals),
		})
	}
	return recommendations, nil
}

// matchReason names the strongest profile signal the listing matched. The
// evaluation order follows the configured boost weights so the reported
// reason tracks whatever weighting an operator has chosen.
func (s *RecommendationService) matchReason(doc *domain.PropertyDocument, signals *profileSignals) string {
	cfg := s.config.Recommend
	candidates := []struct {
		weight  float64
		reason  string
		matched bool
	}{
		{
			weight:  cfg.CityBoost,
			reason:  reasonFavoriteCity,
			matched: signals.favoriteCities[doc.Address.City] || signals.searchCities[doc.Address.City],
		},
		{
			weight:  cfg.TypeBoost,
			reason:  reasonPreferredType,
			matched: signals.typePrefs[doc.PropertyType],
		},
		{
			weight:  cfg.SearchBoost,
			reason:  reasonRecentSearch,
			matched: signals.searchTypes[doc.PropertyType] || signals.searchListingTypes[doc.ListingType],
		},
		{
			weight:  cfg.FeatureBoost,
			reason:  reasonSharedFeature,
			matched: hasSharedFeature(doc, signals),
		},
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].weight > candidates[j].weight
	})
	for _, c := range candidates {
		if c.matched {
			return c.reason
		}
	}
	return reasonPopular
}

func hasSharedFeature(doc *domain.PropertyDocument, signals *profileSignals) bool {
	for feature, present := range doc.Features {
		if present && signals.commonFeatures[feature] {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mergeSets(sets ...map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for _, set := range sets {
		for k := range set {
			out[k] = true
		}
	}
	return out
}

func subtractSet(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a))
	for k := range a {
		if !b[k] {
			out[k] = true
		}
	}
	return out
}
