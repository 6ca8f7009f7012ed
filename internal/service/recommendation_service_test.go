//nolint:testpackage // Testing unexported helpers requires same package access
package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
)

const emptyHitsResponse = `{"hits":{"hits":[]}}`

func testProfile() *domain.UserProfile {
	priceMax := 400000.0
	return &domain.UserProfile{
		UserID: "u1",
		Preferences: domain.UserPreferences{
			PropertyTypes: []string{"apartment"},
			PriceMax:      &priceMax,
		},
		Favorites: []domain.PropertyDocument{
			{
				ID:       "fav1",
				Address:  domain.Address{City: "Berlin", Country: "DE"},
				Features: map[string]bool{"garden": true, "balcony": true},
			},
			{
				ID:       "fav2",
				Address:  domain.Address{City: "Hamburg", Country: "DE"},
				Features: map[string]bool{"garden": true},
			},
		},
		RecentSearches: []domain.SavedSearch{
			{PropertyType: "house", ListingType: "rent", City: "Potsdam"},
		},
	}
}

func newTestRecommendationService(mock *mockESClient, store *mockStore) *RecommendationService {
	return NewRecommendationService(mock, store, testConfig(), logger.NewNop())
}

func TestRecommendationService_FavoritesExcluded(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, emptyHitsResponse),
	}
	svc := newTestRecommendationService(mock, &mockStore{profile: testProfile()})

	_, err := svc.GetRecommendations(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendations() unexpected error: %v", err)
	}

	boolQuery := mock.lastQuery["query"].(map[string]any)["bool"].(map[string]any)
	mustNot, ok := boolQuery["must_not"].([]any)
	if !ok || len(mustNot) != 1 {
		t.Fatalf("must_not = %v, want single ids clause", boolQuery["must_not"])
	}
	ids := mustNot[0].(map[string]any)["ids"].(map[string]any)["values"].([]string)
	if len(ids) != 2 {
		t.Errorf("excluded ids = %v, want both favorites", ids)
	}
}

func TestRecommendationService_QuerySignals(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, emptyHitsResponse),
	}
	svc := newTestRecommendationService(mock, &mockStore{profile: testProfile()})

	_, err := svc.GetRecommendations(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendations() unexpected error: %v", err)
	}

	boolQuery := mock.lastQuery["query"].(map[string]any)["bool"].(map[string]any)

	// Price bound is a hard filter, not a boost.
	filters := boolQuery["filter"].([]any)
	var sawPriceFilter bool
	for _, clause := range filters {
		if _, ok := clause.(map[string]any)["range"]; ok {
			sawPriceFilter = true
		}
	}
	if !sawPriceFilter {
		t.Error("price preference did not become a range filter")
	}

	should := boolQuery["should"].([]any)
	var sawGarden, sawBalcony, sawPotsdam, sawListingType bool
	for _, clause := range should {
		m := clause.(map[string]any)
		if term, ok := m["term"].(map[string]any); ok {
			if _, ok := term["features.garden"]; ok {
				sawGarden = true
			}
			if _, ok := term["features.balcony"]; ok {
				sawBalcony = true
			}
			if city, ok := term["address.city.keyword"].(map[string]any); ok && city["value"] == "Potsdam" {
				sawPotsdam = true
			}
		}
		if terms, ok := m["terms"].(map[string]any); ok {
			if _, ok := terms["listing_type"]; ok {
				sawListingType = true
			}
		}
	}
	// garden appears in 2 of 2 favorites, balcony in 1 of 2. Both meet the
	// inclusive 50% share threshold.
	if !sawGarden {
		t.Error("common feature garden not boosted")
	}
	if !sawBalcony {
		t.Error("feature balcony at exactly the share threshold not boosted")
	}
	if !sawPotsdam {
		t.Error("recent-search city not boosted")
	}
	if !sawListingType {
		t.Error("recent-search listing type not boosted")
	}
}

func TestRecommendationService_RecentListingTypeOnly(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, emptyHitsResponse),
	}
	profile := &domain.UserProfile{
		UserID: "u2",
		RecentSearches: []domain.SavedSearch{
			{ListingType: "rent", City: "Potsdam"},
		},
	}
	svc := newTestRecommendationService(mock, &mockStore{profile: profile})

	if _, err := svc.GetRecommendations(context.Background(), "u2", 10); err != nil {
		t.Fatalf("GetRecommendations() unexpected error: %v", err)
	}

	boolQuery := mock.lastQuery["query"].(map[string]any)["bool"].(map[string]any)
	should, ok := boolQuery["should"].([]any)
	if !ok {
		t.Fatal("should clauses missing")
	}
	var listingTypes []string
	for _, clause := range should {
		if terms, ok := clause.(map[string]any)["terms"].(map[string]any); ok {
			if values, ok := terms["listing_type"].([]string); ok {
				listingTypes = values
			}
		}
	}
	if len(listingTypes) != 1 || listingTypes[0] != "rent" {
		t.Errorf("listing_type boost = %v, want [rent]", listingTypes)
	}
}

func TestRecommendationService_MatchReasonFollowsWeights(t *testing.T) {
	berlinGardenHit := `{
		"hits": {"hits": [
			{
				"_id": "r1",
				"_score": 4.0,
				"_source": {
					"id": "r1",
					"title": "Garden flat in Berlin",
					"property_type": "loft",
					"status": "active",
					"address": {"city": "Berlin", "country": "DE"},
					"features": {"garden": true}
				}
			}
		]}
	}`

	// Default weights rank city above shared features.
	mock := &mockESClient{searchResp: esapiResponse(t, http.StatusOK, berlinGardenHit)}
	svc := newTestRecommendationService(mock, &mockStore{profile: testProfile()})
	recs, err := svc.GetRecommendations(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendations() unexpected error: %v", err)
	}
	if recs[0].MatchReason != reasonFavoriteCity {
		t.Errorf("reason = %q, want %q under default weights", recs[0].MatchReason, reasonFavoriteCity)
	}

	// Inverting the weights must invert the reported reason.
	cfg := testConfig()
	cfg.Recommend.FeatureBoost = 3.0
	cfg.Recommend.CityBoost = 1.0
	mock = &mockESClient{searchResp: esapiResponse(t, http.StatusOK, berlinGardenHit)}
	svc = NewRecommendationService(mock, &mockStore{profile: testProfile()}, cfg, logger.NewNop())
	recs, err = svc.GetRecommendations(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendations() unexpected error: %v", err)
	}
	if recs[0].MatchReason != reasonSharedFeature {
		t.Errorf("reason = %q, want %q with feature weight above city", recs[0].MatchReason, reasonSharedFeature)
	}
}

func TestRecommendationService_LimitBounds(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, emptyHitsResponse),
	}
	svc := newTestRecommendationService(mock, &mockStore{profile: testProfile()})

	if _, err := svc.GetRecommendations(context.Background(), "u1", 0); err != nil {
		t.Fatalf("GetRecommendations() unexpected error: %v", err)
	}
	if mock.lastQuery["size"] != 10 {
		t.Errorf("size = %v, want default 10", mock.lastQuery["size"])
	}

	mock.searchResp = esapiResponse(t, http.StatusOK, emptyHitsResponse)
	if _, err := svc.GetRecommendations(context.Background(), "u1", 500); err != nil {
		t.Fatalf("GetRecommendations() unexpected error: %v", err)
	}
	if mock.lastQuery["size"] != 50 {
		t.Errorf("size = %v, want clamp to 50", mock.lastQuery["size"])
	}
}

func TestRecommendationService_UnknownUser(t *testing.T) {
	mock := &mockESClient{}
	svc := newTestRecommendationService(mock, &mockStore{})

	_, err := svc.GetRecommendations(context.Background(), "ghost", 10)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
	if mock.searches != 0 {
		t.Error("query executed for unknown user")
	}
}

func TestRecommendationService_ParseAndMatchReason(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, `{
			"hits": {"hits": [
				{
					"_id": "r1",
					"_score": 6.2,
					"_source": {
						"id": "r1",
						"title": "Apartment in Berlin",
						"price": 350000,
						"currency": "EUR",
						"property_type": "apartment",
						"listing_type": "sale",
						"status": "active",
						"address": {"city": "Berlin", "country": "DE"},
						"images": [{"url": "main.jpg", "is_main": true}]
					}
				},
				{
					"_id": "r2",
					"_score": 3.0,
					"_source": {
						"id": "r2",
						"title": "Cottage with garden",
						"property_type": "cottage",
						"status": "active",
						"address": {"city": "Leipzig", "country": "DE"},
						"features": {"garden": true}
					}
				},
				{
					"_id": "r3",
					"_score": 1.0,
					"_source": {
						"id": "r3",
						"title": "Plain listing",
						"property_type": "land",
						"status": "active",
						"address": {"city": "Dresden", "country": "DE"}
					}
				}
			]}
		}`),
	}
	svc := newTestRecommendationService(mock, &mockStore{profile: testProfile()})

	recs, err := svc.GetRecommendations(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendations() unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("recommendations = %d, want 3", len(recs))
	}

	// Berlin is a favorite city, the strongest signal even though the
	// property type matches too.
	if recs[0].MatchReason != reasonFavoriteCity {
		t.Errorf("r1 reason = %q, want %q", recs[0].MatchReason, reasonFavoriteCity)
	}
	if recs[0].ImageURL != "main.jpg" {
		t.Errorf("r1 image = %q, want main.jpg", recs[0].ImageURL)
	}
	if recs[1].MatchReason != reasonSharedFeature {
		t.Errorf("r2 reason = %q, want %q", recs[1].MatchReason, reasonSharedFeature)
	}
	if recs[2].MatchReason != reasonPopular {
		t.Errorf("r3 reason = %q, want %q", recs[2].MatchReason, reasonPopular)
	}
}
