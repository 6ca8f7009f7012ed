//nolint:testpackage // Testing unexported helpers requires same package access
package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
)

const berlinSearchResponse = `{
	"took": 12,
	"hits": {
		"total": {"value": 42},
		"hits": [
			{
				"_id": "9f1a6f1e-7c42-4f3a-9a31-0d2f05c6a001",
				"_score": 7.4,
				"_source": {
					"id": "9f1a6f1e-7c42-4f3a-9a31-0d2f05c6a001",
					"title": "Bright apartment with garden access",
					"price": 320000,
					"currency": "EUR",
					"property_type": "apartment",
					"listing_type": "sale",
					"status": "active",
					"address": {"street": "Kastanienallee 12", "city": "Berlin", "postcode": "10435", "country": "DE"},
					"features": {"garden": true}
				}
			},
			{
				"_id": "2b8c3d4e-5f60-4711-8822-93a4b5c6d002",
				"_score": 5.1,
				"_source": {
					"title": "Family house near Tempelhofer Feld",
					"price": 280000,
					"currency": "EUR",
					"property_type": "house",
					"listing_type": "sale",
					"status": "pending",
					"address": {"street": "Oderstr. 5", "city": "Berlin", "postcode": "12051", "country": "DE"}
				}
			}
		]
	},
	"aggregations": {
		"property_types": {"buckets": [{"key": "apartment", "doc_count": 30}, {"key": "house", "doc_count": 12}]},
		"cities": {"buckets": [{"key": "Berlin", "doc_count": 42}]},
		"price_ranges": {"buckets": [{"key": "250000-500000", "doc_count": 28}]},
		"feature_garden": {"doc_count": 17}
	}
}`

func newTestSearchService(mock *mockESClient, store PropertyStore) *SearchService {
	if store == nil {
		store = &mockStore{}
	}
	return NewSearchService(mock, store, testConfig(), logger.NewNop())
}

func TestSearchService_Search(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, berlinSearchResponse),
	}
	svc := newTestSearchService(mock, nil)

	maxPrice := 350000.0
	req := &domain.SearchRequest{
		Query: "garden",
		Filters: &domain.Filters{
			City:     "Berlin",
			PriceMax: &maxPrice,
		},
		Pagination: &domain.Pagination{Page: 1, Size: 20},
	}

	resp, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}

	if resp.TotalHits != 42 {
		t.Errorf("TotalHits = %d, want 42", resp.TotalHits)
	}
	if resp.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", resp.TotalPages)
	}
	if len(resp.Hits) != 2 {
		t.Fatalf("Hits = %d, want 2", len(resp.Hits))
	}
	if resp.Hits[0].Score != 7.4 {
		t.Errorf("first hit score = %v, want 7.4", resp.Hits[0].Score)
	}
	if resp.Hits[1].ID == "" {
		t.Error("second hit did not fall back to _id")
	}

	if resp.Facets == nil {
		t.Fatal("Facets missing")
	}
	if len(resp.Facets.PropertyTypes) != 2 {
		t.Errorf("property type facets = %d, want 2", len(resp.Facets.PropertyTypes))
	}
	if resp.Facets.Features["garden"] != 17 {
		t.Errorf("garden feature count = %d, want 17", resp.Facets.Features["garden"])
	}

	if mock.lastIndex != "properties" {
		t.Errorf("searched index = %q, want properties", mock.lastIndex)
	}
}

func TestSearchService_Search_InvalidRequestSkipsQuery(t *testing.T) {
	mock := &mockESClient{}
	svc := newTestSearchService(mock, nil)

	req := &domain.SearchRequest{
		Pagination: &domain.Pagination{Page: 0, Size: 20},
	}

	_, err := svc.Search(context.Background(), req)
	if err == nil {
		t.Fatal("Search() accepted invalid pagination")
	}
	if !domain.IsValidationError(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
	if mock.searches != 0 {
		t.Errorf("searches = %d, want 0 for rejected request", mock.searches)
	}
}

func TestSearchService_Search_ESError(t *testing.T) {
	mock := &mockESClient{searchErr: context.DeadlineExceeded}
	svc := newTestSearchService(mock, nil)

	_, err := svc.Search(context.Background(), &domain.SearchRequest{})
	if err == nil {
		t.Fatal("Search() swallowed executor error")
	}
}

func TestSearchService_Search_EmptyResult(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, `{"hits":{"total":{"value":0},"hits":[]}}`),
	}
	svc := newTestSearchService(mock, nil)

	resp, err := svc.Search(context.Background(), &domain.SearchRequest{Query: "nessie lair"})
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if resp.TotalHits != 0 || len(resp.Hits) != 0 || resp.TotalPages != 0 {
		t.Errorf("empty result = %+v, want zeroes", resp)
	}
}

func TestSearchService_Suggest(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, `{
			"hits": {"hits": [
				{"_source": {"title": "Bright apartment"}},
				{"_source": {"title": "Bright apartment"}},
				{"_source": {"title": "Bright attic studio"}},
				{"_source": {"title": "  "}}
			]}
		}`),
	}
	svc := newTestSearchService(mock, nil)

	resp, err := svc.Suggest(context.Background(), "brig")
	if err != nil {
		t.Fatalf("Suggest() unexpected error: %v", err)
	}
	if len(resp.Suggestions) != 2 {
		t.Fatalf("Suggestions = %v, want 2 unique titles", resp.Suggestions)
	}
}

func TestSearchService_Suggest_ShortQuery(t *testing.T) {
	mock := &mockESClient{}
	svc := newTestSearchService(mock, nil)

	resp, err := svc.Suggest(context.Background(), "b")
	if err != nil {
		t.Fatalf("Suggest() unexpected error: %v", err)
	}
	if len(resp.Suggestions) != 0 || mock.searches != 0 {
		t.Error("short query should return empty without querying")
	}
}

func TestSearchService_Suggest_DegradesOnError(t *testing.T) {
	mock := &mockESClient{searchErr: context.DeadlineExceeded}
	svc := newTestSearchService(mock, nil)

	resp, err := svc.Suggest(context.Background(), "bright")
	if err != nil {
		t.Fatalf("Suggest() surfaced error: %v", err)
	}
	if len(resp.Suggestions) != 0 {
		t.Errorf("Suggestions = %v, want empty on failure", resp.Suggestions)
	}
}

func TestSearchService_HealthCheck(t *testing.T) {
	mock := &mockESClient{}
	store := &mockStore{}
	svc := newTestSearchService(mock, store)

	status := svc.HealthCheck(context.Background())
	if status.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", status.Status)
	}

	store.pingErr = context.DeadlineExceeded
	status = svc.HealthCheck(context.Background())
	if status.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy with store down", status.Status)
	}
}
