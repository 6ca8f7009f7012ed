//nolint:testpackage // Testing unexported helpers requires same package access
package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
)

const berlinTrendsResponse = `{
	"aggregations": {
		"price_over_time": {
			"buckets": [
				{"key": 1755475200000, "doc_count": 3, "avg_price": {"value": 300000}},
				{"key": 1755561600000, "doc_count": 0, "avg_price": {"value": null}},
				{"key": 1755648000000, "doc_count": 5, "avg_price": {"value": 320000}},
				{"key": 1755734400000, "doc_count": 4, "avg_price": {"value": 341000}}
			]
		}
	}
}`

func newTestTrendsService(mock *mockESClient) *TrendsService {
	svc := NewTrendsService(mock, testConfig(), logger.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, time.August, 22, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestTrendsService_GetPriceTrends(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, berlinTrendsResponse),
	}
	svc := newTestTrendsService(mock)

	series, err := svc.GetPriceTrends(context.Background(), &domain.TrendsRequest{
		Country: "DE",
		City:    "Berlin",
		Period:  domain.PeriodWeek,
	})
	if err != nil {
		t.Fatalf("GetPriceTrends() unexpected error: %v", err)
	}

	if series.Period != domain.PeriodWeek {
		t.Errorf("Period = %q, want week", series.Period)
	}
	if len(series.Points) != 4 {
		t.Fatalf("Points = %d, want 4", len(series.Points))
	}

	// Empty bucket stays in the series, zero-valued.
	if series.Points[1].ListingCount != 0 || series.Points[1].AveragePrice != 0 {
		t.Errorf("empty bucket = %+v, want zeroes", series.Points[1])
	}

	// Latest bucket (341000) against the mean of the earlier non-empty
	// buckets ((300000+320000)/2 = 310000) is a 10% rise.
	if got := series.ChangePercentage; got < 9.99 || got > 10.01 {
		t.Errorf("ChangePercentage = %v, want 10", got)
	}
}

func TestTrendsService_GetPriceTrends_QueryShape(t *testing.T) {
	mock := &mockESClient{
		searchResp: esapiResponse(t, http.StatusOK, `{"aggregations":{"price_over_time":{"buckets":[]}}}`),
	}
	svc := newTestTrendsService(mock)

	_, err := svc.GetPriceTrends(context.Background(), &domain.TrendsRequest{
		Country: "DE",
		Period:  domain.PeriodYear,
	})
	if err != nil {
		t.Fatalf("GetPriceTrends() unexpected error: %v", err)
	}

	aggs := mock.lastQuery["aggs"].(map[string]any)
	hist := aggs["price_over_time"].(map[string]any)["date_histogram"].(map[string]any)
	if hist["calendar_interval"] != "month" {
		t.Errorf("calendar_interval = %v, want month for year period", hist["calendar_interval"])
	}
	if _, ok := hist["extended_bounds"]; !ok {
		t.Error("extended_bounds missing, series would have gaps")
	}
	if mock.lastQuery["size"] != 0 {
		t.Errorf("size = %v, want 0", mock.lastQuery["size"])
	}
}

func TestTrendsService_GetPriceTrends_UnknownPeriod(t *testing.T) {
	mock := &mockESClient{}
	svc := newTestTrendsService(mock)

	_, err := svc.GetPriceTrends(context.Background(), &domain.TrendsRequest{
		Country: "DE",
		Period:  domain.TrendPeriod("century"),
	})
	if err == nil {
		t.Fatal("GetPriceTrends() accepted unknown period")
	}
	if mock.searches != 0 {
		t.Error("query executed for invalid request")
	}
}

func TestChangePercentage(t *testing.T) {
	tests := []struct {
		name   string
		points []domain.TrendPoint
		want   float64
	}{
		{"no points", nil, 0},
		{"single bucket", []domain.TrendPoint{{AveragePrice: 100, ListingCount: 1}}, 0},
		{
			"all empty",
			[]domain.TrendPoint{{ListingCount: 0}, {ListingCount: 0}},
			0,
		},
		{
			"zero baseline",
			[]domain.TrendPoint{{AveragePrice: 0, ListingCount: 2}, {AveragePrice: 500, ListingCount: 1}},
			0,
		},
		{
			"rise",
			[]domain.TrendPoint{{AveragePrice: 100, ListingCount: 1}, {AveragePrice: 150, ListingCount: 1}},
			50,
		},
		{
			"fall ignoring trailing empties",
			[]domain.TrendPoint{
				{AveragePrice: 200, ListingCount: 1},
				{AveragePrice: 100, ListingCount: 3},
				{ListingCount: 0},
			},
			-50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := changePercentage(tt.points); got != tt.want {
				t.Errorf("changePercentage() = %v, want %v", got, tt.want)
			}
		})
	}
}
