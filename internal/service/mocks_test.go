//nolint:testpackage // Testing unexported helpers requires same package access
package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/elasticsearch"
)

// --- mock ES client ---

type mockESClient struct {
	searchResp *esapi.Response
	searchErr  error

	lastIndex string
	lastQuery map[string]any
	searches  int

	indexed   []string
	deleted   []string
	bulks     [][]elasticsearch.BulkDocument
	created   []string
	dropped   []string
	indexErr  error
	bulkErr   error
	deleteErr error
	healthErr error
}

func (m *mockESClient) Search(_ context.Context, indexName string, query map[string]any) (*esapi.Response, error) {
	m.searches++
	m.lastIndex = indexName
	m.lastQuery = query
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResp, nil
}

func (m *mockESClient) HealthCheck(_ context.Context) error {
	return m.healthErr
}

func (m *mockESClient) CreateIndex(_ context.Context, indexName string, _ any) error {
	m.created = append(m.created, indexName)
	return nil
}

func (m *mockESClient) DeleteIndex(_ context.Context, indexName string) error {
	m.dropped = append(m.dropped, indexName)
	return nil
}

func (m *mockESClient) IndexDocument(_ context.Context, _, documentID string, _ any) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.indexed = append(m.indexed, documentID)
	return nil
}

func (m *mockESClient) BulkIndex(_ context.Context, _ string, docs []elasticsearch.BulkDocument) error {
	if m.bulkErr != nil {
		return m.bulkErr
	}
	m.bulks = append(m.bulks, docs)
	return nil
}

func (m *mockESClient) DeleteDocument(_ context.Context, _, documentID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, documentID)
	return nil
}

// --- mock property store ---

type mockStore struct {
	properties map[string]*domain.PropertyDocument
	eligible   []domain.PropertyDocument
	profile    *domain.UserProfile
	listErr    error
	pingErr    error
}

func (m *mockStore) GetPropertyByID(_ context.Context, id string) (*domain.PropertyDocument, error) {
	doc, ok := m.properties[id]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	return doc, nil
}

func (m *mockStore) ListEligibleProperties(_ context.Context) ([]domain.PropertyDocument, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.eligible, nil
}

func (m *mockStore) GetUserProfile(_ context.Context, _ string) (*domain.UserProfile, error) {
	if m.profile == nil {
		return nil, domain.ErrUserNotFound
	}
	return m.profile, nil
}

func (m *mockStore) Ping(_ context.Context) error {
	return m.pingErr
}

// --- helpers ---

func esapiResponse(t *testing.T, statusCode int, body string) *esapi.Response {
	t.Helper()
	return &esapi.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SetDefaults()
	return cfg
}
