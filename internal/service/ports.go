// Package service orchestrates property search, indexing, analytics, trends,
// and recommendations.
package service

import (
	"context"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/elasticsearch"
)

// SearchESClient defines the read-side Elasticsearch operations used by the
// query-driven services. The concrete *elasticsearch.Client satisfies it.
type SearchESClient interface {
	Search(ctx context.Context, indexName string, query map[string]any) (*esapi.Response, error)
	HealthCheck(ctx context.Context) error
}

// IndexESClient defines the index-lifecycle operations used by the Indexer.
// The concrete *elasticsearch.Client satisfies it.
type IndexESClient interface {
	CreateIndex(ctx context.Context, indexName string, mapping any) error
	DeleteIndex(ctx context.Context, indexName string) error
	IndexDocument(ctx context.Context, indexName, documentID string, doc any) error
	BulkIndex(ctx context.Context, indexName string, docs []elasticsearch.BulkDocument) error
	DeleteDocument(ctx context.Context, indexName, documentID string) error
}

// PropertyStore is the canonical-store port. Implementations return fully
// denormalized views so any backend (SQL joins, cache, replica) can serve it
// and tests can mock it.
type PropertyStore interface {
	// GetPropertyByID returns the denormalized view of one property, or
	// domain.ErrPropertyNotFound.
	GetPropertyByID(ctx context.Context, id string) (*domain.PropertyDocument, error)
	// ListEligibleProperties returns the denormalized views of every property
	// in an index-eligible status.
	ListEligibleProperties(ctx context.Context) ([]domain.PropertyDocument, error)
	// GetUserProfile returns a user's preferences, favorites, and recent
	// searches, or domain.ErrUserNotFound.
	GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	// Ping verifies store connectivity.
	Ping(ctx context.Context) error
}
