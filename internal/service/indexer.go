package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/elasticsearch"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/elasticsearch/mappings"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/metrics"
)

// Indexer keeps the search index synchronized with the canonical property
// store. Document writes are idempotent upserts keyed by property ID, so
// replayed change events converge on the same index state.
type Indexer struct {
	esClient IndexESClient
	store    PropertyStore
	config   *config.ElasticsearchConfig
	logger   logger.Logger
}

// NewIndexer creates a new indexer.
func NewIndexer(esClient IndexESClient, store PropertyStore, cfg *config.ElasticsearchConfig, log logger.Logger) *Indexer {
	return &Indexer{
		esClient: esClient,
		store:    store,
		config:   cfg,
		logger:   log,
	}
}

// IndexProperty loads the denormalized view of one property and upserts it
// into the search index. A property that has left an eligible status is
// removed instead, so stale documents cannot linger after a status change.
// A property missing from the canonical store is logged and skipped; the
// delete event for it follows its own path.
func (i *Indexer) IndexProperty(ctx context.Context, propertyID string) error {
	doc, err := i.store.GetPropertyByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrPropertyNotFound) {
			i.logger.Warn("Property not found in canonical store, skipping index",
				logger.String("property_id", propertyID),
			)
			return nil
		}
		metrics.IndexErrors.Inc()
		return fmt.Errorf("load property %s: %w", propertyID, err)
	}

	if !domain.IsEligible(doc.Status) {
		i.logger.Info("Property not eligible for indexing, removing",
			logger.String("property_id", propertyID),
			logger.String("status", doc.Status),
		)
		return i.RemoveProperty(ctx, propertyID)
	}

	if err := i.esClient.IndexDocument(ctx, i.config.PropertyIndex, doc.ID, doc); err != nil {
		metrics.IndexErrors.Inc()
		i.logger.Error("Failed to index property",
			logger.Error(err),
			logger.String("property_id", propertyID),
		)
		return fmt.Errorf("index property %s: %w", propertyID, err)
	}

	metrics.DocumentsIndexed.Inc()
	i.logger.Debug("Property indexed",
		logger.String("property_id", propertyID),
	)
	return nil
}

// RemoveProperty deletes a property document from the search index. Deleting
// a document that is not indexed succeeds, keeping removal idempotent.
func (i *Indexer) RemoveProperty(ctx context.Context, propertyID string) error {
	if err := i.esClient.DeleteDocument(ctx, i.config.PropertyIndex, propertyID); err != nil {
		metrics.IndexErrors.Inc()
		i.logger.Error("Failed to remove property from index",
			logger.Error(err),
			logger.String("property_id", propertyID),
		)
		return fmt.Errorf("remove property %s: %w", propertyID, err)
	}

	metrics.DocumentsRemoved.Inc()
	i.logger.Debug("Property removed from index",
		logger.String("property_id", propertyID),
	)
	return nil
}

// RebuildAll drops and recreates the index, then bulk loads every eligible
// property from the canonical store in sequential batches. The rebuild aborts
// on the first failed batch rather than continuing with partial data.
func (i *Indexer) RebuildAll(ctx context.Context) (int, error) {
	i.logger.Info("Starting full index rebuild",
		logger.String("index", i.config.PropertyIndex),
	)

	if err := i.esClient.DeleteIndex(ctx, i.config.PropertyIndex); err != nil {
		metrics.RebuildsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("delete index %s: %w", i.config.PropertyIndex, err)
	}

	if err := i.esClient.CreateIndex(ctx, i.config.PropertyIndex, mappings.GetPropertyMapping()); err != nil {
		metrics.RebuildsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("create index %s: %w", i.config.PropertyIndex, err)
	}

	properties, err := i.store.ListEligibleProperties(ctx)
	if err != nil {
		metrics.RebuildsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("list eligible properties: %w", err)
	}

	batchSize := i.config.RebuildBatchSize
	indexed := 0
	for start := 0; start < len(properties); start += batchSize {
		end := start + batchSize
		if end > len(properties) {
			end = len(properties)
		}

		batch := make([]elasticsearch.BulkDocument, 0, end-start)
		for j := start; j < end; j++ {
			batch = append(batch, elasticsearch.BulkDocument{
				ID:  properties[j].ID,
				Doc: &properties[j],
			})
		}

		if err := i.esClient.BulkIndex(ctx, i.config.PropertyIndex, batch); err != nil {
			metrics.RebuildsTotal.WithLabelValues("error").Inc()
			i.logger.Error("Bulk index batch failed, aborting rebuild",
				logger.Error(err),
				logger.Int("batch_start", start),
				logger.Int("indexed_so_far", indexed),
			)
			return indexed, fmt.Errorf("bulk index batch at offset %d: %w", start, err)
		}
		indexed += end - start
	}

	metrics.RebuildsTotal.WithLabelValues("ok").Inc()
	i.logger.Info("Index rebuild completed",
		logger.String("index", i.config.PropertyIndex),
		logger.Int("document_count", indexed),
	)
	return indexed, nil
}
