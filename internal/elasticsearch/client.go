// Package elasticsearch wraps the Elasticsearch client with the index,
// document, and search operations the property search service needs.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
)

const pingTimeout = 5 * time.Second

// Client wraps the Elasticsearch client. It is safe for concurrent use and
// holds no per-request state.
type Client struct {
	esClient *es.Client
	config   *config.ElasticsearchConfig
}

// NewClient creates a new Elasticsearch client and verifies the connection.
func NewClient(cfg *config.ElasticsearchConfig) (*Client, error) {
	addresses := []string{cfg.URL}
	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		addresses = []string{"http://" + cfg.URL}
	}

	clientConfig := es.Config{
		Addresses:  addresses,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.Username != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	esClient, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	client := &Client{
		esClient: esClient,
		config:   cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping elasticsearch: %w", err)
	}

	return client, nil
}

// Ping verifies the Elasticsearch connection.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.esClient.Ping(c.esClient.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch ping failed: %s", string(body))
	}

	return nil
}

// CreateIndex creates an index with the given mapping.
func (c *Client) CreateIndex(ctx context.Context, indexName string, mapping any) error {
	var mappingReader io.Reader
	if mapping != nil {
		mappingBytes, err := json.Marshal(mapping)
		if err != nil {
			return fmt.Errorf("failed to marshal mapping: %w", err)
		}
		mappingReader = bytes.NewReader(mappingBytes)
	}

	res, err := c.esClient.Indices.Create(
		indexName,
		c.esClient.Indices.Create.WithBody(mappingReader),
		c.esClient.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error creating index %s: %s", indexName, string(body))
	}

	return nil
}

// DeleteIndex deletes an index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context, indexName string) error {
	res, err := c.esClient.Indices.Delete(
		[]string{indexName},
		c.esClient.Indices.Delete.WithContext(ctx),
		c.esClient.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error deleting index %s: %s", indexName, string(body))
	}

	return nil
}

// IndexExists checks if an index exists.
func (c *Client) IndexExists(ctx context.Context, indexName string) (bool, error) {
	res, err := c.esClient.Indices.Exists(
		[]string{indexName},
		c.esClient.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check index existence: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, fmt.Errorf("error checking index existence: %s", res.String())
	}

	return true, nil
}

// IndexDocument upserts a single document by id.
func (c *Client) IndexDocument(ctx context.Context, indexName, documentID string, doc any) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := c.esClient.Index(
		indexName,
		bytes.NewReader(docBytes),
		c.esClient.Index.WithDocumentID(documentID),
		c.esClient.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error indexing document %s: %s", documentID, string(body))
	}

	return nil
}

// BulkDocument pairs a document id with its body for bulk indexing.
type BulkDocument struct {
	ID  string
	Doc any
}

// BulkIndex upserts a batch of documents in one _bulk request.
func (c *Client) BulkIndex(ctx context.Context, indexName string, docs []BulkDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, d := range docs {
		meta := map[string]any{
			"index": map[string]any{
				"_index": indexName,
				"_id":    d.ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return fmt.Errorf("failed to encode bulk meta: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(d.Doc); err != nil {
			return fmt.Errorf("failed to encode bulk document: %w", err)
		}
	}

	res, err := c.esClient.Bulk(
		bytes.NewReader(buf.Bytes()),
		c.esClient.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("bulk request failed: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		return fmt.Errorf("bulk indexing error: %s", res.String())
	}

	// The bulk endpoint reports item-level failures with a 200 status.
	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Error *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if bulkResp.Errors {
		for _, item := range bulkResp.Items {
			for _, op := range item {
				if op.Error != nil {
					return fmt.Errorf("bulk item failed: %s: %s", op.Error.Type, op.Error.Reason)
				}
			}
		}
		return fmt.Errorf("bulk indexing reported item errors")
	}

	return nil
}

// DeleteDocument deletes a document by id. Deleting an absent document is
// not an error.
func (c *Client) DeleteDocument(ctx context.Context, indexName, documentID string) error {
	res, err := c.esClient.Delete(
		indexName,
		documentID,
		c.esClient.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error deleting document %s: %s", documentID, string(body))
	}

	return nil
}

// Search executes a search query against an index.
func (c *Client) Search(ctx context.Context, indexName string, query map[string]any) (*esapi.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := c.esClient.Search(
		c.esClient.Search.WithContext(ctx),
		c.esClient.Search.WithIndex(indexName),
		c.esClient.Search.WithBody(&buf),
		c.esClient.Search.WithTimeout(c.config.Timeout),
		c.esClient.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	if res.IsError() {
		defer func() {
			_ = res.Body.Close()
		}()
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search returned error [%d]: %s", res.StatusCode, string(body))
	}

	return res, nil
}

// HealthCheck checks Elasticsearch cluster health.
func (c *Client) HealthCheck(ctx context.Context) error {
	res, err := c.esClient.Cluster.Health(
		c.esClient.Cluster.Health.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster unhealthy [%d]: %s", res.StatusCode, string(body))
	}

	return nil
}
