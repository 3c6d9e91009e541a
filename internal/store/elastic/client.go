package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/record"
	"github.com/issuelens/backend/internal/similarity"
	"github.com/issuelens/backend/pkg/logger"
	"github.com/issuelens/backend/pkg/retry"
)

// Client wraps the Elasticsearch index holding the issue dataset. All
// identifier values leaving this package are normalized strings; the
// rest of the system never sees raw heterogeneous id types.
type Client struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(host string, port int, username, password, index string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{fmt.Sprintf("http://%s:%d", host, port)},
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	logger.Info("Elasticsearch client initialized",
		zap.String("host", host),
		zap.Int("port", port),
		zap.String("index", index),
	)

	return &Client{es: es, index: index}, nil
}

// EnsureIndex creates the index when it does not exist yet. Idempotent
// and safe to call on every startup; transient bootstrap failures are
// retried with backoff.
func (c *Client) EnsureIndex(ctx context.Context) error {
	cfg := retry.DefaultConfig()
	cfg.Logger = logger.GetLogger()

	return retry.Do(ctx, cfg, func() error {
		res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", c.index, err)
		}
		defer res.Body.Close()

		if res.StatusCode == 200 {
			return nil
		}
		if res.StatusCode != 404 {
			return fmt.Errorf("unexpected status %d checking index %s", res.StatusCode, c.index)
		}

		createRes, err := c.es.Indices.Create(c.index, c.es.Indices.Create.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", c.index, err)
		}
		defer createRes.Body.Close()

		if createRes.IsError() {
			return fmt.Errorf("failed to create index %s: %s", c.index, responseError(createRes))
		}

		logger.Info("Index created", zap.String("index", c.index))
		return nil
	})
}

// GetByID fetches the record whose id field equals id. A missing
// record is (nil, nil): not-found is an answer, not a fault. Any
// transport or store error propagates.
func (c *Client) GetByID(ctx context.Context, id string) (*record.Record, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"id.keyword": id,
			},
		},
		"size": 1,
	}

	envelope, err := c.doSearch(ctx, body)
	if err != nil {
		return nil, err
	}

	if len(envelope.Hits.Hits) == 0 {
		return nil, nil
	}

	raw := envelope.Hits.Hits[0]
	return &record.Record{
		ID:     normalizeHitID(raw),
		Source: raw.Source,
	}, nil
}

// Search executes a built query specification and returns the hits in
// the store's relevance order.
func (c *Client) Search(ctx context.Context, spec *similarity.QuerySpec) ([]record.Hit, error) {
	envelope, err := c.doSearch(ctx, spec.Body)
	if err != nil {
		return nil, err
	}

	hits := make([]record.Hit, 0, len(envelope.Hits.Hits))
	for _, raw := range envelope.Hits.Hits {
		hits = append(hits, record.Hit{
			ID:          normalizeHitID(raw),
			Score:       raw.Score,
			Source:      raw.Source,
			Explanation: raw.Explanation,
		})
	}

	logger.Debug("Search executed",
		zap.Int("hits", len(hits)),
		zap.Int("total", envelope.Hits.Total.Value),
	)

	return hits, nil
}

// Count returns the total number of documents in the index.
func (c *Client) Count(ctx context.Context) (int, error) {
	return c.doCount(ctx, nil)
}

// CountFieldPresent counts documents carrying a non-empty value in
// field. Diagnostics only, not on the search hot path.
func (c *Client) CountFieldPresent(ctx context.Context, field string) (int, error) {
	if field == "" {
		return 0, fmt.Errorf("field name is empty")
	}
	return c.doCount(ctx, map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"exists": map[string]interface{}{"field": field},
					},
				},
			},
		},
	})
}

// CountUpdatedVia counts documents whose updated_via text matches
// field, i.e. how many records the named generation step has touched.
func (c *Client) CountUpdatedVia(ctx context.Context, field string) (int, error) {
	if field == "" {
		return 0, fmt.Errorf("field name is empty")
	}
	return c.doCount(ctx, map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{"updated_via": field},
		},
	})
}

type searchEnvelope struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []rawHit `json:"hits"`
	} `json:"hits"`
}

type rawHit struct {
	ID          string                 `json:"_id"`
	Score       float64                `json:"_score"`
	Source      map[string]interface{} `json:"_source"`
	Explanation interface{}            `json:"_explanation"`
}

func (c *Client) doSearch(ctx context.Context, body map[string]interface{}) (*searchEnvelope, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode query body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", responseError(res))
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &envelope, nil
}

func (c *Client) doCount(ctx context.Context, body map[string]interface{}) (int, error) {
	opts := []func(*esapi.CountRequest){
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(c.index),
	}

	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, fmt.Errorf("failed to encode count body: %w", err)
		}
		opts = append(opts, c.es.Count.WithBody(&buf))
	}

	res, err := c.es.Count(opts...)
	if err != nil {
		return 0, fmt.Errorf("count request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("count failed: %s", responseError(res))
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}

	return out.Count, nil
}

// normalizeHitID prefers the id source field over the document _id,
// matching how records are addressed everywhere else.
func normalizeHitID(raw rawHit) string {
	if raw.Source != nil {
		if v, ok := raw.Source["id"]; ok {
			if id := record.NormalizeID(v); id != "" {
				return id
			}
		}
	}
	return record.NormalizeID(raw.ID)
}

func responseError(res *esapi.Response) string {
	data, err := io.ReadAll(res.Body)
	if err != nil || len(data) == 0 {
		return res.Status()
	}
	return fmt.Sprintf("%s: %s", res.Status(), bytes.TrimSpace(data))
}
