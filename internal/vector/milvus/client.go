package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/issuelens/backend/pkg/logger"
)

// Client holds the issue-embedding collection backing the knn search
// strategy. The embedding path is a stub capability: the default
// evaluation flow never touches it, and nothing here is required for
// the core similarity search to work.
type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

// VectorHit is one nearest-neighbor result.
type VectorHit struct {
	ID      string
	Subject string
	Score   float32
}

func NewClient(endpoint, apiKey, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(
		context.Background(),
		endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnsureCollection creates and loads the embedding collection when it
// does not exist yet. Idempotent.
func (c *Client) EnsureCollection(ctx context.Context) error {
	has, err := c.client.HasCollection(ctx, c.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", c.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: c.collectionName,
		Description:    "Issue subject embeddings",
		Fields: []*entity.Field{
			{
				Name:       "issue_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", c.vectorDim),
				},
			},
			{
				Name:     "subject",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
		},
	}

	err = c.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, _ := entity.NewIndexIvfFlat(entity.L2, 1024)
	err = c.client.CreateIndex(ctx, c.collectionName, "embedding", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = c.client.LoadCollection(ctx, c.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", c.collectionName))

	return nil
}

// Search returns the topK nearest issues to queryEmbedding.
func (c *Client) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]VectorHit, error) {
	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := c.client.Search(
		ctx,
		c.collectionName,
		[]string{},
		"",
		[]string{"issue_id", "subject"},
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		"embedding",
		entity.L2,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]VectorHit, 0)
	for _, sr := range searchResult {
		idCol := sr.Fields.GetColumn("issue_id")
		subjectCol := sr.Fields.GetColumn("subject")

		for i := 0; i < sr.ResultCount; i++ {
			id, _ := idCol.Get(i)
			subject, _ := subjectCol.Get(i)

			results = append(results, VectorHit{
				ID:      id.(string),
				Subject: subject.(string),
				Score:   sr.Scores[i],
			})
		}
	}

	logger.Info("Vector search completed",
		zap.Int("topK", topK),
		zap.Int("results", len(results)),
	)

	return results, nil
}
