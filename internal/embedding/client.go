package embedding

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/issuelens/backend/pkg/circuitbreaker"
	"github.com/issuelens/backend/pkg/logger"
	"github.com/issuelens/backend/pkg/retry"
)

// Client turns issue text into embedding vectors for the knn strategy.
// Part of the stub vector capability; the default evaluation flow does
// not call it.
type Client struct {
	client      *openai.Client
	model       string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(apiKey, model string) *Client {
	client := openai.NewClient(apiKey)

	cb := circuitbreaker.NewCircuitBreaker("embedding", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Embedding client initialized", zap.String("model", model))

	return &Client{
		client:      client,
		model:       model,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return retry.DoWithResult(ctx, c.retryConfig, func() ([]float32, error) {
		var embedding []float32

		err := c.cb.Execute(ctx, func() error {
			resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: []string{text},
				Model: openai.EmbeddingModel(c.model),
			})
			if err != nil {
				return fmt.Errorf("embedding request failed: %w", err)
			}
			if len(resp.Data) == 0 {
				return fmt.Errorf("embedding response is empty")
			}

			embedding = resp.Data[0].Embedding
			return nil
		})

		return embedding, err
	})
}
