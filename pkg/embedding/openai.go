package embedding

import (
	"context"
	"fmt"

	"github.com/korjavin/nutritrack/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// maxBatchSize caps the number of inputs sent in one embeddings request
const maxBatchSize = 256

// OpenAIClient is an embedding Provider backed by the OpenAI embeddings API
type OpenAIClient struct {
	client     *openai.Client
	model      string
	dimensions int
	logger     *logger.Logger
}

// NewOpenAI creates a new OpenAI embedding client. dimensions must match the
// model's output dimension (or the requested reduced dimension for models
// that support it).
func NewOpenAI(apiKey, apiBase, model string, dimensions int) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		config.BaseURL = apiBase
	}

	client := openai.NewClientWithConfig(config)
	return &OpenAIClient{
		client:     client,
		model:      model,
		dimensions: dimensions,
		logger:     logger.New("embedding"),
	}
}

// Dimension returns the configured embedding dimension
func (c *OpenAIClient) Dimension() int {
	return c.dimensions
}

// Embed returns the embedding vector for a single text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one embedding per input text, in input order. Large
// inputs are split into API-sized chunks.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      chunk,
			Model:      openai.EmbeddingModel(c.model),
			Dimensions: c.dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("OpenAI API error: %w", err)
		}

		if len(resp.Data) != len(chunk) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunk), len(resp.Data))
		}

		// The API reports the position of each embedding; place by index
		// rather than trusting response order.
		ordered := make([][]float32, len(chunk))
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(chunk) {
				return nil, fmt.Errorf("embedding index %d out of range", item.Index)
			}
			ordered[item.Index] = item.Embedding
		}

		for i, vec := range ordered {
			if len(vec) != c.dimensions {
				return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", start+i, len(vec), c.dimensions)
			}
			vectors = append(vectors, vec)
		}
	}

	c.logger.Debug("Embedded %d texts with model %s", len(texts), c.model)
	return vectors, nil
}
