// Package openai computes embeddings with the OpenAI embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/logger"
)

const DefaultModel = "text-embedding-3-small"

// Config holds the settings needed to reach the embeddings endpoint.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
}

type Embedder struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewEmbedder(cfg Config, log *zap.Logger) (*Embedder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	client := openai.NewClient(opts...)

	return &Embedder{
		client: &client,
		model:  model,
		logger: logger.WithCommonFields(log, "openai", model),
	}, nil
}

// Embed returns one vector per text, in input order. Empty texts are not sent
// and get an empty vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var (
		positions []int
		inputs    []string
	)
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			out[i] = []float32{}
			continue
		}
		positions = append(positions, i)
		inputs = append(inputs, text)
	}

	if len(inputs) == 0 {
		return out, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("create embeddings: expected %d embeddings, got %d", len(inputs), len(resp.Data))
	}

	for _, item := range resp.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(inputs) {
			return nil, fmt.Errorf("create embeddings: index %d out of range", idx)
		}
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		out[positions[idx]] = vec
	}

	e.logger.Debug("embedded texts", zap.Int("texts", len(texts)), zap.Int("sent", len(inputs)))

	return out, nil
}
