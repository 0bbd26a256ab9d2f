package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/job-agent/internal/logger"
)

const (
	DefaultEmbeddingModel = "models/embedding-001"
	defaultTaskType       = "RETRIEVAL_DOCUMENT"
	// Gemini accepts at most this many contents per embedding request.
	maxEmbedBatch = 100
)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder computes document embeddings with a Gemini embedding model.
type Embedder struct {
	models     contentEmbedder
	model      string
	taskType   string
	maxRetries int
	logger     *zap.Logger
}

func NewEmbedder(client *genai.Client, model, taskType string, maxRetries int, log *zap.Logger) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}
	return newEmbedder(client.Models, model, taskType, maxRetries, log), nil
}

func newEmbedder(models contentEmbedder, model, taskType string, maxRetries int, log *zap.Logger) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultEmbeddingModel
	}
	if taskType = strings.TrimSpace(taskType); taskType == "" {
		taskType = defaultTaskType
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Embedder{
		models:     models,
		model:      model,
		taskType:   taskType,
		maxRetries: maxRetries,
		logger:     logger.WithCommonFields(log, "gemini", model),
	}
}

// Embed returns one vector per text. Empty texts are not sent and get an empty vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var (
		positions []int
		contents  []*genai.Content
	)
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			out[i] = []float32{}
			continue
		}
		positions = append(positions, i)
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}

	for start := 0; start < len(contents); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(contents))
		batch := contents[start:end]

		var resp *genai.EmbedContentResponse
		err := withRetry(ctx, e.logger, e.maxRetries, func(ctx context.Context) error {
			var err error
			resp, err = e.models.EmbedContent(ctx, e.model, batch, &genai.EmbedContentConfig{TaskType: e.taskType})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}

		if resp == nil || len(resp.Embeddings) != len(batch) {
			got := 0
			if resp != nil {
				got = len(resp.Embeddings)
			}
			return nil, fmt.Errorf("embed content: expected %d embeddings, got %d", len(batch), got)
		}

		for j, embedding := range resp.Embeddings {
			var values []float32
			if embedding != nil {
				values = embedding.Values
			}
			out[positions[start+j]] = values
		}
	}

	e.logger.Debug("embedded texts",
		zap.Int("texts", len(texts)),
		zap.Int("sent", len(contents)),
	)

	return out, nil
}
