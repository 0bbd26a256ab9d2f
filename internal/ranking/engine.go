// Package ranking orders job postings by relevance to a candidate profile.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/spigell/job-agent/internal/ai"
	"github.com/spigell/job-agent/internal/jobs"
	"github.com/spigell/job-agent/internal/similarity"
)

const (
	// CosineWeight and FuzzyWeight are fixed; they sum to 1 so scores stay in [0, 1]
	// whenever both components do.
	CosineWeight = 0.7
	FuzzyWeight  = 0.3
)

var (
	ErrInvalidTopK    = errors.New("top_k must not be negative")
	ErrEmbeddingShape = errors.New("embedding provider returned unexpected vectors")
)

// Engine blends embedding similarity with fuzzy title matching.
type Engine struct {
	embedder ai.Embedder
}

func NewEngine(embedder ai.Embedder) *Engine {
	return &Engine{embedder: embedder}
}

// Rank scores every posting against the profile and returns at most topK
// results, best first. Postings with equal scores keep their input order.
// Neither the profile nor the postings are modified.
func (e *Engine) Rank(ctx context.Context, profile *jobs.Profile, postings []jobs.Posting, topK int) ([]jobs.RankedPosting, error) {
	if len(postings) == 0 {
		return []jobs.RankedPosting{}, nil
	}
	if topK < 0 {
		return nil, ErrInvalidTopK
	}
	if topK == 0 {
		return []jobs.RankedPosting{}, nil
	}
	if e == nil || e.embedder == nil {
		return nil, errors.New("ranking engine has no embedder")
	}

	queryVectors, err := e.embedder.Embed(ctx, []string{BuildQuery(profile)})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVectors) != 1 {
		return nil, fmt.Errorf("%w: %d query vectors", ErrEmbeddingShape, len(queryVectors))
	}
	query := queryVectors[0]

	texts := make([]string, len(postings))
	for i, p := range postings {
		texts[i] = PostingText(p)
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed postings: %w", err)
	}
	if len(vectors) != len(postings) {
		return nil, fmt.Errorf("%w: %d vectors for %d postings", ErrEmbeddingShape, len(vectors), len(postings))
	}

	role := profile.PrimaryRole()
	ranked := make([]jobs.RankedPosting, len(postings))
	for i, p := range postings {
		vec := vectors[i]
		if len(vec) == 0 {
			vec = make([]float32, len(query))
		} else if len(vec) != len(query) {
			return nil, fmt.Errorf("%w: posting %d has dimension %d, query has %d", ErrEmbeddingShape, i, len(vec), len(query))
		}

		cosine := similarity.Cosine(query, vec)
		fuzzy := similarity.TokenSetRatio(role, p.Title) / 100

		ranked[i] = jobs.RankedPosting{
			Posting: p,
			Score:   round3(CosineWeight*cosine + FuzzyWeight*fuzzy),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if topK < len(ranked) {
		ranked = ranked[:topK]
	}

	return ranked, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
