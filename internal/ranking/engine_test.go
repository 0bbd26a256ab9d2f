package ranking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-agent/internal/ai/aitest"
	"github.com/spigell/job-agent/internal/jobs"
)

// vectorEmbedder returns fixed vectors keyed by text. Unknown texts get fallback.
type vectorEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	calls    int
}

func (v *vectorEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	v.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if text == "" {
			out[i] = []float32{}
			continue
		}
		if vec, ok := v.vectors[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = v.fallback
	}
	return out, nil
}

type shapeEmbedder struct {
	call    int
	results [][][]float32
}

func (s *shapeEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	res := s.results[s.call]
	s.call++
	return res, nil
}

func scenarioProfile() *jobs.Profile {
	years := 3.0
	return &jobs.Profile{
		Roles:           []string{"Backend Engineer"},
		Skills:          []string{"python", "aws"},
		Locations:       []string{"Remote"},
		YearsExperience: &years,
	}
}

func manyPostings(n int) []jobs.Posting {
	postings := make([]jobs.Posting, n)
	for i := range postings {
		postings[i] = jobs.Posting{
			Title:   fmt.Sprintf("Engineer %d", i),
			Company: fmt.Sprintf("Company %d", i%3),
			Snippet: fmt.Sprintf("python aws role number %d", i),
			URL:     fmt.Sprintf("https://example.com/%d", i),
		}
	}
	return postings
}

func TestRankScenarioAExactTitleWins(t *testing.T) {
	profile := scenarioProfile()
	backend := jobs.Posting{Title: "Backend Engineer", Company: "Acme", Location: "Remote", Snippet: "python aws services"}
	designer := jobs.Posting{Title: "Graphic Designer", Company: "Studio", Location: "Paris", Snippet: "branding and print"}

	embedder := &vectorEmbedder{
		vectors: map[string][]float32{
			BuildQuery(profile):   {1, 0, 0},
			PostingText(backend):  {0.9, 0.1, 0},
			PostingText(designer): {0, 0.2, 1},
		},
	}

	ranked, err := NewEngine(embedder).Rank(context.Background(), profile, []jobs.Posting{designer, backend}, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "Backend Engineer", ranked[0].Title)
	assert.Equal(t, "Graphic Designer", ranked[1].Title)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	assert.Equal(t, 2, embedder.calls)
}

func TestRankEmptyPostingsNeverEmbeds(t *testing.T) {
	for _, k := range []int{-1, 0, 1, 20} {
		embedder := &aitest.Embedder{}
		ranked, err := NewEngine(embedder).Rank(context.Background(), scenarioProfile(), nil, k)
		require.NoError(t, err, "k=%d", k)
		assert.NotNil(t, ranked)
		assert.Empty(t, ranked)
		assert.Zero(t, embedder.CallCount())
	}
}

func TestRankTopKZero(t *testing.T) {
	embedder := &aitest.Embedder{}
	ranked, err := NewEngine(embedder).Rank(context.Background(), scenarioProfile(), manyPostings(3), 0)
	require.NoError(t, err)
	assert.Empty(t, ranked)
	assert.Zero(t, embedder.CallCount())
}

func TestRankNegativeTopK(t *testing.T) {
	embedder := &aitest.Embedder{}
	_, err := NewEngine(embedder).Rank(context.Background(), scenarioProfile(), manyPostings(3), -1)
	assert.ErrorIs(t, err, ErrInvalidTopK)
	assert.Zero(t, embedder.CallCount())
}

func TestRankTruncation(t *testing.T) {
	postings := manyPostings(7)
	for _, k := range []int{1, 3, 7, 8, 100} {
		ranked, err := NewEngine(&aitest.Embedder{}).Rank(context.Background(), scenarioProfile(), postings, k)
		require.NoError(t, err)
		assert.Len(t, ranked, min(k, len(postings)), "k=%d", k)
	}
}

func TestRankOrderBoundsAndRounding(t *testing.T) {
	ranked, err := NewEngine(&aitest.Embedder{Dim: 16}).Rank(context.Background(), scenarioProfile(), manyPostings(12), 12)
	require.NoError(t, err)

	for i, r := range ranked {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		assert.InDelta(t, r.Score, round3(r.Score), 1e-12)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Score, r.Score)
		}
	}
}

func TestRankStableOnTies(t *testing.T) {
	twin := jobs.Posting{Title: "Backend Engineer", Company: "Acme", Location: "Remote", Snippet: "python"}
	first := twin
	first.URL = "https://example.com/first"
	second := twin
	second.URL = "https://example.com/second"
	other := jobs.Posting{Title: "Chef", Snippet: "kitchen", URL: "https://example.com/chef"}

	ranked, err := NewEngine(&aitest.Embedder{}).Rank(context.Background(), scenarioProfile(), []jobs.Posting{other, first, second}, 3)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, ranked[0].Score, ranked[1].Score)
	assert.Equal(t, "https://example.com/first", ranked[0].URL)
	assert.Equal(t, "https://example.com/second", ranked[1].URL)
}

func TestRankEmptyPostingTextScoresZeroCosine(t *testing.T) {
	profile := scenarioProfile()
	embedder := &vectorEmbedder{
		vectors: map[string][]float32{BuildQuery(profile): {1, 2, 3}},
	}

	ranked, err := NewEngine(embedder).Rank(context.Background(), profile, []jobs.Posting{{URL: "https://example.com/blank"}}, 5)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	assert.Equal(t, 0.0, ranked[0].Score)
	assert.Equal(t, "https://example.com/blank", ranked[0].URL)
}

func TestRankDeterministic(t *testing.T) {
	postings := manyPostings(9)
	engine := NewEngine(&aitest.Embedder{Dim: 32})

	first, err := engine.Rank(context.Background(), scenarioProfile(), postings, 9)
	require.NoError(t, err)
	second, err := engine.Rank(context.Background(), scenarioProfile(), postings, 9)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRankDoesNotMutateInputs(t *testing.T) {
	profile := scenarioProfile()
	profileBefore := profile.Clone()
	postings := manyPostings(4)
	postingsBefore := append([]jobs.Posting(nil), postings...)

	ranked, err := NewEngine(&aitest.Embedder{}).Rank(context.Background(), profile, postings, 4)
	require.NoError(t, err)

	ranked[0].Title = "changed"

	assert.Equal(t, profileBefore, profile)
	assert.Equal(t, postingsBefore, postings)
}

func TestRankCallsEmbedderTwiceInOrder(t *testing.T) {
	profile := scenarioProfile()
	postings := manyPostings(3)
	embedder := &aitest.Embedder{}

	_, err := NewEngine(embedder).Rank(context.Background(), profile, postings, 3)
	require.NoError(t, err)

	require.Equal(t, 2, embedder.CallCount())
	assert.Equal(t, []string{BuildQuery(profile)}, embedder.Calls[0])
	assert.Equal(t, []string{PostingText(postings[0]), PostingText(postings[1]), PostingText(postings[2])}, embedder.Calls[1])
}

func TestRankPropagatesEmbedderError(t *testing.T) {
	providerErr := errors.New("quota exceeded")

	ranked, err := NewEngine(&aitest.Embedder{Err: providerErr}).Rank(context.Background(), scenarioProfile(), manyPostings(2), 2)
	assert.ErrorIs(t, err, providerErr)
	assert.Nil(t, ranked)
}

func TestRankRejectsMalformedEmbeddings(t *testing.T) {
	tests := []struct {
		name    string
		results [][][]float32
	}{
		{name: "no query vector", results: [][][]float32{{}}},
		{name: "missing posting vector", results: [][][]float32{{{1, 0}}, {{1, 0}}}},
		{name: "dimension mismatch", results: [][][]float32{{{1, 0}}, {{1, 0}, {1, 0, 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(&shapeEmbedder{results: tt.results}).Rank(context.Background(), scenarioProfile(), manyPostings(2), 2)
			assert.ErrorIs(t, err, ErrEmbeddingShape)
		})
	}
}

func TestRankWithoutRoles(t *testing.T) {
	ranked, err := NewEngine(&aitest.Embedder{}).Rank(context.Background(), &jobs.Profile{}, manyPostings(2), 2)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}
