// Package aitest provides deterministic fakes for the ai interfaces.
package aitest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
)

// Embedder is a deterministic bag-of-words embedder. Each lower-cased word is
// hashed into one of Dim buckets. Calls are recorded.
type Embedder struct {
	Dim int
	Err error

	mu    sync.Mutex
	Calls [][]string
}

func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.Calls = append(e.Calls, append([]string(nil), texts...))
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}

	dim := e.Dim
	if dim <= 0 {
		dim = 64
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		words := strings.Fields(strings.ToLower(text))
		if len(words) == 0 {
			out[i] = []float32{}
			continue
		}
		vec := make([]float32, dim)
		for _, w := range words {
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Trim(w, ".,;:")))
			vec[h.Sum32()%uint32(dim)]++
		}
		out[i] = vec
	}
	return out, nil
}

// CallCount returns the number of Embed calls made so far.
func (e *Embedder) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Calls)
}

// Generator returns a canned response and records the last request.
type Generator struct {
	Response string
	Err      error

	mu          sync.Mutex
	LastSystem  string
	LastMessage string
}

func (g *Generator) GenerateContent(_ context.Context, system, message string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.LastSystem = system
	g.LastMessage = message
	if g.Err != nil {
		return "", g.Err
	}
	return g.Response, nil
}
