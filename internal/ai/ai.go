package ai

import "context"

// Embedder turns texts into vectors. The result has one vector per input text,
// in input order; an empty text yields an empty vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces free text from a system instruction and a user message.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Email is a composed outreach message.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
