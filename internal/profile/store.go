// Package profile persists candidate profiles and extracts data from resumes.
package profile

import (
	"context"
	"errors"

	"github.com/spigell/job-agent/internal/jobs"
)

var ErrNotFound = errors.New("profile not found")

// Store persists profiles keyed by ID.
type Store interface {
	// Upsert saves p, assigning a new ID when p.ID is empty, and returns the ID.
	Upsert(ctx context.Context, p *jobs.Profile) (string, error)
	// Get returns a copy of the profile or ErrNotFound.
	Get(ctx context.Context, id string) (*jobs.Profile, error)
	Close() error
}
