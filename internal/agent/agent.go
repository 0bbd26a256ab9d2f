// Package agent wires profile storage, portal search, filtering, ranking,
// contact lookup and email composition into the job search workflow.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/ai"
	"github.com/spigell/job-agent/internal/contacts"
	"github.com/spigell/job-agent/internal/filtering"
	"github.com/spigell/job-agent/internal/jobs"
	"github.com/spigell/job-agent/internal/logger"
	"github.com/spigell/job-agent/internal/profile"
	"github.com/spigell/job-agent/internal/search"
)

const DefaultMaxResults = 20

var (
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotConfigured is returned when an optional collaborator was not provided.
	ErrNotConfigured = errors.New("not configured")
)

type Ranker interface {
	Rank(ctx context.Context, p *jobs.Profile, postings []jobs.Posting, topK int) ([]jobs.RankedPosting, error)
}

type Composer interface {
	Compose(ctx context.Context, job jobs.Posting, contact *contacts.Contact, p *jobs.Profile) (*ai.Email, error)
}

// SearcherFactory returns the searcher for a portal name.
type SearcherFactory func(portal string) search.Searcher

// Deps are the collaborators of a Service. Composer and Contacts may be nil.
type Deps struct {
	Store     profile.Store
	Searchers SearcherFactory
	Filters   *filtering.Filtering
	Ranker    Ranker
	Composer  Composer
	Contacts  contacts.Finder
	Logger    *zap.Logger
}

type Service struct {
	store     profile.Store
	searchers SearcherFactory
	filters   *filtering.Filtering
	ranker    Ranker
	composer  Composer
	contacts  contacts.Finder
	logger    *zap.Logger
}

func New(deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("profile store is required")
	}
	if deps.Searchers == nil {
		return nil, errors.New("searcher factory is required")
	}
	if deps.Ranker == nil {
		return nil, errors.New("ranker is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Filters == nil {
		deps.Filters = filtering.New(nil, deps.Logger)
	}

	return &Service{
		store:     deps.Store,
		searchers: deps.Searchers,
		filters:   deps.Filters,
		ranker:    deps.Ranker,
		composer:  deps.Composer,
		contacts:  deps.Contacts,
		logger:    deps.Logger,
	}, nil
}

// SaveProfile stores p, filling default portals, and returns the stored profile.
func (s *Service) SaveProfile(ctx context.Context, p *jobs.Profile) (*jobs.Profile, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: profile is required", ErrInvalidArgument)
	}

	stored := p.Clone()
	if len(stored.Portals) == 0 {
		stored.Portals = append([]string(nil), jobs.DefaultPortals...)
	}

	id, err := s.store.Upsert(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	stored.ID = id

	s.logger.Info("profile saved", logger.JobFields(id, "")...)
	return stored, nil
}

func (s *Service) Profile(ctx context.Context, id string) (*jobs.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: profile id is required", ErrInvalidArgument)
	}
	return s.store.Get(ctx, id)
}

// Filters reports the configured pre-ranking filters.
func (s *Service) Filters() []filtering.Status {
	return s.filters.Describe()
}

// ResumeUpload is the outcome of importing a resume.
type ResumeUpload struct {
	Tokens          int      `json:"tokens"`
	ExtractedSkills []string `json:"extracted_skills"`
	ProfileID       string   `json:"profile_id"`
}

// ImportResume extracts text from a PDF resume and creates a profile from it.
func (s *Service) ImportResume(ctx context.Context, pdf []byte) (*ResumeUpload, error) {
	text, err := profile.ExtractText(pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	stored, err := s.SaveProfile(ctx, profile.FromResume(text))
	if err != nil {
		return nil, err
	}

	return &ResumeUpload{
		Tokens:          profile.TokenCount(text),
		ExtractedSkills: stored.Skills,
		ProfileID:       stored.ID,
	}, nil
}

// SearchRequest describes a search run. Empty Portals means the profile's portals.
type SearchRequest struct {
	ProfileID  string
	Portals    []string
	MaxResults int
}

// Search finds postings for the profile on every portal, filters them and
// returns at most MaxResults ranked postings.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]jobs.RankedPosting, error) {
	if req.MaxResults < 0 {
		return nil, fmt.Errorf("%w: max_results must not be negative", ErrInvalidArgument)
	}
	if req.MaxResults == 0 {
		req.MaxResults = DefaultMaxResults
	}

	p, err := s.Profile(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}

	postings, err := s.Collect(ctx, p, req.Portals, req.MaxResults)
	if err != nil {
		return nil, err
	}

	// Filters prune postings in place.
	found := postings.Len()

	filtered, err := s.filters.Run(ctx, postings)
	if err != nil {
		return nil, fmt.Errorf("filter postings: %w", err)
	}

	ranked, err := s.ranker.Rank(ctx, p, filtered.Values(), req.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("rank postings: %w", err)
	}

	s.logger.Info("search finished",
		zap.String(logger.FieldProfileID, p.ID),
		zap.Int("found", found),
		zap.Int("filtered", filtered.Len()),
		zap.Int("ranked", len(ranked)),
	)

	return ranked, nil
}

// Collect queries each portal in turn. A failing portal is logged and
// skipped; the call fails only when every portal fails.
func (s *Service) Collect(ctx context.Context, p *jobs.Profile, portals []string, maxResults int) (*jobs.Postings, error) {
	if len(portals) == 0 {
		portals = p.PortalsOrDefault()
	}

	query := search.Query(p)
	perPortal := search.PerPortalLimit(maxResults, len(portals))

	all := &jobs.Postings{}
	var errs []error
	for _, portal := range portals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		searcher := s.searchers(portal)
		if searcher == nil {
			errs = append(errs, fmt.Errorf("no searcher for portal %q", portal))
			continue
		}

		found, err := searcher.Search(ctx, query, perPortal)
		if err != nil {
			s.logger.Warn("portal search failed", append(logger.JobFields(p.ID, portal), zap.Error(err))...)
			errs = append(errs, err)
			continue
		}

		s.logger.Debug("portal search", append(logger.JobFields(p.ID, portal), zap.Int("count", len(found)))...)
		all.Items = append(all.Items, jobs.NewPostings(found).Items...)
	}

	if len(errs) > 0 && len(errs) == len(portals) {
		return nil, fmt.Errorf("search portals: %w", errors.Join(errs...))
	}

	return all, nil
}

// FindContact looks up a recruiter at company.
func (s *Service) FindContact(ctx context.Context, company, roleHint string) (*contacts.Contact, error) {
	if s.contacts == nil {
		return nil, fmt.Errorf("contact lookup: %w", contacts.ErrUnavailable)
	}
	return s.contacts.Lookup(ctx, company, roleHint)
}

// ComposeEmail drafts an application email for job on behalf of the profile.
func (s *Service) ComposeEmail(ctx context.Context, profileID string, job jobs.Posting, contact *contacts.Contact) (*ai.Email, error) {
	if s.composer == nil {
		return nil, fmt.Errorf("email composer: %w", ErrNotConfigured)
	}

	p, err := s.Profile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	return s.composer.Compose(ctx, job, contact, p)
}
