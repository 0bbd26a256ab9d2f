package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/job-agent/internal/jobs"
)

var portalDomains = map[string]string{
	"linkedin":     "linkedin.com/jobs",
	"naukri":       "naukri.com",
	"indeed":       "indeed.com",
	"hirist":       "hirist.com",
	"timesjobs":    "timesjobs.com",
	"talentoindia": "talentoindia.com",
}

// Domain returns the site a portal name is searched on. Unknown names are used as is.
func Domain(portal string) string {
	portal = strings.ToLower(strings.TrimSpace(portal))
	if domain, ok := portalDomains[portal]; ok {
		return domain
	}
	return portal
}

// Searcher finds postings on a single portal.
type Searcher interface {
	Portal() string
	Search(ctx context.Context, query string, maxResults int) ([]jobs.Posting, error)
}

// PortalSearcher searches one portal through a SerpClient.
type PortalSearcher struct {
	portal string
	client *SerpClient
}

func NewPortalSearcher(portal string, client *SerpClient) *PortalSearcher {
	return &PortalSearcher{portal: strings.ToLower(strings.TrimSpace(portal)), client: client}
}

func (s *PortalSearcher) Portal() string { return s.portal }

func (s *PortalSearcher) Search(ctx context.Context, query string, maxResults int) ([]jobs.Posting, error) {
	results, err := s.client.SiteSearch(ctx, Domain(s.portal), query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.portal, err)
	}

	postings := make([]jobs.Posting, 0, len(results))
	for _, r := range results {
		postings = append(postings, jobs.Posting{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.Link),
			Portal:  s.portal,
			Snippet: strings.TrimSpace(r.Snippet),
		})
	}
	return postings, nil
}

// Query renders a profile into a web search query.
func Query(p *jobs.Profile) string {
	if p == nil {
		return ""
	}
	parts := []string{
		strings.Join(p.Roles, " OR "),
		strings.Join(p.Skills, " "),
		strings.Join(p.Locations, " OR "),
	}

	nonEmpty := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// PerPortalLimit splits maxResults evenly across portals.
func PerPortalLimit(maxResults, portals int) int {
	return maxResults / max(1, portals)
}
