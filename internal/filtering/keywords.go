package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-agent/internal/jobs"
)

type keywordsFilter struct {
	toggle
	keywords []string
}

// NewExcludedKeywords creates a filter that removes postings whose title contains any keyword.
func NewExcludedKeywords(keywords []string) Filter {
	return &keywordsFilter{keywords: normalize(keywords)}
}

func (f *keywordsFilter) Name() string { return "excluded_keywords" }

func (f *keywordsFilter) Validate() error { return nil }

func (f *keywordsFilter) Apply(_ context.Context, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if len(f.keywords) == 0 {
		return p, Step{Initial: initial, Left: initial}, nil
	}

	removed := p.ExcludeFunc(func(posting *jobs.Posting) bool {
		title := strings.ToLower(posting.Title)
		for _, k := range f.keywords {
			if strings.Contains(title, k) {
				return true
			}
		}
		return false
	})

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *keywordsFilter) Status() Status {
	details := map[string]string{}
	if len(f.keywords) > 0 {
		details["keywords"] = strings.Join(f.keywords, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
