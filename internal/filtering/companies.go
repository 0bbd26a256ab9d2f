package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-agent/internal/jobs"
)

type companiesFilter struct {
	toggle
	companies []string
}

// NewExcludedCompanies creates a filter that removes postings by company name, ignoring case.
func NewExcludedCompanies(companies []string) Filter {
	return &companiesFilter{companies: normalize(companies)}
}

func (f *companiesFilter) Name() string { return "excluded_companies" }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if len(f.companies) == 0 {
		return p, Step{Initial: initial, Left: initial}, nil
	}

	removed := p.ExcludeFunc(func(posting *jobs.Posting) bool {
		company := strings.ToLower(strings.TrimSpace(posting.Company))
		for _, c := range f.companies {
			if company == c {
				return true
			}
		}
		return false
	})

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
