package jobs

import (
	"encoding/json"
	"os"
	"time"
)

const (
	PostingURLField     = "URL"
	PostingCompanyField = "Company"
	PostingPortalField  = "Portal"
)

// Posting is a single job advertisement returned by a portal search.
type Posting struct {
	Title    string `json:"title,omitempty" mapstructure:"title"`
	Company  string `json:"company,omitempty" mapstructure:"company"`
	Location string `json:"location,omitempty" mapstructure:"location"`
	URL      string `json:"url,omitempty" mapstructure:"url"`
	Portal   string `json:"portal,omitempty" mapstructure:"portal"`
	Snippet  string `json:"snippet,omitempty" mapstructure:"snippet"`
}

// RankedPosting is a posting with its relevance score attached.
type RankedPosting struct {
	Posting
	Score float64 `json:"score"`
}

func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingURLField:
		return p.URL
	case PostingCompanyField:
		return p.Company
	case PostingPortalField:
		return p.Portal
	default:
		return ""
	}
}

type Postings struct {
	Items []*Posting
}

// NewPostings copies the given values into a collection.
func NewPostings(items []Posting) *Postings {
	p := &Postings{Items: make([]*Posting, 0, len(items))}
	for i := range items {
		item := items[i]
		p.Items = append(p.Items, &item)
	}
	return p
}

// Values returns copies of the postings in order.
func (p *Postings) Values() []Posting {
	out := make([]Posting, 0, p.Len())
	for _, item := range p.Items {
		out = append(out, *item)
	}
	return out
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Postings) FindByURL(url string) *Posting {
	for _, posting := range p.Items {
		if posting.URL == url {
			return posting
		}
	}
	return nil
}

// Exclude drops every posting whose field matches one of targets and returns
// the URLs of the dropped postings. Order of the remaining postings is kept.
func (p *Postings) Exclude(field string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[target] = struct{}{}
	}

	return p.ExcludeFunc(func(posting *Posting) bool {
		_, ok := set[posting.GetStringField(field)]
		return ok
	})
}

// ExcludeFunc drops every posting for which drop returns true, keeping order.
func (p *Postings) ExcludeFunc(drop func(*Posting) bool) []string {
	var excluded []string
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if drop(posting) {
			excluded = append(excluded, posting.URL)
			continue
		}
		kept = append(kept, posting)
	}
	p.Items = kept

	return excluded
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByPortal groups postings by the portal they were found on.
func (p *Postings) ReportByPortal() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		key := posting.Portal
		if key == "" {
			key = "unknown"
		}
		report[key] = append(report[key], map[string]string{
			"title":    posting.Title,
			"company":  posting.Company,
			"location": posting.Location,
			"url":      posting.URL,
		})
	}
	return report
}

func (p *Postings) ToExcluded(reason string) *ExcludedPostings {
	excluded := &ExcludedPostings{}
	now := time.Now().UTC()
	for _, posting := range p.Items {
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			URL:        posting.URL,
			Company:    posting.Company,
			Reason:     reason,
			ExcludedAt: now,
		})
	}
	return excluded
}
