package ranking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/job-agent/internal/jobs"
)

// BuildQuery renders the profile into the single line that is embedded and
// compared against every posting. Missing fields render as empty strings.
func BuildQuery(p *jobs.Profile) string {
	if p == nil {
		p = &jobs.Profile{}
	}

	years := ""
	if p.YearsExperience != nil {
		years = strconv.FormatFloat(*p.YearsExperience, 'f', -1, 64)
	}

	return fmt.Sprintf("roles: %s; skills: %s; locations: %s; exp: %s years",
		strings.Join(p.Roles, " OR "),
		strings.Join(uniqueSorted(p.Skills), ", "),
		strings.Join(p.Locations, ", "),
		years,
	)
}

// PostingText is the text embedded for a posting.
func PostingText(p jobs.Posting) string {
	return strings.TrimSpace(strings.Join([]string{p.Title, p.Company, p.Location, p.Snippet}, " "))
}

// uniqueSorted drops empty and duplicate skills and sorts the rest so the
// query does not depend on set iteration order.
func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
