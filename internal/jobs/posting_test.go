package jobs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestExcludePreservesOrder(t *testing.T) {
	p := NewPostings([]Posting{
		{Title: "A", URL: "u1", Company: "Acme"},
		{Title: "B", URL: "u2", Company: "Globex"},
		{Title: "C", URL: "u3", Company: "Acme"},
		{Title: "D", URL: "u4", Company: "Initech"},
	})

	removed := p.Exclude(PostingCompanyField, []string{"Acme"})

	if len(removed) != 2 || removed[0] != "u1" || removed[1] != "u3" {
		t.Fatalf("unexpected removed urls: %v", removed)
	}

	if p.Len() != 2 {
		t.Fatalf("expected 2 postings left, got %d", p.Len())
	}

	if p.Items[0].Title != "B" || p.Items[1].Title != "D" {
		t.Fatalf("order not preserved: %s, %s", p.Items[0].Title, p.Items[1].Title)
	}
}

func TestExcludeNoTargets(t *testing.T) {
	p := NewPostings([]Posting{{URL: "u1"}})
	if removed := p.Exclude(PostingURLField, nil); removed != nil {
		t.Fatalf("expected nothing removed, got %v", removed)
	}
	if p.Len() != 1 {
		t.Fatalf("expected posting to stay")
	}
}

func TestNewPostingsCopiesInput(t *testing.T) {
	input := []Posting{{Title: "Go Developer"}}
	p := NewPostings(input)
	p.Items[0].Title = "changed"

	if input[0].Title != "Go Developer" {
		t.Fatalf("input mutated: %q", input[0].Title)
	}
}

func TestReportByPortal(t *testing.T) {
	p := NewPostings([]Posting{
		{Title: "A", Portal: "linkedin", URL: "u1"},
		{Title: "B", Portal: "naukri", URL: "u2"},
		{Title: "C", Portal: "linkedin", URL: "u3"},
		{Title: "D", URL: "u4"},
	})

	report := p.ReportByPortal()

	if len(report["linkedin"]) != 2 {
		t.Fatalf("expected 2 linkedin entries, got %d", len(report["linkedin"]))
	}
	if report["naukri"][0]["url"] != "u2" {
		t.Fatalf("unexpected naukri entry: %v", report["naukri"][0])
	}
	if len(report["unknown"]) != 1 {
		t.Fatalf("expected posting without portal under unknown")
	}
}

func TestRankedPostingJSONIsFlat(t *testing.T) {
	data, err := json.Marshal(RankedPosting{Posting: Posting{Title: "Go"}, Score: 0.5})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["title"] != "Go" || decoded["score"] != 0.5 {
		t.Fatalf("unexpected payload: %s", data)
	}
}

func TestExcludedRoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")

	missing, err := ExcludedFromFile(path)
	if err != nil {
		t.Fatalf("missing file should be an empty list: %v", err)
	}
	if len(missing.Items) != 0 {
		t.Fatalf("expected empty list")
	}

	p := NewPostings([]Posting{{URL: "u1", Company: "Acme"}, {URL: "u2"}})
	missing.Append(p.ToExcluded("not interested"))

	if err := missing.ToFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := ExcludedFromFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	urls := loaded.URLs()
	if len(urls) != 2 || urls[0] != "u1" || urls[1] != "u2" {
		t.Fatalf("unexpected urls: %v", urls)
	}
	if loaded.Items[0].Reason != "not interested" {
		t.Fatalf("unexpected reason: %q", loaded.Items[0].Reason)
	}
}

func TestExcludedFromEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	excluded, err := ExcludedFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(excluded.Items) != 0 {
		t.Fatalf("expected empty list")
	}
}

func TestProfileHelpers(t *testing.T) {
	var nilProfile *Profile
	if nilProfile.PrimaryRole() != "" {
		t.Fatalf("nil profile should have empty primary role")
	}

	years := 3.0
	p := &Profile{Roles: []string{"Backend Engineer", "SRE"}, YearsExperience: &years}
	if p.PrimaryRole() != "Backend Engineer" {
		t.Fatalf("unexpected primary role %q", p.PrimaryRole())
	}

	if got := p.PortalsOrDefault(); len(got) != len(DefaultPortals) {
		t.Fatalf("expected default portals, got %v", got)
	}

	c := p.Clone()
	c.Roles[0] = "changed"
	*c.YearsExperience = 10
	if p.Roles[0] != "Backend Engineer" || *p.YearsExperience != 3 {
		t.Fatalf("clone shares state with original")
	}
}
