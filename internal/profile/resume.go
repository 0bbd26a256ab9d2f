package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/spigell/job-agent/internal/jobs"
)

// KnownSkills is the vocabulary GuessSkills looks for.
var KnownSkills = []string{
	"python", "fastapi", "langchain", "langgraph", "crewai", "streamlit",
	"aws", "gcp", "azure", "docker", "kubernetes", "sql", "nosql", "mongodb",
	"postgres", "react", "node", "typescript", "rest", "graphql", "ml", "nlp",
	"llm", "gemini", "openai",
}

var ErrEmptyResume = errors.New("resume contains no extractable text")

// ExtractText returns the plain text of a PDF document.
func ExtractText(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", ErrEmptyResume
	}

	// The pdf reader panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	text = strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrEmptyResume
	}
	return text, nil
}

// GuessSkills returns the known skills mentioned in text, sorted. Matching is a
// case-insensitive substring search.
func GuessSkills(text string) []string {
	lower := strings.ToLower(text)

	found := make([]string, 0)
	for _, skill := range KnownSkills {
		if strings.Contains(lower, skill) {
			found = append(found, skill)
		}
	}
	sort.Strings(found)
	return found
}

// TokenCount is a rough word count, never less than 1.
func TokenCount(text string) int {
	return max(1, len(strings.Fields(text)))
}

// FromResume builds a new profile from extracted resume text.
func FromResume(text string) *jobs.Profile {
	return &jobs.Profile{
		ResumeText: text,
		Skills:     GuessSkills(text),
		Portals:    append([]string(nil), jobs.DefaultPortals...),
	}
}
