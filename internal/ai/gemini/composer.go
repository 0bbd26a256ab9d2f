package gemini

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/ai"
	"github.com/spigell/job-agent/internal/contacts"
	"github.com/spigell/job-agent/internal/jobs"
	"github.com/spigell/job-agent/internal/util"
)

const (
	composeSystemPrompt = "You are an assistant that writes concise, professional, personalized job application emails."
	defaultSubject      = "Job application"
	resumeExcerptLimit  = 1500
	subjectPrefix       = "subject:"
)

//go:embed compose.md
var composeTemplate string

// Composer writes outreach emails for a posting with a text generator.
type Composer struct {
	generator ai.Generator
	logger    *zap.Logger
}

func NewComposer(generator ai.Generator, log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{generator: generator, logger: log}
}

// Compose drafts an email about job on behalf of profile. contact may be nil.
func (c *Composer) Compose(ctx context.Context, job jobs.Posting, contact *contacts.Contact, profile *jobs.Profile) (*ai.Email, error) {
	if c.generator == nil {
		return nil, errors.New("text generator is required")
	}
	if profile == nil {
		return nil, errors.New("profile is required")
	}

	raw, err := c.generator.GenerateContent(ctx, composeSystemPrompt, buildComposePrompt(job, contact, profile))
	if err != nil {
		return nil, fmt.Errorf("compose email: %w", err)
	}

	email := parseEmail(raw)
	c.logger.Debug("composed email",
		zap.String("job_url", job.URL),
		zap.String("subject", email.Subject),
	)

	return email, nil
}

func buildComposePrompt(job jobs.Posting, contact *contacts.Contact, profile *jobs.Profile) string {
	years := ""
	if profile.YearsExperience != nil {
		years = strconv.FormatFloat(*profile.YearsExperience, 'f', -1, 64)
	}

	resume := util.Truncate(profile.ResumeText, resumeExcerptLimit)
	if resume == "" {
		resume = "not provided"
	}

	replacer := strings.NewReplacer(
		"{{RECIPIENT}}", recipientLine(job, contact),
		"{{JOB_TITLE}}", job.Title,
		"{{JOB_COMPANY}}", job.Company,
		"{{JOB_LOCATION}}", job.Location,
		"{{JOB_URL}}", job.URL,
		"{{JOB_SNIPPET}}", job.Snippet,
		"{{CANDIDATE_NAME}}", profile.Name,
		"{{CANDIDATE_EMAIL}}", profile.Email,
		"{{CANDIDATE_PHONE}}", profile.Phone,
		"{{CANDIDATE_YEARS}}", years,
		"{{CANDIDATE_ROLES}}", strings.Join(profile.Roles, ", "),
		"{{CANDIDATE_SKILLS}}", strings.Join(profile.Skills, ", "),
		"{{CANDIDATE_LOCATIONS}}", strings.Join(profile.Locations, ", "),
		"{{RESUME_EXCERPT}}", resume,
	)

	return strings.TrimSpace(replacer.Replace(composeTemplate))
}

// recipientLine is empty unless the contact names someone.
func recipientLine(job jobs.Posting, contact *contacts.Contact) string {
	if contact == nil || (contact.Name == "" && contact.Title == "" && contact.Company == "") {
		return ""
	}

	name := "Hiring Team"
	title := "Hiring Manager"
	company := job.Company
	if contact.Name != "" {
		name = contact.Name
	}
	if contact.Title != "" {
		title = contact.Title
	}
	if contact.Company != "" {
		company = contact.Company
	}
	return fmt.Sprintf("Recipient: %s, %s at %s.", name, title, company)
}

// parseEmail splits a leading "Subject:" line from the body.
func parseEmail(raw string) *ai.Email {
	text := strings.TrimSpace(raw)
	first, rest, _ := strings.Cut(text, "\n")

	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(first)), subjectPrefix) {
		subject := strings.TrimSpace(strings.TrimSpace(first)[len(subjectPrefix):])
		if subject == "" {
			subject = defaultSubject
		}
		return &ai.Email{Subject: subject, Body: strings.TrimSpace(rest)}
	}

	return &ai.Email{Subject: defaultSubject, Body: text}
}
