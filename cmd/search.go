package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/agent"
	"github.com/spigell/job-agent/internal/contacts"
	"github.com/spigell/job-agent/internal/filtering"
	"github.com/spigell/job-agent/internal/jobs"
)

const (
	PromptCompose             = "Compose an email for a posting"
	PromptReportByPortal      = "Report by portal"
	PromptPostingsToFile      = "Dump postings to file"
	PromptAppendToExcludeFile = "Append all postings to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"
	excludeReason             = "excluded from cli"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptCompose, PromptReportByPortal, PromptPostingsToFile, PromptAppendToExcludeFile, PromptExit},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search portals for a profile and rank the postings",
	Run: func(cmd *cobra.Command, _ []string) {
		runSearch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("profile-id", "", "id of a stored profile")
	searchCmd.Flags().IntP("max-results", "n", agent.DefaultMaxResults, "maximum number of ranked postings")
	searchCmd.Flags().StringSlice("portal", nil, "portal to search, can be repeated (default is the profile portals)")
	searchCmd.Flags().BoolP("auto-approve", "y", false, "print the postings and exit without the interactive menu")
	searchCmd.Flags().StringP("exclude-file", "e", "", "special file with postings to exclude. Default is unset.")
	searchCmd.Flags().StringSlice("disable-filter", nil, "filter to skip, can be repeated (exclude_file, excluded_companies, excluded_keywords)")

	searchCmd.MarkFlagRequired("profile-id")
	viper.BindPFlag("filters.exclude-file", searchCmd.Flags().Lookup("exclude-file"))
}

func runSearch(cmd *cobra.Command) {
	ctx := context.Background()

	a := newApplication(ctx)
	defer a.Close()

	profileID, _ := cmd.Flags().GetString("profile-id")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	portals, _ := cmd.Flags().GetStringSlice("portal")
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	disabled, _ := cmd.Flags().GetStringSlice("disable-filter")

	if err := disableFilters(a.filters, disabled); err != nil {
		a.logger.Fatal("disabling filters", zap.Error(err))
	}
	a.logger.Info("filters", zap.Any("filters", a.filters.Describe()))

	a.logger.Info("starting the search", zap.String("profile_id", profileID), zap.Strings("portals", portals))

	hits, err := a.agent.Search(ctx, agent.SearchRequest{
		ProfileID:  profileID,
		Portals:    portals,
		MaxResults: maxResults,
	})
	if err != nil {
		a.logger.Fatal("searching postings", zap.Error(err))
	}

	if len(hits) == 0 {
		a.logger.Info("exiting", zap.String("reason", "no postings found"))
		return
	}

	printHits(hits)

	if autoApprove {
		return
	}

	postings := rankedToPostings(hits)
	for {
		_, action, err := prompt.Run()
		if err != nil {
			a.logger.Fatal("exiting", zap.Error(err))
		}

		a.logger.Info("current list of postings", zap.Int("count", postings.Len()))

		if err := handleAction(ctx, action, a, profileID, postings); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			a.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, a *application, profileID string, postings *jobs.Postings) error {
	switch action {
	case PromptExit:
		a.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptCompose:
		return composeInteractive(ctx, a, profileID, postings)
	case PromptReportByPortal:
		pretty, _ := json.MarshalIndent(postings.ReportByPortal(), "", "  ")
		a.logger.Info(string(pretty), zap.Int("postings count", postings.Len()))
		return nil
	case PromptPostingsToFile:
		filename, err := postings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		a.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(a, postings)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func composeInteractive(ctx context.Context, a *application, profileID string, postings *jobs.Postings) error {
	items, urls := postingChoices(postings)

	postingPrompt := promptui.Select{
		Label: "Choose a posting and press ENTER",
		Items: append(items, PromptBack),
		Size:  10,
	}

	_, selected, err := postingPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	posting := postings.FindByURL(urls[selected])
	if posting == nil {
		return fmt.Errorf("there is no such posting %q", selected)
	}
	job := *posting

	var contact *contacts.Contact
	if job.Company != "" {
		contact, err = a.agent.FindContact(ctx, job.Company, contacts.DefaultRoleHint)
		if err != nil {
			a.logger.Warn("contact lookup failed, writing to the hiring team", zap.String("company", job.Company), zap.Error(err))
			contact = nil
		}
	}

	email, err := a.agent.ComposeEmail(ctx, profileID, job, contact)
	if err != nil {
		return fmt.Errorf("compose email: %w", err)
	}

	fmt.Printf("\nSubject: %s\n\n%s\n\n", email.Subject, email.Body)
	return nil
}

func appendToExcludeFile(a *application, postings *jobs.Postings) error {
	excludeFile := a.config.Filters.ExcludeFile
	if excludeFile == "" {
		a.logger.Warn("exclude file is not set", zap.String("hint", "use --exclude-file or filters.exclude-file"))
		return nil
	}

	excluded, err := jobs.ExcludedFromFile(excludeFile)
	if err != nil {
		return err
	}

	excluded.Append(postings.ToExcluded(excludeReason))

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	a.logger.Info("appended to exclude file", zap.String("filename", excludeFile))

	postings.Exclude(jobs.PostingURLField, excluded.URLs())
	return nil
}

// disableFilters turns off the named filters. Unknown names are an error.
func disableFilters(f *filtering.Filtering, names []string) error {
	known := map[string]bool{}
	for _, status := range f.Describe() {
		known[status.Name] = true
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if !known[name] {
			return fmt.Errorf("unknown filter %q", name)
		}
		f.DisableByName(name, "disabled by --disable-filter")
	}
	return nil
}

// postingChoices builds the prompt labels and maps each label to its posting URL.
func postingChoices(postings *jobs.Postings) ([]string, map[string]string) {
	items := make([]string, 0, postings.Len()+1)
	urls := make(map[string]string, postings.Len())
	for i, p := range postings.Items {
		label := fmt.Sprintf("%d %s / %s / %s", i+1, p.Title, p.Company, p.URL)
		items = append(items, label)
		urls[label] = p.URL
	}
	return items, urls
}

func rankedToPostings(hits []jobs.RankedPosting) *jobs.Postings {
	items := make([]jobs.Posting, 0, len(hits))
	for _, h := range hits {
		items = append(items, h.Posting)
	}
	return jobs.NewPostings(items)
}

func printHits(hits []jobs.RankedPosting) {
	for i, h := range hits {
		fmt.Printf("%2d. [%.3f] %s", i+1, h.Score, h.Title)
		if h.Company != "" {
			fmt.Printf(" @ %s", h.Company)
		}
		fmt.Printf(" (%s)\n    %s\n", h.Portal, h.URL)
	}
}
