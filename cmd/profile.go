package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/jobs"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage candidate profiles",
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update a profile from a yaml or json file",
	Run: func(cmd *cobra.Command, _ []string) {
		file, _ := cmd.Flags().GetString("file")
		setProfile(file)
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print a stored profile",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		showProfile(args[0])
	},
}

var profileUploadCmd = &cobra.Command{
	Use:   "upload-resume FILE.pdf",
	Short: "Create a profile from a PDF resume",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		uploadResume(args[0])
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd, profileUploadCmd)

	profileSetCmd.Flags().StringP("file", "f", "", "profile file (yaml or json)")
	profileSetCmd.MarkFlagRequired("file")
}

// readProfileFile decodes a profile file with its own viper instance.
func readProfileFile(path string) (*jobs.Profile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}

	var p jobs.Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode profile file: %w", err)
	}
	return &p, nil
}

func setProfile(path string) {
	ctx := context.Background()
	a := newApplication(ctx)
	defer a.Close()

	p, err := readProfileFile(path)
	if err != nil {
		a.logger.Fatal("loading profile", zap.Error(err))
	}

	stored, err := a.agent.SaveProfile(ctx, p)
	if err != nil {
		a.logger.Fatal("saving profile", zap.Error(err))
	}

	a.logger.Info("profile saved", zap.String("profile_id", stored.ID))
	printJSON(stored)
}

func showProfile(id string) {
	ctx := context.Background()
	a := newApplication(ctx)
	defer a.Close()

	p, err := a.agent.Profile(ctx, id)
	if err != nil {
		a.logger.Fatal("getting profile", zap.Error(err))
	}
	printJSON(p)
}

func uploadResume(path string) {
	ctx := context.Background()
	a := newApplication(ctx)
	defer a.Close()

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		a.logger.Fatal("Upload a PDF resume", zap.String("file", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Fatal("reading resume", zap.Error(err))
	}

	result, err := a.agent.ImportResume(ctx, data)
	if err != nil {
		a.logger.Fatal("importing resume", zap.Error(err))
	}

	a.logger.Info("resume imported",
		zap.String("profile_id", result.ProfileID),
		zap.Int("tokens", result.Tokens),
		zap.Strings("skills", result.ExtractedSkills),
	)
	printJSON(result)
}

func printJSON(v any) {
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(pretty))
}
