package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmatsuda/application-tailor/internal/config"
	"github.com/jmatsuda/application-tailor/internal/validation"
)

var (
	fitcheckJob    string
	fitcheckJobURL string
	fitcheckResume string
	fitcheckAPIKey string
)

var fitcheckCmd = &cobra.Command{
	Use:   "fitcheck",
	Short: "Run the quick go/no-go screen for a posting",
	Long:  `Runs a single cheap screening pass over the job description and resume, printing the fit percentage, red flags, and a recommended action without starting the full pipeline.`,
	RunE:  runFitCheck,
}

func init() {
	fitcheckCmd.Flags().StringVarP(&fitcheckJob, "job", "j", "", "Path to job posting text file (mutually exclusive with --job-url)")
	fitcheckCmd.Flags().StringVar(&fitcheckJobURL, "job-url", "", "URL to fetch job posting from (mutually exclusive with --job)")
	fitcheckCmd.Flags().StringVarP(&fitcheckResume, "resume", "r", "", "Path to resume file (text, markdown or PDF)")
	fitcheckCmd.Flags().StringVar(&fitcheckAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	rootCmd.AddCommand(fitcheckCmd)
}

func runFitCheck(cmd *cobra.Command, _ []string) error {
	cfg := config.Config{
		Job:    fitcheckJob,
		JobURL: fitcheckJobURL,
		Resume: fitcheckResume,
		APIKey: fitcheckAPIKey,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()

	in, err := loadInputs(ctx, cfg)
	if err != nil {
		return err
	}

	client, built, err := buildAgents(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	commander, ok := built[validation.StageCommander]
	if !ok {
		return fmt.Errorf("no commander agent available")
	}
	out, err := commander.Execute(ctx, map[string]any{
		"job_description": in.JobDescription,
		"resume":          in.Resume,
	})
	if err != nil {
		return fmt.Errorf("fit check failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
