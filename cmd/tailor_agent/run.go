package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmatsuda/application-tailor/internal/artifacts"
	"github.com/jmatsuda/application-tailor/internal/config"
	"github.com/jmatsuda/application-tailor/internal/ingest"
	"github.com/jmatsuda/application-tailor/internal/job"
	"github.com/jmatsuda/application-tailor/internal/observability"
	"github.com/jmatsuda/application-tailor/internal/workflow"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full tailoring pipeline end-to-end",
	Long: `Orchestrates the tailoring pipeline: gap analysis -> interrogation -> differentiation -> tailoring -> ATS optimization -> audit -> executive synthesis.

The two review points are handled interactively on the terminal. Configuration can be loaded from a JSON file using --config; command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath      string
	runJob             string
	runJobURL          string
	runResume          string
	runSourceDocs      string
	runArtifactsDir    string
	runMaxAuditRetries int
	runStrictQuestions bool
	runAutoApprove     bool
	runAPIKey          string
	runVerbose         bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	runCommand.Flags().StringVarP(&runJob, "job", "j", "", "Path to job posting text file (mutually exclusive with --job-url)")
	runCommand.Flags().StringVar(&runJobURL, "job-url", "", "URL to fetch job posting from (mutually exclusive with --job)")
	runCommand.Flags().StringVarP(&runResume, "resume", "r", "", "Path to resume file (text, markdown or PDF)")
	runCommand.Flags().StringVar(&runSourceDocs, "source-docs", "", "Path to supplementary source material")
	runCommand.Flags().StringVar(&runArtifactsDir, "artifacts-dir", "artifacts", "Directory for exported materials")
	runCommand.Flags().IntVar(&runMaxAuditRetries, "max-audit-retries", 0, "Audit loop retry bound (0 uses the default)")
	runCommand.Flags().BoolVar(&runStrictQuestions, "strict-questions", false, "Enforce the interview question count range")
	runCommand.Flags().BoolVar(&runAutoApprove, "auto-approve", false, "Skip the gap analysis review prompt")
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := mergeConfig(runConfigPath, config.Config{
		Job:             runJob,
		JobURL:          runJobURL,
		Resume:          runResume,
		SourceDocuments: runSourceDocs,
		ArtifactsDir:    runArtifactsDir,
		MaxAuditRetries: runMaxAuditRetries,
		StrictQuestions: runStrictQuestions,
		AutoApprove:     runAutoApprove,
		APIKey:          runAPIKey,
		Verbose:         runVerbose,
	})
	if err != nil {
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

	machine := buildMachine(built, cfg)

	hooks := workflow.Hooks{
		OnState: func(s workflow.State) {
			fmt.Printf("==> %s (%d%%)\n", s, workflow.Progress(s))
		},
	}
	var printer *observability.Printer
	if cfg.Verbose {
		printer = observability.NewPrinter(os.Stdout)
		hooks.OnLog = func(line string) { log.Printf("[pipeline] %s", line) }
		hooks.OnStageComplete = func(stage string, out map[string]any) {
			printer.PrintStage(stage, out)
		}
	}

	appr := workflow.Approvals{GapAnalysisApproved: cfg.AutoApprove}
	pctx := workflow.PipelineContext{}
	reader := bufio.NewReader(os.Stdin)

	var outcome workflow.Outcome
	for {
		outcome = machine.Run(ctx, in, appr, pctx, hooks)
		if !outcome.Paused {
			break
		}

		switch outcome.State {
		case workflow.StateGapAnalysisReview:
			approved, err := promptGapApproval(reader, pctx)
			if err != nil {
				return err
			}
			if !approved {
				fmt.Println("Aborted at gap analysis review.")
				return nil
			}
			appr.GapAnalysisApproved = true
		case workflow.StateInterrogationReview:
			answers, err := promptAnswers(reader, pctx)
			if err != nil {
				return err
			}
			appr.InterviewAnswers = answers
		default:
			return fmt.Errorf("unexpected pause state %s", outcome.State)
		}
	}

	if outcome.State == workflow.StateFailed {
		return fmt.Errorf("pipeline failed at %s: %s", outcome.FailedStage, outcome.ErrorMessage)
	}

	if printer != nil {
		printer.PrintAuditOutcome(outcome.Audit)
		printer.PrintExecutiveBrief(outcome.ExecutiveBrief)
	}

	return exportResult(cfg, in, outcome)
}

func loadInputs(ctx context.Context, cfg config.Config) (workflow.Inputs, error) {
	var in workflow.Inputs

	switch {
	case cfg.Job != "":
		data, err := os.ReadFile(cfg.Job)
		if err != nil {
			return in, fmt.Errorf("failed to read job posting: %w", err)
		}
		in.JobDescription = string(data)
	case cfg.JobURL != "":
		text, err := ingest.FetchPosting(ctx, cfg.JobURL)
		if err != nil {
			return in, err
		}
		in.JobDescription = text
	default:
		return in, fmt.Errorf("either --job or --job-url is required")
	}

	if cfg.Resume == "" {
		return in, fmt.Errorf("--resume is required")
	}
	resume, err := ingest.ReadResume(cfg.Resume)
	if err != nil {
		return in, err
	}
	in.Resume = resume

	if cfg.SourceDocuments != "" {
		data, err := os.ReadFile(cfg.SourceDocuments)
		if err != nil {
			return in, fmt.Errorf("failed to read source documents: %w", err)
		}
		in.SourceDocuments = string(data)
	}

	return in, nil
}

// promptGapApproval shows the gap analysis summary and asks whether to
// continue.
func promptGapApproval(reader *bufio.Reader, pctx workflow.PipelineContext) (bool, error) {
	if gap, ok := pctx["gap_analysis"]; ok {
		fmt.Printf("\nFit score: %v\n", gap["fit_score"])
		printList("Gaps", gap["gaps"])
		printList("Blockers", gap["blockers"])
	}

	fmt.Print("\nProceed with this application? [y/N]: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read approval: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// promptAnswers collects one answer per generated interview question.
func promptAnswers(reader *bufio.Reader, pctx workflow.PipelineContext) ([]workflow.Answer, error) {
	interOut, ok := pctx["interrogation"]
	if !ok {
		return nil, fmt.Errorf("interrogation output missing from context")
	}
	questions, _ := interOut["questions"].([]any)
	if len(questions) == 0 {
		return nil, fmt.Errorf("no interview questions to answer")
	}

	fmt.Printf("\nAnswer the following %d questions (blank to skip):\n", len(questions))
	var answers []workflow.Answer
	for i, q := range questions {
		text := ""
		if qm, ok := q.(map[string]any); ok {
			text, _ = qm["question"].(string)
		}
		fmt.Printf("\n[%d] %s\n> ", i+1, text)
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read answer: %w", err)
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			continue
		}
		answers = append(answers, workflow.Answer{Question: text, Answer: answer})
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("at least one answer is required to continue")
	}
	return answers, nil
}

func exportResult(cfg config.Config, in workflow.Inputs, outcome workflow.Outcome) error {
	j := job.New(in.JobDescription, in.Resume, in.SourceDocuments, cfg.Models)
	j.State = outcome.State
	j.Success = outcome.Success
	j.FinalResume = outcome.Resume
	j.CoverLetter = outcome.CoverLetter
	j.AuditReport = outcome.Audit
	j.ExecutiveBrief = outcome.ExecutiveBrief

	written, err := artifacts.NewStore(cfg.ArtifactsDir).Export(j)
	if err != nil {
		return err
	}

	fmt.Println("\nDone.")
	if outcome.Audit != nil {
		fmt.Printf("Audit: %s (retries: %d)\n", outcome.Audit.FinalStatus, outcome.Audit.RetryCount)
		if outcome.Audit.AuditFailed {
			fmt.Println("Warning: documents were produced but did not pass audit. Review before sending.")
		}
	}
	if decision, ok := outcome.ExecutiveBrief["decision"].(map[string]any); ok {
		brief, _ := json.MarshalIndent(decision, "", "  ")
		fmt.Printf("Decision:\n%s\n", brief)
	}
	for kind, path := range written {
		fmt.Printf("  %s: %s\n", kind, path)
	}
	return nil
}

func printList(label string, v any) {
	items, _ := v.([]any)
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, item := range items {
		fmt.Printf("  - %v\n", item)
	}
}
