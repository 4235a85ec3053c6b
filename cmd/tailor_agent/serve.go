package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmatsuda/application-tailor/internal/artifacts"
	"github.com/jmatsuda/application-tailor/internal/config"
	"github.com/jmatsuda/application-tailor/internal/db"
	"github.com/jmatsuda/application-tailor/internal/job"
	"github.com/jmatsuda/application-tailor/internal/server"
	"github.com/jmatsuda/application-tailor/internal/validation"
)

var (
	servePort         int
	serveArtifactsDir string
	serveStrict       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for creating tailoring jobs, streaming their events, resolving review pauses, and downloading finished materials.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveArtifactsDir, "artifacts-dir", "artifacts", "Directory for exported materials")
	serveCmd.Flags().BoolVar(&serveStrict, "strict-questions", false, "Enforce the interview question count range")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Config{
		APIKey:          os.Getenv("GEMINI_API_KEY"),
		StrictQuestions: serveStrict,
	}
	if v := os.Getenv("MAX_AUDIT_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid MAX_AUDIT_RETRIES: %q", v)
		}
		cfg.MaxAuditRetries = n
	}

	client, built, err := buildAgents(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	machine := buildMachine(built, cfg)

	var store job.Store = job.NewMemoryStore()
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		database, err := db.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		store = database
	}

	manager := job.NewManager(ctx, machine, store)

	expirationHours := 24
	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			expirationHours = n
		}
	}

	deps := server.Deps{
		Manager:   manager,
		Artifacts: artifacts.NewStore(serveArtifactsDir),
	}
	if commander, ok := built[validation.StageCommander]; ok {
		deps.Commander = commander
	}

	srv := server.New(server.Config{
		Port:               servePort,
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpirationHours: expirationHours,
	}, deps)

	return srv.Start()
}
