// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Inputs
	Job             string `json:"job,omitempty"`              // Path to job posting text file
	JobURL          string `json:"job_url,omitempty"`          // URL to fetch job posting from
	Resume          string `json:"resume,omitempty"`           // Path to resume (text, markdown or PDF)
	SourceDocuments string `json:"source_documents,omitempty"` // Path to supplementary source material

	// Behavior
	APIKey          string            `json:"api_key,omitempty"`           // Gemini API key
	Models          map[string]string `json:"models,omitempty"`            // Per-stage model overrides
	MaxAuditRetries int               `json:"max_audit_retries,omitempty"` // Audit loop retry bound
	StrictQuestions bool              `json:"strict_questions,omitempty"`  // Enforce the interview question count range
	AutoApprove     bool              `json:"auto_approve,omitempty"`      // Skip the gap analysis review pause
	Verbose         bool              `json:"verbose,omitempty"`           // Print detailed debug information

	// Persistence
	DatabaseURL  string `json:"database_url,omitempty"`  // PostgreSQL connection URL
	ArtifactsDir string `json:"artifacts_dir,omitempty"` // Directory for exported materials
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. Required fields
// are checked after flag merging, not here.
func (c *Config) Validate() error {
	if c.Job != "" && c.JobURL != "" {
		return fmt.Errorf("config error: 'job' and 'job_url' are mutually exclusive")
	}
	if c.MaxAuditRetries < 0 {
		return fmt.Errorf("config error: 'max_audit_retries' must be non-negative")
	}
	if c.Job != "" {
		if _, err := os.Stat(c.Job); os.IsNotExist(err) {
			return fmt.Errorf("config error: job file not found: %s", c.Job)
		}
	}
	if c.Resume != "" {
		if _, err := os.Stat(c.Resume); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.Resume)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults. Used to apply config file values under CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Job == "" {
		result.Job = defaults.Job
	}
	if result.JobURL == "" {
		result.JobURL = defaults.JobURL
	}
	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.SourceDocuments == "" {
		result.SourceDocuments = defaults.SourceDocuments
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Models == nil {
		result.Models = defaults.Models
	}
	if result.MaxAuditRetries == 0 {
		result.MaxAuditRetries = defaults.MaxAuditRetries
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ArtifactsDir == "" {
		result.ArtifactsDir = defaults.ArtifactsDir
	}
	if !result.StrictQuestions {
		result.StrictQuestions = defaults.StrictQuestions
	}
	if !result.AutoApprove {
		result.AutoApprove = defaults.AutoApprove
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}
	return result
}
