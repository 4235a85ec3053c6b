package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmatsuda/application-tailor/internal/agents"
	"github.com/jmatsuda/application-tailor/internal/config"
	"github.com/jmatsuda/application-tailor/internal/llm"
	"github.com/jmatsuda/application-tailor/internal/validation"
	"github.com/jmatsuda/application-tailor/internal/workflow"
)

// resolveAPIKey returns the Gemini API key from flag, config, or env.
func resolveAPIKey(cfg config.Config) (string, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return "", fmt.Errorf("API key is required (--api-key flag, config file, or GEMINI_API_KEY env var)")
	}
	return key, nil
}

// buildLLMConfig applies per-stage model overrides to the default routing.
func buildLLMConfig(models map[string]string) *llm.Config {
	llmCfg := llm.DefaultConfig()
	for stage, model := range models {
		llmCfg = llmCfg.WithModel(stage, model)
	}
	return llmCfg
}

// buildAgents constructs the LLM client and the full agent set.
func buildAgents(ctx context.Context, cfg config.Config) (llm.Client, map[string]*agents.Agent, error) {
	apiKey, err := resolveAPIKey(cfg)
	if err != nil {
		return nil, nil, err
	}

	client, err := llm.NewClient(ctx, buildLLMConfig(cfg.Models), apiKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	opts := validation.Options{StrictQuestionCount: cfg.StrictQuestions}
	built, err := agents.BuildAll(client, opts, agents.DefaultMaxRetries)
	if err != nil {
		client.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("failed to build agents: %w", err)
	}
	return client, built, nil
}

// executorsFrom exposes the agent set through the workflow's executor
// interface.
func executorsFrom(built map[string]*agents.Agent) map[string]workflow.StageExecutor {
	executors := make(map[string]workflow.StageExecutor, len(built))
	for stage, agent := range built {
		executors[stage] = agent
	}
	return executors
}

// buildMachine assembles the workflow machine from config.
func buildMachine(built map[string]*agents.Agent, cfg config.Config) *workflow.Machine {
	maxRetries := cfg.MaxAuditRetries
	if maxRetries == 0 {
		maxRetries = workflow.DefaultMaxAuditRetries
	}
	return workflow.NewMachine(executorsFrom(built), workflow.WithMaxAuditRetries(maxRetries))
}

// mergeConfig loads the optional config file and overlays flag values.
func mergeConfig(configPath string, flags config.Config) (config.Config, error) {
	if configPath == "" {
		if err := flags.Validate(); err != nil {
			return config.Config{}, err
		}
		return flags, nil
	}

	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}
	merged := flags.MergeWithDefaults(*fileCfg)
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}
