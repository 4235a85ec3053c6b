// Package agents wraps one LLM-backed pipeline capability: build a prompt
// from upstream context, invoke the model, validate the response, and retry
// on validation failure.
package agents

import (
	"context"
	"fmt"

	"github.com/jmatsuda/application-tailor/internal/llm"
	"github.com/jmatsuda/application-tailor/internal/validation"
)

// DefaultMaxRetries is the number of re-invocations after a failed attempt.
// The default gives two total attempts per stage.
const DefaultMaxRetries = 1

// Agent executes one pipeline stage.
type Agent struct {
	def        Definition
	invoker    llm.Invoker
	validator  validation.Validator
	maxRetries int
}

// New builds an agent for a stage definition. maxRetries < 0 selects
// DefaultMaxRetries.
func New(def Definition, invoker llm.Invoker, validator validation.Validator, maxRetries int) *Agent {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Agent{
		def:        def,
		invoker:    invoker,
		validator:  validator,
		maxRetries: maxRetries,
	}
}

// StageName returns the stage this agent serves.
func (a *Agent) StageName() string { return a.def.Stage }

// Execute produces one validated stage output from the invocation context.
// Missing required keys fail immediately without an LLM call. Validation
// failures and invocation errors are retried up to maxRetries additional
// times with no backoff; provider-level backoff is the client's concern.
func (a *Agent) Execute(ctx context.Context, in map[string]any) (map[string]any, error) {
	for _, key := range a.def.Required {
		if _, ok := in[key]; !ok {
			return nil, &MissingContextError{Stage: a.def.Stage, Key: key}
		}
	}

	prompt := BuildPrompt(a.def, in)

	attempts := a.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		raw, err := a.invoker.Invoke(ctx, prompt, a.def.Role)
		if err != nil {
			lastErr = fmt.Errorf("llm invocation failed: %w", err)
			continue
		}

		out, err := a.validator.Validate(raw)
		if err != nil {
			lastErr = err
			continue
		}
		return out, nil
	}

	return nil, &ExecutionError{Stage: a.def.Stage, Attempts: attempts, Err: lastErr}
}

// BuildAll constructs agents for every stage definition, binding each to
// the model its stage is routed to.
func BuildAll(client llm.Client, opts validation.Options, maxRetries int) (map[string]*Agent, error) {
	built := make(map[string]*Agent, len(Definitions))
	for stage, def := range Definitions {
		v, err := validation.ForStage(stage, opts)
		if err != nil {
			return nil, err
		}
		built[stage] = New(def, client.Stage(stage), v, maxRetries)
	}
	return built, nil
}
