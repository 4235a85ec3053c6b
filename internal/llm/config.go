// Package llm provides the LLM client abstraction and per-stage model
// routing. The pipeline treats model selection as configuration: the
// orchestrator receives an explicit Config at construction time, never a
// process-wide default.
package llm

// Provider represents an LLM provider.
type Provider string

// Provider constants define supported LLM providers.
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI provider (future)
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic is the Anthropic/Claude provider (future)
	ProviderAnthropic Provider = "anthropic"
)

// Config holds the model routing for the pipeline: which model serves which
// stage, plus a default for stages without an explicit entry.
type Config struct {
	Provider     Provider
	Models       map[string]string // stage name -> model id
	DefaultModel string
}

// DefaultConfig returns the default Gemini routing. Heavyweight reasoning
// stages run on the pro model, mechanical ones on flash.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderGemini,
		DefaultModel: "gemini-2.5-flash",
		Models: map[string]string{
			"gap_analysis":        "gemini-2.5-pro",
			"interrogation":       "gemini-2.5-flash",
			"differentiation":     "gemini-2.5-flash",
			"tailoring":           "gemini-2.5-pro",
			"ats_optimization":    "gemini-2.5-flash",
			"audit":               "gemini-2.5-pro",
			"executive_synthesis": "gemini-2.5-flash",
			"commander":           "gemini-2.5-flash-lite",
		},
	}
}

// ModelFor returns the model id routed to a stage.
func (c *Config) ModelFor(stage string) string {
	if model, ok := c.Models[stage]; ok {
		return model
	}
	return c.DefaultModel
}

// WithModel returns a copy of the Config with one stage rerouted.
func (c *Config) WithModel(stage, model string) *Config {
	cp := &Config{
		Provider:     c.Provider,
		DefaultModel: c.DefaultModel,
		Models:       make(map[string]string, len(c.Models)+1),
	}
	for k, v := range c.Models {
		cp.Models[k] = v
	}
	cp.Models[stage] = model
	return cp
}
