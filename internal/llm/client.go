package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Invoker is the narrow interface a single agent needs: send a prompt with
// a role context, get raw text back. The pipeline core never touches
// provider SDKs or model names directly.
type Invoker interface {
	Invoke(ctx context.Context, prompt, roleContext string) (string, error)
}

// Client is an abstraction over LLM providers. Stage returns an Invoker
// bound to the model routed to that stage.
type Client interface {
	Stage(name string) Invoker
	Close() error
}

// NewClient creates a new LLM client based on configuration.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Stage returns an Invoker bound to the model routed to a stage.
func (c *GeminiClient) Stage(name string) Invoker {
	return &geminiInvoker{
		client: c.client,
		model:  c.config.ModelFor(name),
	}
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// geminiInvoker sends prompts to one Gemini model with the agent's role
// context installed as the system instruction.
type geminiInvoker struct {
	client *genai.Client
	model  string
}

func (g *geminiInvoker) Invoke(ctx context.Context, prompt, roleContext string) (string, error) {
	if g.model == "" {
		return "", fmt.Errorf("no model configured")
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.1) // Low temperature for consistent output
	if roleContext != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(roleContext)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
