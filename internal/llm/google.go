package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kamilpajak/bugsy/internal/config"
)

// GoogleClient calls Gemini through the genai SDK with JSON output mode.
type GoogleClient struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewGoogleClient creates a Gemini client from cfg. A non-empty
// cfg.BaseURL overrides the API endpoint.
func NewGoogleClient(ctx context.Context, cfg config.LLM, httpClient *http.Client) (*GoogleClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GenAI client: %w", ErrConfiguration, err)
	}
	return &GoogleClient{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Generate requests a JSON-typed response for prompt.
func (c *GoogleClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(c.temperature)),
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if c.maxTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.maxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("%w: GenAI generate failed: %w", ErrBackend, err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response from model", ErrBackend)
	}
	return text, nil
}
