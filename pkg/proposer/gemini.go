// pkg/proposer/gemini.go
package proposer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/rajansavani/csv-cleaner/pkg/profile"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiSource proposes plans by prompting a Gemini model with the
// dataset profile and requesting JSON-only output.
type GeminiSource struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiSource builds a Gemini-backed plan source. The model name
// defaults to a fast generation model when empty.
func NewGeminiSource(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiSource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiSource{client: client, model: model, logger: logger}, nil
}

func (g *GeminiSource) Name() string { return fmt.Sprintf("gemini:%s", g.model) }

// Propose prompts the model with the profile and returns its raw JSON
// output. The caller decodes and validates; nothing here is trusted.
func (g *GeminiSource) Propose(ctx context.Context, prof *profile.Profile) ([]byte, error) {
	prompt, err := userPrompt(prof)
	if err != nil {
		return nil, &SourceError{Source: g.Name(), Reason: "failed to build prompt", Err: err}
	}

	g.logger.Debug("requesting plan proposal",
		zap.String("model", g.model),
		zap.Int("columns", prof.ColumnCount),
		zap.Int("rows", prof.RowCount))

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.2),
	})
	if err != nil {
		return nil, &SourceError{Source: g.Name(), Reason: "generation request failed", Err: err}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, &SourceError{Source: g.Name(), Reason: "model returned no content"}
	}
	return []byte(stripFences(text)), nil
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one despite the response MIME type.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
