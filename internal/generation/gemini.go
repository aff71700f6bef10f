package generation

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/i474232898/virtual-mascot/internal/chat"
)

const DefaultGeminiModel = "gemini-2.5-flash"

type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiGenerator produces replies with the Gemini API.
type GeminiGenerator struct {
	generate    generateContentFunc
	model       string
	temperature float32
	maxTokens   int32
}

// NewGeminiGenerator creates the client. An empty model selects DefaultGeminiModel.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is not configured", chat.ErrConfigMissing)
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{
		generate:    client.Models.GenerateContent,
		model:       model,
		temperature: float32(DefaultSampling.Temperature),
		maxTokens:   int32(DefaultSampling.NPredict),
	}, nil
}

// Contents maps the prompt onto alternating user/model turns.
func Contents(p chat.Prompt) []*genai.Content {
	out := make([]*genai.Content, 0, len(p.History)*2+1)
	for _, t := range p.History {
		out = append(out,
			genai.NewContentFromText(t.Input, genai.RoleUser),
			genai.NewContentFromText(t.Response, genai.RoleModel),
		)
	}
	return append(out, genai.NewContentFromText(p.Input, genai.RoleUser))
}

// Generate implements chat.Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, p chat.Prompt) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if strings.TrimSpace(p.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	resp, err := g.generate(ctx, g.model, Contents(p), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", chat.ErrGeneration, err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", chat.ErrGeneration)
	}
	return reply, nil
}

var _ chat.Generator = (*GeminiGenerator)(nil)
