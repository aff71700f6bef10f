package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/common"
	"github.com/i474232898/virtual-mascot/internal/httpclient"
)

// Rendering selects how a prompt is flattened into completion text.
type Rendering string

const (
	RenderTranscript Rendering = "transcript"
	RenderFlat       Rendering = "flat"
)

// DefaultMaxPromptRunes bounds the prompt sent to the completion server.
const DefaultMaxPromptRunes = 512

// Sampling holds the completion parameters.
type Sampling struct {
	NPredict      int     `json:"n_predict"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	TopK          int     `json:"top_k"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

var DefaultSampling = Sampling{
	NPredict:      120,
	Temperature:   0.7,
	TopP:          0.9,
	TopK:          50,
	RepeatPenalty: 1.3,
}

// CompletionGenerator talks to a llama.cpp-style /completion endpoint.
type CompletionGenerator struct {
	client    *httpclient.Client
	backoff   httpclient.BackoffConfig
	url       string
	rendering Rendering
	maxRunes  int
	sampling  Sampling
}

type CompletionOption func(*CompletionGenerator)

func WithRendering(r Rendering) CompletionOption {
	return func(g *CompletionGenerator) {
		if r != "" {
			g.rendering = r
		}
	}
}

func WithMaxPromptRunes(n int) CompletionOption {
	return func(g *CompletionGenerator) {
		if n > 0 {
			g.maxRunes = n
		}
	}
}

// WithBackoff overrides the retry policy.
func WithBackoff(b httpclient.BackoffConfig) CompletionOption {
	return func(g *CompletionGenerator) {
		g.backoff = b
	}
}

func WithSampling(s Sampling) CompletionOption {
	return func(g *CompletionGenerator) {
		g.sampling = s
	}
}

// NewCompletionGenerator creates a generator posting to baseURL + "/completion".
func NewCompletionGenerator(client *http.Client, baseURL string, opts ...CompletionOption) *CompletionGenerator {
	g := &CompletionGenerator{
		backoff:   httpclient.DefaultBackoff,
		url:       strings.TrimRight(baseURL, "/") + "/completion",
		rendering: RenderTranscript,
		maxRunes:  DefaultMaxPromptRunes,
		sampling:  DefaultSampling,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.client = httpclient.New("completion", client, g.backoff)
	return g
}

type completionRequest struct {
	Prompt string   `json:"prompt"`
	Stop   []string `json:"stop"`
	Sampling
}

// Render returns the text sent to the server, tail-truncated to the rune budget.
func (g *CompletionGenerator) Render(p chat.Prompt) string {
	var text string
	switch g.rendering {
	case RenderFlat:
		text = strings.Join(p.Flat(), "\n")
	default:
		text = p.Transcript()
	}
	return common.TailRunes(text, g.maxRunes)
}

// Generate implements chat.Generator.
func (g *CompletionGenerator) Generate(ctx context.Context, p chat.Prompt) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:   g.Render(p),
		Stop:     stopTags,
		Sampling: g.sampling,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %w", chat.ErrGeneration, err)
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, g.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := g.client.Do(ctx, buildRequest)
	if err != nil {
		return "", fmt.Errorf("%w: %w", chat.ErrGeneration, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decoding completion: %w", chat.ErrGeneration, err)
	}

	reply := CleanReply(payload.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", chat.ErrGeneration)
	}
	return reply, nil
}

var _ chat.Generator = (*CompletionGenerator)(nil)
