// Package translate talks to the Google translate web endpoint.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/httpclient"
)

// DefaultBaseURL is the keyless endpoint used by the web widget.
const DefaultBaseURL = "https://translate.googleapis.com/translate_a/single"

// GoogleTranslator implements chat.Translator.
type GoogleTranslator struct {
	client  *httpclient.Client
	baseURL string
}

// NewGoogleTranslator creates a translator. An empty baseURL selects DefaultBaseURL.
func NewGoogleTranslator(client *http.Client, baseURL string) *GoogleTranslator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &GoogleTranslator{
		client:  httpclient.New("translate", client, httpclient.DefaultBackoff),
		baseURL: baseURL,
	}
}

// Translate translates text from source to target.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" || source == target {
		return text, nil
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("client", "gtx")
		values.Set("sl", source)
		values.Set("tl", target)
		values.Set("dt", "t")
		values.Set("q", text)

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := g.client.Do(ctx, buildRequest)
	if err != nil {
		return "", fmt.Errorf("%w: %w", chat.ErrTranslation, err)
	}
	defer resp.Body.Close()

	// The payload is a nested array: [[["translated","original",...],...],...].
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", chat.ErrTranslation, err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: empty response", chat.ErrTranslation)
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("%w: unexpected response shape: %w", chat.ErrTranslation, err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(seg[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty translation", chat.ErrTranslation)
	}
	return out, nil
}

var _ chat.Translator = (*GoogleTranslator)(nil)
