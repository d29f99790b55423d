package gensvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

// ErrEmptyText is returned when the generation service answers with nothing
// but whitespace. Such answers are never cached.
var ErrEmptyText = errors.New("empty generated text")

// TextGenerator produces text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PollinationsGenerator calls the Pollinations text API: GET {base}/{prompt}.
type PollinationsGenerator struct {
	baseURL string
	client  *http.Client
}

var _ TextGenerator = (*PollinationsGenerator)(nil)

// NewPollinationsGenerator creates a generator for baseURL. A nil client
// uses http.DefaultClient.
func NewPollinationsGenerator(baseURL string, client *http.Client) *PollinationsGenerator {
	if client == nil {
		client = http.DefaultClient
	}

	return &PollinationsGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Generate implements TextGenerator.
func (g *PollinationsGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+escape(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)

		return "", fmt.Errorf("unexpected status %d", resp.StatusCode) //nolint:err113
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if strings.TrimSpace(string(body)) == "" {
		return "", ErrEmptyText
	}

	return string(body), nil
}

// GenAIGenerator asks a Google GenAI model.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

var _ TextGenerator = (*GenAIGenerator)(nil)

// NewGenAIGenerator creates a GenAI client for apiKey. baseURL may be empty.
func NewGenAIGenerator(ctx context.Context, apiKey, model, baseURL string) (*GenAIGenerator, error) {
	//nolint:exhaustruct
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new genai client: %w", err)
	}

	return &GenAIGenerator{client: client, model: model}, nil
}

// Generate implements TextGenerator.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	return text, nil
}

// escape encodes s as a path segment, spaces included ("%20", never "+").
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
