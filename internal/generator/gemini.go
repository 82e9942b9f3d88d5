package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when GEMINI_MODEL is unset.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini is a TextModel backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini opens a Gemini client. Close it when done.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("generator: GEMINI_API_KEY is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("generator: gemini client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0.7)
	return &Gemini{client: client, model: m}, nil
}

// Generate implements TextModel. Text parts of the first candidate are
// concatenated.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content returned from Gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("unexpected response type from Gemini")
	}
	return b.String(), nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
