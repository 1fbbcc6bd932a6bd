package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/ibeckermayer/redditpersona/internal/logging"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

// DefaultGeminiModel is used when entities.model is empty
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider recognizes entities with Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
	model  string
	labels []string
	log    *logrus.Entry
}

// NewGeminiProvider creates a Gemini provider. baseURL may be empty.
func NewGeminiProvider(ctx context.Context, apiKey, model, baseURL string, labels []string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  model,
		labels: labels,
		log:    logging.For("entities.gemini"),
	}, nil
}

// Recognize sends text to Gemini and parses the entity list it returns
func (p *GeminiProvider) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	prompt := buildPrompt(text, p.labels)

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	responseText := resp.Text()

	p.log.WithFields(logrus.Fields{
		"model":  p.model,
		"prompt": len(prompt),
		"reply":  len(responseText),
	}).Debug("Gemini entity exchange")

	if responseText == "" {
		return nil, errors.New("Gemini returned empty response")
	}
	return ParseEntities([]byte(extractJSON(responseText)))
}
