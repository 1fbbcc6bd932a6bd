package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/redditpersona/internal/logging"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

// DefaultAnthropicModel is used when entities.model is empty
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicProvider recognizes entities by asking Claude
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
	labels []string
	log    *logrus.Entry
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey, model string, labels []string, opts ...option.RequestOption) *AnthropicProvider {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{
		client: &client,
		model:  model,
		labels: labels,
		log:    logging.For("entities.anthropic"),
	}
}

// Recognize sends text to Claude and parses the entity list it returns
func (p *AnthropicProvider) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	prompt := buildPrompt(text, p.labels)

	// Prefill "[" so Claude continues with a bare JSON array
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock("[")),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call Claude API: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	p.log.WithFields(logrus.Fields{
		"model":  p.model,
		"prompt": len(prompt),
		"reply":  len(responseText),
	}).Debug("Claude entity exchange")

	if responseText == "" {
		return nil, errors.New("Claude returned empty response")
	}

	// The response continues from after the prefilled "["
	return ParseEntities([]byte(extractJSON("[" + responseText)))
}
