package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ibeckermayer/redditpersona/internal/types"
)

// DefaultSpacyModel is used when entities.model is empty
const DefaultSpacyModel = "en_core_web_sm"

// SpacyProvider calls a spaCy HTTP service (spacy-services / spacy-api-docker
// compatible) that exposes POST /ent.
type SpacyProvider struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewSpacyProvider creates a new spaCy provider
func NewSpacyProvider(endpoint, model string) *SpacyProvider {
	if model == "" {
		model = DefaultSpacyModel
	}
	return &SpacyProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client: &http.Client{
			Timeout: 60 * time.Second, // large corpora take a while to parse
		},
	}
}

// spacyRequest represents the request body for the /ent endpoint
type spacyRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// spacyEntity is one element of the /ent response. spacy-services names the
// label "type"; some forks use "label".
type spacyEntity struct {
	Text  string `json:"text"`
	Type  string `json:"type"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (e spacyEntity) label() string {
	if e.Label != "" {
		return e.Label
	}
	return e.Type
}

// Recognize sends text to the spaCy service
func (p *SpacyProvider) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	jsonBody, err := json.Marshal(spacyRequest{Text: text, Model: p.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/ent", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call spaCy service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spaCy service returned status %d: %.200s", resp.StatusCode, string(body))
	}

	var ents []spacyEntity
	if err := json.Unmarshal(body, &ents); err != nil {
		return nil, fmt.Errorf("failed to parse spaCy response: %w", err)
	}

	entities := make([]types.Entity, 0, len(ents))
	for _, e := range ents {
		if e.Text == "" {
			continue
		}
		entities = append(entities, types.Entity{Text: e.Text, Label: e.label()})
	}
	return entities, nil
}
