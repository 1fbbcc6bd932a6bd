package providers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ibeckermayer/redditpersona/internal/types"
)

var (
	fencedArray = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*?\\])\\s*\\n?```")
	bareArray   = regexp.MustCompile(`(?s)(\[.*\])`)
)

// EntityResult is the JSON shape every provider answers with
type EntityResult struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// ParseEntities parses raw JSON bytes from a provider into entities.
// Each provider is responsible for assembling the complete JSON before calling this.
func ParseEntities(jsonBytes []byte) ([]types.Entity, error) {
	var results []EntityResult
	if err := json.Unmarshal(jsonBytes, &results); err != nil {
		return nil, fmt.Errorf("failed to parse entity JSON: %w (response was: %.500s)", err, string(jsonBytes))
	}

	entities := make([]types.Entity, 0, len(results))
	for _, r := range results {
		if r.Text == "" {
			continue
		}
		entities = append(entities, types.Entity{
			Text:  r.Text,
			Label: strings.ToUpper(strings.TrimSpace(r.Label)),
		})
	}
	return entities, nil
}

// extractJSON pulls a JSON array out of model output that may be wrapped in a
// markdown code block or surrounded by prose.
func extractJSON(text string) string {
	if m := fencedArray.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	if m := bareArray.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return text
}

// buildPrompt constructs the LLM prompt for entity recognition
func buildPrompt(text string, labels []string) string {
	var sb strings.Builder

	sb.WriteString("You are a named entity recognizer. Extract named entities from the text below, ")
	sb.WriteString("the way spaCy's English pipeline would.\n\n")

	sb.WriteString("## Labels\n")
	if len(labels) == 0 {
		sb.WriteString("Use spaCy's OntoNotes label names (GPE, ORG, PERSON, NORP, LOC, ...).\n")
	} else {
		sb.WriteString(fmt.Sprintf("Only return entities with these spaCy labels: %s\n", strings.Join(labels, ", ")))
		sb.WriteString("GPE = countries, cities, states. ORG = companies, agencies, institutions. ")
		sb.WriteString("PERSON = people. NORP = nationalities, religious or political groups.\n")
	}

	sb.WriteString("\n## Rules\n")
	sb.WriteString("- Return one element per mention, in the order the mentions appear. Repeat an entity each time it is mentioned.\n")
	sb.WriteString("- Copy the entity text exactly as written.\n")
	sb.WriteString("- Return an empty array if there are no entities.\n\n")

	sb.WriteString("IMPORTANT: Respond with ONLY a valid JSON array. No markdown, no code blocks, no explanation - just the raw JSON starting with [ and ending with ].\n\n")
	sb.WriteString("Example structure:\n")
	sb.WriteString(`[{"text": "Berlin", "label": "GPE"}, {"text": "Google", "label": "ORG"}]`)
	sb.WriteString("\n\n## Text\n\n")
	sb.WriteString(text)
	sb.WriteString("\n")

	return sb.String()
}
