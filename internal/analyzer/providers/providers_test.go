package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/redditpersona/internal/types"
)

func TestParseEntities(t *testing.T) {
	ents, err := ParseEntities([]byte(`[{"text":"Berlin","label":"gpe"},{"text":"","label":"ORG"},{"text":"Alice","label":" PERSON "}]`))
	require.NoError(t, err)
	assert.Equal(t, []types.Entity{{Text: "Berlin", Label: "GPE"}, {Text: "Alice", Label: "PERSON"}}, ents)

	_, err = ParseEntities([]byte(`not json`))
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `[{"text":"a"}]`, `[{"text":"a"}]`},
		{"fenced", "```json\n[{\"text\":\"a\"}]\n```", `[{"text":"a"}]`},
		{"prose", `Here you go: [] hope it helps`, `[]`},
		{"nothing", `no array`, `no array`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestBuildPromptIncludesLabelsAndText(t *testing.T) {
	p := buildPrompt("I moved to Berlin", []string{"GPE", "ORG"})
	assert.Contains(t, p, "GPE, ORG")
	assert.True(t, strings.HasSuffix(p, "I moved to Berlin\n"))
}

func TestSpacyProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ent", r.URL.Path)

		var req spacyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "I live in Berlin", req.Text)
		assert.Equal(t, DefaultSpacyModel, req.Model)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"start":10,"end":16,"type":"GPE","text":"Berlin"}]`))
	}))
	defer server.Close()

	ents, err := NewSpacyProvider(server.URL+"/", "").Recognize(context.Background(), "I live in Berlin")
	require.NoError(t, err)
	assert.Equal(t, []types.Entity{{Text: "Berlin", Label: "GPE"}}, ents)
}

func TestSpacyProviderPrefersLabelField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"text":"Acme","label":"ORG"},{"text":"Lisbon","type":"GPE"},{"text":"","type":"GPE"}]`))
	}))
	defer server.Close()

	ents, err := NewSpacyProvider(server.URL, "").Recognize(context.Background(), "Acme in Lisbon")
	require.NoError(t, err)
	assert.Equal(t, []types.Entity{{Text: "Acme", Label: "ORG"}, {Text: "Lisbon", Label: "GPE"}}, ents)
}

func TestSpacyProviderStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewSpacyProvider(server.URL, "en_core_web_lg").Recognize(context.Background(), "text")
	assert.ErrorContains(t, err, "status 500")
}

func TestAnthropicProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "I live in Berlin")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "msg_1",
			"type":  "message",
			"role":  "assistant",
			"model": DefaultAnthropicModel,
			"content": []map[string]any{
				{"type": "text", "text": `{"text": "Berlin", "label": "GPE"}]`},
			},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer server.Close()

	p := NewAnthropicProvider("key", "", []string{"GPE"}, option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	ents, err := p.Recognize(context.Background(), "I live in Berlin")
	require.NoError(t, err)
	assert.Equal(t, []types.Entity{{Text: "Berlin", Label: "GPE"}}, ents)
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "", "", "", nil)
	assert.Error(t, err)
}

func TestNoneProvider(t *testing.T) {
	ents, err := NoneProvider{}.Recognize(context.Background(), "Berlin")
	assert.NoError(t, err)
	assert.Empty(t, ents)
}

type countingRecognizer struct {
	calls int
	err   error
}

func (c *countingRecognizer) Recognize(_ context.Context, text string) ([]types.Entity, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []types.Entity{{Text: text, Label: "GPE"}}, nil
}

func TestCachedMemoizesByText(t *testing.T) {
	next := &countingRecognizer{}
	c := NewCached(next, time.Hour)

	for range 3 {
		ents, err := c.Recognize(context.Background(), "Berlin")
		require.NoError(t, err)
		assert.Equal(t, "Berlin", ents[0].Text)
	}
	_, err := c.Recognize(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 2, c.Len())
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	next := &countingRecognizer{err: errors.New("down")}
	c := NewCached(next, time.Hour)

	_, err := c.Recognize(context.Background(), "Berlin")
	assert.Error(t, err)
	_, err = c.Recognize(context.Background(), "Berlin")
	assert.Error(t, err)

	assert.Equal(t, 2, next.calls)
	assert.Zero(t, c.Len())
}
