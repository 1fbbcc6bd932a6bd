// Package report turns extracted signals into a persona report and renders
// it as a standalone HTML page.
package report

import (
	"strings"
	"time"

	"github.com/ibeckermayer/redditpersona/internal/analyzer"
	"github.com/ibeckermayer/redditpersona/internal/lexicon"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

// Report shape
const (
	MaxComplaints = 3
	MaxSamples    = 3
	ExcerptLength = 160 // runes kept before the ellipsis
)

// Composer builds Reports. It holds no state between calls.
type Composer struct {
	matcher *lexicon.Matcher
	now     func() time.Time
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithClock replaces time.Now as the source of GeneratedAt.
func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) {
		c.now = now
	}
}

// NewComposer creates a composer that flags complaints with matcher.
// A nil matcher uses the built-in lexicon.
func NewComposer(matcher *lexicon.Matcher, opts ...ComposerOption) *Composer {
	if matcher == nil {
		matcher = lexicon.Default().Compile()
	}
	c := &Composer{matcher: matcher, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose assembles the presentation object for one user.
func (c *Composer) Compose(username string, comments, submissions []types.RawItem, signals types.SignalSet) types.Report {
	locations := signals.Entities
	if locations == nil {
		locations = []string{}
	}

	return types.Report{
		Username:    username,
		GeneratedAt: c.now().UTC(),
		Tone:        analyzer.ClassifyTone(signals.Sentiment),
		Locations:   locations,
		Signals:     signals,
		Complaints:  excerpts(c.Complaints(comments), MaxComplaints),
		Samples:     excerpts(comments, MaxSamples),
	}
}

// Complaints returns the comments whose body contains a complaint keyword,
// in fetch order.
func (c *Composer) Complaints(comments []types.RawItem) []types.RawItem {
	var out []types.RawItem
	for _, item := range comments {
		if c.matcher.IsComplaint(item.Body) {
			out = append(out, item)
		}
	}
	return out
}

func excerpts(items []types.RawItem, limit int) []types.Excerpt {
	out := make([]types.Excerpt, 0, min(len(items), limit))
	for _, item := range items {
		if len(out) == limit {
			break
		}
		out = append(out, types.Excerpt{
			Text:      Excerpt(item.Body),
			Permalink: item.Permalink,
		})
	}
	return out
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Excerpt trims body, flattens line breaks to spaces, keeps the first
// ExcerptLength runes and appends "..." whether or not anything was cut.
func Excerpt(body string) string {
	text := lineBreaks.Replace(strings.TrimSpace(body))
	if runes := []rune(text); len(runes) > ExcerptLength {
		text = string(runes[:ExcerptLength])
	}
	return text + "..."
}
