package types

import "time"

// ItemKind distinguishes comments from submissions
type ItemKind string

const (
	KindComment    ItemKind = "comment"
	KindSubmission ItemKind = "submission"
)

// RawItem represents a fetched comment or submission.
// Submissions carry their title and self-text joined by a space in Body.
type RawItem struct {
	Kind      ItemKind  `json:"kind"`
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Permalink string    `json:"permalink"`
	Community string    `json:"community"`
	CreatedAt time.Time `json:"created_at"`
}

// Corpus is everything fetched for one user, in fetch order
type Corpus struct {
	Username    string    `json:"username"`
	Comments    []RawItem `json:"comments"`
	Submissions []RawItem `json:"submissions"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Texts returns comment bodies followed by submission bodies.
func (c *Corpus) Texts() []string {
	texts := make([]string, 0, len(c.Comments)+len(c.Submissions))
	for _, item := range c.Comments {
		texts = append(texts, item.Body)
	}
	for _, item := range c.Submissions {
		texts = append(texts, item.Body)
	}
	return texts
}

// IsEmpty reports whether there is nothing to build a report from.
// Only comments are considered: a submissions-only profile counts as empty.
func (c *Corpus) IsEmpty() bool {
	return len(c.Comments) == 0
}

// Entity is a named entity returned by an entity recognizer
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// CommunityCount is the number of comments a user left in one community
type CommunityCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SignalSet holds the signals derived from a corpus
type SignalSet struct {
	Entities    []string         `json:"entities"`
	Sentiment   int              `json:"sentiment"`
	Communities []CommunityCount `json:"communities"`
}

// Tone is the overall tone label of a report
type Tone string

const (
	TonePositive Tone = "Positive"
	ToneNegative Tone = "Negative"
	ToneMixed    Tone = "Mixed"
)

// Excerpt is a display-ready comment quote
type Excerpt struct {
	Text      string `json:"text"`
	Permalink string `json:"permalink"`
}

// Report is the presentation object consumed by the renderer
type Report struct {
	Username    string    `json:"username"`
	GeneratedAt time.Time `json:"generated_at"`
	Tone        Tone      `json:"tone"`
	Locations   []string  `json:"locations"`
	Signals     SignalSet `json:"signals"`
	Complaints  []Excerpt `json:"complaints"`
	Samples     []Excerpt `json:"samples"`
}
