package report

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/redditpersona/internal/types"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func comment(id, body string) types.RawItem {
	return types.RawItem{
		Kind:      types.KindComment,
		ID:        id,
		Body:      body,
		Permalink: "/r/test/comments/x/y/" + id + "/",
		Community: "test",
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "0123456789", "0123456789..."},
		{"empty", "", "..."},
		{"trimmed", "  hello  \n", "hello..."},
		{"newlines", "a\nb\r\nc\rd", "a b c d..."},
		{"exact", strings.Repeat("x", 160), strings.Repeat("x", 160) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excerpt(tt.in))
		})
	}
}

func TestExcerptTruncatesLongBodies(t *testing.T) {
	got := Excerpt(strings.Repeat("a", 10000))
	assert.Equal(t, strings.Repeat("a", 160)+"...", got)
}

func TestExcerptCountsRunes(t *testing.T) {
	got := Excerpt(strings.Repeat("ü", 200))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 163, utf8.RuneCountInString(got))
}

func TestComposeComplaints(t *testing.T) {
	comments := []types.RawItem{
		comment("1", "I hate mondays"),
		comment("2", "what a lovely day"),
		comment("3", "I don't like it"),
		comment("4", "This SUCKS"),
		comment("5", "Terrible service"),
		comment("6", "I can't even"),
	}

	rep := NewComposer(nil, WithClock(fixedClock)).Compose("alice", comments, nil, types.SignalSet{})

	want := []types.Excerpt{
		{Text: "I hate mondays...", Permalink: "/r/test/comments/x/y/1/"},
		{Text: "I don't like it...", Permalink: "/r/test/comments/x/y/3/"},
		{Text: "This SUCKS...", Permalink: "/r/test/comments/x/y/4/"},
	}
	if diff := cmp.Diff(want, rep.Complaints); diff != "" {
		t.Errorf("complaints mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeSamplesAndTone(t *testing.T) {
	comments := []types.RawItem{
		comment("1", "first"),
		comment("2", "second"),
		comment("3", "third"),
		comment("4", "fourth"),
	}
	signals := types.SignalSet{
		Entities:    []string{"Berlin", "Google"},
		Sentiment:   7,
		Communities: []types.CommunityCount{{Name: "test", Count: 4}},
	}

	rep := NewComposer(nil, WithClock(fixedClock)).Compose("alice", comments, nil, signals)

	assert.Equal(t, "alice", rep.Username)
	assert.Equal(t, fixedNow, rep.GeneratedAt)
	assert.Equal(t, types.TonePositive, rep.Tone)
	assert.Equal(t, []string{"Berlin", "Google"}, rep.Locations)
	assert.Equal(t, signals, rep.Signals)
	require.Len(t, rep.Samples, 3)
	assert.Equal(t, "third...", rep.Samples[2].Text)
	assert.Empty(t, rep.Complaints)
}

func TestComposeNilEntities(t *testing.T) {
	rep := NewComposer(nil).Compose("bob", []types.RawItem{comment("1", "hi")}, nil, types.SignalSet{Sentiment: -6})
	assert.NotNil(t, rep.Locations)
	assert.Equal(t, types.ToneNegative, rep.Tone)
	assert.Equal(t, time.UTC, rep.GeneratedAt.Location())
}

func sampleReport() types.Report {
	comments := []types.RawItem{
		comment("1", "I hate <script>alert(1)</script> traffic"),
		comment("2", "Berlin is great"),
	}
	signals := types.SignalSet{
		Entities:  []string{"Berlin", "AT&T"},
		Sentiment: 0,
		Communities: []types.CommunityCount{
			{Name: "berlin", Count: 2},
			{Name: "golang", Count: 1},
		},
	}
	return NewComposer(nil, WithClock(fixedClock)).Compose("alice", comments, nil, signals)
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRenderLayout(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(sampleReport())
	require.NoError(t, err)
	doc := parse(t, out)

	assert.Equal(t, "Reddit Persona - u/alice", doc.Find("title").Text())
	assert.Contains(t, doc.Find("h1").Text(), "u/alice")
	assert.Contains(t, out, "<strong>Generated:</strong> 2025-03-14 09:26 UTC")
	assert.Contains(t, doc.Find("p").Text(), "Location clues: Berlin, AT&T")
	assert.Contains(t, doc.Find("p").Text(), "Overall tone: Mixed")
	assert.Contains(t, doc.Find("p").Text(), "Sentiment Score: 0")

	var subs []string
	doc.Find("ul li").Each(func(_ int, s *goquery.Selection) {
		subs = append(subs, s.Text())
	})
	assert.Equal(t, []string{"r/berlin", "r/golang"}, subs)

	// one complaint plus two samples
	quotes := doc.Find("blockquote")
	require.Equal(t, 3, quotes.Length())
	href, ok := quotes.Eq(1).Find("a").Attr("href")
	require.True(t, ok)
	assert.Equal(t, "https://reddit.com/r/test/comments/x/y/1/", href)
	assert.Equal(t, "View", quotes.Eq(1).Find("a").Text())

	assert.Contains(t, doc.Find("footer").Text(), "Reddit persona builder • 2025")
}

func TestRenderEscapesUserText(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(sampleReport())
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Zero(t, parse(t, out).Find("script").Length())
}

func TestRenderRawHTML(t *testing.T) {
	r, err := NewRenderer(WithRawHTML(true))
	require.NoError(t, err)

	out, err := r.Render(sampleReport())
	require.NoError(t, err)
	assert.Contains(t, out, "<script>alert(1)</script>")
}

func TestRenderNoEntities(t *testing.T) {
	rep := sampleReport()
	rep.Locations = []string{}

	r, err := NewRenderer()
	require.NoError(t, err)
	out, err := r.Render(rep)
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>Location clues:</strong> Not found")
}

func TestRenderDeterministic(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	first, err := r.Render(sampleReport())
	require.NoError(t, err)
	second, err := r.Render(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlainText(t *testing.T) {
	text := PlainText(sampleReport())
	assert.Contains(t, text, "Reddit persona for u/alice")
	assert.Contains(t, text, "Most active in: r/berlin, r/golang")
	assert.Contains(t, text, "1. I hate <script>alert(1)</script> traffic...")
	assert.Contains(t, text, "https://reddit.com/r/test/comments/x/y/1/")
}
