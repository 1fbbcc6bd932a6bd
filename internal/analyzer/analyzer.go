// Package analyzer derives persona signals (named entities, sentiment,
// favourite communities) from a user's fetched history.
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/redditpersona/internal/analyzer/providers"
	"github.com/ibeckermayer/redditpersona/internal/config"
	"github.com/ibeckermayer/redditpersona/internal/lexicon"
	"github.com/ibeckermayer/redditpersona/internal/logging"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

// Defaults for signal extraction
const (
	DefaultTopN = 5

	// MaxCommunities caps the favourite-communities list independently of
	// the entity top-N.
	MaxCommunities = 5

	// A sentiment score above PositiveThreshold is Positive, below
	// NegativeThreshold is Negative, anything else is Mixed.
	PositiveThreshold = 5
	NegativeThreshold = -5
)

// DefaultLabels are the entity labels kept as location and affiliation clues
var DefaultLabels = []string{"GPE", "ORG", "PERSON", "NORP"}

// Recognizer defines the interface for entity recognition providers
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]types.Entity, error)
}

// Analyzer extracts signals from a corpus
type Analyzer struct {
	recognizer Recognizer
	matcher    *lexicon.Matcher
	labels     map[string]bool
	topN       int
	batchSize  int
	log        *logrus.Entry
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLabels replaces the entity label allow-list.
func WithLabels(labels []string) Option {
	return func(a *Analyzer) {
		a.labels = labelSet(labels)
	}
}

// WithTopN sets how many entities are kept.
func WithTopN(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.topN = n
		}
	}
}

// WithBatchSize splits entity recognition into concurrent batches of size
// texts. Zero sends the whole corpus at once.
func WithBatchSize(size int) Option {
	return func(a *Analyzer) {
		a.batchSize = max(size, 0)
	}
}

// NewWithRecognizer creates an analyzer around an existing recognizer.
func NewWithRecognizer(recognizer Recognizer, matcher *lexicon.Matcher, opts ...Option) *Analyzer {
	if matcher == nil {
		matcher = lexicon.Default().Compile()
	}
	a := &Analyzer{
		recognizer: recognizer,
		matcher:    matcher,
		labels:     labelSet(DefaultLabels),
		topN:       DefaultTopN,
		log:        logging.For("analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// New creates a new analyzer with the appropriate recognizer based on config
func New(ctx context.Context, cfg config.EntitiesConfig, matcher *lexicon.Matcher) (*Analyzer, error) {
	recognizer, err := NewRecognizer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithTopN(cfg.TopN), WithBatchSize(cfg.BatchSize)}
	if len(cfg.Labels) > 0 {
		opts = append(opts, WithLabels(cfg.Labels))
	}
	return NewWithRecognizer(recognizer, matcher, opts...), nil
}

// NewRecognizer builds the provider named by cfg.Provider, wrapped in a
// result cache when cfg.CacheTTLMinutes is positive.
func NewRecognizer(ctx context.Context, cfg config.EntitiesConfig) (Recognizer, error) {
	var recognizer providers.Recognizer

	switch cfg.Provider {
	case config.ProviderSpacy:
		recognizer = providers.NewSpacyProvider(cfg.Endpoint, cfg.Model)
	case config.ProviderAnthropic:
		recognizer = providers.NewAnthropicProvider(cfg.APIKey, cfg.Model, cfg.Labels)
	case config.ProviderGemini:
		p, err := providers.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, "", cfg.Labels)
		if err != nil {
			return nil, err
		}
		recognizer = p
	case config.ProviderNone:
		return providers.NoneProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown entity provider: %s", cfg.Provider)
	}

	if cfg.CacheTTLMinutes > 0 {
		recognizer = providers.NewCached(recognizer, cfg.CacheTTL())
	}
	return recognizer, nil
}

// Extract derives the signal set for a corpus: top entities and sentiment
// over every comment and submission body, top communities over comments.
// A failing recognizer degrades to no entities rather than failing the run.
func (a *Analyzer) Extract(ctx context.Context, corpus *types.Corpus) types.SignalSet {
	texts := corpus.Texts()

	entities, err := a.TopEntities(ctx, texts)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"user":  corpus.Username,
			"error": err,
		}).Warn("Entity recognition failed, continuing without entities")
		entities = []string{}
	}

	signals := types.SignalSet{
		Entities:    entities,
		Sentiment:   a.Sentiment(strings.Join(texts, " ")),
		Communities: TopCommunities(corpus.Comments, MaxCommunities),
	}

	a.log.WithFields(logrus.Fields{
		"user":        corpus.Username,
		"entities":    len(signals.Entities),
		"sentiment":   signals.Sentiment,
		"communities": len(signals.Communities),
	}).Debug("Extracted signals")

	return signals
}

// TopEntities recognizes entities in texts joined by single spaces and
// returns the most frequent allowed surface forms, ties in first-seen order.
func (a *Analyzer) TopEntities(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	batches := [][]string{texts}
	if a.batchSize > 0 && len(texts) > a.batchSize {
		batches = batches[:0]
		for i := 0; i < len(texts); i += a.batchSize {
			batches = append(batches, texts[i:min(i+a.batchSize, len(texts))])
		}
	}

	// Pre-allocate results slice (one slice per batch)
	results := make([][]types.Entity, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	for batchIdx, batch := range batches {
		g.Go(func() error {
			joined := strings.Join(batch, " ")
			if strings.TrimSpace(joined) == "" {
				return nil
			}
			ents, err := a.recognizer.Recognize(ctx, joined)
			if err != nil {
				return fmt.Errorf("failed to recognize batch %d: %w", batchIdx, err)
			}
			results[batchIdx] = ents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Flatten results in order
	var names []string
	for _, batchResult := range results {
		for _, e := range batchResult {
			if a.labels[e.Label] {
				names = append(names, e.Text)
			}
		}
	}

	ranked := rank(names, a.topN)
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Name
	}
	return out, nil
}

// Sentiment returns positive minus negative lexicon matches in text.
func (a *Analyzer) Sentiment(text string) int {
	return a.matcher.Score(text)
}

// ClassifyTone maps a sentiment score to a tone label.
func ClassifyTone(score int) types.Tone {
	switch {
	case score > PositiveThreshold:
		return types.TonePositive
	case score < NegativeThreshold:
		return types.ToneNegative
	default:
		return types.ToneMixed
	}
}

// TopCommunities counts comments per community and returns the n most
// frequent, ties in first-seen order.
func TopCommunities(comments []types.RawItem, n int) []types.CommunityCount {
	names := make([]string, 0, len(comments))
	for _, c := range comments {
		if c.Community != "" {
			names = append(names, c.Community)
		}
	}
	return rank(names, n)
}

// rank counts occurrences and sorts by descending count. The sort is stable
// over first-occurrence order, so equal counts keep the order they were seen in.
func rank(names []string, n int) []types.CommunityCount {
	counts := []types.CommunityCount{}
	index := make(map[string]int)
	for _, name := range names {
		if i, ok := index[name]; ok {
			counts[i].Count++
			continue
		}
		index[name] = len(counts)
		counts = append(counts, types.CommunityCount{Name: name, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[strings.ToUpper(strings.TrimSpace(l))] = true
	}
	return set
}
