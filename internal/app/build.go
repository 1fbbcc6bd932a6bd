package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ibeckermayer/redditpersona/internal/analyzer"
	"github.com/ibeckermayer/redditpersona/internal/auth"
	"github.com/ibeckermayer/redditpersona/internal/browser"
	"github.com/ibeckermayer/redditpersona/internal/config"
	"github.com/ibeckermayer/redditpersona/internal/fetcher"
	"github.com/ibeckermayer/redditpersona/internal/lexicon"
	"github.com/ibeckermayer/redditpersona/internal/logging"
	"github.com/ibeckermayer/redditpersona/internal/notifier"
	"github.com/ibeckermayer/redditpersona/internal/report"
	"github.com/ibeckermayer/redditpersona/internal/store"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

// Closer releases what NewFromConfig opened
type Closer func() error

// NewFromConfig assembles a Runner from configuration. Extra options are
// applied last and override config-derived ones.
func NewFromConfig(ctx context.Context, cfg *config.Config, extra ...Option) (*Runner, Closer, error) {
	log := logging.For("app")

	lex := lexicon.Default()
	if cfg.Lexicon.Path != "" {
		l, err := lexicon.Load(cfg.Lexicon.Path)
		if err != nil {
			return nil, nil, err
		}
		lex = l
	}
	matcher := lex.Compile()

	an, err := analyzer.New(ctx, cfg.Entities, matcher)
	if err != nil {
		return nil, nil, fmt.Errorf("entity recognizer: %w", err)
	}

	renderer, err := report.NewRenderer(report.WithRawHTML(cfg.Output.RawHTML))
	if err != nil {
		return nil, nil, err
	}

	opts := []Option{
		WithOutputDir(cfg.Output.Dir),
		WithLimits(cfg.Reddit.CommentLimit, cfg.Reddit.SubmissionLimit),
		WithComposer(report.NewComposer(matcher)),
	}

	closer := func() error { return nil }

	if cfg.Store.Enabled {
		path, err := cfg.StorePath()
		if err != nil {
			return nil, nil, err
		}
		st, err := store.New(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open history store: %w", err)
		}
		closer = st.Close
		opts = append(opts, WithHistory(st))
	}

	if dir, err := store.SnapshotDir(); err == nil {
		opts = append(opts, WithSnapshots(dir, cfg.Store.SaveSnapshots))
	}

	if cfg.Output.PDF {
		opts = append(opts, WithPDF(browser.NewPDFExporter(true), browser.PDFPath))
	}

	if cfg.Output.Open {
		opts = append(opts, WithOpener(browser.OpenFile))
	}

	sender, err := notifier.NewFromConfig(cfg.Notify)
	if err != nil {
		log.WithError(err).Warn("Notifications disabled")
	} else if sender != nil {
		opts = append(opts, WithNotifier(sender))
	}

	f := NewFetcher(ctx, cfg.Reddit)

	return New(f, an, renderer, append(opts, extra...)...), closer, nil
}

// NewFetcher builds the history source named by cfg.Source. Missing API
// credentials do not fail here; every fetch then fails with a FetchError.
func NewFetcher(ctx context.Context, cfg config.RedditConfig) fetcher.Fetcher {
	timeout := cfg.Timeout()

	if cfg.Source == config.SourceRSS {
		client := &http.Client{Timeout: timeout}
		return fetcher.NewFeedClient(client, cfg.UserAgent, cfg.RequestsPerMinute)
	}

	manager := auth.NewManager(auth.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		UserAgent:    cfg.UserAgent,
	}, timeout)

	client, err := manager.Client(ctx)
	if err != nil {
		return unavailableFetcher{err: err}
	}
	return fetcher.NewAPIClient(client, fetcher.WithRequestsPerMinute(cfg.RequestsPerMinute))
}

// unavailableFetcher fails every collection with the same cause
type unavailableFetcher struct {
	err error
}

func (u unavailableFetcher) Collect(_ context.Context, username string, _, _ int) ([]types.RawItem, []types.RawItem, error) {
	if err := fetcher.ValidateUsername(username); err != nil {
		return nil, nil, err
	}
	return nil, nil, &fetcher.FetchError{Username: username, Err: u.err}
}
