package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/redditpersona/internal/analyzer"
	"github.com/ibeckermayer/redditpersona/internal/analyzer/providers"
	"github.com/ibeckermayer/redditpersona/internal/app"
	"github.com/ibeckermayer/redditpersona/internal/config"
	"github.com/ibeckermayer/redditpersona/internal/fetcher"
	"github.com/ibeckermayer/redditpersona/internal/report"
	"github.com/ibeckermayer/redditpersona/internal/scheduler"
	"github.com/ibeckermayer/redditpersona/internal/store"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

type stubFetcher struct {
	comments []types.RawItem
	err      error
}

func (s stubFetcher) Collect(context.Context, string, int, int) ([]types.RawItem, []types.RawItem, error) {
	return s.comments, nil, s.err
}

func newStubRunner(t *testing.T, f fetcher.Fetcher, p *printer) *app.Runner {
	t.Helper()
	renderer, err := report.NewRenderer()
	require.NoError(t, err)
	an := analyzer.NewWithRecognizer(providers.NoneProvider{}, nil)
	return app.New(f, an, renderer,
		app.WithOutputDir(t.TempDir()),
		app.WithObserver(p.Event),
	)
}

func TestFormatTable(t *testing.T) {
	lines := formatTable([][]string{
		{"USER", "STATE"},
		{"u/alice", "Done"},
		{"u/日本", "Failed"},
	})

	require.Len(t, lines, 3)
	assert.Equal(t, "USER     STATE", lines[0])
	assert.Equal(t, "u/alice  Done", lines[1])
	// Wide runes take two cells each.
	assert.Equal(t, "u/日本   Failed", lines[2])
}

func TestPromptURL(t *testing.T) {
	var out bytes.Buffer
	got := promptURL(strings.NewReader("  https://www.reddit.com/user/alice/ \nignored\n"), &out)

	assert.Equal(t, "https://www.reddit.com/user/alice/", got)
	assert.Equal(t, urlPrompt, out.String())

	assert.Empty(t, promptURL(strings.NewReader(""), &out))
}

func TestRunOnceDone(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out)
	runner := newStubRunner(t, stubFetcher{comments: []types.RawItem{
		{Kind: types.KindComment, Body: "I love Go", Community: "golang", Permalink: "/r/golang/comments/a/b/c/"},
	}}, p)

	res := runOnce(context.Background(), runner, "https://www.reddit.com/user/alice/", false, p)

	assert.Equal(t, app.StateDone, res.State)
	assert.NoError(t, exitError(res))
	assert.Contains(t, out.String(), "🔍 Scraping u/alice...")
	assert.Contains(t, out.String(), "✅ HTML persona created → "+res.Path)
	assert.FileExists(t, res.Path)
}

func TestRunOnceDocumentedFailuresExitCleanly(t *testing.T) {
	tests := []struct {
		name    string
		fetcher stubFetcher
		input   string
		state   app.State
		message string
	}{
		{
			name:    "invalid url",
			input:   "https://old.reddit.com/user/alice/",
			state:   app.StateFailed,
			message: "❌ Invalid Reddit profile URL.",
		},
		{
			name:    "fetch failure",
			fetcher: stubFetcher{err: &fetcher.FetchError{Username: "alice", Err: errors.New("boom")}},
			input:   "https://www.reddit.com/user/alice/",
			state:   app.StateFailed,
			message: "❌ Failed to fetch data: fetch u/alice: boom",
		},
		{
			name:    "no data",
			input:   "https://www.reddit.com/user/alice/",
			state:   app.StateNoData,
			message: "🚫 No public comments or posts found.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := newPrinter(&out)
			runner := newStubRunner(t, tt.fetcher, p)

			res := runOnce(context.Background(), runner, tt.input, false, p)

			assert.Equal(t, tt.state, res.State)
			assert.NoError(t, exitError(res))
			assert.Contains(t, out.String(), tt.message)
		})
	}
}

func TestRunOnceOfflineInvalidURL(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out)
	runner := newStubRunner(t, stubFetcher{}, p)

	res := runOnce(context.Background(), runner, "not a url", true, p)

	assert.Equal(t, app.StateFailed, res.State)
	assert.Contains(t, out.String(), "❌ Invalid Reddit profile URL.")
}

func TestExitErrorUnexpectedFailure(t *testing.T) {
	err := exitError(&app.Result{State: app.StateFailed, Err: errors.New("disk full")})
	assert.ErrorIs(t, err, errReported)
}

func TestPrintHistory(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	runs := []store.Run{
		{Username: "alice", State: "Done", Tone: "Mixed", Comments: 42, StartedAt: now.Add(-2 * time.Hour), OutputPath: "/tmp/persona_alice.html"},
		{Username: "bob", State: "Failed", Comments: 0, StartedAt: now.Add(-72 * time.Hour), Error: "fetch u/bob: status 404"},
	}

	var out bytes.Buffer
	printHistory(&out, runs, now)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "WHEN"))
	assert.Contains(t, lines[1], "2 hours ago")
	assert.Contains(t, lines[1], "/tmp/persona_alice.html")
	assert.Contains(t, lines[2], "3 days ago")
	assert.Contains(t, lines[2], "status 404")

	// USER column starts at the same offset on every row.
	col := strings.Index(lines[0], "USER")
	assert.Equal(t, col, strings.Index(lines[1], "u/alice"))
	assert.Equal(t, col, strings.Index(lines[2], "u/bob"))
}

func TestPrintHistoryEmpty(t *testing.T) {
	var out bytes.Buffer
	printHistory(&out, nil, time.Now())
	assert.Contains(t, out.String(), "No runs recorded yet.")
}

func TestShowHistoryPerUser(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer st.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	run := store.NewRun("alice", now.Add(-time.Hour))
	run.State = "Done"
	require.NoError(t, st.RecordRun(run))

	var out bytes.Buffer
	require.NoError(t, showHistory(&out, st, "bob", 20, now))
	assert.Equal(t, "No runs recorded for u/bob.\n", out.String())

	out.Reset()
	require.NoError(t, showHistory(&out, st, "alice", 20, now))
	assert.Contains(t, out.String(), "u/alice")
	assert.Contains(t, out.String(), "1 hour ago")

	out.Reset()
	require.NoError(t, showHistory(&out, st, "", 20, now))
	assert.Contains(t, out.String(), "u/alice")
}

func TestAddWatchJobs(t *testing.T) {
	sched, err := scheduler.New("UTC")
	require.NoError(t, err)

	var out bytes.Buffer
	runner := newStubRunner(t, stubFetcher{}, newPrinter(&out))

	jobs, err := addWatchJobs(sched, runner, []string{"alice", "bob"}, "@daily")
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Contains(t, jobs, scheduler.WatchJobName("alice"))
	assert.Len(t, sched.ListJobs(), 2)

	// NoData is not a job failure.
	assert.NoError(t, sched.RunNow("watch:alice", jobs["watch:alice"]))

	_, err = addWatchJobs(sched, runner, []string{"not valid!"}, "@daily")
	assert.ErrorIs(t, err, fetcher.ErrInvalidUsername)
}

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Reddit.CommentLimit, cfg.Reddit.CommentLimit)
	assert.FileExists(t, path)

	again, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Watch.Schedule, again.Watch.Schedule)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()
	cfg.Reddit.Source = "carrier-pigeon"
	require.NoError(t, cfg.SaveFile(path))

	_, err := loadConfig(path)
	assert.ErrorIs(t, err, config.ErrUnknownSource)
}

func TestRunCommandInvalidURLExitsCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()
	cfg.Store.Enabled = false
	cfg.Store.SaveSnapshots = false
	cfg.Entities.Provider = config.ProviderNone
	cfg.Output.Dir = t.TempDir()
	require.NoError(t, cfg.SaveFile(path))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "run", "https://old.reddit.com/user/alice/"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "❌ Invalid Reddit profile URL.")
}

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "watch", "history"}, names)
}
