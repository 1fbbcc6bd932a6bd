// Package app wires the fetch, analyze, compose and render steps into a
// single persona run.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/redditpersona/internal/analyzer"
	"github.com/ibeckermayer/redditpersona/internal/fetcher"
	"github.com/ibeckermayer/redditpersona/internal/logging"
	"github.com/ibeckermayer/redditpersona/internal/notifier"
	"github.com/ibeckermayer/redditpersona/internal/report"
	"github.com/ibeckermayer/redditpersona/internal/store"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

// Event is emitted on every state transition
type Event struct {
	State    State
	Username string
	Path     string
	Err      error
}

// Result describes a finished run
type Result struct {
	State       State
	Username    string
	Path        string // absolute path of the HTML report when Done
	PDFPath     string
	Comments    int
	Submissions int
	Report      *types.Report
	Err         error
}

// PDFExporter prints a written HTML report to PDF
type PDFExporter interface {
	Export(ctx context.Context, htmlPath, pdfPath string) error
}

// HistoryRecorder persists run outcomes
type HistoryRecorder interface {
	RecordRun(r *store.Run) error
}

// Runner executes persona runs. It is safe to use from several goroutines as
// long as they target different usernames.
type Runner struct {
	fetcher  fetcher.Fetcher
	analyzer *analyzer.Analyzer
	composer *report.Composer
	renderer *report.Renderer

	outputDir       string
	commentLimit    int
	submissionLimit int

	history       HistoryRecorder
	snapshotDir   string
	saveSnapshots bool
	pdf           PDFExporter
	pdfPath       func(htmlPath string) string
	notifier      notifier.Sender
	open          func(path string) error
	observe       func(Event)

	now func() time.Time
	log *logrus.Entry
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutputDir sets where reports are written. Defaults to "output".
func WithOutputDir(dir string) Option {
	return func(r *Runner) { r.outputDir = dir }
}

// WithLimits sets how many comments and submissions are fetched.
func WithLimits(comments, submissions int) Option {
	return func(r *Runner) {
		r.commentLimit = comments
		r.submissionLimit = submissions
	}
}

// WithComposer replaces the default report composer.
func WithComposer(c *report.Composer) Option {
	return func(r *Runner) { r.composer = c }
}

// WithHistory records every run that gets as far as a username.
func WithHistory(h HistoryRecorder) Option {
	return func(r *Runner) { r.history = h }
}

// WithSnapshots sets the step snapshot root. When save is true each step's
// output is written there; RenderFromSnapshot reads from it either way.
func WithSnapshots(dir string, save bool) Option {
	return func(r *Runner) {
		r.snapshotDir = dir
		r.saveSnapshots = save
	}
}

// WithPDF exports a PDF next to every finished report.
func WithPDF(e PDFExporter, pathFor func(htmlPath string) string) Option {
	return func(r *Runner) {
		r.pdf = e
		r.pdfPath = pathFor
	}
}

// WithNotifier delivers every finished report.
func WithNotifier(s notifier.Sender) Option {
	return func(r *Runner) { r.notifier = s }
}

// WithOpener opens every finished report, typically in a browser.
func WithOpener(open func(path string) error) Option {
	return func(r *Runner) { r.open = open }
}

// WithObserver is called on every state transition.
func WithObserver(fn func(Event)) Option {
	return func(r *Runner) { r.observe = fn }
}

// WithClock replaces time.Now for run bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a runner.
func New(f fetcher.Fetcher, an *analyzer.Analyzer, renderer *report.Renderer, opts ...Option) *Runner {
	r := &Runner{
		fetcher:         f,
		analyzer:        an,
		composer:        report.NewComposer(nil),
		renderer:        renderer,
		outputDir:       "output",
		commentLimit:    fetcher.DefaultCommentLimit,
		submissionLimit: fetcher.DefaultSubmissionLimit,
		now:             time.Now,
		log:             logging.For("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run validates a profile URL and builds the persona report for its user.
// The returned Result is never nil; err is Result.Err.
func (r *Runner) Run(ctx context.Context, profileURL string) (*Result, error) {
	r.emit(Event{State: StateAwaitingInput})

	username, err := ParseProfileURL(profileURL)
	if err != nil {
		res := &Result{}
		return r.fail(res, err)
	}
	return r.RunUser(ctx, username)
}

// RunUser builds the persona report for username.
func (r *Runner) RunUser(ctx context.Context, username string) (res *Result, err error) {
	res = &Result{Username: username}
	run := store.NewRun(username, r.now())
	defer func() { r.record(run, res) }()

	r.emit(Event{State: StateFetching, Username: username})
	r.log.WithField("user", username).Info("Fetching history")

	comments, submissions, err := r.fetcher.Collect(ctx, username, r.commentLimit, r.submissionLimit)
	if err != nil {
		var fe *fetcher.FetchError
		if !errors.As(err, &fe) {
			err = &fetcher.FetchError{Username: username, Err: err}
		}
		return r.fail(res, err)
	}

	corpus := &types.Corpus{
		Username:    username,
		Comments:    comments,
		Submissions: submissions,
		FetchedAt:   r.now().UTC(),
	}
	r.snapshot(store.Step1Corpus, username, corpus)

	return r.build(ctx, res, corpus)
}

// RenderFromSnapshot rebuilds the report from the latest saved corpus for
// username without touching the network.
func (r *Runner) RenderFromSnapshot(ctx context.Context, username string) (res *Result, err error) {
	res = &Result{Username: username}

	if err := fetcher.ValidateUsername(username); err != nil {
		return r.fail(res, &InvalidInputError{Input: username, Err: err})
	}
	if r.snapshotDir == "" {
		return r.fail(res, errors.New("snapshots are not configured"))
	}

	run := store.NewRun(username, r.now())
	defer func() { r.record(run, res) }()

	corpus, path, err := store.LoadLatestStepOutput[types.Corpus](r.snapshotDir, store.Step1Corpus, username)
	if err != nil {
		return r.fail(res, fmt.Errorf("load snapshot: %w", err))
	}
	r.log.WithFields(logrus.Fields{"user": username, "snapshot": path}).Info("Rendering from snapshot")

	return r.build(ctx, res, &corpus)
}

// build runs everything after the fetch
func (r *Runner) build(ctx context.Context, res *Result, corpus *types.Corpus) (*Result, error) {
	username := corpus.Username
	res.Comments = len(corpus.Comments)
	res.Submissions = len(corpus.Submissions)

	if corpus.IsEmpty() {
		r.log.WithFields(logrus.Fields{
			"user":        username,
			"submissions": len(corpus.Submissions),
		}).Info("No public comments, nothing to render")
		res.State = StateNoData
		r.emit(Event{State: StateNoData, Username: username})
		return res, nil
	}

	r.emit(Event{State: StateRendering, Username: username})

	signals := r.analyzer.Extract(ctx, corpus)
	r.snapshot(store.Step2Signals, username, signals)

	rep := r.composer.Compose(username, corpus.Comments, corpus.Submissions, signals)
	r.snapshot(store.Step3Report, username, rep)

	html, err := r.renderer.Render(rep)
	if err != nil {
		return r.fail(res, err)
	}

	path, err := r.write(username, html)
	if err != nil {
		return r.fail(res, err)
	}

	res.State = StateDone
	res.Path = path
	res.Report = &rep

	r.log.WithFields(logrus.Fields{
		"user": username,
		"path": path,
		"tone": rep.Tone,
	}).Info("Report written")

	r.afterDone(ctx, res, rep, html)
	r.emit(Event{State: StateDone, Username: username, Path: path})
	return res, nil
}

// write saves html as <outputDir>/persona_<username>.html and returns the
// absolute path.
func (r *Runner) write(username, html string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path, err := filepath.Abs(filepath.Join(r.outputDir, OutputFileName(username)))
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}

	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// OutputFileName is the report file name for username.
func OutputFileName(username string) string {
	return "persona_" + username + ".html"
}

// afterDone runs the optional post-render hooks. None of them can fail the run.
func (r *Runner) afterDone(ctx context.Context, res *Result, rep types.Report, html string) {
	log := r.log.WithField("user", res.Username)

	if r.pdf != nil {
		pdfPath := res.Path + ".pdf"
		if r.pdfPath != nil {
			pdfPath = r.pdfPath(res.Path)
		}
		if err := r.pdf.Export(ctx, res.Path, pdfPath); err != nil {
			log.WithError(err).Warn("PDF export failed")
		} else {
			res.PDFPath = pdfPath
		}
	}

	if r.notifier != nil {
		if err := r.notifier.Send(ctx, notifier.NewMessage(rep, html)); err != nil {
			log.WithError(err).Warn("Notification failed")
		}
	}

	if r.open != nil {
		if err := r.open(res.Path); err != nil {
			log.WithError(err).Warn("Failed to open report")
		}
	}
}

func (r *Runner) fail(res *Result, err error) (*Result, error) {
	res.State = StateFailed
	res.Err = err
	r.log.WithFields(logrus.Fields{"user": res.Username, "error": err}).Warn("Run failed")
	r.emit(Event{State: StateFailed, Username: res.Username, Err: err})
	return res, err
}

func (r *Runner) emit(e Event) {
	if r.observe != nil {
		r.observe(e)
	}
}

func (r *Runner) snapshot(step store.StepName, username string, data any) {
	if !r.saveSnapshots || r.snapshotDir == "" {
		return
	}
	path, err := store.SaveStepOutput(r.snapshotDir, step, username, data)
	if err != nil {
		r.log.WithError(err).Warn("Failed to save snapshot")
		return
	}
	r.log.WithFields(logrus.Fields{"step": step, "path": path}).Debug("Saved snapshot")
}

func (r *Runner) record(run *store.Run, res *Result) {
	if r.history == nil {
		return
	}

	run.State = string(res.State)
	run.Comments = res.Comments
	run.Submissions = res.Submissions
	run.OutputPath = res.Path
	if res.Report != nil {
		run.GeneratedAt = res.Report.GeneratedAt
		run.Sentiment = res.Report.Signals.Sentiment
		run.Tone = string(res.Report.Tone)
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}

	if err := r.history.RecordRun(run); err != nil {
		r.log.WithError(err).Warn("Failed to record run")
	}
}
