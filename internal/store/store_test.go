package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/redditpersona/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListRuns(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	first := NewRun("alice", base)
	first.State = "Done"
	first.GeneratedAt = base.Add(time.Second)
	first.Sentiment = 7
	first.Tone = "Positive"
	first.Comments = 100
	first.Submissions = 12
	first.OutputPath = "/tmp/persona_alice.html"
	require.NoError(t, s.RecordRun(first))

	second := NewRun("bob", base.Add(time.Hour))
	second.State = "Failed"
	second.Error = "fetch comments for u/bob: status 404"
	require.NoError(t, s.RecordRun(second))

	third := NewRun("alice", base.Add(2*time.Hour))
	third.State = "NoData"
	require.NoError(t, s.RecordRun(third))

	all, err := s.ListRuns("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	alice, err := s.ListRuns("alice", 10)
	require.NoError(t, err)
	require.Len(t, alice, 2)

	got := alice[1]
	assert.Equal(t, "Done", got.State)
	assert.Equal(t, 7, got.Sentiment)
	assert.Equal(t, "Positive", got.Tone)
	assert.Equal(t, 100, got.Comments)
	assert.Equal(t, 12, got.Submissions)
	assert.Equal(t, "/tmp/persona_alice.html", got.OutputPath)
	assert.True(t, base.Add(time.Second).Equal(got.GeneratedAt))
	assert.True(t, base.Equal(got.StartedAt))

	assert.True(t, alice[0].GeneratedAt.IsZero())
	assert.Equal(t, "fetch comments for u/bob: status 404", all[1].Error)
}

func TestRecordRunUpdatesInPlace(t *testing.T) {
	s := newTestStore(t)

	run := NewRun("carol", time.Now())
	run.State = "Fetching"
	require.NoError(t, s.RecordRun(run))

	run.State = "Done"
	run.OutputPath = "out.html"
	require.NoError(t, s.RecordRun(run))

	runs, err := s.ListRuns("carol", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Done", runs[0].State)
	assert.Equal(t, "out.html", runs[0].OutputPath)
}

func TestLatestRun(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestRun("nobody")
	assert.ErrorIs(t, err, ErrNoRuns)

	older := NewRun("dave", time.Now().Add(-time.Hour))
	newer := NewRun("dave", time.Now())
	require.NoError(t, s.RecordRun(newer))
	require.NoError(t, s.RecordRun(older))

	got, err := s.LatestRun("dave")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestNewRunIDsAreUnique(t *testing.T) {
	a := NewRun("x", time.Now())
	b := NewRun("x", time.Now())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 36)
}

func TestStepSnapshots(t *testing.T) {
	root := t.TempDir()

	_, _, err := LoadLatestStepOutput[types.Corpus](root, Step1Corpus, "alice")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	older := types.Corpus{Username: "alice", Comments: []types.RawItem{{ID: "1", Body: "old"}}}
	newer := types.Corpus{Username: "alice", Comments: []types.RawItem{{ID: "2", Body: "new"}}}

	_, err = SaveStepOutput(root, Step1Corpus, "alice", older)
	require.NoError(t, err)
	path, err := SaveStepOutput(root, Step1Corpus, "alice", newer)
	require.NoError(t, err)
	_, err = SaveStepOutput(root, Step1Corpus, "alice_smith", older)
	require.NoError(t, err)

	got, loadedFrom, err := LoadLatestStepOutput[types.Corpus](root, Step1Corpus, "alice")
	require.NoError(t, err)
	assert.Equal(t, path, loadedFrom)
	assert.Equal(t, "new", got.Comments[0].Body)

	// other steps and users are separate
	_, err = LatestStepFile(root, Step2Signals, "alice")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	entries, err := os.ReadDir(filepath.Join(root, string(Step1Corpus), "alice"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no partial files left behind")
	_, err = os.Stat(filepath.Join(root, string(Step1Corpus), "alice_smith"))
	assert.NoError(t, err)
}
