package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ibeckermayer/redditpersona/internal/config"
)

// StepName identifies a pipeline step for caching purposes.
type StepName string

const (
	Step1Corpus  StepName = "step1_corpus"
	Step2Signals StepName = "step2_signals"
	Step3Report  StepName = "step3_report"
)

// ErrNoSnapshot is returned when a step has nothing saved for a user
var ErrNoSnapshot = errors.New("no cached output")

// SnapshotDir returns the default root for step snapshots.
func SnapshotDir() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "snapshots"), nil
}

// stepDir returns the cache directory for a given step and user.
func stepDir(root string, step StepName, username string) string {
	return filepath.Join(root, string(step), username)
}

// generateFilename creates a timestamped filename with the given extension.
// Names sort chronologically.
func generateFilename(ext string) string {
	return time.Now().UTC().Format("2006-01-02T15-04-05.000000000") + ext
}

// SaveStepOutput writes data as indented JSON under root/step/username and
// returns the file path. The file appears atomically so readers never see a
// partial snapshot.
func SaveStepOutput[T any](root string, step StepName, username string, data T) (string, error) {
	dir := stepDir(root, step, username)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode %s snapshot: %w", step, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	path := filepath.Join(dir, generateFilename(".json"))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish snapshot: %w", err)
	}
	return path, nil
}

// LoadLatestStepOutput decodes the newest snapshot for step and username and
// returns it with the path it came from.
func LoadLatestStepOutput[T any](root string, step StepName, username string) (T, string, error) {
	path, err := LatestStepFile(root, step, username)
	if err != nil {
		var zero T
		return zero, "", err
	}

	data, err := LoadStepOutput[T](path)
	return data, path, err
}

// LoadStepOutput decodes one snapshot file.
func LoadStepOutput[T any](path string) (T, error) {
	var data T

	f, err := os.Open(path)
	if err != nil {
		return data, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return data, fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// LatestStepFile returns the newest snapshot path for step and username.
// Snapshot names are UTC timestamps, so the last name in directory order wins.
func LatestStepFile(root string, step StepName, username string) (string, error) {
	dir := stepDir(root, step, username)

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	for i := len(entries) - 1; i >= 0; i-- {
		if e := entries[i]; !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w for step %s of u/%s", ErrNoSnapshot, step, username)
}
