// Package fetcher retrieves a Reddit user's recent comments and submissions.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/ibeckermayer/redditpersona/internal/types"
)

// Default caps on fetched items
const (
	DefaultCommentLimit    = 100
	DefaultSubmissionLimit = 30
)

// maxPageSize is the largest listing page Reddit will serve
const maxPageSize = 100

var usernamePattern = regexp.MustCompile(`^[\w-]+$`)

// ErrInvalidUsername is wrapped in a FetchError when the username cannot be a Reddit account
var ErrInvalidUsername = errors.New("invalid username")

// Fetcher collects a user's most recent comments and submissions.
// Implementations return items newest first and never return partial results
// alongside an error.
type Fetcher interface {
	Collect(ctx context.Context, username string, commentLimit, submissionLimit int) (comments, submissions []types.RawItem, err error)
}

// FetchError wraps any failure that happens while collecting a user's history
type FetchError struct {
	Username   string
	Op         string // "comments" or "submissions"
	StatusCode int    // HTTP status if the platform answered, 0 otherwise
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s for u/%s: status %d: %v", e.Op, e.Username, e.StatusCode, e.Err)
	case e.Op != "":
		return fmt.Sprintf("fetch %s for u/%s: %v", e.Op, e.Username, e.Err)
	default:
		return fmt.Sprintf("fetch u/%s: %v", e.Username, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidateUsername checks that username is a syntactically valid Reddit name.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return &FetchError{Username: username, Err: fmt.Errorf("%w: %q", ErrInvalidUsername, username)}
	}
	return nil
}

// listFunc fetches up to limit items of one kind
type listFunc func(ctx context.Context, username string, limit int) ([]types.RawItem, error)

// collect runs the comment and submission listings in order and discards
// everything if either fails.
func collect(ctx context.Context, username string, commentLimit, submissionLimit int, comments, submissions listFunc) ([]types.RawItem, []types.RawItem, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, nil, err
	}

	c, err := comments(ctx, username, commentLimit)
	if err != nil {
		return nil, nil, err
	}

	s, err := submissions(ctx, username, submissionLimit)
	if err != nil {
		return nil, nil, err
	}

	return c, s, nil
}

// StatusError describes a non-200 response from the platform
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}

// newFetchError wraps err, lifting the HTTP status code when there is one.
func newFetchError(username, op string, err error) *FetchError {
	fe := &FetchError{Username: username, Op: op, Err: err}
	var se *StatusError
	if errors.As(err, &se) {
		fe.StatusCode = se.Code
	}
	return fe
}
