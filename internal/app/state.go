package app

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// State is where a run currently is
type State string

const (
	StateAwaitingInput State = "AwaitingInput"
	StateFetching      State = "Fetching"
	StateNoData        State = "NoData"
	StateRendering     State = "Rendering"
	StateDone          State = "Done"
	StateFailed        State = "Failed"
)

var profileURLPattern = regexp.MustCompile(`^https?://(www\.)?reddit\.com/user/[\w-]+/?$`)

// ErrNotProfileURL is wrapped by InvalidInputError for inputs that are not a
// Reddit user profile URL
var ErrNotProfileURL = errors.New("not a Reddit profile URL")

// InvalidInputError is returned when the profile URL does not match the
// accepted format
type InvalidInputError struct {
	Input string
	Err   error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: %v", e.Input, e.Err)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// ParseProfileURL validates a profile URL such as
// https://www.reddit.com/user/someuser/ and returns the username.
// Only reddit.com and www.reddit.com hosts are accepted.
func ParseProfileURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if !profileURLPattern.MatchString(u) {
		return "", &InvalidInputError{Input: raw, Err: ErrNotProfileURL}
	}

	trimmed := strings.TrimRight(u, "/")
	return trimmed[strings.LastIndex(trimmed, "/")+1:], nil
}
