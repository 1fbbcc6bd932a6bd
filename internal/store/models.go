package store

import (
	"time"

	"github.com/google/uuid"
)

// Run is one recorded pipeline execution for a user
type Run struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	State       string    `json:"state"`
	StartedAt   time.Time `json:"started_at"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	Sentiment   int       `json:"sentiment"`
	Tone        string    `json:"tone,omitempty"`
	Comments    int       `json:"comments"`
	Submissions int       `json:"submissions"`
	OutputPath  string    `json:"output_path,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// NewRun starts a run record with a fresh ID.
func NewRun(username string, startedAt time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Username:  username,
		StartedAt: startedAt.UTC(),
	}
}
