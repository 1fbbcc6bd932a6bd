package providers

import (
	"context"

	"github.com/ibeckermayer/redditpersona/internal/types"
)

// NoneProvider never finds entities. Reports then show "Not found" for
// location clues.
type NoneProvider struct{}

// Recognize implements the recognizer contract.
func (NoneProvider) Recognize(context.Context, string) ([]types.Entity, error) {
	return nil, nil
}
