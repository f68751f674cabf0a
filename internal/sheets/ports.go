package sheets

import (
	"context"

	"financy/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryAppender mirrors one entry to an external sheet and returns
	// an adapter-specific row reference.
	EntryAppender interface {
		Append(ctx context.Context, e core.Entry) (rowRef string, err error)
	}
)
