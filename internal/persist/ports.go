package persist

import (
	"context"
	"errors"

	"financy/internal/core"
)

// ErrNotFound is returned when an entry id does not exist (or was
// already deleted).
var ErrNotFound = errors.New("entry not found")

// Ports for the external persistence collaborator. The core depends only
// on this narrow contract, never on a concrete backend.
type (
	// EntryWriter creates entries; the collaborator assigns the id and
	// the creation timestamp.
	EntryWriter interface {
		Create(ctx context.Context, e core.Entry) (id string, err error)
	}

	// EntryDeleter removes an entry by id. Deletion is observed through
	// the next subscription snapshot, not through local mutation.
	EntryDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	// EntryLister returns the full entry set for one owner.
	EntryLister interface {
		ListByOwner(ctx context.Context, ownerID string) ([]core.Entry, error)
	}

	// EntryGetter fetches a single entry by id.
	EntryGetter interface {
		Get(ctx context.Context, id string) (core.Entry, error)
	}
)
