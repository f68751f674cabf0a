package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"financy/internal/amqp"
	"financy/internal/core"
	"financy/internal/persist"
	"financy/internal/store"
)

// ChangePublisher announces entry set changes on the message feed.
// *amqp.Client satisfies it; tests plug in fakes.
type ChangePublisher interface {
	PublishEntryChange(ctx context.Context, msg *amqp.EntryChangeMessage) error
}

// EntryService orchestrates entry writes across persistence, the
// change feed, and the in-memory store. When the feed is unavailable
// the service refreshes the store synchronously instead, so callers
// always observe their own writes.
type EntryService struct {
	writer    persist.EntryWriter
	store     *store.Store
	publisher ChangePublisher
	workers   int
}

// NewEntryService builds the service. publisher may be nil when no
// broker is configured. workers caps import concurrency; values below
// one run imports sequentially.
func NewEntryService(writer persist.EntryWriter, st *store.Store, publisher ChangePublisher, workers int) *EntryService {
	if workers < 1 {
		workers = 1
	}
	return &EntryService{
		writer:    writer,
		store:     st,
		publisher: publisher,
		workers:   workers,
	}
}

// CreateEntry persists one entry and announces the change.
func (s *EntryService) CreateEntry(ctx context.Context, e core.Entry) (string, error) {
	id, err := s.writer.Create(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save entry: %w", err)
	}

	s.announce(ctx, e.OwnerID, id, amqp.OpCreated)
	return id, nil
}

// DeleteEntry removes an owned entry and announces the change.
func (s *EntryService) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	if err := s.store.Remove(ctx, ownerID, entryID); err != nil {
		return err
	}

	s.announce(ctx, ownerID, entryID, amqp.OpDeleted)
	return nil
}

// ImportReport summarizes one import commit.
type ImportReport struct {
	Created   int
	RowErrors []string
}

// ImportEntries persists the candidate rows concurrently for one
// owner. Row failures are collected, not raised; a single "imported"
// change is announced when at least one row lands.
func (s *EntryService) ImportEntries(ctx context.Context, ownerID string, rows []core.Entry) (ImportReport, error) {
	var (
		mu     sync.Mutex
		report ImportReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, row := range rows {
		row.OwnerID = ownerID
		g.Go(func() error {
			if _, err := s.writer.Create(gctx, row); err != nil {
				mu.Lock()
				report.RowErrors = append(report.RowErrors, fmt.Sprintf("entry %d: %v", i+1, err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			report.Created++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("import entries: %w", err)
	}

	if report.Created > 0 {
		s.announce(ctx, ownerID, "", amqp.OpImported)
	}

	slog.InfoContext(ctx, "Import committed",
		"owner_id", ownerID,
		"created", report.Created,
		"failed", len(report.RowErrors))

	return report, nil
}

// announce publishes a change message, falling back to a synchronous
// store refresh when no broker is reachable. The write already
// succeeded, so neither path fails the request.
func (s *EntryService) announce(ctx context.Context, ownerID, entryID, op string) {
	if s.publisher != nil {
		err := s.publisher.PublishEntryChange(ctx, amqp.NewEntryChangeMessage(ownerID, entryID, op))
		if err == nil {
			return
		}
		slog.ErrorContext(ctx, "Failed to publish change message",
			"owner_id", ownerID, "entry_id", entryID, "op", op, "error", err)
	} else {
		slog.WarnContext(ctx, "AMQP client not available, refreshing store directly")
	}

	if _, err := s.store.Refresh(ctx, ownerID); err != nil {
		slog.ErrorContext(ctx, "Failed to refresh store after write",
			"owner_id", ownerID, "error", err)
	}
}
