// Package worker mirrors newly created entries to an external sheet by
// consuming the entry change feed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"financy/internal/amqp"
	"financy/internal/persist"
	"financy/internal/sheets"
)

// MirrorWorker reacts to change feed messages. Only "created" ops are
// mirrored; deletes and imports carry no per-entry payload and external
// sheets are append-only.
type MirrorWorker struct {
	getter   persist.EntryGetter
	appender sheets.EntryAppender
}

func NewMirrorWorker(getter persist.EntryGetter, appender sheets.EntryAppender) *MirrorWorker {
	return &MirrorWorker{
		getter:   getter,
		appender: appender,
	}
}

// HandleChangeMessage processes one change feed message. Returning an
// error requeues the delivery, so unrecoverable conditions (entry gone,
// op without payload) are logged and swallowed instead.
func (w *MirrorWorker) HandleChangeMessage(ctx context.Context, msg *amqp.EntryChangeMessage) error {
	switch msg.Op {
	case amqp.OpCreated:
	case amqp.OpDeleted, amqp.OpImported:
		slog.DebugContext(ctx, "Skipping change message",
			"op", msg.Op, "owner_id", msg.OwnerID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown change op", "op", msg.Op)
		return nil
	}

	entry, err := w.getter.Get(ctx, msg.EntryID)
	if err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			// The entry was deleted before we got to it.
			slog.WarnContext(ctx, "Entry vanished before mirroring",
				"entry_id", msg.EntryID, "owner_id", msg.OwnerID)
			return nil
		}
		return fmt.Errorf("get entry from storage: %w", err)
	}

	ref, err := w.appender.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Entry mirrored",
		"entry_id", entry.ID,
		"owner_id", entry.OwnerID,
		"sheet_ref", ref)

	return nil
}
