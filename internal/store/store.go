// Package store holds the in-memory entry snapshot per owner and fans
// out versioned updates to subscribers. It is fed whole snapshots from
// the persistence layer; it never edits entries in place, so a delete
// becomes visible only through the next snapshot.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"financy/internal/core"
	"financy/internal/persist"
)

// ErrNotOwned is returned when a removal targets an entry outside the
// caller's snapshot.
var ErrNotOwned = fmt.Errorf("entry does not belong to owner")

// Update is one immutable snapshot of an owner's entries. Versions are
// strictly increasing per owner; a subscriber that sees version N can
// discard anything older.
type Update struct {
	Version int64
	Entries []core.Entry
}

type ownerState struct {
	version int64
	entries []core.Entry
	subs    map[int]chan Update
	nextSub int
}

// snapshot copies the entry slice so no caller can reorder or truncate
// the authoritative state. Must be called with the store lock held.
func (st *ownerState) snapshot() Update {
	entries := make([]core.Entry, len(st.entries))
	copy(entries, st.entries)
	return Update{Version: st.version, Entries: entries}
}

// Store keeps the latest snapshot per owner and the subscriber fanout.
type Store struct {
	lister  persist.EntryLister
	deleter persist.EntryDeleter

	mu     sync.Mutex
	owners map[string]*ownerState
}

func New(lister persist.EntryLister, deleter persist.EntryDeleter) *Store {
	return &Store{
		lister:  lister,
		deleter: deleter,
		owners:  make(map[string]*ownerState),
	}
}

// SetEntries replaces an owner's snapshot wholesale, sorts it newest
// first, bumps the version, and notifies subscribers. Slow subscribers
// lose intermediate versions, never the latest.
func (s *Store) SetEntries(ctx context.Context, ownerID string, entries []core.Entry) Update {
	sorted := make([]core.Entry, len(entries))
	copy(sorted, entries)
	sortEntries(ctx, sorted)

	s.mu.Lock()
	st := s.owner(ownerID)
	st.version++
	st.entries = sorted

	for _, ch := range st.subs {
		sendLatest(ch, st.snapshot())
	}
	upd := st.snapshot()
	s.mu.Unlock()

	return upd
}

// Current returns a copy of the owner's latest snapshot. An owner never
// seen before gets version 0 and no entries.
func (s *Store) Current(ownerID string) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.owners[ownerID]
	if !ok {
		return Update{}
	}
	return st.snapshot()
}

// Subscribe registers for snapshot updates. The channel immediately
// carries the current snapshot, then one message per change, with
// intermediate versions dropped if the subscriber lags. The returned
// cancel function (also wired to ctx) releases the subscription.
func (s *Store) Subscribe(ctx context.Context, ownerID string) (<-chan Update, func()) {
	ch := make(chan Update, 1)

	s.mu.Lock()
	st := s.owner(ownerID)
	id := st.nextSub
	st.nextSub++
	st.subs[id] = ch
	ch <- st.snapshot()
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(st.subs, id)
			s.mu.Unlock()
		})
	}

	stop := context.AfterFunc(ctx, cancel)
	return ch, func() {
		stop()
		cancel()
	}
}

// Remove deletes an entry through the persistence collaborator after
// checking it belongs to the owner. The local snapshot is not touched;
// the change feed (or a Refresh) delivers the post-delete state.
func (s *Store) Remove(ctx context.Context, ownerID, entryID string) error {
	s.mu.Lock()
	owned := false
	if st, ok := s.owners[ownerID]; ok {
		for _, e := range st.entries {
			if e.ID == entryID {
				owned = true
				break
			}
		}
	}
	s.mu.Unlock()

	if !owned {
		return ErrNotOwned
	}

	if err := s.deleter.Delete(ctx, entryID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// Refresh reloads the owner's snapshot from persistence and publishes
// it. It is both the change feed reaction and the no-broker fallback.
func (s *Store) Refresh(ctx context.Context, ownerID string) (Update, error) {
	entries, err := s.lister.ListByOwner(ctx, ownerID)
	if err != nil {
		return Update{}, fmt.Errorf("list entries: %w", err)
	}
	return s.SetEntries(ctx, ownerID, entries), nil
}

// owner must be called with s.mu held.
func (s *Store) owner(ownerID string) *ownerState {
	st, ok := s.owners[ownerID]
	if !ok {
		st = &ownerState{subs: make(map[int]chan Update)}
		s.owners[ownerID] = st
	}
	return st
}

func sendLatest(ch chan Update, upd Update) {
	for {
		select {
		case ch <- upd:
			return
		default:
			// Drop the stale buffered update and retry.
			select {
			case <-ch:
			default:
			}
		}
	}
}

// sortEntries orders newest first: entry date descending, creation
// time descending as the tiebreak. An entry missing its date sorts by
// creation time; one missing both is treated as current and logged.
func sortEntries(ctx context.Context, entries []core.Entry) {
	now := time.Now()
	keys := make([]time.Time, len(entries))
	for i, e := range entries {
		switch {
		case !e.Date.IsZero():
			keys[i] = e.Date
		case !e.CreatedAt.IsZero():
			keys[i] = e.CreatedAt
		default:
			slog.WarnContext(ctx, "Entry has no date or creation time, sorting as current",
				"id", e.ID, "owner_id", e.OwnerID)
			keys[i] = now
		}
	}

	sort.Stable(entrySorter{entries, keys})
}

type entrySorter struct {
	entries []core.Entry
	keys    []time.Time
}

func (s entrySorter) Len() int { return len(s.entries) }

func (s entrySorter) Less(i, j int) bool {
	if !s.keys[i].Equal(s.keys[j]) {
		return s.keys[i].After(s.keys[j])
	}
	return s.entries[i].CreatedAt.After(s.entries[j].CreatedAt)
}

func (s entrySorter) Swap(i, j int) {
	s.entries[i], s.entries[j] = s.entries[j], s.entries[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
