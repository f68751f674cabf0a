package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financy/internal/core"
)

type fakeLister struct {
	entries map[string][]core.Entry
	err     error
	calls   int
}

func (f *fakeLister) ListByOwner(_ context.Context, ownerID string) ([]core.Entry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[ownerID], nil
}

type fakeDeleter struct {
	deleted []string
	err     error
}

func (f *fakeDeleter) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func entry(id string, date time.Time, created time.Time) core.Entry {
	return core.Entry{
		ID:        id,
		OwnerID:   "alice",
		Kind:      core.Expense,
		Amount:    decimal.NewFromInt(10),
		Date:      date,
		CreatedAt: created,
	}
}

func TestSetEntriesSortsNewestFirst(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})
	ctx := context.Background()

	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	upd := s.SetEntries(ctx, "alice", []core.Entry{
		entry("old", core.NewDate(2024, 1, 1), created),
		entry("new", core.NewDate(2024, 3, 1), created),
		entry("mid", core.NewDate(2024, 2, 1), created),
	})

	ids := make([]string, len(upd.Entries))
	for i, e := range upd.Entries {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestSetEntriesSameDateBreaksTieOnCreation(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})
	day := core.NewDate(2024, 1, 15)

	upd := s.SetEntries(context.Background(), "alice", []core.Entry{
		entry("earlier", day, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)),
		entry("later", day, time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)),
	})

	assert.Equal(t, "later", upd.Entries[0].ID)
	assert.Equal(t, "earlier", upd.Entries[1].ID)
}

func TestSetEntriesMissingDateFallsBackToCreation(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})

	upd := s.SetEntries(context.Background(), "alice", []core.Entry{
		entry("dated", core.NewDate(2024, 1, 10), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
		entry("undated", time.Time{}, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
	})

	// The undated entry sorts by its creation time, which is newer.
	assert.Equal(t, "undated", upd.Entries[0].ID)
}

func TestSetEntriesMissingDateAndCreationSortAsNow(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})

	upd := s.SetEntries(context.Background(), "alice", []core.Entry{
		entry("dated", core.NewDate(2024, 1, 10), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
		entry("timeless", time.Time{}, time.Time{}),
	})

	// With neither date nor creation time the entry sorts as current,
	// ahead of everything older, instead of being dropped or pushed
	// to the bottom.
	require.Len(t, upd.Entries, 2)
	assert.Equal(t, "timeless", upd.Entries[0].ID)
	assert.Equal(t, "dated", upd.Entries[1].ID)
}

func TestSnapshotsAreIsolatedFromCallers(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})
	ctx := context.Background()

	s.SetEntries(ctx, "alice", []core.Entry{
		entry("new", core.NewDate(2024, 2, 1), time.Now()),
		entry("old", core.NewDate(2024, 1, 1), time.Now()),
	})

	// Reordering and truncating a returned snapshot must not leak into
	// the store's own state.
	got := s.Current("alice")
	got.Entries[0], got.Entries[1] = got.Entries[1], got.Entries[0]
	got.Entries = got.Entries[:1]

	cur := s.Current("alice")
	require.Len(t, cur.Entries, 2)
	assert.Equal(t, "new", cur.Entries[0].ID)
	assert.Equal(t, "old", cur.Entries[1].ID)

	// The same holds for updates delivered to subscribers.
	ch, cancel := s.Subscribe(ctx, "alice")
	defer cancel()
	sub := <-ch
	sub.Entries[0].ID = "mangled"

	cur = s.Current("alice")
	assert.Equal(t, "new", cur.Entries[0].ID)
}

func TestVersionsIncreasePerOwner(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})
	ctx := context.Background()

	assert.EqualValues(t, 0, s.Current("alice").Version)
	assert.EqualValues(t, 1, s.SetEntries(ctx, "alice", nil).Version)
	assert.EqualValues(t, 2, s.SetEntries(ctx, "alice", nil).Version)

	// Another owner has an independent counter.
	assert.EqualValues(t, 1, s.SetEntries(ctx, "bob", nil).Version)
	assert.EqualValues(t, 2, s.Current("alice").Version)
}

func TestSubscribeDeliversCurrentThenUpdates(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})
	ctx := context.Background()

	s.SetEntries(ctx, "alice", []core.Entry{entry("e1", core.NewDate(2024, 1, 1), time.Now())})

	ch, cancel := s.Subscribe(ctx, "alice")
	defer cancel()

	first := <-ch
	assert.EqualValues(t, 1, first.Version)
	require.Len(t, first.Entries, 1)

	s.SetEntries(ctx, "alice", nil)
	second := <-ch
	assert.EqualValues(t, 2, second.Version)
	assert.Empty(t, second.Entries)
}

func TestSubscribeLaggingSubscriberSeesOnlyLatest(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})
	ctx := context.Background()

	ch, cancel := s.Subscribe(ctx, "alice")
	defer cancel()
	<-ch // drain initial snapshot

	// Publish three versions without reading.
	s.SetEntries(ctx, "alice", nil)
	s.SetEntries(ctx, "alice", nil)
	s.SetEntries(ctx, "alice", []core.Entry{entry("e1", core.NewDate(2024, 1, 1), time.Now())})

	got := <-ch
	assert.EqualValues(t, 3, got.Version, "intermediate versions are dropped")
	assert.Len(t, got.Entries, 1)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra update: version %d", extra.Version)
	default:
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})
	ctx := context.Background()

	ch, cancel := s.Subscribe(ctx, "alice")
	<-ch
	cancel()

	s.SetEntries(ctx, "alice", nil)
	select {
	case <-ch:
		t.Fatal("cancelled subscriber should not receive updates")
	default:
	}
}

func TestSubscribeIsolatedPerOwner(t *testing.T) {
	s := New(&fakeLister{}, &fakeDeleter{})
	ctx := context.Background()

	ch, cancel := s.Subscribe(ctx, "alice")
	defer cancel()
	<-ch

	s.SetEntries(ctx, "bob", nil)
	select {
	case <-ch:
		t.Fatal("alice's subscriber must not see bob's updates")
	default:
	}
}

func TestRemoveChecksOwnership(t *testing.T) {
	deleter := &fakeDeleter{}
	s := New(&fakeLister{}, deleter)
	ctx := context.Background()

	s.SetEntries(ctx, "alice", []core.Entry{entry("e1", core.NewDate(2024, 1, 1), time.Now())})

	err := s.Remove(ctx, "alice", "someone-elses-entry")
	assert.ErrorIs(t, err, ErrNotOwned)
	assert.Empty(t, deleter.deleted)

	err = s.Remove(ctx, "bob", "e1")
	assert.ErrorIs(t, err, ErrNotOwned, "bob does not own alice's entry")
}

func TestRemoveDelegatesWithoutLocalMutation(t *testing.T) {
	deleter := &fakeDeleter{}
	s := New(&fakeLister{}, deleter)
	ctx := context.Background()

	s.SetEntries(ctx, "alice", []core.Entry{entry("e1", core.NewDate(2024, 1, 1), time.Now())})

	require.NoError(t, s.Remove(ctx, "alice", "e1"))
	assert.Equal(t, []string{"e1"}, deleter.deleted)

	// The snapshot is untouched until the next refresh arrives.
	cur := s.Current("alice")
	require.Len(t, cur.Entries, 1)
	assert.EqualValues(t, 1, cur.Version)
}

func TestRemovePropagatesDeleteError(t *testing.T) {
	boom := errors.New("db down")
	s := New(&fakeLister{}, &fakeDeleter{err: boom})
	ctx := context.Background()

	s.SetEntries(ctx, "alice", []core.Entry{entry("e1", core.NewDate(2024, 1, 1), time.Now())})

	err := s.Remove(ctx, "alice", "e1")
	assert.ErrorIs(t, err, boom)
}

func TestRefreshReloadsFromPersistence(t *testing.T) {
	lister := &fakeLister{entries: map[string][]core.Entry{
		"alice": {entry("e1", core.NewDate(2024, 1, 1), time.Now())},
	}}
	s := New(lister, &fakeDeleter{})

	upd, err := s.Refresh(context.Background(), "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.Version)
	assert.Len(t, upd.Entries, 1)
	assert.Equal(t, 1, lister.calls)
}

func TestRefreshPropagatesListError(t *testing.T) {
	boom := errors.New("db down")
	s := New(&fakeLister{err: boom}, &fakeDeleter{})

	_, err := s.Refresh(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)
}
