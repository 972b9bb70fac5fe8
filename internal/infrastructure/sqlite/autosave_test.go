package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/pubsub"
	"github.com/zjrosen/tabula/internal/table"
)

// recordingRepo counts saves and keeps the last snapshot.
type recordingRepo struct {
	mu    sync.Mutex
	saves int
	last  []table.Row
	err   error
}

func (r *recordingRepo) Save(_ context.Context, rows []table.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves++
	r.last = rows
	return nil
}

func (r *recordingRepo) Load(context.Context) (table.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return table.Snapshot{Rows: r.last}, nil
}

func (r *recordingRepo) Clear(context.Context) error { return nil }

func (r *recordingRepo) state() (int, []table.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves, r.last
}

func TestAutoSaver_DebouncesBurst(t *testing.T) {
	repo := &recordingRepo{}
	broker := pubsub.NewBroker[history.Change]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := history.NewManager(nil, table.NewSequenceIDs(1), history.WithBroker(broker))
	saver := NewAutoSaver(repo, WithDebounce(30*time.Millisecond))
	events := broker.Subscribe(ctx)
	done := make(chan struct{})
	go func() {
		saver.Run(ctx, events)
		close(done)
	}()

	for range 5 {
		_, err := mgr.Insert(ctx)
		require.NoError(t, err)
	}

	want := mgr.Snapshot()
	require.Eventually(t, func() bool {
		saves, last := repo.state()
		return saves >= 1 && len(last) == len(want)
	}, time.Second, 5*time.Millisecond)

	saves, last := repo.state()
	require.Equal(t, want, last)
	require.Less(t, saves, 5, "bursts are coalesced")

	cancel()
	<-done
}

func TestAutoSaver_FlushesOnCancel(t *testing.T) {
	repo := &recordingRepo{}
	events := make(chan pubsub.Event[history.Change], 1)
	ctx, cancel := context.WithCancel(context.Background())

	saver := NewAutoSaver(repo, WithDebounce(time.Hour))
	done := make(chan struct{})
	go func() {
		saver.Run(ctx, events)
		close(done)
	}()

	rows := []table.Row{table.NewRow(1, "Item")}
	events <- pubsub.Event[history.Change]{Type: pubsub.PerformedEvent, Payload: history.Change{Rows: rows}}

	// Give Run a chance to receive before cancelling
	require.Eventually(t, func() bool { return len(events) == 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	saves, last := repo.state()
	require.Equal(t, 1, saves)
	require.Equal(t, rows, last)
}

func TestAutoSaver_ReadsBufferedEventsAfterCancel(t *testing.T) {
	for range 50 {
		repo := &recordingRepo{}
		broker := pubsub.NewBroker[history.Change]()
		ctx, cancel := context.WithCancel(context.Background())
		events := broker.Subscribe(ctx)

		mgr := history.NewManager(nil, table.NewSequenceIDs(1), history.WithBroker(broker))
		for range 2 {
			_, err := mgr.Insert(ctx)
			require.NoError(t, err)
		}
		cancel()

		NewAutoSaver(repo, WithDebounce(time.Hour)).Run(ctx, events)

		saves, last := repo.state()
		require.Equal(t, 1, saves)
		require.Equal(t, mgr.Snapshot(), last)
		require.Len(t, last, 2)
		broker.Close()
	}
}

func TestAutoSaver_CancelWithOpenChannel(t *testing.T) {
	repo := &recordingRepo{}
	events := make(chan pubsub.Event[history.Change], 2)
	events <- pubsub.Event[history.Change]{Payload: history.Change{Rows: []table.Row{table.NewRow(1, "Item")}}}
	events <- pubsub.Event[history.Change]{Payload: history.Change{Rows: []table.Row{table.NewRow(1, "Item"), table.NewRow(2, "Item")}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewAutoSaver(repo, WithDebounce(time.Hour)).Run(ctx, events)

	saves, last := repo.state()
	require.Equal(t, 1, saves)
	require.Len(t, last, 2, "the latest buffered snapshot wins")
}

func TestAutoSaver_FlushesOnClosedChannel(t *testing.T) {
	repo := &recordingRepo{}
	events := make(chan pubsub.Event[history.Change], 2)
	events <- pubsub.Event[history.Change]{Payload: history.Change{Rows: []table.Row{table.NewRow(1, "Item")}}}
	events <- pubsub.Event[history.Change]{Payload: history.Change{Rows: []table.Row{table.NewRow(2, "Item")}}}
	close(events)

	NewAutoSaver(repo, WithDebounce(time.Hour)).Run(context.Background(), events)

	saves, last := repo.state()
	require.Equal(t, 1, saves, "only the latest snapshot is written")
	require.Equal(t, []table.Row{table.NewRow(2, "Item")}, last)
}

func TestAutoSaver_NothingToFlush(t *testing.T) {
	repo := &recordingRepo{}
	events := make(chan pubsub.Event[history.Change])
	close(events)

	NewAutoSaver(repo).Run(context.Background(), events)

	saves, _ := repo.state()
	require.Zero(t, saves)
}

func TestAutoSaver_ReportsErrors(t *testing.T) {
	repo := &recordingRepo{err: errors.New("disk full")}
	events := make(chan pubsub.Event[history.Change], 1)
	events <- pubsub.Event[history.Change]{Payload: history.Change{}}
	close(events)

	var got error
	saved := false
	NewAutoSaver(repo,
		WithSaveErrorHandler(func(err error) { got = err }),
		WithSavedHandler(func(int) { saved = true }),
	).Run(context.Background(), events)

	require.EqualError(t, got, "disk full")
	require.False(t, saved)
}

func TestAutoSaver_WithSQLite(t *testing.T) {
	repo := setupTestRepo(t)
	events := make(chan pubsub.Event[history.Change], 1)
	rows := []table.Row{table.NewRow(5, "Item"), table.NewRow(6, "Item")}
	events <- pubsub.Event[history.Change]{Payload: history.Change{Rows: rows}}
	close(events)

	savedRows := -1
	NewAutoSaver(repo, WithSavedHandler(func(n int) { savedRows = n })).Run(context.Background(), events)
	require.Equal(t, 2, savedRows)

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, rows, snap.Rows)
}
