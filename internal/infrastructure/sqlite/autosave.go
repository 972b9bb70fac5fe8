package sqlite

import (
	"context"
	"time"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/pubsub"
	"github.com/zjrosen/tabula/internal/table"
)

// DefaultAutoSaveDebounce coalesces bursts of edits into one write.
const DefaultAutoSaveDebounce = 500 * time.Millisecond

// AutoSaver writes the latest table snapshot after history changes.
type AutoSaver struct {
	repo     table.Repository
	debounce time.Duration
	onError  func(error)
	onSaved  func(rows int)
}

// AutoSaveOption configures an AutoSaver.
type AutoSaveOption func(*AutoSaver)

// WithDebounce sets the quiet period before a save.
func WithDebounce(d time.Duration) AutoSaveOption {
	return func(a *AutoSaver) { a.debounce = d }
}

// WithSaveErrorHandler is called when a save fails.
func WithSaveErrorHandler(fn func(error)) AutoSaveOption {
	return func(a *AutoSaver) { a.onError = fn }
}

// WithSavedHandler is called after every successful save.
func WithSavedHandler(fn func(rows int)) AutoSaveOption {
	return func(a *AutoSaver) { a.onSaved = fn }
}

// NewAutoSaver creates an AutoSaver writing to repo.
func NewAutoSaver(repo table.Repository, opts ...AutoSaveOption) *AutoSaver {
	a := &AutoSaver{repo: repo, debounce: DefaultAutoSaveDebounce}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run consumes change events until ctx is cancelled or events is closed.
// On cancel the events already buffered are read first, then the latest
// snapshot is flushed before Run returns.
func (a *AutoSaver) Run(ctx context.Context, events <-chan pubsub.Event[history.Change]) {
	var (
		timer   *time.Timer
		pending []table.Row
		dirty   bool
	)
	timerC := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		return nil
	}

	flush := func(ctx context.Context) {
		if !dirty {
			return
		}
		dirty = false
		a.save(ctx, pending)
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				flush(context.WithoutCancel(ctx))
				return
			}
			pending = ev.Payload.Rows
			dirty = true
			if timer == nil {
				timer = time.NewTimer(a.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(a.debounce)
			}

		case <-timerC():
			flush(ctx)

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			if rows, ok := drain(events); ok {
				pending = rows
				dirty = true
			}
			flush(context.WithoutCancel(ctx))
			return
		}
	}
}

// drain reads events already buffered in the channel without blocking and
// returns the rows of the last one.
func drain(events <-chan pubsub.Event[history.Change]) ([]table.Row, bool) {
	var (
		rows []table.Row
		got  bool
	)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return rows, got
			}
			rows, got = ev.Payload.Rows, true
		default:
			return rows, got
		}
	}
}

func (a *AutoSaver) save(ctx context.Context, rows []table.Row) {
	if err := a.repo.Save(ctx, rows); err != nil {
		log.ErrorErr(log.CatDB, "Autosave failed", err, "rows", len(rows))
		if a.onError != nil {
			a.onError(err)
		}
		return
	}
	if a.onSaved != nil {
		a.onSaved(len(rows))
	}
}
