package history

import (
	"context"
	"errors"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/zjrosen/tabula/internal/table"
)

// TestManager_MatchesSnapshotModel drives the manager with random intents and
// checks it against a model that remembers the table state before every
// performed command. Undo must land exactly on the remembered state, redo on
// the state that undo left behind.
func TestManager_MatchesSnapshotModel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		policy := rapid.SampledFrom([]Policy{PolicyStrict, PolicyLenient}).Draw(rt, "policy")
		seed := rapid.Uint64Range(1, 1<<32).Draw(rt, "seed")

		m := NewManager(table.New(), table.NewRandomIDs(1000, seed), WithPolicy(policy))
		ctx := context.Background()

		var past, future [][]table.Row

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := range steps {
			before := m.Snapshot()

			switch op := rapid.IntRange(0, 3).Draw(rt, "op"); op {
			case 0:
				if _, err := m.Insert(ctx); err != nil {
					rt.Fatalf("step %d: insert: %v", i, err)
				}
				past = append(past, before)
				future = nil

			case 1:
				idx := rapid.IntRange(-1, len(before)).Draw(rt, "index")
				_, err := m.Delete(ctx, idx)
				if idx < 0 || idx >= len(before) {
					if !errors.Is(err, ErrInvalidSelection) {
						rt.Fatalf("step %d: delete %d on %d rows: want invalid selection, got %v", i, idx, len(before), err)
					}
					if !slices.Equal(before, m.Snapshot()) {
						rt.Fatalf("step %d: rejected delete mutated the table", i)
					}
					break
				}
				if err != nil {
					rt.Fatalf("step %d: delete %d: %v", i, idx, err)
				}
				past = append(past, before)
				future = nil

			case 2:
				err := m.Undo(ctx)
				if len(past) == 0 {
					if !errors.Is(err, ErrNothingToUndo) {
						rt.Fatalf("step %d: want nothing to undo, got %v", i, err)
					}
					break
				}
				if err != nil {
					rt.Fatalf("step %d: undo: %v", i, err)
				}
				want := past[len(past)-1]
				past = past[:len(past)-1]
				future = append(future, before)
				if got := m.Snapshot(); !slices.Equal(want, got) {
					rt.Fatalf("step %d: undo gave %v, want %v", i, got, want)
				}

			case 3:
				err := m.Redo(ctx)
				if len(future) == 0 {
					if !errors.Is(err, ErrNothingToRedo) {
						rt.Fatalf("step %d: want nothing to redo, got %v", i, err)
					}
					break
				}
				if err != nil {
					rt.Fatalf("step %d: redo: %v", i, err)
				}
				want := future[len(future)-1]
				future = future[:len(future)-1]
				past = append(past, before)
				if got := m.Snapshot(); !slices.Equal(want, got) {
					rt.Fatalf("step %d: redo gave %v, want %v", i, got, want)
				}
			}

			if m.CanUndo() != (len(past) > 0) {
				rt.Fatalf("step %d: CanUndo=%v with %d past states", i, m.CanUndo(), len(past))
			}
			if m.CanRedo() != (len(future) > 0) {
				rt.Fatalf("step %d: CanRedo=%v with %d future states", i, m.CanRedo(), len(future))
			}
		}
	})
}

// TestManager_UndoEverythingEmptiesTable checks that N performs followed by N
// undos always return to the initial empty table.
func TestManager_UndoEverythingEmptiesTable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := NewManager(nil, table.NewSequenceIDs(1))
		ctx := context.Background()

		performed := 0
		n := rapid.IntRange(0, 40).Draw(rt, "n")
		for range n {
			if m.Len() > 0 && rapid.Bool().Draw(rt, "delete") {
				idx := rapid.IntRange(0, m.Len()-1).Draw(rt, "index")
				if _, err := m.Delete(ctx, idx); err != nil {
					rt.Fatalf("delete: %v", err)
				}
			} else if _, err := m.Insert(ctx); err != nil {
				rt.Fatalf("insert: %v", err)
			}
			performed++
		}

		for range performed {
			if err := m.Undo(ctx); err != nil {
				rt.Fatalf("undo: %v", err)
			}
		}
		if m.CanUndo() {
			rt.Fatalf("CanUndo still true after %d undos", performed)
		}
		if m.Len() != 0 {
			rt.Fatalf("table has %d rows, want 0", m.Len())
		}
	})
}
