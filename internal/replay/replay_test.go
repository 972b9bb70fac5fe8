package replay

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/table"
)

func mustParse(t *testing.T, src string) Script {
	t.Helper()
	s, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	return s
}

func run(t *testing.T, src string) Report {
	t.Helper()
	report, err := NewRunner().Run(context.Background(), mustParse(t, src))
	require.NoError(t, err)
	return report
}

func TestParse_Valid(t *testing.T) {
	s := mustParse(t, `
policy: lenient
prefix: Row
rows: [3, 4]
steps:
  - op: insert
  - op: delete
    index: 0
    expect_rows: [4, 5]
  - op: undo
    expect_error: nothing_to_undo
`)
	require.Equal(t, "lenient", s.Policy)
	require.Equal(t, []int{3, 4}, s.Rows)
	require.Len(t, s.Steps, 3)
	require.Equal(t, OpDelete, s.Steps[1].Op)
	require.Equal(t, 0, *s.Steps[1].Index)
	require.Equal(t, []int{4, 5}, s.Steps[1].ExpectRows)
	require.Equal(t, "nothing_to_undo", s.Steps[2].ExpectError)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", "policy: strict\nstepz: []\n", "field stepz not found"},
		{"no steps", "policy: strict\n", "script has no steps"},
		{"empty", "", "script has no steps"},
		{"bad policy", "policy: yolo\nsteps: [{op: insert}]\n", "unknown history policy"},
		{"bad id source", "ids: dice\nsteps: [{op: insert}]\n", "table.id_source"},
		{"unknown op", "steps: [{op: shuffle}]\n", `step 1: unknown op "shuffle"`},
		{"missing op", "steps: [{index: 1}]\n", "step 1: missing op"},
		{"delete needs index", "steps: [{op: insert}, {op: delete}]\n", "step 2: delete needs an index"},
		{"external insert needs id", "steps: [{op: external_insert}]\n", "external_insert needs an id"},
		{"unknown expectation", "steps: [{op: undo, expect_error: oops}]\n", `unknown expect_error "oops"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_Testdata(t *testing.T) {
	s, err := Load("testdata/divergence.yaml")
	require.NoError(t, err)

	report, err := NewRunner().Run(context.Background(), s)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	require.Len(t, report.Steps, 7)
	require.Equal(t, history.PolicyStrict, report.Policy)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	require.ErrorContains(t, err, "opening script")
}

func TestRun_InsertDeleteUndoRedo(t *testing.T) {
	report := run(t, `
steps:
  - op: insert
  - op: insert
  - op: delete
    index: 0
    expect_rows: [2]
  - op: undo
    expect_rows: [1, 2]
  - op: redo
    expect_rows: [2]
`)
	require.NoError(t, report.Err())
	require.Equal(t, table.NewRow(1, "Item"), *report.Steps[0].Row)
	require.Equal(t, table.NewRow(1, "Item"), *report.Steps[2].Row)
	require.Nil(t, report.Steps[3].Row)

	last := report.Steps[4]
	require.True(t, last.CanUndo)
	require.False(t, last.CanRedo)
}

func TestRun_StrictRejectsDivergedUndo(t *testing.T) {
	report := run(t, `
policy: strict
steps:
  - op: insert
  - op: external_delete
    index: 0
  - op: undo
    expect_error: diverged
`)
	require.NoError(t, report.Err())
	require.True(t, report.Steps[2].CanUndo, "a rejected undo stays on the past stack")
}

func TestRun_LenientSkipsDivergedUndo(t *testing.T) {
	report := run(t, `
policy: lenient
rows: [1, 2]
steps:
  - op: delete
    index: 1
  - op: undo
    expect_rows: [1, 2]
  - op: external_delete
    index: 1
  - op: external_delete
    index: 0
  - op: redo
    expect_error: index_out_of_range
    expect_rows: []
`)
	require.NoError(t, report.Err())
}

func TestRun_ReportsMissedExpectations(t *testing.T) {
	report := run(t, `
steps:
  - op: undo
  - op: insert
    expect_error: nothing_to_undo
  - op: insert
    expect_rows: [9]
  - op: redo
    expect_error: nothing_to_undo
`)
	require.Equal(t, 4, report.Failed())
	require.ErrorIs(t, report.Err(), ErrExpectationsFailed)
	require.EqualError(t, report.Err(), "replay expectations failed: 4 of 4 steps")

	require.Contains(t, report.Steps[0].Failure, "unexpected error")
	require.Equal(t, "expected nothing_to_undo, got success", report.Steps[1].Failure)
	require.Equal(t, "expected rows [9], got [1 2]", report.Steps[2].Failure)
	require.Contains(t, report.Steps[3].Failure, "expected nothing_to_undo, got")
}

func TestRun_InvalidSelection(t *testing.T) {
	report := run(t, `
steps:
  - op: delete
    index: 0
    expect_error: invalid_selection
`)
	require.NoError(t, report.Err())
}

func TestRun_RandomIDsAreSeeded(t *testing.T) {
	src := `
ids: random
seed: 42
max_id: 50
steps:
  - op: insert
  - op: insert
  - op: insert
`
	a := run(t, src)
	b := run(t, src)
	require.Equal(t, a.Steps[2].Rows, b.Steps[2].Rows)
	for _, r := range a.Steps[2].Rows {
		require.Less(t, r.ID, 50)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner().Run(ctx, mustParse(t, "steps: [{op: insert}]\n"))
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, report.Steps)
}

func TestLineDiff(t *testing.T) {
	require.Nil(t, LineDiff("1: Item 1\n", "1: Item 1\n"))

	lines := LineDiff("1: Item 1\n2: Item 2\n3: Item 3\n", "1: Item 1\n3: Item 3\n4: Item 4\n")
	var got []string
	for _, l := range lines {
		got = append(got, l.String())
	}
	require.Equal(t, []string{
		"  1: Item 1",
		"- 2: Item 2",
		"  3: Item 3",
		"+ 4: Item 4",
	}, got)
	require.Equal(t, diffmatchpatch.DiffDelete, lines[1].Type)
}

func TestRender(t *testing.T) {
	require.Empty(t, Render(nil))
	require.Equal(t, "1: Item 1\n7: Item 7\n", Render([]table.Row{table.NewRow(1, "Item"), table.NewRow(7, "Item")}))
}

func TestPrint_FullTables(t *testing.T) {
	report := run(t, `
rows: [5]
steps:
  - op: insert
  - op: undo
    expect_error: nothing_to_undo
`)
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, report, PrintOptions{}))

	out := buf.String()
	require.Contains(t, out, "policy strict, 1 initial rows, 2 steps")
	require.Contains(t, out, "PASS  1 insert -> 6: Item 6")
	require.Contains(t, out, "[1] 6: Item 6")
	require.Contains(t, out, "FAIL  2 undo -> ok")
	require.Contains(t, out, "expected nothing_to_undo, got success")
	require.Contains(t, out, "1 of 2 steps failed")
}

func TestPrint_Diff(t *testing.T) {
	report := run(t, `
steps:
  - op: insert
  - op: undo
  - op: undo
    expect_error: nothing_to_undo
`)
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, report, PrintOptions{Diff: true}))

	out := buf.String()
	require.Contains(t, out, "(empty)")
	require.Contains(t, out, "+ 1: Item 1")
	require.Contains(t, out, "- 1: Item 1")
	require.Contains(t, out, "(unchanged)")
	require.Contains(t, out, "all 3 steps passed")
	require.Contains(t, out, "error: nothing to undo")
}
