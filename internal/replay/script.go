// Package replay runs scripted edits against a history manager without a
// terminal, printing the table after every step.
package replay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/tabula/internal/config"
	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/table"
)

// Op names a script step.
type Op string

const (
	OpInsert Op = "insert"
	OpDelete Op = "delete"
	OpUndo   Op = "undo"
	OpRedo   Op = "redo"
	// OpExternalDelete and OpExternalInsert edit the table behind the
	// manager's back, to show how each policy handles divergence.
	OpExternalDelete Op = "external_delete"
	OpExternalInsert Op = "external_insert"
)

// expectedErrors maps expect_error names to the errors they match.
var expectedErrors = map[string]error{
	"nothing_to_undo":    history.ErrNothingToUndo,
	"nothing_to_redo":    history.ErrNothingToRedo,
	"invalid_selection":  history.ErrInvalidSelection,
	"diverged":           history.ErrDiverged,
	"index_out_of_range": table.ErrIndexOutOfRange,
}

// Script is a replay file.
type Script struct {
	Policy string `yaml:"policy"`
	Prefix string `yaml:"prefix"`
	// IDs is "sequence" (default, starting after the initial rows) or "random".
	IDs   string `yaml:"ids"`
	Seed  uint64 `yaml:"seed"`
	MaxID int    `yaml:"max_id"`
	// Rows holds the ids of the initial table.
	Rows  []int  `yaml:"rows"`
	Steps []Step `yaml:"steps"`
}

// Step is one scripted action with optional expectations.
type Step struct {
	Op          Op     `yaml:"op"`
	Index       *int   `yaml:"index,omitempty"`
	ID          *int   `yaml:"id,omitempty"`
	ExpectError string `yaml:"expect_error,omitempty"`
	// ExpectRows lists the row ids the table must hold after the step.
	ExpectRows []int `yaml:"expect_rows,omitempty"`
}

func (s Step) String() string {
	switch {
	case s.Index != nil:
		return fmt.Sprintf("%s %d", s.Op, *s.Index)
	case s.ID != nil:
		return fmt.Sprintf("%s id=%d", s.Op, *s.ID)
	}
	return string(s.Op)
}

// Load reads and validates a script file.
func Load(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, fmt.Errorf("opening script: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse decodes and validates a script. Unknown fields are rejected so typos
// do not silently drop expectations.
func Parse(r io.Reader) (Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Script{}, fmt.Errorf("decoding script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

// Validate checks ops, their arguments and expectation names.
func (s Script) Validate() error {
	if _, err := history.ParsePolicy(s.Policy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if err := config.ValidateTable(config.TableConfig{IDSource: s.IDs, IDMax: s.MaxID}); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return errors.New("script has no steps")
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	switch s.Op {
	case OpInsert, OpUndo, OpRedo:
	case OpDelete, OpExternalDelete:
		if s.Index == nil {
			return fmt.Errorf("%s needs an index", s.Op)
		}
	case OpExternalInsert:
		if s.ID == nil {
			return fmt.Errorf("%s needs an id", s.Op)
		}
	case "":
		return errors.New("missing op")
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	if s.ExpectError != "" {
		if _, ok := expectedErrors[s.ExpectError]; !ok {
			return fmt.Errorf("unknown expect_error %q (want one of %v)", s.ExpectError, errorNames())
		}
	}
	return nil
}

func errorNames() []string {
	names := make([]string, 0, len(expectedErrors))
	for name := range expectedErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// initialRows builds the starting table.
func (s Script) initialRows() []table.Row {
	rows := make([]table.Row, len(s.Rows))
	for i, id := range s.Rows {
		rows[i] = table.NewRow(id, s.prefix())
	}
	return rows
}

func (s Script) prefix() string {
	if s.Prefix == "" {
		return history.DefaultContentPrefix
	}
	return s.Prefix
}

// idSource returns the id source for inserts. Sequence ids start after the
// largest initial id.
func (s Script) idSource(rows []table.Row) table.IDSource {
	if s.IDs == config.IDSourceRandom {
		maxID := s.MaxID
		if maxID == 0 {
			maxID = table.DefaultMaxID
		}
		return table.NewRandomIDs(maxID, s.Seed)
	}
	ids := table.NewSequenceIDs(1)
	ids.Skip(rows)
	return ids
}

// idsOf returns the ids of rows in order.
func idsOf(rows []table.Row) []int {
	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func sameIDs(rows []table.Row, want []int) bool {
	return slices.Equal(idsOf(rows), want)
}
