package history

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/pubsub"
	"github.com/zjrosen/tabula/internal/table"
	"github.com/zjrosen/tabula/internal/tracing"
)

// DefaultContentPrefix is prepended to row ids to build row content.
const DefaultContentPrefix = "Item"

// Op names a history transition.
type Op string

const (
	OpPerform Op = "perform"
	OpUndo    Op = "undo"
	OpRedo    Op = "redo"
	OpReset   Op = "reset"
)

// Change is published after every successful transition. Rows is a copy of
// the table, safe to read from another goroutine.
type Change struct {
	Op        Op
	CommandID string
	Kind      Kind
	Rows      []table.Row
	CanUndo   bool
	CanRedo   bool
}

// Entry describes one command on a history stack.
type Entry struct {
	ID          string
	Kind        Kind
	Description string
}

// Manager owns a table and its undo/redo stacks.
//
// A Manager is not safe for concurrent use. Every call for one user intent
// must come from the same goroutine (the UI event loop), or be wrapped in a
// single critical section by the caller.
type Manager struct {
	table  *table.Table
	ids    table.IDSource
	prefix string
	policy Policy

	past   []Command
	future []Command

	tracer trace.Tracer
	broker *pubsub.Broker[Change]
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy sets the divergence policy. The default is PolicyStrict.
func WithPolicy(p Policy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// WithTracer sets the tracer used for transition spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithBroker publishes a Change on b after every successful transition.
func WithBroker(b *pubsub.Broker[Change]) Option {
	return func(m *Manager) {
		m.broker = b
	}
}

// WithContentPrefix sets the prefix used to derive row content.
func WithContentPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = prefix
	}
}

// NewManager creates a Manager over tbl. A nil tbl starts empty; nil ids
// draws random ids in [0, table.DefaultMaxID).
func NewManager(tbl *table.Table, ids table.IDSource, opts ...Option) *Manager {
	if tbl == nil {
		tbl = table.New()
	}
	if ids == nil {
		ids = table.NewRandomIDs(table.DefaultMaxID, 0)
	}
	m := &Manager{
		table:  tbl,
		ids:    ids,
		prefix: DefaultContentPrefix,
		policy: PolicyStrict,
		tracer: noop.NewTracerProvider().Tracer("tabula"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the divergence policy in effect.
func (m *Manager) Policy() Policy {
	return m.policy
}

// SetPolicy changes the divergence policy. Commands already on the stacks are
// checked under the new policy from their next undo or redo on.
func (m *Manager) SetPolicy(p Policy) {
	if p != m.policy {
		log.Info(log.CatHistory, "Policy changed", "from", m.policy, "to", p)
	}
	m.policy = p
}

// NewInsert creates an Insert bound to the manager's id source and prefix.
func (m *Manager) NewInsert() *Insert {
	return NewInsert(m.ids, m.prefix)
}

// NewDelete creates a Delete for the row at index.
func (m *Manager) NewDelete(index int) *Delete {
	return NewDelete(index)
}

// Perform executes cmd and records it. The future stack is discarded.
// A command that fails to execute is not recorded.
func (m *Manager) Perform(ctx context.Context, cmd Command) (err error) {
	if isNil(cmd) {
		return ErrNilCommand
	}

	_, span := m.startSpan(ctx, OpPerform, tracing.SpanPerform, cmd)
	defer func() { m.endSpan(span, cmd, err) }()

	if err := execute(cmd, m.table); err != nil {
		m.logFailure(OpPerform, cmd, err)
		return fmt.Errorf("perform %s: %w", cmd.Kind(), err)
	}

	m.past = append(m.past, cmd)
	clear(m.future)
	m.future = m.future[:0]

	log.Debug(log.CatHistory, "performed", "command", cmd.ID(), "kind", cmd.Kind(), "desc", cmd.Describe(), "rows", m.table.Len())
	m.publish(OpPerform, cmd)
	return nil
}

// Insert performs a new Insert and returns the generated row.
func (m *Manager) Insert(ctx context.Context) (table.Row, error) {
	cmd := m.NewInsert()
	if err := m.Perform(ctx, cmd); err != nil {
		return table.Row{}, err
	}
	return cmd.Row(), nil
}

// Delete performs a Delete of the row at index and returns the removed row.
func (m *Manager) Delete(ctx context.Context, index int) (table.Row, error) {
	cmd := m.NewDelete(index)
	if err := m.Perform(ctx, cmd); err != nil {
		return table.Row{}, err
	}
	return cmd.Row(), nil
}

// Undo reverses the most recent command and moves it to the future stack.
// If the command cannot be reversed it stays on the past stack.
func (m *Manager) Undo(ctx context.Context) (err error) {
	if len(m.past) == 0 {
		return ErrNothingToUndo
	}
	cmd := m.past[len(m.past)-1]

	_, span := m.startSpan(ctx, OpUndo, tracing.SpanUndo, cmd)
	defer func() { m.endSpan(span, cmd, err) }()

	if err := undo(cmd, m.table, m.policy); err != nil {
		m.logFailure(OpUndo, cmd, err)
		return fmt.Errorf("undo %s: %w", cmd.Kind(), err)
	}

	m.past[len(m.past)-1] = nil
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, cmd)

	log.Debug(log.CatHistory, "undone", "command", cmd.ID(), "kind", cmd.Kind(), "rows", m.table.Len())
	m.publish(OpUndo, cmd)
	return nil
}

// Redo re-applies the most recently undone command and moves it back to the
// past stack. If the command cannot be re-applied it stays on the future stack.
func (m *Manager) Redo(ctx context.Context) (err error) {
	if len(m.future) == 0 {
		return ErrNothingToRedo
	}
	cmd := m.future[len(m.future)-1]

	_, span := m.startSpan(ctx, OpRedo, tracing.SpanRedo, cmd)
	defer func() { m.endSpan(span, cmd, err) }()

	if err := redo(cmd, m.table, m.policy); err != nil {
		m.logFailure(OpRedo, cmd, err)
		return fmt.Errorf("redo %s: %w", cmd.Kind(), err)
	}

	m.future[len(m.future)-1] = nil
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, cmd)

	log.Debug(log.CatHistory, "redone", "command", cmd.ID(), "kind", cmd.Kind(), "rows", m.table.Len())
	m.publish(OpRedo, cmd)
	return nil
}

// Reset replaces the table contents and clears both stacks.
func (m *Manager) Reset(ctx context.Context, rows ...table.Row) {
	_, span := m.tracer.Start(ctx, tracing.SpanReset, trace.WithAttributes(
		attribute.Int(tracing.AttrRowCount, len(rows)),
	))
	defer span.End()

	m.table.Reset(rows...)
	clear(m.past)
	clear(m.future)
	m.past = m.past[:0]
	m.future = m.future[:0]
	if seq, ok := m.ids.(*table.SequenceIDs); ok {
		seq.Skip(rows)
	}

	log.Info(log.CatHistory, "history reset", "rows", len(rows))
	m.publish(OpReset, nil)
}

// CanUndo reports whether Undo has a command to reverse.
func (m *Manager) CanUndo() bool {
	return len(m.past) > 0
}

// CanRedo reports whether Redo has a command to re-apply.
func (m *Manager) CanRedo() bool {
	return len(m.future) > 0
}

// Snapshot returns a copy of the table rows in order.
func (m *Manager) Snapshot() []table.Row {
	return m.table.Rows()
}

// Len returns the number of rows in the table.
func (m *Manager) Len() int {
	return m.table.Len()
}

// Past returns the past stack, oldest first.
func (m *Manager) Past() []Entry {
	return entries(m.past)
}

// Future returns the future stack, oldest first; the last entry is the next
// command Redo would apply.
func (m *Manager) Future() []Entry {
	return entries(m.future)
}

func entries(cmds []Command) []Entry {
	out := make([]Entry, len(cmds))
	for i, c := range cmds {
		out[i] = Entry{ID: c.ID(), Kind: c.Kind(), Description: c.Describe()}
	}
	return out
}

func (m *Manager) publish(op Op, cmd Command) {
	if m.broker == nil {
		return
	}
	change := Change{
		Op:      op,
		Rows:    m.table.Rows(),
		CanUndo: m.CanUndo(),
		CanRedo: m.CanRedo(),
	}
	if cmd != nil {
		change.CommandID = cmd.ID()
		change.Kind = cmd.Kind()
	}
	m.broker.Publish(eventType(op), change)
}

func eventType(op Op) pubsub.EventType {
	switch op {
	case OpUndo:
		return pubsub.UndoneEvent
	case OpRedo:
		return pubsub.RedoneEvent
	case OpReset:
		return pubsub.ResetEvent
	default:
		return pubsub.PerformedEvent
	}
}

// rowCommand is satisfied by commands that touch a single row.
type rowCommand interface {
	Row() table.Row
	Index() int
}

func (m *Manager) startSpan(ctx context.Context, op Op, name string, cmd Command) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String(tracing.AttrHistoryOp, string(op)),
		attribute.String(tracing.AttrCommandID, cmd.ID()),
		attribute.String(tracing.AttrCommandKind, cmd.Kind().String()),
		attribute.String(tracing.AttrHistoryPolicy, m.policy.String()),
	))
}

func (m *Manager) endSpan(span trace.Span, cmd Command, err error) {
	span.SetAttributes(
		attribute.Int(tracing.AttrPastDepth, len(m.past)),
		attribute.Int(tracing.AttrFutureDepth, len(m.future)),
		attribute.Int(tracing.AttrRowCount, m.table.Len()),
	)
	if rc, ok := cmd.(rowCommand); ok && err == nil {
		span.SetAttributes(
			attribute.Int(tracing.AttrRowID, rc.Row().ID),
			attribute.Int(tracing.AttrRowIndex, rc.Index()),
		)
	}
	tracing.Finish(span, err, classify)
	span.End()
}

// classify labels errors for span attributes.
func classify(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, ErrDiverged):
		return "diverged"
	case errors.Is(err, table.ErrIndexOutOfRange):
		return "index_out_of_range"
	case errors.Is(err, ErrAlreadyPerformed):
		return "already_performed"
	default:
		return "unknown"
	}
}

func (m *Manager) logFailure(op Op, cmd Command, err error) {
	fields := []any{"op", op, "command", cmd.ID(), "kind", cmd.Kind()}
	switch {
	case errors.Is(err, table.ErrIndexOutOfRange):
		// Only reachable when the table was changed behind the manager's back.
		log.ErrorErr(log.CatHistory, "table bound violation", err, fields...)
	case errors.Is(err, ErrDiverged):
		log.Warn(log.CatHistory, "history diverged from table", append(fields, "error", err.Error())...)
	default:
		log.Debug(log.CatHistory, "command rejected", append(fields, "error", err.Error())...)
	}
}
