package tracing

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrCommandID   = "command.id"
	AttrCommandKind = "command.kind"

	AttrHistoryOp     = "history.op"
	AttrHistoryPolicy = "history.policy"
	AttrPastDepth     = "history.past_depth"
	AttrFutureDepth   = "history.future_depth"

	AttrRowID    = "row.id"
	AttrRowIndex = "row.index"
	AttrRowCount = "table.row_count"

	AttrErrorType = "error.type"
)

// Span names, one per history transition.
const (
	SpanPerform = "history.perform"
	SpanUndo    = "history.undo"
	SpanRedo    = "history.redo"
	SpanReset   = "history.reset"
)

// Event names for span events.
const (
	EventCommandApplied  = "command.applied"
	EventCommandRejected = "command.rejected"
)

// ErrorClassifier maps an error to a short type label for AttrErrorType.
type ErrorClassifier func(err error) string

// Finish records the outcome on span. A nil err marks the span Ok.
// classify may be nil.
func Finish(span trace.Span, err error, classify ErrorClassifier) {
	if err == nil {
		span.AddEvent(EventCommandApplied)
		span.SetStatus(codes.Ok, "")
		return
	}

	errType := "unknown"
	if classify != nil {
		errType = classify(err)
	} else if unwrapped := errors.Unwrap(err); unwrapped != nil {
		errType = unwrapped.Error()
	}

	span.RecordError(err)
	span.AddEvent(EventCommandRejected, trace.WithAttributes(attribute.String(AttrErrorType, errType)))
	span.SetAttributes(attribute.String(AttrErrorType, errType))
	span.SetStatus(codes.Error, err.Error())
}
