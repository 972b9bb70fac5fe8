// Package history implements reversible row commands and the undo/redo
// manager that applies them to a table.
//
// Commands form a closed set: Insert and Delete. The Manager dispatches on
// the concrete type, so adding a command kind means extending the switches
// in dispatch.go.
//
// The Manager keeps two stacks. Perform executes a command, pushes it onto
// the past stack and clears the future stack. Undo moves the newest past
// command to the future stack after reversing it; Redo moves it back.
// A command whose execute, undo or redo fails is not moved, and the table
// is left as it was.
//
// Policy decides what happens when the table no longer matches what a
// command recorded (someone mutated the table outside the Manager).
// PolicyStrict rejects the operation with a DivergedError. PolicyLenient
// keeps last-writer-wins behavior: Insert undo skips a vanished row, Insert
// redo appends, Delete redo removes whatever row sits at the index.
package history
