package history

import (
	"fmt"
	"strings"
)

// Policy controls how commands react when the table has diverged from the
// state they recorded.
type Policy string

const (
	// PolicyStrict verifies the table before every undo/redo and rejects
	// mismatches with ErrDiverged.
	PolicyStrict Policy = "strict"
	// PolicyLenient accepts last-writer-wins semantics.
	PolicyLenient Policy = "lenient"
)

// ParsePolicy converts a config value to a Policy. Empty means strict.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyLenient:
		return PolicyLenient, nil
	default:
		return "", fmt.Errorf("unknown history policy %q (want %q or %q)", s, PolicyStrict, PolicyLenient)
	}
}

func (p Policy) String() string {
	return string(p)
}
