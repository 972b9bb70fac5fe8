// Package flags provides feature flag support for controlled feature rollout.
// Flags are read-only after initialization and provide safe defaults for unknown flags.
package flags

import (
	"maps"

	"github.com/zjrosen/tabula/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagMouseSelect controls whether clicking a row selects it.
	FlagMouseSelect = "mouse-select"

	// FlagRenderCache controls whether rendered row cells are cached
	// between frames.
	FlagRenderCache = "render-cache"
)

// Defaults returns the flag values used when the config file has no flags
// section.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagMouseSelect: true,
		FlagRenderCache: true,
	}
}

// Registry holds feature flag state loaded from configuration.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags (safe default).
// Returns false when called on nil registry (nil-safe).
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// WithDefaults returns a Registry where flags missing from r fall back to
// Defaults.
func (r *Registry) WithDefaults() *Registry {
	merged := Defaults()
	maps.Copy(merged, r.All())
	return &Registry{flags: merged}
}

// All returns a copy of all flags (for debugging/logging).
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
