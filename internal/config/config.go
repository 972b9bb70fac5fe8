// Package config provides configuration types and defaults for tabula.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/table"
	"github.com/zjrosen/tabula/internal/tracing"
)

// Id source names accepted in table.id_source.
const (
	IDSourceRandom   = "random"
	IDSourceSequence = "sequence"
)

// DefaultConfigPath is where the default config is written when none exists.
const DefaultConfigPath = ".tabula/config.yaml"

// Config holds all configuration options for tabula.
type Config struct {
	Table   TableConfig     `mapstructure:"table"`
	History HistoryConfig   `mapstructure:"history"`
	Store   StoreConfig     `mapstructure:"store"`
	UI      UIConfig        `mapstructure:"ui"`
	Tracing tracing.Config  `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// TableConfig controls how new rows are generated.
type TableConfig struct {
	ContentPrefix string `mapstructure:"content_prefix"` // Row content is "<prefix> <id>"
	IDSource      string `mapstructure:"id_source"`      // "random" (default) or "sequence"
	IDMax         int    `mapstructure:"id_max"`         // Exclusive upper bound for random ids
	Seed          uint64 `mapstructure:"seed"`           // 0 picks a random seed
}

// HistoryConfig controls the undo/redo engine.
type HistoryConfig struct {
	Policy string `mapstructure:"policy"` // "strict" (default) or "lenient"
}

// StoreConfig controls the row snapshot store.
type StoreConfig struct {
	Path     string `mapstructure:"path"`
	AutoSave bool   `mapstructure:"autosave"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
	ShowHistory   bool   `mapstructure:"show_history"`
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// HistoryPolicy parses the configured policy. Call Validate first.
func (c Config) HistoryPolicy() history.Policy {
	p, err := history.ParsePolicy(c.History.Policy)
	if err != nil {
		return history.PolicyStrict
	}
	return p
}

// NewIDSource builds the id source named by table.id_source.
func (t TableConfig) NewIDSource() table.IDSource {
	if strings.EqualFold(t.IDSource, IDSourceSequence) {
		return table.NewSequenceIDs(1)
	}
	return table.NewRandomIDs(t.IDMax, t.Seed)
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Table: TableConfig{
			ContentPrefix: history.DefaultContentPrefix,
			IDSource:      IDSourceRandom,
			IDMax:         table.DefaultMaxID,
		},
		History: HistoryConfig{
			Policy: history.PolicyStrict.String(),
		},
		Store: StoreConfig{
			Path:     DefaultStorePath(),
			AutoSave: true,
		},
		UI: UIConfig{
			ShowStatusBar: true,
			ShowHistory:   false,
			MarkdownStyle: "dark",
		},
		Tracing: tracing.DefaultConfig(),
		Flags:   map[string]bool{},
	}
}

// DefaultStorePath returns the snapshot database path relative to the
// working directory.
func DefaultStorePath() string {
	return filepath.Join(".tabula", "rows.db")
}

// DefaultTracesFilePath returns the default trace file path next to the
// user config.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tabula", "traces", "traces.jsonl")
	}
	return filepath.Join(home, ".config", "tabula", "traces", "traces.jsonl")
}

// SetDefaults registers every default on v so keys missing from the config
// file still unmarshal to sensible values.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("table.content_prefix", d.Table.ContentPrefix)
	v.SetDefault("table.id_source", d.Table.IDSource)
	v.SetDefault("table.id_max", d.Table.IDMax)
	v.SetDefault("table.seed", d.Table.Seed)
	v.SetDefault("history.policy", d.History.Policy)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.autosave", d.Store.AutoSave)
	v.SetDefault("ui.show_status_bar", d.UI.ShowStatusBar)
	v.SetDefault("ui.show_history", d.UI.ShowHistory)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Load reads a config file into a fresh viper instance. Used for hot reload,
// where the global viper state must not be touched.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if err := ValidateTable(cfg.Table); err != nil {
		return err
	}
	if _, err := history.ParsePolicy(cfg.History.Policy); err != nil {
		return fmt.Errorf("history.policy: %w", err)
	}
	if err := ValidateUI(cfg.UI); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTable checks the row generation settings.
func ValidateTable(t TableConfig) error {
	switch strings.ToLower(t.IDSource) {
	case "", IDSourceRandom, IDSourceSequence:
	default:
		return fmt.Errorf("table.id_source must be %q or %q, got %q", IDSourceRandom, IDSourceSequence, t.IDSource)
	}
	if t.IDMax < 0 {
		return fmt.Errorf("table.id_max must not be negative, got %d", t.IDMax)
	}
	return nil
}

// ValidateUI checks user interface settings.
func ValidateUI(ui UIConfig) error {
	switch ui.MarkdownStyle {
	case "", "dark", "light":
		return nil
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", ui.MarkdownStyle)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing tracing.Config) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Path requirements only matter when tracing is on
	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Tabula Configuration

# Row generation
table:
  content_prefix: Item   # Row content is "<prefix> <id>"
  id_source: random      # "random" ids in [0, id_max) or "sequence" (1, 2, 3, ...)
  id_max: 1000
  # seed: 42             # Fixed seed for reproducible random ids

# Undo/redo behavior
history:
  # strict: refuse to undo/redo when the table no longer matches what the
  #         command recorded
  # lenient: last writer wins
  policy: strict

# Row snapshot store (rows only, history is never saved)
store:
  path: .tabula/rows.db
  autosave: true

# UI settings
ui:
  show_status_bar: true   # Show status bar at bottom
  show_history: false     # Show the undo/redo history panel on start
  # markdown_style: dark  # Help rendering style: "dark" (default) or "light"

# OpenTelemetry tracing of perform/undo/redo
tracing:
  enabled: false
  exporter: file          # "none", "file", "stdout" or "otlp"
  # file_path: ~/.config/tabula/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Feature flags
flags:
  mouse-select: true
  render-cache: true
`
}

// WriteDefaultConfig creates a config file with default settings.
// Creates parent directories if they don't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	if err := writeAtomic(configPath, []byte(DefaultConfigTemplate())); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return err
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
