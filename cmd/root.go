package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/tabula/internal/app"
	"github.com/zjrosen/tabula/internal/config"
	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/infrastructure/sqlite"
	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/paths"
	"github.com/zjrosen/tabula/internal/pubsub"
	"github.com/zjrosen/tabula/internal/table"
	"github.com/zjrosen/tabula/internal/tracing"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tabula",
	Short: "A terminal record editor with undo and redo",
	Long: `A terminal user interface for editing a table of rows. Every insert and
delete can be undone and redone, and the table is saved between runs.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .tabula/config.yaml or ~/.config/tabula/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also enabled by TABULA_DEBUG)")
	rootCmd.Flags().String("db", "",
		"snapshot database, .tabula directory or project directory")
	rootCmd.Flags().Bool("no-autosave", false,
		"do not save the table after edits")

	// Bind flags to viper
	_ = viper.BindPFlag("store.path", rootCmd.Flags().Lookup("db"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .tabula/config.yaml (current directory)
		// 2. ~/.config/tabula/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "tabula"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .tabula/config.yaml
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(config.DefaultConfigPath); writeErr == nil {
				viper.SetConfigFile(config.DefaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// debugEnabled reports whether --debug or TABULA_DEBUG asked for logs.
func debugEnabled() bool {
	return debugFlag || os.Getenv("TABULA_DEBUG") != ""
}

// initDebugLog starts file logging when debug mode is on. The returned
// cleanup is never nil.
func initDebugLog() (func(), error) {
	if !debugEnabled() {
		return func() {}, nil
	}
	logPath := os.Getenv("TABULA_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, "tabula")
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "Tabula starting", "debug", true, "logPath", logPath, "version", version)
	return cleanup, nil
}

// newTracingProvider builds the tracing provider, filling in the default
// trace file when the file exporter has no path.
func newTracingProvider(tc tracing.Config) (*tracing.Provider, error) {
	if tc.Enabled && tc.Exporter == "file" && tc.FilePath == "" {
		tc.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tc)
	if err != nil {
		return nil, fmt.Errorf("creating tracing provider: %w", err)
	}
	return provider, nil
}

func shutdownTracing(provider *tracing.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "Tracing shutdown failed", err)
	}
}

// restoreSnapshot loads the last saved table into mgr. A store with no
// snapshot leaves mgr empty.
func restoreSnapshot(ctx context.Context, mgr *history.Manager, repo table.Repository) error {
	snap, err := repo.Load(ctx)
	if sqlite.IsNotFound(err) {
		log.Info(log.CatDB, "No saved snapshot, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	mgr.Reset(ctx, snap.Rows...)
	log.Info(log.CatDB, "Restored snapshot", "rows", len(snap.Rows), "saved_at", snap.SavedAt)
	return nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanupLog, err := initDebugLog()
	if err != nil {
		return err
	}
	defer cleanupLog()

	// Handle --no-autosave flag (negated logic)
	if noAutoSave, _ := cmd.Flags().GetBool("no-autosave"); noAutoSave {
		cfg.Store.AutoSave = false
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	provider, err := newTracingProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	defer shutdownTracing(provider)

	storePath := paths.ResolveStorePath(cfg.Store.Path)
	db, err := sqlite.NewDB(storePath)
	if err != nil {
		return fmt.Errorf("opening store %s: %w", storePath, err)
	}
	defer func() { _ = db.Close() }()
	repo := db.RowRepository()

	broker := pubsub.NewBroker[history.Change]()
	defer broker.Close()

	mgr := history.NewManager(nil, cfg.Table.NewIDSource(),
		history.WithPolicy(cfg.HistoryPolicy()),
		history.WithContentPrefix(cfg.Table.ContentPrefix),
		history.WithTracer(provider.Tracer()),
		history.WithBroker(broker),
	)
	if err := restoreSnapshot(ctx, mgr, repo); err != nil {
		return err
	}

	// Store the config file path for hot reload and UI toggles
	configFilePath := viper.ConfigFileUsed()
	if configFilePath == "" {
		configFilePath = config.DefaultConfigPath
	}

	zone.NewGlobal()
	model := app.New(app.Options{
		Config:     cfg,
		ConfigPath: configFilePath,
		Manager:    mgr,
		DebugMode:  debugEnabled(),
	})
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	saverDone := make(chan struct{})
	if cfg.Store.AutoSave {
		events := broker.Subscribe(ctx)
		saver := sqlite.NewAutoSaver(repo,
			sqlite.WithSavedHandler(func(rows int) {
				p.Send(app.SavedMsg{Rows: rows, At: time.Now()})
			}),
			sqlite.WithSaveErrorHandler(func(err error) {
				p.Send(app.SaveFailedMsg{Err: err})
			}),
		)
		go func() {
			defer close(saverDone)
			saver.Run(ctx, events)
		}()
	} else {
		close(saverDone)
		log.Info(log.CatDB, "Autosave disabled")
	}

	_, err = p.Run()

	// Flush the last snapshot before the store closes
	cancel()
	<-saverDone

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
