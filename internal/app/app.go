// Package app contains the root application model.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/tabula/internal/cachemanager"
	"github.com/zjrosen/tabula/internal/config"
	"github.com/zjrosen/tabula/internal/flags"
	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/keys"
	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/table"
	"github.com/zjrosen/tabula/internal/ui/help"
	"github.com/zjrosen/tabula/internal/ui/historypanel"
	"github.com/zjrosen/tabula/internal/ui/markdown"
	"github.com/zjrosen/tabula/internal/ui/shared/logoverlay"
	uitable "github.com/zjrosen/tabula/internal/ui/shared/table"
	"github.com/zjrosen/tabula/internal/ui/toaster"
	"github.com/zjrosen/tabula/internal/watcher"
)

// Options carries what the root model needs from the command layer.
type Options struct {
	Config config.Config
	// ConfigPath is watched for hot reload and receives UI toggles.
	// Empty disables both.
	ConfigPath string
	Manager    *history.Manager
	// DebugMode shows the latest log line in the status bar and enables
	// the log overlay.
	DebugMode bool
}

// Model is the root application state. It owns the Manager: every edit goes
// through Update, so no locking is needed.
type Model struct {
	cfg        config.Config
	configPath string
	manager    *history.Manager
	flags      *flags.Registry
	keys       keys.KeyMap

	rows      uitable.Model[table.Row]
	cellCache cachemanager.CacheManager[string, string]
	history   historypanel.Model
	help      help.Model
	toaster   toaster.Model
	renderer  *markdown.Renderer

	selected int
	showHelp bool
	status   string
	width    int
	height   int

	debugMode   bool
	lastLog     string
	logs        logoverlay.Model
	logListener *log.LogListener
	logCancel   context.CancelFunc

	watcher *watcher.Watcher
	reloads <-chan struct{}
}

// New creates the root model. It starts the config watcher when a config
// path is set; call Close when the program exits.
func New(opts Options) Model {
	mgr := opts.Manager
	if mgr == nil {
		mgr = history.NewManager(nil, opts.Config.Table.NewIDSource(),
			history.WithPolicy(opts.Config.HistoryPolicy()),
			history.WithContentPrefix(opts.Config.Table.ContentPrefix))
	}

	m := Model{
		cfg:        opts.Config,
		configPath: opts.ConfigPath,
		manager:    mgr,
		keys:       keys.DefaultKeyMap(),
		toaster:    toaster.New(),
		logs:       logoverlay.New(),
		debugMode:  opts.DebugMode,
	}
	m.flags = flags.New(opts.Config.Flags).WithDefaults()
	m.renderer = newRenderer(opts.Config.UI.MarkdownStyle)
	m.help = help.New(mgr.Policy(), m.renderer)
	m.history = historypanel.New(mgr.Policy())
	m.rows = m.newRowTable()

	if opts.ConfigPath != "" {
		m.watcher, m.reloads = startWatcher(opts.ConfigPath)
	}
	if opts.DebugMode {
		ctx, cancel := context.WithCancel(context.Background())
		if l := log.NewListener(ctx); l != nil {
			m.logListener, m.logCancel = l, cancel
		} else {
			cancel()
		}
	}

	return m.refresh()
}

func newRenderer(style string) *markdown.Renderer {
	r, err := markdown.New(60, style)
	if err != nil {
		log.ErrorErr(log.CatUI, "Markdown renderer unavailable, using plain text", err)
		return nil
	}
	return r
}

func startWatcher(path string) (*watcher.Watcher, <-chan struct{}) {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		log.Warn(log.CatWatcher, "Config hot reload disabled", "path", path, "error", err)
		return nil, nil
	}
	ch, err := w.Start()
	if err != nil {
		_ = w.Stop()
		log.Warn(log.CatWatcher, "Config hot reload disabled", "path", path, "error", err)
		return nil, nil
	}
	return w, ch
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.reloads != nil {
		cmds = append(cmds, waitForReload(m.reloads))
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.layout(), nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SavedMsg:
		m.status = fmt.Sprintf("saved %d rows", msg.Rows)
		return m, nil

	case SaveFailedMsg:
		m.status = "save failed"
		return m.toast(fmt.Sprintf("Autosave failed: %v", msg.Err), toaster.StyleError)

	case configChangedMsg:
		var cmd tea.Cmd
		m, cmd = m.reloadConfig()
		return m, tea.Batch(cmd, waitForReload(m.reloads))

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil

	case logoverlay.CloseMsg:
		return m, nil

	case log.LogEvent:
		m.lastLog = msg.Payload
		m.logs = m.logs.Append(msg.Payload)
		if m.logListener == nil {
			return m, nil
		}
		return m, m.logListener.Listen()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.logs.Visible() {
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd
	}
	if m.showHelp {
		switch {
		case msg.String() == "ctrl+c":
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help, m.keys.Escape):
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Up):
		return m.selectRow(m.selected - 1), nil
	case key.Matches(msg, m.keys.Down):
		return m.selectRow(m.selected + 1), nil
	case key.Matches(msg, m.keys.Top):
		return m.selectRow(0), nil
	case key.Matches(msg, m.keys.Bottom):
		return m.selectRow(m.manager.Len() - 1), nil
	case key.Matches(msg, m.keys.Add):
		return m.insert()
	case key.Matches(msg, m.keys.Delete):
		return m.deleteSelected()
	case key.Matches(msg, m.keys.Undo):
		return m.undo()
	case key.Matches(msg, m.keys.Redo):
		return m.redo()
	case key.Matches(msg, m.keys.ToggleHistory):
		m.cfg.UI.ShowHistory = !m.cfg.UI.ShowHistory
		return m.persistUI()
	case key.Matches(msg, m.keys.ToggleStatus):
		m.cfg.UI.ShowStatusBar = !m.cfg.UI.ShowStatusBar
		return m.persistUI()
	case key.Matches(msg, m.keys.ToggleLogs):
		if !m.debugMode {
			return m.toast("Debug logs need --debug", toaster.StyleInfo)
		}
		m.logs = m.logs.Toggle()
		return m, nil
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.logs.Visible() {
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd
	}
	if m.showHelp {
		return m, nil
	}
	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease && m.flags.Enabled(flags.FlagMouseSelect) {
		for i := range m.manager.Len() {
			if z := zone.Get(rowZoneID(i)); z != nil && z.InBounds(msg) {
				return m.selectRow(i), nil
			}
		}
		return m, nil
	}
	if m.cfg.UI.ShowHistory {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Manager returns the history manager driven by this model.
func (m Model) Manager() *history.Manager {
	return m.manager
}

// Selected returns the index of the selected row.
func (m Model) Selected() int {
	return m.selected
}

// Close releases the watcher and log listener.
func (m *Model) Close() error {
	if m.logCancel != nil {
		m.logCancel()
	}
	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			return fmt.Errorf("stopping config watcher: %w", err)
		}
		m.watcher = nil
	}
	return nil
}
