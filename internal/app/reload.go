package app

import (
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/tabula/internal/cachemanager"
	"github.com/zjrosen/tabula/internal/config"
	"github.com/zjrosen/tabula/internal/flags"
	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/table"
	uitable "github.com/zjrosen/tabula/internal/ui/shared/table"
	"github.com/zjrosen/tabula/internal/ui/styles"
	"github.com/zjrosen/tabula/internal/ui/toaster"
)

// SavedMsg reports a successful autosave.
type SavedMsg struct {
	Rows int
	At   time.Time
}

// SaveFailedMsg reports a failed autosave.
type SaveFailedMsg struct {
	Err error
}

// configChangedMsg is sent when the watched config file was written.
type configChangedMsg struct{}

func waitForReload(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return configChangedMsg{}
	}
}

// reloadConfig re-reads the config file and applies what can change at
// runtime. An invalid file keeps the current settings.
func (m Model) reloadConfig() (Model, tea.Cmd) {
	cfg, err := config.Load(m.configPath)
	if err != nil {
		log.ErrorErr(log.CatConfig, "Config reload failed", err, "path", m.configPath)
		return m.toast(fmt.Sprintf("Config not reloaded: %v", err), toaster.StyleError)
	}
	if cfg.Table.ContentPrefix != m.cfg.Table.ContentPrefix {
		log.Info(log.CatConfig, "table.content_prefix applies from the next start", "prefix", cfg.Table.ContentPrefix)
	}

	m.manager.SetPolicy(cfg.HistoryPolicy())
	m.help = m.help.SetPolicy(cfg.HistoryPolicy())
	m.history = m.history.SetPolicy(cfg.HistoryPolicy())

	oldCache := m.flags.Enabled(flags.FlagRenderCache)
	m.flags = flags.New(cfg.Flags).WithDefaults()
	if cfg.UI.MarkdownStyle != m.cfg.UI.MarkdownStyle {
		m.renderer = newRenderer(cfg.UI.MarkdownStyle)
		m.help = m.help.WithRenderer(m.renderer)
	}
	m.cfg = cfg
	if oldCache != m.flags.Enabled(flags.FlagRenderCache) {
		m.rows = m.newRowTable()
	}

	log.Info(log.CatConfig, "Config reloaded", "path", m.configPath, "policy", cfg.History.Policy)
	m = m.refresh().layout()
	return m.toast("Config reloaded", toaster.StyleInfo)
}

// persistUI writes the UI section back to the config file, if there is one.
func (m Model) persistUI() (tea.Model, tea.Cmd) {
	m = m.layout()
	if m.configPath == "" {
		return m, nil
	}
	if err := config.SaveUI(m.configPath, m.cfg.UI); err != nil {
		log.ErrorErr(log.CatConfig, "Saving UI settings failed", err)
		return m.toast(fmt.Sprintf("Settings not saved: %v", err), toaster.StyleError)
	}
	return m, nil
}

// newRowTable builds the table component. Rendered cells are cached when
// the render-cache flag is on.
func (m *Model) newRowTable() uitable.Model[table.Row] {
	cfg := uitable.TableConfig[table.Row]{
		Columns: []uitable.ColumnConfig[table.Row]{
			{Key: "id", Header: "ID", Width: 6, Align: lipgloss.Right, Render: func(r table.Row, _ int) string {
				return strconv.Itoa(r.ID)
			}},
			{Key: "content", Header: "Content", MinWidth: 8, Render: func(r table.Row, _ int) string {
				return r.Content
			}},
		},
		ShowHeader:         true,
		ShowBorder:         true,
		Title:              "Rows",
		EmptyMessage:       "No rows. Press a to add one.",
		RowZoneID:          func(i int, _ table.Row) string { return rowZoneID(i) },
		Focused:            true,
		FocusedBorderColor: styles.BorderHighlightFocusColor,
	}

	m.cellCache = nil
	if m.flags.Enabled(flags.FlagRenderCache) {
		m.cellCache = cachemanager.NewInMemoryCacheManager[string, string]("cells", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
		cfg.CellCache = m.cellCache
		cfg.CacheKey = rowCacheKey
	}

	return uitable.New(cfg)
}
