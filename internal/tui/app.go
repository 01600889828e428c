// Package tui provides the interactive terminal UI for assettrack.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/railtms/assettrack/internal/models"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	onlineStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(errorColor)
)

type screen int

const (
	screenAssets screen = iota
	screenVendors
	screenAlerts
	screenDetail
)

var screenNames = map[screen]string{
	screenAssets:  "Assets",
	screenVendors: "Vendors",
	screenAlerts:  "Alerts",
}

const alertLimit = 50

// App is the main TUI application model.
type App struct {
	client       *Client
	screen       screen
	assets       *AssetListModel
	detail       *models.AssetDetail
	vendors      []models.VendorReport
	dashboard    *models.DashboardSummary
	alerts       []models.ExpiryAlert
	cmdbar       *CmdBarModel
	message      string
	isError      bool
	daemonOnline bool
	width        int
	height       int
}

// New creates a new TUI application.
func New(apiAddr string) *App {
	client := NewClient(apiAddr)
	return &App{
		client: client,
		screen: screenAssets,
		assets: NewAssetListModel(client),
		cmdbar: NewCmdBarModel(),
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.assets.Refresh(),
		a.checkDaemon(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.cmdbar.Focused() {
			input, cmd := a.cmdbar.Update(msg)
			if input != "" {
				sel := ""
				if a.screen == screenDetail && a.detail != nil && a.detail.Item != nil {
					sel = a.detail.Item.UID
				} else if item := a.assets.SelectedAsset(); item != nil {
					sel = item.UID
				}
				return a, Execute(a.client, input, sel)
			}
			return a, cmd
		}
		if a.screen == screenAssets && a.assets.Filtering() {
			return a, a.assets.Update(msg)
		}
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.assets.SetSize(msg.Width, a.bodyHeight())
		a.cmdbar.SetWidth(msg.Width)
		return a, nil

	case assetsLoadedMsg:
		return a, a.assets.Update(msg)

	case detailLoadedMsg:
		a.detail = msg.detail
		return a, nil

	case vendorsLoadedMsg:
		a.vendors = msg.rows
		a.dashboard = msg.dashboard
		return a, nil

	case alertsLoadedMsg:
		a.alerts = msg.alerts
		return a, nil

	case daemonStatusMsg:
		a.daemonOnline = msg.online
		return a, nil

	case cmdResultMsg:
		a.message = msg.message
		a.isError = false
		if msg.refresh {
			return a, a.refresh()
		}
		return a, nil

	case errMsg:
		a.message = "Error: " + msg.err.Error()
		a.isError = true
		return a, nil
	}

	if a.screen == screenAssets {
		return a, a.assets.Update(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit

	case ":":
		a.message = ""
		return a, a.cmdbar.Focus()

	case "tab":
		switch a.screen {
		case screenAssets:
			a.screen = screenVendors
		case screenVendors:
			a.screen = screenAlerts
		default:
			a.screen = screenAssets
		}
		return a, a.refresh()

	case "esc":
		if a.screen == screenDetail {
			a.screen = screenAssets
			a.detail = nil
			return a, nil
		}

	case "enter":
		if a.screen == screenAssets {
			if item := a.assets.SelectedAsset(); item != nil {
				a.screen = screenDetail
				a.detail = nil
				return a, a.fetchDetail(item.UID)
			}
		}
		return a, nil

	case "r":
		a.message = ""
		return a, tea.Batch(a.refresh(), a.checkDaemon())

	case "f":
		if a.screen == screenAssets {
			return a, a.assets.CycleFilter()
		}
	}

	if a.screen == screenAssets {
		return a, a.assets.Update(msg)
	}
	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemon := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemon = offlineStyle.Render("○ DAEMON")
	}
	b.WriteString(titleStyle.Render("assettrack") + "  " + daemon + "  " + a.renderTabs() + "\n\n")

	switch a.screen {
	case screenAssets:
		b.WriteString(a.assets.View())
	case screenDetail:
		b.WriteString(renderAssetDetail(a.detail))
	case screenVendors:
		b.WriteString(renderVendors(a.vendors, a.dashboard, a.bodyHeight()-4))
	case screenAlerts:
		b.WriteString(renderAlerts(a.alerts, a.bodyHeight()-3))
	}
	b.WriteString("\n")

	if a.message != "" {
		style := lipgloss.NewStyle().Foreground(successColor)
		if a.isError {
			style = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString(style.Render(a.message) + "\n")
	}

	if bar := a.cmdbar.View(a.width); bar != "" {
		b.WriteString(bar + "\n")
	}

	b.WriteString(statusBarStyle.Width(a.width).Render(a.helpLine()))
	return b.String()
}

func (a *App) renderTabs() string {
	var tabs []string
	for _, s := range []screen{screenAssets, screenVendors, screenAlerts} {
		active := s == a.screen || (s == screenAssets && a.screen == screenDetail)
		if active {
			tabs = append(tabs, activeTabStyle.Render(screenNames[s]))
		} else {
			tabs = append(tabs, tabStyle.Render(screenNames[s]))
		}
	}
	return strings.Join(tabs, "")
}

func (a *App) helpLine() string {
	if a.cmdbar.Focused() {
		return helpStyle.Render("enter run • tab complete • esc cancel")
	}
	switch a.screen {
	case screenAssets:
		return "enter detail • / search • f verdict filter • tab screens • : command • r refresh • q quit"
	case screenDetail:
		return "esc back • : update <condition> • r refresh • q quit"
	default:
		return "tab screens • : command • r refresh • q quit"
	}
}

func (a *App) bodyHeight() int {
	h := a.height - 6
	if h < 5 {
		return 5
	}
	return h
}

// refresh reloads the data behind the current screen
func (a *App) refresh() tea.Cmd {
	switch a.screen {
	case screenAssets:
		return a.assets.Refresh()
	case screenDetail:
		if a.detail != nil && a.detail.Item != nil {
			return tea.Batch(a.fetchDetail(a.detail.Item.UID), a.assets.Refresh())
		}
		return a.assets.Refresh()
	case screenVendors:
		return a.fetchVendors()
	case screenAlerts:
		return a.fetchAlerts()
	}
	return nil
}

func (a *App) fetchDetail(uid string) tea.Cmd {
	return func() tea.Msg {
		d, err := a.client.GetAsset(uid)
		if err != nil {
			return errMsg{err}
		}
		return detailLoadedMsg{d}
	}
}

func (a *App) fetchVendors() tea.Cmd {
	return func() tea.Msg {
		rows, err := a.client.VendorReport()
		if err != nil {
			return errMsg{err}
		}
		dash, err := a.client.Dashboard()
		if err != nil {
			return errMsg{err}
		}
		return vendorsLoadedMsg{rows: rows, dashboard: dash}
	}
}

func (a *App) fetchAlerts() tea.Cmd {
	return func() tea.Msg {
		alerts, err := a.client.Alerts(alertLimit)
		if err != nil {
			return errMsg{err}
		}
		return alertsLoadedMsg{alerts}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		return daemonStatusMsg{a.client.Health()}
	}
}

// Messages

type assetsLoadedMsg struct {
	assets []models.ClassifiedAsset
}

type detailLoadedMsg struct {
	detail *models.AssetDetail
}

type vendorsLoadedMsg struct {
	rows      []models.VendorReport
	dashboard *models.DashboardSummary
}

type alertsLoadedMsg struct {
	alerts []models.ExpiryAlert
}

type daemonStatusMsg struct {
	online bool
}

type cmdResultMsg struct {
	message string
	refresh bool
}

type errMsg struct {
	err error
}

func (e errMsg) Error() string { return fmt.Sprint(e.err) }
