package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/railtms/assettrack/internal/models"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	verdictOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	verdictWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
	verdictFail    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
)

// AssetItem implements list.Item for the asset list
type AssetItem struct {
	models.ClassifiedAsset
}

func (i AssetItem) FilterValue() string {
	return strings.Join([]string{i.UID, i.AssetType, i.VendorName}, " ")
}

func (i AssetItem) Title() string {
	if i.AssetType == "" {
		return i.UID
	}
	return fmt.Sprintf("%s  %s", i.UID, i.AssetType)
}

func (i AssetItem) Description() string {
	parts := []string{formatVerdict(i.Verdict.Status)}
	if i.VendorName != "" {
		parts = append(parts, i.VendorName)
	}
	if i.ConditionLot != "" {
		parts = append(parts, i.ConditionLot)
	}
	return strings.Join(parts, " • ")
}

func verdictStyle(status models.VerdictStatus) lipgloss.Style {
	switch status {
	case models.VerdictOK:
		return verdictOK
	case models.VerdictFail:
		return verdictFail
	default:
		return verdictWarning
	}
}

func formatVerdict(status models.VerdictStatus) string {
	return verdictStyle(status).Render("● " + string(status))
}

// AssetListModel manages the asset list screen
type AssetListModel struct {
	client      *Client
	list        list.Model
	assets      []AssetItem
	filterIndex int
	loading     bool
}

var verdictFilters = []models.VerdictStatus{"", models.VerdictOK, models.VerdictWarning, models.VerdictFail}
var verdictFilterLabels = []string{"all", "ok", "warning", "fail"}

// NewAssetListModel creates a new asset list model
func NewAssetListModel(client *Client) *AssetListModel {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "Assets"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.Styles.Title = listTitleStyle

	return &AssetListModel{
		client: client,
		list:   l,
	}
}

// SetSize sets the list dimensions
func (m *AssetListModel) SetSize(w, h int) {
	m.list.SetSize(w, h)
}

// Filtering reports whether the list's own filter input has focus
func (m *AssetListModel) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// SelectedAsset returns the currently selected asset
func (m *AssetListModel) SelectedAsset() *AssetItem {
	if item := m.list.SelectedItem(); item != nil {
		a := item.(AssetItem)
		return &a
	}
	return nil
}

// CycleFilter cycles through verdict filters
func (m *AssetListModel) CycleFilter() tea.Cmd {
	m.filterIndex = (m.filterIndex + 1) % len(verdictFilters)
	m.list.Title = fmt.Sprintf("Assets [%s]", verdictFilterLabels[m.filterIndex])
	return m.apply()
}

func (m *AssetListModel) apply() tea.Cmd {
	want := verdictFilters[m.filterIndex]
	var items []list.Item
	for _, a := range m.assets {
		if want == "" || a.Verdict.Status == want {
			items = append(items, a)
		}
	}
	return m.list.SetItems(items)
}

// Refresh fetches assets from the API
func (m *AssetListModel) Refresh() tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		assets, err := m.client.ListAssets()
		if err != nil {
			return errMsg{err}
		}
		return assetsLoadedMsg{assets}
	}
}

// Update handles messages
func (m *AssetListModel) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(assetsLoadedMsg); ok {
		m.loading = false
		m.assets = make([]AssetItem, len(msg.assets))
		for i, a := range msg.assets {
			m.assets[i] = AssetItem{a}
		}
		return m.apply()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

// View renders the asset list
func (m *AssetListModel) View() string {
	if m.loading && len(m.assets) == 0 {
		return "Loading assets..."
	}
	return m.list.View()
}
