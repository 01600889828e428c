package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cmdBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

// CmdBarModel manages the command input bar
type CmdBarModel struct {
	input       textinput.Model
	suggestions *Suggestions
	focused     bool
}

// NewCmdBarModel creates a new command bar
func NewCmdBarModel() *CmdBarModel {
	ti := textinput.New()
	ti.Placeholder = "update Good | tightened clip"
	ti.CharLimit = 256
	return &CmdBarModel{
		input:       ti,
		suggestions: NewSuggestions(),
	}
}

// Focused reports whether the bar has keyboard focus
func (m *CmdBarModel) Focused() bool {
	return m.focused
}

// Focus focuses the command bar
func (m *CmdBarModel) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur unfocuses the command bar
func (m *CmdBarModel) Blur() {
	m.focused = false
	m.input.Blur()
	m.input.SetValue("")
	m.suggestions.Update("")
}

// Submit returns the current input and blurs
func (m *CmdBarModel) Submit() string {
	val := strings.TrimSpace(m.input.Value())
	m.Blur()
	return val
}

// SetWidth sets the input width
func (m *CmdBarModel) SetWidth(w int) {
	m.input.Width = max(w-6, 10)
}

// Update handles key input while focused. It reports submitted input through
// the returned string.
func (m *CmdBarModel) Update(msg tea.KeyMsg) (string, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Blur()
		return "", nil
	case "tab":
		if sel := m.suggestions.Selected(); sel != nil {
			m.input.SetValue(sel.Text + " ")
			m.input.CursorEnd()
			m.suggestions.Update(m.input.Value())
		}
		return "", nil
	case "up":
		m.suggestions.Prev()
		return "", nil
	case "down":
		m.suggestions.Next()
		return "", nil
	case "enter":
		return m.Submit(), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.suggestions.Update(m.input.Value())
	return "", cmd
}

// View renders the command bar
func (m *CmdBarModel) View(width int) string {
	if !m.focused {
		return ""
	}
	bar := cmdBarStyle.Render(promptStyle.Render(": ") + m.input.View())
	if s := m.suggestions.Render(width); s != "" {
		return s + "\n" + bar
	}
	return bar
}

// Execute processes a command. selectedUID returns the asset under the cursor.
func Execute(client *Client, input string, selectedUID string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "q", "quit", "exit":
		return tea.Quit
	case "refresh":
		return func() tea.Msg { return cmdResultMsg{message: "Refreshed", refresh: true} }
	}

	return func() tea.Msg {
		switch cmd {
		case "update":
			if selectedUID == "" {
				return cmdResultMsg{message: "No asset selected"}
			}
			rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
			condition, remarks, _ := strings.Cut(rest, "|")
			condition = strings.TrimSpace(condition)
			if condition == "" {
				return cmdResultMsg{message: "Usage: update <condition> [| remarks]"}
			}
			a, err := client.UpdateCondition(selectedUID, condition, strings.TrimSpace(remarks))
			if err != nil {
				return errMsg{err}
			}
			return cmdResultMsg{message: fmt.Sprintf("✓ %s is now %s", a.UID, a.ConditionLot), refresh: true}

		case "scan":
			res, err := client.RunScan()
			if err != nil {
				return errMsg{err}
			}
			return cmdResultMsg{message: fmt.Sprintf("✓ Scanned %d assets, %d alerts", res.Scanned, res.Alerted), refresh: true}

		case "lots":
			if len(args) == 0 {
				return cmdResultMsg{message: "Usage: lots <vendor>"}
			}
			vendor := strings.Join(args, " ")
			sum, err := client.LotSummary(vendor)
			if err != nil {
				return errMsg{err}
			}
			return cmdResultMsg{message: fmt.Sprintf("%s: %d ready, %d not ready", vendor, sum.ReadyCount, sum.NotReadyCount)}

		case "fitting":
			if len(args) != 2 {
				return cmdResultMsg{message: "Usage: fitting <km> <BG|MG|NG>"}
			}
			km, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return cmdResultMsg{message: "Line length must be a number"}
			}
			res, err := client.CalculateFitting(km, args[1])
			if err != nil {
				return errMsg{err}
			}
			return cmdResultMsg{message: fmt.Sprintf("%s %g km: %d sleepers, %d railpads, %d liners",
				res.GaugeType, res.LineLengthKm, res.Sleepers, res.Railpads, res.Liners)}
		}
		return cmdResultMsg{message: fmt.Sprintf("Unknown command: %s", cmd)}
	}
}
