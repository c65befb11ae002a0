package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleetbell/internal/theme"
)

// Name identifies a palette command.
type Name string

// Palette commands.
const (
	ReadAll  Name = "read all"
	ClearAll Name = "clear all"
	Help     Name = "help"
	Quit     Name = "quit"
)

// Names lists every palette command in display order.
var Names = []Name{ReadAll, ClearAll, Help, Quit}

// CommandMsg is emitted when the user executes a known command.
type CommandMsg Name

// UnknownCommandMsg is emitted for input that matches no command.
type UnknownCommandMsg string

// Parse resolves input to a command. Case and surrounding or repeated
// spaces are ignored; "q" is accepted for quit.
func Parse(input string) (Name, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(input), " "))
	if normalized == "q" {
		return Quit, true
	}
	for _, n := range Names {
		if string(n) == normalized {
			return n, true
		}
	}
	return "", false
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "read all, clear all, help, quit"
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		raw := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if raw == "" {
			return m, nil
		}
		if name, ok := Parse(raw); ok {
			return m, func() tea.Msg { return CommandMsg(name) }
		}
		return m, func() tea.Msg { return UnknownCommandMsg(raw) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Command Palette"),
		m.input.View(),
	)

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
