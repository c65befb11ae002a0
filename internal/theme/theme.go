package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps overlays such as help and the command palette.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ErrorPanelStyle wraps the blocking backlog error.
var ErrorPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorRed).
	Foreground(ColorRed)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BadgeStyle renders the unread count next to the bell.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// UnreadTitleStyle highlights the title of an unread notification.
var UnreadTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// ReadTitleStyle dims the title of a notification already read.
var ReadTitleStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// PasswordResetStyle tags password reset requests.
var PasswordResetStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOrange)

// ToastStyle returns the style for a transient status message.
func ToastStyle(isErr bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if isErr {
		return base.Foreground(ColorRed)
	}
	return base.Foreground(ColorGreen)
}

// UnreadDot returns the marker shown in front of a list row.
func UnreadDot(read bool) string {
	if read {
		return lipgloss.NewStyle().Foreground(ColorSubtle).Render("○")
	}
	return lipgloss.NewStyle().Foreground(ColorYellow).Render("●")
}
