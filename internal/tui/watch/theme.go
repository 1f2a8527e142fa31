package watch

import "github.com/charmbracelet/lipgloss"

// Theme centralizes all styling for the watch TUI.
type Theme struct {
	// Delivery status colors
	StatusSuccess  lipgloss.Style
	StatusFiltered lipgloss.Style
	StatusTest     lipgloss.Style
	StatusFailed   lipgloss.Style

	// UI elements
	Border    lipgloss.Style
	Title     lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		StatusSuccess:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		StatusFiltered: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		StatusTest:     lipgloss.NewStyle().Foreground(lipgloss.Color("#61AFEF")),
		StatusFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
	}
}

// statusStyle picks the style for a delivery status string.
func (t Theme) statusStyle(status string) lipgloss.Style {
	switch status {
	case "success":
		return t.StatusSuccess
	case "filtered":
		return t.StatusFiltered
	case "test":
		return t.StatusTest
	case "invalid_signature", "failed", "error":
		return t.StatusFailed
	default:
		return t.Dim
	}
}
