package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

// Terminal styles shared across commands.
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyles = map[domain.DocumentStatus]lipgloss.Style{
		domain.StatusUploaded:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		domain.StatusProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		domain.StatusReady:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		domain.StatusFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		domain.StatusDeleted:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
)

// renderStatus colours a document status for table output.
func renderStatus(status domain.DocumentStatus) string {
	if style, ok := statusStyles[status]; ok {
		return style.Render(string(status))
	}
	return string(status)
}
