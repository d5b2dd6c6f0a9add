package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/kgtutor/internal/ui/theme"
)

// MasteryBar renders a mastery score in [0,1] as a fixed-width bar.
type MasteryBar struct {
	Label string
	Value float64
	// MasteredAt colors the bar green at or above it; WeakBelow colors it
	// red below it.
	MasteredAt float64
	WeakBelow  float64
	Width      int
}

// View renders the bar followed by the value.
func (b MasteryBar) View() string {
	var sb strings.Builder
	if b.Label != "" {
		sb.WriteString(theme.Body.Render(b.Label))
		sb.WriteString("  ")
	}

	width := max(b.Width, 4)
	filled := min(width, max(0, int(float64(width)*b.Value+0.5)))

	fill := theme.Warning
	switch {
	case b.Value >= b.MasteredAt:
		fill = theme.Success
	case b.Value < b.WeakBelow:
		fill = theme.Error
	}
	sb.WriteString(lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("█", filled)))
	sb.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", width-filled)))
	sb.WriteString(theme.Subtitle.Render(fmt.Sprintf(" %.2f", b.Value)))
	return sb.String()
}
