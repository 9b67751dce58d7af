package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/selka/planetcore/types"
)

// renderStatusBar produces a full-width inverted status line showing
// the current date, headline world scalars, and run bookkeeping.
func (m Model) renderStatusBar() string {
	s := m.engine.State

	month := (s.Tick-1)%12 + 1
	if s.Tick == 0 {
		month = 0
	}

	left := fmt.Sprintf(" %s | %d-%02d", m.defs.World.Name, s.Year, month)
	right := fmt.Sprintf("run %d, tick %d ", s.RunsPlayed, s.Tick)

	// Headline scalars, dropped one by one if the bar is too narrow.
	candidates := []string{
		fmt.Sprintf("T %+.2f", s.Scalars["Temperature"]),
		fmt.Sprintf("CO2e %.1f", s.Scalars["Emissions"]),
		fmt.Sprintf("PC %.0f", s.Player["PoliticalCapital"]),
		fmt.Sprintf("active %d", countActive(s)),
	}
	for len(candidates) > 0 {
		mid := " | " + strings.Join(candidates, "  ")
		if lipgloss.Width(left)+lipgloss.Width(mid)+lipgloss.Width(right)+2 < m.width {
			left += mid
			break
		}
		candidates = candidates[:len(candidates)-1]
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}

func countActive(s *types.State) int {
	n := 0
	for _, status := range s.Projects {
		if status == types.StatusActive {
			n++
		}
	}
	return n
}
