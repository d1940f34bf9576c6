package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// SummaryRow is one labelled figure in the end-of-run table.
type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary lays rows out as a two-column table with a rule above and
// below. Values that need attention can be pre-styled with WarnStyle.
func RenderSummary(rows []SummaryRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(DimStyle).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return summaryLabelStyle
			}
			return summaryValueStyle
		})
	for _, row := range rows {
		t.Row(row.Label, row.Value)
	}
	return t.String()
}

var (
	summaryLabelStyle = lipgloss.NewStyle().Foreground(ColorInk).PaddingRight(1)
	summaryValueStyle = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true).PaddingLeft(1)
)
