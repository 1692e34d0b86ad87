package cliui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	totalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Table is a titled table with an optional totals row.
type Table struct {
	Title    string
	Headers  []string
	Rows     [][]string
	TotalRow []string
}

// RenderTable renders t with rounded borders. Colors are applied only when
// styled is true, so piped output stays plain.
func RenderTable(t Table, styled bool) string {
	if len(t.Headers) == 0 {
		return ""
	}

	var out strings.Builder
	if t.Title != "" {
		if styled {
			out.WriteString(TitleStyle.Render(t.Title))
		} else {
			out.WriteString(t.Title)
		}
		out.WriteString("\n")
	}

	rows := t.Rows
	if len(t.TotalRow) > 0 {
		rows = append(rows[:len(rows):len(rows)], t.TotalRow)
	}
	dataRows := len(t.Rows)

	tbl := table.New().
		Headers(t.Headers...).
		Rows(rows...).
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if !styled {
				return cellStyle
			}
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case len(t.TotalRow) > 0 && row == dataRows:
				return totalStyle
			default:
				return cellStyle
			}
		})
	if styled {
		tbl = tbl.BorderStyle(borderStyle)
	}

	out.WriteString(tbl.String())
	out.WriteString("\n")
	return out.String()
}
