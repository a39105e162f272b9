package main

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aretw0/budgetry/pkg/budget"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorAccent = lipgloss.Color("#3AA99F")
	colorText   = lipgloss.Color("#FFFCF0")
	colorMuted  = lipgloss.Color("#6F6E69")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderRows draws the budget list view rows.
func renderRows(title string, rows []budget.Row) string {
	t := newTable("ID", "NAME", "STATUS", "START", "END", "EDIT")
	for _, r := range rows {
		edit := "no"
		if r.CanEdit {
			edit = "yes"
		}
		t.Row(r.ID, r.Name, string(r.Status), strconv.Itoa(r.StartYear), strconv.Itoa(r.EndYear), edit)
	}
	return mutedStyle.Render(title) + "\n" + t.Render() + "\n"
}

func renderNotes(notes []budget.BudgetNote) string {
	t := newTable("ID", "AUTHOR", "CREATED", "CONTENT")
	for _, n := range notes {
		t.Row(n.ID, n.AuthorID, n.CreatedAt.Format("2006-01-02 15:04"), n.Content)
	}
	return t.Render() + "\n"
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fatal("Error encoding JSON", err)
	}
}
