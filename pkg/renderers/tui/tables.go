package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/detail"
	"github.com/goliatone/go-formgrid/pkg/listing"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	altStyle    = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

func styleRow(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	if row%2 == 1 {
		return altStyle
	}
	return cellStyle
}

// RenderGrid renders the rows of page as a table with one column per input
// field, prefixed by the row number, followed by a paging summary.
func RenderGrid(page listing.Page, s *schema.Schema, columnWidth int) string {
	inputs := s.Inputs()
	headers := make([]string, 0, len(inputs)+1)
	headers = append(headers, "#")
	for _, f := range inputs {
		headers = append(headers, f.DisplayLabel())
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(styleRow).
		Headers(headers...)

	for i, row := range page.Rows {
		cells := make([]string, 0, len(headers))
		cells = append(cells, strconv.Itoa(i+1))
		for _, f := range inputs {
			cells = append(cells, clip(row.Values[f.Key], columnWidth))
		}
		t.Row(cells...)
	}

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(PageSummary(page))
	return b.String()
}

// PageSummary describes the position of page within the collection.
func PageSummary(page listing.Page) string {
	count := page.PageCount()
	if count == 0 {
		return "No records"
	}
	return fmt.Sprintf("Page %d of %d · %d records", page.Index+1, count, page.TotalCount)
}

// RenderDetail renders a display model as a two-column table.
func RenderDetail(model detail.DisplayModel) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(styleRow).
		Headers("Field", "Value")
	for _, e := range model.Entries {
		t.Row(e.Label, e.Value)
	}
	return t.String()
}

// RenderDashboard renders collection totals.
func RenderDashboard(totals []console.Total) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(styleRow).
		Headers("Collection", "Total")
	for _, total := range totals {
		count := strconv.Itoa(total.Count)
		if total.Err != nil {
			count = "unavailable"
		}
		t.Row(total.Title, count)
	}
	return t.String()
}

func clip(value string, width int) string {
	if width <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
