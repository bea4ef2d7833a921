package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/datamate/internal/catalog"
	"github.com/five82/datamate/internal/query"
)

// chromeHeight counts the header, tab, filter and footer lines plus the
// table borders and header row.
const chromeHeight = 8

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	src, ok := m.openedSource()
	if !ok {
		b.WriteString(m.theme.Styles().MutedText.Render("Opening " + m.resource().Title + "..."))
		return b.String()
	}
	b.WriteString(m.renderFilters(src))
	b.WriteString("\n")
	b.WriteString(m.renderTable(src))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(src))
	return b.String()
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	tabs := make([]string, len(m.resources))
	for i, r := range m.resources {
		if i == m.active {
			tabs[i] = styles.ActiveTab.Render(r.Title)
		} else {
			tabs[i] = styles.Tab.Render(r.Title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderFilters shows the search input or keywords plus every facet with
// its current selection. The facet f cycles is underlined.
func (m Model) renderFilters(src catalog.Source) string {
	styles := m.theme.Styles()
	params := src.Params()

	var parts []string
	switch {
	case m.searching:
		parts = append(parts, m.search.View())
	case params.Keywords != "":
		parts = append(parts, styles.MutedText.Render("search:")+" "+styles.AccentText.Render(params.Keywords))
	default:
		parts = append(parts, styles.FaintText.Render("/ to search"))
	}

	facets := src.Facets().Facets()
	for i, f := range facets {
		value := query.AllValue
		if values := params.Filters[f.Key]; len(values) > 0 && values[0] != "" {
			value = values[0]
		}
		shown := value
		valueStyle := styles.MutedText
		if value != query.AllValue {
			opt := f.Describe(value)
			shown = opt.Label
			valueStyle = styles.StatusText(opt.Value, opt.Color).UnsetPadding()
		}
		labelStyle := styles.MutedText
		if i == m.facetIdx%len(facets) {
			labelStyle = styles.AccentText.Underline(true)
		}
		parts = append(parts, labelStyle.Render(strings.ToLower(f.Label)+":")+" "+valueStyle.Render(shown))
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, "   "))
}

// visibleRows returns how many table rows fit the terminal.
func (m Model) visibleRows() int {
	return max(m.height-chromeHeight, 1)
}

func (m Model) renderTable(src catalog.Source) string {
	styles := m.theme.Styles()
	r := m.resource()
	rows := src.Result().Rows

	if len(rows) == 0 {
		msg := "No results"
		if src.Loading() {
			msg = "Loading..."
		}
		return lipgloss.NewStyle().
			Padding(1, 2).
			Height(m.visibleRows()+2).
			Render(styles.MutedText.Render(msg))
	}

	// Scroll so the selection stays visible.
	limit := m.visibleRows()
	offset := 0
	if m.selectedRow >= limit {
		offset = m.selectedRow - limit + 1
	}
	end := min(offset+limit, len(rows))
	window := rows[offset:end]

	headers := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		headers[i] = c.Title
	}
	statusCol := statusColumn(r)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		BorderColumn(false).
		Width(m.width).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeader
			}
			base := styles.Cell
			if offset+row == m.selectedRow {
				base = styles.Selected
			} else if col == statusCol && row < len(window) {
				status := window[row].Status
				base = styles.StatusText(status.Value, status.Color)
			}
			if col < len(r.Columns) && r.Columns[col].Width > 0 {
				base = base.MaxWidth(r.Columns[col].Width + 2)
			}
			return base
		})
	for _, row := range window {
		t.Row(fitCells(row, r.Columns)...)
	}
	return t.Render()
}

// statusColumn returns the index of the column showing Row.Status, or -1.
func statusColumn(r catalog.Resource) int {
	f, ok := r.StatusFacet()
	if !ok {
		return -1
	}
	for i, c := range r.Columns {
		if strings.EqualFold(c.Title, f.Label) {
			return i
		}
	}
	return -1
}

func fitCells(row catalog.Row, cols []catalog.Column) []string {
	cells := make([]string, len(cols))
	for i := range cols {
		if i < len(row.Cells) {
			cells[i] = truncate(row.Cells[i], cols[i].Width)
		}
	}
	return cells
}

// renderFooter shows one-indexed pagination and either the latest error or
// the key hints.
func (m Model) renderFooter(src catalog.Source) string {
	styles := m.theme.Styles()
	pg := src.Pagination()

	info := fmt.Sprintf("page %d/%d · %d items · %d per page", pg.Current, pg.TotalPages(), pg.Total, pg.PageSize)
	left := styles.Text.Render(info)

	var right string
	if m.toast != "" {
		right = styles.DangerText.Render("! " + truncate(m.toast, max(m.width-len(info)-8, 20)))
	} else {
		right = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Padding(0, 1).
		Width(m.width).
		Render(left + "   " + right)
}
