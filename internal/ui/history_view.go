package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/mcao2/truthlens/internal/history"
	"github.com/mcao2/truthlens/internal/verdict"
)

// HistoryView is a scrolling table of past analyses
type HistoryView struct {
	all         []history.Entry
	entries     []history.Entry
	query       string
	cursor      int
	width       int
	height      int
	visibleRows int
	now         func() time.Time

	headerStyle   lipgloss.Style
	cellStyle     lipgloss.Style
	selectedStyle lipgloss.Style
	columns       []table.Column
}

func historyColumns(width int) []table.Column {
	// Each cell has Padding(0,1), 2 chars per column, plus a 2 char margin
	fixedWidth := 14 + 14 + 7
	padding := 4*2 + 2
	claimWidth := width - fixedWidth - padding
	if claimWidth < 20 {
		claimWidth = 20
	}
	return []table.Column{
		{Title: "Verdict", Width: 14},
		{Title: "When", Width: 14},
		{Title: "Source", Width: 7},
		{Title: "Claim", Width: claimWidth},
	}
}

// visibleRowsFor reserves header(2) + table header(2) + detail pane(3) + footer(3)
func visibleRowsFor(height int) int {
	rows := height - 10
	if rows < 3 {
		rows = 3
	}
	return rows
}

func NewHistoryView(width, height int) HistoryView {
	return HistoryView{
		width:       width,
		height:      height,
		visibleRows: visibleRowsFor(height),
		now:         time.Now,
		headerStyle: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true),
		cellStyle: lipgloss.NewStyle().Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")),
		columns: historyColumns(width),
	}
}

// UpdateStyles updates the styles to match the current theme
func (hv *HistoryView) UpdateStyles(theme Theme) {
	hv.headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Subtle)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(theme.Primary))
	hv.selectedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Background)).
		Background(lipgloss.Color(theme.Primary))
}

// SetEntries replaces the list, keeping the active filter
func (hv *HistoryView) SetEntries(entries []history.Entry) {
	hv.all = entries
	hv.applyFilter()
}

// SetFilter narrows the list to entries matching query
func (hv *HistoryView) SetFilter(query string) {
	hv.query = query
	hv.applyFilter()
}

func (hv HistoryView) Filter() string {
	return hv.query
}

func (hv *HistoryView) applyFilter() {
	hv.entries = history.Filter(hv.all, hv.query)
	if hv.cursor >= len(hv.entries) {
		hv.cursor = len(hv.entries) - 1
	}
	if hv.cursor < 0 {
		hv.cursor = 0
	}
}

// Remove drops the entry with id from the list
func (hv *HistoryView) Remove(id string) {
	kept := hv.all[:0:0]
	for _, e := range hv.all {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	hv.SetEntries(kept)
}

func (hv HistoryView) Len() int {
	return len(hv.entries)
}

func (hv HistoryView) Total() int {
	return len(hv.all)
}

func (hv HistoryView) Cursor() int {
	return hv.cursor
}

func (hv *HistoryView) SetCursor(pos int) {
	if pos >= 0 && pos < len(hv.entries) {
		hv.cursor = pos
	}
}

func (hv *HistoryView) MoveCursor(delta int) {
	hv.SetCursor(hv.cursor + delta)
}

// Selected returns the entry under the cursor, or nil
func (hv HistoryView) Selected() *history.Entry {
	if hv.cursor >= 0 && hv.cursor < len(hv.entries) {
		e := hv.entries[hv.cursor]
		return &e
	}
	return nil
}

func (hv *HistoryView) SetWidthHeight(width, height int) {
	hv.width = width
	hv.height = height
	hv.columns = historyColumns(width)
	hv.visibleRows = visibleRowsFor(height)
}

func (hv HistoryView) row(e history.Entry) []string {
	style := verdict.Classify(e.Verdict)
	source := "remote"
	if e.Local {
		source = "local"
	}
	return []string{
		style.Icon() + " " + e.Verdict,
		hv.age(e.CreatedAt),
		source,
		strings.Join(strings.Fields(e.Claim), " "),
	}
}

func (hv HistoryView) age(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return humanize.RelTime(t, hv.now(), "ago", "from now")
}

func (hv HistoryView) renderCell(value string, colWidth int, style lipgloss.Style) string {
	inline := lipgloss.NewStyle().Width(colWidth).MaxWidth(colWidth).Inline(true)
	return hv.cellStyle.Render(style.Render(inline.Render(runewidth.Truncate(value, colWidth, "…"))))
}

// View renders the table with its own scrolling window. Verdict cells are
// coloured by category except on the selected row.
func (hv HistoryView) View(styles Styles) string {
	headerCells := make([]string, 0, len(hv.columns))
	for _, col := range hv.columns {
		inline := lipgloss.NewStyle().Width(col.Width).MaxWidth(col.Width).Inline(true)
		cell := inline.Render(runewidth.Truncate(col.Title, col.Width, "…"))
		headerCells = append(headerCells, hv.headerStyle.Render(hv.cellStyle.Render(cell)))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)

	visibleRows := hv.visibleRows
	if visibleRows <= 0 {
		visibleRows = 10
	}

	start := 0
	if hv.cursor >= visibleRows {
		start = hv.cursor - visibleRows + 1
	}
	end := start + visibleRows
	if end > len(hv.entries) {
		end = len(hv.entries)
	}

	rendered := make([]string, 0, visibleRows)
	plain := lipgloss.NewStyle()
	for i := start; i < end; i++ {
		e := hv.entries[i]
		values := hv.row(e)
		cells := make([]string, 0, len(values))
		for ci, value := range values {
			style := plain
			if ci == 0 && i != hv.cursor {
				style = styles.Verdict(verdict.Classify(e.Verdict))
			}
			cells = append(cells, hv.renderCell(value, hv.columns[ci].Width, style))
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
		if i == hv.cursor {
			row = hv.selectedStyle.Render(row)
		}
		rendered = append(rendered, row)
	}

	if len(hv.entries) == 0 {
		msg := "No analyses yet."
		if hv.query != "" {
			msg = "No entries match \"" + hv.query + "\"."
		}
		rendered = append(rendered, styles.Help.Render("  "+msg))
	}

	for len(rendered) < visibleRows {
		rendered = append(rendered, "")
	}

	return header + "\n" + strings.Join(rendered, "\n")
}

// detailPaneHeight is the fixed number of lines the detail pane occupies
const detailPaneHeight = 3

// DetailView shows the selected entry's claim and explanation, padded to a
// fixed height
func (hv HistoryView) DetailView(width int, styles Styles) string {
	e := hv.Selected()
	var lines []string
	if e != nil {
		maxWidth := width - 4
		if maxWidth < 20 {
			maxWidth = 20
		}
		lines = append(lines, styles.Highlight.Render(Truncate(e.Claim, maxWidth)))
		var meta []string
		if e.Confidence != "" {
			meta = append(meta, "confidence: "+e.Confidence)
		}
		if !e.CreatedAt.IsZero() {
			meta = append(meta, e.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		if len(meta) > 0 {
			lines = append(lines, styles.Normal.Render(strings.Join(meta, " · ")))
		}
		if e.Explanation != "" {
			lines = append(lines, styles.HelpDesc.Render(Truncate(strings.Join(strings.Fields(e.Explanation), " "), maxWidth)))
		}
	}
	for len(lines) < detailPaneHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines[:detailPaneHeight], "\n")
}

// Truncate shortens s to maxLen display cells, ending in an ellipsis
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > maxLen {
		return runewidth.Truncate(s, maxLen, "…")
	}
	return s
}

// Pad right-fills s with spaces to width display cells
func Pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
