package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ibeckermayer/redditpersona/internal/app"
	"github.com/ibeckermayer/redditpersona/internal/fetcher"
)

// printer turns run events into the user-facing progress lines
type printer struct {
	out     io.Writer
	info    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	faint   lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:     out,
		info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		success: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		faint:   r.NewStyle().Faint(true),
	}
}

func (p *printer) line(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.out, style.Render(fmt.Sprintf(format, args...)))
}

// Event is an app.WithObserver callback.
func (p *printer) Event(e app.Event) {
	switch e.State {
	case app.StateFetching:
		p.line(p.info, "🔍 Scraping u/%s...", e.Username)
	case app.StateRendering:
		p.line(p.faint, "🧠 Analyzing u/%s...", e.Username)
	case app.StateNoData:
		p.line(p.failure, "🚫 No public comments or posts found.")
	case app.StateDone:
		p.line(p.success, "✅ HTML persona created → %s", e.Path)
		p.line(p.faint, "📂 Open in browser or convert to PDF as needed.")
	case app.StateFailed:
		p.failed(e.Err)
	}
}

func (p *printer) failed(err error) {
	var (
		ie *app.InvalidInputError
		fe *fetcher.FetchError
	)
	switch {
	case errors.As(err, &ie):
		p.line(p.failure, "❌ Invalid Reddit profile URL.")
	case errors.As(err, &fe):
		p.line(p.failure, "❌ Failed to fetch data: %v", fe)
	default:
		p.line(p.failure, "❌ %v", err)
	}
}

// formatTable pads every column to its widest cell, measured in terminal
// cells so wide runes stay aligned.
func formatTable(rows [][]string) []string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var sb strings.Builder
		for i, cell := range row {
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}
		lines = append(lines, sb.String())
	}
	return lines
}
