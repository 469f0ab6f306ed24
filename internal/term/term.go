// Package term draws a dashboard snapshot as styled terminal output. It is
// the one-shot sibling of the HTML view: the same view-model the page
// template consumes, rendered with lipgloss boxes and an asciigraph chart
// instead of markup.
package term

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"

	"github.com/nghyane/mux-console/internal/format"
	"github.com/nghyane/mux-console/internal/state"
	"github.com/nghyane/mux-console/internal/view"
)

const (
	defaultWidth = 80
	minWidth     = 48

	cardWidth   = 18
	chartHeight = 6

	successBlock = "█"
	errorBlock   = "▓"
)

// termMetricKeys is the compact metric subset that fits a standard
// 80-column terminal next to a lead column. The full column set stays a
// web-only affordance.
var termMetricKeys = []string{"requests", "success", "rateLimits", "avgLatency", "inputTokens", "outputTokens"}

// Options adjust the rendered layout.
type Options struct {
	// Width is the target terminal width in cells. Zero means 80.
	Width int
	// Keys adds the per-key breakdown and the key inventory.
	Keys bool
	// Mono forces plain output. NO_COLOR in the environment implies it.
	Mono bool
}

// Render draws the dashboard into a string ready for stdout.
func Render(d *view.Dashboard, opts Options) string {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	if width < minWidth {
		width = minWidth
	}
	t := newTheme(opts.Mono || noColor())

	sections := []string{renderHeader(t, d)}
	if s := renderNotices(t, d.Notices); s != "" {
		sections = append(sections, s)
	}
	if !d.HasUsage() {
		sections = append(sections, t.subtle.Render("No usage data for this window yet."))
		return strings.Join(sections, "\n\n") + "\n"
	}

	sections = append(sections, renderCards(t, d.Cards, width))
	if s := renderRequestChart(t, d.Timeline, width); s != "" {
		sections = append(sections, s)
	}
	if s := renderActivity(t, d.Timeline, width); s != "" {
		sections = append(sections, s)
	}
	if s := renderSection(t, sectionByKey(d.Sections, "provider")); s != "" {
		sections = append(sections, s)
	}
	if opts.Keys {
		if s := renderSection(t, sectionByKey(d.Sections, "key")); s != "" {
			sections = append(sections, s)
		}
		sections = append(sections, renderListing(t, d.Keys))
	}
	return strings.Join(sections, "\n\n") + "\n"
}

// noColor reports whether the environment disables color output. Presence
// alone counts, even with an empty value.
func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

type theme struct {
	title  lipgloss.Style
	value  lipgloss.Style
	subtle lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
	warn   lipgloss.Style
	info   lipgloss.Style
	card   lipgloss.Style
}

func newTheme(mono bool) theme {
	if mono {
		plain := lipgloss.NewStyle()
		return theme{
			title:  plain,
			value:  plain,
			subtle: plain,
			good:   plain,
			bad:    plain,
			warn:   plain,
			info:   plain,
			card:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		}
	}
	var (
		accent = lipgloss.Color("39")
		good   = lipgloss.Color("42")
		bad    = lipgloss.Color("196")
		warn   = lipgloss.Color("220")
		subtle = lipgloss.Color("245")
	)
	return theme{
		title:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		value:  lipgloss.NewStyle().Bold(true),
		subtle: lipgloss.NewStyle().Foreground(subtle),
		good:   lipgloss.NewStyle().Foreground(good),
		bad:    lipgloss.NewStyle().Foreground(bad),
		warn:   lipgloss.NewStyle().Foreground(warn),
		info:   lipgloss.NewStyle().Foreground(accent),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1),
	}
}

// level maps a notice level onto its style.
func (t theme) level(level string) lipgloss.Style {
	switch level {
	case state.NoticeError:
		return t.bad
	case state.NoticeWarn:
		return t.warn
	default:
		return t.info
	}
}

// classed maps the view-model's CSS-ish classes onto terminal styles.
// Unknown classes render subdued rather than loud.
func (t theme) classed(class string) lipgloss.Style {
	switch class {
	case "up", "ok":
		return t.good
	case "down", "err":
		return t.bad
	case "warn":
		return t.warn
	default:
		return t.subtle
	}
}

// cellStyle styles one table cell by its class. Badge and mono leads keep
// the default foreground so provider names stay readable on any palette.
func (t theme) cellStyle(class string) lipgloss.Style {
	switch {
	case class == "":
		return lipgloss.NewStyle()
	case strings.HasPrefix(class, "badge"):
		return t.value
	case class == "mono":
		return lipgloss.NewStyle()
	default:
		return t.classed(class)
	}
}

func renderHeader(t theme, d *view.Dashboard) string {
	meta := d.WindowLabel + " window"
	if d.RefreshedAgo != "" {
		meta += ", refreshed " + d.RefreshedAgo
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom,
		t.title.Render("mux-console usage"),
		"  ",
		t.subtle.Render(meta),
	)
}

func renderNotices(t theme, notices []view.NoticeView) string {
	if len(notices) == 0 {
		return ""
	}
	lines := lo.Map(notices, func(n view.NoticeView, _ int) string {
		badge := t.level(n.Level).Render("[" + n.Level + "]")
		return fmt.Sprintf("%s %s (%s)", badge, n.Message, n.Age)
	})
	return strings.Join(lines, "\n")
}

func renderCards(t theme, cards []view.Card, width int) string {
	if len(cards) == 0 {
		return ""
	}
	boxes := lo.Map(cards, func(c view.Card, _ int) string {
		value := t.value.Render(c.Value)
		if c.Class == "muted" {
			value = t.subtle.Render(c.Value)
		}
		lines := []string{t.subtle.Render(c.Title), value}
		if c.Hint != "" {
			lines = append(lines, t.classed(c.Class).Render(c.Hint))
		}
		return t.card.Width(cardWidth).Render(strings.Join(lines, "\n"))
	})

	// Boxes wrap into rows when the terminal is too narrow for one line.
	perRow := width / (cardWidth + 2)
	if perRow < 1 {
		perRow = 1
	}
	rows := lo.Map(lo.Chunk(boxes, perRow), func(row []string, _ int) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, row...)
	})
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderRequestChart(t theme, rows []view.TimelineRow, width int) string {
	if len(rows) < 2 {
		return ""
	}
	data := lo.Map(rows, func(r view.TimelineRow, _ int) float64 { return float64(r.Requests) })

	plotWidth := width - 12
	if plotWidth > 64 {
		plotWidth = 64
	}
	if plotWidth < 16 {
		plotWidth = 16
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("requests, %s to %s", rows[0].Label, rows[len(rows)-1].Label)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, t.title.Render("Requests"), graph)
}

// renderActivity draws one two-segment bar per bucket: success cells then
// error cells, sized by each bucket's share of the busiest one.
func renderActivity(t theme, rows []view.TimelineRow, width int) string {
	if len(rows) == 0 {
		return ""
	}
	var maxReq int64
	labelW := 0
	for _, r := range rows {
		if r.Requests > maxReq {
			maxReq = r.Requests
		}
		if n := utf8.RuneCountInString(r.Label); n > labelW {
			labelW = n
		}
	}
	if maxReq == 0 {
		return ""
	}

	track := width - labelW - 24
	if track > 48 {
		track = 48
	}
	if track < 10 {
		track = 10
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, t.title.Render("Activity"))
	for _, r := range rows {
		bar := scaleCells(r.Requests, maxReq, track)
		succ := scaleCells(r.Success, r.Requests, bar)
		errW := scaleCells(r.Errors, r.Requests, bar)
		if succ+errW > bar {
			errW = bar - succ
		}

		seg := t.good.Render(strings.Repeat(successBlock, succ)) +
			t.bad.Render(strings.Repeat(errorBlock, errW))
		counts := t.subtle.Render(format.Count(r.Requests) + " req")
		if r.Errors > 0 {
			counts += " " + t.bad.Render(format.Count(r.Errors)+" err")
		}

		pad := strings.Repeat(" ", track-bar+1)
		lines = append(lines, fmt.Sprintf("%*s %s%s%s", labelW, r.Label, seg, pad, counts))
	}
	return strings.Join(lines, "\n")
}

func sectionByKey(sections []view.Section, key string) *view.Section {
	for i := range sections {
		if sections[i].Key == key {
			return &sections[i]
		}
	}
	return nil
}

func renderSection(t theme, sec *view.Section) string {
	if sec == nil || sec.Table == nil {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, t.title.Render(sec.Title), renderTable(t, sec.Table))
}

// renderTable lays a view table out as aligned monospace columns, keeping
// the lead column plus the compact metric subset.
func renderTable(t theme, tbl *view.Table) string {
	keep := make([]int, 0, len(tbl.Columns))
	for i, col := range tbl.Columns {
		if i == 0 || lo.Contains(termMetricKeys, col.Key) {
			keep = append(keep, i)
		}
	}

	widths := make([]int, len(keep))
	for j, i := range keep {
		widths[j] = utf8.RuneCountInString(tbl.Columns[i].Title)
	}
	for _, row := range tbl.Rows {
		for j, i := range keep {
			if i >= len(row) {
				continue
			}
			if n := utf8.RuneCountInString(row[i].Text); n > widths[j] {
				widths[j] = n
			}
		}
	}

	header := make([]string, len(keep))
	rule := make([]string, len(keep))
	for j, i := range keep {
		col := tbl.Columns[i]
		header[j] = t.value.Render(padCell(col.Title, widths[j], col.Align))
		rule[j] = t.subtle.Render(strings.Repeat("─", widths[j]))
	}

	lines := make([]string, 0, len(tbl.Rows)+2)
	lines = append(lines, strings.Join(header, "  "), strings.Join(rule, "  "))
	for _, row := range tbl.Rows {
		cells := make([]string, len(keep))
		for j, i := range keep {
			var cell view.Cell
			if i < len(row) {
				cell = row[i]
			}
			cells[j] = t.cellStyle(cell.Class).Render(padCell(cell.Text, widths[j], tbl.Columns[i].Align))
		}
		lines = append(lines, strings.Join(cells, "  "))
	}
	return strings.Join(lines, "\n")
}

func renderListing(t theme, l view.Listing) string {
	if len(l.Rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, t.title.Render(l.Title), t.subtle.Render(l.Empty))
	}

	widths := make([]int, len(l.Headers))
	for i, h := range l.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range l.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if n := utf8.RuneCountInString(cell.Text); n > widths[i] {
				widths[i] = n
			}
		}
	}

	header := make([]string, len(l.Headers))
	rule := make([]string, len(l.Headers))
	for i, h := range l.Headers {
		header[i] = t.value.Render(padCell(h, widths[i], view.AlignLeft))
		rule[i] = t.subtle.Render(strings.Repeat("─", widths[i]))
	}

	lines := make([]string, 0, len(l.Rows)+3)
	lines = append(lines, t.title.Render(l.Title), strings.Join(header, "  "), strings.Join(rule, "  "))
	for _, row := range l.Rows {
		cells := make([]string, len(widths))
		for i := range widths {
			var cell view.Cell
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = t.cellStyle(cell.Class).Render(padCell(cell.Text, widths[i], view.AlignLeft))
		}
		lines = append(lines, strings.Join(cells, "  "))
	}
	return strings.Join(lines, "\n")
}

// padCell pads text to width cells before styling so ANSI sequences never
// skew the alignment.
func padCell(text string, width int, align view.Align) string {
	gap := width - utf8.RuneCountInString(text)
	if gap <= 0 {
		return text
	}
	if align == view.AlignRight {
		return strings.Repeat(" ", gap) + text
	}
	return text + strings.Repeat(" ", gap)
}

// scaleCells maps n of max onto a track of width cells, rounding half up.
// Non-zero counts stay visible with at least one cell.
func scaleCells(n, max int64, width int) int {
	if n <= 0 || max <= 0 || width <= 0 {
		return 0
	}
	w := int(float64(n)/float64(max)*float64(width) + 0.5)
	if w < 1 {
		w = 1
	}
	if w > width {
		w = width
	}
	return w
}
