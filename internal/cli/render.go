package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorPurple    = lipgloss.Color("#8B7EC8")
	ColorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	rollupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	tileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			Width(22)
)

// StatusColor returns the display color of a variance status.
func StatusColor(s model.VarianceStatus) lipgloss.Color {
	switch s {
	case model.VarianceWithin:
		return ColorGreen
	case model.VarianceWarning:
		return ColorYellow
	case model.VarianceOverspent:
		return ColorRed
	case model.VarianceOutOfBudget:
		return ColorPurple
	}
	return ColorTextMuted
}

// StatusStyle renders a variance status in its color.
func StatusStyle(s model.VarianceStatus) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(StatusColor(s))
}

// tileColor picks a color per classification status.
func tileColor(s model.StatusCategory) lipgloss.Color {
	switch s {
	case model.StatusSpent:
		return ColorBlue
	case model.StatusOutOfBudget:
		return ColorPurple
	case model.StatusWillNotBeSpent:
		return ColorTextMuted
	case model.StatusWishlist, model.StatusToBeConfirmed:
		return ColorYellow
	}
	return ColorGreen
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil

	// LeftCols is the number of leading left-aligned columns; the rest are
	// right-aligned. Zero means one.
	LeftCols int

	RowStyle    func(row int) (lipgloss.Style, bool)
	StatusCol   int
	StatusStyle func(row int) (lipgloss.Style, bool)
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

func rule(b *strings.Builder, widths []int, left, mid, right string) {
	b.WriteString(dimStyle.Render(left))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render(mid))
		}
	}
	b.WriteString(dimStyle.Render(right))
	b.WriteString("\n")
}

func pad(cell string, w int, left bool) string {
	gap := w - lipgloss.Width(cell)
	if gap < 0 {
		gap = 0
	}
	if left {
		return " " + cell + strings.Repeat(" ", gap) + " "
	}
	return " " + strings.Repeat(" ", gap) + cell + " "
}

// RenderTable renders a bordered table with headers and rows. A row holding
// the single cell "---" renders as a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	leftCols := t.LeftCols
	if leftCols == 0 {
		leftCols = 1
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule(&b, widths, "╭", "┬", "╮")

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(pad(h, widths[i], i < leftCols)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		rule(&b, widths, "├", "┼", "┤")
	}

	for r, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule(&b, widths, "├", "┼", "┤")
			continue
		}

		style := valueStyle
		if t.RowStyle != nil {
			if s, ok := t.RowStyle(r); ok {
				style = s
			}
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cellStyle := style
			if t.StatusStyle != nil && i == t.StatusCol {
				if s, ok := t.StatusStyle(r); ok {
					cellStyle = s
				}
			}
			b.WriteString(cellStyle.Render(pad(cell, widths[i], i < leftCols)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule(&b, widths, "╰", "┴", "╯")
	return b.String()
}

// RollupStyle is the row style for category TOTAL rows.
func RollupStyle() lipgloss.Style { return rollupStyle }

// RenderUsageBar renders spend against budget as a text bar.
func RenderUsageBar(spent, budgeted decimal.Decimal, width int) string {
	if budgeted.Sign() <= 0 || width <= 0 {
		return ""
	}

	ratio := spent.Div(budgeted)
	filled := int(ratio.Mul(decimal.NewFromInt(int64(width))).IntPart())
	filled = min(max(filled, 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	color := ColorGreen
	switch {
	case ratio.GreaterThan(decimal.NewFromInt(1)):
		color = ColorRed
	case ratio.GreaterThanOrEqual(decimal.RequireFromString("0.70")):
		color = ColorYellow
	}
	return fmt.Sprintf("[%s] %s",
		lipgloss.NewStyle().Foreground(color).Render(bar),
		FormatUsage(spent, budgeted),
	)
}

// RenderSummary renders the budget header line and one tile per status,
// four to a row.
func RenderSummary(s model.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "  %s %s   %s %s   %s %s\n\n",
		mutedStyle.Render("Budget"), valueStyle.Render(FormatMoney(s.BudgetTotal)),
		mutedStyle.Render("Spent"), valueStyle.Render(FormatMoney(s.Spent)),
		mutedStyle.Render("Balance"), balanceStyle(s.Balance).Render(FormatMoney(s.Balance)),
	)

	tiles := make([]string, 0, len(s.Tiles))
	for _, t := range s.Tiles {
		label := lipgloss.NewStyle().Foreground(tileColor(t.Status)).Render(string(t.Status))
		tiles = append(tiles, tileStyle.Render(label+"\n"+rollupStyle.Render(FormatMoney(t.Total))))
	}
	for i := 0; i < len(tiles); i += 4 {
		end := min(i+4, len(tiles))
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tiles[i:end]...))
		b.WriteString("\n")
	}
	return b.String()
}

func balanceStyle(d decimal.Decimal) lipgloss.Style {
	if d.IsNegative() {
		return lipgloss.NewStyle().Foreground(ColorRed)
	}
	return lipgloss.NewStyle().Foreground(ColorGreen)
}
