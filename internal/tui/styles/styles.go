package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// --- Palette ---
var (
	ColorPrimary   = lipgloss.Color("#7D56F4")
	ColorSecondary = lipgloss.Color("#04B575")
	ColorError     = lipgloss.Color("#FF5F87")
	ColorWarning   = lipgloss.Color("#FFAF00")
	ColorText      = lipgloss.Color("#FAFAFA")
	ColorSubtle    = lipgloss.Color("#767676")
	ColorBorder    = lipgloss.Color("#3C3C3C")
	ColorBanner    = lipgloss.Color("#7D56F4")
)

var (
	Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(ColorSubtle)

	Section = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	Text   = lipgloss.NewStyle().Foreground(ColorText)
	Subtle = lipgloss.NewStyle().Foreground(ColorSubtle)
	Label  = lipgloss.NewStyle().Foreground(ColorSubtle).Width(16)
	Value  = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)

	Error   = lipgloss.NewStyle().Foreground(ColorError)
	Warn    = lipgloss.NewStyle().Foreground(ColorWarning)
	Success = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)

	KeyKey  = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	KeyDesc = lipgloss.NewStyle().Foreground(ColorSubtle)

	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	Cell       = lipgloss.NewStyle().PaddingRight(2)
	HeaderCell = lipgloss.NewStyle().PaddingRight(2).Foreground(ColorPrimary).Bold(true)
)

// Rate colours a success percentage: green at 100, gold above 90, red below.
func Rate(pct float64, text string) string {
	switch {
	case pct >= 100:
		return Success.Render(text)
	case pct >= 90:
		return Warn.Render(text)
	default:
		return Error.Render(text)
	}
}

func RenderKey(key, desc string) string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		KeyKey.Render("<"+key+">"),
		" ",
		KeyDesc.Render(desc),
	)
}

// Field renders an aligned "label value" line.
func Field(label, value string) string {
	return Label.Render(label) + Value.Render(value)
}
