package banner

import (
	"github.com/charmbracelet/lipgloss"

	"scenarioq/internal/tui/styles"
)

const ascii = `
                                 _       ____
  ___  ___ ___ _ __   __ _ _ __(_) ___ / __ \
 / __|/ __/ _ \ '_ \ / _' | '__| |/ _ \ |  | |
 \__ \ (_|  __/ | | | (_| | |  | | (_) | |__| |
 |___/\___\___|_| |_|\__,_|_|  |_|\___/ \___\_\
`

// GetString returns the banner with the given tagline underneath.
func GetString(tagline string) string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	out := "\n" + style.Render(ascii) + "\n"
	if tagline != "" {
		out += renderer.NewStyle().Foreground(styles.ColorSubtle).Render(tagline) + "\n"
	}
	return out
}
