package result

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"scenarioq/internal/stats"
	"scenarioq/internal/tui/styles"
)

// Model shows one finished report.
type Model struct {
	Report *stats.Report

	Width  int
	Height int
}

func NewModel(rep *stats.Report) Model {
	return Model{Report: rep}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	if m.Report == nil {
		return styles.Subtle.Render("no report")
	}
	return Render(m.Report)
}

// Render formats a report for the terminal.
func Render(rep *stats.Report) string {
	s := strings.Builder{}

	s.WriteString(styles.Title.Render("📊 Test Complete"))
	s.WriteString("\n\n")

	s.WriteString(styles.Section.Render("Overview"))
	s.WriteString("\n")
	rate := stats.FormatRate(rep.SuccessRate())
	overview := lipgloss.JoinVertical(lipgloss.Left,
		styles.Field("Stopped by", rep.StopReason),
		styles.Field("Duration", rep.Duration.Round(time.Millisecond).String()),
		styles.Field("Requests", strconv.Itoa(rep.TotalRequests)),
		styles.Field("Successful", strconv.Itoa(rep.Successful)),
		styles.Field("Failed", strconv.Itoa(rep.Failed)),
		styles.Label.Render("Success rate")+styles.Rate(rep.SuccessRate(), rate),
		styles.Field("Throughput", fmt.Sprintf("%.2f req/s", rep.Throughput())),
	)
	s.WriteString(styles.Box.Render(overview))
	s.WriteString("\n\n")

	s.WriteString(styles.Section.Render("Virtual Users"))
	s.WriteString("\n")
	u := rep.Users
	users := lipgloss.JoinVertical(lipgloss.Left,
		styles.Field("Spawned", strconv.Itoa(u.Spawned)),
		styles.Field("Completed", strconv.Itoa(u.Completed)),
		styles.Field("Cancelled", strconv.Itoa(u.Cancelled)),
		styles.Field("Aborted", strconv.Itoa(u.Aborted)),
		styles.Field("Not started", strconv.Itoa(u.NotStarted)),
	)
	s.WriteString(styles.Box.Render(users))
	s.WriteString("\n\n")

	s.WriteString(styles.Section.Render("Latency (all requests)"))
	s.WriteString("\n")
	latency := lipgloss.JoinVertical(lipgloss.Left,
		styles.Field("P50", fmt.Sprintf("%.2f ms", rep.P50Ms)),
		styles.Field("P90", fmt.Sprintf("%.2f ms", rep.P90Ms)),
		styles.Field("P99", fmt.Sprintf("%.2f ms", rep.P99Ms)),
	)
	s.WriteString(styles.Box.Render(latency))
	s.WriteString("\n\n")

	if len(rep.Endpoints) > 0 {
		s.WriteString(styles.Section.Render("Endpoints"))
		s.WriteString("\n")
		s.WriteString(EndpointTable(rep.Endpoints))
		s.WriteString("\n")
		if errs := errorSamples(rep.Endpoints); errs != "" {
			s.WriteString("\n")
			s.WriteString(styles.Section.Render("Errors"))
			s.WriteString("\n")
			s.WriteString(errs)
		}
	}

	return s.String()
}

// EndpointTable renders per-endpoint stats, one row per request name.
func EndpointTable(endpoints []stats.EndpointReport) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.ColorBorder)).
		Headers("Endpoint", "Count", "Success", "Avg ms", "Min ms", "Max ms", "P95 ms").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.HeaderCell
			}
			return styles.Cell
		})

	for _, e := range endpoints {
		t.Row(
			e.Name,
			strconv.Itoa(e.Count),
			stats.FormatRate(e.SuccessRate),
			fmt.Sprintf("%.2f", e.AvgMs),
			fmt.Sprintf("%.2f", e.MinMs),
			fmt.Sprintf("%.2f", e.MaxMs),
			fmt.Sprintf("%.2f", e.P95Ms),
		)
	}
	return t.Render()
}

func errorSamples(endpoints []stats.EndpointReport) string {
	var b strings.Builder
	for _, e := range endpoints {
		if len(e.Errors) == 0 {
			continue
		}
		b.WriteString(styles.Text.Render(fmt.Sprintf("%s (%d failed)", e.Name, e.FailCount)))
		b.WriteString("\n")
		for _, sample := range e.Errors {
			status := "transport"
			if sample.StatusCode != 0 {
				status = strconv.Itoa(sample.StatusCode)
			}
			b.WriteString("  ")
			b.WriteString(styles.Error.Render(status))
			b.WriteString(" ")
			b.WriteString(styles.Subtle.Render(oneLine(sample.Error, 120)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > limit {
		return s[:limit] + "…"
	}
	return s
}
