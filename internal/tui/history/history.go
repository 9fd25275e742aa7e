package history

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scenarioq/internal/stats"
	"scenarioq/internal/storage"
	"scenarioq/internal/tui/result"
	"scenarioq/internal/tui/styles"
)

// Model browses saved runs; enter opens the report of the selected run.
type Model struct {
	Items []storage.HistoryItem
	Table table.Model

	detail   viewport.Model
	showing  bool
	selected *storage.HistoryItem

	Width  int
	Height int
}

func NewModel(items []storage.HistoryItem) Model {
	columns := []table.Column{
		{Title: "Time", Width: 20},
		{Title: "Scenario", Width: 24},
		{Title: "Users", Width: 7},
		{Title: "Reqs", Width: 8},
		{Title: "Success", Width: 9},
		{Title: "Stopped", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	t.SetRows(Rows(items))

	return Model{
		Items:  items,
		Table:  t,
		detail: viewport.New(80, 20),
	}
}

// Rows maps history items to table rows, in the given order.
func Rows(items []storage.HistoryItem) []table.Row {
	rows := make([]table.Row, len(items))
	for i, item := range items {
		rep := item.Report
		if rep == nil {
			rep = &stats.Report{}
		}
		rows[i] = table.Row{
			item.Timestamp.Local().Format(time.DateTime),
			filepath.Base(item.ScenarioPath),
			fmt.Sprintf("%d", item.Config.ConcurrentUsers),
			fmt.Sprintf("%d", rep.TotalRequests),
			stats.FormatRate(rep.SuccessRate()),
			rep.StopReason,
		}
	}
	return rows
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 4)
		m.Table.SetHeight(max(msg.Height-8, 3))
		m.detail.Width = msg.Width - 2
		m.detail.Height = max(msg.Height-4, 3)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc", "backspace":
			if m.showing {
				m.showing = false
				return m, nil
			}
		case "enter":
			if !m.showing && len(m.Items) > 0 {
				item := m.Items[m.Table.Cursor()]
				m.selected = &item
				m.showing = true
				m.detail.SetContent(detailView(item))
				m.detail.GotoTop()
				return m, nil
			}
		}
	}

	if m.showing {
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	if m.showing {
		b.WriteString(m.detail.View())
		b.WriteString("\n")
		b.WriteString(styles.RenderKey("esc", "back") + "  " + styles.RenderKey("q", "quit"))
		return b.String()
	}

	b.WriteString(styles.Title.Render("Run History"))
	b.WriteString("\n\n")
	if len(m.Items) == 0 {
		b.WriteString(styles.Subtle.Render("No saved runs. Use --save-history to record one."))
	} else {
		b.WriteString(styles.Box.Render(m.Table.View()))
	}
	b.WriteString("\n")
	b.WriteString(styles.RenderKey("enter", "details") + "  " + styles.RenderKey("q", "quit"))
	return b.String()
}

func detailView(item storage.HistoryItem) string {
	cfg := item.Config
	header := lipgloss.JoinVertical(lipgloss.Left,
		styles.Field("Run", item.ID),
		styles.Field("Scenario", item.ScenarioPath),
		styles.Field("Target", cfg.BaseURL),
		styles.Field("Users", fmt.Sprintf("%d over %ds ramp-up", cfg.ConcurrentUsers, cfg.RampUpSeconds)),
		styles.Field("Duration", fmt.Sprintf("%ds", cfg.DurationSeconds)),
	)
	if item.Report == nil {
		return header
	}
	return header + "\n\n" + result.Render(item.Report)
}
