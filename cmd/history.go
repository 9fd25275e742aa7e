package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scenarioq/internal/stats"
	"scenarioq/internal/storage"
	"scenarioq/internal/tui/history"
	"scenarioq/internal/tui/result"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("history-db")
		if path == "" {
			var err error
			if path, err = storage.DefaultPath(); err != nil {
				return err
			}
		}
		store, err := storage.NewStore(path)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()

		if id, _ := cmd.Flags().GetString("show"); id != "" {
			item, err := store.Get(id)
			if err != nil {
				return err
			}
			if item.Report == nil {
				return fmt.Errorf("run %s has no report", id)
			}
			fmt.Fprintln(out, result.Render(item.Report))
			return nil
		}

		items, err := store.List()
		if err != nil {
			return err
		}

		if list, _ := cmd.Flags().GetBool("list"); list {
			fmt.Fprintln(out, listTable(items))
			return nil
		}

		p := tea.NewProgram(history.NewModel(items), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	historyCmd.Flags().Bool("list", false, "print saved runs instead of opening the browser")
	historyCmd.Flags().String("show", "", "print the report of the run with this id")
}

func listTable(items []storage.HistoryItem) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Time", "Target", "Users", "Reqs", "Success", "Stopped")
	for _, item := range items {
		rep := item.Report
		if rep == nil {
			rep = &stats.Report{}
		}
		t.Row(
			item.ID,
			item.Timestamp.Local().Format(time.DateTime),
			item.Config.BaseURL,
			fmt.Sprintf("%d", item.Config.ConcurrentUsers),
			fmt.Sprintf("%d", rep.TotalRequests),
			stats.FormatRate(rep.SuccessRate()),
			rep.StopReason,
		)
	}
	return t.Render()
}
