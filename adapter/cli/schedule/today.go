package schedule

import (
	"fmt"
	"time"

	"github.com/mugi0227/nagi-scheduler/adapter/cli"
	"github.com/mugi0227/nagi-scheduler/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var todayCmd = &cobra.Command{
	Use:   "now",
	Short: "Show today's scheduled blocks",
	Long:  `Reduces the persisted plan to just the blocks touching the current calendar day, sorted by start time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetTodayTasksHandler == nil {
			fmt.Println("Schedule viewing requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		blocks, err := app.GetTodayTasksHandler.Handle(cmd.Context(), queries.GetTodayTasksQuery{
			UserID: app.CurrentUserID,
			Now:    time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to get today's tasks: %w", err)
		}

		if len(blocks) == 0 {
			fmt.Println("Nothing scheduled today.")
			return nil
		}

		for _, b := range blocks {
			ghost := ""
			if b.IsGhost {
				ghost = " (ghost)"
			}
			fmt.Printf("%s - %s  task=%s kind=%s%s\n", b.Start.Format("15:04"), b.End.Format("15:04"), b.TaskID, b.Kind, ghost)
		}
		return nil
	},
}
